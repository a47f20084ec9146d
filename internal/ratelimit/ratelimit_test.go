package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheck_AdmitsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequests: 5, Window: time.Hour})

	for i := 0; i < 5; i++ {
		res := l.Check("client-a")
		assert.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res := l.Check("client-a")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestCheck_DenialKeepsResetTime(t *testing.T) {
	l, now := newTestLimiter(Config{MaxRequests: 1, Window: time.Hour})

	first := l.Check("client-a")
	require.True(t, first.Allowed)

	*now = now.Add(10 * time.Minute)
	denied := l.Check("client-a")
	assert.False(t, denied.Allowed)
	assert.Equal(t, first.ResetAt, denied.ResetAt, "denial must not extend the window")
}

func TestCheck_WindowReset(t *testing.T) {
	l, now := newTestLimiter(Config{MaxRequests: 2, Window: time.Hour})

	l.Check("client-a")
	l.Check("client-a")
	assert.False(t, l.Check("client-a").Allowed)

	// Advance past the window end; next check gets a fresh window.
	*now = now.Add(time.Hour)
	res := l.Check("client-a")
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, now.Add(time.Hour), res.ResetAt)
}

func TestCheck_IdentifiersIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequests: 1, Window: time.Hour})

	assert.True(t, l.Check("client-a").Allowed)
	assert.False(t, l.Check("client-a").Allowed)
	assert.True(t, l.Check("client-b").Allowed)
}

func TestCheck_ConcurrentNeverOverAdmits(t *testing.T) {
	l := New(Config{MaxRequests: 5, Window: time.Hour})

	const workers = 50
	var wg sync.WaitGroup
	admitted := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("shared").Allowed {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for range admitted {
		count++
	}
	assert.Equal(t, 5, count, "exactly max requests admitted within one window")
}

func TestStatus_DoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequests: 2, Window: time.Hour})

	_, ok := l.Status("client-a")
	assert.False(t, ok, "no window before first check")

	l.Check("client-a")
	for i := 0; i < 3; i++ {
		st, ok := l.Status("client-a")
		require.True(t, ok)
		assert.Equal(t, 1, st.Remaining)
	}
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequests: 1, Window: time.Hour})

	l.Check("client-a")
	assert.False(t, l.Check("client-a").Allowed)

	l.Reset("client-a")
	assert.True(t, l.Check("client-a").Allowed)
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	l, now := newTestLimiter(Config{MaxRequests: 5, Window: time.Hour})

	l.Check("old")
	*now = now.Add(30 * time.Minute)
	l.Check("fresh")
	*now = now.Add(45 * time.Minute) // "old" expired, "fresh" still live

	l.sweep()
	assert.Equal(t, 1, l.Len())

	// Sweep must not disturb the live window.
	st, ok := l.Status("fresh")
	require.True(t, ok)
	assert.Equal(t, 4, st.Remaining)
}
