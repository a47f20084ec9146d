package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"confide/internal/broadcast"
	"confide/internal/confession"
	"confide/internal/database/boltstore"
	"confide/internal/database/sqlitestore"
	"confide/internal/ratelimit"
)

// testAdminKey is the shared secret used by handler tests.
const testAdminKey = "test-admin-key"

// TestContext bundles a fully wired handler over real temp-dir stores.
type TestContext struct {
	Handler     *Handler
	Service     *confession.Service
	Broadcaster *broadcast.Broadcaster
}

// NewTestContext builds a handler backed by a fresh sqlite database and
// audit log in t.TempDir().
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "confide.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	audit, err := boltstore.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	b := broadcast.New()
	svc := confession.NewService(store, ratelimit.New(ratelimit.DefaultConfig()), b)
	svc.SetAudit(audit)

	return &TestContext{
		Handler:     NewHandler(svc, b, Config{AdminKey: testAdminKey}),
		Service:     svc,
		Broadcaster: b,
	}
}

// newJSONRequest builds a request with an optional JSON body.
func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// newAdminRequest builds a JSON request carrying the test admin key.
func newAdminRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	req := newJSONRequest(t, method, target, body)
	req.Header.Set("X-Admin-Key", testAdminKey)
	return req
}

// decodeBody unmarshals a recorder's JSON body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// carryCookies copies Set-Cookie values from a response onto a request,
// simulating a returning client.
func carryCookies(rec *httptest.ResponseRecorder, req *http.Request) {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
}
