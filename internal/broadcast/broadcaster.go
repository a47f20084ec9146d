// Package broadcast implements the in-memory pub/sub registry that fans
// approved posts out to live viewers. Delivery is best-effort and
// at-most-once: a subscriber that was not registered at publish time
// never sees that event, and there is no replay.
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"confide/internal/models"
)

// subscriber buffer size. A subscriber that falls this far behind is
// considered dead and is dropped on the next send.
const sendBuffer = 16

// State is the lifecycle of one subscriber connection. A closed
// subscriber is never reused; reconnecting clients register anew.
type State int

const (
	StateOpen State = iota
	StateClosed
)

// Event is one named message delivered whole to each matching subscriber.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Subscriber is a live connection in the registry.
type Subscriber struct {
	ID    string
	Topic models.Category // empty means no filter: receive everything

	ch    chan Event
	state State
}

// C returns the receive channel. It is closed when the subscriber leaves
// the registry, whether by Unregister or by send failure.
func (s *Subscriber) C() <-chan Event { return s.ch }

// Broadcaster is the process-wide registry of live subscribers. All
// methods are safe for concurrent use; publishes are serialized so each
// message reaches a given subscriber's channel whole and in order.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]*Subscriber
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{subs: make(map[string]*Subscriber)}
}

// Register adds a subscriber under the given id. The connection is open
// as soon as Register returns. Registering an id that is already present
// replaces (and closes) the previous subscriber.
func (b *Broadcaster) Register(id string, topic models.Category) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subs[id]; ok {
		b.closeLocked(old)
	}

	sub := &Subscriber{
		ID:    id,
		Topic: topic,
		ch:    make(chan Event, sendBuffer),
		state: StateOpen,
	}
	b.subs[id] = sub

	log.Debug().Str("client_id", id).Str("topic", string(topic)).Int("total", len(b.subs)).Msg("broadcast: subscriber registered")
	return sub
}

// Unregister removes a subscriber and closes its channel. Unknown ids
// are a no-op, so teardown paths can call it unconditionally.
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	b.closeLocked(sub)
	log.Debug().Str("client_id", id).Int("total", len(b.subs)).Msg("broadcast: subscriber removed")
}

// closeLocked transitions a subscriber to closed and drops it from the
// registry. Caller must hold b.mu; channel close is safe here because
// sends only ever happen under the same lock.
func (b *Broadcaster) closeLocked(sub *Subscriber) {
	if sub.state == StateClosed {
		return
	}
	sub.state = StateClosed
	delete(b.subs, sub.ID)
	close(sub.ch)
}

// Publish fans an event out to every subscriber whose filter accepts the
// topic: an empty topic reaches everyone, an unfiltered subscriber
// receives everything, otherwise topics must match. Subscribers whose
// buffer is full are dropped from the registry (self-healing). Returns
// the number of subscribers the event was delivered to.
func (b *Broadcaster) Publish(name string, payload any, topic models.Category) int {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", name).Msg("broadcast: failed to marshal payload")
		return 0
	}
	ev := Event{Name: name, Data: data}

	b.mu.Lock()
	defer b.mu.Unlock()

	sent := 0
	for _, sub := range b.subs {
		if topic != "" && sub.Topic != "" && sub.Topic != topic {
			continue
		}
		select {
		case sub.ch <- ev:
			sent++
		default:
			// Subscriber can't keep up; treat as dead.
			log.Warn().Str("client_id", sub.ID).Str("event", name).Msg("broadcast: send failed, dropping subscriber")
			b.closeLocked(sub)
		}
	}

	log.Debug().Str("event", name).Str("topic", string(topic)).Int("sent", sent).Int("total", len(b.subs)).Msg("broadcast: published")
	return sent
}

// Count returns the number of live subscribers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
