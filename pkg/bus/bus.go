// Package bus is an in-process publish/subscribe hub for typed signals.
package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind names a signal type.
type Kind string

// KindListInvalidated means the event list may have changed and must be
// refetched in full.
const KindListInvalidated Kind = "events.list_invalidated"

// KindActorChanged means the acting user was selected, restored or cleared.
const KindActorChanged Kind = "session.actor_changed"

// Signal is a single published notification. It carries no payload.
type Signal struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives signals. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(Signal)

type subscription struct {
	kind    Kind
	handler Handler
}

// Bus fans signals out to subscribers of the same kind.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscription
	logger *zap.Logger
}

// New constructs an empty bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{subs: make(map[uint64]subscription), logger: logger}
}

// Subscribe registers handler for kind and returns a func that removes it.
// The returned func is idempotent.
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = subscription{kind: kind, handler: handler}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers a new signal of kind to every current subscriber and
// returns it.
func (b *Bus) Publish(kind Kind, source string) Signal {
	sig := Signal{
		ID:        uuid.New().String(),
		Kind:      kind,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.kind == kind {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	b.logger.Debug("signal published", zap.String("kind", string(kind)), zap.String("source", source), zap.Int("subscribers", len(handlers)))
	for _, h := range handlers {
		h(sig)
	}
	return sig
}

// Subscribers returns the number of handlers registered for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, sub := range b.subs {
		if sub.kind == kind {
			n++
		}
	}
	return n
}
