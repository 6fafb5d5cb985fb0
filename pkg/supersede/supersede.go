// Package supersede tracks the latest in-flight request for a changing input.
//
// Starting a request through a Slot cancels its predecessor, and a result is
// only applied when its ticket is still the newest one, so a slow early
// response can never overwrite state established by a later request.
package supersede

import (
	"context"
	"sync"
)

// Slot holds at most one live request.
type Slot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Ticket identifies one request started on a Slot.
type Ticket struct {
	slot *Slot
	gen  uint64
}

// Begin cancels the previous request (if any) and starts a new one whose
// context is derived from parent.
func (s *Slot) Begin(parent context.Context) (context.Context, Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, Ticket{slot: s, gen: s.gen}
}

// Cancel aborts the live request without starting a new one. Any ticket
// issued before the call becomes stale.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// Current reports whether t is still the newest ticket of its slot.
func (t Ticket) Current() bool {
	if t.slot == nil {
		return false
	}
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	return t.slot.gen == t.gen
}

// Apply runs fn only if t is still current. The check and fn run under the
// slot lock so no newer request can start in between.
func (t Ticket) Apply(fn func()) bool {
	if t.slot == nil {
		return false
	}
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	if t.slot.gen != t.gen {
		return false
	}
	fn()
	return true
}

// Done releases the request context once the caller has finished with it.
func (t Ticket) Done() {
	if t.slot == nil {
		return
	}
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	if t.slot.gen == t.gen && t.slot.cancel != nil {
		t.slot.cancel()
		t.slot.cancel = nil
	}
}

// Group keeps one Slot per key, e.g. one per event id.
type Group[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*Slot
}

// Slot returns the slot for key, creating it on first use.
func (g *Group[K]) Slot(key K) *Slot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.slots == nil {
		g.slots = make(map[K]*Slot)
	}
	s, ok := g.slots[key]
	if !ok {
		s = &Slot{}
		g.slots[key] = s
	}
	return s
}

// Begin is shorthand for g.Slot(key).Begin(parent).
func (g *Group[K]) Begin(parent context.Context, key K) (context.Context, Ticket) {
	return g.Slot(key).Begin(parent)
}

// Cancel aborts the live request for key, if any.
func (g *Group[K]) Cancel(key K) {
	g.Slot(key).Cancel()
}
