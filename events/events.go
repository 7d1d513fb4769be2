// Package events binds engine events to host handlers.
//
// A Subscriber registers one listener per engine event on its target and
// routes each event through a Ref to the handler set of the latest render.
// Replacing handlers never touches the target's listener list; only a change
// of target identity re-subscribes.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/iw2rmb/potluck/engine"
)

// Handler receives one engine event.
type Handler func(*engine.Event)

// Handlers maps event names to optional handlers.
type Handlers map[engine.EventName]Handler

// Ref is a mutable cell read at dispatch time.
type Ref[T any] struct {
	p atomic.Pointer[T]
}

func NewRef[T any](v T) *Ref[T] {
	r := &Ref[T]{}
	r.Set(v)
	return r
}

func (r *Ref[T]) Load() T {
	if p := r.p.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

func (r *Ref[T]) Set(v T) { r.p.Store(&v) }

// Subscriber keeps engine listeners attached to one target at a time.
type Subscriber struct {
	handlers Ref[Handlers]

	mu     sync.Mutex
	target *engine.Element
	ids    map[engine.EventName]engine.ListenerID
}

func NewSubscriber(h Handlers) *Subscriber {
	s := &Subscriber{}
	s.SetHandlers(h)
	return s
}

// SetHandlers swaps the handler set. Events dispatched afterwards reach the
// new handlers; listener registrations are unchanged.
func (s *Subscriber) SetHandlers(h Handlers) {
	s.handlers.Set(copyHandlers(h))
}

// Attach subscribes every engine event on target. Attaching to the current
// target is a no-op; attaching to another target detaches from the previous
// one first. A nil target detaches.
func (s *Subscriber) Attach(target *engine.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target == s.target {
		return
	}
	s.detachLocked()
	if target == nil {
		return
	}

	s.target = target
	s.ids = make(map[engine.EventName]engine.ListenerID, len(engine.AllEvents))
	for _, name := range engine.AllEvents {
		s.ids[name] = target.AddEventListener(name, s.route(name))
	}
}

// Detach removes every listener registered by Attach.
func (s *Subscriber) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
}

// Target returns the element currently subscribed, if any.
func (s *Subscriber) Target() *engine.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *Subscriber) detachLocked() {
	if s.target == nil {
		return
	}
	for name, id := range s.ids {
		s.target.RemoveEventListener(name, id)
	}
	s.target = nil
	s.ids = nil
}

func (s *Subscriber) route(name engine.EventName) engine.Listener {
	return func(ev *engine.Event) {
		if h := s.handlers.Load()[name]; h != nil {
			h(ev)
		}
	}
}

// Subscribe attaches a new Subscriber for h to target.
func Subscribe(target *engine.Element, h Handlers) *Subscriber {
	s := NewSubscriber(h)
	s.Attach(target)
	return s
}

func copyHandlers(h Handlers) Handlers {
	out := make(Handlers, len(h))
	for k, v := range h {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
