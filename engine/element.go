package engine

import (
	"sync"

	"github.com/iw2rmb/potluck/document"
	"go.uber.org/zap"
)

// Input is the hidden form field mirroring the serialized document.
type Input struct {
	Name string

	mu    sync.RWMutex
	value string
}

func (in *Input) Value() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value
}

// SetValue sets the field value. The engine loads it on Connect.
func (in *Input) SetValue(v string) {
	in.mu.Lock()
	in.value = v
	in.mu.Unlock()
}

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Element hosts an editor and its event listeners.
//
// Engine events are queued in mutation order and delivered by one goroutine
// at a time, so listeners never run concurrently with each other for queued
// events. Events passed to Dispatch are delivered synchronously on the
// calling goroutine.
type Element struct {
	logger *zap.Logger
	opt    document.Options
	input  *Input

	mu        sync.Mutex
	nextID    ListenerID
	listeners map[EventName][]listenerEntry
	editor    *Editor
	connected bool
	disabled  bool
	focused   bool

	qmu      sync.Mutex
	queue    []*Event
	draining bool

	updates chan struct{}
}

// Option configures an Element.
type Option func(*Element)

func WithLogger(l *zap.Logger) Option {
	return func(el *Element) {
		if l != nil {
			el.logger = l
		}
	}
}

// WithName sets the hidden input name.
func WithName(name string) Option {
	return func(el *Element) { el.input.Name = name }
}

func WithHistoryLimit(n int) Option {
	return func(el *Element) { el.opt.HistoryLimit = n }
}

func NewElement(opts ...Option) *Element {
	el := &Element{
		logger:    zap.NewNop(),
		input:     &Input{},
		listeners: map[EventName][]listenerEntry{},
		updates:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(el)
	}
	return el
}

func (el *Element) Input() *Input { return el.input }

// Editor returns the editor, or nil before Connect.
func (el *Element) Editor() *Editor {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.editor
}

// Updates signals after every content, selection or attachment progress
// change. Signals coalesce.
func (el *Element) Updates() <-chan struct{} { return el.updates }

func (el *Element) notify() {
	select {
	case el.updates <- struct{}{}:
	default:
	}
}

func (el *Element) AddEventListener(name EventName, fn Listener) ListenerID {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.nextID++
	id := el.nextID
	el.listeners[name] = append(el.listeners[name], listenerEntry{id: id, fn: fn})
	return id
}

func (el *Element) RemoveEventListener(name EventName, id ListenerID) {
	el.mu.Lock()
	defer el.mu.Unlock()
	entries := el.listeners[name]
	for i, e := range entries {
		if e.id != id {
			continue
		}
		out := make([]listenerEntry, 0, len(entries)-1)
		out = append(out, entries[:i]...)
		out = append(out, entries[i+1:]...)
		if len(out) == 0 {
			delete(el.listeners, name)
		} else {
			el.listeners[name] = out
		}
		return
	}
}

// ListenerCount returns the number of listeners for name.
func (el *Element) ListenerCount(name EventName) int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.listeners[name])
}

// Connect attaches the element: the editor is created from the input value
// and initialize is dispatched. Connecting twice is a no-op.
func (el *Element) Connect() *Editor {
	el.mu.Lock()
	if el.connected {
		ed := el.editor
		el.mu.Unlock()
		return ed
	}
	el.connected = true
	if el.editor == nil {
		el.editor = newEditor(el, el.input.Value())
	}
	ed := el.editor
	el.mu.Unlock()

	ed.attach()
	el.enqueue(&Event{Name: EventInitialize})
	el.drain()
	return ed
}

// Disconnect detaches the element. Attachment changes stop producing events
// until the element is connected again.
func (el *Element) Disconnect() {
	el.mu.Lock()
	if !el.connected {
		el.mu.Unlock()
		return
	}
	el.connected = false
	ed := el.editor
	el.mu.Unlock()

	if ed != nil {
		ed.detach()
	}
}

func (el *Element) Connected() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.connected
}

// SetDisabled toggles interactivity. Attribute and action state are
// re-reported.
func (el *Element) SetDisabled(disabled bool) {
	el.mu.Lock()
	if el.disabled == disabled {
		el.mu.Unlock()
		return
	}
	el.disabled = disabled
	ed := el.editor
	if disabled {
		el.focused = false
	}
	el.mu.Unlock()

	if ed != nil {
		ed.refresh()
	}
}

func (el *Element) Disabled() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.disabled
}

func (el *Element) Focused() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.focused
}

// Focus moves focus into the element and dispatches focus. Disabled
// elements do not take focus.
func (el *Element) Focus() {
	el.mu.Lock()
	if el.focused || el.disabled {
		el.mu.Unlock()
		return
	}
	el.focused = true
	el.mu.Unlock()

	el.enqueue(&Event{Name: EventFocus})
	el.drain()
}

func (el *Element) Blur() {
	el.mu.Lock()
	if !el.focused {
		el.mu.Unlock()
		return
	}
	el.focused = false
	el.mu.Unlock()

	el.enqueue(&Event{Name: EventBlur})
	el.drain()
}

// Dispatch delivers ev to the listeners for ev.Name on the calling goroutine
// and reports whether the default action may proceed.
func (el *Element) Dispatch(ev *Event) bool {
	el.deliver(ev)
	return !ev.DefaultPrevented()
}

func (el *Element) enqueue(evs ...*Event) {
	if len(evs) == 0 {
		return
	}
	el.qmu.Lock()
	el.queue = append(el.queue, evs...)
	el.qmu.Unlock()
}

// drain delivers queued events until the queue is empty. A call made while
// another goroutine (or an enclosing listener) is draining returns at once;
// the active drain delivers the events, on its own goroutine.
func (el *Element) drain() {
	el.qmu.Lock()
	if el.draining {
		el.qmu.Unlock()
		return
	}
	el.draining = true
	for len(el.queue) > 0 {
		ev := el.queue[0]
		el.queue[0] = nil
		el.queue = el.queue[1:]
		el.qmu.Unlock()

		el.deliver(ev)

		el.qmu.Lock()
	}
	el.draining = false
	el.qmu.Unlock()
}

func (el *Element) deliver(ev *Event) {
	ev.Target = el

	el.mu.Lock()
	entries := append([]listenerEntry(nil), el.listeners[ev.Name]...)
	el.mu.Unlock()

	for _, e := range entries {
		el.call(e.fn, ev)
	}
	el.notify()
}

func (el *Element) call(fn Listener, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			el.logger.Error("event listener panicked",
				zap.String("event", string(ev.Name)),
				zap.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
