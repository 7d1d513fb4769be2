package events

import (
	"testing"

	"github.com/iw2rmb/potluck/engine"
)

func TestAttach_SubscribesEveryEventOnce(t *testing.T) {
	el := engine.NewElement()
	s := NewSubscriber(nil)

	s.Attach(el)
	s.Attach(el)
	for _, name := range engine.AllEvents {
		if got := el.ListenerCount(name); got != 1 {
			t.Fatalf("%s listeners=%d, want 1", name, got)
		}
	}
	if s.Target() != el {
		t.Fatalf("target not recorded")
	}
}

func TestSetHandlers_DoesNotResubscribe(t *testing.T) {
	el := engine.NewElement()
	ed := el.Connect()

	var first, second int
	s := Subscribe(el, Handlers{engine.EventChange: func(*engine.Event) { first++ }})

	ed.InsertString("a")
	s.SetHandlers(Handlers{engine.EventChange: func(*engine.Event) { second++ }})
	ed.InsertString("b")

	if first != 1 || second != 1 {
		t.Fatalf("calls first=%d second=%d, want 1 and 1", first, second)
	}
	if got := el.ListenerCount(engine.EventChange); got != 1 {
		t.Fatalf("listeners=%d, want 1", got)
	}
}

func TestAbsentHandlerIsNoOp(t *testing.T) {
	el := engine.NewElement()
	ed := el.Connect()
	Subscribe(el, Handlers{engine.EventBlur: nil})

	ed.InsertString("a")
	el.Focus()
	el.Blur()
}

func TestAttach_NewTargetMovesListeners(t *testing.T) {
	a := engine.NewElement()
	b := engine.NewElement()
	s := NewSubscriber(nil)

	s.Attach(a)
	s.Attach(b)
	if got := a.ListenerCount(engine.EventChange); got != 0 {
		t.Fatalf("old target listeners=%d, want 0", got)
	}
	if got := b.ListenerCount(engine.EventChange); got != 1 {
		t.Fatalf("new target listeners=%d, want 1", got)
	}

	s.Detach()
	if got := b.ListenerCount(engine.EventChange); got != 0 {
		t.Fatalf("listeners after detach=%d, want 0", got)
	}
	if s.Target() != nil {
		t.Fatalf("target after detach should be nil")
	}
}

func TestRef_LoadZero(t *testing.T) {
	var r Ref[Handlers]
	if r.Load() != nil {
		t.Fatalf("zero ref should load nil")
	}
	r.Set(Handlers{})
	if r.Load() == nil {
		t.Fatalf("expected stored handlers")
	}
}
