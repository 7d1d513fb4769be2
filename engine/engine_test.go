package engine

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/iw2rmb/potluck/document"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu     sync.Mutex
	events []*Event
}

func record(el *Element, names ...EventName) *recorder {
	r := &recorder{}
	if len(names) == 0 {
		names = AllEvents
	}
	for _, n := range names {
		el.AddEventListener(n, func(ev *Event) {
			r.mu.Lock()
			r.events = append(r.events, ev)
			r.mu.Unlock()
		})
	}
	return r
}

func (r *recorder) names() []EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventName, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

func (r *recorder) last(name EventName) *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i]
		}
	}
	return nil
}

func (r *recorder) count(name EventName) int {
	n := 0
	for _, got := range r.names() {
		if got == name {
			n++
		}
	}
	return n
}

func TestConnect_LoadsInputAndDispatchesInitialize(t *testing.T) {
	el := NewElement(WithName("recipe[body]"))
	el.Input().SetValue("<div>hi</div>")
	rec := record(el, EventInitialize, EventChange)

	ed := el.Connect()
	if ed == nil || el.Editor() != ed {
		t.Fatalf("expected editor after connect")
	}
	if got, want := ed.HTML(), "<div>hi</div>"; got != want {
		t.Fatalf("html=%q, want %q", got, want)
	}
	if got := rec.names(); len(got) != 1 || got[0] != EventInitialize {
		t.Fatalf("events=%v, want [initialize]", got)
	}
	if got, want := el.Input().Name, "recipe[body]"; got != want {
		t.Fatalf("input name=%q, want %q", got, want)
	}

	if again := el.Connect(); again != ed {
		t.Fatalf("second connect returned a new editor")
	}
	if got := rec.count(EventInitialize); got != 1 {
		t.Fatalf("initialize count=%d, want 1", got)
	}
}

func TestInsertString_EmitsChangeAndUpdatesInput(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	rec := record(el)

	ed.InsertString("a")

	got := rec.names()
	want := []EventName{EventChange, EventSelectionChange, EventActionsChange}
	if len(got) != len(want) {
		t.Fatalf("events=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events=%v, want %v", got, want)
		}
	}
	if got, want := rec.last(EventChange).HTML, "<div>a</div>"; got != want {
		t.Fatalf("change html=%q, want %q", got, want)
	}
	if got, want := el.Input().Value(), "<div>a</div>"; got != want {
		t.Fatalf("input=%q, want %q", got, want)
	}
	if !rec.last(EventActionsChange).Actions[ActionUndo] {
		t.Fatalf("expected undo available")
	}
}

func TestMove_EmitsOnlySelectionChange(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	ed.InsertString("ab")
	rec := record(el)

	ed.Move(document.Move{Unit: document.MoveCell, Dir: document.DirLeft})
	if got := rec.names(); len(got) != 1 || got[0] != EventSelectionChange {
		t.Fatalf("events=%v, want [selection-change]", got)
	}
	if got, want := rec.last(EventSelectionChange).Selection, document.Collapsed(document.Pos{Offset: 1}); got != want {
		t.Fatalf("selection=%v, want %v", got, want)
	}
}

func TestAttributesChange_ReflectsFormatting(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	rec := record(el, EventAttributesChange)

	ed.ActivateAttribute(document.AttrBold)
	ev := rec.last(EventAttributesChange)
	if ev == nil || ev.Attributes[document.AttrBold] != true {
		t.Fatalf("attributes-change=%v, want bold", ev)
	}
	if !ed.AttributeIsActive(document.AttrBold) {
		t.Fatalf("expected bold active")
	}

	ed.ToggleAttribute(document.AttrBold)
	if ed.AttributeIsActive(document.AttrBold) {
		t.Fatalf("expected bold inactive after toggle")
	}
}

func TestInsertFile_CancelledByFileAccept(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	el.AddEventListener(EventFileAccept, func(ev *Event) {
		if strings.HasSuffix(ev.File.Name, ".exe") {
			ev.PreventDefault()
		}
	})
	rec := record(el, EventAttachmentAdd, EventChange)

	if ed.InsertFile(&document.File{Name: "virus.exe", Size: 10}) {
		t.Fatalf("expected rejected file")
	}
	if got := rec.names(); len(got) != 0 {
		t.Fatalf("events=%v, want none", got)
	}
	if got := len(ed.Attachments()); got != 0 {
		t.Fatalf("attachments=%d, want 0", got)
	}

	f := &document.File{Name: "pie.png", Type: "image/png", Size: 10}
	if !ed.InsertFile(f) {
		t.Fatalf("expected accepted file")
	}
	got := rec.names()
	if len(got) != 2 || got[0] != EventAttachmentAdd || got[1] != EventChange {
		t.Fatalf("events=%v, want [attachment-add change]", got)
	}
	if rec.last(EventAttachmentAdd).Attachment.File() != f {
		t.Fatalf("attachment-add should carry the raw file")
	}
}

func TestAttachmentEdit_OnlyWhilePresent(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	ed.InsertFile(&document.File{Name: "pie.png", Type: "image/png", Size: 10})
	att := ed.Attachments()[0]
	rec := record(el)

	att.SetAttributes(map[string]string{document.AttachmentURL: "/blobs/pie.png"})
	got := rec.names()
	if len(got) != 2 || got[0] != EventAttachmentEdit || got[1] != EventChange {
		t.Fatalf("events=%v, want [attachment-edit change]", got)
	}
	if !strings.Contains(rec.last(EventChange).HTML, `src="/blobs/pie.png"`) {
		t.Fatalf("change html=%q, want image url", rec.last(EventChange).HTML)
	}
	if !strings.Contains(el.Input().Value(), "/blobs/pie.png") {
		t.Fatalf("input not updated")
	}

	ed.DeleteInDirection(Backward)
	if rec.last(EventAttachmentRemove) == nil {
		t.Fatalf("expected attachment-remove")
	}

	edits := rec.count(EventAttachmentEdit)
	att.SetAttributes(map[string]string{document.AttachmentHref: "/blobs/pie.png"})
	if got := rec.count(EventAttachmentEdit); got != edits {
		t.Fatalf("attachment-edit after removal")
	}
}

func TestSetDisabled_ReportsEverythingUnavailable(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	ed.InsertString("a")
	rec := record(el, EventAttributesChange, EventActionsChange)

	el.SetDisabled(true)
	attrs := rec.last(EventAttributesChange)
	if attrs == nil {
		t.Fatalf("expected attributes-change")
	}
	for _, n := range document.TextAttributes {
		if attrs.Attributes[n] != false {
			t.Fatalf("%s=%v, want false", n, attrs.Attributes[n])
		}
	}
	actions := rec.last(EventActionsChange)
	if actions == nil || actions.Actions[ActionUndo] {
		t.Fatalf("actions-change=%v, want undo unavailable", actions)
	}
	if ed.CanActivateAttribute(document.AttrBold) {
		t.Fatalf("expected bold unavailable while disabled")
	}

	el.Focus()
	if el.Focused() {
		t.Fatalf("disabled element took focus")
	}
}

func TestFocusBlur(t *testing.T) {
	el := NewElement()
	el.Connect()
	rec := record(el, EventFocus, EventBlur)

	el.Focus()
	el.Focus()
	el.Blur()
	got := rec.names()
	if len(got) != 2 || got[0] != EventFocus || got[1] != EventBlur {
		t.Fatalf("events=%v, want [focus blur]", got)
	}
}

func TestPaste_BeforePasteCancels(t *testing.T) {
	el := NewElement()
	ed := el.Connect()
	cancel := true
	el.AddEventListener(EventBeforePaste, func(ev *Event) {
		if cancel {
			ev.PreventDefault()
		}
	})
	rec := record(el, EventPaste, EventChange)

	if ed.Paste(PasteData{Type: "text/plain", String: "x"}) {
		t.Fatalf("expected cancelled paste")
	}
	if got := ed.Text(); got != "" {
		t.Fatalf("text=%q, want empty", got)
	}

	cancel = false
	if !ed.Paste(PasteData{Type: "text/html", HTML: "<b>x</b>"}) {
		t.Fatalf("expected paste")
	}
	got := rec.names()
	if len(got) != 2 || got[0] != EventChange || got[1] != EventPaste {
		t.Fatalf("events=%v, want [change paste]", got)
	}
	if got, want := ed.HTML(), "<div><strong>x</strong></div>"; got != want {
		t.Fatalf("html=%q, want %q", got, want)
	}
}

func TestListener_PanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := NewElement(WithLogger(zap.New(core)))
	ed := el.Connect()

	el.AddEventListener(EventChange, func(*Event) { panic("boom") })
	rec := record(el, EventChange)

	ed.InsertString("a")
	if got := rec.count(EventChange); got != 1 {
		t.Fatalf("change count=%d, want 1", got)
	}
	if got := logs.FilterMessage("event listener panicked").Len(); got != 1 {
		t.Fatalf("panic logs=%d, want 1", got)
	}
}

func TestRemoveEventListener(t *testing.T) {
	el := NewElement()
	id := el.AddEventListener(EventChange, func(*Event) {})
	el.AddEventListener(EventChange, func(*Event) {})
	if got := el.ListenerCount(EventChange); got != 2 {
		t.Fatalf("listeners=%d, want 2", got)
	}
	el.RemoveEventListener(EventChange, id)
	el.RemoveEventListener(EventChange, id)
	if got := el.ListenerCount(EventChange); got != 1 {
		t.Fatalf("listeners=%d, want 1", got)
	}
}

func TestConcurrentMutations_SerialOrderedDelivery(t *testing.T) {
	el := NewElement()
	ed := el.Connect()

	var inflight, overlap atomic.Int32
	var mu sync.Mutex
	var htmls []string
	el.AddEventListener(EventChange, func(ev *Event) {
		if inflight.Add(1) > 1 {
			overlap.Add(1)
		}
		mu.Lock()
		htmls = append(htmls, ev.HTML)
		mu.Unlock()
		inflight.Add(-1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ed.InsertString("x")
		}()
	}
	wg.Wait()

	if overlap.Load() != 0 {
		t.Fatalf("listeners ran concurrently")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(htmls) != 20 {
		t.Fatalf("change count=%d, want 20", len(htmls))
	}
	for i, h := range htmls {
		if want := "<div>" + strings.Repeat("x", i+1) + "</div>"; h != want {
			t.Fatalf("change[%d]=%q, want %q", i, h, want)
		}
	}
}

func TestDefaultLoader(t *testing.T) {
	m, err := DefaultLoader.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	el := m.NewElement(WithName("body"))
	if el.Input().Name != "body" {
		t.Fatalf("module options not applied")
	}
}

func TestDrain_ActiveDeliveryTakesOverLaterEvents(t *testing.T) {
	el := NewElement()
	ed := el.Connect()

	first := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var got []string
	el.AddEventListener(EventChange, func(ev *Event) {
		mu.Lock()
		got = append(got, ev.HTML)
		n := len(got)
		mu.Unlock()
		if n == 1 {
			close(first)
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		ed.InsertString("a")
	}()
	<-first

	// Returns while the first command is still delivering its change.
	ed.InsertString("b")
	mu.Lock()
	if len(got) != 1 {
		t.Fatalf("changes before release=%d, want 1", len(got))
	}
	mu.Unlock()

	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	want := []string{"<div>a</div>", "<div>ab</div>"}
	if len(got) != len(want) {
		t.Fatalf("changes=%q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change[%d]=%q, want %q", i, got[i], want[i])
		}
	}
}
