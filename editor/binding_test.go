package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/upload"
)

func mounted(t *testing.T, cfg Config) Model {
	t.Helper()
	m, err := New(cfg).Mount(context.Background())
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestInitialValue_LoadsOnce(t *testing.T) {
	var changes []string
	inits := 0
	m := mounted(t, Config{
		InitialValue:  "<div>A</div>",
		OnValueChange: func(html string) { changes = append(changes, html) },
		OnInitialize:  func(*engine.Event) { inits++ },
	})

	if got, want := m.Value(), "<div>A</div>"; got != want {
		t.Fatalf("value after mount: got %q, want %q", got, want)
	}
	if m.Handle().Editor().CanUndo() {
		t.Fatalf("initial load should not be undoable")
	}

	m.Handle().Editor().InsertString("B")
	m.Handle().Element().Dispatch(&engine.Event{Name: engine.EventInitialize})

	if got, want := m.Value(), "<div>BA</div>"; got != want {
		t.Fatalf("value after second initialize: got %q, want %q", got, want)
	}
	if inits != 2 {
		t.Fatalf("OnInitialize calls: got %d, want %d", inits, 2)
	}
	if want := []string{"<div>A</div>", "<div>BA</div>"}; strings.Join(changes, "|") != strings.Join(want, "|") {
		t.Fatalf("changes: got %q, want %q", changes, want)
	}
}

func TestOnValueChange_RelaysEveryMutationInOrder(t *testing.T) {
	var got []string
	m := mounted(t, Config{OnValueChange: func(html string) { got = append(got, html) }})
	ed := m.Handle().Editor()

	var want []string
	for _, s := range []string{"p", "i", "e"} {
		ed.InsertString(s)
		want = append(want, ed.HTML())
	}
	ed.InsertLineBreak()
	want = append(want, ed.HTML())
	ed.DeleteInDirection(engine.Backward)
	want = append(want, ed.HTML())

	if len(got) != len(want) {
		t.Fatalf("change calls: got %d, want %d (%q)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSetConfig_SwapsCallbacksWithoutResubscribing(t *testing.T) {
	first, second := 0, 0
	cfg := Config{OnValueChange: func(string) { first++ }}
	m := mounted(t, cfg)
	el := m.Handle().Element()
	before := el.ListenerCount(engine.EventChange)

	m.Handle().Editor().InsertString("a")
	cfg.OnValueChange = func(string) { second++ }
	cfg.InitialValue = "<div>ignored</div>"
	m = m.SetConfig(cfg)
	m.Handle().Editor().InsertString("b")
	m.Handle().Editor().InsertString("c")

	if first != 1 || second != 2 {
		t.Fatalf("calls: first=%d second=%d, want 1 and 2", first, second)
	}
	if got := el.ListenerCount(engine.EventChange); got != before {
		t.Fatalf("change listeners: got %d, want %d", got, before)
	}
	if got, want := m.Value(), "<div>abc</div>"; got != want {
		t.Fatalf("value: got %q, want %q", got, want)
	}
}

func TestSetConfig_DisabledTakesEffectLive(t *testing.T) {
	var last map[string]any
	cfg := Config{
		Autofocus:          true,
		OnAttributesChange: func(ev *engine.Event) { last = ev.Attributes },
	}
	m := mounted(t, cfg)
	if !m.Focused() {
		t.Fatalf("expected autofocus")
	}

	cfg.Disabled = true
	m = m.SetConfig(cfg)
	if !m.Handle().Element().Disabled() {
		t.Fatalf("element should be disabled")
	}
	if m.Focused() {
		t.Fatalf("disabled element should lose focus")
	}
	if v, ok := last[document.AttrBold]; !ok || v != false {
		t.Fatalf("bold after disable: got %v, want false", last[document.AttrBold])
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if got, want := m.Value(), "<div><br></div>"; got != want {
		t.Fatalf("value while disabled: got %q, want %q", got, want)
	}
}

func TestClose_RemovesEveryListener(t *testing.T) {
	calls := 0
	spy := func(*engine.Event) { calls++ }
	m, err := New(Config{
		OnValueChange:      func(string) { calls++ },
		OnFocus:            spy,
		OnBlur:             spy,
		OnSelectionChange:  spy,
		OnAttributesChange: spy,
		Uploads:            &upload.Config{Upload: func(context.Context, *document.File, upload.Callbacks) error { return nil }},
	}).Mount(context.Background())
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	el := m.Handle().Element()
	calls = 0

	m.Close()
	for _, name := range engine.AllEvents {
		if n := el.ListenerCount(name); n != 0 {
			t.Fatalf("%s listeners after close: got %d, want 0", name, n)
		}
		el.Dispatch(&engine.Event{Name: name, Cancelable: true, File: &document.File{Name: "x"}})
	}
	if calls != 0 {
		t.Fatalf("handler calls after close: got %d, want 0", calls)
	}

	h := m.Handle()
	if h.Element() != nil || h.Editor() != nil {
		t.Fatalf("handle should be detached after close")
	}
	if err := h.InsertHTML("<div>x</div>"); !errors.Is(err, engine.ErrNotLoaded) {
		t.Fatalf("InsertHTML after close: got %v, want ErrNotLoaded", err)
	}
	if h.InsertFile(&document.File{Name: "a.png"}) {
		t.Fatalf("InsertFile after close should do nothing")
	}
	if _, ok := h.GetSnapshot(); ok {
		t.Fatalf("GetSnapshot after close should report no snapshot")
	}
}

func TestMount_LoaderFailureLeavesEditorInert(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	m, err := New(Config{
		Placeholder: "Write a recipe",
		Logger:      zap.New(core),
		Loader: engine.LoaderFunc(func(context.Context) (*engine.Module, error) {
			return nil, errors.New("chunk load failed")
		}),
	}).Mount(context.Background())
	if err == nil {
		t.Fatalf("expected load error")
	}
	t.Cleanup(m.Close)

	if got := logs.FilterMessage("editor engine failed to load").Len(); got != 1 {
		t.Fatalf("error logs: got %d, want 1", got)
	}
	if m.Mounted() {
		t.Fatalf("model should not be mounted")
	}

	h := m.Handle()
	h.Focus()
	h.InsertAttachment(document.NewAttachment(map[string]string{document.AttachmentURL: "/x"}))
	if h.Value() != "" {
		t.Fatalf("value should be empty")
	}
	if err := h.LoadHTML("<div>x</div>"); !errors.Is(err, engine.ErrNotLoaded) {
		t.Fatalf("LoadHTML: got %v, want ErrNotLoaded", err)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if got, want := m.renderContent(), "Write a recipe"; got != want {
		t.Fatalf("render: got %q, want %q", got, want)
	}
}

func TestInit_MountsThroughUpdate(t *testing.T) {
	m := New(Config{InitialValue: "<div>pie</div>"})
	t.Cleanup(m.Close)

	m, cmd := m.Update(m.Init()())
	if !m.Mounted() {
		t.Fatalf("expected mounted after load message")
	}
	if got, want := m.Value(), "<div>pie</div>"; got != want {
		t.Fatalf("value: got %q, want %q", got, want)
	}
	if cmd == nil {
		t.Fatalf("expected change watcher")
	}
	if _, ok := cmd().(changedMsg); !ok {
		t.Fatalf("watcher should report the pending change")
	}

	other := New(Config{})
	t.Cleanup(other.Close)
	other, _ = other.Update(m.Init()())
	if other.Mounted() {
		t.Fatalf("load message for another editor should be ignored")
	}
}

func TestUploads_WiredThroughConfig(t *testing.T) {
	var rejected []string
	m := mounted(t, Config{
		Uploads: &upload.Config{
			Policy:   upload.Policy{MaxFileSize: 1000, AllowedTypes: []string{"image/*"}},
			OnReject: func(f *document.File, _ error) { rejected = append(rejected, f.Name) },
			Upload: func(_ context.Context, f *document.File, cb upload.Callbacks) error {
				cb.SetProgress(100)
				cb.SetAttributes(map[string]string{"url": "/blobs/" + f.Name, "href": "/blobs/" + f.Name})
				return nil
			},
		},
	})

	h := m.Handle()
	if h.InsertFile(&document.File{Name: "huge.png", Type: "image/png", Size: 1001}) {
		t.Fatalf("oversized file should be rejected")
	}
	if !h.InsertFile(&document.File{Name: "pie.png", Type: "image/png", Size: 999}) {
		t.Fatalf("file within policy should be accepted")
	}
	m.Uploads().Wait()

	if len(rejected) != 1 || rejected[0] != "huge.png" {
		t.Fatalf("rejected: got %v, want [huge.png]", rejected)
	}
	if got := m.Value(); !strings.Contains(got, `src="/blobs/pie.png"`) {
		t.Fatalf("value %q should reference the uploaded file", got)
	}
}

func TestHandle_Snapshot(t *testing.T) {
	m := mounted(t, Config{InitialValue: "<div>crust</div>"})
	snap, ok := m.Handle().GetSnapshot()
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if snap.HTML != "<div>crust</div>" {
		t.Fatalf("snapshot html: got %q, want %q", snap.HTML, "<div>crust</div>")
	}
	if err := m.Handle().InsertHTML("<strong>golden </strong>"); err != nil {
		t.Fatalf("InsertHTML: %v", err)
	}
	if got, want := m.Value(), "<div><strong>golden </strong>crust</div>"; got != want {
		t.Fatalf("value: got %q, want %q", got, want)
	}
}
