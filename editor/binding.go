package editor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/events"
	"github.com/iw2rmb/potluck/upload"
	"go.uber.org/zap"
)

// binding owns one engine element for the lifetime of a Model. Model values
// are copied by Bubble Tea; they all share the same binding.
type binding struct {
	logger  *zap.Logger
	loader  engine.Loader
	initial string
	focus   bool
	opts    []engine.Option
	uploadC *upload.Config

	sub    *events.Subscriber
	loaded atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	el       *engine.Element
	uploads  *upload.Controller
	disabled bool
	closed   bool
	loadErr  error
}

func newBinding(cfg Config) *binding {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	loader := cfg.Loader
	if loader == nil {
		loader = engine.DefaultLoader
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &binding{
		logger:   l,
		loader:   loader,
		initial:  cfg.InitialValue,
		focus:    cfg.Autofocus,
		uploadC:  cfg.Uploads,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		disabled: cfg.Disabled,
		opts: []engine.Option{
			engine.WithLogger(l),
			engine.WithName(cfg.Name),
			engine.WithHistoryLimit(cfg.HistoryLimit),
		},
	}
	b.sub = events.NewSubscriber(b.handlers(cfg))
	return b
}

// handlers builds the handler set for cfg. The subscriber reads it at
// dispatch time, so swapping it never touches the element's listeners.
func (b *binding) handlers(cfg Config) events.Handlers {
	h := events.Handlers{}
	for name, fn := range cfg.eventFuncs() {
		if fn != nil {
			h[name] = events.Handler(fn)
		}
	}
	onInit := cfg.OnInitialize
	h[engine.EventInitialize] = func(ev *engine.Event) {
		b.initialize(ev)
		if onInit != nil {
			onInit(ev)
		}
	}
	if fn := cfg.OnValueChange; fn != nil {
		h[engine.EventChange] = func(ev *engine.Event) { fn(ev.HTML) }
	}
	return h
}

// initialize loads the initial value the first time the element reports
// initialize. Repeated initialize events leave the content alone.
func (b *binding) initialize(ev *engine.Event) {
	if !b.loaded.CompareAndSwap(false, true) {
		return
	}
	if b.initial == "" || ev.Target == nil {
		return
	}
	ed := ev.Target.Editor()
	if ed == nil {
		return
	}
	if err := ed.LoadHTML(b.initial); err != nil {
		b.logger.Warn("initial value not loaded", zap.Error(err))
	}
}

// load resolves the engine and mounts it. Failures are logged and leave the
// binding without an element.
func (b *binding) load(ctx context.Context) error {
	mod, err := b.loader.Load(ctx)
	return b.finishLoad(mod, err)
}

func (b *binding) finishLoad(mod *engine.Module, err error) error {
	if err == nil && mod == nil {
		err = engine.ErrNotLoaded
	}
	if err != nil {
		b.logger.Error("editor engine failed to load", zap.Error(err))
		b.mu.Lock()
		b.loadErr = err
		b.mu.Unlock()
		return err
	}
	b.mount(mod)
	return nil
}

func (b *binding) mount(mod *engine.Module) {
	b.mu.Lock()
	if b.closed || b.el != nil {
		b.mu.Unlock()
		return
	}
	el := mod.NewElement(b.opts...)
	el.SetDisabled(b.disabled)
	var up *upload.Controller
	if b.uploadC != nil {
		cfg := *b.uploadC
		if cfg.Logger == nil {
			cfg.Logger = b.logger
		}
		up = upload.New(cfg)
	}
	b.el, b.uploads = el, up
	b.mu.Unlock()

	b.sub.Attach(el)
	if up != nil {
		up.Attach(el)
	}
	el.Connect()
	if b.focus {
		el.Focus()
	}
}

func (b *binding) setConfig(cfg Config) {
	b.sub.SetHandlers(b.handlers(cfg))

	b.mu.Lock()
	b.disabled = cfg.Disabled
	el := b.el
	b.mu.Unlock()
	if el != nil {
		el.SetDisabled(cfg.Disabled)
	}
}

func (b *binding) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	el, up := b.el, b.uploads
	b.el = nil
	b.mu.Unlock()

	b.cancel()
	close(b.done)
	b.sub.Detach()
	if up != nil {
		up.Detach()
	}
	if el != nil {
		el.Disconnect()
	}
}

func (b *binding) element() *engine.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.el
}

func (b *binding) editor() *engine.Editor {
	if el := b.element(); el != nil {
		return el.Editor()
	}
	return nil
}

// Handle methods. Each is a no-op while the engine is not mounted.

func (b *binding) Value() string {
	if el := b.element(); el != nil {
		return el.Input().Value()
	}
	return ""
}

func (b *binding) Editor() *engine.Editor { return b.editor() }

func (b *binding) Element() *engine.Element { return b.element() }

func (b *binding) Focus() {
	if el := b.element(); el != nil {
		el.Focus()
	}
}

func (b *binding) Blur() {
	if el := b.element(); el != nil {
		el.Blur()
	}
}

func (b *binding) InsertHTML(html string) error {
	ed := b.editor()
	if ed == nil {
		return engine.ErrNotLoaded
	}
	return ed.InsertHTML(html)
}

func (b *binding) InsertAttachment(a *document.Attachment) {
	if ed := b.editor(); ed != nil && a != nil {
		ed.InsertAttachment(a)
	}
}

func (b *binding) InsertFile(f *document.File) bool {
	if ed := b.editor(); ed != nil {
		return ed.InsertFile(f)
	}
	return false
}

func (b *binding) LoadHTML(html string) error {
	ed := b.editor()
	if ed == nil {
		return engine.ErrNotLoaded
	}
	return ed.LoadHTML(html)
}

func (b *binding) GetSnapshot() (document.Snapshot, bool) {
	if ed := b.editor(); ed != nil {
		return ed.GetSnapshot(), true
	}
	return document.Snapshot{}, false
}

// Handle is the imperative surface a host form uses to drive the editor
// without subscribing to events.
type Handle interface {
	// Value is the current serialization, read from the hidden input.
	Value() string
	Editor() *engine.Editor
	Element() *engine.Element
	Focus()
	Blur()
	InsertHTML(html string) error
	InsertAttachment(a *document.Attachment)
	// InsertFile offers f to the editor and reports whether it was embedded.
	InsertFile(f *document.File) bool
	LoadHTML(html string) error
	GetSnapshot() (document.Snapshot, bool)
}

var _ Handle = (*binding)(nil)
