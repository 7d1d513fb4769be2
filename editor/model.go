package editor

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/render"
	"github.com/iw2rmb/potluck/upload"
)

type loadedMsg struct {
	b   *binding
	mod *engine.Module
	err error
}

// changedMsg reports that the element changed outside a key press, for
// example while an upload progresses.
type changedMsg struct{ b *binding }

// Model is a Bubble Tea component that mounts an engine element and
// renders its document.
type Model struct {
	cfg Config
	b   *binding

	viewport viewport.Model

	mouseAnchor   document.Pos
	mouseDragging bool
}

// New creates the binding. The engine is mounted by the command returned
// from Init, or synchronously by Mount.
func New(cfg Config) Model {
	if len(cfg.KeyMap.Left.Keys()) == 0 {
		cfg.KeyMap = DefaultKeyMap()
	}
	m := Model{
		cfg:      cfg,
		b:        newBinding(cfg),
		viewport: viewport.New(0, 0),
	}
	m.rebuildContent()
	return m
}

// Init loads the engine in the background.
func (m Model) Init() tea.Cmd {
	b := m.b
	return func() tea.Msg {
		mod, err := b.loader.Load(b.ctx)
		return loadedMsg{b: b, mod: mod, err: err}
	}
}

// Mount loads the engine on the calling goroutine. A load failure is logged
// and returned; the model stays non-interactive.
func (m Model) Mount(ctx context.Context) (Model, error) {
	err := m.b.load(ctx)
	m.rebuildContent()
	m.followCursor()
	return m, err
}

// SetConfig applies a new configuration to a mounted model. Callbacks are
// swapped without re-subscribing and Disabled takes effect immediately.
// InitialValue is ignored.
func (m Model) SetConfig(cfg Config) Model {
	if len(cfg.KeyMap.Left.Keys()) == 0 {
		cfg.KeyMap = DefaultKeyMap()
	}
	m.cfg = cfg
	m.b.setConfig(cfg)
	m.rebuildContent()
	return m
}

// Close unmounts the element: every listener is removed and uploads in
// flight are canceled.
func (m Model) Close() { m.b.close() }

// Handle returns the imperative surface of the editor.
func (m Model) Handle() Handle { return m.b }

// Value returns the current serialization.
func (m Model) Value() string { return m.b.Value() }

// Mounted reports whether the engine is loaded and mounted.
func (m Model) Mounted() bool { return m.b.element() != nil }

// Uploads returns the upload controller, or nil when uploads are disabled
// or the engine is not mounted.
func (m Model) Uploads() *upload.Controller {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	return m.b.uploads
}

func (m Model) SetSize(width, height int) Model {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m.viewport.Width = width
	m.viewport.Height = height

	m.rebuildContent()
	m.followCursor()
	return m
}

func (m Model) Focus() Model {
	m.b.Focus()
	m.rebuildContent()
	m.followCursor()
	return m
}

func (m Model) Blur() Model {
	m.b.Blur()
	m.rebuildContent()
	return m
}

func (m Model) Focused() bool {
	el := m.b.element()
	return el != nil && el.Focused()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.b != m.b {
			return m, nil
		}
		if err := m.b.finishLoad(msg.mod, msg.err); err != nil {
			return m, nil
		}
		m.rebuildContent()
		m.followCursor()
		return m, m.waitForChange()
	case changedMsg:
		if msg.b != m.b {
			return m, nil
		}
		m.rebuildContent()
		return m, m.waitForChange()
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m, cmd = m.updateMouse(msg)
		m.rebuildContent()
		return m, cmd
	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.updateKey(msg)
		m.rebuildContent()
		m.followCursor()
		return m, cmd
	default:
		// Hosts may drive the editor through the Handle between messages.
		m.rebuildContent()
		return m, nil
	}
}

func (m Model) View() string { return m.viewport.View() }

// waitForChange blocks until the element signals a change or the model is
// closed.
func (m Model) waitForChange() tea.Cmd {
	el := m.b.element()
	if el == nil {
		return nil
	}
	b := m.b
	return func() tea.Msg {
		select {
		case <-el.Updates():
			return changedMsg{b: b}
		case <-b.done:
			return nil
		}
	}
}

func (m *Model) rebuildContent() {
	m.viewport.SetContent(m.renderContent())
}

func (m *Model) followCursor() {
	ed := m.b.editor()
	if ed == nil {
		return
	}
	h := m.viewport.Height - m.viewport.Style.GetVerticalFrameSize()
	if h <= 0 {
		return
	}

	var row int
	ed.Read(func(d *document.Document) {
		row = render.LineOf(m.cfg.Style.Content.Layout(d), d.Cursor())
	})

	y := m.viewport.YOffset
	if row < y {
		m.viewport.SetYOffset(row)
		return
	}
	if row >= y+h {
		m.viewport.SetYOffset(row - h + 1)
	}
}
