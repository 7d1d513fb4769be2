package toolbar

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/upload"
)

// Bar is a row of buttons driven by key bindings. Link and attach buttons
// without a Prompter or FilePicker ask for their input on an inline prompt.
type Bar struct {
	buttons []*Button
	style   Style
	logger  *zap.Logger

	input   textinput.Model
	pending *Button
	keys    promptKeys
}

type promptKeys struct {
	Submit, Cancel key.Binding
}

type Option func(*Bar)

func WithStyle(st Style) Option { return func(b *Bar) { b.style = st } }

func WithLogger(l *zap.Logger) Option {
	return func(b *Bar) {
		if l != nil {
			b.logger = l
		}
	}
}

func NewBar(buttons []*Button, opts ...Option) Bar {
	in := textinput.New()
	in.CharLimit = 2048
	b := Bar{
		buttons: buttons,
		style:   DefaultStyle(),
		logger:  zap.NewNop(),
		input:   in,
		keys: promptKeys{
			Submit: key.NewBinding(key.WithKeys("enter")),
			Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c")),
		},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (m Bar) Buttons() []*Button { return m.buttons }

// Mount binds every button to el.
func (m Bar) Mount(el *engine.Element) {
	for _, b := range m.buttons {
		b.Mount(el)
	}
}

func (m Bar) Close() {
	for _, b := range m.buttons {
		b.Unmount()
	}
}

// Prompting reports whether the inline prompt owns the keyboard.
func (m Bar) Prompting() bool { return m.pending != nil }

// Matches reports whether msg is bound to a button.
func (m Bar) Matches(msg tea.KeyMsg) bool {
	return m.button(msg) != nil
}

func (m Bar) button(msg tea.KeyMsg) *Button {
	for _, b := range m.buttons {
		if key.Matches(msg, b.Key) {
			return b
		}
	}
	return nil
}

func (m Bar) Update(msg tea.Msg) (Bar, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.pending != nil {
		return m.updatePrompt(k)
	}

	b := m.button(k)
	if b == nil || b.Disabled() {
		return m, nil
	}
	if needsPrompt(b) {
		return m.openPrompt(b)
	}
	if err := b.Click(); err != nil {
		m.logger.Warn("toolbar button failed", zap.String("button", b.Label), zap.Error(err))
	}
	return m, nil
}

func needsPrompt(b *Button) bool {
	switch b.Action {
	case engine.ActionLink:
		return b.Prompt == nil
	case engine.ActionAttachFiles:
		return b.Files == nil
	}
	return false
}

func (m Bar) openPrompt(b *Button) (Bar, tea.Cmd) {
	m.pending = b
	m.input.Reset()
	if b.Action == engine.ActionLink {
		m.input.Prompt = "Link: "
		m.input.Placeholder = "https://"
		if _, ed, err := b.editor(); err == nil {
			m.input.SetValue(b.currentLink(ed))
			m.input.CursorEnd()
		}
	} else {
		m.input.Prompt = "Attach: "
		m.input.Placeholder = "path to file"
	}
	return m, m.input.Focus()
}

func (m Bar) updatePrompt(k tea.KeyMsg) (Bar, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Cancel):
		return m.closePrompt(), nil
	case key.Matches(k, m.keys.Submit):
		b, value := m.pending, strings.TrimSpace(m.input.Value())
		m = m.closePrompt()
		if err := m.submit(b, value); err != nil {
			m.logger.Warn("toolbar button failed", zap.String("button", b.Label), zap.Error(err))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m Bar) closePrompt() Bar {
	m.pending = nil
	m.input.Blur()
	m.input.Reset()
	return m
}

func (m Bar) submit(b *Button, value string) error {
	if b.Action == engine.ActionLink {
		return b.SetLink(value)
	}
	if value == "" {
		return nil
	}
	f, err := upload.OpenFile(value)
	if err != nil {
		return err
	}
	n, err := b.AttachFiles(f)
	if err == nil && n == 0 {
		err = errors.New("file refused")
	}
	return err
}

func (m Bar) View() string {
	views := make([]string, 0, 2*len(m.buttons))
	for i, b := range m.buttons {
		if i > 0 && m.style.Separator != "" {
			views = append(views, m.style.Separator)
		}
		views = append(views, b.View(m.style))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, views...)
	if m.pending == nil {
		return row
	}
	return lipgloss.JoinVertical(lipgloss.Left, row, m.input.View())
}

// ShortHelp lists the button bindings for a bubbles/help view.
func (m Bar) ShortHelp() []key.Binding {
	out := make([]key.Binding, 0, len(m.buttons))
	for _, b := range m.buttons {
		out = append(out, b.Key)
	}
	return out
}
