// Package toolbar reflects editor formatting and action state into buttons
// and forwards button presses back to the editor.
package toolbar

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/events"
)

var (
	ErrNoFilePicker = errors.New("toolbar: no file picker")
	ErrNoPrompter   = errors.New("toolbar: no link prompter")
)

// FilePicker asks the user for files to attach.
type FilePicker interface {
	PickFiles() ([]*document.File, error)
}

type FilePickerFunc func() ([]*document.File, error)

func (f FilePickerFunc) PickFiles() ([]*document.File, error) { return f() }

// Prompter asks the user for a link target. ok is false when the user
// cancels; an empty url removes the link.
type Prompter interface {
	PromptURL(current string) (url string, ok bool)
}

type PrompterFunc func(current string) (string, bool)

func (f PrompterFunc) PromptURL(current string) (string, bool) { return f(current) }

// Button is bound to either a formatting attribute or an action. Its state
// is derived from the element's attributes-change or actions-change events.
type Button struct {
	Label     string
	Attribute string
	Action    string
	Key       key.Binding

	Files  FilePicker
	Prompt Prompter

	sub *events.Subscriber

	mu       sync.Mutex
	el       *engine.Element
	active   bool
	disabled bool
}

func NewAttributeButton(label, attr string, k key.Binding) *Button {
	return &Button{Label: label, Attribute: attr, Key: k}
}

func NewActionButton(label, action string, k key.Binding) *Button {
	return &Button{Label: label, Action: action, Key: k}
}

// Mount reads the current state of el, then follows its change events.
// Mounting on another element moves the button there.
func (b *Button) Mount(el *engine.Element) {
	b.mu.Lock()
	b.el = el
	b.mu.Unlock()

	if ed := el.Editor(); ed != nil {
		if b.Attribute != "" {
			b.applyAttributes(ed.Attributes())
		} else {
			b.applyActions(ed.ActionState())
		}
	} else {
		b.setState(false, true)
	}

	if b.sub == nil {
		b.sub = events.NewSubscriber(b.handlers())
	}
	b.sub.Attach(el)
}

// Unmount stops following the element.
func (b *Button) Unmount() {
	if b.sub != nil {
		b.sub.Detach()
	}
	b.mu.Lock()
	b.el = nil
	b.mu.Unlock()
}

func (b *Button) handlers() events.Handlers {
	if b.Attribute != "" {
		return events.Handlers{
			engine.EventAttributesChange: func(ev *engine.Event) { b.applyAttributes(ev.Attributes) },
		}
	}
	return events.Handlers{
		engine.EventActionsChange: func(ev *engine.Event) { b.applyActions(ev.Actions) },
	}
}

// applyAttributes derives state from one attribute entry. An attribute
// reported as false is unavailable; an absent one is merely inactive.
func (b *Button) applyAttributes(attrs map[string]any) {
	switch v := attrs[b.Attribute].(type) {
	case bool:
		b.setState(v, !v)
	case string:
		b.setState(v != "", false)
	default:
		b.setState(false, false)
	}
}

func (b *Button) applyActions(actions map[string]bool) {
	b.setState(false, !actions[b.Action])
}

func (b *Button) setState(active, disabled bool) {
	b.mu.Lock()
	b.active, b.disabled = active, disabled
	b.mu.Unlock()
}

func (b *Button) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Button) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// Classes returns the state classes of the button: "active", "disabled".
func (b *Button) Classes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	if b.active {
		out = append(out, "active")
	}
	if b.disabled {
		out = append(out, "disabled")
	}
	return out
}

func (b *Button) View(st Style) string {
	b.mu.Lock()
	active, disabled := b.active, b.disabled
	b.mu.Unlock()

	var s lipgloss.Style
	switch {
	case disabled:
		s = st.Disabled
	case active:
		s = st.Active
	default:
		s = st.Normal
	}
	return s.Render(b.Label)
}

func (b *Button) editor() (*engine.Element, *engine.Editor, error) {
	b.mu.Lock()
	el := b.el
	b.mu.Unlock()
	if el == nil {
		return nil, nil, engine.ErrNotLoaded
	}
	ed := el.Editor()
	if ed == nil {
		return nil, nil, engine.ErrNotLoaded
	}
	return el, ed, nil
}

// Click performs the button. Attribute buttons toggle their attribute and
// return focus to the editor. Disabled buttons do nothing.
func (b *Button) Click() error {
	el, ed, err := b.editor()
	if err != nil {
		return err
	}
	if b.Disabled() {
		return nil
	}

	if b.Attribute != "" {
		if ed.AttributeIsActive(b.Attribute) {
			ed.DeactivateAttribute(b.Attribute)
		} else {
			ed.ActivateAttribute(b.Attribute)
		}
		el.Focus()
		return nil
	}

	switch b.Action {
	case engine.ActionUndo:
		ed.Undo()
	case engine.ActionRedo:
		ed.Redo()
	case engine.ActionIncreaseNestingLevel:
		ed.IncreaseNestingLevel()
	case engine.ActionDecreaseNestingLevel:
		ed.DecreaseNestingLevel()
	case engine.ActionAttachFiles:
		if b.Files == nil {
			return ErrNoFilePicker
		}
		files, err := b.Files.PickFiles()
		if err != nil {
			return fmt.Errorf("toolbar: pick files: %w", err)
		}
		_, err = b.AttachFiles(files...)
		return err
	case engine.ActionLink:
		if b.Prompt == nil {
			return ErrNoPrompter
		}
		url, ok := b.Prompt.PromptURL(b.currentLink(ed))
		if !ok {
			return nil
		}
		return b.SetLink(url)
	default:
		return fmt.Errorf("toolbar: unknown action %q", b.Action)
	}
	return nil
}

// AttachFiles offers files to the editor and reports how many were
// embedded. Files refused by a file-accept listener are skipped.
func (b *Button) AttachFiles(files ...*document.File) (int, error) {
	_, ed, err := b.editor()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if f != nil && ed.InsertFile(f) {
			n++
		}
	}
	return n, nil
}

// SetLink links the selection to url, or removes the link when url is
// empty, and returns focus to the editor.
func (b *Button) SetLink(url string) error {
	el, ed, err := b.editor()
	if err != nil {
		return err
	}
	if url == "" {
		ed.DeactivateAttribute(document.AttrHref)
	} else {
		ed.ActivateAttribute(document.AttrHref, url)
	}
	el.Focus()
	return nil
}

func (b *Button) currentLink(ed *engine.Editor) string {
	s, _ := ed.Attributes()[document.AttrHref].(string)
	return s
}
