package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
)

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	el := m.b.element()
	if el == nil || !el.Focused() || el.Disabled() {
		return m, nil
	}
	ed := el.Editor()
	if ed == nil {
		return m, nil
	}

	// Bracketed paste inserts literal text and never triggers shortcuts.
	if msg.Type == tea.KeyRunes && msg.Paste && len(msg.Runes) > 0 {
		ed.Paste(engine.PasteData{Type: "text/plain", String: normalizeNewlines(string(msg.Runes))})
		return m, nil
	}

	km := m.cfg.KeyMap
	move := func(unit document.MoveUnit, dir document.MoveDir, extend bool) {
		ed.Move(document.Move{Unit: unit, Dir: dir, Extend: extend})
	}

	switch {
	case key.Matches(msg, km.Left):
		move(document.MoveCell, document.DirLeft, false)
	case key.Matches(msg, km.Right):
		move(document.MoveCell, document.DirRight, false)
	case key.Matches(msg, km.Up):
		move(document.MoveCell, document.DirUp, false)
	case key.Matches(msg, km.Down):
		move(document.MoveCell, document.DirDown, false)

	case key.Matches(msg, km.ShiftLeft):
		move(document.MoveCell, document.DirLeft, true)
	case key.Matches(msg, km.ShiftRight):
		move(document.MoveCell, document.DirRight, true)
	case key.Matches(msg, km.ShiftUp):
		move(document.MoveCell, document.DirUp, true)
	case key.Matches(msg, km.ShiftDown):
		move(document.MoveCell, document.DirDown, true)

	case key.Matches(msg, km.WordLeft):
		move(document.MoveWord, document.DirLeft, false)
	case key.Matches(msg, km.WordRight):
		move(document.MoveWord, document.DirRight, false)

	case key.Matches(msg, km.Home):
		move(document.MoveBlock, document.DirHome, false)
	case key.Matches(msg, km.End):
		move(document.MoveBlock, document.DirEnd, false)
	case key.Matches(msg, km.DocStart):
		move(document.MoveDoc, document.DirHome, false)
	case key.Matches(msg, km.DocEnd):
		move(document.MoveDoc, document.DirEnd, false)
	case key.Matches(msg, km.SelectAll):
		ed.SelectAll()

	case key.Matches(msg, km.Backspace):
		ed.DeleteInDirection(engine.Backward)
	case key.Matches(msg, km.Delete):
		ed.DeleteInDirection(engine.Forward)
	case key.Matches(msg, km.Enter):
		ed.InsertLineBreak()
	case key.Matches(msg, km.SoftBreak):
		ed.InsertSoftBreak()

	case key.Matches(msg, km.Bold):
		toggle(ed, document.AttrBold)
	case key.Matches(msg, km.Italic):
		toggle(ed, document.AttrItalic)
	case key.Matches(msg, km.Strike):
		toggle(ed, document.AttrStrike)
	case key.Matches(msg, km.Indent):
		if ed.CanIncreaseNestingLevel() {
			ed.IncreaseNestingLevel()
		}
	case key.Matches(msg, km.Outdent):
		if ed.CanDecreaseNestingLevel() {
			ed.DecreaseNestingLevel()
		}

	case key.Matches(msg, km.Undo):
		ed.Undo()
	case key.Matches(msg, km.Redo):
		ed.Redo()

	case key.Matches(msg, km.Copy):
		m.copySelection(ed)
	case key.Matches(msg, km.Cut):
		if m.copySelection(ed) {
			ed.DeleteInDirection(engine.Backward)
		}
	case key.Matches(msg, km.Paste):
		m.pasteClipboard(ed)

	default:
		switch {
		case msg.Type == tea.KeySpace:
			ed.InsertString(" ")
		case msg.Type == tea.KeyRunes && len(msg.Runes) > 0 && !msg.Alt:
			ed.InsertString(string(msg.Runes))
		}
	}

	return m, nil
}

func toggle(ed *engine.Editor, name string) {
	if ed.AttributeIsActive(name) || ed.CanActivateAttribute(name) {
		ed.ToggleAttribute(name)
	}
}

// copySelection writes the selection to the clipboard and reports whether
// there was one.
func (m Model) copySelection(ed *engine.Editor) bool {
	if m.cfg.Clipboard == nil {
		return false
	}
	var text, html string
	ok := false
	ed.Read(func(d *document.Document) {
		r, sel := d.Selection()
		if !sel {
			return
		}
		ok = true
		frag := d.Fragment(r)
		text = strings.ReplaceAll(frag.Text(), "\uFFFC", "")
		html = frag.HTML()
	})
	if !ok {
		return false
	}
	_ = m.cfg.Clipboard.WriteText(text)
	if hc, isHTML := m.cfg.Clipboard.(HTMLClipboard); isHTML {
		_ = hc.WriteHTML(html)
	}
	return true
}

func (m Model) pasteClipboard(ed *engine.Editor) {
	if m.cfg.Clipboard == nil {
		return
	}
	p := engine.PasteData{Type: "text/plain"}
	if hc, ok := m.cfg.Clipboard.(HTMLClipboard); ok {
		if h, err := hc.ReadHTML(); err == nil && h != "" {
			p.Type, p.HTML = "text/html", h
		}
	}
	if s, err := m.cfg.Clipboard.ReadText(); err == nil {
		p.String = normalizeNewlines(s)
	}
	if p.HTML == "" && p.String == "" {
		return
	}
	ed.Paste(p)
}

// normalizeNewlines converts newlines from external sources to '\n'.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
