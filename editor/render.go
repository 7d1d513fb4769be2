package editor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/potluck/document"
)

func (m *Model) renderContent() string {
	st := m.cfg.Style
	el := m.b.element()
	if el == nil || el.Editor() == nil {
		if m.cfg.Placeholder == "" {
			return ""
		}
		return st.Placeholder.Render(m.cfg.Placeholder)
	}

	// Disabled elements never hold focus.
	show := el.Focused()

	var out string
	el.Editor().Read(func(d *document.Document) {
		if d.IsEmpty() && m.cfg.Placeholder != "" {
			if show {
				out = st.Cursor.Render(" ")
			}
			out += st.Placeholder.Render(m.cfg.Placeholder)
			return
		}
		sel, selOK := d.Selection()
		out = st.Content.Document(d, cursorDecorator{
			st:       st,
			cursor:   d.Cursor(),
			sel:      sel,
			selOK:    selOK,
			show:     show,
			blockLen: d.BlockLen,
		})
	})
	return out
}

// cursorDecorator draws the cursor and the selection over document cells.
type cursorDecorator struct {
	st       Style
	cursor   document.Pos
	sel      document.Range
	selOK    bool
	show     bool
	blockLen func(int) int
}

func (c cursorDecorator) Cell(p document.Pos, base lipgloss.Style) (lipgloss.Style, bool) {
	if c.selOK {
		if document.ComparePos(p, c.sel.Start) >= 0 && document.ComparePos(p, c.sel.End) < 0 {
			return c.st.Selection.Copy().Inherit(base), true
		}
		return base, false
	}
	if c.show && p == c.cursor {
		return c.st.Cursor, true
	}
	return base, false
}

func (c cursorDecorator) BlockEnd(i int) string {
	if !c.show || c.selOK || c.cursor.Block != i || c.cursor.Offset < c.blockLen(i) {
		return ""
	}
	return c.st.Cursor.Render(" ")
}
