package editor

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/potluck/document"
)

func (m Model) updateMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.cfg.ScrollPolicy == ScrollAllowManual || !isManualScrollMouse(msg) {
		m.viewport, cmd = m.viewport.Update(msg)
	}

	el := m.b.element()
	if el == nil || !el.Focused() || el.Disabled() {
		return m, cmd
	}
	ed := el.Editor()
	if ed == nil {
		return m, cmd
	}

	// Only left button interactions move the cursor.
	switch msg.Action { //nolint:exhaustive
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.mouseInBounds(msg.X, msg.Y) {
			return m, cmd
		}
		p := m.screenToDocPos(msg.X, msg.Y)
		if msg.Shift {
			anchor := ed.SelectedRange().Start
			m.mouseAnchor = anchor
			ed.SetSelectedRange(document.Range{Start: anchor, End: p})
		} else {
			m.mouseAnchor = p
			ed.SetSelectedRange(document.Collapsed(p))
		}
		m.mouseDragging = true

	case tea.MouseActionMotion:
		if !m.mouseDragging {
			return m, cmd
		}
		x, y := m.clampMouseToBounds(msg.X, msg.Y)
		ed.SetSelectedRange(document.Range{Start: m.mouseAnchor, End: m.screenToDocPos(x, y)})

	case tea.MouseActionRelease:
		m.mouseDragging = false
	}

	return m, cmd
}

func isManualScrollMouse(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionPress &&
		(msg.Button == tea.MouseButtonWheelUp ||
			msg.Button == tea.MouseButtonWheelDown ||
			msg.Button == tea.MouseButtonWheelLeft ||
			msg.Button == tea.MouseButtonWheelRight)
}

func (m Model) mouseInBounds(x, y int) bool {
	if m.viewport.Width <= 0 || m.viewport.Height <= 0 {
		return false
	}
	return x >= 0 && x < m.viewport.Width && y >= 0 && y < m.viewport.Height
}

func (m Model) clampMouseToBounds(x, y int) (int, int) {
	if m.viewport.Width > 0 {
		x = clampInt(x, 0, m.viewport.Width-1)
	}
	if m.viewport.Height > 0 {
		y = clampInt(y, 0, m.viewport.Height-1)
	}
	return x, y
}

// screenToDocPos maps viewport-local cell coordinates to a document
// position. A click on a cell places the cursor before it; a click past
// the end of a line places it at the line end.
func (m Model) screenToDocPos(x, y int) document.Pos {
	ed := m.b.editor()
	if ed == nil {
		return document.Pos{}
	}
	var p document.Pos
	ed.Read(func(d *document.Document) {
		lines := m.cfg.Style.Content.Layout(d)
		if len(lines) == 0 {
			return
		}
		ln := lines[clampInt(m.viewport.YOffset+y, 0, len(lines)-1)]
		x -= ln.Indent
		off := ln.Start
		for _, w := range ln.Widths {
			if x < w {
				break
			}
			x -= w
			off++
		}
		p = document.Pos{Block: ln.Block, Offset: off}
	})
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
