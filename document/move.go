package document

import "github.com/iw2rmb/potluck/internal/grapheme"

type MoveUnit int

const (
	MoveCell MoveUnit = iota
	MoveWord
	MoveBlock
	MoveDoc
)

type MoveDir int

const (
	DirLeft MoveDir = iota
	DirRight
	DirUp
	DirDown
	DirHome // block start (or doc start for MoveDoc)
	DirEnd  // block end (or doc end for MoveDoc)
)

type Move struct {
	Unit   MoveUnit
	Dir    MoveDir
	Extend bool // if true, extends the selection; if false clears it
}

func (d *Document) Move(m Move) {
	prevCursor := d.cursor
	prevSel := d.sel

	nextCursor := d.clampPos(d.moveCursor(prevCursor, m))

	nextSel := selectionState{}
	if m.Extend {
		anchor := prevCursor
		if prevSel.active && prevSel.anchor != prevSel.end {
			anchor = prevSel.anchor
		}
		if anchor != nextCursor {
			nextSel = selectionState{active: true, anchor: anchor, end: nextCursor}
		}
	}

	if prevCursor == nextCursor && selectionStateEqual(prevSel, nextSel) {
		return
	}

	d.cursor = nextCursor
	d.sel = nextSel
	d.typing = nil
	d.version++
}

// SelectAll selects the whole document.
func (d *Document) SelectAll() {
	last := len(d.blocks) - 1
	d.SetSelection(Range{End: Pos{Block: last, Offset: len(d.blocks[last].cells)}})
}

func selectionStateEqual(a, b selectionState) bool {
	if !a.active && !b.active {
		return true
	}
	return a.active == b.active && a.anchor == b.anchor && a.end == b.end
}

func (d *Document) moveCursor(p Pos, m Move) Pos {
	switch m.Unit {
	case MoveCell:
		return d.moveCell(p, m.Dir)
	case MoveWord:
		return d.moveWord(p, m.Dir)
	case MoveBlock:
		return d.moveBlock(p, m.Dir)
	case MoveDoc:
		return d.moveDoc(p, m.Dir)
	default:
		return p
	}
}

func (d *Document) moveCell(p Pos, dir MoveDir) Pos {
	bl, off := p.Block, p.Offset
	last := len(d.blocks) - 1

	switch dir {
	case DirLeft:
		if bl == 0 && off == 0 {
			return p
		}
		if off > 0 {
			return Pos{Block: bl, Offset: off - 1}
		}
		return Pos{Block: bl - 1, Offset: len(d.blocks[bl-1].cells)}
	case DirRight:
		if bl == last && off == len(d.blocks[last].cells) {
			return p
		}
		if off < len(d.blocks[bl].cells) {
			return Pos{Block: bl, Offset: off + 1}
		}
		return Pos{Block: bl + 1, Offset: 0}
	default:
		return d.moveBlock(p, dir)
	}
}

func (d *Document) moveWord(p Pos, dir MoveDir) Pos {
	cells := d.blocks[p.Block].cells

	switch dir {
	case DirLeft:
		if p.Offset == 0 {
			return d.moveCell(p, DirLeft)
		}
		return Pos{Block: p.Block, Offset: prevWordBoundary(cells, p.Offset)}
	case DirRight:
		if p.Offset == len(cells) {
			return d.moveCell(p, DirRight)
		}
		return Pos{Block: p.Block, Offset: nextWordBoundary(cells, p.Offset)}
	default:
		return d.moveBlock(p, dir)
	}
}

func (d *Document) moveBlock(p Pos, dir MoveDir) Pos {
	bl, off := p.Block, p.Offset
	last := len(d.blocks) - 1

	switch dir {
	case DirHome:
		return Pos{Block: bl, Offset: 0}
	case DirEnd:
		return Pos{Block: bl, Offset: len(d.blocks[bl].cells)}
	case DirUp:
		if bl == 0 {
			return Pos{}
		}
		return Pos{Block: bl - 1, Offset: minInt(off, len(d.blocks[bl-1].cells))}
	case DirDown:
		if bl == last {
			return Pos{Block: bl, Offset: len(d.blocks[bl].cells)}
		}
		return Pos{Block: bl + 1, Offset: minInt(off, len(d.blocks[bl+1].cells))}
	default:
		return p
	}
}

func (d *Document) moveDoc(p Pos, dir MoveDir) Pos {
	last := len(d.blocks) - 1

	switch dir {
	case DirHome, DirUp:
		return Pos{}
	case DirEnd, DirDown:
		return Pos{Block: last, Offset: len(d.blocks[last].cells)}
	default:
		return p
	}
}

// Word boundaries: skip whitespace, then skip non-whitespace. Soft breaks and
// attachments count as whitespace.
func prevWordBoundary(cells []cell, off int) int {
	off = clampInt(off, 0, len(cells))
	i := off
	for i > 0 && isWordGap(cells[i-1]) {
		i--
	}
	for i > 0 && !isWordGap(cells[i-1]) {
		i--
	}
	return i
}

func nextWordBoundary(cells []cell, off int) int {
	off = clampInt(off, 0, len(cells))
	i := off
	for i < len(cells) && isWordGap(cells[i]) {
		i++
	}
	for i < len(cells) && !isWordGap(cells[i]) {
		i++
	}
	return i
}

func isWordGap(c cell) bool {
	return c.att != nil || grapheme.IsSpace(c.text)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
