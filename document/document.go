package document

import (
	"strings"

	"github.com/iw2rmb/potluck/internal/grapheme"
)

// objectReplacement stands in for an attachment in cell text.
const objectReplacement = "\uFFFC"

const softBreak = "\n"

type Options struct {
	HistoryLimit int // default: 1000
}

type cell struct {
	text  string
	attrs TextAttrs
	att   *Attachment
}

func (c cell) isBreak() bool { return c.att == nil && c.text == softBreak }

type block struct {
	attr  string
	level int
	cells []cell
}

func (b block) clone() block {
	out := b
	out.cells = append([]cell(nil), b.cells...)
	return out
}

type selectionState struct {
	active bool
	anchor Pos
	end    Pos
}

// Document is the pure rich-text state: blocks, cursor, selection and
// history.
type Document struct {
	blocks   []block
	version  uint64
	revision uint64

	cursor Pos
	sel    selectionState

	// typing holds attributes toggled while the selection is collapsed. They
	// apply to the next inserted text.
	typing *TextAttrs

	opt  Options
	hist historyState
}

func New(opt Options) *Document {
	if opt.HistoryLimit == 0 {
		opt.HistoryLimit = 1000
	}
	return &Document{
		blocks: []block{{}},
		opt:    opt,
	}
}

// Version increases on every effective state change, including cursor and
// selection moves.
func (d *Document) Version() uint64 { return d.version }

// Revision increases only when document content changes.
func (d *Document) Revision() uint64 { return d.revision }

func (d *Document) BlockCount() int { return len(d.blocks) }

func (d *Document) BlockLen(i int) int {
	if i < 0 || i >= len(d.blocks) {
		return 0
	}
	return len(d.blocks[i].cells)
}

// BlockAttribute returns the block attribute and nesting level of block i.
func (d *Document) BlockAttribute(i int) (string, int) {
	if i < 0 || i >= len(d.blocks) {
		return "", 0
	}
	return d.blocks[i].attr, d.blocks[i].level
}

// IsEmpty reports whether the document holds a single empty block.
func (d *Document) IsEmpty() bool {
	return len(d.blocks) == 1 && len(d.blocks[0].cells) == 0 && d.blocks[0].attr == ""
}

func (d *Document) Cursor() Pos { return d.cursor }

func (d *Document) SetCursor(p Pos) {
	next := d.clampPos(p)
	if next == d.cursor && !d.sel.active {
		return
	}
	d.cursor = next
	d.sel = selectionState{}
	d.typing = nil
	d.version++
}

// Selection returns the normalized active selection.
func (d *Document) Selection() (Range, bool) {
	if !d.sel.active {
		return Range{}, false
	}
	r := NormalizeRange(Range{Start: d.sel.anchor, End: d.sel.end})
	if r.IsEmpty() {
		return Range{}, false
	}
	return r, true
}

// SelectedRange returns the active selection, or a collapsed range at the
// cursor.
func (d *Document) SelectedRange() Range {
	if r, ok := d.Selection(); ok {
		return r
	}
	return Collapsed(d.cursor)
}

// SetSelection selects r. An empty range moves the cursor instead.
func (d *Document) SetSelection(r Range) {
	r = ClampRange(r, len(d.blocks), d.BlockLen)
	if NormalizeRange(r).IsEmpty() {
		d.SetCursor(r.Start)
		return
	}
	next := selectionState{active: true, anchor: r.Start, end: r.End}
	if d.sel == next && d.cursor == r.End {
		return
	}
	d.sel = next
	d.cursor = r.End
	d.typing = nil
	d.version++
}

func (d *Document) ClearSelection() {
	if !d.sel.active {
		return
	}
	d.sel = selectionState{}
	d.version++
}

// Text returns the plain text of the document. Blocks are joined with '\n'
// and attachments appear as U+FFFC.
func (d *Document) Text() string {
	var out []string
	for _, b := range d.blocks {
		clusters := make([]string, 0, len(b.cells))
		for _, c := range b.cells {
			clusters = append(clusters, c.text)
		}
		out = append(out, grapheme.Join(clusters))
	}
	return strings.Join(out, "\n")
}

// BlockText returns the cell texts of block i.
func (d *Document) BlockText(i int) []string {
	if i < 0 || i >= len(d.blocks) {
		return nil
	}
	out := make([]string, 0, len(d.blocks[i].cells))
	for _, c := range d.blocks[i].cells {
		out = append(out, c.text)
	}
	return out
}

// CellAt returns the text, attributes and attachment of the cell at p.
func (d *Document) CellAt(p Pos) (text string, attrs TextAttrs, att *Attachment, ok bool) {
	if p.Block < 0 || p.Block >= len(d.blocks) {
		return "", TextAttrs{}, nil, false
	}
	cells := d.blocks[p.Block].cells
	if p.Offset < 0 || p.Offset >= len(cells) {
		return "", TextAttrs{}, nil, false
	}
	c := cells[p.Offset]
	return c.text, c.attrs, c.att, true
}

// Attachments returns the attachments present in the document, in document
// order.
func (d *Document) Attachments() []*Attachment {
	var out []*Attachment
	seen := map[*Attachment]bool{}
	for _, b := range d.blocks {
		for _, c := range b.cells {
			if c.att != nil && !seen[c.att] {
				seen[c.att] = true
				out = append(out, c.att)
			}
		}
	}
	return out
}

// Fragment returns a new document holding a copy of the content in r. The
// first and last blocks keep their attributes. Attachments are shared.
func (d *Document) Fragment(r Range) *Document {
	r = NormalizeRange(ClampRange(r, len(d.blocks), d.BlockLen))
	out := New(d.opt)
	out.blocks = out.blocks[:0]
	for i := r.Start.Block; i <= r.End.Block; i++ {
		b := d.blocks[i]
		from, to := 0, len(b.cells)
		if i == r.Start.Block {
			from = r.Start.Offset
		}
		if i == r.End.Block {
			to = r.End.Offset
		}
		nb := block{attr: b.attr, level: b.level}
		nb.cells = append([]cell(nil), b.cells[from:to]...)
		out.blocks = append(out.blocks, nb)
	}
	out.normalizeLevels()
	return out
}

func (d *Document) clampPos(p Pos) Pos {
	return ClampPos(p, len(d.blocks), d.BlockLen)
}

func (d *Document) touchContent() {
	d.version++
	d.revision++
}

// normalizeLevels keeps list nesting consistent: a list block is nested at
// most one level deeper than the list block before it.
func (d *Document) normalizeLevels() {
	prevList := -1
	for i := range d.blocks {
		b := &d.blocks[i]
		if !isListAttribute(b.attr) {
			b.level = 0
			prevList = -1
			continue
		}
		if b.level > prevList+1 {
			b.level = prevList + 1
		}
		if b.level < 0 {
			b.level = 0
		}
		prevList = b.level
	}
}

func textCells(s string, attrs TextAttrs) []cell {
	clusters := grapheme.Split(s)
	out := make([]cell, 0, len(clusters))
	for _, g := range clusters {
		if g == "\r\n" || g == "\r" {
			g = softBreak
		}
		out = append(out, cell{text: g, attrs: attrs})
	}
	return out
}
