package document

// InsertText inserts text at the cursor, or replaces the active selection.
// '\n' inserts a soft line break inside the current block.
func (d *Document) InsertText(s string) {
	if s == "" {
		if _, ok := d.Selection(); ok {
			d.DeleteSelection()
		}
		return
	}

	prev := d.snapshot()
	r := d.SelectedRange()
	next, changed := d.replaceRange(r, textCells(s, d.insertionAttrs(r)))
	if !changed {
		return
	}
	d.commit(prev, next)
}

// InsertSoftBreak inserts a line break inside the current block.
func (d *Document) InsertSoftBreak() {
	d.InsertText(softBreak)
}

// InsertAttachment embeds att at the cursor, or replaces the active
// selection.
func (d *Document) InsertAttachment(att *Attachment) {
	if att == nil {
		return
	}
	prev := d.snapshot()
	next, changed := d.replaceRange(d.SelectedRange(), []cell{{text: objectReplacement, att: att}})
	if !changed {
		return
	}
	d.commit(prev, next)
}

// InsertLineBreak splits the current block at the cursor.
//
// List items continue the list; an empty list item leaves it instead.
// Headings end at the break. Code blocks take a soft break.
func (d *Document) InsertLineBreak() {
	prev := d.snapshot()

	p := d.cursor
	if r, ok := d.Selection(); ok {
		p, _ = d.replaceRange(r, nil)
	}

	b := d.blocks[p.Block]
	switch {
	case b.attr == AttrCode:
		next, _ := d.replaceRange(Collapsed(p), []cell{{text: softBreak}})
		d.commit(prev, next)
		return
	case isListAttribute(b.attr) && len(b.cells) == 0:
		if b.level > 0 {
			d.blocks[p.Block].level--
		} else {
			d.blocks[p.Block].attr = ""
		}
		d.commit(prev, p)
		return
	}

	head := block{attr: b.attr, level: b.level, cells: append([]cell(nil), b.cells[:p.Offset]...)}
	tail := block{attr: b.attr, level: b.level, cells: append([]cell(nil), b.cells[p.Offset:]...)}
	if b.attr == AttrHeading1 {
		tail.attr = ""
		tail.level = 0
	}

	d.spliceBlocks(p.Block, p.Block+1, head, tail)
	d.commit(prev, Pos{Block: p.Block + 1, Offset: 0})
}

// InsertDocument inserts the blocks of frag at the cursor, or replaces the
// active selection.
func (d *Document) InsertDocument(frag *Document) {
	if frag == nil || frag.IsEmpty() {
		return
	}
	blocks := cloneBlocks(frag.blocks)
	prev := d.snapshot()

	p := d.cursor
	if r, ok := d.Selection(); ok {
		p, _ = d.replaceRange(r, nil)
	}

	if len(blocks) == 1 && blocks[0].attr == "" {
		next, changed := d.replaceRange(Collapsed(p), blocks[0].cells)
		if !changed {
			return
		}
		d.commit(prev, next)
		return
	}

	cur := d.blocks[p.Block]
	before := append([]cell(nil), cur.cells[:p.Offset]...)
	after := append([]cell(nil), cur.cells[p.Offset:]...)

	first := blocks[0]
	head := block{attr: cur.attr, level: cur.level}
	if len(before) == 0 {
		head.attr, head.level = first.attr, first.level
	}
	head.cells = append(before, first.cells...)

	if len(blocks) == 1 {
		next := Pos{Block: p.Block, Offset: len(head.cells)}
		head.cells = append(head.cells, after...)
		d.spliceBlocks(p.Block, p.Block+1, head)
		d.commit(prev, next)
		return
	}

	last := blocks[len(blocks)-1]
	tail := block{attr: last.attr, level: last.level, cells: append(append([]cell(nil), last.cells...), after...)}

	repl := make([]block, 0, len(blocks))
	repl = append(repl, head)
	repl = append(repl, blocks[1:len(blocks)-1]...)
	repl = append(repl, tail)
	d.spliceBlocks(p.Block, p.Block+1, repl...)
	d.commit(prev, Pos{Block: p.Block + len(blocks) - 1, Offset: len(last.cells)})
}

// DeleteBackward applies backspace semantics.
//
// At the start of a formatted block the block attribute is removed (or the
// list item outdented) before blocks are joined.
func (d *Document) DeleteBackward() {
	if _, ok := d.Selection(); ok {
		d.DeleteSelection()
		return
	}

	p := d.cursor
	prev := d.snapshot()

	if p.Offset > 0 {
		next, changed := d.replaceRange(Range{Start: Pos{Block: p.Block, Offset: p.Offset - 1}, End: p}, nil)
		if changed {
			d.commit(prev, next)
		}
		return
	}

	b := &d.blocks[p.Block]
	if b.attr != "" {
		if isListAttribute(b.attr) && b.level > 0 {
			b.level--
		} else {
			b.attr = ""
			b.level = 0
		}
		d.commit(prev, p)
		return
	}

	if p.Block == 0 {
		return
	}
	start := Pos{Block: p.Block - 1, Offset: len(d.blocks[p.Block-1].cells)}
	next, changed := d.replaceRange(Range{Start: start, End: p}, nil)
	if changed {
		d.commit(prev, next)
	}
}

// DeleteForward applies delete-key semantics.
func (d *Document) DeleteForward() {
	if _, ok := d.Selection(); ok {
		d.DeleteSelection()
		return
	}

	p := d.cursor
	n := len(d.blocks[p.Block].cells)
	if p.Offset >= n && p.Block == len(d.blocks)-1 {
		return
	}

	prev := d.snapshot()
	end := Pos{Block: p.Block, Offset: p.Offset + 1}
	if p.Offset >= n {
		end = Pos{Block: p.Block + 1, Offset: 0}
	}
	next, changed := d.replaceRange(Range{Start: p, End: end}, nil)
	if changed {
		d.commit(prev, next)
	}
}

// DeleteSelection deletes the active selection, if any.
func (d *Document) DeleteSelection() {
	r, ok := d.Selection()
	if !ok {
		return
	}
	prev := d.snapshot()
	next, changed := d.replaceRange(r, nil)
	if changed {
		d.commit(prev, next)
	}
}

// replaceRange removes r and inserts ins at its start. Blocks spanned by r
// are joined; the joined block keeps the attributes of the first one.
func (d *Document) replaceRange(r Range, ins []cell) (next Pos, changed bool) {
	r = NormalizeRange(ClampRange(r, len(d.blocks), d.BlockLen))
	if r.IsEmpty() && len(ins) == 0 {
		return d.cursor, false
	}

	sb := d.blocks[r.Start.Block]
	eb := d.blocks[r.End.Block]

	cells := make([]cell, 0, r.Start.Offset+len(ins)+len(eb.cells)-r.End.Offset)
	cells = append(cells, sb.cells[:r.Start.Offset]...)
	cells = append(cells, ins...)
	cells = append(cells, eb.cells[r.End.Offset:]...)

	merged := block{attr: sb.attr, level: sb.level, cells: cells}
	d.spliceBlocks(r.Start.Block, r.End.Block+1, merged)
	return Pos{Block: r.Start.Block, Offset: r.Start.Offset + len(ins)}, true
}

// spliceBlocks replaces blocks[from:to] with repl.
func (d *Document) spliceBlocks(from, to int, repl ...block) {
	out := make([]block, 0, len(d.blocks)-(to-from)+len(repl))
	out = append(out, d.blocks[:from]...)
	out = append(out, repl...)
	out = append(out, d.blocks[to:]...)
	if len(out) == 0 {
		out = []block{{}}
	}
	d.blocks = out
}

func (d *Document) commit(prev docSnapshot, cursor Pos) {
	d.normalizeLevels()
	d.cursor = d.clampPos(cursor)
	d.sel = selectionState{}
	d.typing = nil
	d.touchContent()
	d.recordUndo(prev)
}

// insertionAttrs returns the attributes new text at r takes: pending typing
// attributes, or those of the preceding cell. Links do not extend.
func (d *Document) insertionAttrs(r Range) TextAttrs {
	if d.typing != nil {
		return *d.typing
	}
	p := NormalizeRange(r).Start
	cells := d.blocks[p.Block].cells
	if p.Offset == 0 || p.Offset > len(cells) {
		return TextAttrs{}
	}
	c := cells[p.Offset-1]
	if c.att != nil || c.isBreak() {
		return TextAttrs{}
	}
	return c.attrs.Without(AttrHref)
}
