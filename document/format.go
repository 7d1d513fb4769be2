package document

// CurrentAttributes reports the formatting at the selection.
//
// Active text attributes map to true (href maps to the link target), the
// active block attribute maps to true, and text attributes that cannot be
// applied anywhere in the selection map to false.
func (d *Document) CurrentAttributes() map[string]any {
	out := map[string]any{}
	r := d.SelectedRange()

	if attr, ok := d.commonBlockAttr(r); ok && attr != "" {
		out[attr] = true
	}

	if d.touchesCode(r) {
		for _, name := range TextAttributes {
			out[name] = false
		}
		return out
	}

	attrs, ok := d.commonTextAttrs(r)
	if !ok {
		return out
	}
	for _, name := range TextAttributes {
		if !attrs.Has(name) {
			continue
		}
		if name == AttrHref {
			out[name] = attrs.Href
			continue
		}
		out[name] = true
	}
	return out
}

// CanActivateAttribute reports whether name may be applied at the selection.
func (d *Document) CanActivateAttribute(name string) bool {
	switch {
	case IsBlockAttribute(name):
		return true
	case IsTextAttribute(name):
		return !d.touchesCode(d.SelectedRange())
	default:
		return false
	}
}

// touchesCode reports whether any block r spans is a code block.
func (d *Document) touchesCode(r Range) bool {
	for i := r.Start.Block; i <= r.End.Block; i++ {
		if d.blocks[i].attr == AttrCode {
			return true
		}
	}
	return false
}

// ActivateAttribute applies name to the selection. value is the link target
// for href and ignored otherwise.
//
// With a collapsed selection text attributes apply to the next typed text,
// except href, which inserts value as linked text.
func (d *Document) ActivateAttribute(name, value string) {
	if !d.CanActivateAttribute(name) {
		return
	}
	if IsBlockAttribute(name) {
		d.setBlockAttr(name)
		return
	}
	if name == AttrHref && value == "" {
		return
	}

	r, ok := d.Selection()
	if !ok {
		if name == AttrHref {
			cur := d.insertionAttrs(d.SelectedRange())
			d.typing = nil
			prev := d.snapshot()
			next, changed := d.replaceRange(d.SelectedRange(), textCells(value, cur.With(AttrHref, value)))
			if changed {
				d.commit(prev, next)
			}
			return
		}
		next := d.insertionAttrs(d.SelectedRange()).With(name, value)
		d.setTyping(next)
		return
	}

	d.mapTextAttrs(r, func(a TextAttrs) TextAttrs { return a.With(name, value) })
}

// DeactivateAttribute removes name from the selection. With a collapsed
// selection inside a link, href is removed from the whole link.
func (d *Document) DeactivateAttribute(name string) {
	if IsBlockAttribute(name) {
		d.clearBlockAttr(name)
		return
	}
	if !IsTextAttribute(name) {
		return
	}

	r, ok := d.Selection()
	if !ok {
		if name == AttrHref {
			if lr, found := d.linkRangeAt(d.cursor); found {
				d.mapTextAttrs(lr, func(a TextAttrs) TextAttrs { return a.Without(AttrHref) })
			}
			return
		}
		d.setTyping(d.insertionAttrs(d.SelectedRange()).Without(name))
		return
	}

	d.mapTextAttrs(r, func(a TextAttrs) TextAttrs { return a.Without(name) })
}

func (d *Document) CanIncreaseNestingLevel() bool {
	bl := d.SelectedRange().Start.Block
	b := d.blocks[bl]
	if !isListAttribute(b.attr) || bl == 0 {
		return false
	}
	p := d.blocks[bl-1]
	return isListAttribute(p.attr) && p.level >= b.level
}

func (d *Document) CanDecreaseNestingLevel() bool {
	r := d.SelectedRange()
	for i := r.Start.Block; i <= r.End.Block; i++ {
		if isListAttribute(d.blocks[i].attr) {
			return true
		}
	}
	return false
}

// IncreaseNestingLevel nests the selected list items one level deeper.
func (d *Document) IncreaseNestingLevel() {
	if !d.CanIncreaseNestingLevel() {
		return
	}
	r := d.SelectedRange()
	prev := d.snapshot()
	for i := r.Start.Block; i <= r.End.Block; i++ {
		if isListAttribute(d.blocks[i].attr) {
			d.blocks[i].level++
		}
	}
	d.commitFormat(prev)
}

// DecreaseNestingLevel outdents the selected list items. Items at the top
// level leave the list.
func (d *Document) DecreaseNestingLevel() {
	if !d.CanDecreaseNestingLevel() {
		return
	}
	r := d.SelectedRange()
	prev := d.snapshot()
	for i := r.Start.Block; i <= r.End.Block; i++ {
		b := &d.blocks[i]
		if !isListAttribute(b.attr) {
			continue
		}
		if b.level > 0 {
			b.level--
			continue
		}
		b.attr = ""
	}
	d.commitFormat(prev)
}

func (d *Document) setTyping(a TextAttrs) {
	if d.typing != nil && *d.typing == a {
		return
	}
	d.typing = &a
	d.version++
}

func (d *Document) setBlockAttr(name string) {
	r := d.SelectedRange()
	prev := d.snapshot()
	changed := false
	for i := r.Start.Block; i <= r.End.Block; i++ {
		b := &d.blocks[i]
		if b.attr == name {
			continue
		}
		b.attr = name
		b.level = 0
		if name == AttrCode {
			for j := range b.cells {
				b.cells[j].attrs = TextAttrs{}
			}
		}
		changed = true
	}
	if changed {
		d.commitFormat(prev)
	}
}

func (d *Document) clearBlockAttr(name string) {
	r := d.SelectedRange()
	prev := d.snapshot()
	changed := false
	for i := r.Start.Block; i <= r.End.Block; i++ {
		b := &d.blocks[i]
		if b.attr != name {
			continue
		}
		b.attr = ""
		b.level = 0
		changed = true
	}
	if changed {
		d.commitFormat(prev)
	}
}

// mapTextAttrs rewrites the attributes of every text cell in r.
func (d *Document) mapTextAttrs(r Range, fn func(TextAttrs) TextAttrs) {
	prev := d.snapshot()
	changed := false
	d.eachCell(r, func(c *cell) {
		if c.att != nil || c.isBreak() {
			return
		}
		next := fn(c.attrs)
		if next != c.attrs {
			c.attrs = next
			changed = true
		}
	})
	if changed {
		d.commitFormat(prev)
	}
}

func (d *Document) commitFormat(prev docSnapshot) {
	d.normalizeLevels()
	d.typing = nil
	d.touchContent()
	d.recordUndo(prev)
}

func (d *Document) eachCell(r Range, fn func(*cell)) {
	r = NormalizeRange(r)
	for bl := r.Start.Block; bl <= r.End.Block; bl++ {
		cells := d.blocks[bl].cells
		from, to := 0, len(cells)
		if bl == r.Start.Block {
			from = r.Start.Offset
		}
		if bl == r.End.Block {
			to = r.End.Offset
		}
		for i := from; i < to && i < len(cells); i++ {
			fn(&cells[i])
		}
	}
}

// commonTextAttrs intersects the attributes of the text cells in r. A
// collapsed range reports the attributes the next typed text would take.
func (d *Document) commonTextAttrs(r Range) (TextAttrs, bool) {
	if r.IsEmpty() {
		if d.typing != nil {
			return *d.typing, true
		}
		if lr, ok := d.linkRangeAt(r.Start); ok {
			href := d.blocks[lr.Start.Block].cells[lr.Start.Offset].attrs.Href
			return d.insertionAttrs(r).With(AttrHref, href), true
		}
		return d.insertionAttrs(r), true
	}

	var out TextAttrs
	seen := false
	d.eachCell(r, func(c *cell) {
		if c.att != nil || c.isBreak() {
			return
		}
		if !seen {
			out, seen = c.attrs, true
			return
		}
		out = intersectAttrs(out, c.attrs)
	})
	return out, seen
}

func intersectAttrs(a, b TextAttrs) TextAttrs {
	out := TextAttrs{
		Bold:   a.Bold && b.Bold,
		Italic: a.Italic && b.Italic,
		Strike: a.Strike && b.Strike,
	}
	if a.Href == b.Href {
		out.Href = a.Href
	}
	return out
}

func (d *Document) commonBlockAttr(r Range) (string, bool) {
	attr := d.blocks[r.Start.Block].attr
	for i := r.Start.Block + 1; i <= r.End.Block; i++ {
		if d.blocks[i].attr != attr {
			return "", false
		}
	}
	return attr, true
}

// linkRangeAt returns the extent of the link run touching p from inside.
// A cursor at either edge of a link is outside it.
func (d *Document) linkRangeAt(p Pos) (Range, bool) {
	cells := d.blocks[p.Block].cells
	if p.Offset <= 0 || p.Offset >= len(cells) {
		return Range{}, false
	}
	href := cells[p.Offset-1].attrs.Href
	if href == "" || cells[p.Offset].attrs.Href != href {
		return Range{}, false
	}
	start, end := p.Offset-1, p.Offset
	for start > 0 && cells[start-1].attrs.Href == href {
		start--
	}
	for end < len(cells) && cells[end].attrs.Href == href {
		end++
	}
	return Range{Start: Pos{Block: p.Block, Offset: start}, End: Pos{Block: p.Block, Offset: end}}, true
}
