package document

type docSnapshot struct {
	blocks []block
	cursor Pos
	sel    selectionState
}

type historyState struct {
	undo []docSnapshot
	redo []docSnapshot
}

func cloneBlocks(in []block) []block {
	out := make([]block, len(in))
	for i, b := range in {
		out[i] = b.clone()
	}
	return out
}

func (d *Document) snapshot() docSnapshot {
	return docSnapshot{
		blocks: cloneBlocks(d.blocks),
		cursor: d.cursor,
		sel:    d.sel,
	}
}

func (d *Document) restore(s docSnapshot) {
	d.blocks = cloneBlocks(s.blocks)
	if len(d.blocks) == 0 {
		d.blocks = []block{{}}
	}
	d.cursor = d.clampPos(s.cursor)
	d.typing = nil

	if !s.sel.active {
		d.sel = selectionState{}
		return
	}
	anchor := d.clampPos(s.sel.anchor)
	end := d.clampPos(s.sel.end)
	if NormalizeRange(Range{Start: anchor, End: end}).IsEmpty() {
		d.sel = selectionState{}
		return
	}
	d.sel = selectionState{active: true, anchor: anchor, end: end}
}

func (d *Document) recordUndo(prev docSnapshot) {
	limit := d.opt.HistoryLimit
	if limit <= 0 {
		return
	}

	d.hist.undo = append(d.hist.undo, prev)
	if len(d.hist.undo) > limit {
		d.hist.undo = d.hist.undo[len(d.hist.undo)-limit:]
	}
	d.hist.redo = nil
}

// ResetHistory drops all undo and redo entries.
func (d *Document) ResetHistory() {
	d.hist = historyState{}
}

func (d *Document) CanUndo() bool { return len(d.hist.undo) > 0 }

func (d *Document) CanRedo() bool { return len(d.hist.redo) > 0 }

func (d *Document) Undo() bool {
	if len(d.hist.undo) == 0 {
		return false
	}

	cur := d.snapshot()
	i := len(d.hist.undo) - 1
	prev := d.hist.undo[i]
	d.hist.undo = d.hist.undo[:i]
	d.hist.redo = append(d.hist.redo, cur)

	d.restore(prev)
	d.touchContent()
	return true
}

func (d *Document) Redo() bool {
	if len(d.hist.redo) == 0 {
		return false
	}

	cur := d.snapshot()
	i := len(d.hist.redo) - 1
	next := d.hist.redo[i]
	d.hist.redo = d.hist.redo[:i]

	if limit := d.opt.HistoryLimit; limit > 0 {
		d.hist.undo = append(d.hist.undo, cur)
		if len(d.hist.undo) > limit {
			d.hist.undo = d.hist.undo[len(d.hist.undo)-limit:]
		}
	}

	d.restore(next)
	d.touchContent()
	return true
}
