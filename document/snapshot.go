package document

// Snapshot captures document content and selection. It round-trips through
// JSON and is opaque to callers.
type Snapshot struct {
	HTML      string `json:"html"`
	Selection Range  `json:"selection"`
}

func (d *Document) Snapshot() Snapshot {
	r := Collapsed(d.cursor)
	if d.sel.active {
		r = Range{Start: d.sel.anchor, End: d.sel.end}
	}
	return Snapshot{HTML: d.HTML(), Selection: r}
}

// LoadHTML replaces the content with parsed s, places the cursor at the
// start and clears history.
func (d *Document) LoadHTML(s string) error {
	parsed, err := ParseHTML(s, d.opt)
	if err != nil {
		return err
	}
	d.blocks = parsed.blocks
	d.cursor = Pos{}
	d.sel = selectionState{}
	d.typing = nil
	d.touchContent()
	d.ResetHistory()
	return nil
}

// LoadSnapshot restores content and selection captured by Snapshot.
func (d *Document) LoadSnapshot(s Snapshot) error {
	if err := d.LoadHTML(s.HTML); err != nil {
		return err
	}
	d.SetSelection(s.Selection)
	return nil
}
