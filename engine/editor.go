package engine

import (
	"maps"
	"sync"

	"github.com/iw2rmb/potluck/document"
	"go.uber.org/zap"
)

// Direction selects the side DeleteInDirection removes from.
type Direction int

const (
	Backward Direction = iota
	Forward
)

// Editor is the command surface of a connected Element. It is safe for
// concurrent use.
type Editor struct {
	el *Element

	mu          sync.Mutex
	doc         *document.Document
	attached    bool
	attachments map[*document.Attachment]bool
	lastRev     uint64
	lastSel     document.Range
	lastAttrs   map[string]any
	lastActions map[string]bool
}

func newEditor(el *Element, initial string) *Editor {
	doc := document.New(el.opt)
	if initial != "" {
		if err := doc.LoadHTML(initial); err != nil {
			el.logger.Warn("initial value not loaded", zap.Error(err))
		}
	}
	return &Editor{
		el:          el,
		doc:         doc,
		attachments: map[*document.Attachment]bool{},
	}
}

func (e *Editor) attach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = true
	e.attachments = map[*document.Attachment]bool{}
	for _, a := range e.doc.Attachments() {
		e.attachments[a] = true
		a.SetObserver(e.attachmentChanged)
	}
	e.lastRev = e.doc.Revision()
	e.lastSel = e.doc.SelectedRange()
	e.lastAttrs = e.attributesLocked()
	e.lastActions = e.actionsLocked()
	e.el.input.SetValue(e.doc.HTML())
}

func (e *Editor) detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = false
	for a := range e.attachments {
		a.SetObserver(nil)
	}
}

// mutate runs fn against the document and queues the events describing its
// effect. Events are queued under the editor lock, so their order matches
// the order of mutations across goroutines.
func (e *Editor) mutate(fn func(d *document.Document), extra ...*Event) {
	e.mu.Lock()
	fn(e.doc)
	evs := e.collectLocked()
	evs = append(evs, extra...)
	e.el.enqueue(evs...)
	e.mu.Unlock()

	e.el.drain()
}

// refresh re-reports state that depends on the element, such as disabled.
func (e *Editor) refresh() {
	e.mutate(func(*document.Document) {})
}

func (e *Editor) collectLocked() []*Event {
	var evs []*Event

	if rev := e.doc.Revision(); rev != e.lastRev {
		e.lastRev = rev
		html := e.doc.HTML()
		e.el.input.SetValue(html)

		if e.attached {
			evs = append(evs, e.diffAttachmentsLocked()...)
		}
		evs = append(evs, &Event{Name: EventChange, HTML: html})
	}

	if sel := e.doc.SelectedRange(); sel != e.lastSel {
		e.lastSel = sel
		evs = append(evs, &Event{Name: EventSelectionChange, Selection: sel})
	}

	if attrs := e.attributesLocked(); !maps.Equal(attrs, e.lastAttrs) {
		e.lastAttrs = attrs
		evs = append(evs, &Event{Name: EventAttributesChange, Attributes: maps.Clone(attrs)})
	}

	if actions := e.actionsLocked(); !maps.Equal(actions, e.lastActions) {
		e.lastActions = actions
		evs = append(evs, &Event{Name: EventActionsChange, Actions: maps.Clone(actions)})
	}

	if !e.attached {
		return nil
	}
	return evs
}

func (e *Editor) diffAttachmentsLocked() []*Event {
	var evs []*Event
	cur := map[*document.Attachment]bool{}
	for _, a := range e.doc.Attachments() {
		cur[a] = true
		if e.attachments[a] {
			continue
		}
		e.attachments[a] = true
		a.SetObserver(e.attachmentChanged)
		evs = append(evs, &Event{Name: EventAttachmentAdd, Attachment: a})
	}
	for a := range e.attachments {
		if cur[a] {
			continue
		}
		delete(e.attachments, a)
		a.SetObserver(nil)
		evs = append(evs, &Event{Name: EventAttachmentRemove, Attachment: a})
	}
	return evs
}

func (e *Editor) attachmentChanged(a *document.Attachment, change document.AttachmentChange) {
	e.mu.Lock()
	if !e.attached || !e.attachments[a] {
		e.mu.Unlock()
		return
	}
	if change == document.AttachmentProgressChanged {
		e.mu.Unlock()
		e.el.notify()
		return
	}

	html := e.doc.HTML()
	e.el.input.SetValue(html)
	e.el.enqueue(
		&Event{Name: EventAttachmentEdit, Attachment: a},
		&Event{Name: EventChange, HTML: html},
	)
	e.mu.Unlock()

	e.el.drain()
}

func (e *Editor) attributesLocked() map[string]any {
	if e.el.Disabled() {
		out := make(map[string]any, len(document.TextAttributes)+len(document.BlockAttributes))
		for _, n := range document.TextAttributes {
			out[n] = false
		}
		for _, n := range document.BlockAttributes {
			out[n] = false
		}
		return out
	}
	return e.doc.CurrentAttributes()
}

func (e *Editor) actionsLocked() map[string]bool {
	out := make(map[string]bool, len(Actions))
	if e.el.Disabled() {
		for _, n := range Actions {
			out[n] = false
		}
		return out
	}
	out[ActionUndo] = e.doc.CanUndo()
	out[ActionRedo] = e.doc.CanRedo()
	out[ActionIncreaseNestingLevel] = e.doc.CanIncreaseNestingLevel()
	out[ActionDecreaseNestingLevel] = e.doc.CanDecreaseNestingLevel()
	out[ActionAttachFiles] = true
	out[ActionLink] = e.doc.CanActivateAttribute(document.AttrHref)
	return out
}

// HTML returns the current serialization.
func (e *Editor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.HTML()
}

func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Text()
}

// Read runs fn with the document under the editor lock. fn must not retain
// d or call back into the editor.
func (e *Editor) Read(fn func(d *document.Document)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.doc)
}

// LoadHTML replaces the content and clears history.
func (e *Editor) LoadHTML(s string) error {
	var err error
	e.mutate(func(d *document.Document) { err = d.LoadHTML(s) })
	return err
}

func (e *Editor) InsertString(s string) {
	e.mutate(func(d *document.Document) { d.InsertText(s) })
}

// InsertHTML parses s and inserts it at the selection.
func (e *Editor) InsertHTML(s string) error {
	frag, err := document.ParseHTML(s, document.Options{})
	if err != nil {
		return err
	}
	e.mutate(func(d *document.Document) { d.InsertDocument(frag) })
	return nil
}

func (e *Editor) InsertLineBreak() {
	e.mutate(func(d *document.Document) { d.InsertLineBreak() })
}

func (e *Editor) InsertSoftBreak() {
	e.mutate(func(d *document.Document) { d.InsertSoftBreak() })
}

func (e *Editor) InsertAttachment(a *document.Attachment) {
	e.mutate(func(d *document.Document) { d.InsertAttachment(a) })
}

// InsertFile dispatches file-accept and, unless a listener prevents it,
// embeds f as a pending attachment. It reports whether f was embedded.
func (e *Editor) InsertFile(f *document.File) bool {
	if f == nil {
		return false
	}
	if !e.el.Dispatch(&Event{Name: EventFileAccept, File: f, Cancelable: true}) {
		return false
	}
	e.InsertAttachment(document.NewFileAttachment(f))
	return true
}

// Paste dispatches before-paste and, unless a listener prevents it, inserts
// the payload and dispatches paste.
func (e *Editor) Paste(p PasteData) bool {
	if !e.el.Dispatch(&Event{Name: EventBeforePaste, Paste: &p, Cancelable: true}) {
		return false
	}

	var frag *document.Document
	if p.HTML != "" {
		parsed, err := document.ParseHTML(p.HTML, document.Options{})
		if err != nil {
			e.el.logger.Warn("paste html not parsed", zap.Error(err))
		} else {
			frag = parsed
		}
	}

	e.mutate(func(d *document.Document) {
		switch {
		case frag != nil:
			d.InsertDocument(frag)
		case p.String != "":
			d.InsertText(p.String)
		}
	}, &Event{Name: EventPaste, Paste: &p})

	for _, f := range p.Files {
		e.InsertFile(f)
	}
	return true
}

func (e *Editor) DeleteInDirection(dir Direction) {
	e.mutate(func(d *document.Document) {
		if dir == Forward {
			d.DeleteForward()
			return
		}
		d.DeleteBackward()
	})
}

func (e *Editor) Move(m document.Move) {
	e.mutate(func(d *document.Document) { d.Move(m) })
}

func (e *Editor) SelectAll() {
	e.mutate(func(d *document.Document) { d.SelectAll() })
}

func (e *Editor) SetSelectedRange(r document.Range) {
	e.mutate(func(d *document.Document) { d.SetSelection(r) })
}

func (e *Editor) SelectedRange() document.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.SelectedRange()
}

// ActivateAttribute applies an attribute. value is the link target for
// href.
func (e *Editor) ActivateAttribute(name string, value ...string) {
	v := ""
	if len(value) > 0 {
		v = value[0]
	}
	e.mutate(func(d *document.Document) { d.ActivateAttribute(name, v) })
}

func (e *Editor) DeactivateAttribute(name string) {
	e.mutate(func(d *document.Document) { d.DeactivateAttribute(name) })
}

// ToggleAttribute deactivates name when active and activates it otherwise.
func (e *Editor) ToggleAttribute(name string) {
	e.mutate(func(d *document.Document) {
		switch v := d.CurrentAttributes()[name].(type) {
		case bool:
			if v {
				d.DeactivateAttribute(name)
				return
			}
		case string:
			d.DeactivateAttribute(name)
			return
		}
		d.ActivateAttribute(name, "")
	})
}

// AttributeIsActive reports whether name is active at the selection.
func (e *Editor) AttributeIsActive(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch v := e.doc.CurrentAttributes()[name].(type) {
	case bool:
		return v
	case string:
		return v != ""
	default:
		return false
	}
}

func (e *Editor) CanActivateAttribute(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.el.Disabled() && e.doc.CanActivateAttribute(name)
}

func (e *Editor) Undo() {
	e.mutate(func(d *document.Document) { d.Undo() })
}

func (e *Editor) Redo() {
	e.mutate(func(d *document.Document) { d.Redo() })
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.CanUndo()
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.CanRedo()
}

func (e *Editor) IncreaseNestingLevel() {
	e.mutate(func(d *document.Document) { d.IncreaseNestingLevel() })
}

func (e *Editor) DecreaseNestingLevel() {
	e.mutate(func(d *document.Document) { d.DecreaseNestingLevel() })
}

func (e *Editor) CanIncreaseNestingLevel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.CanIncreaseNestingLevel()
}

func (e *Editor) CanDecreaseNestingLevel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.CanDecreaseNestingLevel()
}

// GetSnapshot captures content and selection.
func (e *Editor) GetSnapshot() document.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Snapshot()
}

func (e *Editor) LoadSnapshot(s document.Snapshot) error {
	var err error
	e.mutate(func(d *document.Document) { err = d.LoadSnapshot(s) })
	return err
}

// Attributes returns the attribute state in the form attributes-change
// reports it.
func (e *Editor) Attributes() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attributesLocked()
}

// ActionState returns action availability in the form actions-change
// reports it.
func (e *Editor) ActionState() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actionsLocked()
}

func (e *Editor) Attachments() []*document.Attachment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Attachments()
}
