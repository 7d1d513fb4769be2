package engine

import "github.com/iw2rmb/potluck/document"

// EventName names an engine event.
type EventName string

const (
	EventChange           EventName = "change"
	EventSelectionChange  EventName = "selection-change"
	EventInitialize       EventName = "initialize"
	EventFocus            EventName = "focus"
	EventBlur             EventName = "blur"
	EventFileAccept       EventName = "file-accept"
	EventAttachmentAdd    EventName = "attachment-add"
	EventAttachmentEdit   EventName = "attachment-edit"
	EventAttachmentRemove EventName = "attachment-remove"
	EventBeforePaste      EventName = "before-paste"
	EventPaste            EventName = "paste"
	EventAttributesChange EventName = "attributes-change"
	EventActionsChange    EventName = "actions-change"
)

// AllEvents lists every event the engine emits.
var AllEvents = []EventName{
	EventChange,
	EventSelectionChange,
	EventInitialize,
	EventFocus,
	EventBlur,
	EventFileAccept,
	EventAttachmentAdd,
	EventAttachmentEdit,
	EventAttachmentRemove,
	EventBeforePaste,
	EventPaste,
	EventAttributesChange,
	EventActionsChange,
}

// Action names reported in actions-change.
const (
	ActionUndo                 = "undo"
	ActionRedo                 = "redo"
	ActionIncreaseNestingLevel = "increaseNestingLevel"
	ActionDecreaseNestingLevel = "decreaseNestingLevel"
	ActionAttachFiles          = "attachFiles"
	ActionLink                 = "link"
)

// Actions lists every action name.
var Actions = []string{
	ActionUndo,
	ActionRedo,
	ActionIncreaseNestingLevel,
	ActionDecreaseNestingLevel,
	ActionAttachFiles,
	ActionLink,
}

// PasteData is the clipboard payload of a paste.
type PasteData struct {
	// Type is "text/html" or "text/plain" ("Files" when only files are pasted).
	Type   string
	HTML   string
	String string
	Files  []*document.File
}

// Event is delivered to listeners. Fields outside the event's payload are
// zero.
type Event struct {
	Name   EventName
	Target *Element

	HTML       string               // change
	Selection  document.Range       // selection-change
	File       *document.File       // file-accept
	Attachment *document.Attachment // attachment-add, -edit, -remove
	Paste      *PasteData           // before-paste, paste
	Attributes map[string]any       // attributes-change
	Actions    map[string]bool      // actions-change

	Cancelable bool
	prevented  bool
}

// PreventDefault cancels the engine's default handling of a cancelable
// event.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.prevented = true
	}
}

func (e *Event) DefaultPrevented() bool { return e.prevented }

// Listener receives events from an Element.
type Listener func(*Event)

// ListenerID identifies a registered listener.
type ListenerID uint64
