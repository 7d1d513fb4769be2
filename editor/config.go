package editor

import (
	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/upload"
	"go.uber.org/zap"
)

// EventFunc receives one engine event.
type EventFunc func(ev *engine.Event)

// Config configures the editor Model.
type Config struct {
	// InitialValue is loaded once, when the element first initializes.
	// Later Configs passed to SetConfig do not reload it.
	InitialValue string

	// OnValueChange receives the serialized document after every change,
	// in mutation order. Callbacks never overlap, but they run on whichever
	// goroutine is delivering events at the time: an upload goroutine, or
	// the caller of an earlier command that is still delivering. A command
	// may return before its own change has been reported.
	OnValueChange func(html string)

	Placeholder string
	Disabled    bool
	Autofocus   bool

	// Name of the hidden form input mirroring the value.
	Name string

	OnSelectionChange  EventFunc
	OnInitialize       EventFunc
	OnFocus            EventFunc
	OnBlur             EventFunc
	OnFileAccept       EventFunc
	OnAttachmentAdd    EventFunc
	OnAttachmentEdit   EventFunc
	OnAttachmentRemove EventFunc
	OnBeforePaste      EventFunc
	OnPaste            EventFunc
	OnAttributesChange EventFunc
	OnActionsChange    EventFunc

	// Uploads enables the attachment upload controller. It is read when the
	// element mounts.
	Uploads *upload.Config

	// Loader resolves the engine. Defaults to engine.DefaultLoader.
	Loader engine.Loader

	Logger *zap.Logger

	// Forwarded to document.Options.
	HistoryLimit int

	KeyMap    KeyMap
	Style     Style
	Clipboard Clipboard

	// ScrollPolicy controls mouse wheel scrolling.
	ScrollPolicy ScrollPolicy
}

func (cfg Config) eventFuncs() map[engine.EventName]EventFunc {
	return map[engine.EventName]EventFunc{
		engine.EventSelectionChange:  cfg.OnSelectionChange,
		engine.EventFocus:            cfg.OnFocus,
		engine.EventBlur:             cfg.OnBlur,
		engine.EventFileAccept:       cfg.OnFileAccept,
		engine.EventAttachmentAdd:    cfg.OnAttachmentAdd,
		engine.EventAttachmentEdit:   cfg.OnAttachmentEdit,
		engine.EventAttachmentRemove: cfg.OnAttachmentRemove,
		engine.EventBeforePaste:      cfg.OnBeforePaste,
		engine.EventPaste:            cfg.OnPaste,
		engine.EventAttributesChange: cfg.OnAttributesChange,
		engine.EventActionsChange:    cfg.OnActionsChange,
	}
}

// ScrollPolicy decides whether the mouse wheel may scroll away from the
// cursor.
type ScrollPolicy int

const (
	ScrollAllowManual ScrollPolicy = iota
	// ScrollFollowCursorOnly ignores the wheel; only cursor moves scroll.
	ScrollFollowCursorOnly
)
