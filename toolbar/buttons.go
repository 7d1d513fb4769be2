package toolbar

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
)

// DefaultButtons returns the standard rich-text toolbar in display order:
// text styles and link, block styles and nesting, attachments, history.
func DefaultButtons() []*Button {
	bind := func(k, help string) key.Binding {
		return key.NewBinding(key.WithKeys(k), key.WithHelp(k, help))
	}
	return []*Button{
		NewAttributeButton("B", document.AttrBold, bind("ctrl+b", "bold")),
		NewAttributeButton("I", document.AttrItalic, bind("alt+i", "italic")),
		NewAttributeButton("S", document.AttrStrike, bind("alt+s", "strikethrough")),
		NewActionButton("Link", engine.ActionLink, bind("alt+k", "link")),

		NewAttributeButton("H1", document.AttrHeading1, bind("alt+1", "heading")),
		NewAttributeButton("Quote", document.AttrQuote, bind("alt+q", "quote")),
		NewAttributeButton("Code", document.AttrCode, bind("alt+c", "code")),
		NewAttributeButton("•", document.AttrBullet, bind("alt+u", "bullets")),
		NewAttributeButton("1.", document.AttrNumber, bind("alt+o", "numbers")),
		NewActionButton("«", engine.ActionDecreaseNestingLevel, bind("alt+[", "decrease level")),
		NewActionButton("»", engine.ActionIncreaseNestingLevel, bind("alt+]", "increase level")),

		NewActionButton("Attach", engine.ActionAttachFiles, bind("alt+f", "attach files")),

		NewActionButton("Undo", engine.ActionUndo, bind("ctrl+z", "undo")),
		NewActionButton("Redo", engine.ActionRedo, bind("ctrl+y", "redo")),
	}
}
