package editor

// Clipboard provides editor-level clipboard integration.
//
// Errors must not crash the UI; failures are ignored.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(s string) error
}

// HTMLClipboard is a Clipboard that also carries rich content. Copies write
// both forms; pastes prefer the HTML.
type HTMLClipboard interface {
	Clipboard
	ReadHTML() (string, error)
	WriteHTML(html string) error
}
