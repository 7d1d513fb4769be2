package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iw2rmb/potluck/document"
)

// TermStyle controls terminal rendering of a document.
type TermStyle struct {
	Text       lipgloss.Style
	Link       lipgloss.Style
	Heading    lipgloss.Style
	Quote      lipgloss.Style
	Code       lipgloss.Style
	Marker     lipgloss.Style
	Attachment lipgloss.Style
}

// DefaultTermStyle returns styles bound to the default lipgloss renderer.
func DefaultTermStyle() TermStyle {
	return NewTermStyle(lipgloss.DefaultRenderer())
}

// NewTermStyle returns the default styles bound to r.
func NewTermStyle(r *lipgloss.Renderer) TermStyle {
	return TermStyle{
		Text:       r.NewStyle(),
		Link:       r.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
		Heading:    r.NewStyle().Bold(true),
		Quote:      r.NewStyle().Foreground(lipgloss.Color("244")),
		Code:       r.NewStyle().Foreground(lipgloss.Color("180")),
		Marker:     r.NewStyle().Foreground(lipgloss.Color("244")),
		Attachment: r.NewStyle().Foreground(lipgloss.Color("109")),
	}
}

// Decorator restyles cells of an interactive view, for example to draw a
// cursor or a selection.
type Decorator interface {
	// Cell returns the style for the cell at p. ok reports whether the
	// decorator changed base; decorated soft breaks render as a blank cell.
	Cell(p document.Pos, base lipgloss.Style) (st lipgloss.Style, ok bool)

	// BlockEnd returns output appended after the last cell of block i.
	BlockEnd(i int) string
}

// MaxWidth bounds the wrap width Terminal accepts. Wrapping pads every line
// to the width, so output grows with it.
const MaxWidth = 1000

// Terminal renders raw as styled text, one line per block and soft break.
// width > 0 wraps lines; widths above MaxWidth are treated as MaxWidth.
func (r *Renderer) Terminal(raw string, width int) (string, error) {
	d, err := document.ParseHTML(raw, document.Options{})
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	out := r.style.Document(d, nil)
	if width > MaxWidth {
		width = MaxWidth
	}
	if width > 0 {
		out = r.style.Text.Copy().Width(width).Render(out)
	}
	return out, nil
}

// Document renders d. dec may be nil.
func (s TermStyle) Document(d *document.Document, dec Decorator) string {
	lines := make([]string, 0, d.BlockCount())
	var ordinals []int

	for i := 0; i < d.BlockCount(); i++ {
		attr, level := d.BlockAttribute(i)
		prefix, cont := s.blockPrefix(attr, level, &ordinals)

		var sb strings.Builder
		sb.WriteString(prefix)
		for j := 0; j < d.BlockLen(i); j++ {
			p := document.Pos{Block: i, Offset: j}
			text, attrs, att, ok := d.CellAt(p)
			if !ok {
				continue
			}

			var st lipgloss.Style
			switch {
			case att != nil:
				st, text = s.Attachment, AttachmentLabel(att)
			case text == "\n":
				if dec != nil {
					if cst, ok := dec.Cell(p, s.Text); ok {
						sb.WriteString(cst.Render(" "))
					}
				}
				sb.WriteString("\n" + cont)
				continue
			default:
				st = s.cellStyle(attr, attrs)
			}
			if dec != nil {
				if cst, ok := dec.Cell(p, st); ok {
					st = cst
				}
			}
			sb.WriteString(st.Render(text))
		}
		if dec != nil {
			sb.WriteString(dec.BlockEnd(i))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

func (s TermStyle) cellStyle(blockAttr string, a document.TextAttrs) lipgloss.Style {
	switch blockAttr {
	case document.AttrCode:
		return s.Code
	case document.AttrHeading1:
		if a.IsZero() {
			return s.Heading
		}
	}
	if a.IsZero() {
		return s.Text
	}

	st := s.Text.Copy()
	if blockAttr == document.AttrHeading1 {
		st = s.Heading.Copy()
	}
	if a.Bold {
		st = st.Bold(true)
	}
	if a.Italic {
		st = st.Italic(true)
	}
	if a.Strike {
		st = st.Strikethrough(true)
	}
	if a.Href != "" {
		st = st.Inherit(s.Link)
	}
	return st
}

// blockPrefix returns the first-line prefix of a block and the prefix for
// lines after a soft break. ordinals tracks list numbering per level.
func (s TermStyle) blockPrefix(attr string, level int, ordinals *[]int) (string, string) {
	indent := strings.Repeat("  ", level)
	switch attr {
	case document.AttrQuote:
		*ordinals = (*ordinals)[:0]
		bar := s.Quote.Render("│ ")
		return bar, bar
	case document.AttrCode:
		*ordinals = (*ordinals)[:0]
		return "  ", "  "
	case document.AttrBullet:
		setOrdinal(ordinals, level, 0)
		return indent + s.Marker.Render("• "), indent + "  "
	case document.AttrNumber:
		n := 1
		if level < len(*ordinals) {
			n = (*ordinals)[level] + 1
		}
		setOrdinal(ordinals, level, n)
		marker := fmt.Sprintf("%d. ", n)
		return indent + s.Marker.Render(marker), indent + strings.Repeat(" ", len(marker))
	default:
		*ordinals = (*ordinals)[:0]
		return "", ""
	}
}

func setOrdinal(ordinals *[]int, level, n int) {
	o := *ordinals
	if len(o) > level+1 {
		o = o[:level+1]
	}
	for len(o) <= level {
		o = append(o, 0)
	}
	o[level] = n
	*ordinals = o
}

// AttachmentLabel is the bracketed text shown for an attachment. Attachments
// still uploading show their progress.
func AttachmentLabel(a *document.Attachment) string {
	name := a.Attribute(document.AttachmentCaption)
	if name == "" {
		name = a.Attribute(document.AttachmentFilename)
	}
	if name == "" && a.File() != nil {
		name = a.File().Name
	}
	if name == "" {
		name = a.URL()
	}
	if name == "" {
		name = "attachment"
	}
	if a.File() != nil && !a.IsResolved() {
		return fmt.Sprintf("[%s %d%%]", name, a.UploadProgress())
	}
	return "[" + name + "]"
}
