package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/internal/grapheme"
)

// Line describes one line of Document output.
type Line struct {
	Block  int
	Start  int   // offset of the first cell on the line
	Indent int   // width of the block prefix
	Widths []int // cell widths, soft break excluded
}

// End returns the offset just past the last cell on the line.
func (l Line) End() int { return l.Start + len(l.Widths) }

// Layout returns the lines Document produces for d, without decoration.
func (s TermStyle) Layout(d *document.Document) []Line {
	var out []Line
	var ordinals []int

	for i := 0; i < d.BlockCount(); i++ {
		attr, level := d.BlockAttribute(i)
		prefix, cont := s.blockPrefix(attr, level, &ordinals)

		cur := Line{Block: i, Indent: lipgloss.Width(prefix)}
		for j := 0; j < d.BlockLen(i); j++ {
			text, _, att, _ := d.CellAt(document.Pos{Block: i, Offset: j})
			switch {
			case att != nil:
				cur.Widths = append(cur.Widths, lipgloss.Width(AttachmentLabel(att)))
			case text == "\n":
				out = append(out, cur)
				cur = Line{Block: i, Start: j + 1, Indent: lipgloss.Width(cont)}
			default:
				cur.Widths = append(cur.Widths, grapheme.Width(text))
			}
		}
		out = append(out, cur)
	}
	return out
}

// LineOf returns the index of the line in lines that holds p.
func LineOf(lines []Line, p document.Pos) int {
	for i, l := range lines {
		if l.Block != p.Block {
			continue
		}
		if p.Offset <= l.End() {
			return i
		}
	}
	return len(lines) - 1
}
