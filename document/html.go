package document

import (
	"encoding/json"
	"path"
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]string{
	"":           "div",
	AttrHeading1: "h1",
	AttrQuote:    "blockquote",
	AttrCode:     "pre",
}

// HTML serializes the document.
func (d *Document) HTML() string {
	var w htmlWriter
	for _, b := range d.blocks {
		w.plain = b.attr == AttrCode
		if !isListAttribute(b.attr) {
			w.closeLists(0)
			tag := blockTags[b.attr]
			w.sb.WriteString("<" + tag + ">")
			w.writeCells(b.cells)
			w.sb.WriteString("</" + tag + ">")
			continue
		}
		w.openItem(b)
		w.writeCells(b.cells)
	}
	w.closeLists(0)
	return w.sb.String()
}

type htmlWriter struct {
	sb    strings.Builder
	lists []string // open list tags, innermost last; each holds an open <li>
	plain bool     // code blocks carry no text formatting
}

func listTag(attr string) string {
	if attr == AttrNumber {
		return "ol"
	}
	return "ul"
}

func (w *htmlWriter) openItem(b block) {
	tag := listTag(b.attr)
	depth := b.level + 1
	if depth > len(w.lists)+1 {
		depth = len(w.lists) + 1
	}
	if len(w.lists) >= depth && w.lists[depth-1] != tag {
		w.closeLists(depth - 1)
	}
	if len(w.lists) >= depth {
		w.closeLists(depth)
		w.sb.WriteString("</li><li>")
		return
	}
	w.lists = append(w.lists, tag)
	w.sb.WriteString("<" + tag + "><li>")
}

func (w *htmlWriter) closeLists(depth int) {
	for len(w.lists) > depth {
		tag := w.lists[len(w.lists)-1]
		w.lists = w.lists[:len(w.lists)-1]
		w.sb.WriteString("</li></" + tag + ">")
	}
}

func (w *htmlWriter) writeCells(cells []cell) {
	if len(cells) == 0 {
		w.sb.WriteString("<br>")
		return
	}
	for i := 0; i < len(cells); {
		if cells[i].att != nil {
			w.writeAttachment(cells[i].att)
			i++
			continue
		}
		j := i + 1
		for j < len(cells) && cells[j].att == nil && (w.plain || cells[j].attrs == cells[i].attrs) {
			j++
		}
		w.writeRun(cells[i:j])
		i = j
	}
	if cells[len(cells)-1].isBreak() {
		w.sb.WriteString("<br>")
	}
}

func (w *htmlWriter) writeRun(run []cell) {
	a := run[0].attrs
	if w.plain {
		a = TextAttrs{}
	}
	if a.Href != "" {
		w.sb.WriteString(`<a href="` + html.EscapeString(a.Href) + `">`)
	}
	if a.Bold {
		w.sb.WriteString("<strong>")
	}
	if a.Italic {
		w.sb.WriteString("<em>")
	}
	if a.Strike {
		w.sb.WriteString("<del>")
	}

	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			w.sb.WriteString(html.EscapeString(text.String()))
			text.Reset()
		}
	}
	for _, c := range run {
		if c.isBreak() {
			flush()
			w.sb.WriteString("<br>")
			continue
		}
		text.WriteString(c.text)
	}
	flush()

	if a.Strike {
		w.sb.WriteString("</del>")
	}
	if a.Italic {
		w.sb.WriteString("</em>")
	}
	if a.Bold {
		w.sb.WriteString("</strong>")
	}
	if a.Href != "" {
		w.sb.WriteString("</a>")
	}
}

func (w *htmlWriter) writeAttachment(att *Attachment) {
	attrs := att.Attributes()
	caption := attrs[AttachmentCaption]
	delete(attrs, AttachmentCaption)

	ct := attrs[AttachmentContentType]
	preview := IsPreviewableType(ct)

	class := "attachment attachment--file"
	if preview {
		class = "attachment attachment--preview"
	}
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(attrs[AttachmentFilename])), "."); ext != "" {
		class += " attachment--" + ext
	}

	w.sb.WriteString(`<figure data-trix-attachment="` + html.EscapeString(encodeAttrs(attrs)) + `"`)
	if ct != "" {
		w.sb.WriteString(` data-trix-content-type="` + html.EscapeString(ct) + `"`)
	}
	if caption != "" {
		w.sb.WriteString(` data-trix-attributes="` + html.EscapeString(encodeAttrs(map[string]string{AttachmentCaption: caption})) + `"`)
	}
	w.sb.WriteString(` contenteditable="false" class="` + html.EscapeString(class) + `">`)

	if url := attrs[AttachmentURL]; preview && url != "" {
		w.sb.WriteString(`<img src="` + html.EscapeString(url) + `"`)
		if v := attrs[AttachmentWidth]; v != "" {
			w.sb.WriteString(` width="` + html.EscapeString(v) + `"`)
		}
		if v := attrs[AttachmentHeight]; v != "" {
			w.sb.WriteString(` height="` + html.EscapeString(v) + `"`)
		}
		w.sb.WriteString(">")
	}

	label := caption
	if label == "" {
		label = attrs[AttachmentFilename]
	}
	w.sb.WriteString(`<figcaption class="attachment__caption">` + html.EscapeString(label) + `</figcaption></figure>`)
}

// encodeAttrs renders attrs as a JSON object with sorted keys.
func encodeAttrs(attrs map[string]string) string {
	b, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(b)
}
