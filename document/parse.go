package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses stored or pasted HTML into a new document.
//
// Markup produced by HTML parses back to an identical serialization. Other
// markup is mapped onto the closest supported formatting; unsupported
// elements contribute only their text.
func ParseHTML(s string, opt Options) (*Document, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &htmlParser{}
	for _, n := range nodes {
		p.walk(n)
	}

	d := New(opt)
	if len(p.blocks) > 0 {
		for i := range p.blocks {
			b := &p.blocks[i]
			if n := len(b.cells); n > 0 && b.cells[n-1].isBreak() {
				b.cells = b.cells[:n-1]
			}
		}
		d.blocks = p.blocks
	}
	d.normalizeLevels()
	return d, nil
}

type blockContext struct {
	attr  string
	level int
}

type htmlParser struct {
	blocks []block
	open   bool

	ctx   []blockContext
	lists []string
	attrs TextAttrs
	pre   int
}

func (p *htmlParser) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data)
		return
	case html.ElementNode:
	default:
		p.children(n)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Template, atom.Title:
		return

	case atom.Br:
		p.ensureBlock()
		p.appendCells(cell{text: softBreak, attrs: p.attrs})

	case atom.Strong, atom.B:
		p.inline(n, func(a TextAttrs) TextAttrs { return a.With(AttrBold, "") })
	case atom.Em, atom.I:
		p.inline(n, func(a TextAttrs) TextAttrs { return a.With(AttrItalic, "") })
	case atom.Del, atom.S, atom.Strike:
		p.inline(n, func(a TextAttrs) TextAttrs { return a.With(AttrStrike, "") })
	case atom.A:
		href := attr(n, "href")
		p.inline(n, func(a TextAttrs) TextAttrs {
			if href == "" {
				return a
			}
			return a.With(AttrHref, href)
		})

	case atom.Figure:
		if att, ok := figureAttachment(n); ok {
			p.ensureBlock()
			p.appendCells(cell{text: objectReplacement, att: att})
			return
		}
		p.children(n)

	case atom.Img:
		if src := attr(n, "src"); src != "" {
			p.ensureBlock()
			p.appendCells(cell{text: objectReplacement, att: imageAttachment(n, src)})
		}

	case atom.Ul, atom.Ol:
		p.lists = append(p.lists, n.Data)
		p.children(n)
		p.lists = p.lists[:len(p.lists)-1]

	case atom.Li:
		bc := blockContext{attr: AttrBullet}
		if k := len(p.lists); k > 0 {
			if p.lists[k-1] == "ol" {
				bc.attr = AttrNumber
			}
			bc.level = k - 1
		}
		p.block(n, bc)
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		p.block(n, blockContext{attr: AttrHeading1})
	case atom.Blockquote:
		p.block(n, blockContext{attr: AttrQuote})
	case atom.Pre:
		p.pre++
		p.block(n, blockContext{attr: AttrCode})
		p.pre--
	case atom.Div, atom.P, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main, atom.Aside:
		p.block(n, p.current())

	default:
		p.children(n)
	}
}

func (p *htmlParser) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *htmlParser) inline(n *html.Node, fn func(TextAttrs) TextAttrs) {
	saved := p.attrs
	if p.pre == 0 {
		p.attrs = fn(p.attrs)
	}
	p.children(n)
	p.attrs = saved
}

// block opens a block for n. An empty enclosing block is replaced, so
// wrappers such as <blockquote><div>..</div></blockquote> yield one block.
func (p *htmlParser) block(n *html.Node, bc blockContext) {
	if p.open && len(p.blocks[len(p.blocks)-1].cells) == 0 {
		p.blocks = p.blocks[:len(p.blocks)-1]
	}
	p.blocks = append(p.blocks, block{attr: bc.attr, level: bc.level})
	p.open = true

	p.ctx = append(p.ctx, bc)
	p.children(n)
	p.ctx = p.ctx[:len(p.ctx)-1]
	p.open = false
}

func (p *htmlParser) current() blockContext {
	if len(p.ctx) == 0 {
		return blockContext{}
	}
	return p.ctx[len(p.ctx)-1]
}

func (p *htmlParser) ensureBlock() {
	if p.open {
		return
	}
	bc := p.current()
	p.blocks = append(p.blocks, block{attr: bc.attr, level: bc.level})
	p.open = true
}

func (p *htmlParser) text(s string) {
	if p.pre == 0 {
		s = strings.ReplaceAll(s, "\r\n", " ")
		s = strings.ReplaceAll(s, "\n", " ")
	}
	if !p.open && strings.TrimSpace(s) == "" {
		return
	}
	p.ensureBlock()
	p.appendCells(textCells(s, p.attrs)...)
}

func (p *htmlParser) appendCells(cells ...cell) {
	b := &p.blocks[len(p.blocks)-1]
	b.cells = append(b.cells, cells...)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// figureAttachment rebuilds an attachment from Trix figure markup.
func figureAttachment(n *html.Node) (*Attachment, bool) {
	sel := goquery.NewDocumentFromNode(n).Selection
	raw, ok := sel.Attr("data-trix-attachment")
	if !ok {
		return nil, false
	}

	attrs := decodeAttrs(raw)
	if extra, ok := sel.Attr("data-trix-attributes"); ok {
		for k, v := range decodeAttrs(extra) {
			attrs[k] = v
		}
	}
	if ct, ok := sel.Attr("data-trix-content-type"); ok && attrs[AttachmentContentType] == "" {
		attrs[AttachmentContentType] = ct
	}
	if attrs[AttachmentURL] == "" {
		if src, ok := sel.Find("img").First().Attr("src"); ok {
			attrs[AttachmentURL] = src
		}
	}
	return NewAttachment(attrs), true
}

func imageAttachment(n *html.Node, src string) *Attachment {
	attrs := map[string]string{
		AttachmentURL:         src,
		AttachmentContentType: "image",
	}
	if ct := mime.TypeByExtension(path.Ext(strings.SplitN(src, "?", 2)[0])); strings.HasPrefix(ct, "image/") {
		attrs[AttachmentContentType] = ct
	}
	if v := attr(n, "width"); v != "" {
		attrs[AttachmentWidth] = v
	}
	if v := attr(n, "height"); v != "" {
		attrs[AttachmentHeight] = v
	}
	if v := attr(n, "alt"); v != "" {
		attrs[AttachmentCaption] = v
	}
	return NewAttachment(attrs)
}

// decodeAttrs reads a JSON object of attachment attributes. Numbers and
// booleans are kept in their JSON spelling.
func decodeAttrs(raw string) map[string]string {
	out := map[string]string{}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return out
	}
	for k, v := range m {
		switch v := v.(type) {
		case string:
			out[k] = v
		case json.Number:
			out[k] = v.String()
		case bool:
			if v {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		}
	}
	return out
}
