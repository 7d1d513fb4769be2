// Package sanitize strips unsafe markup from editor HTML before it is
// displayed outside the editor.
package sanitize

import (
	"encoding/json"
	"html/template"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	shared     *bluemonday.Policy
	policyOnce sync.Once
)

// policy is the bluemonday UGC profile plus the figure markup and markers
// the editor writes around attachments. It is never handed out.
func policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		shared = bluemonday.UGCPolicy()
		shared.AllowElements("figure", "figcaption")
		shared.AllowAttrs("contenteditable", "data-trix-attachment", "data-trix-content-type").Globally()
	})
	return shared
}

// Sanitize returns a safe rendition of raw. It never fails; malformed input
// yields whatever safe markup survives, possibly "".
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return policy().Sanitize(dropUnsafeAttachments(raw))
}

// HTML sanitizes raw for direct use in html/template.
func HTML(raw string) template.HTML {
	return template.HTML(Sanitize(raw))
}

// attachmentAttrs carry JSON that the document parser turns back into
// attachment locations.
var attachmentAttrs = map[string]bool{
	"data-trix-attachment": true,
	"data-trix-attributes": true,
}

// dropUnsafeAttachments removes attachment JSON whose url or href is not a
// safe link. Everything else passes through byte for byte.
func dropUnsafeAttachments(raw string) string {
	if !strings.Contains(raw, "data-trix-") {
		return raw
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a tokenizer error; nothing further is emitted.
			return sb.String()
		}
		chunk := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			sb.WriteString(chunk)
			continue
		}
		tok := z.Token()
		kept := tok.Attr[:0]
		for _, a := range tok.Attr {
			if attachmentAttrs[a.Key] && !safeAttachmentJSON(a.Val) {
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == len(tok.Attr) {
			sb.WriteString(chunk)
			continue
		}
		tok.Attr = kept
		sb.WriteString(tok.String())
	}
}

func safeAttachmentJSON(v string) bool {
	var fields map[string]any
	if err := json.Unmarshal([]byte(v), &fields); err != nil {
		return false
	}
	for k, val := range fields {
		switch strings.ToLower(k) {
		case "url", "href", "previewurl":
			s, ok := val.(string)
			if !ok || !SafeURL(s) {
				return false
			}
		}
	}
	return true
}

var safeSchemes = map[string]bool{"http": true, "https": true, "mailto": true}

// SafeURL reports whether u is relative or uses http, https or mailto.
// Control characters and spaces are ignored the way browsers ignore them
// when reading a scheme.
func SafeURL(u string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, u)
	p, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	return p.Scheme == "" || safeSchemes[strings.ToLower(p.Scheme)]
}
