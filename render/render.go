// Package render turns stored editor HTML into read-only output: HTML for
// pages and styled text for terminals.
package render

import (
	"fmt"
	"html/template"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/iw2rmb/potluck/sanitize"
	"go.uber.org/zap"
)

type Option func(*Renderer)

// WithCacheSize memoizes up to n sanitized results. n <= 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(r *Renderer) { r.cacheSize = n }
}

// WithTermStyle sets the styles used by Terminal.
func WithTermStyle(s TermStyle) Option {
	return func(r *Renderer) { r.style, r.styleSet = s, true }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// Renderer displays stored HTML in two phases. Server returns the content
// as stored, for output produced before any interactive client exists, and
// Mount returns the sanitized form that may be injected into a live page.
type Renderer struct {
	cacheSize int
	cache     *lru.Cache[string, template.HTML]
	style     TermStyle
	styleSet  bool
	logger    *zap.Logger
}

func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.cacheSize > 0 {
		c, err := lru.New[string, template.HTML](r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create render cache: %w", err)
		}
		r.cache = c
	}
	if !r.styleSet {
		r.style = DefaultTermStyle()
	}
	return r, nil
}

// Server returns raw unchanged. Callers must let html/template escape it or
// pass it through Mount before treating it as markup.
func (r *Renderer) Server(raw string) string { return raw }

// Mount returns raw sanitized and ready for html/template.
func (r *Renderer) Mount(raw string) template.HTML {
	if r.cache == nil {
		return sanitize.HTML(raw)
	}
	if out, ok := r.cache.Get(raw); ok {
		return out
	}
	out := sanitize.HTML(raw)
	r.cache.Add(raw, out)
	return out
}

// CacheLen reports how many sanitized results are memoized.
func (r *Renderer) CacheLen() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article class="trix-content">{{.Body}}</article>
</body>
</html>
`))

// Page writes a standalone HTML page showing raw in its sanitized form.
func (r *Renderer) Page(w io.Writer, title, raw string) error {
	err := pageTemplate.Execute(w, struct {
		Title string
		Body  template.HTML
	}{title, r.Mount(raw)})
	if err != nil {
		r.logger.Error("render page failed", zap.String("title", title), zap.Error(err))
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
