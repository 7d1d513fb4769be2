package engine

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by commands issued before the engine loaded.
var ErrNotLoaded = errors.New("engine: not loaded")

// Module is a loaded engine: a factory for elements sharing default options.
type Module struct {
	Options []Option
}

// NewElement returns an element configured with the module defaults
// followed by opts.
func (m *Module) NewElement(opts ...Option) *Element {
	all := make([]Option, 0, len(m.Options)+len(opts))
	all = append(all, m.Options...)
	all = append(all, opts...)
	return NewElement(all...)
}

// Loader resolves the engine module. Loading may block and may fail; callers
// stay non-interactive until it succeeds.
type Loader interface {
	Load(ctx context.Context) (*Module, error)
}

type LoaderFunc func(ctx context.Context) (*Module, error)

func (f LoaderFunc) Load(ctx context.Context) (*Module, error) { return f(ctx) }

// DefaultLoader returns the in-process engine.
var DefaultLoader Loader = LoaderFunc(func(ctx context.Context) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Module{}, nil
})
