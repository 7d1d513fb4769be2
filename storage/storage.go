// Package storage keeps uploaded attachment content and names the public
// URL each object is served under.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Object describes stored content.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Store is an object store for attachment content.
type Store interface {
	// Put stores size bytes from r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open returns the content stored under key, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// URL is the public location of key, as written into attachment markup.
	URL(key string) string
}

// CleanKey validates a slash-separated object key. Keys may not be empty,
// absolute or escape their root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || clean != key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}

func joinURL(prefix, key string) string {
	if prefix == "" {
		return "/" + key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}
