package upload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iw2rmb/potluck/document"
)

var (
	ErrFileTooLarge   = errors.New("file too large")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrFileRejected   = errors.New("file rejected")
)

// RejectError reports why a file was refused before it was embedded.
type RejectError struct {
	File string
	Err  error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("upload: %s: %v", e.File, e.Err)
}

func (e *RejectError) Unwrap() error { return e.Err }

// Policy decides which files may be embedded. Zero fields impose no limit.
type Policy struct {
	// MaxFileSize is the largest accepted size in bytes.
	MaxFileSize int64

	// AllowedTypes holds MIME patterns: exact types or "prefix/*".
	AllowedTypes []string

	// AcceptFile is consulted last; returning false rejects the file.
	AcceptFile func(*document.File) bool
}

// Check evaluates the policy in order (size, type, predicate) and returns a
// *RejectError for the first failure.
func (p Policy) Check(f *document.File) error {
	if f == nil {
		return &RejectError{Err: ErrFileRejected}
	}
	if p.MaxFileSize > 0 && f.Size > p.MaxFileSize {
		return &RejectError{File: f.Name, Err: fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, f.Size, p.MaxFileSize)}
	}
	if len(p.AllowedTypes) > 0 && !matchAny(p.AllowedTypes, f.Type) {
		return &RejectError{File: f.Name, Err: fmt.Errorf("%w: %q", ErrTypeNotAllowed, f.Type)}
	}
	if p.AcceptFile != nil && !p.AcceptFile(f) {
		return &RejectError{File: f.Name, Err: ErrFileRejected}
	}
	return nil
}

func matchAny(patterns []string, mime string) bool {
	for _, p := range patterns {
		if MatchType(p, mime) {
			return true
		}
	}
	return false
}

// MatchType reports whether mime matches pattern. A pattern is an exact type
// or "prefix/*". Parameters such as "; charset=utf-8" are ignored and the
// comparison is case-insensitive.
func MatchType(pattern, mime string) bool {
	pattern = normalizeType(pattern)
	mime = normalizeType(mime)
	if pattern == "" || mime == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mime, prefix+"/")
	}
	return pattern == mime
}

func normalizeType(s string) string {
	s, _, _ = strings.Cut(s, ";")
	return strings.ToLower(strings.TrimSpace(s))
}
