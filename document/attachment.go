package document

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Attachment attribute keys.
const (
	AttachmentCaption     = "caption"
	AttachmentContentType = "contentType"
	AttachmentFilename    = "filename"
	AttachmentFilesize    = "filesize"
	AttachmentWidth       = "width"
	AttachmentHeight      = "height"
	AttachmentURL         = "url"
	AttachmentHref        = "href"
)

// File is a raw binary handle for a newly added local attachment.
type File struct {
	Name string
	Type string
	Size int64

	// Open returns a fresh reader over the file content.
	Open func() (io.ReadCloser, error)
}

// AttachmentChange identifies what changed on an attachment.
type AttachmentChange uint8

const (
	AttachmentAttributesChanged AttachmentChange = iota
	AttachmentProgressChanged
)

var attachmentIDs atomic.Uint64

// Attachment is a file or embedded object within a document.
//
// Attachments are shared between a document and its undo history, and they
// are mutated by uploads running on other goroutines, so all state is guarded
// by an internal lock.
type Attachment struct {
	id   uint64
	file *File

	mu       sync.RWMutex
	attrs    map[string]string
	progress int
	observer func(*Attachment, AttachmentChange)
}

// NewAttachment returns an attachment with the given attributes and no file.
// Attachments reconstructed from stored HTML are created this way.
func NewAttachment(attrs map[string]string) *Attachment {
	a := &Attachment{
		id:    attachmentIDs.Add(1),
		attrs: make(map[string]string, len(attrs)),
	}
	for k, v := range attrs {
		a.attrs[k] = v
	}
	return a
}

// NewFileAttachment returns a pending attachment for a local file.
func NewFileAttachment(f *File) *Attachment {
	attrs := map[string]string{}
	if f != nil {
		attrs[AttachmentFilename] = f.Name
		attrs[AttachmentFilesize] = strconv.FormatInt(f.Size, 10)
		if f.Type != "" {
			attrs[AttachmentContentType] = f.Type
		}
	}
	a := NewAttachment(attrs)
	a.file = f
	return a
}

func (a *Attachment) ID() uint64 { return a.id }

// File returns the raw file, or nil for attachments loaded from stored HTML.
func (a *Attachment) File() *File { return a.file }

// Attributes returns a copy of the attachment attributes.
func (a *Attachment) Attributes() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]string, len(a.attrs))
	for k, v := range a.attrs {
		out[k] = v
	}
	return out
}

func (a *Attachment) Attribute(key string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.attrs[key]
}

func (a *Attachment) ContentType() string { return a.Attribute(AttachmentContentType) }

func (a *Attachment) URL() string { return a.Attribute(AttachmentURL) }

// IsPreviewable reports whether the attachment renders as an inline image:
// a bare "image" type or one of the raster formats browsers preview.
func (a *Attachment) IsPreviewable() bool {
	return IsPreviewableType(a.ContentType())
}

func IsPreviewableType(contentType string) bool {
	ct := strings.ToLower(contentType)
	if ct == "image" {
		return true
	}
	switch strings.TrimPrefix(ct, "image/") {
	case ct:
		return false
	case "gif", "png", "webp", "jpg", "jpeg":
		return true
	default:
		return false
	}
}

// IsResolved reports whether the attachment has a durable storage location.
func (a *Attachment) IsResolved() bool {
	return a.URL() != ""
}

// SetAttributes merges attrs into the attachment and notifies the owning
// engine, which re-serializes the document.
func (a *Attachment) SetAttributes(attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	a.mu.Lock()
	changed := false
	for k, v := range attrs {
		if cur, ok := a.attrs[k]; ok && cur == v {
			continue
		}
		a.attrs[k] = v
		changed = true
	}
	obs := a.observer
	a.mu.Unlock()

	if changed && obs != nil {
		obs(a, AttachmentAttributesChanged)
	}
}

// SetUploadProgress records upload progress, clamped to 0..100.
func (a *Attachment) SetUploadProgress(n int) {
	n = clampInt(n, 0, 100)
	a.mu.Lock()
	if a.progress == n {
		a.mu.Unlock()
		return
	}
	a.progress = n
	obs := a.observer
	a.mu.Unlock()

	if obs != nil {
		obs(a, AttachmentProgressChanged)
	}
}

func (a *Attachment) UploadProgress() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.progress
}

// SetObserver installs fn as the change observer. Passing nil detaches.
func (a *Attachment) SetObserver(fn func(*Attachment, AttachmentChange)) {
	a.mu.Lock()
	a.observer = fn
	a.mu.Unlock()
}
