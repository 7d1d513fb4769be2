package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// FilesystemStore keeps objects as files under a base directory.
type FilesystemStore struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

type FilesystemOption func(*FilesystemStore)

func WithFilesystemLogger(l *zap.Logger) FilesystemOption {
	return func(s *FilesystemStore) { s.logger = l }
}

// NewFilesystemStore creates dir if needed. Objects are served under
// urlPrefix, for example "/blobs".
func NewFilesystemStore(dir, urlPrefix string, opts ...FilesystemOption) (*FilesystemStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	s := &FilesystemStore{dir: dir, urlPrefix: urlPrefix, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *FilesystemStore) path(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

// Put writes through a temporary file so readers never see partial content.
// The content type is not persisted; Open sniffs it.
func (s *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Debug("object stored", zap.String("key", key), zap.Int64("size", n))
	return nil
}

func (s *FilesystemStore) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Object{}, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("open %s: %w", key, err)
	}
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		f.Close()
		return nil, Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("open %s: detect type: %w", key, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("open %s: %w", key, err)
	}
	return f, Object{Key: key, ContentType: mt.String(), Size: fi.Size()}, nil
}

func (s *FilesystemStore) URL(key string) string { return joinURL(s.urlPrefix, key) }

var _ Store = (*FilesystemStore)(nil)
