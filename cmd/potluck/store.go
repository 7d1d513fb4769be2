package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/internal/config"
	"github.com/iw2rmb/potluck/storage"
	"github.com/iw2rmb/potluck/upload"
)

func openStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case "", "fs":
		return storage.NewFilesystemStore(cfg.Dir, cfg.URLPrefix, storage.WithFilesystemLogger(logger))
	case "s3":
		s, err := storage.NewS3Store(&storage.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UseSSL:       cfg.S3.UseSSL,
			UsePathStyle: cfg.S3.UsePathStyle,
			URLPrefix:    cfg.URLPrefix,
		}, storage.WithS3Logger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// storeUploader writes attachments straight to a store, for editing
// without a running server.
func storeUploader(store storage.Store) upload.Func {
	return func(ctx context.Context, f *document.File, cb upload.Callbacks) error {
		if f.Open == nil {
			return fmt.Errorf("upload %s: file has no content", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("upload %s: open: %w", f.Name, err)
		}
		defer rc.Close()

		key := uuid.NewString() + extOf(f)
		if err := store.Put(ctx, key, rc, f.Size, f.Type); err != nil {
			return fmt.Errorf("upload %s: %w", f.Name, err)
		}
		url := store.URL(key)
		if cb.SetProgress != nil {
			cb.SetProgress(100)
		}
		if cb.SetAttributes != nil {
			cb.SetAttributes(map[string]string{
				document.AttachmentURL:  url,
				document.AttachmentHref: url,
			})
		}
		return nil
	}
}

func extOf(f *document.File) string {
	if mt := mimetype.Lookup(f.Type); mt != nil && mt.Extension() != "" {
		return mt.Extension()
	}
	return strings.ToLower(filepath.Ext(f.Name))
}
