package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/iw2rmb/potluck/document"
)

// OpenFile describes the file at path for insertion into an editor. The
// content type is sniffed from the first bytes; content is read lazily.
func OpenFile(path string) (*document.File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("open file %s: is a directory", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: detect type: %w", path, err)
	}
	return &document.File{
		Name: filepath.Base(path),
		Type: mt.String(),
		Size: fi.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}
