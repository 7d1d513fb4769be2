package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck"
	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/storage"
	"github.com/iw2rmb/potluck/upload"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": potluck.Version()})
}

// handleUpload stores a multipart "file" and answers with its location in
// the shape upload.HTTPUploader expects.
func (s *Server) handleUpload(c *gin.Context) {
	if limit := s.policy.MaxFileSize; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+formOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.reject(c, http.StatusRequestEntityTooLarge, "", upload.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, "open upload", err)
		return
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		s.fail(c, "sniff upload", err)
		return
	}

	file := &document.File{Name: fh.Filename, Type: mt.String(), Size: fh.Size}
	if err := s.policy.Check(file); err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, upload.ErrFileTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, upload.ErrTypeNotAllowed):
			status = http.StatusUnsupportedMediaType
		}
		s.reject(c, status, fh.Filename, err)
		return
	}

	key := uuid.NewString() + extension(mt, fh.Filename)
	if err := s.store.Put(c.Request.Context(), key, f, fh.Size, mt.String()); err != nil {
		s.fail(c, "store upload", err)
		return
	}

	s.metrics.uploads.WithLabelValues("stored").Inc()
	s.metrics.uploadBytes.Add(float64(fh.Size))
	s.logger.Info("attachment stored",
		zap.String("file", fh.Filename),
		zap.String("key", key),
		zap.String("type", mt.String()),
		zap.Int64("size", fh.Size),
	)

	url := s.store.URL(key)
	c.JSON(http.StatusCreated, upload.Result{URL: url, Href: url})
}

// extension prefers the sniffed type's extension over the client's name.
func extension(mt *mimetype.MIME, name string) string {
	if ext := mt.Extension(); ext != "" {
		return ext
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func (s *Server) reject(c *gin.Context, status int, name string, err error) {
	s.metrics.uploads.WithLabelValues("rejected").Inc()
	s.logger.Warn("attachment rejected", zap.String("file", name), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	s.metrics.uploads.WithLabelValues("failed").Inc()
	_ = c.Error(err)
	s.logger.Error("upload failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}

func (s *Server) handleBlob(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, obj, err := s.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	defer rc.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	size := obj.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, ct, rc, map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "public, max-age=31536000, immutable",
	})
}

// renderBodyLimit caps JSON bodies posted to the render endpoints.
const renderBodyLimit = 512 << 10

type renderRequest struct {
	HTML  string `json:"html"`
	Title string `json:"title"`
	// Format is "html" (default) or "text".
	Format string `json:"format"`
	// Width wraps text output; render.MaxWidth bounds it.
	Width int `json:"width"`
}

// handleRender returns posted editor HTML sanitized for display, or as
// plain terminal text.
func (s *Server) handleRender(c *gin.Context) {
	req, ok := bindRender(c)
	if !ok {
		return
	}

	switch req.Format {
	case "", "html":
		s.metrics.renders.WithLabelValues("html").Inc()
		c.JSON(http.StatusOK, gin.H{"html": string(s.renderer.Mount(req.HTML))})
	case "text":
		out, err := s.renderer.Terminal(req.HTML, req.Width)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.metrics.renders.WithLabelValues("text").Inc()
		c.JSON(http.StatusOK, gin.H{"text": out})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be html or text, got " + strconv.Quote(req.Format)})
	}
}

// handlePreview wraps sanitized HTML in a standalone page.
func (s *Server) handlePreview(c *gin.Context) {
	req, ok := bindRender(c)
	if !ok {
		return
	}
	s.metrics.renders.WithLabelValues("page").Inc()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.renderer.Page(c.Writer, req.Title, req.HTML); err != nil {
		_ = c.Error(err)
	}
}

func bindRender(c *gin.Context) (renderRequest, bool) {
	var req renderRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, renderBodyLimit)
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return req, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return req, false
	}
	return req, true
}
