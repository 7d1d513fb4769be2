// Package server is the HTTP side of potluck: the attachment upload
// endpoint the editor posts to, blob downloads, and sanitized rendering.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck/render"
	"github.com/iw2rmb/potluck/storage"
	"github.com/iw2rmb/potluck/upload"
)

// BlobPrefix is the route objects are served under. Stores should use it
// as their URL prefix.
const BlobPrefix = "/blobs"

// formOverhead is allowed on top of the file size limit for multipart
// framing and headers.
const formOverhead = 1 << 20

type Server struct {
	store    storage.Store
	policy   upload.Policy
	renderer *render.Renderer
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
	engine   *gin.Engine
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPolicy sets the checks applied to uploads. Types are checked against
// the sniffed content, not the client's claim.
func WithPolicy(p upload.Policy) Option { return func(s *Server) { s.policy = p } }

func WithRenderer(r *render.Renderer) Option { return func(s *Server) { s.renderer = r } }

func WithRegistry(reg *prometheus.Registry) Option { return func(s *Server) { s.registry = reg } }

func New(store storage.Store, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: store is required")
	}
	s := &Server{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.renderer == nil {
		r, err := render.New(render.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.renderer = r
	}
	m, err := newMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.metrics = m
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	e := gin.New()
	e.Use(recovery(s.logger), requestLogger(s.logger))

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	e.GET(BlobPrefix+"/*key", s.handleBlob)

	api := e.Group("/api")
	api.POST("/uploads", s.handleUpload)
	api.POST("/render", s.handleRender)
	api.POST("/preview", s.handlePreview)
	return e
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
