package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck/internal/server"
	"github.com/iw2rmb/potluck/render"
	"github.com/iw2rmb/potluck/upload"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload, blob and render endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(""); err != nil {
				return err
			}
			defer a.close()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServer(ctx context.Context, a *app) error {
	store, err := openStore(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	renderer, err := render.New(render.WithCacheSize(a.cfg.Render.CacheSize), render.WithLogger(a.logger))
	if err != nil {
		return err
	}
	srv, err := server.New(store,
		server.WithLogger(a.logger),
		server.WithRenderer(renderer),
		server.WithPolicy(upload.Policy{
			MaxFileSize:  a.cfg.Upload.MaxFileSize,
			AllowedTypes: a.cfg.Upload.AllowedTypes,
		}),
	)
	if err != nil {
		return err
	}
	a.logger.Info("starting server",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
	)
	return srv.Run(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
}
