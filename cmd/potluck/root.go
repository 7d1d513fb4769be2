package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck"
	"github.com/iw2rmb/potluck/internal/config"
	"github.com/iw2rmb/potluck/internal/logging"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	closeLog   io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "potluck",
		Short:         "Rich text editing, sanitized rendering and attachment storage",
		Version:       potluck.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./potluck.toml)")

	root.AddCommand(newEditCmd(a), newServeCmd(a), newRenderCmd(a))
	return root
}

// setup loads configuration and builds the logger. logOutput overrides the
// configured destination when non-empty.
func (a *app) setup(logOutput string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	lc := cfg.Log
	if logOutput != "" {
		lc.Output = logOutput
	}
	logger, closer, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	a.cfg, a.logger, a.closeLog = cfg, logger, closer
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.closeLog != nil {
		_ = a.closeLog.Close()
	}
}
