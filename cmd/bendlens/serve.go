package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/bendlens"
	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/lsp"
	"github.com/jward/bendlens/internal/metrics"
)

var flagDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdio",
	Long:  "Serves completion, semantic tokens and workspace symbols over the Language Server Protocol on stdin and stdout. Logs go to stderr.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "trace protocol messages")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	m := metrics.New()

	ws, closeStore, err := bendlens.NewFromConfig(cfg, logger, m)
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", logging.FieldAddr, cfg.MetricsAddr, logging.FieldError, err)
			}
		}()
		logger.Info("serving metrics", logging.FieldAddr, cfg.MetricsAddr)
	}

	logger.Info("starting language server", logging.FieldGrammar, cfg.Grammar, logging.FieldVersion, version)
	return lsp.New(ws, lsp.WithVersion(version), lsp.WithDebug(flagDebug)).RunStdio()
}
