package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jward/bendlens/internal/config"
	"github.com/jward/bendlens/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	flagConfig   string
	flagFormat   string
	flagLogLevel string
	flagBook     string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "bendlens",
	Short:         "Document analysis and language server for Bend",
	Long:          "bendlens parses Bend programs, highlights them with semantic tokens, lists the definitions visible at a cursor and serves all of it over the Language Server Protocol.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagBook, "book", "", "book snapshot (YAML or JSON) to use instead of the book script")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(definitionsCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(legendCmd)
}

// loadConfig layers the config file, the environment and the flags, in
// that order, over the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return nil, err
		}
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagBook != "" {
		cfg.Book = flagBook
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns the stderr logger for cfg and installs it as the
// default.
func newLogger(cfg *config.Config) *log.Logger {
	l := logging.New(cfg.LogLevel)
	logging.SetDefault(l)
	return l
}
