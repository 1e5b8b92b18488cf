// Package config loads the server configuration from a YAML file, with
// defaults for every field and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/bendlens/internal/grammar"
	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/store"
	"github.com/jward/bendlens/queries"
)

// Config holds every startup setting. Empty paths select the embedded
// resources.
type Config struct {
	LogLevel        string `yaml:"log_level"`
	Grammar         string `yaml:"grammar"`
	Workers         int    `yaml:"workers"`
	HighlightsQuery string `yaml:"highlights_query"`
	LocalsQuery     string `yaml:"locals_query"`
	BookScript      string `yaml:"book_script"`
	Book            string `yaml:"book"`
	SymbolStore     string `yaml:"symbol_store"`
	MetricsAddr     string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Grammar:     grammar.Default,
		Workers:     4,
		SymbolStore: store.MemoryDSN,
	}
}

// Load reads path over the defaults. Fields absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Validate checks the configuration and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := grammar.Lookup(c.Grammar); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "grammar",
			Value:   c.Grammar,
			Message: "unknown grammar, expected one of " + strings.Join(grammar.Names(), ", "),
		})
	}
	if c.Workers <= 0 {
		errs = append(errs, &ValidationError{Field: "workers", Value: c.Workers, Message: "must be positive"})
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, &ValidationError{Field: "log_level", Value: c.LogLevel, Message: "expected debug, info, warn or error"})
	}
	return errors.Join(errs...)
}

// Queries returns the highlight and locals query sources, reading the
// configured override files or falling back to the embedded ones.
func (c *Config) Queries() (highlights, locals string, err error) {
	highlights, err = readOr(c.HighlightsQuery, queries.Highlights)
	if err != nil {
		return "", "", err
	}
	locals, err = readOr(c.LocalsQuery, queries.Locals)
	if err != nil {
		return "", "", err
	}
	return highlights, locals, nil
}

func readOr(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read query %s: %w", path, err)
	}
	return string(data), nil
}
