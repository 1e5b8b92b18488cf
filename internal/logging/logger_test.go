package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bendlens/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    string
		expected log.Level
	}{
		{"debug level", "debug", log.DebugLevel},
		{"info level", "info", log.InfoLevel},
		{"warn level", "warn", log.WarnLevel},
		{"warning level", "warning", log.WarnLevel},
		{"error level", "error", log.ErrorLevel},
		{"invalid defaults to info", "invalid", log.InfoLevel},
		{"empty defaults to info", "", log.InfoLevel},
		{"case insensitive DEBUG", "DEBUG", log.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger := logging.New(tt.level)
			require.NotNil(t, logger)
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	lvl, ok := logging.ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, log.WarnLevel, lvl)

	_, ok = logging.ParseLevel("loud")
	assert.False(t, ok)
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")
	logger.Debug("hidden")
	logger.Info("opened", logging.FieldURI, "file:///a.bend")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "opened")
	assert.Contains(t, out, "uri=file:///a.bend")
}

func TestContext(t *testing.T) {
	t.Parallel()
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))

	logger := logging.Discard()
	ctx := logging.WithLogger(context.Background(), logger)
	assert.Same(t, logger, logging.FromContext(ctx))
}

func TestSetDefault(t *testing.T) {
	// Not parallel because it modifies global state.
	original := logging.Default()
	defer logging.SetDefault(original)

	logger := logging.New("debug")
	logging.SetDefault(logger)
	assert.Same(t, logger, logging.Default())
}
