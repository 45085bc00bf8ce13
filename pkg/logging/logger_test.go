// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("with config", func(t *testing.T) {
		config := &Config{
			Level:  slog.LevelDebug,
			Format: FormatJSON,
			Output: os.Stdout,
		}

		logger := NewLogger(config)
		require.NotNil(t, logger)

		slogLogger, ok := logger.(*slogLogger)
		assert.True(t, ok)
		assert.NotNil(t, slogLogger.logger)
	})

	t.Run("with nil config", func(t *testing.T) {
		logger := NewLogger(nil)
		require.NotNil(t, logger)
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	require.NotNil(t, config)
	assert.Equal(t, slog.LevelInfo, config.Level)
	assert.Equal(t, FormatText, config.Format)
	assert.Equal(t, os.Stdout, config.Output)
}

func TestSlogLogger_With(t *testing.T) {
	logger := NewLogger(nil)

	newLogger := logger.With("task", 3)

	assert.NotEqual(t, logger, newLogger)
	assert.IsType(t, &slogLogger{}, newLogger)
}

func TestSlogLogger_WithContext(t *testing.T) {
	logger := NewLogger(nil)

	t.Run("context with values", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), "request_id", "req-456")

		contextLogger := logger.WithContext(ctx)
		assert.NotEqual(t, logger, contextLogger)
	})

	t.Run("context without values", func(t *testing.T) {
		contextLogger := logger.WithContext(context.Background())
		assert.Equal(t, logger, contextLogger)
	})
}

func TestWithTask_SanitizesName(t *testing.T) {
	logger := WithTask(NewLogger(nil), 1, "bad\nname")
	assert.IsType(t, &slogLogger{}, logger)
}

func TestSanitizeLogValue(t *testing.T) {
	assert.Equal(t, "a b c", sanitizeLogValue("a\nb\tc"))
	assert.Equal(t, "plain", sanitizeLogValue("plain"))
	assert.Equal(t, 42, sanitizeLogValue(42))
}

func TestNoOpLogger_DoesNothing(t *testing.T) {
	var logger Logger = NoOpLogger{}

	assert.NotPanics(t, func() {
		logger.Debug("d")
		logger.Info("i")
		logger.Warn("w")
		logger.Error("e")
	})
	assert.Equal(t, NoOpLogger{}, logger.With("k", "v"))
	assert.Equal(t, NoOpLogger{}, logger.WithContext(context.Background()))
}
