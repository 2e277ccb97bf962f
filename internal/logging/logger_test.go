package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bookingd/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	appCfg := config.AppConfig{
		Name:        "test-app",
		Environment: "test",
		Version:     "1.0.0",
	}

	t.Run("DefaultStdout", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{}, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
	})

	t.Run("Stderr", func(t *testing.T) {
		cfg := config.LoggingConfig{Level: "debug", Output: "stderr"}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
	})

	t.Run("File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		cfg := config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		require.NotNil(t, closer)
		require.NoError(t, closer.Close())

		_, err = os.Stat(logPath)
		assert.NoError(t, err)
	})

	t.Run("FileMissingPath", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "file"}, appCfg)
		assert.Error(t, err)
	})

	t.Run("UnknownOutput", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "syslog"}, appCfg)
		assert.Error(t, err)
	})
}

func TestNewWithWriter(t *testing.T) {
	appCfg := config.AppConfig{Name: "bookingd", Environment: "test", Version: "0.1.0"}

	t.Run("JSONFields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LoggingConfig{Level: "info"}, appCfg)
		logger.Info().Str("booking_id", "b-1").Msg("booking created")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "bookingd", entry["app"])
		assert.Equal(t, "test", entry["env"])
		assert.Equal(t, "0.1.0", entry["version"])
		assert.Equal(t, "b-1", entry["booking_id"])
		assert.Equal(t, "booking created", entry["message"])
	})

	t.Run("LevelFilter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LoggingConfig{Level: "warn"}, appCfg)
		logger.Info().Msg("hidden")
		assert.Zero(t, buf.Len())
		logger.Warn().Msg("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("InvalidLevelDefaultsToInfo", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LoggingConfig{Level: "invalid"}, appCfg)
		logger.Debug().Msg("hidden")
		assert.Zero(t, buf.Len())
		logger.Info().Msg("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Console", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LoggingConfig{Format: "console"}, appCfg)
		logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LoggingConfig{}, config.AppConfig{Name: "bookingd"})
	Component(&base, "ledger").Info().Msg("ready")
	assert.Contains(t, buf.String(), `"component":"ledger"`)

	assert.NotPanics(t, func() {
		Component(nil, "nil-base").Info().Msg("dropped")
	})
}
