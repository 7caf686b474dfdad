package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("stdout json", func(t *testing.T) {
		l, err := New(&Config{Level: "debug", Format: "json", Output: "stdout"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		l, err := New(&Config{Level: "warn", Format: "console", Output: "stderr"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.log")
		l, err := New(&Config{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("Invoice paid")
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"Invoice paid"`)
		assert.Contains(t, string(data), `"level":"info"`)
	})

	t.Run("stamps service and env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.log")
		l, err := New(&Config{Level: "info", Format: "json", Output: path, Service: "ledger-engine", Env: "test"})
		require.NoError(t, err)

		l.Warn("Stock below threshold")
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"service":"ledger-engine"`)
		assert.Contains(t, string(data), `"env":"test"`)
	})

	t.Run("fails when the file cannot be opened", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "engine.log")
		_, err := New(&Config{Level: "info", Format: "json", Output: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open log file")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}
