package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/clinassert/assertd/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("json logger", func(t *testing.T) {
		log, err := New(&config.LogConfig{Level: "info", Format: "json"})
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("console logger", func(t *testing.T) {
		log, err := New(&config.LogConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		log, err := New(&config.LogConfig{Level: "shouting", Format: "json"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})
}
