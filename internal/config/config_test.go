package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default configuration", func(t *testing.T) {
		cfg, err := Load("")

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "release", cfg.Server.Mode)

		assert.Equal(t, "bvanaken/clinical-assertion-negation-bert", cfg.Model.ID)
		assert.Equal(t, 512, cfg.Model.MaxSeqLen)
		assert.False(t, cfg.Model.ForceCPU)

		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("reads from environment variables", func(t *testing.T) {
		os.Setenv("ASSERTD_SERVER_PORT", "9090")
		os.Setenv("ASSERTD_MODEL_FORCE_CPU", "true")
		os.Setenv("ASSERTD_LOG_LEVEL", "debug")
		defer func() {
			os.Unsetenv("ASSERTD_SERVER_PORT")
			os.Unsetenv("ASSERTD_MODEL_FORCE_CPU")
			os.Unsetenv("ASSERTD_LOG_LEVEL")
		}()

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.True(t, cfg.Model.ForceCPU)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("reads from config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\nmodel:\n  max_seq_len: 128\n"), 0o644))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, 128, cfg.Model.MaxSeqLen)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
