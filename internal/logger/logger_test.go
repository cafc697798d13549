package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eukexpress-backend/internal/config"
)

func TestNewWritesRotatingFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Directory = t.TempDir()
	cfg.Log.Level = "debug"

	log, err := New(cfg)
	require.NoError(t, err)
	log.Named("test").Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(cfg.Log.Directory, "eukexpress-backend.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"logger":"test"`)
}

func TestNewFallsBackToConsole(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "not-a-level"

	log, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, log)
}
