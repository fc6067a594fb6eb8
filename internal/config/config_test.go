package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "esgintel.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentDocuments)
	assert.Equal(t, 50, cfg.Extract.MinWordsPerPage)
	assert.Equal(t, 3, cfg.Extract.MinPagesForOCR)
	assert.Equal(t, "none", cfg.OCR.Provider)
	assert.Equal(t, 1024, cfg.Jina.Dimension)
	assert.Equal(t, "none", cfg.Vector.Driver)
	assert.Equal(t, 1200, cfg.Chunk.Size)
	assert.Equal(t, 150, cfg.Chunk.Overlap)
	assert.Equal(t, 0.3, cfg.Pipeline.MappingConfidenceThreshold)
	assert.False(t, cfg.Pipeline.EmbedChunks)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.InitialBackoffMS)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30, cfg.Breaker.ResetTimeoutSecs)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/esgintel
pipeline:
  mapping_confidence_threshold: 0.5
  embed_chunks: true
chunk:
  size: 800
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/esgintel", cfg.Store.DatabaseURL)
	assert.Equal(t, 0.5, cfg.Pipeline.MappingConfidenceThreshold)
	assert.True(t, cfg.Pipeline.EmbedChunks)
	assert.Equal(t, 800, cfg.Chunk.Size)
	// Untouched keys keep their defaults.
	assert.Equal(t, 150, cfg.Chunk.Overlap)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [not a map"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
