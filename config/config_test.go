package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE), []byte(body), 0o644))
	return dir
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB_NAME", "")
	dir := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "contentpipeline", cfg.Mongo.Database)
	assert.Equal(t, 15*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 200, cfg.Fetcher.MinContentLength)
	assert.Equal(t, 5, cfg.ThemeDefaults.MinSourceScore)
	assert.Equal(t, 7, cfg.ThemeDefaults.MinGeneratorScore)
	assert.Equal(t, 3, cfg.ThemeDefaults.NumGeneratorSources)
	assert.Equal(t, "medium", cfg.ThemeDefaults.TextLength)
	assert.Equal(t, []string{"duckduckgo"}, cfg.Search.Providers)
}

func TestLoadReadsDurationsAndEnvOverrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://example:27017")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("UNSPLASH_ACCESS_KEY", "unsplash-key")
	dir := writeConfig(t, `
mongo:
  uri: mongodb://from-file:27017
search:
  timeout: 3s
  providers: [google_news]
theme_defaults:
  num_images: 4
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://example:27017", cfg.Mongo.URI)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	assert.Equal(t, "unsplash-key", cfg.Images.AccessKey)
	assert.Equal(t, 3*time.Second, cfg.Search.Timeout)
	assert.Equal(t, []string{"google_news"}, cfg.Search.Providers)
	assert.Equal(t, 4, cfg.ThemeDefaults.NumImages)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := writeConfig(t, "logging: [unterminated")
	_, err := Load(dir)
	assert.Error(t, err)
}
