package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	// Point the search path at an empty directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30, settings.Radar.Freshness.WindowDays)
	assert.Equal(t, 50, settings.Radar.Freshness.MinConfidence)
	assert.Equal(t, 5, settings.Radar.Scraper.MaxPages)
	assert.Equal(t, 10, settings.Radar.Scraper.DeepMaxPages)
	assert.Equal(t, 8000, settings.Radar.Scraper.CharBudget)
	assert.Equal(t, "OPENAI_API_KEY", settings.Radar.LLM.APIKeyEnv)
	assert.Equal(t, "data/radar.db", settings.Output.SQLite.Path)
	assert.NotEmpty(t, settings.Radar.Keywords)
	assert.NotEmpty(t, settings.Radar.Scoring.AdvancedKeywords)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
radar:
  topic: Robotics
  freshness:
    window_days: 7
  scraper:
    max_pages_per_site: 2
output:
  sqlite:
    path: /tmp/test-radar.db
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Robotics", settings.Radar.Topic)
	assert.Equal(t, 7, settings.Radar.Freshness.WindowDays)
	assert.Equal(t, 2, settings.Radar.Scraper.MaxPages)
	assert.Equal(t, "/tmp/test-radar.db", settings.Output.SQLite.Path)
	// Untouched keys keep defaults.
	assert.Equal(t, 50, settings.Radar.Freshness.MinConfidence)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("radar:\n  freshness:\n    window_days: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_days")
}

func TestWriteDefaultConfigRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, WriteDefaultConfig(path))
}
