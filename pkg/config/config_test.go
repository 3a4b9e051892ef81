package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, PunctuationToSpace, cfg.Query.Punctuation)
	assert.Equal(t, "daily", cfg.Suggest.RebuildFrequency)
	assert.Equal(t, 1000, cfg.Suggest.MaxTerms)
	assert.Contains(t, cfg.Query.StopWords, "the")
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
query:
  boostWords: [organic]
suggest:
  rebuildFrequency: weekly
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, []string{"organic"}, cfg.Query.BoostWords)
	assert.Equal(t, "weekly", cfg.Suggest.RebuildFrequency)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SITESEARCH_SERVER_PORT", "7070")
	t.Setenv("SITESEARCH_STOP_WORDS", "foo,bar")
	t.Setenv("SITESEARCH_SUGGEST_FREQUENCY", "monthly")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"foo", "bar"}, cfg.Query.StopWords)
	assert.Equal(t, "monthly", cfg.Suggest.RebuildFrequency)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SITESEARCH_SUGGEST_FREQUENCY", "hourly")

	_, err := Load("")

	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")

	assert.Error(t, err)
}
