package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TWITTERAPI_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_SEARCH_API_KEY", "")
	t.Setenv("GOOGLE_CSE_ID", "")

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.twitterapi.io", cfg.Source.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Source.RateLimitCooldown())
	assert.Equal(t, 0, cfg.Source.MaxRateLimitRetries)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 3, cfg.Search.NumResults)
	assert.Equal(t, 120, cfg.Media.MaxVideoDurationSeconds)
	assert.Equal(t, int64(19*1024*1024), cfg.Media.MaxVideoSizeBytes())
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, 7*24*time.Hour, cfg.Storage.TrackerMaxAge())
	assert.Equal(t, 8080, cfg.Monitoring.HealthPort)
	assert.False(t, cfg.Search.SearchEnabled())
}

func TestParseEnvFallbacks(t *testing.T) {
	t.Setenv("TWITTERAPI_KEY", "src-key")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GOOGLE_SEARCH_API_KEY", "search-key")
	t.Setenv("GOOGLE_CSE_ID", "cse")

	cfg, err := Parse([]byte("ai:\n  model: gemini-2.0-flash\n"))
	require.NoError(t, err)

	assert.Equal(t, "src-key", cfg.Source.APIKey)
	assert.Equal(t, "gem-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.True(t, cfg.Search.SearchEnabled())
	assert.NoError(t, cfg.validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{"Valid", Config{Source: SourceConfig{APIKey: "k"}, AI: AIConfig{GeminiAPIKey: "g"}}, false},
		{"Missing source key", Config{AI: AIConfig{GeminiAPIKey: "g"}}, true},
		{"Missing gemini key", Config{Source: SourceConfig{APIKey: "k"}}, true},
		{"Negative retries", Config{Source: SourceConfig{APIKey: "k", MaxRateLimitRetries: -1}, AI: AIConfig{GeminiAPIKey: "g"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `source:
  api_key: file-key
ai:
  gemini_api_key: file-gemini
watch:
  urls:
    - https://x.com/user/status/1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Source.APIKey)
	assert.NoError(t, cfg.ValidateWatch())
	assert.Equal(t, "0 */15 * * * *", cfg.Watch.Schedule)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
