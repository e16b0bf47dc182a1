package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://hacker-news.firebaseio.com/v0", cfg.HNAPIURL)
	assert.Equal(t, "https://hn.algolia.com/api/v1", cfg.HNSearchURL)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 300*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 50, cfg.UserHitsPerPage)
	assert.Equal(t, 20, cfg.JobHitsPerPage)
	assert.Equal(t, "gemini-3-flash-preview", cfg.GeminiModel)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.Equal(t, "expanded", cfg.Layout)
	assert.Equal(t, "Chinese", cfg.DefaultLanguage)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("HN_API_URL", "http://localhost:9000/v0/")
	t.Setenv("LAYOUT", "compact")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, "http://localhost:9000/v0", cfg.HNAPIURL)
	assert.Equal(t, "compact", cfg.Layout)
	assert.True(t, cfg.Debug)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "Zero page size", key: "PAGE_SIZE", value: "0"},
		{name: "Zero attempts", key: "RETRY_ATTEMPTS", value: "0"},
		{name: "Unknown backend", key: "STORAGE_BACKEND", value: "s3"},
		{name: "Azure without account", key: "STORAGE_BACKEND", value: "azure"},
		{name: "Unknown layout", key: "LAYOUT", value: "tablet"},
		{name: "Unknown provider", key: "GENAI_PROVIDER", value: "grok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			t.Setenv("AZURE_STORAGE_ACCOUNT", "")

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
