package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Upstream APIs
	HNAPIURL        string
	HNSearchURL     string
	HTTPTimeout     time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	UserHitsPerPage int
	JobHitsPerPage  int

	// Feed paging
	PageSize int

	// Text generation
	GenAIProvider     string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	GenAIRequestsPerS float64

	// Local persisted state
	StorageBackend   string // "file", "sqlite" or "azure"
	StorageDir       string
	SQLitePath       string
	StorageAccount   string
	StorageContainer string

	// Presentation defaults
	Layout          string // "expanded" or "compact"
	DefaultLanguage string

	// Schedule for the stats heartbeat (cron spec with seconds)
	StatsSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		HNAPIURL:        strings.TrimRight(getEnv("HN_API_URL", "https://hacker-news.firebaseio.com/v0"), "/"),
		HNSearchURL:     strings.TrimRight(getEnv("HN_SEARCH_URL", "https://hn.algolia.com/api/v1"), "/"),
		HTTPTimeout:     time.Duration(getIntEnv("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		RetryAttempts:   getIntEnv("RETRY_ATTEMPTS", 3),
		RetryDelay:      time.Duration(getIntEnv("RETRY_DELAY_MS", 300)) * time.Millisecond,
		UserHitsPerPage: getIntEnv("USER_HITS_PER_PAGE", 50),
		JobHitsPerPage:  getIntEnv("JOB_HITS_PER_PAGE", 20),

		PageSize: getIntEnv("PAGE_SIZE", 20),

		GenAIProvider:     getEnv("GENAI_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", ""),
		GenAIRequestsPerS: getFloatEnv("GENAI_REQUESTS_PER_SECOND", 0),

		StorageBackend:   getEnv("STORAGE_BACKEND", "file"),
		StorageDir:       getEnv("STORAGE_DIR", ".hn-reader"),
		SQLitePath:       getEnv("SQLITE_PATH", "hn-reader.db"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "hn-reader"),

		Layout:          getEnv("LAYOUT", "expanded"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "Chinese"),

		StatsSchedule: getEnv("STATS_SCHEDULE", "0 */15 * * * *"),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}

	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}

	if c.UserHitsPerPage <= 0 || c.JobHitsPerPage <= 0 {
		return fmt.Errorf("USER_HITS_PER_PAGE and JOB_HITS_PER_PAGE must be positive")
	}

	switch c.StorageBackend {
	case "file", "sqlite":
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'file', 'sqlite' or 'azure'")
	}

	if c.Layout != "expanded" && c.Layout != "compact" {
		return fmt.Errorf("LAYOUT must be 'expanded' or 'compact'")
	}

	if c.GenAIProvider != "gemini" && c.GenAIProvider != "openai" {
		return fmt.Errorf("GENAI_PROVIDER must be 'gemini' or 'openai'")
	}

	if c.DefaultLanguage == "" {
		return fmt.Errorf("DEFAULT_LANGUAGE must not be empty")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
