package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source     SourceConfig     `yaml:"source"`
	AI         AIConfig         `yaml:"ai"`
	Search     SearchConfig     `yaml:"search"`
	Media      MediaConfig      `yaml:"media"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Storage    StorageConfig    `yaml:"storage"`
	Watch      WatchConfig      `yaml:"watch"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// SourceConfig configures the source-platform read API.
type SourceConfig struct {
	BaseURL                  string `yaml:"base_url"`
	APIKey                   string `yaml:"api_key" env:"TWITTERAPI_KEY"`
	RateLimitCooldownSeconds int    `yaml:"rate_limit_cooldown_seconds"`
	MaxRateLimitRetries      int    `yaml:"max_rate_limit_retries"` // 0 = unlimited
	TimeoutSeconds           int    `yaml:"timeout_seconds"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type SearchConfig struct {
	APIKey     string `yaml:"api_key" env:"GOOGLE_SEARCH_API_KEY"`
	EngineID   string `yaml:"engine_id" env:"GOOGLE_CSE_ID"`
	NumResults int    `yaml:"num_results"`
}

type MediaConfig struct {
	MaxVideoDurationSeconds int `yaml:"max_video_duration_seconds"`
	MaxVideoSizeMB          int `yaml:"max_video_size_mb"`
	DownloadConcurrency     int `yaml:"download_concurrency"`
	DownloadTimeoutSeconds  int `yaml:"download_timeout_seconds"`
}

type AnalysisConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type StorageConfig struct {
	DataDir            string `yaml:"data_dir"`
	TrackerMaxAgeHours int    `yaml:"tracker_max_age_hours"`
}

// WatchConfig lists post URLs analyzed on every scheduled run.
type WatchConfig struct {
	URLs     []string `yaml:"urls"`
	Schedule string   `yaml:"schedule"`
}

type MonitoringConfig struct {
	HealthPort int    `yaml:"health_port"`
	LogLevel   string `yaml:"log_level"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML, fills secrets from the environment and applies defaults.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Source.APIKey == "" {
		cfg.Source.APIKey = os.Getenv("TWITTERAPI_KEY")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if cfg.Search.EngineID == "" {
		cfg.Search.EngineID = os.Getenv("GOOGLE_CSE_ID")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://api.twitterapi.io"
	}
	if c.Source.RateLimitCooldownSeconds <= 0 {
		c.Source.RateLimitCooldownSeconds = 60
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = 30
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Search.NumResults <= 0 {
		c.Search.NumResults = 3
	}
	if c.Media.MaxVideoDurationSeconds <= 0 {
		c.Media.MaxVideoDurationSeconds = 120
	}
	if c.Media.MaxVideoSizeMB <= 0 {
		c.Media.MaxVideoSizeMB = 19
	}
	if c.Media.DownloadConcurrency <= 0 {
		c.Media.DownloadConcurrency = 4
	}
	if c.Media.DownloadTimeoutSeconds <= 0 {
		c.Media.DownloadTimeoutSeconds = 60
	}
	if c.Analysis.Concurrency <= 0 {
		c.Analysis.Concurrency = 8
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.TrackerMaxAgeHours <= 0 {
		c.Storage.TrackerMaxAgeHours = 7 * 24
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Monitoring.LogLevel == "" {
		c.Monitoring.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Source.APIKey == "" {
		return fmt.Errorf("source API key is required (set TWITTERAPI_KEY or source.api_key)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Source.MaxRateLimitRetries < 0 {
		return fmt.Errorf("source.max_rate_limit_retries must be >= 0")
	}
	return nil
}

// ValidateWatch checks the settings needed for scheduled runs.
func (c *Config) ValidateWatch() error {
	if len(c.Watch.URLs) == 0 {
		return fmt.Errorf("at least one watch URL is required (watch.urls)")
	}
	return nil
}

// SearchEnabled reports whether link analysis has search credentials.
func (c *SearchConfig) SearchEnabled() bool {
	return c.APIKey != "" && c.EngineID != ""
}

func (c *SourceConfig) RateLimitCooldown() time.Duration {
	return time.Duration(c.RateLimitCooldownSeconds) * time.Second
}

func (c *SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxVideoSizeBytes is the inline video analysis ceiling.
func (c *MediaConfig) MaxVideoSizeBytes() int64 {
	return int64(c.MaxVideoSizeMB) * 1024 * 1024
}

func (c *StorageConfig) TrackerMaxAge() time.Duration {
	return time.Duration(c.TrackerMaxAgeHours) * time.Hour
}
