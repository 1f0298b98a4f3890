package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile    = "config.yaml"
	DefaultWatchlistFile = "watchlist.yaml"
	DefaultStoragePath   = ".pagewatch/pagewatch.db"

	DefaultSimilarityThreshold = 0.9
	DefaultMaxContentLength    = 50000
	DefaultRequestsPerSecond   = 1.0
	DefaultBurst               = 2
	DefaultAnalyzeMode         = "heuristic"
	DefaultLLMMaxTokens        = 600
	DefaultMinRating           = 3
	DefaultNotifyDir           = "notifications"
)

type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Compare       CompareConfig       `yaml:"compare"`
	Fetch         FetchConfig         `yaml:"fetch"`
	Analyze       AnalyzeConfig       `yaml:"analyze"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type CompareConfig struct {
	// SimilarityThreshold is the ratio below which a page counts as
	// significantly changed. Lower means more tolerant of drift.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

type FetchConfig struct {
	// Endpoint is the base URL of the extract API. Empty disables the
	// API client and pages are fetched directly.
	Endpoint          string  `yaml:"endpoint"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	MaxContentLength  int     `yaml:"max_content_length"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// Resolved from env var at load time.
	APIKey string `yaml:"-"`
}

type AnalyzeConfig struct {
	Mode string    `yaml:"mode"` // "heuristic" or "llm"
	LLM  LLMConfig `yaml:"llm"`
}

type LLMConfig struct {
	Model     string `yaml:"model"`
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
	MaxTokens int    `yaml:"max_tokens"`

	// Resolved from env var at load time.
	APIKey string `yaml:"-"`
}

type NotificationsConfig struct {
	// MinRating gates notifications: only results carrying a rating at
	// or above this value (overall or per item) are forwarded.
	MinRating int         `yaml:"min_rating"`
	Slack     SlackConfig `yaml:"slack"`
	Email     EmailConfig `yaml:"email"`
	File      FileConfig  `yaml:"file"`
}

type SlackConfig struct {
	Enabled        bool   `yaml:"enabled"`
	WebhookURLEnv  string `yaml:"webhook_url_env"`
	IncludePreview bool   `yaml:"include_content_preview"`

	// Resolved from env var at load time.
	WebhookURL string `yaml:"-"`
}

type EmailConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Endpoint  string   `yaml:"endpoint"`
	APIKeyEnv string   `yaml:"api_key_env"`
	From      string   `yaml:"from"`
	To        []string `yaml:"to"`

	// Resolved from env var at load time.
	APIKey string `yaml:"-"`
}

type FileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Compare.SimilarityThreshold == 0 {
		cfg.Compare.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.Fetch.MaxContentLength == 0 {
		cfg.Fetch.MaxContentLength = DefaultMaxContentLength
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Fetch.Burst == 0 {
		cfg.Fetch.Burst = DefaultBurst
	}
	if cfg.Analyze.Mode == "" {
		cfg.Analyze.Mode = DefaultAnalyzeMode
	}
	if cfg.Analyze.LLM.MaxTokens == 0 {
		cfg.Analyze.LLM.MaxTokens = DefaultLLMMaxTokens
	}
	if cfg.Notifications.MinRating == 0 {
		cfg.Notifications.MinRating = DefaultMinRating
	}
	if cfg.Notifications.File.Dir == "" {
		cfg.Notifications.File.Dir = DefaultNotifyDir
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Fetch.APIKeyEnv != "" {
		cfg.Fetch.APIKey = os.Getenv(cfg.Fetch.APIKeyEnv)
	}
	if cfg.Analyze.LLM.APIKeyEnv != "" {
		cfg.Analyze.LLM.APIKey = os.Getenv(cfg.Analyze.LLM.APIKeyEnv)
	}
	if cfg.Notifications.Slack.WebhookURLEnv != "" {
		cfg.Notifications.Slack.WebhookURL = os.Getenv(cfg.Notifications.Slack.WebhookURLEnv)
	}
	if cfg.Notifications.Email.APIKeyEnv != "" {
		cfg.Notifications.Email.APIKey = os.Getenv(cfg.Notifications.Email.APIKeyEnv)
	}
}

func validate(cfg *Config) error {
	if cfg.Compare.SimilarityThreshold < 0 || cfg.Compare.SimilarityThreshold > 1 {
		return fmt.Errorf("compare.similarity_threshold: %v is outside [0, 1]", cfg.Compare.SimilarityThreshold)
	}

	switch cfg.Analyze.Mode {
	case "heuristic", "llm":
		// valid
	default:
		return fmt.Errorf("analyze.mode: unknown mode %q (want heuristic or llm)", cfg.Analyze.Mode)
	}

	if cfg.Analyze.Mode == "llm" && cfg.Analyze.LLM.Model == "" {
		return errors.New("analyze.llm.model: required when mode is llm")
	}

	if cfg.Notifications.MinRating < 1 || cfg.Notifications.MinRating > 5 {
		return fmt.Errorf("notifications.min_rating: %d is outside 1-5", cfg.Notifications.MinRating)
	}

	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.From == "" {
		return errors.New("notifications.email.from: required when email is enabled")
	}

	return nil
}
