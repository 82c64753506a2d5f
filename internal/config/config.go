// Package config loads KittJournal settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Preference store back ends.
const (
	PrefsSQLite = "sqlite"
	PrefsMemory = "memory"
	PrefsRedis  = "redis"
)

// Analysis providers.
const (
	ProviderLocal      = "local"
	ProviderOpenRouter = "openrouter"
	ProviderGoogle     = "google"
)

// Config holds all KittJournal configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Provider ProviderConfig `yaml:"provider"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"` // ":memory:" keeps everything in RAM
	PrefsBackend string `yaml:"prefs_backend"` // sqlite, memory, redis
	RedisURI     string `yaml:"redis_uri"`
}

// ProviderConfig selects and configures the AI analysis provider.
type ProviderConfig struct {
	Name              string `yaml:"name"` // local, openrouter, google
	OpenRouterAPIKey  string `yaml:"openrouter_api_key"`
	OpenRouterModel   string `yaml:"openrouter_model"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`
	GoogleAPIKey      string `yaml:"google_api_key"`
	GoogleModel       string `yaml:"google_model"`
}

// AnalysisConfig tunes analysis requests.
type AnalysisConfig struct {
	Timeout     string `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
}

// LoggingConfig selects the zap preset.
type LoggingConfig struct {
	Mode string `yaml:"mode"` // development, production
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DatabasePath: "kittjournal.db",
			PrefsBackend: PrefsSQLite,
		},
		Provider: ProviderConfig{
			Name:              ProviderLocal,
			OpenRouterModel:   "google/gemini-2.5-flash",
			OpenRouterBaseURL: "https://openrouter.ai/api/v1",
			GoogleModel:       "gemini-2.5-flash",
		},
		Analysis: AnalysisConfig{
			Timeout:     "45s",
			Concurrency: 2,
		},
		Logging: LoggingConfig{
			Mode: "development",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("KITTJOURNAL_DB"); v != "" {
		c.Store.DatabasePath = v
	}
	if v := os.Getenv("KITTJOURNAL_PREFS_BACKEND"); v != "" {
		c.Store.PrefsBackend = v
	}
	if v := os.Getenv("REDIS_URI"); v != "" {
		c.Store.RedisURI = v
	}
	if v := os.Getenv("KITTJOURNAL_LOG_MODE"); v != "" {
		c.Logging.Mode = v
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.Provider.OpenRouterAPIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.Provider.OpenRouterModel = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.Provider.OpenRouterBaseURL = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Provider.GoogleAPIKey = v
	}
	if v := os.Getenv("GOOGLE_MODEL"); v != "" {
		c.Provider.GoogleModel = v
	}
	if v := os.Getenv("KITTJOURNAL_PROVIDER"); v != "" {
		c.Provider.Name = v
	}

	if v := os.Getenv("KITTJOURNAL_ANALYSIS_TIMEOUT"); v != "" {
		c.Analysis.Timeout = v
	}
	if v := os.Getenv("KITTJOURNAL_ANALYSIS_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: KITTJOURNAL_ANALYSIS_CONCURRENCY: %w", err)
		}
		c.Analysis.Concurrency = n
	}
	return nil
}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	switch c.Store.PrefsBackend {
	case PrefsSQLite, PrefsMemory:
	case PrefsRedis:
		if c.Store.RedisURI == "" {
			return fmt.Errorf("config: prefs backend %q requires redis_uri", PrefsRedis)
		}
	default:
		return fmt.Errorf("config: unknown prefs backend %q", c.Store.PrefsBackend)
	}

	switch c.Provider.Name {
	case ProviderLocal, ProviderOpenRouter, ProviderGoogle:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider.Name)
	}

	if c.Store.DatabasePath == "" {
		return fmt.Errorf("config: database_path is empty")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("config: analysis concurrency must be positive, got %d", c.Analysis.Concurrency)
	}
	if _, err := time.ParseDuration(c.Analysis.Timeout); err != nil {
		return fmt.Errorf("config: analysis timeout: %w", err)
	}
	return nil
}

// AnalysisTimeout returns the per-request analysis timeout.
func (c *Config) AnalysisTimeout() time.Duration {
	d, err := time.ParseDuration(c.Analysis.Timeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}
