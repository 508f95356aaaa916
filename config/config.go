package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the crowd tool.
type Config struct {
	Roster    []string        `yaml:"roster"`
	Source    SourceConfig    `yaml:"source"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	Query     QueryConfig     `yaml:"query"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourceConfig selects where posts come from.
type SourceConfig struct {
	Type    string        `yaml:"type"` // "twitter" or "files"
	Twitter TwitterConfig `yaml:"twitter"`
	Files   FilesConfig   `yaml:"files"`
}

// TwitterConfig holds Twitter API v2 settings.
type TwitterConfig struct {
	BaseURL           string  `yaml:"base_url"`
	BearerTokenEnv    string  `yaml:"bearer_token_env"` // Environment variable for the app bearer token
	MaxResults        int     `yaml:"max_results"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Concurrency       int     `yaml:"concurrency"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

// FilesConfig holds settings for reading posts from JSONL files.
type FilesConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Mode       string            `yaml:"mode"`       // "trained" or "pretrained"
	Pretrained string            `yaml:"pretrained"` // catalog name, URL or path
	Catalog    map[string]string `yaml:"catalog,omitempty"`
	Dimension  int               `yaml:"dimension"`
	Window     int               `yaml:"window"`
	MinCount   int               `yaml:"min_count"`
	Nonzero    int               `yaml:"nonzero"`
	Seed       uint64            `yaml:"seed"`

	DownloadTimeoutSeconds int `yaml:"download_timeout_seconds"`
}

// AggregateConfig holds centroid aggregation settings.
type AggregateConfig struct {
	Workers int `yaml:"workers"` // >1 aggregates authors in parallel
}

// QueryConfig holds the default similarity queries.
type QueryConfig struct {
	Authors []string `yaml:"authors"`
	TopK    int      `yaml:"top_k"` // 0 = all
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Name    string `yaml:"name"` // key for cached posts and trained vectors
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

const (
	ModeTrained    = "trained"
	ModePretrained = "pretrained"

	SourceTwitter = "twitter"
	SourceFiles   = "files"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Roster: []string{
			"Jason",
			"mollywood",
			"brikeilarcnn",
			"DavidSacks",
			"TuckerCarlson",
			"pmarca",
			"peterthiel",
			"benshapiro",
		},
		Source: SourceConfig{
			Type: SourceTwitter,
			Twitter: TwitterConfig{
				BaseURL:           "https://api.twitter.com/2",
				BearerTokenEnv:    "TWITTER_BEARER_TOKEN",
				MaxResults:        20,
				RequestsPerSecond: 1,
				Concurrency:       2,
				TimeoutSeconds:    30,
			},
			Files: FilesConfig{
				Dir:      "posts",
				Includes: []string{"**/*.jsonl"},
				Excludes: []string{"**/.*/**"},
			},
		},
		Embedding: EmbeddingConfig{
			Mode:                   ModeTrained,
			Pretrained:             "glove-twitter-25",
			Dimension:              100,
			Window:                 5,
			MinCount:               2,
			Nonzero:                8,
			Seed:                   1,
			DownloadTimeoutSeconds: 600,
		},
		Aggregate: AggregateConfig{
			Workers: 1,
		},
		Query: QueryConfig{
			Authors: []string{"benshapiro", "mollywood"},
			TopK:    0,
		},
		Cache: CacheConfig{
			Name:    "tweets",
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports configuration values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceTwitter, SourceFiles:
	default:
		return fmt.Errorf("unsupported source type: %s", c.Source.Type)
	}
	switch c.Embedding.Mode {
	case ModeTrained:
		if c.Embedding.Dimension <= 0 {
			return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
		}
		if c.Embedding.MinCount <= 0 {
			return fmt.Errorf("embedding.min_count must be positive, got %d", c.Embedding.MinCount)
		}
	case ModePretrained:
		if c.Embedding.Pretrained == "" {
			return fmt.Errorf("embedding.pretrained is required in pretrained mode")
		}
	default:
		return fmt.Errorf("unsupported embedding mode: %s", c.Embedding.Mode)
	}
	if c.Cache.Enabled && c.Cache.Name == "" {
		return fmt.Errorf("cache.name is required when the cache is enabled")
	}
	return nil
}

// DownloadTimeout returns the pretrained download timeout.
func (e EmbeddingConfig) DownloadTimeout() time.Duration {
	return time.Duration(e.DownloadTimeoutSeconds) * time.Second
}

// Timeout returns the per-request API timeout.
func (t TwitterConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for crowd.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "crowd.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".crowd", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDBPath returns the path to the cache database.
func CacheDBPath(dir string) string {
	return filepath.Join(dir, ".crowd", "cache.db")
}

// VectorsDir returns the directory downloaded pretrained vectors are kept in.
func VectorsDir(dir string) string {
	return filepath.Join(dir, ".crowd", "vectors")
}

// EnsureCacheDir ensures the .crowd directory exists.
func EnsureCacheDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".crowd"), 0755)
}
