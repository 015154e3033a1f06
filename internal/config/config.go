// Package config loads the TOML configuration with ARCTIC_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/stupidcoderJung/arctic-embedding-v1/index"
	"github.com/stupidcoderJung/arctic-embedding-v1/internal/log"
	"github.com/stupidcoderJung/arctic-embedding-v1/pooling"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// EnvPrefix prefixes environment overrides. Keys are ARCTIC_<SECTION>_<FIELD>
// with CamelCase fields split on word boundaries, e.g. ARCTIC_STORE_PATH,
// ARCTIC_EMBEDDING_TIMEOUT_SECONDS, ARCTIC_EMBEDDING_OPEN_AI_KEY. Unprefixed
// variables are never read.
const EnvPrefix = "ARCTIC"

// Config holds all configuration values.
type Config struct {
	Log       log.Config      `toml:"log"`
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Memory    MemoryConfig    `toml:"memory"`
}

// StoreConfig locates the vector database.
type StoreConfig struct {
	Path      string `toml:"path"`
	Table     string `toml:"table"`
	Dimension int    `toml:"dimension"`
	Metric    string `toml:"metric"`
	Index     string `toml:"index"`
}

// Provider names an embedding backend.
const (
	ProviderProcess = "process"
	ProviderWorker  = "worker"
	ProviderSession = "session"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
)

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider       string `toml:"provider"`
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Backend        string `toml:"backend"`
	Pooling        string `toml:"pooling"`
	Normalize      bool   `toml:"normalize"`
	TimeoutSeconds int    `toml:"timeout_seconds" split_words:"true"`
	Concurrency    int    `toml:"concurrency"`
	Dimension      int    `toml:"dimension"`
	Cache          bool   `toml:"cache"`

	OllamaURL     string `toml:"ollama_url" split_words:"true"`
	OllamaModel   string `toml:"ollama_model" split_words:"true"`
	OpenAIKey     string `toml:"openai_api_key" split_words:"true"`
	OpenAIModel   string `toml:"openai_model" split_words:"true"`
	OpenAIBaseURL string `toml:"openai_base_url" split_words:"true"`
}

// MemoryConfig configures the long-term memory service.
type MemoryConfig struct {
	Table       string `toml:"table"`
	AutoCapture bool   `toml:"auto_capture" split_words:"true"`
	AutoRecall  bool   `toml:"auto_recall" split_words:"true"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: log.DefaultConfig(),
		Store: StoreConfig{
			Path:      "~/.openclaw/memory/lancedb",
			Table:     "embeddings",
			Dimension: 384,
			Metric:    string(vector.L2),
			Index:     string(index.KindAuto),
		},
		Embedding: EmbeddingConfig{
			Provider:       ProviderProcess,
			Binary:         "./arctic_embed",
			Model:          "./models/snowflake-arctic-embed-s",
			Pooling:        string(pooling.Mean),
			Normalize:      true,
			TimeoutSeconds: 60,
			Concurrency:    2,
			Dimension:      384,
		},
		Memory: MemoryConfig{
			Table:       "memories",
			AutoCapture: true,
			AutoRecall:  true,
		},
	}
}

// Timeout returns the per-call embedding timeout.
func (c *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks store configuration.
func (c *StoreConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return errors.New("path is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if _, err := vector.ParseMetric(c.Metric); err != nil {
		return err
	}
	if _, err := index.ParseKind(c.Index); err != nil {
		return err
	}
	return nil
}

// Validate checks embedding configuration.
func (c *EmbeddingConfig) Validate() error {
	switch c.Provider {
	case ProviderProcess, ProviderWorker:
		if c.Binary == "" {
			return errors.New("binary is required")
		}
		if c.Model == "" {
			return errors.New("model is required")
		}
	case ProviderSession:
		if c.Model == "" {
			return errors.New("model is required")
		}
	case ProviderOllama:
		if c.OllamaModel == "" {
			return errors.New("ollama_model is required")
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("openai_api_key is required")
		}
	default:
		return fmt.Errorf("invalid provider: %q", c.Provider)
	}
	if c.Pooling != "" {
		if _, err := pooling.ParseStrategy(c.Pooling); err != nil {
			return err
		}
	}
	if c.TimeoutSeconds < 0 || c.Concurrency < 0 || c.Dimension < 0 {
		return errors.New("timeout_seconds, concurrency and dimension must not be negative")
	}
	return nil
}

// Validate checks memory configuration.
func (c *MemoryConfig) Validate() error {
	if strings.TrimSpace(c.Table) == "" {
		return errors.New("table is required")
	}
	return nil
}

// Validate checks all configuration fields.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return errors.WithMessage(err, "log")
	}
	if err := c.Store.Validate(); err != nil {
		return errors.WithMessage(err, "store")
	}
	if err := c.Embedding.Validate(); err != nil {
		return errors.WithMessage(err, "embedding")
	}
	if err := c.Memory.Validate(); err != nil {
		return errors.WithMessage(err, "memory")
	}
	return nil
}

// LoadConfig reads filename (optional), applies ARCTIC_* overrides and
// validates the result.
func LoadConfig(filename string) (Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return cfg, errors.Wrap(err, "read config file")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parse config file")
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, errors.Wrap(err, "read environment")
	}

	var err error
	if cfg.Store.Path, err = ExpandHome(cfg.Store.Path); err != nil {
		return cfg, err
	}
	if cfg.Log.Path, err = ExpandHome(cfg.Log.Path); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithMessage(err, "validate config")
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
