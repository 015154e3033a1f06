package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stupidcoderJung/arctic-embedding-v1/internal/config"
	"github.com/stupidcoderJung/arctic-embedding-v1/model"
	"github.com/stupidcoderJung/arctic-embedding-v1/pooling"
)

type factoryOptions struct {
	loader model.Loader
	cache  CacheStore
	logger *slog.Logger
}

// Option customises New.
type Option func(*factoryOptions)

// WithLoader supplies the model loader for the session provider.
func WithLoader(l model.Loader) Option {
	return func(o *factoryOptions) { o.loader = l }
}

// WithCache wraps the provider in a Cached embedder when the configuration
// enables caching.
func WithCache(store CacheStore) Option {
	return func(o *factoryOptions) { o.cache = store }
}

// WithLogger sets the provider logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *factoryOptions) { o.logger = l }
}

// New builds the embedder selected by cfg.Provider.
func New(ctx context.Context, cfg config.EmbeddingConfig, opts ...Option) (Embedder, error) {
	o := &factoryOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	proc := ProcessConfig{
		Binary:      cfg.Binary,
		ModelPath:   cfg.Model,
		Timeout:     cfg.Timeout(),
		Concurrency: cfg.Concurrency,
		Dimension:   cfg.Dimension,
		Logger:      o.logger,
	}

	var (
		e         Embedder
		err       error
		namespace string
	)
	switch cfg.Provider {
	case config.ProviderProcess, "":
		e, err = NewProcess(proc)
		namespace = cfg.Model
	case config.ProviderWorker:
		e, err = NewWorker(proc)
		namespace = cfg.Model
	case config.ProviderSession:
		if o.loader == nil {
			return nil, fmt.Errorf("embed: provider %q needs a model loader", cfg.Provider)
		}
		var strategy pooling.Strategy
		if cfg.Pooling != "" {
			if strategy, err = pooling.ParseStrategy(cfg.Pooling); err != nil {
				return nil, err
			}
		}
		var s *model.Session
		s, err = model.Open(ctx, model.Options{
			ModelDir:  cfg.Model,
			Backend:   cfg.Backend,
			Pooling:   strategy,
			Normalize: cfg.Normalize,
			Loader:    o.loader,
			Logger:    o.logger,
		})
		if err == nil {
			e = NewSession(s)
		}
		namespace = cfg.Model
	case config.ProviderOllama:
		e = NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.Dimension, cfg.Timeout())
		namespace = "ollama:" + cfg.OllamaModel
	case config.ProviderOpenAI:
		e, err = NewOpenAI(OpenAIConfig{
			APIKey:    cfg.OpenAIKey,
			Model:     cfg.OpenAIModel,
			BaseURL:   cfg.OpenAIBaseURL,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout(),
		})
		namespace = "openai:" + cfg.OpenAIModel
	default:
		return nil, fmt.Errorf("embed: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Cache && o.cache != nil {
		e = NewCached(e, o.cache, fmt.Sprintf("%s:%d", namespace, cfg.Dimension))
	}
	return e, nil
}
