package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig configures the OpenAI embeddings provider.
type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, for compatible servers.
	BaseURL string
	// Dimension requests shortened embeddings when non-zero.
	Dimension int
	Timeout   time.Duration
}

// OpenAI calls the OpenAI embeddings API with the whole batch per request.
type OpenAI struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	timeout   time.Duration
}

// NewOpenAI returns an OpenAI embedder.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embed: openai api key required")
	}
	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	cli := openai.NewClient(opts...)
	return &OpenAI{client: &cli, model: model, dimension: cfg.Dimension, timeout: cfg.Timeout}, nil
}

func (o *OpenAI) Dimension() int { return o.dimension }

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: o.model,
	}
	if o.dimension > 0 {
		params.Dimensions = openai.Int(int64(o.dimension))
	}
	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embed: openai: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: openai returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("embed: openai embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
