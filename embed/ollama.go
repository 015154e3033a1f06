package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// DefaultOllamaURL is the local Ollama endpoint.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama calls the Ollama embeddings HTTP API, one request per text.
type Ollama struct {
	client    *resty.Client
	model     string
	dimension int
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

// NewOllama returns an Ollama embedder. An empty baseURL selects the local
// default.
func NewOllama(baseURL, model string, dimension int, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Ollama{client: c, model: model, dimension: dimension}
}

func (o *Ollama) Dimension() int { return o.dimension }

func (o *Ollama) Close() error { return nil }

func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		resp, err := o.client.R().
			SetContext(ctx).
			SetBody(&ollamaRequest{Model: o.model, Prompt: text}).
			Post("/api/embeddings")
		if err != nil {
			return nil, fmt.Errorf("embed: ollama request: %w", err)
		}
		var body ollamaResponse
		decodeErr := json.Unmarshal(resp.Body(), &body)
		if resp.StatusCode() != http.StatusOK {
			msg := body.Error
			if msg == "" {
				msg = resp.String()
			}
			return nil, fmt.Errorf("embed: ollama status %d: %s", resp.StatusCode(), msg)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("embed: ollama response: %w", decodeErr)
		}
		if len(body.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vec := make([]float32, len(body.Embedding))
		for j, v := range body.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vector.FitDimension(vec, o.dimension)
	}
	return out, nil
}
