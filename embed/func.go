package embed

import "context"

// EmbedFunc converts one text into an embedding. It adapts any provider
// call to Embedder, embedding batch members one at a time.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Func wraps fn as an Embedder of the given dimension.
func Func(fn EmbedFunc, dimension int) Embedder {
	return funcEmbedder{fn: fn, dim: dimension}
}

type funcEmbedder struct {
	fn  EmbedFunc
	dim int
}

func (f funcEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.fn(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f funcEmbedder) Dimension() int { return f.dim }

func (f funcEmbedder) Close() error { return nil }
