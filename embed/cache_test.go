package embed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupidcoderJung/arctic-embedding-v1/internal/config"
)

// countingEmbedder records every text it is asked to embed.
type countingEmbedder struct {
	seen []string
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		c.seen = append(c.seen, text)
		out[i] = []float32{float32(len(text)), float32(strings.Count(text, "a"))}
	}
	return out, nil
}

func (c *countingEmbedder) Dimension() int { return 2 }
func (c *countingEmbedder) Close() error   { return nil }

type mapStore map[string][]float32

func (m mapStore) Lookup(_ context.Context, keys []string) (map[string][]float32, error) {
	out := map[string][]float32{}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m mapStore) Save(_ context.Context, entries map[string][]float32) error {
	for k, v := range entries {
		m[k] = v
	}
	return nil
}

func TestCachedEmbedsMissesOnce(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCached(inner, mapStore{}, "m")

	vecs, err := c.Embed(context.Background(), []string{"aa", "b", "aa"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 2}, {1, 0}, {2, 2}}, vecs)
	assert.Equal(t, []string{"aa", "b"}, inner.seen)

	vecs, err = c.Embed(context.Background(), []string{"b", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {3, 0}}, vecs)
	assert.Equal(t, []string{"aa", "b", "ccc"}, inner.seen)
	assert.Equal(t, 2, c.Dimension())
}

// surplusEmbedder returns one vector more than it was asked for.
type surplusEmbedder struct {
	countingEmbedder
}

func (s *surplusEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := s.countingEmbedder.Embed(ctx, texts)
	return append(out, []float32{0, 0}), err
}

func TestCachedRejectsMismatchedBatch(t *testing.T) {
	store := mapStore{}
	c := NewCached(&surplusEmbedder{}, store, "m")

	_, err := c.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 3 embeddings for 2 texts")
	assert.Empty(t, store)
}

func TestKeyIsNamespaced(t *testing.T) {
	assert.NotEqual(t, Key("a", "text"), Key("b", "text"))
	assert.Len(t, Key("a", "text"), 64)
}

func TestFactory(t *testing.T) {
	cfg := config.Default().Embedding
	cfg.Binary = "/bin/embed"

	e, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Process{}, e)

	cfg.Provider = config.ProviderWorker
	cfg.Cache = true
	e, err = New(context.Background(), cfg, WithCache(mapStore{}))
	require.NoError(t, err)
	assert.IsType(t, &Cached{}, e)

	cfg.Provider = config.ProviderSession
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Provider = "telepathy"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
