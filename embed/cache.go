package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CacheStore persists embeddings by content key.
type CacheStore interface {
	Lookup(ctx context.Context, keys []string) (map[string][]float32, error)
	Save(ctx context.Context, entries map[string][]float32) error
}

// Cached serves repeated texts from a store and only embeds misses.
type Cached struct {
	inner     Embedder
	store     CacheStore
	namespace string
}

// NewCached wraps inner. namespace separates keys of different models.
func NewCached(inner Embedder, store CacheStore, namespace string) *Cached {
	return &Cached{inner: inner, store: store, namespace: namespace}
}

// Key returns the content address of text within namespace.
func Key(namespace, text string) string {
	sum := sha256.Sum256([]byte(namespace + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Dimension() int { return c.inner.Dimension() }

func (c *Cached) Close() error { return c.inner.Close() }

func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = Key(c.namespace, text)
	}
	hits, err := c.store.Lookup(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("embed: cache lookup: %w", err)
	}

	var missing []string
	var missingKeys []string
	seen := make(map[string]bool)
	for i, key := range keys {
		if _, ok := hits[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, texts[i])
		missingKeys = append(missingKeys, key)
	}
	if len(missing) > 0 {
		vecs, err := c.inner.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("embed: cache: got %d embeddings for %d texts", len(vecs), len(missing))
		}
		fresh := make(map[string][]float32, len(vecs))
		for i, vec := range vecs {
			fresh[missingKeys[i]] = vec
		}
		if err := c.store.Save(ctx, fresh); err != nil {
			return nil, fmt.Errorf("embed: cache save: %w", err)
		}
		if hits == nil {
			hits = make(map[string][]float32, len(fresh))
		}
		for k, v := range fresh {
			hits[k] = v
		}
	}

	out := make([][]float32, len(texts))
	for i, key := range keys {
		out[i] = hits[key]
	}
	return out, nil
}
