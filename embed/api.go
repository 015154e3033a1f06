// Package embed turns text into embedding vectors.
//
// Every provider implements Embedder: an in-process model session, a native
// binary spawned per text, a persistent native worker, or a remote HTTP
// service. Callers see plain float32 vectors in input order.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the vector length, or 0 when not known ahead of a call.
	Dimension() int
	Close() error
}

var (
	// ErrEmptyEmbedding is returned when a provider yields no values.
	ErrEmptyEmbedding = errors.New("embed: empty embedding")
	// ErrClosed is returned by a closed embedder.
	ErrClosed = errors.New("embed: embedder closed")
)

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: got %d vectors for one text", len(vecs))
	}
	return vecs[0], nil
}
