// Package model runs text through a pluggable transformer forward pass and
// pools the token states into sentence embeddings.
//
// Inference itself is delegated to a Loader; this package owns tokenization,
// batching, pooling and the lifetime of the loaded model.
package model

import (
	"context"
	"errors"

	"github.com/stupidcoderJung/arctic-embedding-v1/tokenizer"
)

var (
	// ErrModelLoad wraps every failure to bring a model up.
	ErrModelLoad = errors.New("model: load failed")
	// ErrPoolingMismatch is returned when the configured pooling strategy
	// disagrees with the one declared by the model manifest.
	ErrPoolingMismatch = errors.New("model: pooling strategy mismatch")
	// ErrClosed is returned by a released session.
	ErrClosed = errors.New("model: session closed")
)

// Model is a loaded encoder.
type Model interface {
	// Forward returns token states shaped batch x seq x hidden.
	Forward(ctx context.Context, batch tokenizer.Batch) ([][][]float32, error)
	Hidden() int
	Close() error
}

// Loader brings a model up on a backend.
type Loader interface {
	Load(ctx context.Context, manifest Manifest, backend Backend) (Model, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, manifest Manifest, backend Backend) (Model, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, manifest Manifest, backend Backend) (Model, error) {
	return f(ctx, manifest, backend)
}
