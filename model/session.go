package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stupidcoderJung/arctic-embedding-v1/pooling"
	"github.com/stupidcoderJung/arctic-embedding-v1/tokenizer"
)

const defaultBatchSize = 32

// Options configure a Session.
type Options struct {
	ModelDir string
	// Backend is the preferred device; unavailable devices fall back.
	Backend   string
	Pooling   pooling.Strategy
	Normalize bool
	MaxLen    int
	BatchSize int
	Loader    Loader
	// Tokenizer overrides the manifest vocabulary.
	Tokenizer *tokenizer.Tokenizer
	Logger    *slog.Logger
}

// Session owns one loaded model until Close.
type Session struct {
	mu        sync.Mutex
	model     Model
	tok       *tokenizer.Tokenizer
	pooler    pooling.Pooler
	backend   Backend
	maxLen    int
	batchSize int
	closed    bool
}

// Open loads the tokenizer and model described by opts.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Loader == nil {
		return nil, fmt.Errorf("%w: no loader configured", ErrModelLoad)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	manifest, err := ReadManifest(opts.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	declared, err := manifest.Strategy()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	strategy := opts.Pooling
	switch {
	case strategy == "" && declared == "":
		strategy = pooling.Mean
	case strategy == "":
		strategy = declared
	case declared != "" && declared != strategy:
		return nil, fmt.Errorf("%w: configured %s, model declares %s", ErrPoolingMismatch, strategy, declared)
	}
	normalize := opts.Normalize
	if manifest.Normalize != nil && !opts.Normalize {
		normalize = *manifest.Normalize
	}

	tok := opts.Tokenizer
	if tok == nil {
		vocab, err := tokenizer.LoadVocab(manifest.Vocab)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
		}
		tok = tokenizer.New(vocab)
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = manifest.MaxLen
	}
	if maxLen <= 0 {
		maxLen = tokenizer.DefaultMaxLen
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	backend := SelectBackend(opts.Backend)
	m, err := opts.Loader.Load(ctx, manifest, backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if manifest.Hidden > 0 && m.Hidden() != manifest.Hidden {
		_ = m.Close()
		return nil, fmt.Errorf("%w: model hidden size %d, manifest declares %d", ErrModelLoad, m.Hidden(), manifest.Hidden)
	}
	logger.Info("model loaded", "dir", opts.ModelDir, "backend", backend, "pooling", strategy, "hidden", m.Hidden())
	return &Session{
		model:     m,
		tok:       tok,
		pooler:    pooling.Pooler{Strategy: strategy, Normalize: normalize},
		backend:   backend,
		maxLen:    maxLen,
		batchSize: batchSize,
	}, nil
}

// Backend reports the device the model was loaded on.
func (s *Session) Backend() Backend { return s.backend }

// Dimension is the embedding size.
func (s *Session) Dimension() int { return s.model.Hidden() }

// Strategy is the pooling strategy in use.
func (s *Session) Strategy() pooling.Strategy { return s.pooler.Strategy }

// Embed returns one pooled vector per text, in input order.
func (s *Session) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := s.tok.Encode(texts[start:end], s.maxLen)
		states, err := s.model.Forward(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("model: forward: %w", err)
		}
		if len(states) != batch.Len() {
			return nil, fmt.Errorf("model: forward returned %d sequences for %d inputs", len(states), batch.Len())
		}
		vecs, err := s.pooler.PoolBatch(states, batch.AttentionMask)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Close releases the model. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.model.Close()
}

// EmbedOnce loads a model, embeds texts and releases the model before
// returning, on success and failure alike.
func EmbedOnce(ctx context.Context, opts Options, texts []string) (_ [][]float32, err error) {
	s, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return s.Embed(ctx, texts)
}
