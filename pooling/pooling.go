// Package pooling reduces token-level model output to one vector per input.
//
// The strategy has to match how the model was trained: Arctic Embed uses the
// first ([CLS]) token, sentence-transformers style models use a mask-aware
// mean. A Pooler is fixed when a pipeline is built.
package pooling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// Strategy names a pooling policy.
type Strategy string

const (
	Mean Strategy = "mean"
	CLS  Strategy = "cls"
)

// ErrEmptySequence is returned when there is no token to pool.
var ErrEmptySequence = errors.New("pooling: empty token sequence")

// ParseStrategy resolves a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean", "avg", "average":
		return Mean, nil
	case "cls", "first", "first_token":
		return CLS, nil
	}
	return "", fmt.Errorf("pooling: unknown strategy %q", name)
}

// Pooler applies a strategy and optional L2 normalization.
type Pooler struct {
	Strategy  Strategy
	Normalize bool
}

// Pool reduces states (seq x hidden) to a single hidden-sized vector. mask
// marks real tokens with 1; a nil mask treats every position as real.
func (p Pooler) Pool(states [][]float32, mask []int64) ([]float32, error) {
	if len(states) == 0 {
		return nil, ErrEmptySequence
	}
	if mask != nil && len(mask) < len(states) {
		return nil, fmt.Errorf("pooling: mask length %d shorter than sequence %d", len(mask), len(states))
	}
	var out []float32
	switch p.Strategy {
	case CLS:
		out = vector.Clone(states[0])
	case Mean, "":
		hidden := len(states[0])
		sum := make([]float64, hidden)
		count := 0
		for s, row := range states {
			if mask != nil && mask[s] != 1 {
				continue
			}
			if len(row) != hidden {
				return nil, fmt.Errorf("pooling: %w: token %d has %d values, want %d", vector.ErrDimensionMismatch, s, len(row), hidden)
			}
			for h, v := range row {
				sum[h] += float64(v)
			}
			count++
		}
		out = make([]float32, hidden)
		if count > 0 {
			for h := range sum {
				out[h] = float32(sum[h] / float64(count))
			}
		}
	default:
		return nil, fmt.Errorf("pooling: unknown strategy %q", p.Strategy)
	}
	if p.Normalize {
		vector.Normalize(out)
	}
	return out, nil
}

// PoolBatch pools every sequence of a batch (batch x seq x hidden).
func (p Pooler) PoolBatch(states [][][]float32, masks [][]int64) ([][]float32, error) {
	if masks != nil && len(masks) != len(states) {
		return nil, fmt.Errorf("pooling: %d masks for %d sequences", len(masks), len(states))
	}
	out := make([][]float32, len(states))
	for i := range states {
		var mask []int64
		if masks != nil {
			mask = masks[i]
		}
		v, err := p.Pool(states[i], mask)
		if err != nil {
			return nil, fmt.Errorf("pooling: sequence %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
