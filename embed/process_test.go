package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessEmbedKeepsOrder(t *testing.T) {
	cfg := fakeConfig("process")
	cfg.Concurrency = 3
	p, err := NewProcess(cfg)
	require.NoError(t, err)

	texts := []string{"a", "banana", "line\nbreak", "", "aaaa"}
	vecs, err := p.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	assert.Equal(t, []float32{1, 1, 0.5}, vecs[0])
	assert.Equal(t, []float32{6, 3, 0.5}, vecs[1])
	assert.Equal(t, []float32{10, 1, 0.5}, vecs[2])
	assert.Equal(t, []float32{0, 0, 0.5}, vecs[3])
	assert.Equal(t, []float32{4, 4, 0.5}, vecs[4])
}

func TestProcessEmbedsDeterministically(t *testing.T) {
	p, err := NewProcess(fakeConfig("process"))
	require.NoError(t, err)

	ctx := context.Background()
	vecs, err := p.Embed(ctx, []string{"same text", "other", "same text"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[2])

	again, err := EmbedOne(ctx, p, "same text")
	require.NoError(t, err)
	assert.Equal(t, vecs[0], again)
}

func TestProcessFitsDimension(t *testing.T) {
	cfg := fakeConfig("process")
	cfg.Dimension = 5
	p, err := NewProcess(cfg)
	require.NoError(t, err)

	vec, err := EmbedOne(context.Background(), p, "aa")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2, 0.5, 0, 0}, vec)
	assert.Equal(t, 5, p.Dimension())
}

func TestProcessExitError(t *testing.T) {
	p, err := NewProcess(fakeConfig("fail"))
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"x"})
	var perr *ProcessError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, 3, perr.ExitCode)
	assert.Contains(t, perr.Stderr, "model file not found")
}

func TestProcessTimeout(t *testing.T) {
	cfg := fakeConfig("hang")
	cfg.Timeout = 200 * time.Millisecond
	p, err := NewProcess(cfg)
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProcessSkipsLogBrackets(t *testing.T) {
	p, err := NewProcess(fakeConfig("noisy"))
	require.NoError(t, err)

	vec, err := EmbedOne(context.Background(), p, "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
}

func TestNewProcessNeedsBinary(t *testing.T) {
	_, err := NewProcess(ProcessConfig{})
	assert.Error(t, err)
}

func TestParseVector(t *testing.T) {
	vec, err := ParseVector([]byte("noise\n[0.25, -1e-3]\ntrailer [x]"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.25, -0.001}, vec, 1e-7)

	_, err = ParseVector([]byte("[]"))
	assert.ErrorIs(t, err, ErrEmptyEmbedding)

	_, err = ParseVector([]byte("no vector here"))
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}
