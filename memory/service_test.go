package memory

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupidcoderJung/arctic-embedding-v1/embed"
	"github.com/stupidcoderJung/arctic-embedding-v1/vecdb"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// wordEmbedder hashes words into 32 buckets and normalizes.
func wordEmbedder() embed.Embedder {
	return embed.Func(func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, 32)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			v[h.Sum32()%32]++
		}
		return vector.Normalize(v), nil
	}, 32)
}

// fixedEmbedder returns preset vectors.
func fixedEmbedder(vectors map[string][]float32) embed.Embedder {
	return embed.Func(func(_ context.Context, text string) ([]float32, error) {
		v, ok := vectors[text]
		if !ok {
			return nil, errors.New("unknown text " + text)
		}
		return append([]float32(nil), v...), nil
	}, 2)
}

func newService(t *testing.T, e embed.Embedder) *Service {
	t.Helper()
	db, err := vecdb.Connect(context.Background(), vecdb.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, e)
}

func TestStoreDefaultsAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newService(t, wordEmbedder())

	first, err := s.Store(ctx, "I prefer dark roast coffee", 0, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultImportance, first.Importance)
	assert.Equal(t, Other, first.Category)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.NotZero(t, first.CreatedAt)

	_, err = s.Store(ctx, "I prefer dark roast coffee", 0.9, Preference)
	assert.ErrorIs(t, err, ErrDuplicate)
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.ID, dup.Existing.ID)

	_, err = s.Store(ctx, "anything", 0.5, "mood")
	assert.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecallRanksAndRoundTripsFields(t *testing.T) {
	ctx := context.Background()
	s := newService(t, wordEmbedder())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	results, err := s.Recall(ctx, "nothing yet", 5, 0.1)
	require.NoError(t, err)
	assert.Empty(t, results)

	for _, text := range []string{"my editor is vim", "we deploy on fridays", "the cat is called Tom"} {
		_, err := s.Store(ctx, text, 0.8, DetectCategory(text))
		require.NoError(t, err)
	}

	results, err = s.Recall(ctx, "we deploy on fridays", 5, 0.1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "we deploy on fridays", results[0].Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, 0.8, results[0].Importance)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "my editor is vim", list[0].Text)
	assert.Equal(t, Entity, list[2].Category)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	s := newService(t, wordEmbedder())

	assert.ErrorIs(t, s.Forget(ctx, "not-a-uuid"), ErrInvalidID)
	assert.ErrorIs(t, s.Forget(ctx, uuid.NewString()), ErrNotFound)

	e, err := s.Store(ctx, "remember the milk", 0, Fact)
	require.NoError(t, err)
	require.NoError(t, s.Forget(ctx, e.ID))
	assert.ErrorIs(t, s.Forget(ctx, e.ID), ErrNotFound)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestForgetByQuery(t *testing.T) {
	ctx := context.Background()
	s := newService(t, fixedEmbedder(map[string][]float32{
		"alpha":     {1, 0},
		"alpha-ish": {0.95, 0.05},
		"omega":     {-1, 0},
	}))

	for _, text := range []string{"alpha", "alpha-ish", "omega"} {
		_, err := s.Store(ctx, text, 0, Fact)
		require.NoError(t, err)
	}

	deleted, candidates, err := s.ForgetByQuery(ctx, "alpha")
	require.NoError(t, err)
	assert.Nil(t, deleted)
	assert.Len(t, candidates, 2)

	deleted, candidates, err = s.ForgetByQuery(ctx, "omega")
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "omega", deleted.Text)
	assert.Empty(t, candidates)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
