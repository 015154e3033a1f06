package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldCapture(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"short", false},
		{"Remember that I parked on level 3", true},
		{"Call me at +420123456789 tomorrow", true},
		{"My email is jane@example.com", true},
		{"I like my coffee black", true},
		{"Zapamatuj si, že jsem alergický", true},
		{"just some random chatter here", false},
		{"<div>remember</div> this always", false},
		{"**Summary**\n- always run tests", false},
		{"<relevant-memories>\n- [fact] remember x\n</relevant-memories>", false},
		{"🎉🎉🎉🎉 remember this party", false},
		{"🎉🎉 remember this party", true},
		{strings.Repeat("remember ", 60), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ShouldCapture(c.text), c.text)
	}
}

func TestDetectCategory(t *testing.T) {
	cases := map[string]Category{
		"I prefer tea over coffee":      Preference,
		"We decided to use SQLite":      Decision,
		"Write to bob@example.com":      Entity,
		"The server is in Frankfurt":    Fact,
		"ok thanks":                     Other,
		"Rozhodli jsme se pro Postgres": Decision,
	}
	for text, want := range cases {
		assert.Equal(t, want, DetectCategory(text), text)
	}
}

func TestAutoRecall(t *testing.T) {
	ctx := context.Background()
	s := newService(t, wordEmbedder())

	out, err := s.AutoRecall(ctx, "hi")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = s.Store(ctx, "I prefer tabs over spaces", 0, Preference)
	require.NoError(t, err)

	out, err = s.AutoRecall(ctx, "I prefer tabs over spaces")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<relevant-memories>\n"))
	assert.Contains(t, out, "- [preference] I prefer tabs over spaces")
	assert.True(t, strings.HasSuffix(out, "</relevant-memories>"))
	assert.False(t, ShouldCapture(out))
}

func TestAutoCapture(t *testing.T) {
	ctx := context.Background()
	s := newService(t, wordEmbedder())

	messages := []Message{
		{Role: "system", Content: "You must always remember everything"},
		{Role: "user", Content: "Remember that my editor is vim"},
		{Role: "user", Content: "hello there"},
		{Role: "assistant", Parts: []Part{
			{Type: "image", Text: "I always prefer pictures"},
			{Type: "text", Text: "Noted, you never deploy on fridays"},
		}},
		{Role: "user", Content: "My phone is +420123456789"},
		{Role: "user", Content: "I like green tea in the morning"},
	}

	n, err := s.AutoCapture(ctx, messages)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Remember that my editor is vim", list[0].Text)
	assert.Equal(t, "Noted, you never deploy on fridays", list[1].Text)

	n, err = s.AutoCapture(ctx, messages)
	require.NoError(t, err)
	assert.Zero(t, n)
}
