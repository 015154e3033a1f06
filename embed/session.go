package embed

import (
	"context"

	"github.com/stupidcoderJung/arctic-embedding-v1/model"
)

// Session exposes an in-process model session as an Embedder. Closing it
// releases the model.
type Session struct {
	session *model.Session
}

// NewSession wraps an open model session.
func NewSession(s *model.Session) *Session {
	return &Session{session: s}
}

func (s *Session) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return s.session.Embed(ctx, texts)
}

func (s *Session) Dimension() int { return s.session.Dimension() }

func (s *Session) Close() error { return s.session.Close() }
