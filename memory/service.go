package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stupidcoderJung/arctic-embedding-v1/embed"
	"github.com/stupidcoderJung/arctic-embedding-v1/internal/log"
	"github.com/stupidcoderJung/arctic-embedding-v1/vecdb"
)

// DefaultTable holds memories unless WithTable says otherwise.
const DefaultTable = "memories"

const (
	defaultLimit      = 5
	duplicateScore    = 0.95
	forgetSearchLimit = 5
	forgetMinScore    = 0.7
	forgetAutoScore   = 0.9
)

// Service stores and recalls memories.
type Service struct {
	db        *vecdb.DB
	embedder  embed.Embedder
	tableName string
	dimension int
	logger    *slog.Logger

	mu    sync.Mutex
	table *vecdb.Table
}

// Option configures a Service.
type Option func(*Service)

func WithTable(name string) Option { return func(s *Service) { s.tableName = name } }

// WithDimension fixes the vector size used when the table is created; by
// default it comes from the embedder or the first stored vector.
func WithDimension(dim int) Option { return func(s *Service) { s.dimension = dim } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// New returns a memory service. The table is opened on first use.
func New(db *vecdb.DB, e embed.Embedder, opts ...Option) *Service {
	s := &Service{
		db:        db,
		embedder:  e,
		tableName: DefaultTable,
		dimension: e.Dimension(),
		logger:    log.Logger("memory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tableFor returns the memory table. When it does not exist yet it is
// created with dim, or nil is returned if dim is unknown.
func (s *Service) tableFor(ctx context.Context, dim int) (*vecdb.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table != nil {
		return s.table, nil
	}
	t, err := s.db.OpenTable(ctx, s.tableName)
	switch {
	case err == nil:
	case errors.Is(err, vecdb.ErrTableNotFound):
		if s.dimension > 0 {
			dim = s.dimension
		}
		if dim <= 0 {
			return nil, nil
		}
		if t, err = s.db.OpenOrCreateTable(ctx, s.tableName, dim); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	s.table = t
	return t, nil
}

// Store embeds and saves text. importance <= 0 selects DefaultImportance.
// A near-identical existing memory fails with a *DuplicateError.
func (s *Service) Store(ctx context.Context, text string, importance float64, category Category) (Entry, error) {
	if category == "" {
		category = Other
	}
	if _, err := ParseCategory(string(category)); err != nil {
		return Entry{}, err
	}
	if importance <= 0 {
		importance = DefaultImportance
	}
	if importance > 1 {
		importance = 1
	}
	vec, err := embed.EmbedOne(ctx, s.embedder, text)
	if err != nil {
		return Entry{}, fmt.Errorf("memory: embed: %w", err)
	}
	existing, err := s.search(ctx, vec, 1, duplicateScore)
	if err != nil {
		return Entry{}, err
	}
	if len(existing) > 0 {
		return Entry{}, &DuplicateError{Existing: existing[0]}
	}

	t, err := s.tableFor(ctx, len(vec))
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:         uuid.NewString(),
		Text:       text,
		Vector:     vec,
		Importance: importance,
		Category:   category,
		CreatedAt:  time.Now().UnixMilli(),
	}
	if _, err := t.Add(ctx, []vecdb.Record{toRecord(entry)}); err != nil {
		return Entry{}, err
	}
	s.logger.Debug("memory stored", "id", entry.ID, "category", entry.Category)
	return entry, nil
}

// Recall returns up to limit memories similar to query scoring at least
// minScore, best first.
func (s *Service) Recall(ctx context.Context, query string, limit int, minScore float64) ([]Result, error) {
	vec, err := embed.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed: %w", err)
	}
	return s.search(ctx, vec, limit, minScore)
}

func (s *Service) search(ctx context.Context, vec []float32, limit int, minScore float64) ([]Result, error) {
	t, err := s.tableFor(ctx, len(vec))
	if err != nil || t == nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	hits, err := t.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		score := Score(h.Distance)
		if score < minScore {
			continue
		}
		out = append(out, Result{Entry: fromRecord(h.Record), Score: score})
	}
	return out, nil
}

// Forget deletes the memory with id, which must be a UUID.
func (s *Service) Forget(ctx context.Context, id string) error {
	if len(id) != 36 {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	t, err := s.tableFor(ctx, 0)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n, err := t.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Debug("memory forgotten", "id", id)
	return nil
}

// ForgetByQuery deletes the memory matching query when exactly one strong
// match exists and returns it. Otherwise nothing is deleted and the
// candidates are returned so the caller can pick an id.
func (s *Service) ForgetByQuery(ctx context.Context, query string) (*Entry, []Result, error) {
	results, err := s.Recall(ctx, query, forgetSearchLimit, forgetMinScore)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 1 && results[0].Score > forgetAutoScore {
		if err := s.Forget(ctx, results[0].ID); err != nil {
			return nil, nil, err
		}
		return &results[0].Entry, nil, nil
	}
	return nil, results, nil
}

// Count returns the number of stored memories.
func (s *Service) Count(ctx context.Context) (int, error) {
	t, err := s.tableFor(ctx, 0)
	if err != nil || t == nil {
		return 0, err
	}
	return t.CountRows(ctx)
}

// List returns up to limit memories, oldest first.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	t, err := s.tableFor(ctx, 0)
	if err != nil || t == nil {
		return nil, err
	}
	records, err := t.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(records))
	for i, r := range records {
		out[i] = fromRecord(r)
	}
	return out, nil
}

func toRecord(e Entry) vecdb.Record {
	return vecdb.Record{
		ID:     e.ID,
		Text:   e.Text,
		Vector: e.Vector,
		Fields: map[string]any{
			"importance": e.Importance,
			"category":   string(e.Category),
		},
		CreatedAt: time.UnixMilli(e.CreatedAt),
	}
}

func fromRecord(r vecdb.Record) Entry {
	e := Entry{ID: r.ID, Text: r.Text, Vector: r.Vector, Category: Other, CreatedAt: r.CreatedAt.UnixMilli()}
	if v, ok := r.Fields["importance"].(float64); ok {
		e.Importance = v
	}
	if v, ok := r.Fields["category"].(string); ok {
		if c, err := ParseCategory(v); err == nil {
			e.Category = c
		}
	}
	return e
}
