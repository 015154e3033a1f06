// Package pipeline wires an Embedder to a vecdb table: texts go in, ranked
// texts come out. It stays provider-agnostic; any embed.Embedder works.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/stupidcoderJung/arctic-embedding-v1/embed"
	"github.com/stupidcoderJung/arctic-embedding-v1/vecdb"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

var errNoTable = errors.New("pipeline: no table, call Replace first")

// Document is a text to index with optional id and fields.
type Document struct {
	ID     string
	Text   string
	Fields map[string]any
}

// Match is a search hit.
type Match struct {
	ID       string
	Text     string
	Fields   map[string]any
	Distance float64
}

// Pipeline embeds documents into Table and answers text queries against it.
type Pipeline struct {
	Embedder embed.Embedder
	Table    *vecdb.Table
	// Normalize L2-normalises vectors before they are stored or queried.
	Normalize bool
}

// New returns a pipeline over an existing table.
func New(e embed.Embedder, t *vecdb.Table) (*Pipeline, error) {
	if e == nil {
		return nil, fmt.Errorf("pipeline: embedder is nil")
	}
	if t == nil {
		return nil, fmt.Errorf("pipeline: table is nil")
	}
	return &Pipeline{Embedder: e, Table: t}, nil
}

// Ingest embeds docs as one batch and appends them. It returns the stored ids.
func (p *Pipeline) Ingest(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if p.Table == nil {
		return nil, errNoTable
	}
	records, err := p.records(ctx, docs)
	if err != nil {
		return nil, err
	}
	return p.Table.Add(ctx, records)
}

// Replace embeds docs and overwrites table name in db with them. The
// pipeline switches to the new table.
func (p *Pipeline) Replace(ctx context.Context, db *vecdb.DB, name string, docs []Document, opts ...vecdb.TableOption) error {
	records, err := p.records(ctx, docs)
	if err != nil {
		return err
	}
	opts = append(opts, vecdb.WithMode(vecdb.ModeOverwrite))
	if dim := p.Embedder.Dimension(); dim > 0 {
		opts = append(opts, vecdb.WithDimension(dim))
	}
	t, err := db.CreateTable(ctx, name, records, opts...)
	if err != nil {
		return err
	}
	p.Table = t
	return nil
}

// Query embeds text and returns up to limit nearest documents.
func (p *Pipeline) Query(ctx context.Context, text string, limit int) ([]Match, error) {
	if p.Table == nil {
		return nil, errNoTable
	}
	q, err := embed.EmbedOne(ctx, p.Embedder, text)
	if err != nil {
		return nil, fmt.Errorf("pipeline: embed query: %w", err)
	}
	if p.Normalize {
		vector.Normalize(q)
	}
	hits, err := p.Table.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = Match{ID: h.ID, Text: h.Text, Fields: h.Fields, Distance: h.Distance}
	}
	return out, nil
}

func (p *Pipeline) records(ctx context.Context, docs []Document) ([]vecdb.Record, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := p.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("pipeline: embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return nil, fmt.Errorf("pipeline: embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}
	records := make([]vecdb.Record, len(docs))
	for i, d := range docs {
		v := vecs[i]
		if p.Normalize {
			vector.Normalize(v)
		}
		records[i] = vecdb.Record{ID: d.ID, Text: d.Text, Fields: d.Fields, Vector: v}
	}
	return records, nil
}
