package vecdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stupidcoderJung/arctic-embedding-v1/index"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// Schema describes a stored table.
type Schema struct {
	Name      string
	Dimension int
	Metric    vector.Metric
	Index     index.Kind
}

const catalogDDL = `
CREATE TABLE IF NOT EXISTS vec_tables (
    name       TEXT PRIMARY KEY,
    dimension  INTEGER NOT NULL,
    metric     TEXT NOT NULL,
    index_kind TEXT NOT NULL,
    version    INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
)`

// generationDDL holds a database-wide counter. Table versions are drawn
// from it, so a version is never reused for a table once assigned, even
// across overwrite or drop and re-create.
const generationDDL = `
CREATE TABLE IF NOT EXISTS vec_generation (
    id    INTEGER PRIMARY KEY CHECK (id = 1),
    value INTEGER NOT NULL
)`

const seedGeneration = `INSERT OR IGNORE INTO vec_generation(id, value) SELECT 1, COALESCE(MAX(version), 0) FROM vec_tables`

const bumpGeneration = `UPDATE vec_generation SET value = value + 1 WHERE id = 1`

const indexDDL = `
CREATE TABLE IF NOT EXISTS vec_index (
    table_name TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    kind       TEXT NOT NULL,
    "index"    BLOB
)`

const cacheDDL = `
CREATE TABLE IF NOT EXISTS embedding_cache (
    key        TEXT PRIMARY KEY,
    embedding  BLOB NOT NULL,
    created_at INTEGER NOT NULL
)`

// dataTable is the storage table behind a logical table name.
func dataTable(name string) string { return "_vec_" + name }

func ensureCatalog(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{catalogDDL, generationDDL, seedGeneration, indexDDL, cacheDDL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("vecdb: create catalog: %w", err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// createDataTable creates the row table and the triggers that move the
// catalog version to the next generation on every write, so cached indexes
// go stale.
func createDataTable(ctx context.Context, tx execer, name string) error {
	table := dataTable(name)
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE %s (
    id         TEXT PRIMARY KEY,
    text       TEXT NOT NULL DEFAULT '',
    fields     TEXT,
    embedding  BLOB NOT NULL,
    created_at INTEGER NOT NULL
)`, table),
	}
	bump := fmt.Sprintf(`%s; UPDATE vec_tables SET version = (SELECT value FROM vec_generation WHERE id = 1) WHERE name = '%s';`,
		bumpGeneration, name)
	for _, op := range []string{"INSERT", "UPDATE", "DELETE"} {
		stmts = append(stmts, fmt.Sprintf(`CREATE TRIGGER trg_%s_%s AFTER %s ON %s BEGIN %s END`, table, op, op, table, bump))
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("vecdb: create table %s: %w", name, err)
		}
	}
	return nil
}

func dropDataTable(ctx context.Context, tx execer, name string) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{query: fmt.Sprintf("DROP TABLE IF EXISTS %s", dataTable(name))},
		{query: "DELETE FROM vec_tables WHERE name = ?", args: []any{name}},
		{query: "DELETE FROM vec_index WHERE table_name = ?", args: []any{name}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return fmt.Errorf("vecdb: drop table %s: %w", name, err)
		}
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type querier interface {
	queryRower
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadSchema(ctx context.Context, q queryRower, name string) (Schema, bool, error) {
	var s Schema
	var metric, kind string
	err := q.QueryRowContext(ctx, `SELECT name, dimension, metric, index_kind FROM vec_tables WHERE name = ?`, name).
		Scan(&s.Name, &s.Dimension, &metric, &kind)
	if err == sql.ErrNoRows {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("vecdb: load schema %s: %w", name, err)
	}
	s.Metric = vector.Metric(metric)
	s.Index = index.Kind(kind)
	return s, true, nil
}
