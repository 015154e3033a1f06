package vecdb

import (
	"context"
	"database/sql"
	"fmt"
)

// TableStats summarises a table and its persisted index.
type TableStats struct {
	Schema
	Rows    int
	Version int64
	// IndexKind is the kind of the persisted index, empty when none is
	// current.
	IndexKind string
}

// Stats reports row count, version and index state for name.
func (db *DB) Stats(ctx context.Context, name string) (TableStats, error) {
	t, err := db.OpenTable(ctx, name)
	if err != nil {
		return TableStats{}, err
	}
	st := TableStats{Schema: t.schema}
	if st.Rows, err = t.CountRows(ctx); err != nil {
		return st, err
	}
	if err := db.sql.QueryRowContext(ctx, `SELECT version FROM vec_tables WHERE name = ?`, name).Scan(&st.Version); err != nil {
		return st, err
	}
	var kind string
	var version int64
	err = db.sql.QueryRowContext(ctx, `SELECT kind, version FROM vec_index WHERE table_name = ?`, name).Scan(&kind, &version)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return st, err
	case version == st.Version:
		st.IndexKind = kind
	}
	return st, nil
}

// Reindex discards the cached and persisted index of name and rebuilds it.
// It returns the number of indexed rows.
func (db *DB) Reindex(ctx context.Context, name string) (int, error) {
	t, err := db.OpenTable(ctx, name)
	if err != nil {
		return 0, err
	}
	db.invalidate(name)
	if _, err := db.sql.ExecContext(ctx, `DELETE FROM vec_index WHERE table_name = ?`, name); err != nil {
		return 0, fmt.Errorf("vecdb: reindex %s: %w", name, err)
	}
	idx, err := db.ensureIndex(ctx, t.schema)
	if err != nil {
		return 0, err
	}
	db.logger.Info("table reindexed", "name", name, "rows", idx.Len())
	return idx.Len(), nil
}
