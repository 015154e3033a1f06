package vecdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// DefaultLimit is used by Search when limit <= 0.
const DefaultLimit = 10

// Record is one stored vector with its payload.
type Record struct {
	ID     string
	Vector []float32
	Text   string
	Fields map[string]any
	// CreatedAt is set on insert.
	CreatedAt time.Time
}

// QueryResult is a search hit.
type QueryResult struct {
	Record
	Distance float64
}

// Table is a handle to one stored table.
type Table struct {
	db     *DB
	schema Schema
}

// Name returns the table name.
func (t *Table) Name() string { return t.schema.Name }

// Schema returns the table definition.
func (t *Table) Schema() Schema { return t.schema }

// Add appends records and returns their ids. Records without an id get a
// random UUID. An id already present fails the whole batch.
func (t *Table) Add(ctx context.Context, records []Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := t.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	ids, err := t.insert(ctx, tx, records)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	t.db.invalidate(t.schema.Name)
	return ids, nil
}

func (t *Table) insert(ctx context.Context, tx *sql.Tx, records []Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	table := dataTable(t.schema.Name)
	exists, err := tx.PrepareContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table))
	if err != nil {
		return nil, err
	}
	defer exists.Close()
	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(id, text, fields, embedding, created_at) VALUES(?, ?, ?, ?, ?)`, table))
	if err != nil {
		return nil, err
	}
	defer ins.Close()

	now := time.Now().UnixMilli()
	ids := make([]string, len(records))
	for i, r := range records {
		if len(r.Vector) != t.schema.Dimension {
			return nil, fmt.Errorf("vecdb: record %d: %w: got %d, table %s has %d",
				i, ErrDimensionMismatch, len(r.Vector), t.schema.Name, t.schema.Dimension)
		}
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		var one int
		switch err := exists.QueryRowContext(ctx, id).Scan(&one); err {
		case nil:
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		case sql.ErrNoRows:
		default:
			return nil, err
		}
		var fields any
		if len(r.Fields) > 0 {
			data, err := json.Marshal(r.Fields)
			if err != nil {
				return nil, fmt.Errorf("vecdb: record %s fields: %w", id, err)
			}
			fields = string(data)
		}
		created := now
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.UnixMilli()
		}
		if _, err := ins.ExecContext(ctx, id, r.Text, fields, vector.EncodeEmbedding(r.Vector), created); err != nil {
			return nil, fmt.Errorf("vecdb: insert %s: %w", id, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// Search returns up to limit records nearest to query, closest first.
func (t *Table) Search(ctx context.Context, query []float32, limit int) ([]QueryResult, error) {
	if len(query) != t.schema.Dimension {
		return nil, fmt.Errorf("vecdb: search %s: %w: query has %d, table has %d",
			t.schema.Name, ErrDimensionMismatch, len(query), t.schema.Dimension)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	idx, err := t.db.ensureIndex(ctx, t.schema)
	if err != nil {
		return nil, err
	}
	ids, dists, err := idx.Query(query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := t.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]QueryResult, 0, len(ids))
	for i, id := range ids {
		r, ok := records[id]
		if !ok {
			// Deleted after the index snapshot was taken.
			continue
		}
		out = append(out, QueryResult{Record: r, Distance: dists[i]})
	}
	return out, nil
}

// Get loads one record.
func (t *Table) Get(ctx context.Context, id string) (Record, error) {
	records, err := t.fetch(ctx, []string{id})
	if err != nil {
		return Record{}, err
	}
	r, ok := records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return r, nil
}

// Delete removes records by id and reports how many existed.
func (t *Table) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, dataTable(t.schema.Name), placeholders(len(ids)))
	res, err := t.db.sql.ExecContext(ctx, query, toArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("vecdb: delete from %s: %w", t.schema.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		t.db.invalidate(t.schema.Name)
	}
	return int(n), nil
}

// CountRows returns the number of stored records.
func (t *Table) CountRows(ctx context.Context) (int, error) {
	var n int
	err := t.db.sql.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, dataTable(t.schema.Name))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("vecdb: count %s: %w", t.schema.Name, err)
	}
	return n, nil
}

// List returns up to limit records in insertion order; limit <= 0 returns all.
func (t *Table) List(ctx context.Context, limit int) ([]Record, error) {
	query := fmt.Sprintf(`SELECT id, text, fields, embedding, created_at FROM %s ORDER BY rowid`, dataTable(t.schema.Name))
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := t.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vecdb: list %s: %w", t.schema.Name, err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *Table) fetch(ctx context.Context, ids []string) (map[string]Record, error) {
	query := fmt.Sprintf(`SELECT id, text, fields, embedding, created_at FROM %s WHERE id IN (%s)`,
		dataTable(t.schema.Name), placeholders(len(ids)))
	rows, err := t.db.sql.QueryContext(ctx, query, toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("vecdb: fetch from %s: %w", t.schema.Name, err)
	}
	defer rows.Close()
	out := make(map[string]Record, len(ids))
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		r       Record
		fields  sql.NullString
		blob    []byte
		created int64
	)
	if err := rows.Scan(&r.ID, &r.Text, &fields, &blob, &created); err != nil {
		return r, err
	}
	vec, err := vector.DecodeEmbedding(blob)
	if err != nil {
		return r, fmt.Errorf("vecdb: record %s: %w", r.ID, err)
	}
	r.Vector = vec
	r.CreatedAt = time.UnixMilli(created)
	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &r.Fields); err != nil {
			return r, fmt.Errorf("vecdb: record %s fields: %w", r.ID, err)
		}
	}
	return r, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
