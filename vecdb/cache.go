package vecdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stupidcoderJung/arctic-embedding-v1/index"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

type cachedIndex struct {
	version int64
	idx     index.Index
}

func (db *DB) invalidate(name string) {
	db.mu.Lock()
	delete(db.cache, name)
	db.mu.Unlock()
}

// ensureIndex returns an index current with the table version. It prefers
// the in-memory copy, then the persisted vec_index row, and otherwise builds
// from the rows and persists the result. The version and the rows are read
// in one transaction so a build never mixes two generations.
func (db *DB) ensureIndex(ctx context.Context, schema Schema) (index.Index, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM vec_tables WHERE name = ?`, schema.Name).Scan(&version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, schema.Name)
	}
	if err != nil {
		return nil, err
	}
	if c, ok := db.cache[schema.Name]; ok && c.version == version {
		return c.idx, nil
	}

	idx, ok, err := db.loadPersisted(ctx, tx, schema, version)
	if err != nil {
		return nil, err
	}
	var data []byte
	if !ok {
		if idx, data, err = db.build(ctx, tx, schema, version); err != nil {
			return nil, err
		}
	}
	// The in-memory database has one connection; release it before writing.
	_ = tx.Rollback()
	if data != nil {
		db.persist(ctx, schema.Name, version, idx, data)
	}
	db.cache[schema.Name] = cachedIndex{version: version, idx: idx}
	return idx, nil
}

func (db *DB) loadPersisted(ctx context.Context, q querier, schema Schema, version int64) (index.Index, bool, error) {
	var (
		stored int64
		kind   string
		blob   []byte
	)
	err := q.QueryRowContext(ctx, `SELECT version, kind, "index" FROM vec_index WHERE table_name = ?`, schema.Name).
		Scan(&stored, &kind, &blob)
	if err == sql.ErrNoRows || (err == nil && stored != version) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	idx := index.New(index.Kind(kind), schema.Metric)
	if err := idx.UnmarshalBinary(blob); err != nil {
		db.logger.Warn("discarding unreadable persisted index", "table", schema.Name, "err", err)
		return nil, false, nil
	}
	return idx, true, nil
}

// build indexes the rows of schema and returns the encoded index, nil when
// it cannot be encoded.
func (db *DB) build(ctx context.Context, q querier, schema Schema, version int64) (index.Index, []byte, error) {
	started := time.Now()
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT id, embedding FROM %s ORDER BY rowid`, dataTable(schema.Name)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var ids []string
	var vecs [][]float32
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, err
		}
		v, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("vecdb: record %s: %w", id, err)
		}
		ids = append(ids, id)
		vecs = append(vecs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	kind := index.Resolve(schema.Index, schema.Metric, len(ids), schema.Dimension)
	idx := index.New(kind, schema.Metric)
	if err := idx.Build(ids, vecs); err != nil {
		return nil, nil, err
	}
	data, err := idx.MarshalBinary()
	if err != nil {
		db.logger.Warn("encode index failed", "table", schema.Name, "err", err)
		data = nil
	}
	db.logger.Debug("index built", "table", schema.Name, "kind", kind, "rows", len(ids), "version", version,
		"elapsed", time.Since(started))
	return idx, data, nil
}

// persist stores an encoded index unless a newer generation is already
// persisted for the table.
func (db *DB) persist(ctx context.Context, name string, version int64, idx index.Index, data []byte) {
	kind := index.KindOf(idx)
	_, err := db.sql.ExecContext(ctx, `INSERT INTO vec_index(table_name, version, kind, "index") VALUES(?, ?, ?, ?)
ON CONFLICT(table_name) DO UPDATE SET version = excluded.version, kind = excluded.kind, "index" = excluded."index"
WHERE excluded.version > vec_index.version`, name, version, string(kind), data)
	if err != nil {
		db.logger.Warn("persist index failed", "table", name, "err", err)
	}
}

// EmbeddingCache stores embeddings by content key in embedding_cache.
type EmbeddingCache struct {
	db *DB
}

// EmbeddingCache returns the database-backed embedding cache.
func (db *DB) EmbeddingCache() *EmbeddingCache { return &EmbeddingCache{db: db} }

// Lookup returns the cached vectors among keys.
func (c *EmbeddingCache) Lookup(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := c.db.sql.QueryContext(ctx,
		fmt.Sprintf(`SELECT key, embedding FROM embedding_cache WHERE key IN (%s)`, placeholders(len(keys))), toArgs(keys)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, err
		}
		v, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, rows.Err()
}

// Save stores entries, replacing existing keys.
func (c *EmbeddingCache) Save(ctx context.Context, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := c.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := time.Now().UnixMilli()
	for key, vec := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO embedding_cache(key, embedding, created_at) VALUES(?, ?, ?)`,
			key, vector.EncodeEmbedding(vec), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`).Scan(&n)
	return n, err
}
