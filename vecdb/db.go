package vecdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/stupidcoderJung/arctic-embedding-v1/engine"
	"github.com/stupidcoderJung/arctic-embedding-v1/index"
	"github.com/stupidcoderJung/arctic-embedding-v1/internal/log"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// FileName is the database file inside a store directory.
const FileName = "vectors.db"

// Memory connects to a private in-memory database.
const Memory = engine.Memory

// DB is a connection to a vector database. It is safe for concurrent use.
type DB struct {
	sql    *sql.DB
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedIndex
}

// Option configures Connect.
type Option func(*DB)

// WithLogger sets the logger; the default is tagged module=vecdb.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// Connect opens the database stored in directory path, creating it when
// absent. Memory selects an in-memory database.
func Connect(ctx context.Context, path string, opts ...Option) (*DB, error) {
	// Functions only attach to connections opened after registration.
	if err := engine.RegisterVectorFunctions(); err != nil {
		return nil, err
	}
	var (
		sqlDB *sql.DB
		err   error
	)
	if path == Memory {
		sqlDB, err = engine.Open(Memory)
	} else {
		sqlDB, err = engine.OpenFile(filepath.Join(path, FileName))
	}
	if err != nil {
		return nil, fmt.Errorf("vecdb: connect %s: %w", path, err)
	}
	if err := ensureCatalog(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	db := &DB{sql: sqlDB, path: path, logger: log.Logger("vecdb"), cache: map[string]cachedIndex{}}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// SQL exposes the underlying handle for ad-hoc queries such as vec_l2.
func (db *DB) SQL() *sql.DB { return db.sql }

// Path returns the directory the database was opened from.
func (db *DB) Path() string { return db.path }

// Close closes the database.
func (db *DB) Close() error {
	db.mu.Lock()
	db.cache = map[string]cachedIndex{}
	db.mu.Unlock()
	return db.sql.Close()
}

// TableNames lists tables in name order.
func (db *DB) TableNames(ctx context.Context) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT name FROM vec_tables`)
	if err != nil {
		return nil, fmt.Errorf("vecdb: list tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Mode controls CreateTable when the table already exists.
type Mode int

const (
	// ModeCreate fails with ErrTableExists.
	ModeCreate Mode = iota
	// ModeOverwrite replaces the table and all of its rows.
	ModeOverwrite
	// ModeExistOK opens the existing table and ignores the records.
	ModeExistOK
)

type tableOptions struct {
	mode      Mode
	dimension int
	metric    vector.Metric
	kind      index.Kind
}

// TableOption configures CreateTable.
type TableOption func(*tableOptions)

func WithMode(m Mode) TableOption { return func(o *tableOptions) { o.mode = m } }

// WithDimension fixes the vector length; by default it is taken from the
// first record.
func WithDimension(dim int) TableOption { return func(o *tableOptions) { o.dimension = dim } }

func WithMetric(m vector.Metric) TableOption { return func(o *tableOptions) { o.metric = m } }

func WithIndex(k index.Kind) TableOption { return func(o *tableOptions) { o.kind = k } }

// CreateTable creates name and stores records in it.
func (db *DB) CreateTable(ctx context.Context, name string, records []Record, opts ...TableOption) (*Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	o := tableOptions{metric: vector.L2, kind: index.KindAuto}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metric == "" {
		o.metric = vector.L2
	}
	if o.dimension <= 0 && len(records) > 0 {
		o.dimension = len(records[0].Vector)
	}
	if o.dimension <= 0 {
		return nil, fmt.Errorf("vecdb: table %s: dimension unknown, pass WithDimension or records", name)
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, found, err := loadSchema(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if found {
		switch o.mode {
		case ModeExistOK:
			return &Table{db: db, schema: existing}, nil
		case ModeCreate:
			return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
		}
		if err := dropDataTable(ctx, tx, name); err != nil {
			return nil, err
		}
	}

	schema := Schema{Name: name, Dimension: o.dimension, Metric: o.metric, Index: o.kind}
	if _, err := tx.ExecContext(ctx, bumpGeneration); err != nil {
		return nil, fmt.Errorf("vecdb: register table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_tables(name, dimension, metric, index_kind, version, created_at)
VALUES(?, ?, ?, ?, (SELECT value FROM vec_generation WHERE id = 1), ?)`,
		name, schema.Dimension, string(schema.Metric), string(schema.Index), time.Now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("vecdb: register table %s: %w", name, err)
	}
	if err := createDataTable(ctx, tx, name); err != nil {
		return nil, err
	}
	t := &Table{db: db, schema: schema}
	if _, err := t.insert(ctx, tx, records); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	db.invalidate(name)
	db.logger.Info("table created", "name", name, "rows", len(records), "dim", schema.Dimension,
		"metric", schema.Metric, "overwrite", found)
	return t, nil
}

// OpenTable opens an existing table.
func (db *DB) OpenTable(ctx context.Context, name string) (*Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	schema, found, err := loadSchema(ctx, db.sql, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return &Table{db: db, schema: schema}, nil
}

// OpenOrCreateTable opens name, creating an empty table of dimension dim
// when absent. An existing table of another dimension is an error.
func (db *DB) OpenOrCreateTable(ctx context.Context, name string, dim int, opts ...TableOption) (*Table, error) {
	opts = append(opts, WithDimension(dim), WithMode(ModeExistOK))
	t, err := db.CreateTable(ctx, name, nil, opts...)
	if err != nil {
		return nil, err
	}
	if t.schema.Dimension != dim {
		return nil, fmt.Errorf("vecdb: table %s: %w: stored %d, requested %d", name, ErrDimensionMismatch, t.schema.Dimension, dim)
	}
	return t, nil
}

// DropTable removes name and its rows.
func (db *DB) DropTable(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, found, err := loadSchema(ctx, tx, name); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err := dropDataTable(ctx, tx, name); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.invalidate(name)
	db.logger.Info("table dropped", "name", name)
	return nil
}
