package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Memory is the DSN of a private in-memory database.
const Memory = ":memory:"

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases prefer OpenFile. For in-memory databases, pass
// ":memory:"; the pool is pinned to a single connection so every query sees
// the same database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == Memory {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenFile opens (or creates) a SQLite database file, creating its parent
// directory when needed. WAL journaling and a busy timeout are enabled.
func OpenFile(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
