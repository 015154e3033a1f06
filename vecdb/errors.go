package vecdb

import (
	"errors"
	"regexp"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

var (
	ErrTableNotFound  = errors.New("vecdb: table not found")
	ErrTableExists    = errors.New("vecdb: table already exists")
	ErrRecordNotFound = errors.New("vecdb: record not found")
	ErrDuplicateID    = errors.New("vecdb: duplicate record id")
	ErrInvalidName    = errors.New("vecdb: invalid table name")
	// ErrDimensionMismatch is vector.ErrDimensionMismatch, re-exported for
	// callers that only import vecdb.
	ErrDimensionMismatch = vector.ErrDimensionMismatch
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return &NameError{Name: name}
	}
	return nil
}

// NameError reports a table name outside [A-Za-z_][A-Za-z0-9_]*.
type NameError struct {
	Name string
}

func (e *NameError) Error() string { return "vecdb: invalid table name " + quote(e.Name) }

func (e *NameError) Unwrap() error { return ErrInvalidName }

func quote(s string) string { return `"` + s + `"` }
