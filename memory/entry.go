// Package memory is a long-term memory store for conversational agents on
// top of vecdb: entries are embedded texts with a category and importance,
// recalled by similarity and captured automatically from conversations.
package memory

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies a memory.
type Category string

const (
	Preference Category = "preference"
	Fact       Category = "fact"
	Decision   Category = "decision"
	Entity     Category = "entity"
	Other      Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{Preference, Fact, Decision, Entity, Other}

// ParseCategory validates name; empty maps to Other.
func ParseCategory(name string) (Category, error) {
	if name == "" {
		return Other, nil
	}
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("memory: unknown category %q", name)
}

// DefaultImportance is applied when Store is given a non-positive importance.
const DefaultImportance = 0.7

// Entry is one stored memory.
type Entry struct {
	ID         string
	Text       string
	Vector     []float32
	Importance float64
	Category   Category
	// CreatedAt is unix milliseconds.
	CreatedAt int64
}

// Created returns CreatedAt as a time.
func (e Entry) Created() time.Time { return time.UnixMilli(e.CreatedAt) }

// Result is a recalled entry with its similarity score in (0, 1].
type Result struct {
	Entry
	Score float64
}

// Score maps a vector distance to a similarity in (0, 1].
func Score(distance float64) float64 { return 1 / (1 + distance) }

var (
	ErrDuplicate = errors.New("memory: similar memory already exists")
	ErrInvalidID = errors.New("memory: invalid memory id")
	ErrNotFound  = errors.New("memory: memory not found")
)

// DuplicateError carries the existing entry that blocked a Store.
type DuplicateError struct {
	Existing Result
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("memory: similar memory already exists: %q (%.0f%%)", e.Existing.Text, e.Existing.Score*100)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }
