// Package engine provides helpers for working with the modernc.org/sqlite
// driver: opening in-memory or file-backed connections and registering the
// vec_* SQL scalar functions. It keeps a thin surface so the store and the
// embedding cache share the same driver instance.
package engine
