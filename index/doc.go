// Package index defines a minimal abstraction for vector indexes that can be
// built from embeddings, queried for kNN, and serialized for persistence.
// Implementations: an exact brute-force scan (any metric) and a
// vantage-point tree (Euclidean only).
package index
