// Package vector holds the numeric side of the embedding pipeline:
//   - Metric: l2, cosine and dot distances (lower is closer)
//   - L2 normalization helpers
//   - Embedding encoding (BLOB) used by the SQLite store
//   - FitDimension for providers that return vectors of the wrong length
package vector
