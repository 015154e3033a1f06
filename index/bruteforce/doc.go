// Package bruteforce provides an exact vector index that answers kNN queries
// by scanning all vectors and scoring them with a vector.Metric. It supports a
// compact binary format for persistence in the vec_index table.
package bruteforce
