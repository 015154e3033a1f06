// Package vptree provides an exact Euclidean kNN index backed by a
// vantage-point tree. It serializes using the brute-force encoding so a
// persisted index can be reloaded by either implementation.
package vptree
