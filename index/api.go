package index

// Index defines a generic vector index with basic lifecycle methods.
// It enables building from (id, embedding) pairs, kNN queries, and
// binary serialization for persistence.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length and every vector the same
	// dimension.
	Build(ids []string, vectors [][]float32) error

	// Query runs a kNN search with the provided query vector and returns up
	// to k matches as parallel slices of ids and distances, ordered by
	// ascending distance. k <= 0 returns every indexed vector.
	Query(query []float32, k int) (ids []string, distances []float64, err error)

	// Len reports the number of indexed vectors.
	Len() int

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
