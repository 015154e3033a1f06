package vector

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/viant/vec/search"
)

// ErrDimensionMismatch is returned when two vectors (or a vector and a table)
// disagree on length.
var ErrDimensionMismatch = errors.New("vector: dimension mismatch")

// Metric names a distance function. All metrics are "lower is closer" so
// search results can always be ordered ascending.
type Metric string

const (
	// L2 is the Euclidean distance. It is the default metric.
	L2 Metric = "l2"
	// Cosine is 1 - cosine similarity, in [0, 2].
	Cosine Metric = "cosine"
	// Dot is the negated inner product. On unit vectors it ranks like Cosine.
	Dot Metric = "dot"
)

// ParseMetric resolves a metric name; the empty string maps to L2.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "l2", "euclidean":
		return L2, nil
	case "cos", "cosine":
		return Cosine, nil
	case "dot", "ip", "inner_product":
		return Dot, nil
	}
	return "", fmt.Errorf("vector: unknown metric %q", name)
}

// Distance computes the distance between a and b under m.
func (m Metric) Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: distance on empty vectors")
	}
	switch m {
	case L2, "":
		return float64(search.Float32s(a).EuclideanDistance(b)), nil
	case Cosine:
		return cosineDistance(a, b), nil
	case Dot:
		return -dot(a, b), nil
	}
	return 0, fmt.Errorf("vector: unknown metric %q", string(m))
}

// cosineDistance treats a zero-magnitude vector as orthogonal to everything.
func cosineDistance(a, b []float32) float64 {
	ma := search.Float32s(a).Magnitude()
	mb := search.Float32s(b).Magnitude()
	if ma == 0 || mb == 0 {
		return 1
	}
	return float64(search.Float32s(a).CosineDistanceWithMagnitude(b, ma, mb))
}

// CosineSimilarity computes the cosine similarity between two vectors. It
// returns an error if the vectors have different lengths or if either vector
// has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine similarity on empty vectors")
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("vector: cosine similarity with zero-magnitude vector")
	}
	return dot(a, b) / (na * nb), nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 { return math.Sqrt(dot(v, v)) }
