package vector

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{1, 0}

	// Orthogonal vectors -> similarity 0
	if sim, err := CosineSimilarity(a, b); err != nil || sim != 0 {
		t.Fatalf("CosineSimilarity(a,b) = %v, %v; want 0, nil", sim, err)
	}

	// Identical vectors -> similarity 1
	if sim, err := CosineSimilarity(a, c); err != nil || math.Abs(sim-1) > 1e-9 {
		t.Fatalf("CosineSimilarity(a,c) = %v, %v; want 1, nil", sim, err)
	}

	if _, err := CosineSimilarity(a, []float32{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("CosineSimilarity dim mismatch err = %v, want ErrDimensionMismatch", err)
	}
}

func TestMetricDistance(t *testing.T) {
	zero := []float32{0, 0}
	threeFour := []float32{3, 4}

	d, err := L2.Distance(zero, threeFour)
	if err != nil {
		t.Fatalf("L2 distance failed: %v", err)
	}
	if math.Abs(d-5) > 1e-5 {
		t.Fatalf("L2 (0,0)-(3,4) = %v, want 5", d)
	}

	d, err = Cosine.Distance([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("cosine distance failed: %v", err)
	}
	if math.Abs(d-1) > 1e-5 {
		t.Fatalf("cosine distance orthogonal = %v, want 1", d)
	}

	d, err = Cosine.Distance(zero, threeFour)
	if err != nil || d != 1 {
		t.Fatalf("cosine distance with zero vector = %v, %v; want 1, nil", d, err)
	}

	d, err = Dot.Distance([]float32{1, 2}, []float32{3, 4})
	if err != nil || d != -11 {
		t.Fatalf("dot distance = %v, %v; want -11, nil", d, err)
	}

	if _, err := L2.Distance(zero, []float32{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParseMetric(t *testing.T) {
	cases := map[string]Metric{"": L2, "L2": L2, "euclidean": L2, "cosine": Cosine, "dot": Dot}
	for in, want := range cases {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMetric("hamming"); err == nil {
		t.Errorf("ParseMetric(hamming) expected error")
	}
}
