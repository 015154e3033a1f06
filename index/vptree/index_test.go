package vptree

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stupidcoderJung/arctic-embedding-v1/index/bruteforce"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

func randomVectors(r *rand.Rand, n, dim int) ([]string, [][]float32) {
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := range vecs {
		ids[i] = strconv.Itoa(i)
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()*2 - 1
		}
		vecs[i] = v
	}
	return ids, vecs
}

// TestMatchesBruteForce checks the tree returns the same neighbours as an
// exhaustive scan.
func TestMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	ids, vecs := randomVectors(r, 500, 8)

	tree := &Index{}
	if err := tree.Build(ids, vecs); err != nil {
		t.Fatalf("tree Build failed: %v", err)
	}
	brute := bruteforce.New(vector.L2)
	if err := brute.Build(ids, vecs); err != nil {
		t.Fatalf("brute Build failed: %v", err)
	}

	for q := 0; q < 20; q++ {
		_, query := randomVectors(r, 1, 8)
		_, wantD, err := brute.Query(query[0], 10)
		if err != nil {
			t.Fatalf("brute Query failed: %v", err)
		}
		gotIDs, gotD, err := tree.Query(query[0], 10)
		if err != nil {
			t.Fatalf("tree Query failed: %v", err)
		}
		if len(gotIDs) != 10 {
			t.Fatalf("tree returned %d results, want 10", len(gotIDs))
		}
		for i := range wantD {
			if math.Abs(gotD[i]-wantD[i]) > 1e-5 {
				t.Fatalf("query %d rank %d: tree dist %v, brute dist %v", q, i, gotD[i], wantD[i])
			}
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ids, vecs := randomVectors(r, 50, 4)
	tree := &Index{}
	if err := tree.Build(ids, vecs); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	data, err := tree.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	restored := &Index{}
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if restored.Len() != 50 {
		t.Fatalf("restored Len = %d, want 50", restored.Len())
	}
	got, d, err := restored.Query(vecs[3], 1)
	if err != nil || got[0] != ids[3] || d[0] > 1e-6 {
		t.Fatalf("restored Query = %v %v %v; want [%s] ~0", got, d, err, ids[3])
	}
}
