package vptree

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/stupidcoderJung/arctic-embedding-v1/index/bruteforce"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// Index implements an L2 kNN index using a VP-tree to prune search.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
	root *node
}

type node struct {
	idx   int // index into ids/vecs
	thr   float64
	left  *node // distance to vantage point <= thr
	right *node
}

// Build constructs the VP-tree.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vptree: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.root = nil
	if len(vectors) == 0 {
		i.dim = 0
		return nil
	}
	i.dim = len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != i.dim {
			return fmt.Errorf("vptree: %w: %d vs %d", vector.ErrDimensionMismatch, len(vectors[j]), i.dim)
		}
	}
	idxs := make([]int, len(vectors))
	for k := range idxs {
		idxs[k] = k
	}
	i.root = i.build(idxs)
	return nil
}

// build picks the last element as vantage point to keep builds deterministic.
func (i *Index) build(idxs []int) *node {
	if len(idxs) == 0 {
		return nil
	}
	vp := idxs[len(idxs)-1]
	rest := idxs[:len(idxs)-1]
	n := &node{idx: vp}
	if len(rest) == 0 {
		return n
	}
	dists := make(map[int]float64, len(rest))
	for _, j := range rest {
		dists[j] = i.dist(i.vecs[vp], i.vecs[j])
	}
	sort.Slice(rest, func(a, b int) bool { return dists[rest[a]] < dists[rest[b]] })
	mid := len(rest) / 2
	n.thr = dists[rest[mid]]
	left := append([]int(nil), rest[:mid+1]...)
	right := append([]int(nil), rest[mid+1:]...)
	n.left = i.build(left)
	n.right = i.build(right)
	return n
}

func (i *Index) dist(a, b []float32) float64 {
	d, _ := vector.L2.Distance(a, b)
	return d
}

// Len reports the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Query returns up to k ids ordered by ascending Euclidean distance.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.dim == 0 || i.root == nil {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("vptree: %w: query dim %d != index dim %d", vector.ErrDimensionMismatch, len(query), i.dim)
	}
	if k <= 0 || k > len(i.ids) {
		k = len(i.ids)
	}
	h := &candidates{}
	tau := math.Inf(1)
	var search func(n *node)
	search = func(n *node) {
		if n == nil {
			return
		}
		d := i.dist(query, i.vecs[n.idx])
		if h.Len() < k {
			heap.Push(h, candidate{idx: n.idx, dist: d})
			if h.Len() == k {
				tau = (*h)[0].dist
			}
		} else if d < tau {
			heap.Pop(h)
			heap.Push(h, candidate{idx: n.idx, dist: d})
			tau = (*h)[0].dist
		}
		if d <= n.thr {
			if d-tau <= n.thr {
				search(n.left)
			}
			if d+tau >= n.thr {
				search(n.right)
			}
			return
		}
		if d+tau >= n.thr {
			search(n.right)
		}
		if d-tau <= n.thr {
			search(n.left)
		}
	}
	search(i.root)

	out := make([]candidate, h.Len())
	for n := len(out) - 1; n >= 0; n-- {
		out[n] = heap.Pop(h).(candidate)
	}
	ids := make([]string, len(out))
	dists := make([]float64, len(out))
	for n, c := range out {
		ids[n] = i.ids[c.idx]
		dists[n] = c.dist
	}
	return ids, dists, nil
}

// MarshalBinary uses the brute-force format for persistence.
func (i *Index) MarshalBinary() ([]byte, error) {
	bf := bruteforce.New(vector.L2)
	if err := bf.Build(i.ids, i.vecs); err != nil {
		return nil, err
	}
	return bf.MarshalBinary()
}

// UnmarshalBinary loads the brute-force format and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	bf := &bruteforce.Index{}
	if err := bf.UnmarshalBinary(data); err != nil {
		return err
	}
	if bf.Metric() != vector.L2 {
		return fmt.Errorf("vptree: cannot load index built for metric %q", bf.Metric())
	}
	ids, vecs := bf.Entries()
	return i.Build(ids, vecs)
}

type candidate struct {
	idx  int
	dist float64
}

// candidates is a max-heap on distance; the root is the current worst match.
type candidates []candidate

func (h candidates) Len() int            { return len(h) }
func (h candidates) Less(a, b int) bool  { return h[a].dist > h[b].dist }
func (h candidates) Swap(a, b int)       { h[a], h[b] = h[b], h[a] }
func (h *candidates) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidates) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
