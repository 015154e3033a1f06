package index

import (
	"fmt"
	"strings"

	"github.com/stupidcoderJung/arctic-embedding-v1/index/bruteforce"
	"github.com/stupidcoderJung/arctic-embedding-v1/index/vptree"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// Kind selects an index implementation.
type Kind string

const (
	KindAuto   Kind = "auto"
	KindBrute  Kind = "brute"
	KindVPTree Kind = "vptree"
)

const (
	autoTreeMinDocs            = 4000
	autoTreeMinDim             = 64
	autoTreeMinDensity float64 = 16
)

// ParseKind resolves an index kind name; the empty string maps to KindAuto.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case "", KindAuto:
		return KindAuto, nil
	case KindBrute, "bruteforce":
		return KindBrute, nil
	case KindVPTree, "vp", "tree":
		return KindVPTree, nil
	}
	return "", fmt.Errorf("index: unknown kind %q", name)
}

// Resolve turns KindAuto into a concrete kind for a table of docCount vectors
// of the given dimension. The tree only prunes correctly under a true metric,
// so anything but L2 falls back to the brute-force scan.
func Resolve(kind Kind, metric vector.Metric, docCount, dim int) Kind {
	if metric != vector.L2 && metric != "" {
		return KindBrute
	}
	switch kind {
	case KindBrute, KindVPTree:
		return kind
	}
	if docCount >= autoTreeMinDocs && dim >= autoTreeMinDim {
		if float64(docCount)/float64(dim) >= autoTreeMinDensity {
			return KindVPTree
		}
	}
	return KindBrute
}

// New returns an empty index of the resolved kind.
func New(kind Kind, metric vector.Metric) Index {
	if kind == KindVPTree && (metric == vector.L2 || metric == "") {
		return &vptree.Index{}
	}
	return bruteforce.New(metric)
}

// KindOf reports the concrete kind of idx.
func KindOf(idx Index) Kind {
	if _, ok := idx.(*vptree.Index); ok {
		return KindVPTree
	}
	return KindBrute
}
