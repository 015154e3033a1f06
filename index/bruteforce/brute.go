package bruteforce

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// Index is a brute-force vector index.
type Index struct {
	metric vector.Metric
	ids    []string
	vecs   [][]float32
	dim    int
}

// New returns an empty index scoring with metric (L2 when empty).
func New(metric vector.Metric) *Index {
	if metric == "" {
		metric = vector.L2
	}
	return &Index{metric: metric}
}

// Metric reports the metric used for scoring.
func (i *Index) Metric() vector.Metric {
	if i.metric == "" {
		return vector.L2
	}
	return i.metric
}

// Build loads ids and vectors.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.dim = nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: %w: %d vs %d", vector.ErrDimensionMismatch, len(vectors[j]), dim)
		}
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	return nil
}

// Len reports the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the top-k ids by ascending distance. Ties keep build order.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: %w: query dim %d != index dim %d", vector.ErrDimensionMismatch, len(query), i.dim)
	}
	type scored struct {
		idx  int
		dist float64
	}
	metric := i.Metric()
	scoreds := make([]scored, 0, len(i.vecs))
	for j := range i.vecs {
		d, err := metric.Distance(query, i.vecs[j])
		if err != nil {
			return nil, nil, err
		}
		if math.IsNaN(d) {
			continue
		}
		scoreds = append(scoreds, scored{idx: j, dist: d})
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].dist < scoreds[b].dist })
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outDists := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outDists[n] = scoreds[n].dist
	}
	return outIDs, outDists, nil
}

// Entries exposes the indexed ids and vectors in build order.
func (i *Index) Entries() ([]string, [][]float32) { return i.ids, i.vecs }

// MarshalBinary stores: metricLen(uint32), metric, dim(uint32), n(uint32),
// then for each item: idLen(uint32), id bytes, vec(float32[dim]).
func (i *Index) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	metric := string(i.Metric())
	putU32(&buf, uint32(len(metric)))
	buf.WriteString(metric)
	putU32(&buf, uint32(i.dim))
	putU32(&buf, uint32(len(i.ids)))
	for idx, id := range i.ids {
		putU32(&buf, uint32(len(id)))
		buf.WriteString(id)
		buf.Write(vector.EncodeEmbedding(i.vecs[idx]))
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	r := reader{data: data}
	metric := r.str()
	dim := int(r.u32())
	n := int(r.u32())
	if r.err != nil {
		return r.err
	}
	ids := make([]string, 0, n)
	vecs := make([][]float32, 0, n)
	for idx := 0; idx < n; idx++ {
		id := r.str()
		raw := r.bytes(4 * dim)
		if r.err != nil {
			return r.err
		}
		vec, err := vector.DecodeEmbedding(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
	}
	i.metric = vector.Metric(metric)
	return i.Build(ids, vecs)
}

var errTruncated = errors.New("bruteforce: truncated data")

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errTruncated
		return nil
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) str() string {
	n := int(r.u32())
	return string(r.bytes(n))
}
