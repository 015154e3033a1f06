package engine

import (
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterVectorFunctions registers vec_l2, vec_cosine and vec_dot with the
// driver so they are available on connections opened after this call. Each
// takes two embedding BLOBs and returns the distance under the matching
// vector.Metric. Repeated calls are no-ops.
func RegisterVectorFunctions() error {
	var err error
	registerOnce.Do(func() {
		for name, metric := range map[string]vector.Metric{
			"vec_l2":     vector.L2,
			"vec_cosine": vector.Cosine,
			"vec_dot":    vector.Dot,
		} {
			if err = sqlite.RegisterDeterministicScalarFunction(name, 2, distanceFunc(name, metric)); err != nil {
				return
			}
		}
	})
	return err
}

func distanceFunc(name string, metric vector.Metric) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asEmbedding(args[0])
		if err != nil {
			return nil, err
		}
		b, err := asEmbedding(args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return metric.Distance(a, b)
	}
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for embedding; want BLOB", arg)
	}
}
