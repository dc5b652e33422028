package vec

import (
	"database/sql/driver"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"modernc.org/sqlite"
)

var vec_dist_tot = atomic.Int64{}
var vec_dist_mar = atomic.Int64{}
var vec_dist_count = atomic.Int64{}

func Statistics() {

	if vec_dist_count.Load() > 0 {
		avg := time.Duration(vec_dist_tot.Load() / vec_dist_count.Load())
		slog.Default().Debug("vec_dist comparison stats",
			"vec_dist_count", vec_dist_count.Load(),
			"vec_dist_tot", time.Duration(vec_dist_tot.Load()),
			"unmarshaling", time.Duration(vec_dist_mar.Load()),
			"avg", avg)
	}

}

func init() {

	sqlite.MustRegisterDeterministicScalarFunction("vec_dist", 2, func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		start := time.Now()
		defer func() {
			vec_dist_tot.Add(int64(time.Since(start)))
			vec_dist_count.Add(1)
		}()

		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}

		leftbin, ok := args[0].([]byte)
		if !ok {
			return nil, fmt.Errorf("expected blob, got %T", args[0])
		}
		rightbin, ok := args[1].([]byte)
		if !ok {
			return nil, fmt.Errorf("expected blob, got %T", args[1])
		}

		unmarshalStart := time.Now()
		left, err := DecodeFloat64s(leftbin)
		if err != nil {
			return nil, err
		}
		right, err := DecodeFloat64s(rightbin)
		if err != nil {
			return nil, err
		}
		vec_dist_mar.Add(int64(time.Since(unmarshalStart)))

		return CosineDistance(left, right)
	})

}
