package dataset

import (
	"context"
	"time"

	"github.com/paveg/phasor/internal/config"
	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/logging"
	"github.com/paveg/phasor/internal/monitoring"
	"github.com/paveg/phasor/internal/parallel"
	"github.com/paveg/phasor/internal/regrid"
	"github.com/paveg/phasor/internal/series"
)

// Option configures a grouped transform (Regrid, FourierTransform)
type Option func(*options)

type options struct {
	ctx       context.Context
	method    regrid.Method
	interp    []regrid.Option
	threshold int
	workers   int
}

// WithMethod selects the interpolation method used by Regrid
func WithMethod(m regrid.Method) Option {
	return func(o *options) {
		o.method = m
	}
}

// WithFill makes Regrid write v at axis positions outside a group's samples
func WithFill(v float64) Option {
	return func(o *options) {
		o.interp = append(o.interp, regrid.WithFill(v))
	}
}

// WithWorkers sets the number of goroutines used for groups
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithParallelThreshold sets the group count from which groups are processed
// concurrently. Zero or less disables concurrency.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		o.threshold = n
	}
}

// WithContext sets the context used for cancellation and logging
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// newOptions starts from the global configuration and applies opts
func newOptions(opts []Option) options {
	cfg := config.GetGlobalConfig()
	method, err := regrid.ParseMethod(cfg.Interpolation)
	if err != nil {
		method = regrid.DefaultMethod
	}
	o := options{
		ctx:       context.Background(),
		method:    method,
		threshold: cfg.ParallelThreshold,
		workers:   cfg.Workers(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// runStats describes how a grouped transform ran
type runStats struct {
	groups   int
	parallel bool
}

// record runs a transform under the global metrics collector and logs it
func record(o options, op string, fn func() (*Dataset, runStats, error)) (*Dataset, error) {
	var (
		result *Dataset
		stats  runStats
	)
	start := time.Now()
	err := monitoring.RecordGlobalOperation(op, func() (monitoring.Outcome, error) {
		var err error
		result, stats, err = fn()
		outcome := monitoring.Outcome{Groups: stats.groups, Parallel: stats.parallel}
		if result != nil {
			outcome.Rows = int64(result.Len())
		}
		return outcome, err
	})

	rows := 0
	if result != nil {
		rows = result.Len()
	}
	logging.Default().LogTransform(o.ctx, op, stats.groups, rows, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// eachGroup applies work to every group, concurrently once the group count
// reaches the threshold. Results keep group order.
func eachGroup(o options, groups []dataframe.Group,
	work func(int, dataframe.Group) (*dataframe.DataFrame, error),
) ([]*dataframe.DataFrame, runStats, error) {
	stats := runStats{groups: len(groups)}
	if parallel.ShouldParallelize(len(groups), o.threshold) {
		stats.parallel = true
		logging.Default().DebugContext(o.ctx, "processing groups concurrently",
			"groups", len(groups),
			"workers", o.workers,
		)
		pool := parallel.NewWorkerPoolContext(o.ctx, o.workers)
		defer pool.Close()
		parts, err := parallel.ProcessIndexedErr(pool, groups, work)
		if err != nil {
			releaseFrames(parts)
			return nil, stats, err
		}
		return parts, stats, nil
	}

	parts := make([]*dataframe.DataFrame, 0, len(groups))
	for i, g := range groups {
		if err := o.ctx.Err(); err != nil {
			releaseFrames(parts)
			return nil, stats, err
		}
		part, err := work(i, g)
		if err != nil {
			releaseFrames(parts)
			return nil, stats, err
		}
		parts = append(parts, part)
	}
	return parts, stats, nil
}

// concatParts stacks group results and releases them
func concatParts(parts []*dataframe.DataFrame) (*dataframe.DataFrame, error) {
	defer releaseFrames(parts)
	return parts[0].Concat(parts[1:]...)
}

func releaseFrames(frames []*dataframe.DataFrame) {
	for _, f := range frames {
		if f != nil {
			f.Release()
		}
	}
}

// broadcast repeats the first row of keys n times. The caller owns the
// returned series.
func broadcast(df *dataframe.DataFrame, keys []string, n int) ([]dataframe.ISeries, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	keyFrame := df.Select(keys...)
	defer keyFrame.Release()
	repeated, err := keyFrame.Take(make([]int, n))
	if err != nil {
		return nil, err
	}
	defer repeated.Release()

	cols := make([]dataframe.ISeries, 0, len(keys))
	for _, key := range keys {
		s, _ := repeated.Column(key)
		cols = append(cols, series.Rename(s, key))
	}
	return cols, nil
}
