package lockin

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/paveg/phasor/internal/config"
	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/dataset"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/io"
	"github.com/paveg/phasor/internal/logging"
	"github.com/paveg/phasor/internal/monitoring"
	"github.com/paveg/phasor/internal/series"
	"github.com/paveg/phasor/internal/validation"
	"golang.org/x/sync/errgroup"
)

// Channel names one output column. A channel with Y set is built from an
// (X, Y) pair rotated to zero quadrature; otherwise X is copied as is.
type Channel struct {
	Name string
	X    string
	Y    string
}

// Source is one recording and the identifier values that describe it
type Source struct {
	Path string
	IDs  map[string]any
}

// Spec describes how to read and assemble recordings
type Spec struct {
	// Columns names the file columns in order
	Columns  []string
	Index    string
	Channels []Channel
	IDVars   []string
	// CSV overrides the tab-separated, headerless default
	CSV *io.CSVOptions
}

func (s Spec) validate(sources []Source) error {
	const op = "Assemble"
	if len(sources) == 0 {
		return dferrors.NewInvalidInputError(op, "no sources")
	}
	if s.Index == "" {
		return dferrors.NewInvalidInputError(op, "index is required")
	}
	if !slices.Contains(s.Columns, s.Index) {
		return dferrors.NewColumnNotFoundError(op, s.Index)
	}
	if len(s.Channels) == 0 {
		return dferrors.NewInvalidInputError(op, "no channels")
	}
	for _, ch := range s.Channels {
		if ch.Name == "" {
			return dferrors.NewInvalidInputError(op, "channel without a name")
		}
		for _, col := range []string{ch.X, ch.Y} {
			if col != "" && !slices.Contains(s.Columns, col) {
				return dferrors.NewColumnNotFoundError(op, col)
			}
		}
		if ch.X == "" {
			return dferrors.NewInvalidInputError(op, fmt.Sprintf("channel %s has no X column", ch.Name))
		}
	}
	for _, src := range sources {
		for _, id := range s.IDVars {
			if _, ok := src.IDs[id]; !ok {
				return dferrors.NewInvalidInputError(op, fmt.Sprintf("%s: missing identifier %s", src.Path, id))
			}
		}
	}
	return nil
}

func (s Spec) csvOptions() io.CSVOptions {
	if s.CSV != nil {
		opts := *s.CSV
		opts.ColumnNames = s.Columns
		return opts
	}
	return io.DataCSVOptions(s.Columns...)
}

// Assemble reads every source, rotates each channel pair to zero quadrature
// and stacks the recordings into one dataset indexed by spec.Index. Files are
// read concurrently; the result keeps source order.
func Assemble(ctx context.Context, sources []Source, spec Spec) (*dataset.Dataset, error) {
	if err := spec.validate(sources); err != nil {
		return nil, err
	}

	var result *dataset.Dataset
	start := time.Now()
	err := monitoring.RecordGlobalOperation("Assemble", func() (monitoring.Outcome, error) {
		frames := make([]*dataframe.DataFrame, len(sources))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(config.GetGlobalConfig().Workers())
		for i, src := range sources {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				df, err := loadSource(gctx, src, spec)
				if err != nil {
					return err
				}
				frames[i] = df
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			releaseFrames(frames)
			return monitoring.Outcome{}, err
		}

		combined, err := frames[0].Concat(frames[1:]...)
		releaseFrames(frames)
		if err != nil {
			return monitoring.Outcome{}, err
		}
		result, err = dataset.New(combined, spec.Index, spec.IDVars...)
		if err != nil {
			combined.Release()
			return monitoring.Outcome{}, err
		}
		return monitoring.Outcome{Rows: int64(result.Len()), Groups: len(sources)}, nil
	})

	rows := 0
	if result != nil {
		rows = result.Len()
	}
	logging.Default().LogTransform(ctx, "Assemble", len(sources), rows, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadSource reads one file into (ids, index, channels) order sorted by the
// index.
func loadSource(ctx context.Context, src Source, spec Spec) (*dataframe.DataFrame, error) {
	raw, err := io.ReadCSVFile(src.Path, spec.csvOptions())
	logging.Default().LogFile(ctx, "load", src.Path, rowsOf(raw), err)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Path, err)
	}
	defer raw.Release()

	var pairs []string
	for _, ch := range spec.Channels {
		if ch.Y != "" {
			pairs = append(pairs, ch.X, ch.Y)
		}
	}
	check := validation.NewCompoundValidator(
		validation.NewMinRowsValidator(raw, 1, "Assemble", src.Path),
		validation.NewNumericValidator(raw, "Assemble", pairs...),
	)
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}

	n := raw.Len()
	cols := make([]dataframe.ISeries, 0, len(spec.IDVars)+1+len(spec.Channels))
	fail := func(err error) (*dataframe.DataFrame, error) {
		for _, c := range cols {
			c.Release()
		}
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}

	for _, id := range spec.IDVars {
		s, err := constant(id, src.IDs[id], n)
		if err != nil {
			return fail(err)
		}
		cols = append(cols, s)
	}

	index, _ := raw.Column(spec.Index)
	cols = append(cols, series.Rename(index, spec.Index))

	for _, ch := range spec.Channels {
		if ch.Y == "" {
			x, _ := raw.Column(ch.X)
			cols = append(cols, series.Rename(x, ch.Name))
			continue
		}
		x, err := raw.Float64Values(ch.X)
		if err != nil {
			return fail(err)
		}
		y, err := raw.Float64Values(ch.Y)
		if err != nil {
			return fail(err)
		}
		rot, err := ZeroQuadrature(x, y)
		if err != nil {
			return fail(err)
		}
		logging.Default().DebugContext(ctx, "zero quadrature",
			"path", src.Path,
			"channel", ch.Name,
			"phase", rot.Phase,
		)
		cols = append(cols, series.New(ch.Name, rot.InPhase, nil))
	}

	df := dataframe.New(cols...)
	defer df.Release()
	sorted, err := df.Sort(append([]string{spec.Index}, spec.IDVars...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}
	return sorted, nil
}

// constant builds a column holding v n times
func constant(name string, v any, n int) (dataframe.ISeries, error) {
	switch typed := v.(type) {
	case string:
		return series.New(name, repeat(typed, n), nil), nil
	case int:
		return series.New(name, repeat(int64(typed), n), nil), nil
	case int64:
		return series.New(name, repeat(typed, n), nil), nil
	case float64:
		return series.New(name, repeat(typed, n), nil), nil
	case bool:
		return series.New(name, repeat(typed, n), nil), nil
	default:
		return nil, dferrors.NewUnsupportedTypeError("Assemble", name, fmt.Sprintf("%T", v))
	}
}

func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rowsOf(df *dataframe.DataFrame) int {
	if df == nil {
		return 0
	}
	return df.Len()
}

func releaseFrames(frames []*dataframe.DataFrame) {
	for _, f := range frames {
		if f != nil {
			f.Release()
		}
	}
}
