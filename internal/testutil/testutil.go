// Package testutil provides common testing utilities shared by the table,
// dataset and I/O tests.
//
// It consolidates the patterns the tests repeat:
// - Memory allocator setup and cleanup
// - Sampled signal tables with optional run identifiers and complex columns
// - Table and float column assertions
package testutil

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// defaultSamples is the number of samples per run in test signals.
	defaultSamples = 8
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator with automatic cleanup for tests.
// Returns a TestMemoryContext that should be released with defer.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewGoAllocator()

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			// Go allocator memory is reclaimed by the GC
		},
	}
}

// SignalOption configures test signal creation.
type SignalOption func(*signalConfig)

type signalConfig struct {
	samples int
	spacing float64
	runs    []string
	complex bool
}

// WithSamples sets the number of samples per run.
func WithSamples(n int) SignalOption {
	return func(cfg *signalConfig) {
		cfg.samples = n
	}
}

// WithSpacing sets the distance between consecutive index values.
func WithSpacing(d float64) SignalOption {
	return func(cfg *signalConfig) {
		cfg.spacing = d
	}
}

// WithRuns adds a string "run" identifier column with one block of samples
// per name.
func WithRuns(names ...string) SignalOption {
	return func(cfg *signalConfig) {
		cfg.runs = names
	}
}

// WithComplex adds a complex "z[c]" column holding exp(i·t).
func WithComplex() SignalOption {
	return func(cfg *signalConfig) {
		cfg.complex = true
	}
}

// CreateSignalFrame creates a sampled signal table.
//
// Default table includes:
// - t (float64): 0, 1, ..., 7
// - v (float64): sin(t)
//
// With WithRuns a leading "run" column is added and the samples repeat per
// run, the k-th run offset by k in v. With WithComplex a trailing "z[c]"
// column is added.
//
// Example usage:
//
//	df := testutil.CreateSignalFrame(mem.Allocator, testutil.WithRuns("A", "B"))
//	defer df.Release()
func CreateSignalFrame(allocator memory.Allocator, opts ...SignalOption) *dataframe.DataFrame {
	cfg := &signalConfig{
		samples: defaultSamples,
		spacing: 1,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	blocks := len(cfg.runs)
	if blocks == 0 {
		blocks = 1
	}
	total := blocks * cfg.samples

	runs := make([]string, 0, total)
	ts := make([]float64, 0, total)
	vs := make([]float64, 0, total)
	zs := make([]complex128, 0, total)
	for b := 0; b < blocks; b++ {
		for i := 0; i < cfg.samples; i++ {
			t := float64(i) * cfg.spacing
			if len(cfg.runs) > 0 {
				runs = append(runs, cfg.runs[b])
			}
			ts = append(ts, t)
			vs = append(vs, math.Sin(t)+float64(b))
			zs = append(zs, complex(math.Cos(t), math.Sin(t)))
		}
	}

	var cols []dataframe.ISeries
	if len(cfg.runs) > 0 {
		cols = append(cols, series.New("run", runs, allocator))
	}
	cols = append(cols,
		series.New("t", ts, allocator),
		series.New("v", vs, allocator),
	)
	if cfg.complex {
		cols = append(cols, series.New("z[c]", zs, allocator))
	}
	return dataframe.New(cols...)
}

// CreateSimpleTestDataFrame creates a two-column table for basic testing.
func CreateSimpleTestDataFrame(allocator memory.Allocator) *dataframe.DataFrame {
	t := series.New("t", []float64{0, 1, 2}, allocator)
	v := series.New("v", []float64{1, 2, 3}, allocator)

	return dataframe.New(t, v)
}

// AssertDataFrameEqual compares two tables cell by cell on their string form.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")

	for _, colName := range expected.Columns() {
		expectedCol, _ := expected.Column(colName)
		actualCol, exists := actual.Column(colName)
		require.True(t, exists, "actual column %s should exist", colName)
		assert.Equal(t, expectedCol.DataType().String(), actualCol.DataType().String(),
			"column %s types should match", colName)
		for i := 0; i < expectedCol.Len() && i < actualCol.Len(); i++ {
			assert.Equal(t, expectedCol.GetAsString(i), actualCol.GetAsString(i),
				"column %s row %d should match", colName, i)
		}
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has exactly the expected columns, in order.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Equal(t, expectedColumns, df.Columns())
}

// AssertDataFrameNotEmpty verifies that a DataFrame is not empty.
func AssertDataFrameNotEmpty(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Positive(t, df.Len(), "DataFrame should not be empty")
	assert.Positive(t, df.Width(), "DataFrame should have columns")
}

// AssertFloatColumn compares a numeric column with want within delta. NaN
// matches NaN.
func AssertFloatColumn(t *testing.T, df *dataframe.DataFrame, name string, want []float64, delta float64) {
	t.Helper()

	got, err := df.Float64Values(name)
	require.NoError(t, err)
	require.Len(t, got, len(want), "column %s length", name)
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "column %s row %d should be NaN, got %g", name, i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], delta, "column %s row %d", name, i)
	}
}

// StringColumn returns the string form of every row of a column.
func StringColumn(t *testing.T, df *dataframe.DataFrame, name string) []string {
	t.Helper()

	s, ok := df.Column(name)
	require.True(t, ok, "column %s should exist", name)
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.GetAsString(i)
	}
	return out
}
