package dataset_test

import (
	"math"
	"testing"

	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/dataset"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/expr"
	"github.com/paveg/phasor/internal/series"
	"github.com/paveg/phasor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(t *testing.T, opts ...testutil.SignalOption) *dataset.Dataset {
	t.Helper()
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	df := testutil.CreateSignalFrame(mem.Allocator, opts...)
	var ids []string
	if df.HasColumn("run") {
		ids = append(ids, "run")
	}
	ds, err := dataset.New(df, "t", ids...)
	require.NoError(t, err)
	return ds
}

func TestNewValidatesRoles(t *testing.T) {
	tests := []struct {
		name   string
		index  string
		idVars []string
		want   error
	}{
		{"missing index", "time", nil, dferrors.ErrRoleViolation},
		{"empty index", "", nil, dferrors.ErrRoleViolation},
		{"missing identifier", "t", []string{"probe"}, dferrors.ErrColumnNotFound},
		{"identifier is the index", "t", []string{"t"}, dferrors.ErrInvalidInput},
		{"duplicate identifier", "t", []string{"v", "v"}, dferrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := testutil.SetupMemoryTest(t)
			defer mem.Release()
			df := testutil.CreateSimpleTestDataFrame(mem.Allocator)
			defer df.Release()

			_, err := dataset.New(df, tt.index, tt.idVars...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := dataset.New(nil, "t")
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
}

func TestAccessors(t *testing.T) {
	ds := signal(t, testutil.WithRuns("A"), testutil.WithComplex(), testutil.WithSamples(3))
	defer ds.Release()

	assert.Equal(t, "t", ds.Index())
	assert.Equal(t, []string{"run"}, ds.IDVars())
	assert.Equal(t, []string{"v", "z[c]"}, ds.ValueVars())
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 4, ds.Width())
	assert.Contains(t, ds.String(), "index=t")
	assert.Contains(t, ds.String(), "id_vars=run")

	frame := ds.Frame()
	defer frame.Release()
	assert.Equal(t, ds.Columns(), frame.Columns())
}

func TestSelectPreservesIndex(t *testing.T) {
	ds := signal(t, testutil.WithRuns("A"))
	defer ds.Release()

	t.Run("identifier pruned", func(t *testing.T) {
		out, err := ds.Select("t", "v")
		require.NoError(t, err)
		defer out.Release()
		assert.Empty(t, out.IDVars())
		assert.Equal(t, "t", out.Index())
	})

	t.Run("index dropped", func(t *testing.T) {
		_, err := ds.Select("run", "v")
		assert.ErrorIs(t, err, dferrors.ErrRoleViolation)

		_, err = ds.Drop("t")
		assert.ErrorIs(t, err, dferrors.ErrRoleViolation)
	})

	t.Run("plain table", func(t *testing.T) {
		df, err := ds.SelectFrame("v")
		require.NoError(t, err)
		defer df.Release()
		assert.Equal(t, []string{"v"}, df.Columns())
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ds.Select("t", "missing")
		assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)
	})
}

func TestRenameFollowsRoles(t *testing.T) {
	ds := signal(t, testutil.WithRuns("A"))
	defer ds.Release()

	out, err := ds.Rename(map[string]string{"t": "time", "run": "sweep"})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, "time", out.Index())
	assert.Equal(t, []string{"sweep"}, out.IDVars())
	assert.Equal(t, []string{"sweep", "time", "v"}, out.Columns())
}

func TestWithColumnsAndFilter(t *testing.T) {
	ds := signal(t, testutil.WithSamples(4))
	defer ds.Release()

	doubled, err := ds.WithColumns(expr.Alias(expr.Mul(expr.Col("v"), expr.Lit(2.0)), "w"))
	require.NoError(t, err)
	defer doubled.Release()
	assert.Equal(t, []string{"v", "w"}, doubled.ValueVars())

	late, err := doubled.Filter(expr.Gt(expr.Col("t"), expr.Lit(1.5)))
	require.NoError(t, err)
	defer late.Release()
	assert.Equal(t, 2, late.Len())
}

func TestSortColumnsAndSortAuto(t *testing.T) {
	df := dataframe.New(
		series.New("v", []float64{3, 1, 2, 4}, nil),
		series.New("t", []float64{1, 0, 0, 1}, nil),
		series.New("run", []string{"B", "B", "A", "A"}, nil),
	)
	ds, err := dataset.New(df, "t", "run")
	require.NoError(t, err)
	defer ds.Release()

	cols, err := ds.SortColumns()
	require.NoError(t, err)
	defer cols.Release()
	assert.Equal(t, []string{"run", "t", "v"}, cols.Columns())

	rows, err := cols.SortAuto()
	require.NoError(t, err)
	defer rows.Release()
	out := rows.Frame()
	defer out.Release()
	assert.Equal(t, []string{"A", "B", "A", "B"}, testutil.StringColumn(t, out, "run"))
	testutil.AssertFloatColumn(t, out, "v", []float64{2, 1, 4, 3}, 0)
}

func TestJoinIdentifierUnion(t *testing.T) {
	left, err := dataset.New(dataframe.New(
		series.New("t", []float64{0, 1}, nil),
		series.New("v", []float64{1, 2}, nil),
	), "t")
	require.NoError(t, err)
	defer left.Release()

	right, err := dataset.New(dataframe.New(
		series.New("t", []float64{0, 1}, nil),
		series.New("probe", []string{"p", "p"}, nil),
		series.New("w", []float64{5, 6}, nil),
	), "t", "probe")
	require.NoError(t, err)
	defer right.Release()

	joined, err := left.Join(right, &dataframe.JoinOptions{On: []string{"t"}})
	require.NoError(t, err)
	defer joined.Release()
	assert.Equal(t, "t", joined.Index())
	assert.Equal(t, []string{"probe"}, joined.IDVars())
	assert.Equal(t, []string{"v", "w"}, joined.ValueVars())

	plain := dataframe.New(series.New("t", []float64{1}, nil), series.New("gain", []float64{10}, nil))
	defer plain.Release()
	framed, err := left.JoinFrame(plain, &dataframe.JoinOptions{On: []string{"t"}})
	require.NoError(t, err)
	defer framed.Release()
	assert.Equal(t, 1, framed.Len())
	assert.Empty(t, framed.IDVars())
}

func TestFromDatasetsAndCombine(t *testing.T) {
	a := signal(t, testutil.WithRuns("A"), testutil.WithSamples(2))
	defer a.Release()
	b := signal(t, testutil.WithRuns("B"), testutil.WithSamples(3))
	defer b.Release()

	combined, err := dataset.FromDatasets(a, b)
	require.NoError(t, err)
	defer combined.Release()
	assert.Equal(t, 5, combined.Len())
	assert.Equal(t, []string{"run"}, combined.IDVars())

	renamed, err := b.Rename(map[string]string{"t": "time"})
	require.NoError(t, err)
	defer renamed.Release()
	_, err = dataset.FromDatasets(a, renamed)
	assert.ErrorIs(t, err, dferrors.ErrHeterogeneous)

	_, err = dataset.FromDatasets(a, nil)
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
	_, err = dataset.FromDatasets(nil, a)
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)

	t.Run("datasets", func(t *testing.T) {
		out, err := dataset.Combine("", nil, a, b)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, 5, out.Len())
	})

	t.Run("frames", func(t *testing.T) {
		fa, fb := a.Frame(), b.Frame()
		defer fa.Release()
		defer fb.Release()

		out, err := dataset.Combine("t", []string{"run"}, fa, fb)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, 5, out.Len())

		_, err = dataset.Combine("", nil, fa, fb)
		assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
	})

	t.Run("mixed", func(t *testing.T) {
		fb := b.Frame()
		defer fb.Release()

		_, err := dataset.Combine("t", nil, a, fb)
		assert.ErrorIs(t, err, dferrors.ErrHeterogeneous)
	})
}

func TestLargeIntegerIdentifiers(t *testing.T) {
	df := dataframe.New(
		series.New("shot", []int64{1700000000000000001, 1700000000000000001, 1700000000000000002, 1700000000000000002}, nil),
		series.New("t", []float64{0, 1, 0, 1}, nil),
		series.New("v", []float64{1, 2, 3, 5}, nil),
	)
	ds, err := dataset.New(df, "t", "shot")
	require.NoError(t, err)
	defer ds.Release()

	sizes, err := ds.Sizes()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, sizes)

	spectrum, err := ds.FourierTransform()
	require.NoError(t, err)
	defer spectrum.Release()
	assert.Equal(t, 4, spectrum.Len())

	re, err := spectrum.Float64Values("v.real")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, -1, 8, -2}, re, 1e-9)
}

func TestSet(t *testing.T) {
	ds := signal(t, testutil.WithRuns("A"), testutil.WithSamples(2))
	defer ds.Release()

	out, err := ds.Set("", []string{})
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, "t", out.Index())
	assert.Empty(t, out.IDVars())

	_, err = ds.Set("missing", nil)
	assert.ErrorIs(t, err, dferrors.ErrRoleViolation)
}

func TestPipe(t *testing.T) {
	ds := signal(t, testutil.WithSamples(4))
	defer ds.Release()

	out, err := ds.Pipe(func(in *dataset.Dataset) (*dataset.Dataset, error) {
		return in.Select("t")
	})
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []string{"t"}, out.Columns())
}

func TestDropNaN(t *testing.T) {
	df := dataframe.New(
		series.New("t", []float64{0, 1, 2, 3}, nil),
		series.New("v", []float64{1, math.NaN(), 3, 4}, nil),
		series.New("z[c]", []complex128{1, 2, complex(3, math.NaN()), 4}, nil),
		series.New("n", []int64{1, 2, 3, 4}, nil),
	)
	ds, err := dataset.New(df, "t")
	require.NoError(t, err)
	defer ds.Release()

	all, err := ds.DropNaN()
	require.NoError(t, err)
	defer all.Release()
	frame := all.Frame()
	defer frame.Release()
	testutil.AssertFloatColumn(t, frame, "t", []float64{0, 3}, 0)

	some, err := ds.DropNaN("v")
	require.NoError(t, err)
	defer some.Release()
	assert.Equal(t, 3, some.Len())

	_, err = ds.DropNaN("missing")
	assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)
}

func TestCoordExtremaSizes(t *testing.T) {
	ds := signal(t, testutil.WithRuns("B", "A", "C"), testutil.WithSamples(2))
	defer ds.Release()

	coord, err := ds.Coord("run")
	require.NoError(t, err)
	defer coord.Release()
	require.Equal(t, 3, coord.Len())
	assert.Equal(t, []string{"B", "A", "C"}, []string{coord.GetAsString(0), coord.GetAsString(1), coord.GetAsString(2)})

	sizes, err := ds.Sizes()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, sizes)

	lo, hi, err := ds.Extrema("t")
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	nan, err := dataset.New(dataframe.New(
		series.New("t", []float64{0, 1, 2}, nil),
		series.New("v", []float64{math.NaN(), -2, 5}, nil),
	), "t")
	require.NoError(t, err)
	defer nan.Release()
	lo, hi, err = nan.Extrema("v")
	require.NoError(t, err)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 5.0, hi)

	_, err = ds.Coord("missing")
	assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)
	_, _, err = ds.Extrema("run")
	assert.ErrorIs(t, err, dferrors.ErrUnsupportedType)
}
