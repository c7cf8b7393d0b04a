package lockin_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/lockin"
	"github.com/paveg/phasor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroQuadrature(t *testing.T) {
	t.Run("signal in Y moves to X", func(t *testing.T) {
		y := []float64{1, 2, -1}
		rot, err := lockin.ZeroQuadrature([]float64{0, 0, 0}, y)
		require.NoError(t, err)

		assert.InDelta(t, -math.Pi/2, rot.Phase, 1e-12)
		assert.InDeltaSlice(t, y, rot.InPhase, 1e-12)
		assert.InDeltaSlice(t, []float64{0, 0, 0}, rot.Quadrature, 1e-12)
	})

	t.Run("signal in X is unchanged", func(t *testing.T) {
		x := []float64{0.5, -2, 3}
		rot, err := lockin.ZeroQuadrature(x, []float64{0, 0, 0})
		require.NoError(t, err)

		assert.Zero(t, rot.Phase)
		assert.Equal(t, x, rot.InPhase)
	})

	t.Run("constant phase offset is removed", func(t *testing.T) {
		const theta = 0.7
		amplitudes := []float64{1, -0.5, 2, 3, -1.5}
		x := make([]float64, len(amplitudes))
		y := make([]float64, len(amplitudes))
		for i, a := range amplitudes {
			x[i] = a * math.Cos(theta)
			y[i] = a * math.Sin(theta)
		}

		rot, err := lockin.ZeroQuadrature(x, y)
		require.NoError(t, err)
		assert.InDelta(t, -theta, rot.Phase, 1e-12)
		assert.InDeltaSlice(t, amplitudes, rot.InPhase, 1e-12)
		for _, q := range rot.Quadrature {
			assert.InDelta(t, 0, q, 1e-12)
		}
	})

	t.Run("no preferred direction", func(t *testing.T) {
		assert.Zero(t, lockin.Phase([]float64{1, 0}, []float64{0, 1}))
		assert.Zero(t, lockin.Phase(nil, nil))
	})

	t.Run("missing samples are rotated but ignored by the fit", func(t *testing.T) {
		rot, err := lockin.ZeroQuadrature([]float64{0, math.NaN(), 0}, []float64{1, 5, 2})
		require.NoError(t, err)

		assert.InDelta(t, -math.Pi/2, rot.Phase, 1e-12)
		assert.True(t, math.IsNaN(rot.InPhase[1]))
		assert.InDelta(t, 2, rot.InPhase[2], 1e-12)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := lockin.ZeroQuadrature([]float64{1}, []float64{1, 2})
		assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
	})
}

// writeRecording writes a headerless tab-separated lock-in export whose (X, Y)
// pair carries amplitude a at phase theta.
func writeRecording(t *testing.T, dir, name string, ts, amplitudes []float64, theta float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# lock-in export\n")
	for i, a := range amplitudes {
		fmt.Fprintf(&b, "%g\t%g\t%g\t%g\n", ts[i], a*math.Cos(theta), a*math.Sin(theta), 10*a)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func assemblySpec() lockin.Spec {
	return lockin.Spec{
		Columns: []string{"t", "X", "Y", "aux"},
		Index:   "t",
		Channels: []lockin.Channel{
			{Name: "R", X: "X", Y: "Y"},
			{Name: "aux", X: "aux"},
		},
		IDVars: []string{"run", "temp"},
	}
}

func TestAssemble(t *testing.T) {
	dir := t.TempDir()
	sources := []lockin.Source{
		{
			Path: writeRecording(t, dir, "a.dat", []float64{2, 0, 1}, []float64{3, 1, 2}, 0.3),
			IDs:  map[string]any{"run": "A", "temp": 4},
		},
		{
			Path: writeRecording(t, dir, "b.dat", []float64{1, 0}, []float64{-2, -1}, -1.1),
			IDs:  map[string]any{"run": "B", "temp": 4},
		},
	}

	ds, err := lockin.Assemble(context.Background(), sources, assemblySpec())
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, "t", ds.Index())
	assert.Equal(t, []string{"run", "temp"}, ds.IDVars())
	assert.Equal(t, []string{"run", "temp", "t", "R", "aux"}, ds.Columns())

	frame := ds.Frame()
	defer frame.Release()
	assert.Equal(t, []string{"A", "A", "A", "B", "B"}, testutil.StringColumn(t, frame, "run"))
	testutil.AssertFloatColumn(t, frame, "t", []float64{0, 1, 2, 0, 1}, 0)
	testutil.AssertFloatColumn(t, frame, "temp", []float64{4, 4, 4, 4, 4}, 0)
	testutil.AssertFloatColumn(t, frame, "R", []float64{1, 2, 3, -1, -2}, 1e-9)
	testutil.AssertFloatColumn(t, frame, "aux", []float64{10, 20, 30, -10, -20}, 1e-9)
}

func TestAssembleErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "a.dat", []float64{0, 1}, []float64{1, 2}, 0)
	good := []lockin.Source{{Path: path, IDs: map[string]any{"run": "A", "temp": 1}}}
	ctx := context.Background()

	_, err := lockin.Assemble(ctx, nil, assemblySpec())
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)

	_, err = lockin.Assemble(ctx, []lockin.Source{{Path: path, IDs: map[string]any{"run": "A"}}}, assemblySpec())
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)

	spec := assemblySpec()
	spec.Channels = append(spec.Channels, lockin.Channel{Name: "P", X: "X", Y: "phase"})
	_, err = lockin.Assemble(ctx, good, spec)
	assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)

	spec = assemblySpec()
	spec.Columns = []string{"t", "X", "Y"}
	spec.Channels = spec.Channels[:1]
	_, err = lockin.Assemble(ctx, good, spec)
	assert.Error(t, err, "column count does not match the file")

	missing := []lockin.Source{{Path: filepath.Join(dir, "absent.dat"), IDs: map[string]any{"run": "A", "temp": 1}}}
	_, err = lockin.Assemble(ctx, missing, assemblySpec())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := []lockin.Source{{Path: path, IDs: map[string]any{"run": "A", "temp": []int{1}}}}
	_, err = lockin.Assemble(ctx, bad, assemblySpec())
	assert.ErrorIs(t, err, dferrors.ErrUnsupportedType)
}
