package spectral_test

import (
	"math"
	"math/cmplx"
	"testing"

	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/spectral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naive is the O(n²) one-sided DFT used as an oracle.
func naive(seq []float64) []complex128 {
	n := len(seq)
	out := make([]complex128, n/2+1)
	for k := range out {
		var sum complex128
		for j, x := range seq {
			sum += complex(x, 0) * cmplx.Exp(complex(0, -2*math.Pi*float64(k*j)/float64(n)))
		}
		out[k] = sum
	}
	return out
}

func TestBinsAndFrequencies(t *testing.T) {
	assert.Equal(t, 5, spectral.Bins(8))
	assert.Equal(t, 4, spectral.Bins(7))
	assert.Equal(t, 0, spectral.Bins(0))

	assert.InDeltaSlice(t, []float64{0, 1.25, 2.5, 3.75, 5}, spectral.Frequencies(8, 0.1), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 3, 2.0 / 3}, spectral.Frequencies(5, 0.6), 1e-12)
}

func TestSpacing(t *testing.T) {
	d, err := spectral.Spacing([]float64{2, 1.5, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, d)

	_, err = spectral.Spacing([]float64{1})
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)

	_, err = spectral.Spacing([]float64{1, 1})
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
}

func TestTransformMatchesNaiveDFT(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8, 12} {
		seq := make([]float64, n)
		for i := range seq {
			seq[i] = math.Sin(0.7*float64(i)) + 0.25*float64(i%3)
		}

		spec, err := spectral.Transform(seq, 0.5)
		require.NoError(t, err)
		require.Equal(t, spectral.Bins(n), spec.Len())

		want := naive(seq)
		for k := range want {
			assert.InDelta(t, real(want[k]), real(spec.Coefficients[k]), 1e-9, "n=%d k=%d", n, k)
			assert.InDelta(t, imag(want[k]), imag(spec.Coefficients[k]), 1e-9, "n=%d k=%d", n, k)
		}
	}
}

func TestTransformerLength(t *testing.T) {
	tr, err := spectral.NewTransformer(4)
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Len())

	_, err = tr.Coefficients([]float64{1, 2, 3})
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)

	_, err = spectral.NewTransformer(0)
	assert.Error(t, err)
	_, err = spectral.Transform(nil, 1)
	assert.Error(t, err)
}

func TestConstantSignal(t *testing.T) {
	spec, err := spectral.Transform([]float64{2, 2, 2, 2}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, real(spec.Coefficients[0]), 1e-12)
	for _, c := range spec.Coefficients[1:] {
		assert.InDelta(t, 0.0, cmplx.Abs(c), 1e-12)
	}
}
