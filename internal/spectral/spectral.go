// Package spectral wraps gonum's real FFT with the frequency grid used by
// dataset Fourier transforms.
package spectral

import (
	"fmt"
	"math"

	dferrors "github.com/paveg/phasor/internal/errors"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum holds the one-sided transform of a real sequence
type Spectrum struct {
	Freq         []float64
	Coefficients []complex128
}

// Len returns the number of frequency bins, n/2+1 for n samples
func (s Spectrum) Len() int {
	return len(s.Freq)
}

// Bins returns the number of bins a real FFT of n samples produces
func Bins(n int) int {
	if n <= 0 {
		return 0
	}
	return n/2 + 1
}

// Frequencies returns i/(n·d) for i in 0..n/2
func Frequencies(n int, d float64) []float64 {
	out := make([]float64, Bins(n))
	for i := range out {
		out[i] = float64(i) / (float64(n) * d)
	}
	return out
}

// Spacing returns the sample spacing |x1 - x0| of an ordered axis
func Spacing(xs []float64) (float64, error) {
	if len(xs) < 2 {
		return 0, dferrors.NewInvalidInputError("FourierTransform",
			fmt.Sprintf("sample spacing needs at least 2 samples, got %d", len(xs)))
	}
	d := math.Abs(xs[1] - xs[0])
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, dferrors.NewInvalidInputError("FourierTransform",
			fmt.Sprintf("sample spacing must be finite and non-zero, got %g", d))
	}
	return d, nil
}

// Transformer computes real FFTs of a fixed length. It is not safe for
// concurrent use; give each goroutine its own.
type Transformer struct {
	n   int
	fft *fourier.FFT
}

// NewTransformer prepares transforms of length n
func NewTransformer(n int) (*Transformer, error) {
	if n < 1 {
		return nil, dferrors.NewInvalidInputError("FourierTransform", fmt.Sprintf("transform length must be positive, got %d", n))
	}
	return &Transformer{n: n, fft: fourier.NewFFT(n)}, nil
}

// Len returns the input length
func (t *Transformer) Len() int {
	return t.n
}

// Coefficients returns the n/2+1 non-negative frequency coefficients of seq
func (t *Transformer) Coefficients(seq []float64) ([]complex128, error) {
	if len(seq) != t.n {
		return nil, dferrors.NewInvalidInputError("FourierTransform",
			fmt.Sprintf("sequence length %d does not match transform length %d", len(seq), t.n))
	}
	return t.fft.Coefficients(nil, seq), nil
}

// Transform computes the spectrum of seq sampled at spacing d
func Transform(seq []float64, d float64) (Spectrum, error) {
	t, err := NewTransformer(len(seq))
	if err != nil {
		return Spectrum{}, err
	}
	coeffs, err := t.Coefficients(seq)
	if err != nil {
		return Spectrum{}, err
	}
	return Spectrum{Freq: Frequencies(len(seq), d), Coefficients: coeffs}, nil
}
