// Package lockin handles two-channel lock-in amplifier recordings: rotating
// the (X, Y) channel pair so the signal lies in X, and assembling many
// recordings into one dataset.
package lockin

import (
	"math"

	"github.com/paveg/phasor/internal/validation"
	"gonum.org/v1/gonum/floats"
)

// Rotation is a channel pair rotated by Phase
type Rotation struct {
	InPhase    []float64
	Quadrature []float64
	Phase      float64
}

// ZeroQuadrature rotates (x, y) by the phase φ minimising the quadrature
// energy Σ(x·sinφ + y·cosφ)². The minimiser has the closed form
// φ = ½·atan2(-Sxy, -(Syy-Sxx)/2) with S the sums of products. Samples where
// either channel is NaN do not contribute to the fit but are rotated.
//
// φ lies in [-π/2, π/2], so a signal already in X is left unchanged and a
// signal entirely in Y is moved to X with its sign kept.
func ZeroQuadrature(x, y []float64) (Rotation, error) {
	if err := validation.ValidateLength(len(x), len(y), "ZeroQuadrature", "quadrature channel"); err != nil {
		return Rotation{}, err
	}
	phase := Phase(x, y)

	sin, cos := math.Sincos(phase)
	inPhase := make([]float64, len(x))
	quadrature := make([]float64, len(x))

	// X' = x·cosφ - y·sinφ, Y' = x·sinφ + y·cosφ
	floats.ScaleTo(inPhase, cos, x)
	floats.AddScaled(inPhase, -sin, y)
	floats.ScaleTo(quadrature, sin, x)
	floats.AddScaled(quadrature, cos, y)

	return Rotation{InPhase: inPhase, Quadrature: quadrature, Phase: phase}, nil
}

// Phase returns the rotation angle ZeroQuadrature applies. A pair with no
// preferred direction yields 0.
func Phase(x, y []float64) float64 {
	fx, fy := finitePairs(x, y)
	sxx := floats.Dot(fx, fx)
	syy := floats.Dot(fy, fy)
	sxy := floats.Dot(fx, fy)

	a := (syy - sxx) / 2
	if sxy == 0 && a == 0 {
		return 0
	}
	return math.Atan2(-sxy, -a) / 2
}

// finitePairs keeps the positions where both channels are finite
func finitePairs(x, y []float64) (fx, fy []float64) {
	fx = make([]float64, 0, len(x))
	fy = make([]float64, 0, len(y))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			fx = append(fx, x[i])
			fy = append(fy, y[i])
		}
	}
	return fx, fy
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
