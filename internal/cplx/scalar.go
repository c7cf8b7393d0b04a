package cplx

import "math"

// Phase is the scalar counterpart of Expr.Phase: atan2(real, imag).
func Phase(z complex128) float64 {
	return math.Atan2(real(z), imag(z))
}

// Unwrap is the scalar counterpart of UnwrapPhase.
func Unwrap(phase []float64) []float64 {
	out := make([]float64, len(phase))
	if len(phase) == 0 {
		return out
	}
	out[0] = phase[0]
	sum := 0.0
	for i := 1; i < len(phase); i++ {
		d := phase[i] - phase[i-1]
		switch {
		case d < -math.Pi:
			d += 2 * math.Pi
		case d > math.Pi:
			d -= 2 * math.Pi
		}
		sum += d
		out[i] = phase[0] + sum
	}
	return out
}
