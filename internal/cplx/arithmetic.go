package cplx

import (
	"math"

	"github.com/paveg/phasor/internal/expr"
)

// Throughout, z = a+bi is the receiver and w = c+di the operand.

// Add returns (a+c, b+d)
func (z Expr) Add(w Expr) Expr {
	return Expr{re: expr.Add(z.re, w.re), im: expr.Add(z.im, w.im)}
}

// Sub returns (a-c, b-d)
func (z Expr) Sub(w Expr) Expr {
	return Expr{re: expr.Sub(z.re, w.re), im: expr.Sub(z.im, w.im)}
}

// Mul returns (ac-bd, ad+bc)
func (z Expr) Mul(w Expr) Expr {
	return Expr{
		re: expr.Sub(expr.Mul(z.re, w.re), expr.Mul(z.im, w.im)),
		im: expr.Add(expr.Mul(z.re, w.im), expr.Mul(z.im, w.re)),
	}
}

// Div returns ((ac+bd)/(c²+d²), (bc-ad)/(c²+d²)), which equals z.Mul(w.Inverse()).
func (z Expr) Div(w Expr) Expr {
	denom := w.SquaredModulus()
	return Expr{
		re: expr.Div(expr.Add(expr.Mul(z.re, w.re), expr.Mul(z.im, w.im)), denom),
		im: expr.Div(expr.Sub(expr.Mul(z.im, w.re), expr.Mul(z.re, w.im)), denom),
	}
}

// Quotient is an alias of Div
func (z Expr) Quotient(w Expr) Expr {
	return z.Div(w)
}

// Difference is an alias of Sub
func (z Expr) Difference(w Expr) Expr {
	return z.Sub(w)
}

// RelativeDifference is z/w - 1, the fractional deviation of z from w.
func (z Expr) RelativeDifference(w Expr) Expr {
	q := z.Div(w)
	return Expr{re: expr.Sub(q.re, expr.Lit(1.0)), im: q.im}
}

// Inverse returns (a/(a²+b²), -b/(a²+b²))
func (z Expr) Inverse() Expr {
	denom := z.SquaredModulus()
	return Expr{re: expr.Div(z.re, denom), im: expr.Div(expr.Neg(z.im), denom)}
}

// Conj returns (a, -b)
func (z Expr) Conj() Expr {
	return Expr{re: z.re, im: expr.Neg(z.im)}
}

// Neg returns (-a, -b)
func (z Expr) Neg() Expr {
	return Expr{re: expr.Neg(z.re), im: expr.Neg(z.im)}
}

// Scale multiplies both parts by a real expression
func (z Expr) Scale(k expr.Expr) Expr {
	return Expr{re: expr.Mul(z.re, k), im: expr.Mul(z.im, k)}
}

// AddScalar adds a real constant
func (z Expr) AddScalar(x float64) Expr {
	return z.Add(Lit(complex(x, 0)))
}

// SubScalar subtracts a real constant
func (z Expr) SubScalar(x float64) Expr {
	return z.Sub(Lit(complex(x, 0)))
}

// MulScalar multiplies by a real constant
func (z Expr) MulScalar(x float64) Expr {
	return z.Scale(expr.Lit(x))
}

// DivScalar divides by a real constant
func (z Expr) DivScalar(x float64) Expr {
	return Expr{re: expr.Div(z.re, expr.Lit(x)), im: expr.Div(z.im, expr.Lit(x))}
}

// SquaredModulus returns a²+b²
func (z Expr) SquaredModulus() expr.Expr {
	return expr.Add(expr.Mul(z.re, z.re), expr.Mul(z.im, z.im))
}

// Modulus returns sqrt(a²+b²)
func (z Expr) Modulus() expr.Expr {
	return expr.Sqrt(z.SquaredModulus())
}

// Phase returns atan2(a, b): the angle measured from the imaginary axis
// towards the real axis. z is recovered as (|z|·sin φ, |z|·cos φ).
func (z Expr) Phase() expr.Expr {
	return expr.Atan2(z.re, z.im)
}

// Arg returns atan2(b, a), the conventional argument. z is recovered as
// (|z|·cos θ, |z|·sin θ).
func (z Expr) Arg() expr.Expr {
	return expr.Atan2(z.im, z.re)
}

// Pow raises z to a real power n on branch k: |z|^n at angle n·arg(z) + 2πk.
func (z Expr) Pow(n float64, k int) Expr {
	magnitude := expr.Pow(z.Modulus(), expr.Lit(n))
	angle := expr.Add(expr.Mul(z.Arg(), expr.Lit(n)), expr.Lit(2*math.Pi*float64(k)))
	return Expr{
		re: expr.Mul(magnitude, expr.Cos(angle)),
		im: expr.Mul(magnitude, expr.Sin(angle)),
	}
}

// Exp returns (e^a·cos b, e^a·sin b)
func (z Expr) Exp() Expr {
	ea := expr.Exp(z.re)
	return Expr{re: expr.Mul(ea, expr.Cos(z.im)), im: expr.Mul(ea, expr.Sin(z.im))}
}

// Sin returns (sin a·cosh b, cos a·sinh b)
func (z Expr) Sin() Expr {
	return Expr{
		re: expr.Mul(expr.Sin(z.re), expr.Cosh(z.im)),
		im: expr.Mul(expr.Cos(z.re), expr.Sinh(z.im)),
	}
}

// Cos returns (cos a·cosh b, -sin a·sinh b)
func (z Expr) Cos() Expr {
	return Expr{
		re: expr.Mul(expr.Cos(z.re), expr.Cosh(z.im)),
		im: expr.Neg(expr.Mul(expr.Sin(z.re), expr.Sinh(z.im))),
	}
}

// PhaseUnwrapped is UnwrapPhase applied to Phase
func (z Expr) PhaseUnwrapped() expr.Expr {
	return UnwrapPhase(z.Phase())
}

// UnwrapPhase removes 2π jumps from a phase sequence in row order. Each
// successive difference below -π gains 2π and each above π loses 2π; the
// result is the first phase plus the running sum of corrected differences.
// The first row is returned unchanged.
func UnwrapPhase(phase expr.Expr) expr.Expr {
	diff := expr.Sub(phase, expr.Shift(phase, 1))
	corrected := expr.Case().
		When(expr.Lt(diff, expr.Lit(-math.Pi)), expr.Add(diff, expr.Lit(2*math.Pi))).
		When(expr.Gt(diff, expr.Lit(math.Pi)), expr.Sub(diff, expr.Lit(2*math.Pi))).
		Else(diff)
	return expr.Add(expr.First(phase), expr.CumSum(expr.FillNull(corrected, expr.Lit(0.0))))
}
