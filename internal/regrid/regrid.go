// Package regrid adapts gonum's one-dimensional interpolators for resampling
// table columns onto a new axis.
//
// Methods are looked up by name in a registry so configuration files and the
// command line can select them. Sample positions are validated before a fit:
// gonum reports unsorted or too-short input by panicking, so every check it
// would make is performed here first and surfaced as an error.
package regrid

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	dferrors "github.com/paveg/phasor/internal/errors"
	"gonum.org/v1/gonum/interp"
)

// Method names an interpolation scheme
type Method string

// Built-in methods
const (
	// PCHIP is the monotone piecewise cubic Hermite interpolant with
	// Fritsch–Butland slopes. It never overshoots the samples.
	PCHIP   Method = "pchip"
	Akima   Method = "akima"
	Linear  Method = "linear"
	Natural Method = "natural"
)

// DefaultMethod is used when no method is configured
const DefaultMethod = PCHIP

type methodSpec struct {
	factory   func() interp.FittablePredictor
	minPoints int
}

var (
	registryMu sync.RWMutex
	registry   = map[Method]methodSpec{
		PCHIP:   {factory: func() interp.FittablePredictor { return &interp.FritschButland{} }, minPoints: 3},
		Akima:   {factory: func() interp.FittablePredictor { return &interp.AkimaSpline{} }, minPoints: 3},
		Linear:  {factory: func() interp.FittablePredictor { return &interp.PiecewiseLinear{} }, minPoints: 2},
		Natural: {factory: func() interp.FittablePredictor { return &interp.NaturalCubic{} }, minPoints: 3},
	}
)

// Register adds or replaces a method. minPoints is the smallest sample count
// the predictor can be fitted with; smaller groups fall back to Linear.
func Register(m Method, minPoints int, factory func() interp.FittablePredictor) {
	if minPoints < 2 {
		minPoints = 2
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[m] = methodSpec{factory: factory, minPoints: minPoints}
}

// Methods lists the registered method names in sorted order
func Methods() []Method {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Method, 0, len(registry))
	for m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseMethod resolves a method by case-insensitive name. An empty name
// yields DefaultMethod.
func ParseMethod(name string) (Method, error) {
	if name == "" {
		return DefaultMethod, nil
	}
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	registryMu.RLock()
	_, ok := registry[m]
	registryMu.RUnlock()
	if !ok {
		return "", dferrors.NewInvalidInputError("Regrid",
			fmt.Sprintf("unknown interpolation method %q (known: %v)", name, Methods()))
	}
	return m, nil
}

func (m Method) spec() (methodSpec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[m]
	if !ok {
		return methodSpec{}, dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("unknown interpolation method %q", m))
	}
	return s, nil
}

// Axis is the target grid of a regrid: the column it is written to and the
// positions to evaluate at.
type Axis struct {
	Name   string
	Values []float64
}

// NewAxis validates and builds an axis
func NewAxis(name string, values []float64) (Axis, error) {
	if name == "" {
		return Axis{}, dferrors.NewInvalidInputError("Regrid", "axis name must be set")
	}
	if len(values) == 0 {
		return Axis{}, dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("axis %q has no positions", name))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Axis{}, dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("axis %q position %d is not finite", name, i))
		}
	}
	return Axis{Name: name, Values: values}, nil
}

// Range builds an evenly spaced axis start, start+step, ... up to and
// including stop when it lies on the grid.
func Range(name string, start, stop, step float64) (Axis, error) {
	if step <= 0 || math.IsNaN(step) {
		return Axis{}, dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("axis step must be positive, got %g", step))
	}
	if stop < start {
		return Axis{}, dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("axis stop %g is below start %g", stop, start))
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return NewAxis(name, values)
}

// ValidateSamples checks that sample positions are finite and strictly
// increasing, which every interpolator requires.
func ValidateSamples(xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("sample position %d is not finite", i))
		}
		if i > 0 && x <= xs[i-1] {
			return dferrors.NewInvalidInputError("Regrid",
				fmt.Sprintf("sample positions must be strictly increasing: x[%d]=%g follows x[%d]=%g", i, x, i-1, xs[i-1]))
		}
	}
	return nil
}

// Interpolator evaluates one method at a fixed set of positions
type Interpolator struct {
	method Method
	fill   *float64
}

// Option configures an Interpolator
type Option func(*Interpolator)

// WithFill replaces predictions outside the sampled range with v. Without it
// the interpolator's end values are used.
func WithFill(v float64) Option {
	return func(ip *Interpolator) {
		ip.fill = &v
	}
}

// New creates an interpolator for method
func New(method Method, opts ...Option) (*Interpolator, error) {
	if _, err := method.spec(); err != nil {
		return nil, err
	}
	ip := &Interpolator{method: method}
	for _, opt := range opts {
		opt(ip)
	}
	return ip, nil
}

// Method returns the configured method
func (ip *Interpolator) Method() Method {
	return ip.method
}

// Interpolate fits (xs, ys) and predicts at each position in at
func (ip *Interpolator) Interpolate(xs, ys, at []float64) (out []float64, err error) {
	if len(xs) != len(ys) {
		return nil, dferrors.NewInvalidInputError("Regrid",
			fmt.Sprintf("sample positions and values differ in length: %d != %d", len(xs), len(ys)))
	}
	if len(xs) < 2 {
		return nil, dferrors.NewInvalidInputError("Regrid", fmt.Sprintf("need at least 2 samples, got %d", len(xs)))
	}
	if err := ValidateSamples(xs); err != nil {
		return nil, err
	}

	spec, err := ip.method.spec()
	if err != nil {
		return nil, err
	}
	var predictor interp.FittablePredictor
	if len(xs) < spec.minPoints {
		predictor = &interp.PiecewiseLinear{}
	} else {
		predictor = spec.factory()
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = dferrors.NewInternalError("Regrid", fmt.Errorf("%s interpolation: %v", ip.method, r))
		}
	}()

	if err := predictor.Fit(xs, ys); err != nil {
		return nil, dferrors.NewInternalError("Regrid", fmt.Errorf("%s interpolation: %w", ip.method, err))
	}

	lo, hi := xs[0], xs[len(xs)-1]
	out = make([]float64, len(at))
	for i, x := range at {
		if ip.fill != nil && (x < lo || x > hi) {
			out[i] = *ip.fill
			continue
		}
		out[i] = predictor.Predict(x)
	}
	return out, nil
}
