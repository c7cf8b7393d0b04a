// Package phasor works with labelled tables of sampled signals: real and
// complex columns, an index column and identifier columns. It regrids
// samples onto new axes, transforms them into spectra and assembles lock-in
// amplifier recordings.
//
// This package is the public API; it re-exports the building blocks from the
// internal packages.
package phasor

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/phasor/internal/config"
	"github.com/paveg/phasor/internal/cplx"
	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/dataset"
	"github.com/paveg/phasor/internal/expr"
	"github.com/paveg/phasor/internal/io"
	"github.com/paveg/phasor/internal/lockin"
	"github.com/paveg/phasor/internal/regrid"
	"github.com/paveg/phasor/internal/series"
)

type (
	// DataFrame is a table of named, equally long columns.
	DataFrame = dataframe.DataFrame
	// ISeries provides a type-erased view of a column of any type.
	ISeries = series.Interface
	// Dataset is a table with an index column and identifier columns.
	Dataset = dataset.Dataset
	// Option tunes Regrid and FourierTransform.
	Option = dataset.Option
	// JoinOptions specifies the keys and type of a join.
	JoinOptions = dataframe.JoinOptions

	// Expr is a column expression.
	Expr = expr.Expr
	// ComplexExpr is an expression producing complex values.
	ComplexExpr = cplx.Expr

	// Axis is a named set of positions to regrid onto.
	Axis = regrid.Axis
	// Method names an interpolation method.
	Method = regrid.Method

	// Datafile locates a stored dataset.
	Datafile = io.Datafile
	// CSVOptions configures CSV reading and writing.
	CSVOptions = io.CSVOptions

	// Channel, Source and AssemblySpec describe lock-in recordings.
	Channel      = lockin.Channel
	Source       = lockin.Source
	AssemblySpec = lockin.Spec

	// Config holds library-wide settings.
	Config = config.Config
)

// Interpolation methods
const (
	PCHIP   = regrid.PCHIP
	Akima   = regrid.Akima
	Linear  = regrid.Linear
	Natural = regrid.Natural
)

// Join types
const (
	InnerJoin = dataframe.InnerJoin
	LeftJoin  = dataframe.LeftJoin
)

// NewSeries creates a column from values. complex128 values are stored as a
// struct of real and imaginary parts.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewDataFrame creates a table from columns. The table takes ownership of the
// columns.
func NewDataFrame(columns ...ISeries) *DataFrame {
	return dataframe.New(columns...)
}

// NewDataset wraps df with its index and identifier columns. The Dataset
// takes ownership of df.
func NewDataset(df *DataFrame, index string, idVars ...string) (*Dataset, error) {
	return dataset.New(df, index, idVars...)
}

// Combine stacks datasets, or tables given an index, into one Dataset.
func Combine(index string, idVars []string, items ...any) (*Dataset, error) {
	return dataset.Combine(index, idVars, items...)
}

// Col references a column by name.
func Col(name string) Expr {
	return expr.Col(name)
}

// Lit creates a literal value.
func Lit(value any) Expr {
	return expr.Lit(value)
}

// ComplexCol references a complex column by name, or a real and imaginary
// column pair when given two names.
func ComplexCol(names ...string) ComplexExpr {
	return cplx.Cols(names...)
}

// ComplexLit creates a complex literal.
func ComplexLit(z complex128) ComplexExpr {
	return cplx.Lit(z)
}

// NewAxis creates a regrid axis from explicit positions.
func NewAxis(name string, values []float64) (Axis, error) {
	return regrid.NewAxis(name, values)
}

// Range creates a regrid axis from start up to stop in steps of step.
func Range(name string, start, stop, step float64) (Axis, error) {
	return regrid.Range(name, start, stop, step)
}

// ParseMethod resolves an interpolation method by name.
func ParseMethod(name string) (Method, error) {
	return regrid.ParseMethod(name)
}

// Transform options
var (
	WithMethod            = dataset.WithMethod
	WithFill              = dataset.WithFill
	WithWorkers           = dataset.WithWorkers
	WithParallelThreshold = dataset.WithParallelThreshold
	WithContext           = dataset.WithContext
)

// ZeroQuadrature rotates a lock-in channel pair so the signal lies in phase.
// It returns the in-phase channel and the applied rotation angle.
func ZeroQuadrature(x, y []float64) ([]float64, float64, error) {
	rot, err := lockin.ZeroQuadrature(x, y)
	if err != nil {
		return nil, 0, err
	}
	return rot.InPhase, rot.Phase, nil
}

// Assemble reads lock-in recordings into one Dataset.
func Assemble(ctx context.Context, sources []Source, spec AssemblySpec) (*Dataset, error) {
	return lockin.Assemble(ctx, sources, spec)
}

// Open locates a stored dataset by path, inferring the format from the
// extension.
func Open(path, index string, idVars ...string) (Datafile, error) {
	return io.DatafileFromPath(path, index, idVars...)
}

// SetConfig replaces the library-wide configuration.
func SetConfig(cfg Config) {
	config.SetGlobalConfig(cfg)
}

// GetConfig returns the library-wide configuration.
func GetConfig() Config {
	return config.GetGlobalConfig()
}
