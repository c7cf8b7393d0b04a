package dataset

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/schema"
	"github.com/paveg/phasor/internal/series"
	"golang.org/x/exp/constraints"
)

// Coord returns the distinct values of a column in order of first
// appearance. The caller owns the returned series.
func (ds *Dataset) Coord(name string) (series.Interface, error) {
	if !ds.df.HasColumn(name) {
		return nil, dferrors.NewColumnNotFoundError("Coord", name)
	}
	groups, err := ds.df.GroupIndices(name)
	if err != nil {
		return nil, err
	}
	firsts := make([]int, len(groups))
	for i, g := range groups {
		firsts[i] = g.First()
	}

	column := ds.df.Select(name)
	defer column.Release()
	unique, err := column.Take(firsts)
	if err != nil {
		return nil, err
	}
	defer unique.Release()

	s, _ := unique.Column(name)
	arr := s.Array()
	defer arr.Release()
	return series.FromArray(name, arr)
}

// Extrema returns the smallest and largest non-NaN values of a numeric
// column. An all-NaN or empty column is an error.
func (ds *Dataset) Extrema(name string) (lo, hi float64, err error) {
	values, err := ds.df.Float64Values(name)
	if err != nil {
		return 0, 0, err
	}
	lo, hi, ok := extrema(values, math.IsNaN)
	if !ok {
		return 0, 0, dferrors.NewInvalidInputError("Extrema", "column "+name+" has no finite values")
	}
	return lo, hi, nil
}

// extrema scans values once, ignoring those skip reports
func extrema[T constraints.Ordered](values []T, skip func(T) bool) (lo, hi T, ok bool) {
	for _, v := range values {
		if skip != nil && skip(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// DropNaN removes rows holding NaN in any of the named columns, or in any
// float or complex column when none are named. Nulls are kept.
func (ds *Dataset) DropNaN(names ...string) (*Dataset, error) {
	const op = "DropNaN"
	if len(names) == 0 {
		desc := ds.Describe()
		for _, c := range desc.Columns() {
			if c.Type.ID() == arrow.FLOAT64 || c.Kind == schema.KindComplex {
				names = append(names, c.Name)
			}
		}
	}

	n := ds.df.Len()
	drop := make([]bool, n)
	for _, name := range names {
		s, ok := ds.df.Column(name)
		if !ok {
			return nil, dferrors.NewColumnNotFoundError(op, name)
		}
		arr := s.Array()
		err := markNaN(arr, drop)
		arr.Release()
		if err != nil {
			return nil, dferrors.NewUnsupportedTypeError(op, name, s.DataType().String())
		}
	}

	keep := make([]int, 0, n)
	for i, d := range drop {
		if !d {
			keep = append(keep, i)
		}
	}
	df, err := ds.df.Take(keep)
	if err != nil {
		return nil, err
	}
	return ds.derive(op, df, ds.index, ds.idVars)
}

// markNaN flags the valid NaN entries of arr. Complex records are flagged when
// either part is NaN. Integer, string and boolean columns never hold NaN.
func markNaN(arr arrow.Array, drop []bool) error {
	switch typed := arr.(type) {
	case *array.Float64:
		markFloat(typed, drop)
	case *array.Struct:
		if !schema.IsComplexType(typed.DataType()) {
			return dferrors.ErrUnsupportedType
		}
		for f := 0; f < typed.NumField(); f++ {
			markFloat(typed.Field(f).(*array.Float64), drop)
		}
	case *array.Int64, *array.String, *array.Boolean:
	default:
		return dferrors.ErrUnsupportedType
	}
	return nil
}

func markFloat(arr *array.Float64, drop []bool) {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsValid(i) && math.IsNaN(arr.Value(i)) {
			drop[i] = true
		}
	}
}

// Sizes returns the number of rows in each identifier group, in order of
// first appearance.
func (ds *Dataset) Sizes() ([]int, error) {
	groups, err := ds.groups()
	if err != nil {
		return nil, err
	}
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g.Rows)
	}
	return sizes, nil
}

func (ds *Dataset) groups() ([]dataframe.Group, error) {
	return ds.df.GroupIndices(ds.idVars...)
}
