package dataframe

import (
	"cmp"
	"math"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	dferrors "github.com/paveg/phasor/internal/errors"
)

// SortKey is one column of a multi-column sort
type SortKey struct {
	Column    string
	Ascending bool
}

// Sort orders rows ascending by the given columns, first column first.
// The sort is stable; nulls and NaN sort last.
func (df *DataFrame) Sort(columns ...string) (*DataFrame, error) {
	keys := make([]SortKey, len(columns))
	for i, c := range columns {
		keys[i] = SortKey{Column: c, Ascending: true}
	}
	return df.SortBy(keys)
}

// SortBy orders rows by keys, first key first
func (df *DataFrame) SortBy(keys []SortKey) (*DataFrame, error) {
	indices, err := df.sortIndices(keys)
	if err != nil {
		return nil, err
	}
	return df.Take(indices)
}

func (df *DataFrame) sortIndices(keys []SortKey) ([]int, error) {
	comparators := make([]func(i, j int) int, len(keys))
	for k, key := range keys {
		s, exists := df.columns[key.Column]
		if !exists {
			return nil, dferrors.NewColumnNotFoundError("Sort", key.Column)
		}
		arr := s.Array()
		arr.Release()
		cmpFn, err := comparatorFor(arr)
		if err != nil {
			return nil, dferrors.NewUnsupportedTypeError("Sort", key.Column, arr.DataType().String())
		}
		if key.Ascending {
			comparators[k] = cmpFn
		} else {
			comparators[k] = descending(arr, cmpFn)
		}
	}

	indices := make([]int, df.Len())
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		for _, c := range comparators {
			if r := c(indices[a], indices[b]); r != 0 {
				return r < 0
			}
		}
		return false
	})
	return indices, nil
}

// descending reverses cmpFn while keeping nulls last
func descending(arr arrow.Array, cmpFn func(i, j int) int) func(i, j int) int {
	return func(i, j int) int {
		if missing(arr, i) || missing(arr, j) {
			return cmpFn(i, j)
		}
		return -cmpFn(i, j)
	}
}

func missing(arr arrow.Array, i int) bool {
	if arr.IsNull(i) {
		return true
	}
	if f, ok := arr.(*array.Float64); ok {
		return math.IsNaN(f.Value(i))
	}
	return false
}

func comparatorFor(arr arrow.Array) (func(i, j int) int, error) {
	switch typed := arr.(type) {
	case *array.Float64:
		return nullsLast(arr, func(i, j int) int {
			vi, vj := typed.Value(i), typed.Value(j)
			switch {
			case math.IsNaN(vi) && math.IsNaN(vj):
				return 0
			case math.IsNaN(vi):
				return 1
			case math.IsNaN(vj):
				return -1
			}
			return cmp.Compare(vi, vj)
		}), nil
	case *array.Int64:
		return nullsLast(arr, func(i, j int) int { return cmp.Compare(typed.Value(i), typed.Value(j)) }), nil
	case *array.String:
		return nullsLast(arr, func(i, j int) int { return cmp.Compare(typed.Value(i), typed.Value(j)) }), nil
	case *array.Boolean:
		return nullsLast(arr, func(i, j int) int {
			return cmp.Compare(boolRank(typed.Value(i)), boolRank(typed.Value(j)))
		}), nil
	default:
		return nil, dferrors.NewUnsupportedTypeError("Sort", "", arr.DataType().String())
	}
}

func nullsLast(arr arrow.Array, cmpFn func(i, j int) int) func(i, j int) int {
	return func(i, j int) int {
		ni, nj := arr.IsNull(i), arr.IsNull(j)
		switch {
		case ni && nj:
			return 0
		case ni:
			return 1
		case nj:
			return -1
		}
		return cmpFn(i, j)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
