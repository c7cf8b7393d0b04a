// Package dataframe provides the Arrow-backed table that complex columns and
// datasets are layered on. Every operation returns a new DataFrame; column
// arrays are immutable and shared by reference between frames.
package dataframe

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/expr"
	"github.com/paveg/phasor/internal/series"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries. The frame takes
// ownership of the series; a later series with a repeated name replaces the
// earlier one in place.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if _, exists := columns[name]; !exists {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// FromArrays builds a DataFrame from named Arrow arrays. The arrays are retained.
func FromArrays(names []string, arrays []arrow.Array) (*DataFrame, error) {
	if len(names) != len(arrays) {
		return nil, dferrors.NewInvalidInputError("FromArrays",
			fmt.Sprintf("%d names for %d arrays", len(names), len(arrays)))
	}
	cols := make([]ISeries, 0, len(arrays))
	for i, arr := range arrays {
		s, err := series.FromArray(names[i], arr)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, dferrors.NewUnsupportedTypeError("FromArrays", names[i], arr.DataType().String())
		}
		cols = append(cols, s)
	}
	df := New(cols...)
	if err := df.checkLengths("FromArrays"); err != nil {
		return nil, err
	}
	return df, nil
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Schema returns the Arrow fields of the frame in column order
func (df *DataFrame) Schema() []arrow.Field {
	fields := make([]arrow.Field, 0, len(df.order))
	for _, name := range df.order {
		fields = append(fields, arrow.Field{Name: name, Type: df.columns[name].DataType(), Nullable: true})
	}
	return fields
}

// Arrays returns the column arrays keyed by name, as consumed by expr.Evaluator.
// The arrays are borrowed; callers must not release them.
func (df *DataFrame) Arrays() map[string]arrow.Array {
	out := make(map[string]arrow.Array, len(df.order))
	for _, name := range df.order {
		arr := df.columns[name].Array()
		arr.Release()
		out[name] = arr
	}
	return out
}

// Select returns a new DataFrame with only the specified columns, in the order
// given. Unknown names are skipped.
func (df *DataFrame) Select(names ...string) *DataFrame {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			selected = append(selected, series.Rename(s, name))
		}
	}
	return New(selected...)
}

// Drop returns a new DataFrame without the specified columns
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	kept := make([]string, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			kept = append(kept, name)
		}
	}
	return df.Select(kept...)
}

// Clone returns a frame sharing the column data of df
func (df *DataFrame) Clone() *DataFrame {
	return df.Select(df.order...)
}

// Rename returns a new DataFrame with columns renamed according to mapping.
func (df *DataFrame) Rename(mapping map[string]string) (*DataFrame, error) {
	for from := range mapping {
		if !df.HasColumn(from) {
			return nil, dferrors.NewColumnNotFoundError("Rename", from)
		}
	}

	renamed := make([]ISeries, 0, len(df.order))
	seen := make(map[string]bool, len(df.order))
	for _, name := range df.order {
		target := name
		if to, ok := mapping[name]; ok {
			target = to
		}
		if seen[target] {
			releaseSeries(renamed)
			return nil, dferrors.NewInvalidInputError("Rename", fmt.Sprintf("duplicate column name %s", target))
		}
		seen[target] = true
		renamed = append(renamed, series.Rename(df.columns[name], target))
	}
	return New(renamed...), nil
}

// WithColumns evaluates each expression against the frame and adds the result
// under expr.OutputName. An existing column of the same name is replaced in
// place; new columns are appended.
func (df *DataFrame) WithColumns(exprs ...expr.Expr) (*DataFrame, error) {
	const op = "WithColumns"
	if len(df.order) == 0 {
		return nil, dferrors.NewInvalidInputError(op, "cannot evaluate expressions on an empty frame")
	}

	evaluator := expr.NewEvaluator(memory.NewGoAllocator())
	columns := df.Arrays()

	added := make([]ISeries, 0, len(exprs))
	for _, e := range exprs {
		arr, err := evaluator.Evaluate(e, columns)
		if err != nil {
			releaseSeries(added)
			return nil, &dferrors.DataFrameError{
				Op: op, Column: expr.OutputName(e), Message: "evaluation failed", Kind: dferrors.KindInvalidInput, Cause: err,
			}
		}
		if arr.Len() != df.Len() {
			arr.Release()
			releaseSeries(added)
			return nil, dferrors.NewInvalidInputError(op,
				fmt.Sprintf("expression %s produced %d rows, frame has %d", e.String(), arr.Len(), df.Len()))
		}
		typeName := arr.DataType().String()
		s, err := series.FromArray(expr.OutputName(e), arr)
		arr.Release()
		if err != nil {
			releaseSeries(added)
			return nil, dferrors.NewUnsupportedTypeError(op, expr.OutputName(e), typeName)
		}
		added = append(added, s)
	}

	out := df.Clone()
	for _, s := range added {
		if old, exists := out.columns[s.Name()]; exists {
			old.Release()
		} else {
			out.order = append(out.order, s.Name())
		}
		out.columns[s.Name()] = s
	}
	return out, nil
}

// Filter keeps the rows where predicate evaluates to true
func (df *DataFrame) Filter(predicate expr.Expr) (*DataFrame, error) {
	if len(df.order) == 0 {
		return New(), nil
	}
	evaluator := expr.NewEvaluator(memory.NewGoAllocator())
	mask, err := evaluator.EvaluateBoolean(predicate, df.Arrays())
	if err != nil {
		return nil, &dferrors.DataFrameError{
			Op: "Filter", Message: "evaluation failed", Kind: dferrors.KindInvalidInput, Cause: err,
		}
	}
	defer mask.Release()

	indices := make([]int, 0, mask.Len())
	for i := 0; i < mask.Len(); i++ {
		if mask.IsValid(i) && mask.Value(i) {
			indices = append(indices, i)
		}
	}
	return df.Take(indices)
}

// Take returns the rows at the given positions, in that order. A position of
// -1 produces a null row.
func (df *DataFrame) Take(indices []int) (*DataFrame, error) {
	mem := memory.NewGoAllocator()
	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		arr := df.columns[name].Array()
		out, err := takeArray(arr, indices, mem)
		arr.Release()
		if err != nil {
			releaseSeries(taken)
			return nil, dferrors.NewUnsupportedTypeError("Take", name, err.Error())
		}
		typeName := out.DataType().String()
		s, err := series.FromArray(name, out)
		out.Release()
		if err != nil {
			releaseSeries(taken)
			return nil, dferrors.NewUnsupportedTypeError("Take", name, typeName)
		}
		taken = append(taken, s)
	}
	return New(taken...), nil
}

// Slice creates a new DataFrame containing rows from start (inclusive) to end (exclusive)
func (df *DataFrame) Slice(start, end int) *DataFrame {
	length := df.Len()
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start >= end {
		indices := []int{}
		out, _ := df.Take(indices)
		return out
	}

	sliced := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		arr := df.columns[name].Array()
		part := array.NewSlice(arr, int64(start), int64(end))
		arr.Release()
		s, err := series.FromArray(name, part)
		part.Release()
		if err != nil {
			// columns of a frame are always supported array types
			panic(err)
		}
		sliced = append(sliced, s)
	}
	return New(sliced...)
}

// Concat concatenates multiple DataFrames vertically (row-wise)
// All DataFrames must have the same column names and types; the column order of
// df is used.
func (df *DataFrame) Concat(others ...*DataFrame) (*DataFrame, error) {
	const op = "Concat"
	if len(others) == 0 {
		return df.Clone(), nil
	}

	for _, other := range others {
		if err := df.checkSameSchema(op, other); err != nil {
			return nil, err
		}
	}

	mem := memory.NewGoAllocator()
	out := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		arrs := make([]arrow.Array, 0, len(others)+1)
		for _, frame := range append([]*DataFrame{df}, others...) {
			arr := frame.columns[name].Array()
			arr.Release()
			arrs = append(arrs, arr)
		}
		merged, err := array.Concatenate(arrs, mem)
		if err != nil {
			releaseSeries(out)
			return nil, &dferrors.DataFrameError{
				Op: op, Column: name, Message: "concatenation failed", Kind: dferrors.KindInternal, Cause: err,
			}
		}
		typeName := merged.DataType().String()
		s, err := series.FromArray(name, merged)
		merged.Release()
		if err != nil {
			releaseSeries(out)
			return nil, dferrors.NewUnsupportedTypeError(op, name, typeName)
		}
		out = append(out, s)
	}
	return New(out...), nil
}

// checkSameSchema verifies other has the same column set and types as df
func (df *DataFrame) checkSameSchema(op string, other *DataFrame) error {
	if len(df.order) != len(other.order) {
		return dferrors.NewSchemaMismatchError(op, "",
			fmt.Sprintf("column count differs: %d vs %d", len(df.order), len(other.order)))
	}
	for _, name := range df.order {
		otherSeries, exists := other.columns[name]
		if !exists {
			return dferrors.NewColumnNotFoundError(op, name)
		}
		if !arrow.TypeEqual(df.columns[name].DataType(), otherSeries.DataType()) {
			return dferrors.NewSchemaMismatchError(op, name,
				fmt.Sprintf("type %s does not match %s", otherSeries.DataType(), df.columns[name].DataType()))
		}
	}
	return nil
}

func (df *DataFrame) checkLengths(op string) error {
	n := df.Len()
	for _, name := range df.order {
		if df.columns[name].Len() != n {
			return dferrors.NewSchemaMismatchError(op, name,
				fmt.Sprintf("length %d does not match %d", df.columns[name].Len(), n))
		}
	}
	return nil
}

// Float64Values returns a numeric column as float64 values. Nulls read as NaN.
func (df *DataFrame) Float64Values(name string) ([]float64, error) {
	s, exists := df.columns[name]
	if !exists {
		return nil, dferrors.NewColumnNotFoundError("Float64Values", name)
	}
	arr := s.Array()
	defer arr.Release()

	out := make([]float64, arr.Len())
	switch typed := arr.(type) {
	case *array.Float64:
		for i := range out {
			out[i] = math.NaN()
			if typed.IsValid(i) {
				out[i] = typed.Value(i)
			}
		}
	case *array.Int64:
		for i := range out {
			out[i] = math.NaN()
			if typed.IsValid(i) {
				out[i] = float64(typed.Value(i))
			}
		}
	default:
		return nil, dferrors.NewUnsupportedTypeError("Float64Values", name, arr.DataType().String())
	}
	return out, nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}

func releaseSeries(list []ISeries) {
	for _, s := range list {
		s.Release()
	}
}
