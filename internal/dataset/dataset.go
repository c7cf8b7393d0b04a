// Package dataset wraps a DataFrame with two roles: an index column that
// orders the samples and a list of identifier columns that partition them into
// independent series. Every operation returns a new Dataset; an operation
// whose result would lose the index fails with a role violation instead.
package dataset

import (
	"fmt"
	"strings"

	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/expr"
	"github.com/paveg/phasor/internal/schema"
	"github.com/paveg/phasor/internal/validation"
)

// Dataset is a table with a designated index and identifier columns
type Dataset struct {
	df     *dataframe.DataFrame
	index  string
	idVars []string
}

// New wraps df. The Dataset takes ownership of df. index must name a column
// of df and every identifier must be a distinct non-index column.
func New(df *dataframe.DataFrame, index string, idVars ...string) (*Dataset, error) {
	if df == nil {
		return nil, dferrors.NewInvalidInputError("New", "dataset requires a table")
	}
	if err := validation.ValidateRoles(df, "New", index, idVars...); err != nil {
		return nil, err
	}
	return &Dataset{df: df, index: index, idVars: append([]string(nil), idVars...)}, nil
}

// FromDatasets concatenates datasets sharing one index name. The identifier
// list is the ordered union of the inputs' identifiers.
func FromDatasets(items ...*Dataset) (*Dataset, error) {
	const op = "FromDatasets"
	if len(items) == 0 {
		return nil, dferrors.NewInvalidInputError(op, "no datasets to combine")
	}

	for i, ds := range items {
		if ds == nil {
			return nil, dferrors.NewInvalidInputError(op, fmt.Sprintf("dataset %d is nil", i))
		}
	}

	index := items[0].index
	var idVars []string
	frames := make([]*dataframe.DataFrame, 0, len(items)-1)
	for _, ds := range items {
		if ds.index != index {
			return nil, dferrors.NewHeterogeneousError(op,
				fmt.Sprintf("all datasets must have the same index, got %q and %q", index, ds.index))
		}
		idVars = union(idVars, ds.idVars)
	}
	for _, ds := range items[1:] {
		frames = append(frames, ds.df)
	}

	combined, err := items[0].df.Concat(frames...)
	if err != nil {
		return nil, err
	}
	ds, err := New(combined, index, idVars...)
	if err != nil {
		combined.Release()
		return nil, err
	}
	return ds, nil
}

// Combine builds a Dataset from a homogeneous list: either all *Dataset, or
// all *dataframe.DataFrame with an explicit index. Mixed element types are a
// heterogeneous combination. Frames are borrowed, not consumed.
func Combine(index string, idVars []string, items ...any) (*Dataset, error) {
	const op = "Combine"
	if len(items) == 0 {
		return nil, dferrors.NewInvalidInputError(op, "nothing to combine")
	}

	switch items[0].(type) {
	case *Dataset:
		datasets := make([]*Dataset, len(items))
		for i, item := range items {
			ds, ok := item.(*Dataset)
			if !ok {
				return nil, dferrors.NewHeterogeneousError(op, "all elements must be of the same type")
			}
			datasets[i] = ds
		}
		combined, err := FromDatasets(datasets...)
		if err != nil {
			return nil, err
		}
		if index == "" && idVars == nil {
			return combined, nil
		}
		defer combined.Release()
		return combined.Set(index, idVars)
	case *dataframe.DataFrame:
		frames := make([]*dataframe.DataFrame, len(items))
		for i, item := range items {
			df, ok := item.(*dataframe.DataFrame)
			if !ok {
				return nil, dferrors.NewHeterogeneousError(op, "all elements must be of the same type")
			}
			frames[i] = df
		}
		if index == "" {
			return nil, dferrors.NewInvalidInputError(op, "missing required index for plain tables")
		}
		combined, err := frames[0].Concat(frames[1:]...)
		if err != nil {
			return nil, err
		}
		ds, err := New(combined, index, idVars...)
		if err != nil {
			combined.Release()
			return nil, err
		}
		return ds, nil
	default:
		return nil, dferrors.NewInvalidInputError(op, fmt.Sprintf("cannot build a dataset from %T", items[0]))
	}
}

// derive wraps the result of a table operation, re-deriving the roles from its
// columns: the index must survive, identifiers are pruned to what remains.
// df is consumed in both outcomes.
func (ds *Dataset) derive(op string, df *dataframe.DataFrame, index string, idVars []string) (*Dataset, error) {
	if !df.HasColumn(index) {
		df.Release()
		return nil, dferrors.NewRoleViolationError(op, index)
	}
	kept := make([]string, 0, len(idVars))
	for _, id := range idVars {
		if df.HasColumn(id) && id != index {
			kept = append(kept, id)
		}
	}
	return &Dataset{df: df, index: index, idVars: kept}, nil
}

// Frame returns the underlying table. The caller owns the returned frame.
func (ds *Dataset) Frame() *dataframe.DataFrame {
	return ds.df.Clone()
}

// Index returns the name of the index column
func (ds *Dataset) Index() string {
	return ds.index
}

// IDVars returns the identifier columns
func (ds *Dataset) IDVars() []string {
	return append([]string(nil), ds.idVars...)
}

// ValueVars returns the columns that are neither index nor identifier, in
// table order.
func (ds *Dataset) ValueVars() []string {
	roles := make(map[string]bool, len(ds.idVars)+1)
	roles[ds.index] = true
	for _, id := range ds.idVars {
		roles[id] = true
	}
	var values []string
	for _, name := range ds.df.Columns() {
		if !roles[name] {
			values = append(values, name)
		}
	}
	return values
}

// Columns returns all column names in table order
func (ds *Dataset) Columns() []string {
	return ds.df.Columns()
}

// Len returns the number of rows
func (ds *Dataset) Len() int {
	return ds.df.Len()
}

// Width returns the number of columns
func (ds *Dataset) Width() int {
	return ds.df.Width()
}

// HasColumn reports whether name is a column
func (ds *Dataset) HasColumn(name string) bool {
	return ds.df.HasColumn(name)
}

// Column returns the named column. The series is borrowed.
func (ds *Dataset) Column(name string) (dataframe.ISeries, bool) {
	return ds.df.Column(name)
}

// Describe resolves the column kinds with the identifiers marked
func (ds *Dataset) Describe() schema.Descriptor {
	return schema.Describe(ds.df.Schema(), ds.idVars...)
}

// Float64Values returns a numeric column as float64 values
func (ds *Dataset) Float64Values(name string) ([]float64, error) {
	return ds.df.Float64Values(name)
}

// Set returns a Dataset over the same table with new roles. An empty index
// keeps the current one; nil idVars keep the current identifiers.
func (ds *Dataset) Set(index string, idVars []string) (*Dataset, error) {
	if index == "" {
		index = ds.index
	}
	if idVars == nil {
		idVars = ds.idVars
	}
	if err := validation.ValidateRoles(ds.df, "Set", index, idVars...); err != nil {
		return nil, err
	}
	return &Dataset{df: ds.df.Clone(), index: index, idVars: append([]string(nil), idVars...)}, nil
}

// Select keeps the named columns in the given order. Dropping the index is a
// role violation; use SelectFrame to get a plain table instead.
func (ds *Dataset) Select(names ...string) (*Dataset, error) {
	if err := validation.ValidateColumns(ds.df, "Select", names...); err != nil {
		return nil, err
	}
	return ds.derive("Select", ds.df.Select(names...), ds.index, ds.idVars)
}

// SelectFrame keeps the named columns and returns a plain table
func (ds *Dataset) SelectFrame(names ...string) (*dataframe.DataFrame, error) {
	if err := validation.ValidateColumns(ds.df, "Select", names...); err != nil {
		return nil, err
	}
	return ds.df.Select(names...), nil
}

// Drop removes the named columns
func (ds *Dataset) Drop(names ...string) (*Dataset, error) {
	if err := validation.ValidateColumns(ds.df, "Drop", names...); err != nil {
		return nil, err
	}
	return ds.derive("Drop", ds.df.Drop(names...), ds.index, ds.idVars)
}

// WithColumns evaluates expressions into the table
func (ds *Dataset) WithColumns(exprs ...expr.Expr) (*Dataset, error) {
	df, err := ds.df.WithColumns(exprs...)
	if err != nil {
		return nil, err
	}
	return ds.derive("WithColumns", df, ds.index, ds.idVars)
}

// Filter keeps the rows where predicate holds
func (ds *Dataset) Filter(predicate expr.Expr) (*Dataset, error) {
	df, err := ds.df.Filter(predicate)
	if err != nil {
		return nil, err
	}
	return ds.derive("Filter", df, ds.index, ds.idVars)
}

// Sort orders rows ascending by columns, first column first
func (ds *Dataset) Sort(columns ...string) (*Dataset, error) {
	df, err := ds.df.Sort(columns...)
	if err != nil {
		return nil, err
	}
	return ds.derive("Sort", df, ds.index, ds.idVars)
}

// SortAuto orders rows by the index, then the identifiers, then extra
func (ds *Dataset) SortAuto(extra ...string) (*Dataset, error) {
	keys := append([]string{ds.index}, ds.idVars...)
	return ds.Sort(append(keys, extra...)...)
}

// SortColumns reorders the columns as identifiers, index, values
func (ds *Dataset) SortColumns() (*Dataset, error) {
	order := append(append(ds.IDVars(), ds.index), ds.ValueVars()...)
	return ds.Select(order...)
}

// Rename renames columns; the index and identifiers follow the mapping
func (ds *Dataset) Rename(mapping map[string]string) (*Dataset, error) {
	df, err := ds.df.Rename(mapping)
	if err != nil {
		return nil, err
	}
	index := ds.index
	if to, ok := mapping[index]; ok {
		index = to
	}
	idVars := make([]string, len(ds.idVars))
	for i, id := range ds.idVars {
		idVars[i] = id
		if to, ok := mapping[id]; ok {
			idVars[i] = to
		}
	}
	return ds.derive("Rename", df, index, idVars)
}

// Join combines two datasets. The result keeps the left index; its
// identifiers are the left identifiers followed by the right-only ones.
func (ds *Dataset) Join(other *Dataset, options *dataframe.JoinOptions) (*Dataset, error) {
	df, err := ds.df.Join(other.df, options)
	if err != nil {
		return nil, err
	}
	return ds.derive("Join", df, ds.index, union(ds.idVars, other.idVars))
}

// JoinFrame joins a plain table, keeping the roles of ds
func (ds *Dataset) JoinFrame(other *dataframe.DataFrame, options *dataframe.JoinOptions) (*Dataset, error) {
	df, err := ds.df.Join(other, options)
	if err != nil {
		return nil, err
	}
	return ds.derive("Join", df, ds.index, ds.idVars)
}

// Pipe applies fn to ds
func (ds *Dataset) Pipe(fn func(*Dataset) (*Dataset, error)) (*Dataset, error) {
	return fn(ds)
}

// String returns a summary of the dataset
func (ds *Dataset) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Dataset[index=%s", ds.index))
	if len(ds.idVars) > 0 {
		sb.WriteString(fmt.Sprintf(" id_vars=%s", strings.Join(ds.idVars, ",")))
	}
	sb.WriteString("]\n")
	sb.WriteString(ds.df.String())
	return sb.String()
}

// Release releases the underlying table
func (ds *Dataset) Release() {
	if ds != nil && ds.df != nil {
		ds.df.Release()
	}
}

// union appends the names of b missing from a, keeping order
func union(a, b []string) []string {
	out := append([]string(nil), a...)
	seen := make(map[string]bool, len(a)+len(b))
	for _, name := range a {
		seen[name] = true
	}
	for _, name := range b {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
