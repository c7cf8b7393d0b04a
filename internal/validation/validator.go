// Package validation provides input validation utilities for dataset
// operations: column existence, role assignment of index and identifier
// columns, complex column pairs and numeric value columns.
package validation

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/schema"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// SchemaProvider is a ColumnProvider that also exposes column types
type SchemaProvider interface {
	ColumnProvider
	Schema() []arrow.Field
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// RoleValidator validates an index / identifier assignment against a table
type RoleValidator struct {
	df     ColumnProvider
	index  string
	idVars []string
	op     string
}

// NewRoleValidator creates a validator for dataset roles
func NewRoleValidator(df ColumnProvider, op, index string, idVars ...string) *RoleValidator {
	return &RoleValidator{
		df:     df,
		index:  index,
		idVars: idVars,
		op:     op,
	}
}

// Validate checks that the index is set and present, and that every
// identifier is a distinct column other than the index.
func (v *RoleValidator) Validate() error {
	if v.index == "" || !v.df.HasColumn(v.index) {
		return errors.NewRoleViolationError(v.op, v.index)
	}
	seen := make(map[string]bool, len(v.idVars))
	for _, id := range v.idVars {
		if !v.df.HasColumn(id) {
			return errors.NewColumnNotFoundError(v.op, id)
		}
		if id == v.index {
			return errors.NewInvalidInputError(v.op, fmt.Sprintf("column %q cannot be both index and identifier", id))
		}
		if seen[id] {
			return errors.NewInvalidInputError(v.op, fmt.Sprintf("identifier %q listed twice", id))
		}
		seen[id] = true
	}
	return nil
}

// PairValidator validates that both halves of a split complex column exist
type PairValidator struct {
	df   ColumnProvider
	stem string
	op   string
}

// NewPairValidator creates a validator for <stem>.real / <stem>.imag pairs
func NewPairValidator(df ColumnProvider, op, stem string) *PairValidator {
	return &PairValidator{
		df:   df,
		stem: schema.Stem(stem),
		op:   op,
	}
}

// Validate reports the first missing half by name
func (v *PairValidator) Validate() error {
	for _, name := range []string{schema.RealName(v.stem), schema.ImagName(v.stem)} {
		if !v.df.HasColumn(name) {
			return errors.NewMissingFieldError(v.op, name)
		}
	}
	return nil
}

// NumericValidator validates that columns hold numbers or complex records
type NumericValidator struct {
	df      SchemaProvider
	columns []string
	op      string
}

// NewNumericValidator creates a validator for numeric value columns
func NewNumericValidator(df SchemaProvider, op string, columns ...string) *NumericValidator {
	return &NumericValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks column types
func (v *NumericValidator) Validate() error {
	types := make(map[string]arrow.DataType, v.df.Width())
	for _, f := range v.df.Schema() {
		types[f.Name] = f.Type
	}
	for _, column := range v.columns {
		dt, ok := types[column]
		if !ok {
			return errors.NewColumnNotFoundError(v.op, column)
		}
		if !schema.IsNumericType(dt) && !schema.IsComplexType(dt) {
			return errors.NewUnsupportedTypeError(v.op, column, dt.String())
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewInvalidInputError(v.op, message)
	}
	return nil
}

// MinRowsValidator validates that a table holds at least n rows
type MinRowsValidator struct {
	df  ColumnProvider
	n   int
	op  string
	why string
}

// NewMinRowsValidator creates a validator requiring n rows
func NewMinRowsValidator(df ColumnProvider, n int, op, why string) *MinRowsValidator {
	return &MinRowsValidator{df: df, n: n, op: op, why: why}
}

// Validate checks the row count
func (v *MinRowsValidator) Validate() error {
	if v.df.Len() < v.n {
		return errors.NewInvalidInputError(v.op,
			fmt.Sprintf("%s: need at least %d rows, got %d", v.why, v.n, v.df.Len()))
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateRoles is a convenience function for role validation
func ValidateRoles(df ColumnProvider, op, index string, idVars ...string) error {
	return NewRoleValidator(df, op, index, idVars...).Validate()
}

// ValidatePair is a convenience function for pair validation
func ValidatePair(df ColumnProvider, op, stem string) error {
	return NewPairValidator(df, op, stem).Validate()
}

// ValidateNumeric is a convenience function for numeric validation
func ValidateNumeric(df SchemaProvider, op string, columns ...string) error {
	return NewNumericValidator(df, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateMinRows is a convenience function for row count validation
func ValidateMinRows(df ColumnProvider, n int, op, why string) error {
	return NewMinRowsValidator(df, n, op, why).Validate()
}
