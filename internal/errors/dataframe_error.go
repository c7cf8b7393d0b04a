// Package errors provides standardized error types for table, complex-column and
// dataset operations. DataFrameError carries the operation and column context;
// Kind classifies the failure so callers can match it with errors.Is.
package errors

import (
	"fmt"
)

// Kind classifies a DataFrameError.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSchemaMismatch: a real/imag pair is incomplete or a struct is not a two-field record.
	KindSchemaMismatch
	// KindMissingField: one half of a real/imag pair is absent from the table.
	KindMissingField
	// KindRoleViolation: a transformation would drop the designated index column.
	KindRoleViolation
	// KindHeterogeneous: datasets with different indices, or mixed element types, combined in one call.
	KindHeterogeneous
	KindColumnNotFound
	KindInvalidInput
	KindUnsupportedType
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSchemaMismatch:
		return "schema mismatch"
	case KindMissingField:
		return "missing field"
	case KindRoleViolation:
		return "role violation"
	case KindHeterogeneous:
		return "heterogeneous combination"
	case KindColumnNotFound:
		return "column not found"
	case KindInvalidInput:
		return "invalid input"
	case KindUnsupportedType:
		return "unsupported type"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// DataFrameError represents standardized errors across all operations
type DataFrameError struct {
	Op      string // Operation name (e.g., "Regrid", "Bind", "Join")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Kind    Kind
	Cause   error // Underlying error cause
}

// Error implements the error interface
func (e *DataFrameError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, msg)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, msg)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DataFrameError) Unwrap() error {
	return e.Cause
}

// Is matches either an identical error or a kind sentinel (a DataFrameError
// carrying only a Kind).
func (e *DataFrameError) Is(target error) bool {
	df, ok := target.(*DataFrameError)
	if !ok {
		return false
	}
	if df.Op == "" && df.Column == "" && df.Message == "" {
		return df.Kind != KindUnknown && e.Kind == df.Kind
	}
	return e.Op == df.Op && e.Column == df.Column && e.Message == df.Message
}

// Kind sentinels for errors.Is matching.
var (
	ErrSchemaMismatch  = &DataFrameError{Kind: KindSchemaMismatch}
	ErrMissingField    = &DataFrameError{Kind: KindMissingField}
	ErrRoleViolation   = &DataFrameError{Kind: KindRoleViolation}
	ErrHeterogeneous   = &DataFrameError{Kind: KindHeterogeneous}
	ErrColumnNotFound  = &DataFrameError{Kind: KindColumnNotFound}
	ErrInvalidInput    = &DataFrameError{Kind: KindInvalidInput}
	ErrUnsupportedType = &DataFrameError{Kind: KindUnsupportedType}
)

// NewSchemaMismatchError reports a column whose shape does not match the complex encoding.
func NewSchemaMismatchError(op, column, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    KindSchemaMismatch,
	}
}

// NewMissingFieldError reports the absent half of a real/imag pair.
func NewMissingFieldError(op, column string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("column %s missing", column),
		Kind:    KindMissingField,
	}
}

// NewRoleViolationError reports a transformation that does not preserve the index.
func NewRoleViolationError(op, index string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  index,
		Message: fmt.Sprintf("the transformation does not preserve `%s`", index),
		Kind:    KindRoleViolation,
	}
}

// NewHeterogeneousError reports an attempt to combine incompatible inputs.
func NewHeterogeneousError(op, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: message,
		Kind:    KindHeterogeneous,
	}
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
		Kind:    KindColumnNotFound,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: message,
		Kind:    KindInvalidInput,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Kind:    KindUnsupportedType,
	}
}

// NewInternalError wraps a failure reported by a collaborator (interpolation, FFT, I/O).
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: "internal error occurred",
		Kind:    KindInternal,
		Cause:   cause,
	}
}
