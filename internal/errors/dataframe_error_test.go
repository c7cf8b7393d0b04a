package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/paveg/phasor/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestDataFrameError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.DataFrameError
		expected string
	}{
		{
			name:     "Error with column",
			err:      errors.NewColumnNotFoundError("Select", "t"),
			expected: "Select operation failed on column 't': column does not exist",
		},
		{
			name:     "Error without column",
			err:      errors.NewHeterogeneousError("Concat", "all datasets must have the same index"),
			expected: "Concat operation failed: all datasets must have the same index",
		},
		{
			name:     "Missing field",
			err:      errors.NewMissingFieldError("Nest", "z.imag"),
			expected: "Nest operation failed on column 'z.imag': column z.imag missing",
		},
		{
			name:     "Role violation",
			err:      errors.NewRoleViolationError("Select", "t"),
			expected: "Select operation failed on column 't': the transformation does not preserve `t`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDataFrameError_Unwrap(t *testing.T) {
	cause := stderrors.New("too few points")
	err := errors.NewInternalError("Regrid", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "too few points")
}

func TestDataFrameError_IsKind(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", errors.NewRoleViolationError("Drop", "freq"))

	assert.ErrorIs(t, wrapped, errors.ErrRoleViolation)
	assert.NotErrorIs(t, wrapped, errors.ErrSchemaMismatch)
	assert.ErrorIs(t, errors.NewMissingFieldError("Bind", "a"), errors.ErrMissingField)
	assert.ErrorIs(t, errors.NewSchemaMismatchError("Bind", "z", "three fields"), errors.ErrSchemaMismatch)
}

func TestDataFrameError_IsExact(t *testing.T) {
	a := errors.NewColumnNotFoundError("Sort", "t")
	b := errors.NewColumnNotFoundError("Sort", "t")
	c := errors.NewColumnNotFoundError("Sort", "f")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "schema mismatch", errors.KindSchemaMismatch.String())
	assert.Equal(t, "heterogeneous combination", errors.KindHeterogeneous.String())
	assert.Equal(t, "unknown", errors.Kind(99).String())
}
