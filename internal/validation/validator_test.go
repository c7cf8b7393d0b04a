package validation_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/schema"
	"github.com/paveg/phasor/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockColumnProvider implements SchemaProvider for testing.
type MockColumnProvider struct {
	fields []arrow.Field
	length int
}

func (m *MockColumnProvider) HasColumn(name string) bool {
	for _, f := range m.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (m *MockColumnProvider) Columns() []string {
	names := make([]string, len(m.fields))
	for i, f := range m.fields {
		names[i] = f.Name
	}
	return names
}

func (m *MockColumnProvider) Len() int {
	return m.length
}

func (m *MockColumnProvider) Width() int {
	return len(m.fields)
}

func (m *MockColumnProvider) Schema() []arrow.Field {
	return m.fields
}

func newMock() *MockColumnProvider {
	return &MockColumnProvider{
		fields: []arrow.Field{
			{Name: "t", Type: arrow.PrimitiveTypes.Float64},
			{Name: "run", Type: arrow.BinaryTypes.String},
			{Name: "v.real", Type: arrow.PrimitiveTypes.Float64},
			{Name: "v.imag", Type: arrow.PrimitiveTypes.Float64},
			{Name: "z[c]", Type: schema.ComplexType},
			{Name: "n", Type: arrow.PrimitiveTypes.Int64},
			{Name: "w.real", Type: arrow.PrimitiveTypes.Float64},
		},
		length: 3,
	}
}

func TestColumnValidator(t *testing.T) {
	df := newMock()

	t.Run("Valid columns", func(t *testing.T) {
		require.NoError(t, validation.ValidateColumns(df, "Sort", "t", "run"))
	})

	t.Run("Invalid column", func(t *testing.T) {
		err := validation.NewColumnValidator(df, "Sort", "age").Validate()
		require.Error(t, err)

		var dfErr *dferrors.DataFrameError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, "Sort", dfErr.Op)
		assert.Equal(t, "age", dfErr.Column)
		assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)
	})
}

func TestRoleValidator(t *testing.T) {
	df := newMock()

	tests := []struct {
		name   string
		index  string
		idVars []string
		target error
	}{
		{"valid", "t", []string{"run"}, nil},
		{"no identifiers", "t", nil, nil},
		{"missing index", "time", []string{"run"}, dferrors.ErrRoleViolation},
		{"empty index", "", nil, dferrors.ErrRoleViolation},
		{"missing identifier", "t", []string{"sample"}, dferrors.ErrColumnNotFound},
		{"index as identifier", "t", []string{"t"}, dferrors.ErrInvalidInput},
		{"duplicate identifier", "t", []string{"run", "run"}, dferrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateRoles(df, "New", tt.index, tt.idVars...)
			if tt.target == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestPairValidator(t *testing.T) {
	df := newMock()

	require.NoError(t, validation.ValidatePair(df, "Nest", "v"))
	require.NoError(t, validation.ValidatePair(df, "Nest", "v[c]"))

	err := validation.ValidatePair(df, "Nest", "w")
	assert.ErrorIs(t, err, dferrors.ErrMissingField)
	assert.Contains(t, err.Error(), "w.imag")

	err = validation.ValidatePair(df, "Nest", "u")
	assert.Contains(t, err.Error(), "u.real")
}

func TestNumericValidator(t *testing.T) {
	df := newMock()

	require.NoError(t, validation.ValidateNumeric(df, "Regrid", "t", "v.real", "z[c]", "n"))

	err := validation.ValidateNumeric(df, "Regrid", "run")
	assert.ErrorIs(t, err, dferrors.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "utf8")

	err = validation.ValidateNumeric(df, "Regrid", "missing")
	assert.ErrorIs(t, err, dferrors.ErrColumnNotFound)
}

func TestLengthAndRowsValidators(t *testing.T) {
	df := newMock()

	require.NoError(t, validation.ValidateLength(3, 3, "Regrid", "axis"))
	err := validation.ValidateLength(3, 2, "Regrid", "axis")
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "axis: expected length 3, got 2")

	require.NoError(t, validation.ValidateMinRows(df, 2, "FourierTransform", "sample spacing"))
	err = validation.ValidateMinRows(df, 4, "FourierTransform", "sample spacing")
	assert.ErrorIs(t, err, dferrors.ErrInvalidInput)
}

func TestCompoundValidator(t *testing.T) {
	df := newMock()

	v := validation.NewCompoundValidator(
		validation.NewColumnValidator(df, "Join", "t"),
		validation.NewPairValidator(df, "Join", "w"),
		validation.NewColumnValidator(df, "Join", "missing"),
	)
	err := v.Validate()
	assert.ErrorIs(t, err, dferrors.ErrMissingField, "first failure wins")

	assert.NoError(t, validation.NewCompoundValidator().Validate())
}
