// Package series provides data structures for column operations
package series

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/phasor/internal/schema"
)

// Interface is the type-erased view of a Series of any element type.
type Interface interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// Series represents a typed data column with Apache Arrow backend.
// Series[complex128] is stored as struct<real: float64, imag: float64>.
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values. It panics on unsupported
// element types; use NewSafe when the type is not known statically.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a new Series, returning an error for unsupported element types.
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	arr, err := buildArray(any(values), mem)
	if err != nil {
		return nil, err
	}
	return &Series[T]{name: name, array: arr}, nil
}

func buildArray(values any, mem memory.Allocator) (arrow.Array, error) {
	switch v := values.(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		return builder.NewArray(), nil
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		return builder.NewArray(), nil
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		return builder.NewArray(), nil
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		return builder.NewArray(), nil
	case []complex128:
		return buildComplexArray(v, mem), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", values)
	}
}

func buildComplexArray(values []complex128, mem memory.Allocator) arrow.Array {
	builder := array.NewStructBuilder(mem, schema.ComplexType)
	defer builder.Release()
	re := builder.FieldBuilder(0).(*array.Float64Builder)
	im := builder.FieldBuilder(1).(*array.Float64Builder)
	for _, z := range values {
		builder.Append(true)
		re.Append(real(z))
		im.Append(imag(z))
	}
	return builder.NewArray()
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null float cells read as NaN, other
// null cells as the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok && arr.IsValid(index) {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok && arr.IsValid(index) {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = math.NaN()
			if arr.IsValid(index) {
				*v = arr.Value(index)
			}
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok && arr.IsValid(index) {
			*v = arr.Value(index)
		}
	case *array.Struct:
		if v, ok := any(&result).(*complex128); ok {
			*v = complexAt(arr, index)
		}
	}

	return result
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}

// GetAsString returns the value at index formatted for text output.
// Complex cells are written as "re+imi".
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}
	switch arr := s.array.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'g', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	case *array.Struct:
		return strconv.FormatComplex(complexAt(arr, index), 'g', -1, 128)
	default:
		return fmt.Sprintf("%v", s.Value(index))
	}
}

// FromArray wraps an existing Arrow array under name. The array is retained.
func FromArray(name string, arr arrow.Array) (Interface, error) {
	arr.Retain()
	switch arr.(type) {
	case *array.Float64:
		return &Series[float64]{name: name, array: arr}, nil
	case *array.Int64:
		return &Series[int64]{name: name, array: arr}, nil
	case *array.String:
		return &Series[string]{name: name, array: arr}, nil
	case *array.Boolean:
		return &Series[bool]{name: name, array: arr}, nil
	case *array.Struct:
		if schema.IsComplexType(arr.DataType()) {
			return &Series[complex128]{name: name, array: arr}, nil
		}
	}
	arr.Release()
	return nil, fmt.Errorf("unsupported array type: %s", arr.DataType())
}

// Rename returns a series sharing s's data under a new name.
func Rename(s Interface, name string) Interface {
	arr := s.Array()
	defer arr.Release()
	renamed, err := FromArray(name, arr)
	if err != nil {
		// s was built by this package, so its array type is always supported.
		panic(err)
	}
	return renamed
}

func complexAt(arr *array.Struct, index int) complex128 {
	if arr.IsNull(index) {
		return complex(math.NaN(), math.NaN())
	}
	re := arr.Field(0).(*array.Float64)
	im := arr.Field(1).(*array.Float64)
	return complex(floatAt(re, index), floatAt(im, index))
}

func floatAt(arr *array.Float64, index int) float64 {
	if arr.IsNull(index) {
		return math.NaN()
	}
	return arr.Value(index)
}
