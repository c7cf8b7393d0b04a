package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// takeArray gathers arr at indices into a new array. Index -1 yields a null.
func takeArray(arr arrow.Array, indices []int, mem memory.Allocator) (arrow.Array, error) {
	switch typed := arr.(type) {
	case *array.Float64:
		return takeTyped[float64](array.NewFloat64Builder(mem), typed, indices), nil
	case *array.Int64:
		return takeTyped[int64](array.NewInt64Builder(mem), typed, indices), nil
	case *array.String:
		return takeTyped[string](array.NewStringBuilder(mem), typed, indices), nil
	case *array.Boolean:
		return takeTyped[bool](array.NewBooleanBuilder(mem), typed, indices), nil
	case *array.Struct:
		return takeStruct(typed, indices, mem)
	default:
		return nil, fmt.Errorf("cannot take from %s", arr.DataType())
	}
}

type valueArray[T any] interface {
	arrow.Array
	Value(i int) T
}

type valueBuilder[T any] interface {
	array.Builder
	Append(v T)
}

func takeTyped[T any, A valueArray[T], B valueBuilder[T]](builder B, arr A, indices []int) arrow.Array {
	defer builder.Release()
	builder.Reserve(len(indices))
	for _, idx := range indices {
		if idx < 0 || arr.IsNull(idx) {
			builder.AppendNull()
			continue
		}
		builder.Append(arr.Value(idx))
	}
	return builder.NewArray()
}

// takeStruct gathers each child; missing rows surface as null children.
func takeStruct(arr *array.Struct, indices []int, mem memory.Allocator) (arrow.Array, error) {
	st := arr.DataType().(*arrow.StructType)
	children := make([]arrow.Array, 0, arr.NumField())
	names := make([]string, 0, arr.NumField())
	defer func() {
		for _, c := range children {
			c.Release()
		}
	}()

	for i := 0; i < arr.NumField(); i++ {
		child, err := takeArray(arr.Field(i), indices, mem)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		names = append(names, st.Field(i).Name)
	}

	out, err := array.NewStructArray(children, names)
	if err != nil {
		return nil, err
	}
	return out, nil
}
