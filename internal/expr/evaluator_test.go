package expr

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestColumns(t *testing.T, mem memory.Allocator) map[string]arrow.Array {
	t.Helper()

	intBuilder := array.NewInt64Builder(mem)
	defer intBuilder.Release()
	intBuilder.AppendValues([]int64{10, 20, 30, 40}, nil)

	floatBuilder := array.NewFloat64Builder(mem)
	defer floatBuilder.Release()
	floatBuilder.AppendValues([]float64{0, 3, -3, 0}, nil)

	strBuilder := array.NewStringBuilder(mem)
	defer strBuilder.Release()
	strBuilder.AppendValues([]string{"a", "b", "a", "c"}, nil)

	return map[string]arrow.Array{
		"n":   intBuilder.NewArray(),
		"phi": floatBuilder.NewArray(),
		"run": strBuilder.NewArray(),
	}
}

func releaseColumns(columns map[string]arrow.Array) {
	for _, arr := range columns {
		arr.Release()
	}
}

func evalFloats(t *testing.T, e *Evaluator, ex Expr, columns map[string]arrow.Array) []float64 {
	t.Helper()
	arr, err := e.Evaluate(ex, columns)
	require.NoError(t, err)
	defer arr.Release()

	f, err := e.toFloat64(arr)
	require.NoError(t, err)
	defer f.Release()

	out := make([]float64, f.Len())
	for i := range out {
		if f.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = f.Value(i)
	}
	return out
}

func TestEvaluatorArithmetic(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	tests := []struct {
		name     string
		expr     Expr
		expected []float64
	}{
		{"int add", Col("n").Add(Lit(int64(1))), []float64{11, 21, 31, 41}},
		{"mixed mul", Col("n").Mul(Lit(0.5)), []float64{5, 10, 15, 20}},
		{"float sub", Col("phi").Sub(Lit(1.0)), []float64{-1, 2, -4, -1}},
		{"neg", Neg(Col("phi")), []float64{0, -3, 3, 0}},
		{"div", Div(Col("phi"), Lit(2.0)), []float64{0, 1.5, -1.5, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.expected, evalFloats(t, e, tt.expr, columns), 1e-12)
		})
	}
}

func TestEvaluatorIntegerDivisionByZero(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	arr, err := e.Evaluate(Div(Col("n"), Lit(0)), columns)
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, 4, arr.NullN())
}

func TestEvaluatorMathFunctions(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	got := evalFloats(t, e, Sqrt(Mul(Col("phi"), Col("phi"))), columns)
	assert.InDeltaSlice(t, []float64{0, 3, 3, 0}, got, 1e-12)

	got = evalFloats(t, e, Atan2(Lit(1.0), Lit(0.0)), columns)
	assert.InDelta(t, math.Pi/2, got[0], 1e-12)

	got = evalFloats(t, e, Pow(Lit(2.0), Lit(3.0)), columns)
	assert.InDelta(t, 8.0, got[0], 1e-12)

	got = evalFloats(t, e, Cosh(Lit(0.0)), columns)
	assert.InDelta(t, 1.0, got[0], 1e-12)
}

func TestEvaluatorSequenceFunctions(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	shifted := evalFloats(t, e, Shift(Col("phi"), 1), columns)
	assert.True(t, math.IsNaN(shifted[0]))
	assert.Equal(t, []float64{0, 3, -3}, shifted[1:])

	back := evalFloats(t, e, Shift(Col("phi"), -1), columns)
	assert.Equal(t, []float64{3, -3, 0}, back[:3])
	assert.True(t, math.IsNaN(back[3]))

	diff := Sub(Col("phi"), Shift(Col("phi"), 1))
	filled := evalFloats(t, e, FillNull(diff, Lit(0.0)), columns)
	assert.Equal(t, []float64{0, 3, -6, 3}, filled)

	sum := evalFloats(t, e, CumSum(FillNull(diff, Lit(0.0))), columns)
	assert.Equal(t, []float64{0, 3, -3, 0}, sum)

	first := evalFloats(t, e, First(Col("n")), columns)
	assert.Equal(t, []float64{10, 10, 10, 10}, first)
}

func TestEvaluatorFloatCast(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	arr, err := e.Evaluate(Div(Float(Col("n")), Col("n")), columns)
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, arrow.FLOAT64, arr.DataType().ID())

	third := evalFloats(t, e, Div(Float(Col("n")), Lit(int64(30))), columns)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 2.0 / 3, 1, 4.0 / 3}, third, 1e-12)

	_, err = e.Evaluate(Float(Col("run")), columns)
	assert.Error(t, err)
}

func TestEvaluatorCase(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	c := Case().
		When(Lt(Col("phi"), Lit(-1.0)), Lit(-1.0)).
		When(Gt(Col("phi"), Lit(1.0)), Lit(1.0)).
		Else(Col("phi"))
	assert.Equal(t, []float64{0, 1, -1, 0}, evalFloats(t, e, c, columns))

	noElse := Case().When(Col("run").Eq(Lit("a")), Lit(1.0))
	got := evalFloats(t, e, noElse, columns)
	assert.Equal(t, 1.0, got[0])
	assert.True(t, math.IsNaN(got[1]))

	_, err := e.Evaluate(Case(), columns)
	assert.Error(t, err)
}

func TestEvaluatorStructAndField(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	s := Struct(Col("phi").Alias("real"), Mul(Col("phi"), Lit(2.0)).Alias("imag"))
	arr, err := e.Evaluate(s, columns)
	require.NoError(t, err)
	defer arr.Release()

	st, ok := arr.(*array.Struct)
	require.True(t, ok)
	assert.Equal(t, 2, st.NumField())
	assert.Equal(t, "imag", st.DataType().(*arrow.StructType).Field(1).Name)

	columns["z"] = arr
	defer delete(columns, "z")

	assert.Equal(t, []float64{0, 6, -6, 0}, evalFloats(t, e, Field(Col("z"), "imag"), columns))
	assert.Equal(t, []float64{0, 3, -3, 0}, evalFloats(t, e, FieldAt(Col("z"), 0), columns))

	_, err = e.Evaluate(Field(Col("z"), "missing"), columns)
	assert.Error(t, err)
	_, err = e.Evaluate(Field(Col("phi"), "real"), columns)
	assert.Error(t, err)
}

func TestEvaluatorErrors(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	_, err := e.Evaluate(Col("missing"), columns)
	assert.ErrorContains(t, err, "column not found")

	_, err = e.Evaluate(Invalid("bad arguments"), columns)
	assert.ErrorContains(t, err, "bad arguments")

	_, err = e.Evaluate(Sqrt(Col("run")), columns)
	assert.Error(t, err)

	_, err = e.Evaluate(NewFunction("nope", Col("n")), columns)
	assert.ErrorContains(t, err, "unsupported function")

	_, err = e.Evaluate(Lit(1.0), map[string]arrow.Array{})
	assert.Error(t, err)

	_, err = e.EvaluateBoolean(Col("n"), columns)
	assert.Error(t, err)
}

func TestEvaluateIsNaN(t *testing.T) {
	mem := memory.NewGoAllocator()
	columns := createTestColumns(t, mem)
	defer releaseColumns(columns)
	e := NewEvaluator(mem)

	mask, err := e.EvaluateBoolean(IsNaN(Div(Col("phi"), Col("phi"))), columns)
	require.NoError(t, err)
	defer mask.Release()

	assert.True(t, mask.Value(0))
	assert.False(t, mask.Value(1))
	assert.False(t, mask.Value(2))
	assert.True(t, mask.Value(3))
}
