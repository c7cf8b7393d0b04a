package expr

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Evaluator evaluates expressions against Arrow arrays
type Evaluator struct {
	mem memory.Allocator
}

// NewEvaluator creates a new expression evaluator
func NewEvaluator(mem memory.Allocator) *Evaluator {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Evaluator{mem: mem}
}

// EvaluateBoolean evaluates an expression that should return a boolean array
func (e *Evaluator) EvaluateBoolean(expr Expr, columns map[string]arrow.Array) (*array.Boolean, error) {
	arr, err := e.Evaluate(expr, columns)
	if err != nil {
		return nil, err
	}
	b, ok := arr.(*array.Boolean)
	if !ok {
		arr.Release()
		return nil, fmt.Errorf("expression %s is not boolean: %s", expr.String(), arr.DataType())
	}
	return b, nil
}

// Evaluate evaluates an expression that returns a value array (numeric, string, etc.)
// The caller owns the returned array.
func (e *Evaluator) Evaluate(expr Expr, columns map[string]arrow.Array) (arrow.Array, error) {
	switch ex := expr.(type) {
	case *ColumnExpr:
		return e.evaluateColumn(ex, columns)
	case *LiteralExpr:
		return e.evaluateLiteral(ex, columns)
	case *BinaryExpr:
		return e.evaluateBinary(ex, columns)
	case *UnaryExpr:
		return e.evaluateUnary(ex, columns)
	case *FunctionExpr:
		return e.evaluateFunction(ex, columns)
	case *CaseExpr:
		return e.evaluateCase(ex, columns)
	case *StructExpr:
		return e.evaluateStruct(ex, columns)
	case *FieldExpr:
		return e.evaluateField(ex, columns)
	case *AliasExpr:
		return e.Evaluate(ex.expr, columns)
	case *InvalidExpr:
		return nil, fmt.Errorf("invalid expression: %s", ex.Message())
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func (e *Evaluator) evaluateColumn(expr *ColumnExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	arr, exists := columns[expr.name]
	if !exists {
		return nil, fmt.Errorf("column not found: %s", expr.name)
	}
	arr.Retain()
	return arr, nil
}

func (e *Evaluator) evaluateLiteral(expr *LiteralExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	// Create an array with the literal value repeated for all rows
	length, ok := getArrayLength(columns)
	if !ok {
		return nil, fmt.Errorf("cannot determine array length for literal")
	}

	switch val := expr.value.(type) {
	case nil:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		builder.AppendNulls(length)
		return builder.NewArray(), nil
	case string:
		builder := array.NewStringBuilder(e.mem)
		defer builder.Release()
		for i := 0; i < length; i++ {
			builder.Append(val)
		}
		return builder.NewArray(), nil
	case int64:
		return e.repeatInt64(val, length), nil
	case int:
		return e.repeatInt64(int64(val), length), nil
	case float64:
		return e.repeatFloat64(val, length), nil
	case bool:
		builder := array.NewBooleanBuilder(e.mem)
		defer builder.Release()
		for i := 0; i < length; i++ {
			builder.Append(val)
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", val)
	}
}

func (e *Evaluator) repeatInt64(val int64, length int) arrow.Array {
	builder := array.NewInt64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < length; i++ {
		builder.Append(val)
	}
	return builder.NewArray()
}

func (e *Evaluator) repeatFloat64(val float64, length int) arrow.Array {
	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < length; i++ {
		builder.Append(val)
	}
	return builder.NewArray()
}

func (e *Evaluator) evaluateBinary(expr *BinaryExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	// Evaluate left and right operands
	left, err := e.Evaluate(expr.left, columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating left operand: %w", err)
	}
	defer left.Release()

	right, err := e.Evaluate(expr.right, columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating right operand: %w", err)
	}
	defer right.Release()

	if left.Len() != right.Len() {
		return nil, fmt.Errorf("operand length mismatch: %d vs %d", left.Len(), right.Len())
	}

	// Apply the binary operation
	switch expr.op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return e.evaluateArithmetic(left, right, expr.op)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return e.evaluateComparison(left, right, expr.op)
	case OpAnd, OpOr:
		return e.evaluateLogical(left, right, expr.op)
	default:
		return nil, fmt.Errorf("unsupported binary operation: %v", expr.op)
	}
}

func (e *Evaluator) evaluateArithmetic(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	l64, lok := left.(*array.Int64)
	r64, rok := right.(*array.Int64)
	if lok && rok {
		return e.evaluateInt64Arithmetic(l64, r64, op)
	}

	// Mixed or floating operands are promoted to float64
	lf, err := e.toFloat64(left)
	if err != nil {
		return nil, fmt.Errorf("converting left operand: %w", err)
	}
	defer lf.Release()

	rf, err := e.toFloat64(right)
	if err != nil {
		return nil, fmt.Errorf("converting right operand: %w", err)
	}
	defer rf.Release()

	return e.evaluateFloat64Arithmetic(lf, rf, op)
}

func (e *Evaluator) evaluateInt64Arithmetic(left, right *array.Int64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewInt64Builder(e.mem)
	defer builder.Release()

	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) || right.IsNull(i) {
			builder.AppendNull()
			continue
		}

		l := left.Value(i)
		r := right.Value(i)

		var result int64
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			if r == 0 {
				builder.AppendNull()
				continue
			}
			result = l / r
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFloat64Arithmetic(left, right *array.Float64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()

	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) || right.IsNull(i) {
			builder.AppendNull()
			continue
		}

		l := left.Value(i)
		r := right.Value(i)

		var result float64
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			result = l / r // Division by zero results in +/-Inf, which is handled by Go
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateComparison(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	switch l := left.(type) {
	case *array.String:
		r, ok := right.(*array.String)
		if !ok {
			return nil, fmt.Errorf("cannot compare %s with %s", left.DataType(), right.DataType())
		}
		for i := 0; i < l.Len(); i++ {
			if l.IsNull(i) || r.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(compareOrdered(l.Value(i), r.Value(i), op))
		}
	case *array.Boolean:
		r, ok := right.(*array.Boolean)
		if !ok || (op != OpEq && op != OpNe) {
			return nil, fmt.Errorf("unsupported boolean comparison: %v", op)
		}
		for i := 0; i < l.Len(); i++ {
			if l.IsNull(i) || r.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append((l.Value(i) == r.Value(i)) == (op == OpEq))
		}
	default:
		lf, err := e.toFloat64(left)
		if err != nil {
			return nil, err
		}
		defer lf.Release()
		rf, err := e.toFloat64(right)
		if err != nil {
			return nil, err
		}
		defer rf.Release()
		for i := 0; i < lf.Len(); i++ {
			if lf.IsNull(i) || rf.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(compareOrdered(lf.Value(i), rf.Value(i), op))
		}
	}

	return builder.NewArray(), nil
}

func compareOrdered[T float64 | string](l, r T, op BinaryOp) bool {
	switch op {
	case OpEq:
		return l == r
	case OpNe:
		return l != r
	case OpLt:
		return l < r
	case OpLe:
		return l <= r
	case OpGt:
		return l > r
	case OpGe:
		return l >= r
	default:
		return false
	}
}

func (e *Evaluator) evaluateLogical(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	l, lok := left.(*array.Boolean)
	r, rok := right.(*array.Boolean)
	if !lok || !rok {
		return nil, fmt.Errorf("logical operation requires boolean operands")
	}

	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()
	for i := 0; i < l.Len(); i++ {
		if l.IsNull(i) || r.IsNull(i) {
			builder.AppendNull()
			continue
		}
		if op == OpAnd {
			builder.Append(l.Value(i) && r.Value(i))
		} else {
			builder.Append(l.Value(i) || r.Value(i))
		}
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateUnary(expr *UnaryExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	operand, err := e.Evaluate(expr.operand, columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating operand: %w", err)
	}
	defer operand.Release()

	switch expr.op {
	case UnaryNeg:
		if ints, ok := operand.(*array.Int64); ok {
			builder := array.NewInt64Builder(e.mem)
			defer builder.Release()
			for i := 0; i < ints.Len(); i++ {
				if ints.IsNull(i) {
					builder.AppendNull()
					continue
				}
				builder.Append(-ints.Value(i))
			}
			return builder.NewArray(), nil
		}
		return e.mapFloat64(operand, func(v float64) float64 { return -v })
	case UnaryNot:
		b, ok := operand.(*array.Boolean)
		if !ok {
			return nil, fmt.Errorf("not requires a boolean operand, got %s", operand.DataType())
		}
		builder := array.NewBooleanBuilder(e.mem)
		defer builder.Release()
		for i := 0; i < b.Len(); i++ {
			if b.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(!b.Value(i))
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported unary operation: %v", expr.op)
	}
}

var unaryMath = map[string]func(float64) float64{
	FuncSqrt: math.Sqrt,
	FuncAbs:  math.Abs,
	FuncExp:  math.Exp,
	FuncLog:  math.Log,
	FuncSin:  math.Sin,
	FuncCos:  math.Cos,
	FuncSinh: math.Sinh,
	FuncCosh: math.Cosh,
}

// evaluateFunction evaluates a function expression
func (e *Evaluator) evaluateFunction(expr *FunctionExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	if fn, ok := unaryMath[expr.name]; ok {
		arg, err := e.evaluateArgs(expr, columns, 1)
		if err != nil {
			return nil, err
		}
		defer arg[0].Release()
		return e.mapFloat64(arg[0], fn)
	}

	switch expr.name {
	case FuncAtan2, FuncPow:
		args, err := e.evaluateArgs(expr, columns, 2)
		if err != nil {
			return nil, err
		}
		defer releaseAll(args)
		fn := math.Atan2
		if expr.name == FuncPow {
			fn = math.Pow
		}
		return e.zipFloat64(args[0], args[1], fn)
	case FuncIsNaN:
		args, err := e.evaluateArgs(expr, columns, 1)
		if err != nil {
			return nil, err
		}
		defer releaseAll(args)
		return e.evaluateIsNaN(args[0])
	case FuncShift:
		return e.evaluateShift(expr, columns)
	case FuncCumSum:
		args, err := e.evaluateArgs(expr, columns, 1)
		if err != nil {
			return nil, err
		}
		defer releaseAll(args)
		return e.evaluateCumSum(args[0])
	case FuncFillNull:
		args, err := e.evaluateArgs(expr, columns, 2)
		if err != nil {
			return nil, err
		}
		defer releaseAll(args)
		return e.evaluateFillNull(args[0], args[1])
	case FuncFloat:
		args, err := e.evaluateArgs(expr, columns, 1)
		if err != nil {
			return nil, err
		}
		defer releaseAll(args)
		return e.toFloat64(args[0])
	case FuncFirst:
		args, err := e.evaluateArgs(expr, columns, 1)
		if err != nil {
			return nil, err
		}
		defer releaseAll(args)
		return e.evaluateFirst(args[0])
	default:
		return nil, fmt.Errorf("unsupported function: %s", expr.name)
	}
}

func (e *Evaluator) evaluateArgs(expr *FunctionExpr, columns map[string]arrow.Array, n int) ([]arrow.Array, error) {
	if len(expr.args) != n {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", expr.name, n, len(expr.args))
	}
	out := make([]arrow.Array, 0, n)
	for _, a := range expr.args {
		arr, err := e.Evaluate(a, columns)
		if err != nil {
			releaseAll(out)
			return nil, fmt.Errorf("evaluating %s argument: %w", expr.name, err)
		}
		out = append(out, arr)
	}
	return out, nil
}

func (e *Evaluator) evaluateIsNaN(arr arrow.Array) (arrow.Array, error) {
	f, err := e.toFloat64(arr)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()
	for i := 0; i < f.Len(); i++ {
		builder.Append(f.IsValid(i) && math.IsNaN(f.Value(i)))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateShift(expr *FunctionExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	if len(expr.args) != 2 {
		return nil, fmt.Errorf("%s expects 2 arguments, got %d", expr.name, len(expr.args))
	}
	lit, ok := expr.args[1].(*LiteralExpr)
	if !ok {
		return nil, fmt.Errorf("shift periods must be a literal")
	}
	periods, ok := lit.value.(int64)
	if !ok {
		return nil, fmt.Errorf("shift periods must be int64, got %T", lit.value)
	}

	arr, err := e.Evaluate(expr.args[0], columns)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	f, err := e.toFloat64(arr)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	n := f.Len()
	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < n; i++ {
		src := i - int(periods)
		if src < 0 || src >= n || f.IsNull(src) {
			builder.AppendNull()
			continue
		}
		builder.Append(f.Value(src))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateCumSum(arr arrow.Array) (arrow.Array, error) {
	f, err := e.toFloat64(arr)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	sum := 0.0
	for i := 0; i < f.Len(); i++ {
		if f.IsNull(i) {
			builder.AppendNull()
			continue
		}
		sum += f.Value(i)
		builder.Append(sum)
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFillNull(arr, fill arrow.Array) (arrow.Array, error) {
	f, err := e.toFloat64(arr)
	if err != nil {
		return nil, err
	}
	defer f.Release()
	v, err := e.toFloat64(fill)
	if err != nil {
		return nil, err
	}
	defer v.Release()

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < f.Len(); i++ {
		switch {
		case f.IsValid(i):
			builder.Append(f.Value(i))
		case v.IsValid(i):
			builder.Append(v.Value(i))
		default:
			builder.AppendNull()
		}
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFirst(arr arrow.Array) (arrow.Array, error) {
	f, err := e.toFloat64(arr)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	if f.Len() == 0 {
		return builder.NewArray(), nil
	}
	if f.IsNull(0) {
		builder.AppendNulls(f.Len())
		return builder.NewArray(), nil
	}
	first := f.Value(0)
	for i := 0; i < f.Len(); i++ {
		builder.Append(first)
	}
	return builder.NewArray(), nil
}

// evaluateCase picks, per row, the value of the first matching branch. Rows
// matching no branch take the else value, or null without one.
func (e *Evaluator) evaluateCase(expr *CaseExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	if len(expr.whens) == 0 {
		return nil, fmt.Errorf("case expression has no when clauses")
	}

	conds := make([]*array.Boolean, 0, len(expr.whens))
	values := make([]*array.Float64, 0, len(expr.whens))
	defer func() {
		for _, c := range conds {
			c.Release()
		}
		for _, v := range values {
			v.Release()
		}
	}()

	for _, when := range expr.whens {
		cond, err := e.EvaluateBoolean(when.condition, columns)
		if err != nil {
			return nil, fmt.Errorf("evaluating case condition: %w", err)
		}
		conds = append(conds, cond)

		val, err := e.evaluateFloat64(when.value, columns)
		if err != nil {
			return nil, fmt.Errorf("evaluating case value: %w", err)
		}
		values = append(values, val)
	}

	var elseValue *array.Float64
	if expr.elseValue != nil {
		val, err := e.evaluateFloat64(expr.elseValue, columns)
		if err != nil {
			return nil, fmt.Errorf("evaluating case else: %w", err)
		}
		defer val.Release()
		elseValue = val
	}

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < conds[0].Len(); i++ {
		src := elseValue
		for k, cond := range conds {
			if cond.IsValid(i) && cond.Value(i) {
				src = values[k]
				break
			}
		}
		if src == nil || src.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(src.Value(i))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateStruct(expr *StructExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	if len(expr.fields) == 0 {
		return nil, fmt.Errorf("struct expression has no fields")
	}

	children := make([]arrow.Array, 0, len(expr.fields))
	names := make([]string, 0, len(expr.fields))
	defer func() { releaseAll(children) }()

	for _, f := range expr.fields {
		arr, err := e.Evaluate(f, columns)
		if err != nil {
			return nil, fmt.Errorf("evaluating struct field %s: %w", OutputName(f), err)
		}
		children = append(children, arr)
		names = append(names, OutputName(f))
	}

	out, err := array.NewStructArray(children, names)
	if err != nil {
		return nil, fmt.Errorf("building struct: %w", err)
	}
	return out, nil
}

func (e *Evaluator) evaluateField(expr *FieldExpr, columns map[string]arrow.Array) (arrow.Array, error) {
	input, err := e.Evaluate(expr.input, columns)
	if err != nil {
		return nil, err
	}
	defer input.Release()

	st, ok := input.(*array.Struct)
	if !ok {
		return nil, fmt.Errorf("field access on non-struct expression %s (%s)", expr.input.String(), input.DataType())
	}

	idx := expr.index
	if expr.name != "" {
		i, found := st.DataType().(*arrow.StructType).FieldIdx(expr.name)
		if !found {
			return nil, fmt.Errorf("struct has no field %q", expr.name)
		}
		idx = i
	}
	if idx < 0 || idx >= st.NumField() {
		return nil, fmt.Errorf("struct field index %d out of range", idx)
	}

	field := st.Field(idx)
	field.Retain()
	return field, nil
}

func (e *Evaluator) evaluateFloat64(expr Expr, columns map[string]arrow.Array) (*array.Float64, error) {
	arr, err := e.Evaluate(expr, columns)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return e.toFloat64(arr)
}

// toFloat64 returns arr as a float64 array. The result is owned by the caller.
func (e *Evaluator) toFloat64(arr arrow.Array) (*array.Float64, error) {
	if f, ok := arr.(*array.Float64); ok {
		f.Retain()
		return f, nil
	}

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	builder.Reserve(arr.Len())

	switch typed := arr.(type) {
	case *array.Int64:
		for i := 0; i < typed.Len(); i++ {
			if typed.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(float64(typed.Value(i)))
		}
	case *array.Int32:
		for i := 0; i < typed.Len(); i++ {
			if typed.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(float64(typed.Value(i)))
		}
	case *array.Float32:
		for i := 0; i < typed.Len(); i++ {
			if typed.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(float64(typed.Value(i)))
		}
	default:
		return nil, fmt.Errorf("cannot convert %s to float64", arr.DataType())
	}

	return builder.NewArray().(*array.Float64), nil
}

func (e *Evaluator) mapFloat64(arr arrow.Array, fn func(float64) float64) (arrow.Array, error) {
	f, err := e.toFloat64(arr)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < f.Len(); i++ {
		if f.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(fn(f.Value(i)))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) zipFloat64(left, right arrow.Array, fn func(float64, float64) float64) (arrow.Array, error) {
	if left.Len() != right.Len() {
		return nil, fmt.Errorf("argument length mismatch: %d vs %d", left.Len(), right.Len())
	}
	lf, err := e.toFloat64(left)
	if err != nil {
		return nil, err
	}
	defer lf.Release()
	rf, err := e.toFloat64(right)
	if err != nil {
		return nil, err
	}
	defer rf.Release()

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < lf.Len(); i++ {
		if lf.IsNull(i) || rf.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(fn(lf.Value(i), rf.Value(i)))
	}
	return builder.NewArray(), nil
}

func getArrayLength(columns map[string]arrow.Array) (int, bool) {
	for _, arr := range columns {
		return arr.Len(), true
	}
	return 0, false
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		a.Release()
	}
}
