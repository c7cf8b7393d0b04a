// Package expr provides expression evaluation for DataFrame operations
package expr

import (
	"fmt"
	"strings"
)

// ExprType represents the type of expression
type ExprType int

const (
	ExprColumn ExprType = iota
	ExprLiteral
	ExprBinary
	ExprUnary
	ExprFunction
	ExprCase
	ExprStruct
	ExprField
	ExprAlias
	ExprInvalid
)

// Expr represents an expression that can be evaluated lazily
type Expr interface {
	Type() ExprType
	String() string
}

// ColumnExpr represents a column reference
type ColumnExpr struct {
	name string
}

func (c *ColumnExpr) Type() ExprType {
	return ExprColumn
}

func (c *ColumnExpr) String() string {
	return fmt.Sprintf("col(%s)", c.name)
}

func (c *ColumnExpr) Name() string {
	return c.name
}

// LiteralExpr represents a literal value
type LiteralExpr struct {
	value interface{}
}

func (l *LiteralExpr) Type() ExprType {
	return ExprLiteral
}

func (l *LiteralExpr) String() string {
	return fmt.Sprintf("lit(%v)", l.value)
}

func (l *LiteralExpr) Value() interface{} {
	return l.value
}

// BinaryOp represents binary operations
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryOpSymbols = map[BinaryOp]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",
}

// BinaryExpr represents a binary operation
type BinaryExpr struct {
	left  Expr
	op    BinaryOp
	right Expr
}

func (b *BinaryExpr) Type() ExprType {
	return ExprBinary
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left.String(), binaryOpSymbols[b.op], b.right.String())
}

func (b *BinaryExpr) Left() Expr {
	return b.left
}

func (b *BinaryExpr) Op() BinaryOp {
	return b.op
}

func (b *BinaryExpr) Right() Expr {
	return b.right
}

// UnaryOp represents unary operations
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// UnaryExpr represents a unary operation
type UnaryExpr struct {
	op      UnaryOp
	operand Expr
}

func (u *UnaryExpr) Type() ExprType {
	return ExprUnary
}

func (u *UnaryExpr) String() string {
	var opStr string
	switch u.op {
	case UnaryNeg:
		opStr = "-"
	case UnaryNot:
		opStr = "!"
	}
	return fmt.Sprintf("(%s%s)", opStr, u.operand.String())
}

func (u *UnaryExpr) Op() UnaryOp {
	return u.op
}

func (u *UnaryExpr) Operand() Expr {
	return u.operand
}

// FunctionExpr represents a function call expression
type FunctionExpr struct {
	name string
	args []Expr
}

func (f *FunctionExpr) Type() ExprType {
	return ExprFunction
}

func (f *FunctionExpr) String() string {
	argStrs := make([]string, len(f.args))
	for i, arg := range f.args {
		argStrs[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(argStrs, ", "))
}

func (f *FunctionExpr) Name() string {
	return f.name
}

func (f *FunctionExpr) Args() []Expr {
	return f.args
}

// CaseWhen represents a condition and value pair in CASE expression
type CaseWhen struct {
	condition Expr
	value     Expr
}

// CaseExpr represents a CASE expression with multiple WHEN clauses
type CaseExpr struct {
	whens     []CaseWhen
	elseValue Expr
}

func (c *CaseExpr) Type() ExprType {
	return ExprCase
}

func (c *CaseExpr) String() string {
	result := "case"
	for _, when := range c.whens {
		result += fmt.Sprintf(" when %s then %s", when.condition.String(), when.value.String())
	}
	if c.elseValue != nil {
		result += fmt.Sprintf(" else %s", c.elseValue.String())
	}
	result += " end"
	return result
}

func (c *CaseExpr) Whens() []CaseWhen {
	return c.whens
}

func (c *CaseExpr) ElseValue() Expr {
	return c.elseValue
}

// When adds a condition-value pair to the case expression
func (c *CaseExpr) When(condition, value Expr) *CaseExpr {
	newWhens := make([]CaseWhen, len(c.whens)+1)
	copy(newWhens, c.whens)
	newWhens[len(c.whens)] = CaseWhen{condition: condition, value: value}

	return &CaseExpr{
		whens:     newWhens,
		elseValue: c.elseValue,
	}
}

// Else sets the default value for the case expression
func (c *CaseExpr) Else(value Expr) *CaseExpr {
	return &CaseExpr{
		whens:     c.whens,
		elseValue: value,
	}
}

// StructExpr packs its fields into one record column. Field names come from
// OutputName of each field expression.
type StructExpr struct {
	fields []Expr
}

func (s *StructExpr) Type() ExprType {
	return ExprStruct
}

func (s *StructExpr) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("struct(%s)", strings.Join(parts, ", "))
}

func (s *StructExpr) Fields() []Expr {
	return s.fields
}

// FieldExpr extracts one field of a record expression, by name or by position
// when name is empty.
type FieldExpr struct {
	input Expr
	name  string
	index int
}

func (f *FieldExpr) Type() ExprType {
	return ExprField
}

func (f *FieldExpr) String() string {
	if f.name != "" {
		return fmt.Sprintf("%s.field(%s)", f.input.String(), f.name)
	}
	return fmt.Sprintf("%s.field(#%d)", f.input.String(), f.index)
}

func (f *FieldExpr) Input() Expr {
	return f.input
}

// AliasExpr names the output of an expression
type AliasExpr struct {
	expr Expr
	name string
}

func (a *AliasExpr) Type() ExprType {
	return ExprAlias
}

func (a *AliasExpr) String() string {
	return fmt.Sprintf("%s.alias(%s)", a.expr.String(), a.name)
}

func (a *AliasExpr) Expr() Expr {
	return a.expr
}

func (a *AliasExpr) Name() string {
	return a.name
}

// InvalidExpr represents an invalid expression with an error message
type InvalidExpr struct {
	message string
}

func (i *InvalidExpr) Type() ExprType {
	return ExprInvalid
}

func (i *InvalidExpr) String() string {
	return fmt.Sprintf("invalid(%s)", i.message)
}

func (i *InvalidExpr) Message() string {
	return i.message
}

// OutputName returns the column name an expression produces when added to a
// table: the alias, the referenced column, or the rendered expression.
func OutputName(e Expr) string {
	switch ex := e.(type) {
	case *AliasExpr:
		return ex.name
	case *ColumnExpr:
		return ex.name
	case *FieldExpr:
		if ex.name != "" {
			return ex.name
		}
	}
	return e.String()
}

// Constructor functions

// Col creates a column expression
func Col(name string) *ColumnExpr {
	return &ColumnExpr{name: name}
}

// Lit creates a literal expression
func Lit(value interface{}) *LiteralExpr {
	return &LiteralExpr{value: value}
}

// Invalid creates an invalid expression that fails on evaluation
func Invalid(message string) *InvalidExpr {
	return &InvalidExpr{message: message}
}

// NewFunction creates a function expression
func NewFunction(name string, args ...Expr) *FunctionExpr {
	return &FunctionExpr{name: name, args: args}
}

// Case creates an empty case expression
func Case() *CaseExpr {
	return &CaseExpr{}
}

// Struct creates a record expression from fields
func Struct(fields ...Expr) *StructExpr {
	return &StructExpr{fields: fields}
}

// Field extracts a named field of a record expression
func Field(input Expr, name string) *FieldExpr {
	return &FieldExpr{input: input, name: name}
}

// FieldAt extracts the field at position index of a record expression
func FieldAt(input Expr, index int) *FieldExpr {
	return &FieldExpr{input: input, index: index}
}

// Alias names the output of e
func Alias(e Expr, name string) *AliasExpr {
	if a, ok := e.(*AliasExpr); ok {
		return &AliasExpr{expr: a.expr, name: name}
	}
	return &AliasExpr{expr: e, name: name}
}

// Binary operation constructors

func Add(left, right Expr) *BinaryExpr { return &BinaryExpr{left: left, op: OpAdd, right: right} }
func Sub(left, right Expr) *BinaryExpr { return &BinaryExpr{left: left, op: OpSub, right: right} }
func Mul(left, right Expr) *BinaryExpr { return &BinaryExpr{left: left, op: OpMul, right: right} }
func Div(left, right Expr) *BinaryExpr { return &BinaryExpr{left: left, op: OpDiv, right: right} }
func Eq(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpEq, right: right} }
func Ne(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpNe, right: right} }
func Lt(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpLt, right: right} }
func Le(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpLe, right: right} }
func Gt(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpGt, right: right} }
func Ge(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpGe, right: right} }
func And(left, right Expr) *BinaryExpr { return &BinaryExpr{left: left, op: OpAnd, right: right} }
func Or(left, right Expr) *BinaryExpr  { return &BinaryExpr{left: left, op: OpOr, right: right} }

// Neg negates a numeric expression
func Neg(operand Expr) *UnaryExpr {
	return &UnaryExpr{op: UnaryNeg, operand: operand}
}

// Not inverts a boolean expression
func Not(operand Expr) *UnaryExpr {
	return &UnaryExpr{op: UnaryNot, operand: operand}
}

// Function name constants
const (
	FuncSqrt     = "sqrt"
	FuncAbs      = "abs"
	FuncExp      = "exp"
	FuncLog      = "log"
	FuncSin      = "sin"
	FuncCos      = "cos"
	FuncSinh     = "sinh"
	FuncCosh     = "cosh"
	FuncAtan2    = "atan2"
	FuncPow      = "pow"
	FuncIsNaN    = "is_nan"
	FuncShift    = "shift"
	FuncCumSum   = "cum_sum"
	FuncFillNull = "fill_null"
	FuncFirst    = "first"
	FuncFloat    = "float"
)

// Math function constructors

func Sqrt(e Expr) *FunctionExpr { return NewFunction(FuncSqrt, e) }
func Abs(e Expr) *FunctionExpr  { return NewFunction(FuncAbs, e) }
func Exp(e Expr) *FunctionExpr  { return NewFunction(FuncExp, e) }
func Log(e Expr) *FunctionExpr  { return NewFunction(FuncLog, e) }
func Sin(e Expr) *FunctionExpr  { return NewFunction(FuncSin, e) }
func Cos(e Expr) *FunctionExpr  { return NewFunction(FuncCos, e) }
func Sinh(e Expr) *FunctionExpr { return NewFunction(FuncSinh, e) }
func Cosh(e Expr) *FunctionExpr { return NewFunction(FuncCosh, e) }

// Atan2 returns the angle of the point (x, y), i.e. math.Atan2(y, x) per row.
func Atan2(y, x Expr) *FunctionExpr {
	return NewFunction(FuncAtan2, y, x)
}

// Pow raises base to exponent per row
func Pow(base, exponent Expr) *FunctionExpr {
	return NewFunction(FuncPow, base, exponent)
}

// IsNaN reports per row whether e is NaN
func IsNaN(e Expr) *FunctionExpr {
	return NewFunction(FuncIsNaN, e)
}

// Sequence functions. These depend on row order.

// Shift moves values down by periods rows (up when negative), filling with nulls.
func Shift(e Expr, periods int) *FunctionExpr {
	return NewFunction(FuncShift, e, Lit(int64(periods)))
}

// CumSum is the running sum of e in row order. Null rows stay null and do not
// contribute.
func CumSum(e Expr) *FunctionExpr {
	return NewFunction(FuncCumSum, e)
}

// FillNull replaces null rows of e with value
func FillNull(e Expr, value Expr) *FunctionExpr {
	return NewFunction(FuncFillNull, e, value)
}

// Float casts a numeric expression to float64
func Float(e Expr) *FunctionExpr {
	return NewFunction(FuncFloat, e)
}

// First broadcasts the first row of e to every row
func First(e Expr) *FunctionExpr {
	return NewFunction(FuncFirst, e)
}

// Fluent helpers on column references

func (c *ColumnExpr) Add(other Expr) *BinaryExpr { return Add(c, other) }
func (c *ColumnExpr) Sub(other Expr) *BinaryExpr { return Sub(c, other) }
func (c *ColumnExpr) Mul(other Expr) *BinaryExpr { return Mul(c, other) }
func (c *ColumnExpr) Div(other Expr) *BinaryExpr { return Div(c, other) }
func (c *ColumnExpr) Lt(other Expr) *BinaryExpr  { return Lt(c, other) }
func (c *ColumnExpr) Gt(other Expr) *BinaryExpr  { return Gt(c, other) }
func (c *ColumnExpr) Eq(other Expr) *BinaryExpr  { return Eq(c, other) }

// Alias names the output of the column reference
func (c *ColumnExpr) Alias(name string) *AliasExpr {
	return Alias(c, name)
}

// Fluent helpers on binary expressions

func (b *BinaryExpr) Add(other Expr) *BinaryExpr { return Add(b, other) }
func (b *BinaryExpr) Sub(other Expr) *BinaryExpr { return Sub(b, other) }
func (b *BinaryExpr) Mul(other Expr) *BinaryExpr { return Mul(b, other) }
func (b *BinaryExpr) Div(other Expr) *BinaryExpr { return Div(b, other) }
func (b *BinaryExpr) And(other Expr) *BinaryExpr { return And(b, other) }
func (b *BinaryExpr) Or(other Expr) *BinaryExpr  { return Or(b, other) }

// Alias names the output of the binary expression
func (b *BinaryExpr) Alias(name string) *AliasExpr {
	return Alias(b, name)
}

// Alias names the output of the function call
func (f *FunctionExpr) Alias(name string) *AliasExpr {
	return Alias(f, name)
}
