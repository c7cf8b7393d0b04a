// Package cplx encodes complex quantities as pairs of real expressions and
// implements complex arithmetic as compositions of expr primitives. A value
// lives in a table either as a struct column <stem>[c] with fields real and
// imag, or as two float columns <stem>.real and <stem>.imag.
package cplx

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/expr"
	"github.com/paveg/phasor/internal/schema"
)

// Expr is a complex-valued expression: a real part and an imaginary part,
// always produced and consumed together.
type Expr struct {
	re expr.Expr
	im expr.Expr
}

// New pairs two real expressions into a complex expression
func New(re, im expr.Expr) Expr {
	return Expr{re: re, im: im}
}

// Real returns the real-part expression
func (z Expr) Real() expr.Expr {
	return z.re
}

// Imag returns the imaginary-part expression
func (z Expr) Imag() expr.Expr {
	return z.im
}

func (z Expr) String() string {
	return fmt.Sprintf("complex(%s, %s)", z.re.String(), z.im.String())
}

// Col binds a column whose cells are two-field records. Components are taken
// by field position: the first field is the real part. Integer fields are
// read as float64.
func Col(name string) Expr {
	c := expr.Col(name)
	return Expr{re: expr.Float(expr.FieldAt(c, 0)), im: expr.Float(expr.FieldAt(c, 1))}
}

// Pair binds two scalar columns as real and imaginary parts, read as float64
func Pair(realName, imagName string) Expr {
	return Expr{re: expr.Float(expr.Col(realName)), im: expr.Float(expr.Col(imagName))}
}

// Cols binds one record column or a real/imag pair of columns. Any other
// number of names yields an expression that fails on evaluation.
func Cols(names ...string) Expr {
	switch len(names) {
	case 1:
		return Col(names[0])
	case 2:
		return Pair(names[0], names[1])
	default:
		invalid := expr.Invalid("could not create complex expression from arguments")
		return Expr{re: invalid, im: invalid}
	}
}

// Into lifts a real expression to a complex one with zero imaginary part
func Into(e expr.Expr) Expr {
	return Expr{re: expr.Float(e), im: expr.Lit(0.0)}
}

// Lit is a complex literal
func Lit(z complex128) Expr {
	return Expr{re: expr.Lit(real(z)), im: expr.Lit(imag(z))}
}

// Bind validates names against df and binds them like Cols. A single name
// must be a record column with exactly two numeric fields; for a pair, a
// missing column is reported by name.
func Bind(df *dataframe.DataFrame, names ...string) (Expr, error) {
	const op = "Bind"
	switch len(names) {
	case 1:
		s, ok := df.Column(names[0])
		if !ok {
			return Expr{}, dferrors.NewMissingFieldError(op, names[0])
		}
		st, isStruct := s.DataType().(*arrow.StructType)
		if !isStruct || st.NumFields() != 2 {
			return Expr{}, dferrors.NewSchemaMismatchError(op, names[0],
				fmt.Sprintf("expected a record of two fields, got %s", s.DataType()))
		}
		for _, f := range st.Fields() {
			if !schema.IsNumericType(f.Type) {
				return Expr{}, dferrors.NewUnsupportedTypeError(op, names[0], s.DataType().String())
			}
		}
		return Col(names[0]), nil
	case 2:
		for _, name := range names {
			s, ok := df.Column(name)
			if !ok {
				return Expr{}, dferrors.NewMissingFieldError(op, name)
			}
			if !schema.IsNumericType(s.DataType()) {
				return Expr{}, dferrors.NewUnsupportedTypeError(op, name, s.DataType().String())
			}
		}
		return Pair(names[0], names[1]), nil
	default:
		return Expr{}, dferrors.NewInvalidInputError(op, "could not create complex expression from arguments")
	}
}

// Struct packs the pair into one record expression with fields real and imag
func (z Expr) Struct() *expr.StructExpr {
	return expr.Struct(
		expr.Alias(z.re, schema.RealField),
		expr.Alias(z.im, schema.ImagField),
	)
}

// Alias emits the value as a record column named <stem>[c]
func (z Expr) Alias(stem string) *expr.AliasExpr {
	return expr.Alias(z.Struct(), schema.ComplexName(schema.Stem(stem)))
}

// Unnest emits the value as two scalar columns <stem>.real and <stem>.imag
func (z Expr) Unnest(stem string) []expr.Expr {
	return []expr.Expr{
		expr.Alias(z.re, schema.RealName(stem)),
		expr.Alias(z.im, schema.ImagName(stem)),
	}
}
