// Package schema resolves the column kinds of a table once, so operations can
// dispatch over a closed set {Scalar, Complex, Identifier} instead of probing
// column names and types at every call site. It also owns the naming rules that
// link a complex quantity's stem to its physical columns.
package schema

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Naming conventions for complex columns.
const (
	ComplexTag = "[c]"
	RealSuffix = ".real"
	ImagSuffix = ".imag"
	RealField  = "real"
	ImagField  = "imag"
)

// ComplexType is the Arrow layout of a complex cell. Fields are nullable so
// the type matches struct arrays assembled with array.NewStructArray.
var ComplexType = arrow.StructOf(
	arrow.Field{Name: RealField, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	arrow.Field{Name: ImagField, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
)

// ComplexName returns the nested-column alias for stem. It is idempotent.
func ComplexName(stem string) string {
	if strings.HasSuffix(stem, ComplexTag) {
		return stem
	}
	return stem + ComplexTag
}

// RealName returns the physical real-part column name for stem.
func RealName(stem string) string {
	return Stem(stem) + RealSuffix
}

// ImagName returns the physical imaginary-part column name for stem.
func ImagName(stem string) string {
	return Stem(stem) + ImagSuffix
}

// Stem strips the complex tag or a component suffix from name.
func Stem(name string) string {
	for _, suffix := range []string{ComplexTag, RealSuffix, ImagSuffix} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// IsComplexName reports whether name carries the complex tag.
func IsComplexName(name string) bool {
	return strings.HasSuffix(name, ComplexTag)
}

// IsComplexType reports whether dt is a two-field record of float64 values.
func IsComplexType(dt arrow.DataType) bool {
	st, ok := dt.(*arrow.StructType)
	if !ok || st.NumFields() != 2 {
		return false
	}
	for _, f := range st.Fields() {
		if f.Type.ID() != arrow.FLOAT64 {
			return false
		}
	}
	return true
}

// IsNumericType reports whether dt can be read as float64 values.
func IsNumericType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.FLOAT64, arrow.FLOAT32, arrow.INT64, arrow.INT32:
		return true
	default:
		return false
	}
}

// Kind is the role a column plays in a table.
type Kind int

const (
	KindOther Kind = iota
	KindScalar
	KindComplex
	KindIdentifier
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindComplex:
		return "complex"
	case KindIdentifier:
		return "identifier"
	default:
		return "other"
	}
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
	Type arrow.DataType
}

// Descriptor is the resolved schema of a table.
type Descriptor struct {
	columns []Column
	byName  map[string]int
}

// Describe classifies fields. Columns listed in identifiers are KindIdentifier
// regardless of their type.
func Describe(fields []arrow.Field, identifiers ...string) Descriptor {
	ids := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		ids[id] = true
	}

	d := Descriptor{
		columns: make([]Column, 0, len(fields)),
		byName:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		kind := KindOther
		switch {
		case ids[f.Name]:
			kind = KindIdentifier
		case IsComplexType(f.Type):
			kind = KindComplex
		case IsNumericType(f.Type):
			kind = KindScalar
		}
		d.byName[f.Name] = len(d.columns)
		d.columns = append(d.columns, Column{Name: f.Name, Kind: kind, Type: f.Type})
	}
	return d
}

// Columns returns all column descriptors in table order.
func (d Descriptor) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

// Lookup returns the descriptor of name.
func (d Descriptor) Lookup(name string) (Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// Names returns the names of the columns of the given kind, in table order.
func (d Descriptor) Names(kind Kind) []string {
	var names []string
	for _, c := range d.columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// Pairs returns the stems for which both a scalar <stem>.real and a scalar
// <stem>.imag column exist, in order of the real column.
func (d Descriptor) Pairs() []string {
	var stems []string
	for _, c := range d.columns {
		if c.Kind != KindScalar || !strings.HasSuffix(c.Name, RealSuffix) {
			continue
		}
		stem := strings.TrimSuffix(c.Name, RealSuffix)
		if imag, ok := d.Lookup(stem + ImagSuffix); ok && imag.Kind == KindScalar {
			stems = append(stems, stem)
		}
	}
	return stems
}
