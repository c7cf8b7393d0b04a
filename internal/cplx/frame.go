package cplx

import (
	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/expr"
	"github.com/paveg/phasor/internal/schema"
	"github.com/paveg/phasor/internal/validation"
)

// NestPair packs the scalar columns realName and imagName into one record
// column named <target>[c], placed where realName was. The stems of the two
// inputs need not match.
func NestPair(df *dataframe.DataFrame, realName, imagName, target string) (*dataframe.DataFrame, error) {
	const op = "Nest"
	for _, name := range []string{realName, imagName} {
		if !df.HasColumn(name) {
			return nil, dferrors.NewMissingFieldError(op, name)
		}
	}

	if _, err := Bind(df, realName, imagName); err != nil {
		return nil, err
	}
	z := Pair(realName, imagName)
	nestedName := schema.ComplexName(schema.Stem(target))
	withNested, err := df.WithColumns(z.Alias(nestedName))
	if err != nil {
		return nil, err
	}
	defer withNested.Release()

	order := make([]string, 0, df.Width())
	for _, name := range df.Columns() {
		switch name {
		case realName:
			order = append(order, nestedName)
		case imagName, nestedName:
		default:
			order = append(order, name)
		}
	}
	return withNested.Select(order...), nil
}

// NestFrame packs <stem>.real/<stem>.imag pairs into <stem>[c] columns. With no
// stems every complete pair in df is nested.
func NestFrame(df *dataframe.DataFrame, stems ...string) (*dataframe.DataFrame, error) {
	if len(stems) == 0 {
		stems = schema.Describe(df.Schema()).Pairs()
	}

	for _, stem := range stems {
		if err := validation.ValidatePair(df, "Nest", stem); err != nil {
			return nil, err
		}
	}

	out := df.Clone()
	for _, stem := range stems {
		stem = schema.Stem(stem)
		next, err := NestPair(out, schema.RealName(stem), schema.ImagName(stem), stem)
		out.Release()
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// UnnestFrame replaces each named record column with <stem>.real and
// <stem>.imag columns at the same position. With no names every complex
// column is unnested.
func UnnestFrame(df *dataframe.DataFrame, names ...string) (*dataframe.DataFrame, error) {
	const op = "Unnest"
	desc := schema.Describe(df.Schema())
	if len(names) == 0 {
		names = desc.Names(schema.KindComplex)
	}
	if len(names) == 0 {
		return df.Clone(), nil
	}

	targets := make(map[string]string, len(names))
	var exprs []expr.Expr
	for _, name := range names {
		if _, err := Bind(df, name); err != nil {
			return nil, err
		}
		stem := schema.Stem(name)
		for _, other := range []string{schema.RealName(stem), schema.ImagName(stem)} {
			if df.HasColumn(other) {
				return nil, dferrors.NewSchemaMismatchError(op, other, "unnesting would overwrite an existing column")
			}
		}
		targets[name] = stem
		exprs = append(exprs, Col(name).Unnest(stem)...)
	}

	withParts, err := df.WithColumns(exprs...)
	if err != nil {
		return nil, err
	}
	defer withParts.Release()

	order := make([]string, 0, df.Width()+len(names))
	for _, name := range df.Columns() {
		if stem, ok := targets[name]; ok {
			order = append(order, schema.RealName(stem), schema.ImagName(stem))
			continue
		}
		order = append(order, name)
	}
	return withParts.Select(order...), nil
}
