package dataset

import (
	"fmt"

	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/schema"
	"github.com/paveg/phasor/internal/series"
	"github.com/paveg/phasor/internal/spectral"
	"github.com/paveg/phasor/internal/validation"
)

// FreqColumn is the index of a Fourier-transformed dataset
const FreqColumn = "freq"

// FourierTransform computes the one-sided real FFT of every value column, per
// identifier group, against the index. The sample spacing of a group is taken
// from its first two index values. The result is indexed by FreqColumn and
// holds <name>.real and <name>.imag for each value column; identifiers are
// repeated on every frequency row of their group.
func (ds *Dataset) FourierTransform(opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	return record(o, "FourierTransform", func() (*Dataset, runStats, error) {
		return ds.fourierTransform(o)
	})
}

func (ds *Dataset) fourierTransform(o options) (*Dataset, runStats, error) {
	const op = "FourierTransform"
	if ds.df.Len() == 0 {
		return nil, runStats{}, dferrors.NewInvalidInputError(op, "cannot transform an empty dataset")
	}
	if contains(ds.idVars, FreqColumn) {
		return nil, runStats{}, dferrors.NewInvalidInputError(op,
			fmt.Sprintf("identifier %q collides with the frequency column", FreqColumn))
	}

	values := ds.ValueVars()
	desc := ds.Describe()
	for _, name := range values {
		if c, _ := desc.Lookup(name); c.Kind == schema.KindComplex {
			return nil, runStats{}, dferrors.NewSchemaMismatchError(op, name,
				"complex columns must be unnested before a Fourier transform")
		}
	}
	if err := validation.ValidateNumeric(ds.df, op, values...); err != nil {
		return nil, runStats{}, err
	}

	groups, err := ds.groups()
	if err != nil {
		return nil, runStats{}, err
	}
	parts, stats, err := eachGroup(o, groups, func(_ int, g dataframe.Group) (*dataframe.DataFrame, error) {
		return ds.transformGroup(g.Rows, values)
	})
	if err != nil {
		return nil, stats, err
	}

	combined, err := concatParts(parts)
	if err != nil {
		return nil, stats, err
	}
	out, err := ds.derive(op, combined, FreqColumn, ds.idVars)
	return out, stats, err
}

// transformGroup builds the spectrum rows of one group
func (ds *Dataset) transformGroup(rows []int, values []string) (*dataframe.DataFrame, error) {
	part, err := ds.df.Take(rows)
	if err != nil {
		return nil, err
	}
	defer part.Release()
	sorted, err := part.Sort(ds.index)
	if err != nil {
		return nil, err
	}
	defer sorted.Release()

	ts, err := sorted.Float64Values(ds.index)
	if err != nil {
		return nil, err
	}
	d, err := spectral.Spacing(ts)
	if err != nil {
		return nil, err
	}
	tr, err := spectral.NewTransformer(len(ts))
	if err != nil {
		return nil, err
	}
	freq := spectral.Frequencies(len(ts), d)

	cols, err := broadcast(sorted, ds.idVars, len(freq))
	if err != nil {
		return nil, err
	}
	cols = append(cols, series.New(FreqColumn, freq, nil))
	for _, name := range values {
		seq, err := sorted.Float64Values(name)
		if err != nil {
			releaseSeries(cols)
			return nil, err
		}
		coeffs, err := tr.Coefficients(seq)
		if err != nil {
			releaseSeries(cols)
			return nil, err
		}
		re := make([]float64, len(coeffs))
		im := make([]float64, len(coeffs))
		for i, c := range coeffs {
			re[i], im[i] = real(c), imag(c)
		}
		cols = append(cols,
			series.New(schema.RealName(name), re, nil),
			series.New(schema.ImagName(name), im, nil),
		)
	}
	return dataframe.New(cols...), nil
}
