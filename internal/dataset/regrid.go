package dataset

import (
	"fmt"

	"github.com/paveg/phasor/internal/cplx"
	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/regrid"
	"github.com/paveg/phasor/internal/schema"
	"github.com/paveg/phasor/internal/series"
	"github.com/paveg/phasor/internal/validation"
)

// Regrid resamples every value column onto axis. Each identifier group is
// interpolated independently; a group holding a single sample is passed
// through unchanged. Complex columns are split into their parts, interpolated
// part by part and rebuilt.
//
// The axis normally names the index. When it names an identifier instead, the
// samples are interpolated against that column and the index becomes one of
// the grouping keys.
//
// The result is sorted by index, then identifiers.
func (ds *Dataset) Regrid(axis regrid.Axis, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	return record(o, "Regrid", func() (*Dataset, runStats, error) {
		return ds.regrid(o, axis)
	})
}

func (ds *Dataset) regrid(o options, axis regrid.Axis) (*Dataset, runStats, error) {
	const op = "Regrid"
	if _, err := regrid.NewAxis(axis.Name, axis.Values); err != nil {
		return nil, runStats{}, err
	}
	if ds.df.Len() == 0 {
		return nil, runStats{}, dferrors.NewInvalidInputError(op, "cannot regrid an empty dataset")
	}
	keys, err := ds.regridKeys(axis.Name)
	if err != nil {
		return nil, runStats{}, err
	}
	ip, err := regrid.New(o.method, o.interp...)
	if err != nil {
		return nil, runStats{}, err
	}

	var complexCols, stems []string
	for _, name := range schema.Describe(ds.df.Schema(), keys...).Names(schema.KindComplex) {
		complexCols = append(complexCols, name)
		stems = append(stems, schema.Stem(name))
	}
	flat, err := cplx.UnnestFrame(ds.df, complexCols...)
	if err != nil {
		return nil, runStats{}, err
	}
	defer flat.Release()

	var values []string
	for _, name := range flat.Columns() {
		if name != axis.Name && !contains(keys, name) {
			values = append(values, name)
		}
	}
	if err := validation.ValidateNumeric(flat, op, values...); err != nil {
		return nil, runStats{}, err
	}

	groups, err := flat.GroupIndices(keys...)
	if err != nil {
		return nil, runStats{}, err
	}
	parts, stats, err := eachGroup(o, groups, func(_ int, g dataframe.Group) (*dataframe.DataFrame, error) {
		return regridGroup(flat, g.Rows, keys, axis, values, ip)
	})
	if err != nil {
		return nil, stats, err
	}

	combined, err := concatParts(parts)
	if err != nil {
		return nil, stats, err
	}
	nested, err := cplx.NestFrame(combined, stems...)
	combined.Release()
	if err != nil {
		return nil, stats, err
	}
	regridded, err := ds.derive(op, nested, ds.index, ds.idVars)
	if err != nil {
		return nil, stats, err
	}
	out, err := regridded.arrange()
	return out, stats, err
}

// regridKeys returns the grouping keys for regridding along the named column
func (ds *Dataset) regridKeys(name string) ([]string, error) {
	if name == ds.index {
		return ds.IDVars(), nil
	}
	for i, id := range ds.idVars {
		if id == name {
			keys := append(append([]string(nil), ds.idVars[:i]...), ds.idVars[i+1:]...)
			return append(keys, ds.index), nil
		}
	}
	if !ds.df.HasColumn(name) {
		return nil, dferrors.NewColumnNotFoundError("Regrid", name)
	}
	return nil, dferrors.NewInvalidInputError("Regrid",
		fmt.Sprintf("axis %q must be the index or an identifier column", name))
}

// regridGroup interpolates the rows of one group onto axis
func regridGroup(df *dataframe.DataFrame, rows []int, keys []string, axis regrid.Axis,
	values []string, ip *regrid.Interpolator,
) (*dataframe.DataFrame, error) {
	part, err := df.Take(rows)
	if err != nil {
		return nil, err
	}
	defer part.Release()
	sorted, err := part.Sort(axis.Name)
	if err != nil {
		return nil, err
	}
	defer sorted.Release()

	xs, err := sorted.Float64Values(axis.Name)
	if err != nil {
		return nil, err
	}

	positions := axis.Values
	single := len(rows) == 1
	if single {
		positions = xs
	}

	cols, err := broadcast(sorted, keys, len(positions))
	if err != nil {
		return nil, err
	}
	cols = append(cols, series.New(axis.Name, positions, nil))
	for _, name := range values {
		ys, err := sorted.Float64Values(name)
		if err != nil {
			releaseSeries(cols)
			return nil, err
		}
		if !single {
			ys, err = ip.Interpolate(xs, ys, axis.Values)
			if err != nil {
				releaseSeries(cols)
				return nil, err
			}
		}
		cols = append(cols, series.New(name, ys, nil))
	}
	return dataframe.New(cols...), nil
}

// arrange orders columns as identifiers, index, values and rows by index
// then identifiers. ds is consumed.
func (ds *Dataset) arrange() (*Dataset, error) {
	defer ds.Release()
	ordered, err := ds.SortColumns()
	if err != nil {
		return nil, err
	}
	defer ordered.Release()
	return ordered.SortAuto()
}

func releaseSeries(cols []dataframe.ISeries) {
	for _, s := range cols {
		s.Release()
	}
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
