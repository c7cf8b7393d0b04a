package io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/paveg/phasor/internal/config"
	"github.com/paveg/phasor/internal/cplx"
	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/dataset"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/logging"
)

// Format is the on-disk encoding of a Datafile
type Format string

// Supported formats
const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat resolves a format name or file extension
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "csv", "txt", "dat":
		return FormatCSV, nil
	case "parquet", "pq":
		return FormatParquet, nil
	default:
		return "", dferrors.NewInvalidInputError("ParseFormat", fmt.Sprintf("unknown file format %q", name))
	}
}

// Datafile is a named table on disk together with the roles it loads with
type Datafile struct {
	Name   string
	Dir    string
	Index  string
	IDVars []string
	Format Format
	// CSV overrides the options derived from the global configuration
	CSV *CSVOptions
}

// DatafileFromPath splits path into directory, name and format
func DatafileFromPath(path, index string, idVars ...string) (Datafile, error) {
	ext := filepath.Ext(path)
	format, err := ParseFormat(ext)
	if err != nil {
		return Datafile{}, err
	}
	return Datafile{
		Name:   strings.TrimSuffix(filepath.Base(path), ext),
		Dir:    filepath.Dir(path),
		Index:  index,
		IDVars: idVars,
		Format: format,
	}, nil
}

func (f Datafile) format() Format {
	if f.Format == "" {
		return FormatCSV
	}
	return f.Format
}

// Path returns Dir/Name.<format>
func (f Datafile) Path() string {
	return filepath.Join(f.Dir, f.Name+"."+string(f.format()))
}

func (f Datafile) csvOptions() CSVOptions {
	if f.CSV != nil {
		return *f.CSV
	}
	return CSVOptionsFromConfig(config.GetGlobalConfig())
}

// Exists reports whether the file is present
func (f Datafile) Exists() bool {
	_, err := os.Stat(f.Path())
	return err == nil
}

// LoadFrame reads the file as a plain table. CSV component pairs
// <stem>.real/<stem>.imag are nested into complex columns. A missing file is
// logged and yields a nil table without error.
func (f Datafile) LoadFrame(ctx context.Context) (*dataframe.DataFrame, error) {
	path := f.Path()
	logger := logging.Default()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.LogFile(ctx, "load", path, 0, err)
		return nil, nil
	}

	df, err := f.read(path)
	if err != nil {
		logger.LogFile(ctx, "load", path, 0, err)
		return nil, err
	}
	logger.LogFile(ctx, "load", path, df.Len(), nil)
	return df, nil
}

func (f Datafile) read(path string) (*dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	df, err := readerFor(f.format(), file, f.csvOptions()).Read()
	if err != nil || f.format() == FormatParquet {
		return df, err
	}
	defer df.Release()
	return cplx.NestFrame(df)
}

// Load reads the file as a Dataset with the configured roles. A missing file
// yields a nil Dataset without error.
func (f Datafile) Load(ctx context.Context) (*dataset.Dataset, error) {
	if f.Index == "" {
		return nil, dferrors.NewInvalidInputError("Load", fmt.Sprintf("datafile %s has no index", f.Name))
	}
	df, err := f.LoadFrame(ctx)
	if err != nil || df == nil {
		return nil, err
	}
	ds, err := dataset.New(df, f.Index, f.IDVars...)
	if err != nil {
		df.Release()
		return nil, err
	}
	return ds, nil
}

// Write stores df, creating the directory when needed
func (f Datafile) Write(ctx context.Context, df *dataframe.DataFrame) error {
	path := f.Path()
	err := f.write(path, df)
	logging.Default().LogFile(ctx, "write", path, df.Len(), err)
	return err
}

func (f Datafile) write(path string, df *dataframe.DataFrame) error {
	if f.Dir != "" {
		if err := os.MkdirAll(f.Dir, 0o755); err != nil { //nolint:gosec // data directories are shared
			return err
		}
	}
	// the Parquet writer closes its sink, so output is buffered and written in one step
	var buf bytes.Buffer
	if err := writerFor(f.format(), &buf, f.csvOptions()).Write(df); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644) //nolint:gosec // data files are world readable
}

// WriteDataset stores the table of ds
func (f Datafile) WriteDataset(ctx context.Context, ds *dataset.Dataset) error {
	df := ds.Frame()
	defer df.Release()
	return f.Write(ctx, df)
}
