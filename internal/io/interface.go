// Package io reads and writes tables and datasets as CSV and Parquet.
//
// CSV input is type-inferred column by column; Parquet keeps Arrow types,
// complex struct columns included. On CSV a complex column is written as a
// <stem>.real/<stem>.imag pair and nested again when a Datafile loads it.
// Instrument recordings (tab separated, headerless, '#' comments) use
// DataCSVOptions.
//
// Every table returned here owns Arrow memory and must be released.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/phasor/internal/config"
	"github.com/paveg/phasor/internal/dataframe"
)

// TableReader decodes one table from its source
type TableReader interface {
	Read() (*dataframe.DataFrame, error)
}

// TableWriter encodes one table to its destination
type TableWriter interface {
	Write(df *dataframe.DataFrame) error
}

// CSVOptions controls CSV parsing and formatting
type CSVOptions struct {
	Delimiter rune
	// Comment starts a line to skip; 0 disables comments
	Comment rune
	// Header marks the first record as column names
	Header           bool
	SkipInitialSpace bool
	// ColumnNames replaces the header names, or names headerless columns.
	// Without it headerless columns are named column_0, column_1, ...
	ColumnNames []string
}

// DefaultCSVOptions is comma separated with a header line
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Header: true}
}

// DataCSVOptions returns the options for instrument data files: tab
// separated, no header, '#' comments.
func DataCSVOptions(columnNames ...string) CSVOptions {
	return CSVOptions{
		Delimiter:   '\t',
		Comment:     '#',
		ColumnNames: columnNames,
	}
}

// CSVOptionsFromConfig builds CSV options from the library configuration
func CSVOptionsFromConfig(cfg config.Config) CSVOptions {
	opts := DefaultCSVOptions()
	opts.Delimiter = cfg.Delimiter()
	opts.Header = cfg.CSVHeader
	if cfg.CSVComment != "" {
		opts.Comment = []rune(cfg.CSVComment)[0]
	}
	return opts
}

// CSVReader parses delimited text into a table
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a CSV reader; a nil allocator means the Go allocator
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &CSVReader{reader: reader, options: options, mem: mem}
}

// CSVWriter formats a table as delimited text
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a CSV writer
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{writer: writer, options: options}
}

// ParquetOptions controls Parquet encoding. BatchSize applies to both
// reading and writing.
type ParquetOptions struct {
	// Compression names a codec: snappy, gzip, zstd or uncompressed
	Compression string
	BatchSize   int
}

// DefaultParquetOptions is snappy compressed in batches of 1024 rows
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: "snappy", BatchSize: 1024}
}

// ParquetReader decodes a Parquet stream into a table
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a Parquet reader; a nil allocator means the Go
// allocator
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &ParquetReader{reader: reader, options: options, mem: mem}
}

// ParquetWriter encodes a table as Parquet
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a Parquet writer
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{writer: writer, options: options}
}

// readerFor returns the decoder for format over r
func readerFor(format Format, r io.Reader, csv CSVOptions) TableReader {
	if format == FormatParquet {
		return NewParquetReader(r, DefaultParquetOptions(), nil)
	}
	return NewCSVReader(r, csv, nil)
}

// writerFor returns the encoder for format over w
func writerFor(format Format, w io.Writer, csv CSVOptions) TableWriter {
	if format == FormatParquet {
		return NewParquetWriter(w, DefaultParquetOptions())
	}
	return NewCSVWriter(w, csv)
}
