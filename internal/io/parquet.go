package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/phasor/internal/dataframe"
	dferrors "github.com/paveg/phasor/internal/errors"
	"github.com/paveg/phasor/internal/series"
)

// Read reads Parquet data and returns a DataFrame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	// Parquet needs random access, so the whole input is buffered
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	props := pqarrow.ArrowReadProperties{}
	if r.options.BatchSize > 0 {
		props.BatchSize = int64(r.options.BatchSize)
	}
	arrowReader, err := pqarrow.NewFileReader(pqReader, props, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataFrame(table)
}

// arrowTableToDataFrame converts an Arrow table to a DataFrame.
func (r *ParquetReader) arrowTableToDataFrame(table arrow.Table) (*dataframe.DataFrame, error) {
	seriesList := make([]dataframe.ISeries, 0, table.NumCols())
	schema := table.Schema()

	for i := 0; i < int(table.NumCols()); i++ {
		field := schema.Field(i)
		s, err := r.arrowColumnToSeries(field.Name, table.Column(i))
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// arrowColumnToSeries joins the chunks of a column into one array and wraps it
func (r *ParquetReader) arrowColumnToSeries(name string, column *arrow.Column) (dataframe.ISeries, error) {
	chunks := column.Data().Chunks()
	var arr arrow.Array
	switch len(chunks) {
	case 0:
		return r.createEmptySeriesByType(name, column.DataType())
	case 1:
		arr = chunks[0]
		arr.Retain()
	default:
		joined, err := array.Concatenate(chunks, r.mem)
		if err != nil {
			return nil, err
		}
		arr = joined
	}
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.Int32:
		values := make([]int64, typed.Len())
		for i := range values {
			values[i] = int64(typed.Value(i))
		}
		return series.NewSafe(name, values, r.mem)
	case *array.Float32:
		values := make([]float64, typed.Len())
		for i := range values {
			values[i] = float64(typed.Value(i))
		}
		return series.NewSafe(name, values, r.mem)
	}

	s, err := series.FromArray(name, arr)
	if err != nil {
		return nil, dferrors.NewUnsupportedTypeError("ReadParquet", name, arr.DataType().String())
	}
	return s, nil
}

// createEmptySeriesByType creates an empty series based on Arrow data type.
func (r *ParquetReader) createEmptySeriesByType(name string, dataType arrow.DataType) (dataframe.ISeries, error) {
	//nolint:exhaustive // Only handling supported types for now
	switch dataType.ID() {
	case arrow.INT64, arrow.INT32:
		return series.NewSafe(name, []int64{}, r.mem)
	case arrow.FLOAT64, arrow.FLOAT32:
		return series.NewSafe(name, []float64{}, r.mem)
	case arrow.BOOL:
		return series.NewSafe(name, []bool{}, r.mem)
	case arrow.STRUCT:
		return series.NewSafe(name, []complex128{}, r.mem)
	default:
		return series.NewSafe(name, []string{}, r.mem)
	}
}

// Write writes the DataFrame to Parquet format. Complex columns are stored as
// struct columns.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) (err error) {
	table := dataFrameToArrowTable(df)
	defer table.Release()

	opts := []parquet.WriterProperty{parquet.WithCompression(compressionCodec(w.options.Compression))}
	if w.options.BatchSize > 0 {
		opts = append(opts, parquet.WithBatchSize(int64(w.options.BatchSize)))
	}
	props := parquet.NewWriterProperties(opts...)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing file writer: %w", closeErr)
		}
	}()

	chunk := int64(df.Len())
	if chunk == 0 {
		chunk = 1
	}
	if err := writer.WriteTable(table, chunk); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}

// compressionCodec maps a compression name to a codec, defaulting to snappy
func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// dataFrameToArrowTable wraps the column arrays of df in an Arrow table.
func dataFrameToArrowTable(df *dataframe.DataFrame) arrow.Table {
	fields := df.Schema()
	columns := make([]arrow.Column, 0, len(fields))
	for _, field := range fields {
		s, _ := df.Column(field.Name)
		arr := s.Array()
		chunked := arrow.NewChunked(field.Type, []arrow.Array{arr})
		arr.Release()
		column := arrow.NewColumn(field, chunked)
		chunked.Release()
		columns = append(columns, *column)
	}

	table := array.NewTable(arrow.NewSchema(fields, nil), columns, int64(df.Len()))
	for i := range columns {
		columns[i].Release()
	}
	return table
}
