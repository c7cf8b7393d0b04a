package io

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/phasor/internal/cplx"
	"github.com/paveg/phasor/internal/dataframe"
	"github.com/paveg/phasor/internal/series"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"

	boolType   = "bool"
	intType    = "int"
	floatType  = "float"
	stringType = "string"
)

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return r.emptyFrame(r.options.ColumnNames)
	}

	var headers []string
	dataRows := records
	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		numCols := len(records[0])
		headers = make([]string, numCols)
		for i := 0; i < numCols; i++ {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
	}
	if names := r.options.ColumnNames; len(names) > 0 {
		if len(names) != len(headers) {
			return nil, fmt.Errorf("reading CSV: %d column names for %d columns", len(names), len(headers))
		}
		headers = names
	}

	if len(dataRows) == 0 {
		return r.emptyFrame(headers)
	}

	// Transpose data to work with columns
	numCols := len(headers)
	columns := make([][]string, numCols)
	for i := 0; i < numCols; i++ {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, numCols)
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// emptyFrame creates a table with string columns and no rows
func (r *CSVReader) emptyFrame(headers []string) (*dataframe.DataFrame, error) {
	emptySeries := make([]dataframe.ISeries, 0, len(headers))
	for _, header := range headers {
		s, err := series.NewSafe(header, []string{}, r.mem)
		if err != nil {
			return nil, fmt.Errorf("creating empty series for column %s: %w", header, err)
		}
		emptySeries = append(emptySeries, s)
	}
	return dataframe.New(emptySeries...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the appropriate type
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (dataframe.ISeries, error) {
	switch inferDataType(data) {
	case boolType:
		return r.createBoolSeries(name, data)
	case intType:
		return r.createIntSeries(name, data)
	case floatType:
		return r.createFloatSeries(name, data)
	default:
		return series.NewSafe(name, data, r.mem)
	}
}

// inferDataType determines the most specific type every non-empty value
// parses as. An integer column with empty cells is read as float so the gaps
// can hold NaN.
func inferDataType(data []string) string {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmptyValue := false
	hasEmptyValue := false

	for _, value := range data {
		value = strings.TrimSpace(value)
		if value == "" {
			hasEmptyValue = true
			continue
		}
		hasNonEmptyValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	switch {
	case !hasNonEmptyValue:
		return stringType
	case canBeBool:
		return boolType
	case canBeInt && !hasEmptyValue:
		return intType
	case canBeFloat:
		return floatType
	default:
		return stringType
	}
}

// createBoolSeries creates a boolean series from string data
func (r *CSVReader) createBoolSeries(name string, data []string) (dataframe.ISeries, error) {
	boolData := make([]bool, len(data))
	for i, value := range data {
		boolData[i] = strings.EqualFold(strings.TrimSpace(value), trueStr)
	}
	return series.NewSafe(name, boolData, r.mem)
}

// createIntSeries creates an integer series from string data
func (r *CSVReader) createIntSeries(name string, data []string) (dataframe.ISeries, error) {
	intData := make([]int64, len(data))
	for i, value := range data {
		val, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		intData[i] = val
	}
	return series.NewSafe(name, intData, r.mem)
}

// createFloatSeries creates a float series from string data. Empty cells read as NaN.
func (r *CSVReader) createFloatSeries(name string, data []string) (dataframe.ISeries, error) {
	floatData := make([]float64, len(data))
	for i, value := range data {
		value = strings.TrimSpace(value)
		if value == "" {
			floatData[i] = math.NaN()
			continue
		}
		val, _ := strconv.ParseFloat(value, 64)
		floatData[i] = val
	}
	return series.NewSafe(name, floatData, r.mem)
}

// Write writes the DataFrame to CSV format. Complex columns are written as
// <stem>.real and <stem>.imag columns.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	flat, err := cplx.UnnestFrame(df)
	if err != nil {
		return fmt.Errorf("flattening complex columns: %w", err)
	}
	defer flat.Release()

	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter
	if csvWriter.Comma == 0 {
		csvWriter.Comma = ','
	}

	if w.options.Header {
		if err := csvWriter.Write(flat.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	columns := flat.Columns()
	for i := 0; i < flat.Len(); i++ {
		row := make([]string, len(columns))
		for j, colName := range columns {
			column, _ := flat.Column(colName)
			row[j] = getValueAsString(column, i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// getValueAsString extracts a value from a column at the given index as a
// string. Nulls are written as empty cells.
func getValueAsString(column dataframe.ISeries, index int) string {
	arr := column.Array()
	defer arr.Release()

	if arr.IsNull(index) {
		return ""
	}
	switch typedArr := arr.(type) {
	case *array.String:
		return typedArr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(typedArr.Value(index), 10)
	case *array.Float64:
		return formatFloat(typedArr.Value(index))
	case *array.Boolean:
		return strconv.FormatBool(typedArr.Value(index))
	default:
		return column.GetAsString(index)
	}
}

// formatFloat writes the shortest exact form of v, keeping a decimal point on
// integral values so the column reads back as float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

// ReadCSVFile reads the CSV file at path
func ReadCSVFile(path string, options CSVOptions) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewCSVReader(f, options, nil).Read()
}
