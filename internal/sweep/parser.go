// Package sweep parses rtl_power style power sweep logs into rows.
//
// A log is headerless delimited text. The first six columns of every data
// row are date, time, freq_low_hz, freq_high_hz, freq_step_hz and
// sample_count; every later column is one power bin in dB.
package sweep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// MetadataColumns is the number of leading non-power columns in a row
const MetadataColumns = 6

// Options controls how a sweep log is read
type Options struct {
	// Comment marks lines to skip. Zero means '#'.
	Comment rune
	// Delimiter separates columns. Zero means ','.
	Delimiter rune
}

// DefaultOptions returns the options matching rtl_power output
func DefaultOptions() Options {
	return Options{Comment: '#', Delimiter: ','}
}

func (o Options) withDefaults() Options {
	if o.Comment == 0 {
		o.Comment = '#'
	}
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	return o
}

// Parse reads every data row from r. All rows must carry the same number of
// power bins as the first one; anything else is reported as
// models.ErrMalformedInput.
func Parse(r io.Reader, opts Options) ([]models.SweepRow, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comment = opts.Comment
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var rows []models.SweepRow
	bins := -1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, models.Malformed(parseErr.Line, "%v", parseErr.Err)
			}
			return nil, fmt.Errorf("failed to read sweep log: %w", err)
		}

		line, _ := reader.FieldPos(0)

		if len(record) <= MetadataColumns {
			return nil, models.Malformed(line, "expected more than %d columns, got %d", MetadataColumns, len(record))
		}

		rowBins := len(record) - MetadataColumns
		if bins < 0 {
			bins = rowBins
		} else if rowBins != bins {
			return nil, models.Malformed(line, "row has %d power bins, file has %d", rowBins, bins)
		}

		row, err := parseRecord(record, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, models.Malformed(0, "no data rows")
	}

	return rows, nil
}

func parseRecord(record []string, line int) (models.SweepRow, error) {
	row := models.SweepRow{
		Date: strings.TrimSpace(record[0]),
		Time: strings.TrimSpace(record[1]),
		Line: line,
	}

	var err error
	if row.FreqLowHz, err = parseNumber(record[2], "freq_low_hz", line); err != nil {
		return row, err
	}
	if row.FreqHighHz, err = parseNumber(record[3], "freq_high_hz", line); err != nil {
		return row, err
	}
	if row.FreqStepHz, err = parseNumber(record[4], "freq_step_hz", line); err != nil {
		return row, err
	}
	if row.SampleCount, err = parseCount(record[5], line); err != nil {
		return row, err
	}

	row.PowerBins = make([]float64, len(record)-MetadataColumns)
	for i, field := range record[MetadataColumns:] {
		name := "bin_" + strconv.Itoa(i)
		if row.PowerBins[i], err = parseNumber(field, name, line); err != nil {
			return row, err
		}
	}

	return row, nil
}

// parseNumber rejects NaN and infinities as well as non-numeric text
func parseNumber(field, column string, line int) (float64, error) {
	value := strings.TrimSpace(field)
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, models.Malformed(line, "column %s: %q is not a number", column, value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, models.Malformed(line, "column %s: %q is not finite", column, value)
	}
	return v, nil
}

func parseCount(field string, line int) (int, error) {
	value := strings.TrimSpace(field)
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	v, err := parseNumber(value, "sample_count", line)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, models.Malformed(line, "column sample_count: %q is not an integer", value)
	}
	// -MinInt is 2^63 on 64-bit, exactly representable as float64
	if v < math.MinInt || v >= -math.MinInt {
		return 0, models.Malformed(line, "column sample_count: %q is out of range", value)
	}
	return int(v), nil
}
