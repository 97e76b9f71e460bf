package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// CandidateHeader is the header row of a candidate table
var CandidateHeader = []string{"freq_hz", "median_db"}

// CSVWriter writes candidate tables as comma-separated text
type CSVWriter struct{}

// NewCSVWriter creates a candidate table writer
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

// WriteCandidates writes the header followed by one row per record, in the
// order given
func (CSVWriter) WriteCandidates(w io.Writer, records []models.CandidateRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CandidateHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		if err := cw.Write([]string{FormatFloat(rec.FreqHz), FormatFloat(rec.AvgPowerDB)}); err != nil {
			return fmt.Errorf("failed to write candidate: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatFloat prints v in its shortest round-trip form, keeping a trailing
// ".0" on integral values so columns read as floats
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
