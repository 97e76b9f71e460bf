package models

import (
	"strings"
	"time"
)

// TimestampLayout is the layout of a sweep row's date and time columns joined by a space
const TimestampLayout = "2006-01-02 15:04:05"

// SweepRow represents one logged sweep step of an rtl_power style log
type SweepRow struct {
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	FreqLowHz   float64   `json:"freq_low_hz"`
	FreqHighHz  float64   `json:"freq_high_hz"`
	FreqStepHz  float64   `json:"freq_step_hz"`
	SampleCount int       `json:"sample_count"`
	PowerBins   []float64 `json:"power_bins"`

	// Line is the 1-based source line, kept for diagnostics
	Line int `json:"line"`
}

// Timestamp combines the date and time columns into a single instant (UTC).
// Fractional seconds are accepted.
func (r SweepRow) Timestamp() (time.Time, error) {
	value := strings.TrimSpace(r.Date) + " " + strings.TrimSpace(r.Time)
	return time.ParseInLocation(TimestampLayout, value, time.UTC)
}

// BinCount returns the number of power bins in the row
func (r SweepRow) BinCount() int {
	return len(r.PowerBins)
}
