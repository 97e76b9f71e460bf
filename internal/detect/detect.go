// Package detect flags frequency bins whose time-averaged power sits more
// than a fixed margin above the median of all bins.
package detect

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/RMahshie/tscmscan/internal/spectrogram"
	"github.com/RMahshie/tscmscan/pkg/models"
)

// DefaultMarginDB is the threshold offset above the baseline, in dB
const DefaultMarginDB = 6.0

// Reducer collapses a frequency column over time into one value
type Reducer string

const (
	// ReducerMean is the arithmetic mean over all sweeps
	ReducerMean Reducer = "mean"
	// ReducerMedian is the median over all sweeps
	ReducerMedian Reducer = "median"
)

// ParseReducer validates a reducer name. Empty means ReducerMean.
func ParseReducer(name string) (Reducer, error) {
	switch r := Reducer(strings.ToLower(strings.TrimSpace(name))); r {
	case "":
		return ReducerMean, nil
	case ReducerMean, ReducerMedian:
		return r, nil
	default:
		return "", fmt.Errorf("unknown reducer %q (want %q or %q)", name, ReducerMean, ReducerMedian)
	}
}

// Detector selects candidate frequencies from a spectrogram
type Detector struct {
	MarginDB float64
	Reducer  Reducer
}

// New returns a Detector with the given margin and the mean reducer
func New(marginDB float64) Detector {
	return Detector{MarginDB: marginDB, Reducer: ReducerMean}
}

// Result holds the intermediate values of one detection run
type Result struct {
	AvgPower   []float64
	Baseline   float64
	Threshold  float64
	Candidates []models.CandidateRecord
}

// Detect reduces every column of the spectrogram, takes the median of the
// reductions as the baseline and returns the columns strictly above
// baseline + margin in increasing frequency order.
func (d Detector) Detect(sg *spectrogram.Spectrogram) Result {
	avg := Reduce(sg.Power, d.Reducer)
	baseline := Median(avg)
	threshold := baseline + d.MarginDB

	return Result{
		AvgPower:   avg,
		Baseline:   baseline,
		Threshold:  threshold,
		Candidates: Select(sg.Axis, avg, threshold),
	}
}

// Reduce collapses each column of power over its rows
func Reduce(power mat.Matrix, reducer Reducer) []float64 {
	rows, cols := power.Dims()
	out := make([]float64, cols)
	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(col, j, power)
		if reducer == ReducerMedian {
			out[j] = Median(col)
		} else {
			out[j] = stat.Mean(col, nil)
		}
	}
	return out
}

// Select pairs every axis entry whose value exceeds threshold with that value.
// Ties at the threshold are excluded.
func Select(axis, values []float64, threshold float64) []models.CandidateRecord {
	candidates := []models.CandidateRecord{}
	for j, v := range values {
		if v > threshold {
			candidates = append(candidates, models.CandidateRecord{
				FreqHz:     axis[j],
				AvgPowerDB: v,
			})
		}
	}
	return candidates
}

// Median returns the middle value of data, averaging the two central values
// when len(data) is even. data is not modified. Median of nothing is 0.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
