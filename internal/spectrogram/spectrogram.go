// Package spectrogram reshapes parsed sweep rows into a time × frequency
// matrix with its frequency axis.
package spectrogram

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// Spectrogram holds one file's power matrix and axes. Power has one row per
// sweep in file order and one column per entry of Axis.
type Spectrogram struct {
	Axis  []float64
	Power *mat.Dense

	// Times holds one timestamp per sweep, or nil when any row's date/time
	// could not be parsed.
	Times []time.Time
}

// Build derives the frequency axis from the first row and stacks every row's
// power bins into a matrix. Rows whose bin count differs from the first
// row's are rejected with models.ErrMalformedInput.
func Build(rows []models.SweepRow) (*Spectrogram, error) {
	if len(rows) == 0 {
		return nil, models.Malformed(0, "no sweep rows")
	}

	bins := rows[0].BinCount()
	if bins == 0 {
		return nil, models.Malformed(rows[0].Line, "sweep row has no power bins")
	}

	axis := FrequencyAxis(rows[0].FreqLowHz, rows[0].FreqHighHz, bins)

	data := make([]float64, 0, len(rows)*bins)
	for _, row := range rows {
		if row.BinCount() != bins {
			return nil, models.Malformed(row.Line, "row has %d power bins, expected %d", row.BinCount(), bins)
		}
		data = append(data, row.PowerBins...)
	}

	return &Spectrogram{
		Axis:  axis,
		Power: mat.NewDense(len(rows), bins, data),
		Times: timestamps(rows),
	}, nil
}

// FrequencyAxis returns n points linearly spaced over [low, high], both
// endpoints included. A single point sits at low.
func FrequencyAxis(low, high float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{low}
	default:
		return floats.Span(make([]float64, n), low, high)
	}
}

func timestamps(rows []models.SweepRow) []time.Time {
	times := make([]time.Time, len(rows))
	for i, row := range rows {
		ts, err := row.Timestamp()
		if err != nil {
			return nil
		}
		times[i] = ts
	}
	return times
}

// Sweeps returns the number of sweeps (matrix rows)
func (s *Spectrogram) Sweeps() int {
	r, _ := s.Power.Dims()
	return r
}

// Bins returns the number of frequency bins (matrix columns)
func (s *Spectrogram) Bins() int {
	_, c := s.Power.Dims()
	return c
}

// TimeRange returns the first and last sweep timestamps when known
func (s *Spectrogram) TimeRange() (first, last time.Time, ok bool) {
	if len(s.Times) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.Times[0], s.Times[len(s.Times)-1], true
}
