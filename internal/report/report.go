// Package report turns a processed sweep log into its persisted artifacts: a
// heatmap image of the spectrogram and a table of candidate frequencies.
package report

import (
	"errors"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// ErrEmptyHeatmap is returned when there is nothing to draw
var ErrEmptyHeatmap = errors.New("heatmap has no data")

// Heatmap is everything a renderer needs to draw one file's spectrogram.
// Power is sweeps × bins; Axis holds one frequency in Hz per bin.
type Heatmap struct {
	Label string
	Axis  []float64
	Power mat.Matrix
	Times []time.Time
}

// HeatmapRenderer encodes a heatmap image to w
type HeatmapRenderer interface {
	RenderHeatmap(w io.Writer, h Heatmap) error
}

// CandidateWriter encodes a candidate table to w
type CandidateWriter interface {
	WriteCandidates(w io.Writer, records []models.CandidateRecord) error
}
