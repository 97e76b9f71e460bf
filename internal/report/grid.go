package report

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
)

// spectrogramGrid exposes a sweeps × bins matrix as a plotter.GridXYZ with
// the sweep index on X and frequency in MHz on Y
type spectrogramGrid struct {
	power mat.Matrix
	mhz   []float64
}

func newSpectrogramGrid(power mat.Matrix, axisHz []float64) spectrogramGrid {
	mhz := make([]float64, len(axisHz))
	for i, f := range axisHz {
		mhz[i] = f / 1e6
	}
	return spectrogramGrid{power: power, mhz: mhz}
}

func (g spectrogramGrid) Dims() (c, r int) {
	sweeps, bins := g.power.Dims()
	return sweeps, bins
}

func (g spectrogramGrid) Z(c, r int) float64 { return g.power.At(c, r) }
func (g spectrogramGrid) X(c int) float64    { return float64(c) }
func (g spectrogramGrid) Y(r int) float64    { return g.mhz[r] }

// rasterLayer forwards only Plot and DataRange, hiding the heat map's
// per-cell glyph boxes which plot would otherwise allocate for padding
type rasterLayer struct {
	heat *plotter.HeatMap
}

func (l rasterLayer) Plot(c draw.Canvas, p *plot.Plot) { l.heat.Plot(c, p) }

func (l rasterLayer) DataRange() (xmin, xmax, ymin, ymax float64) {
	return l.heat.DataRange()
}
