package report

import (
	"fmt"
	"image"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default heatmap size: a 12x6 inch figure at 200 dpi
const (
	DefaultWidth  = 2400
	DefaultHeight = 1200

	figureDPI = 200
)

// Smallest image the layout fits in
const (
	MinWidth  = 200
	MinHeight = 100
)

// PNGRenderer draws spectrogram heatmaps: sweep index on the horizontal
// axis, frequency in MHz on the vertical axis (low at the bottom) and power
// in dB as color with a labeled color bar.
type PNGRenderer struct {
	Width  int
	Height int
}

// NewPNGRenderer returns a renderer producing width × height images. Zero
// values fall back to the defaults.
func NewPNGRenderer(width, height int) *PNGRenderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &PNGRenderer{Width: width, Height: height}
}

// RenderHeatmap draws h and encodes it as PNG
func (r *PNGRenderer) RenderHeatmap(w io.Writer, h Heatmap) error {
	c, err := r.render(h)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode heatmap: %w", err)
	}
	return nil
}

// Draw renders h into an image without encoding it
func (r *PNGRenderer) Draw(h Heatmap) (image.Image, error) {
	c, err := r.render(h)
	if err != nil {
		return nil, err
	}
	return c.Image(), nil
}

// figure holds the two plots making up a heatmap image
type figure struct {
	heat *plot.Plot
	bar  *plot.Plot
}

func (r *PNGRenderer) render(h Heatmap) (c *vgimg.Canvas, err error) {
	if h.Power == nil {
		return nil, ErrEmptyHeatmap
	}
	sweeps, bins := h.Power.Dims()
	if sweeps == 0 || bins == 0 {
		return nil, ErrEmptyHeatmap
	}
	if len(h.Axis) != bins {
		return nil, fmt.Errorf("frequency axis has %d points, matrix has %d columns", len(h.Axis), bins)
	}
	if r.Width < MinWidth || r.Height < MinHeight {
		return nil, fmt.Errorf("heatmap %dx%d is too small to draw", r.Width, r.Height)
	}

	fig, err := newFigure(h)
	if err != nil {
		return nil, err
	}

	// plot reports inconsistent ranges by panicking
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, fmt.Errorf("failed to draw heatmap: %v", p)
		}
	}()

	c = vgimg.NewWith(
		vgimg.UseImage(image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))),
		vgimg.UseDPI(r.dpi()),
	)
	fig.draw(draw.New(c))
	return c, nil
}

// dpi keeps the figure proportions of the default size at any height
func (r *PNGRenderer) dpi() int {
	return max(1, figureDPI*r.Height/DefaultHeight)
}

func newFigure(h Heatmap) (*figure, error) {
	lo, hi := mat.Min(h.Power), mat.Max(h.Power)
	if hi == lo {
		// a flat spectrogram still needs a non-empty color range
		hi = lo + 1
	}

	heatMap, err := Viridis(lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to build colormap: %w", err)
	}
	barMap, err := Viridis(lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to build colormap: %w", err)
	}

	layer := plotter.NewHeatMap(newSpectrogramGrid(h.Power, h.Axis), heatMap.Palette(paletteSize))
	layer.Min, layer.Max = lo, hi
	layer.Rasterized = true

	heat := plot.New()
	heat.Title.Text = "Spectrum Heatmap: " + h.Label
	heat.X.Label.Text = "Sweep index"
	if len(h.Times) > 0 {
		first, last := h.Times[0], h.Times[len(h.Times)-1]
		heat.X.Label.Text += fmt.Sprintf("\n%s to %s", first.Format("2006-01-02 15:04:05"), last.Format("2006-01-02 15:04:05"))
	}
	heat.Y.Label.Text = "Frequency (MHz)"
	heat.X.Padding, heat.Y.Padding = 0, 0
	heat.Add(rasterLayer{heat: layer})

	bar := plot.New()
	bar.HideX()
	bar.X.Padding, bar.Y.Padding = 0, 0
	bar.Y.Label.Text = "dB"
	bar.Add(&plotter.ColorBar{ColorMap: barMap, Vertical: true})

	return &figure{heat: heat, bar: bar}, nil
}

// layout splits dc into the heatmap area on the left and the color bar area
// on the right, with the bar spanning exactly the heatmap's data area
func (f *figure) layout(dc draw.Canvas) (main, side draw.Canvas) {
	pad := vg.Points(6)
	width := dc.Max.X - dc.Min.X
	barArea := width / 10

	main = draw.Crop(dc, pad, -(barArea + 2*pad), pad, -pad)
	data := f.heat.DataCanvas(main)
	side = draw.Crop(dc, width-barArea-pad, -pad, 0, 0)
	side.Min.Y, side.Max.Y = data.Min.Y, data.Max.Y
	return main, side
}

func (f *figure) draw(dc draw.Canvas) {
	main, side := f.layout(dc)
	f.heat.Draw(main)
	f.bar.Draw(side)
}
