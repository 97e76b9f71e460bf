package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func toneHeatmap() Heatmap {
	return Heatmap{
		Label: "band_100M",
		Axis:  []float64{100e6, 110e6, 120e6, 130e6},
		Power: mat.NewDense(3, 4, []float64{
			10, 10, 20, 10,
			10, 10, 20, 10,
			10, 10, 20, 10,
		}),
	}
}

// drawn renders h and returns the image plus a function mapping fractions
// of the data area (0,0 bottom left) to pixel coordinates
func drawn(t *testing.T, r *PNGRenderer, h Heatmap) (image.Image, func(fx, fy float64) (int, int)) {
	t.Helper()

	fig, err := newFigure(h)
	require.NoError(t, err)

	c := vgimg.NewWith(
		vgimg.UseImage(image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))),
		vgimg.UseDPI(r.dpi()),
	)
	dc := draw.New(c)
	main, _ := fig.layout(dc)
	data := fig.heat.DataCanvas(main)
	fig.draw(dc)

	scale := float64(r.dpi()) / 72
	at := func(fx, fy float64) (int, int) {
		x := float64(data.X(fx)) * scale
		y := float64(data.Y(fy)) * scale
		return int(x), r.Height - 1 - int(y)
	}
	return c.Image(), at
}

func lightness(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

func TestRenderHeatmap_EncodesPNG(t *testing.T) {
	r := NewPNGRenderer(400, 200)

	var buf bytes.Buffer
	require.NoError(t, r.RenderHeatmap(&buf, toneHeatmap()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestNewPNGRenderer_Defaults(t *testing.T) {
	r := NewPNGRenderer(0, -1)
	assert.Equal(t, DefaultWidth, r.Width)
	assert.Equal(t, DefaultHeight, r.Height)
	assert.Equal(t, figureDPI, r.dpi())
}

func TestDraw_FrequencyRunsBottomToTop(t *testing.T) {
	img, at := drawn(t, NewPNGRenderer(800, 400), toneHeatmap())

	// four bins share the vertical extent; bin j is centred at (j+0.5)/4
	cold := img.At(at(0.5, 0.125))
	hot := img.At(at(0.5, 0.625))
	top := img.At(at(0.5, 0.875))

	assert.Greater(t, lightness(hot), lightness(cold)+50)
	assert.InDelta(t, float64(lightness(cold)), float64(lightness(top)), 2)
}

func TestDraw_SweepsRunLeftToRight(t *testing.T) {
	h := Heatmap{
		Label: "ramp",
		Axis:  []float64{1e6, 2e6},
		Power: mat.NewDense(2, 2, []float64{
			0, 0,
			10, 10,
		}),
	}

	img, at := drawn(t, NewPNGRenderer(800, 400), h)

	first := img.At(at(0.25, 0.5))
	second := img.At(at(0.75, 0.5))
	assert.Greater(t, lightness(second), lightness(first)+50)
}

func TestDraw_WithTimesAndSingleBin(t *testing.T) {
	r := NewPNGRenderer(600, 300)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := Heatmap{
		Label: "single",
		Axis:  []float64{433.92e6},
		Power: mat.NewDense(2, 1, []float64{-40, -40}),
		Times: []time.Time{start, start.Add(time.Second)},
	}

	img, err := r.Draw(h)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestDraw_Errors(t *testing.T) {
	tests := []struct {
		name     string
		renderer *PNGRenderer
		heatmap  Heatmap
		contains string
	}{
		{
			name:     "nil matrix",
			renderer: NewPNGRenderer(400, 200),
			heatmap:  Heatmap{Label: "x"},
			contains: "no data",
		},
		{
			name:     "axis mismatch",
			renderer: NewPNGRenderer(400, 200),
			heatmap:  Heatmap{Axis: []float64{1, 2, 3}, Power: mat.NewDense(1, 2, []float64{1, 2})},
			contains: "frequency axis",
		},
		{
			name:     "too small",
			renderer: &PNGRenderer{Width: 40, Height: 20},
			heatmap:  toneHeatmap(),
			contains: "too small",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.renderer.RenderHeatmap(&buf, tt.heatmap)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestViridis(t *testing.T) {
	cmap, err := Viridis(-80, -20)
	require.NoError(t, err)
	assert.Equal(t, -80.0, cmap.Min())
	assert.Equal(t, -20.0, cmap.Max())

	rgb := func(c color.Color) []float64 {
		r, g, b, _ := c.RGBA()
		return []float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
	}

	low, err := cmap.At(-80)
	require.NoError(t, err)
	high, err := cmap.At(-20)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0x44, 0x01, 0x54}, rgb(low), 3)
	assert.InDeltaSlice(t, []float64{0xfd, 0xe7, 0x25}, rgb(high), 3)

	prev := uint8(0)
	for v := -80.0; v <= -20; v += 6 {
		c, err := cmap.At(v)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, lightness(c), prev)
		prev = lightness(c)
	}

	_, err = cmap.At(0)
	assert.Error(t, err)
}
