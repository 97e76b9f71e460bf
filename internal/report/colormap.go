package report

import (
	"image/color"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// paletteSize is the number of discrete colors a heatmap is drawn with
const paletteSize = 256

// viridis sampled at 0.0, 0.1, ... 1.0
var viridis = []color.Color{
	color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	color.RGBA{R: 0x48, G: 0x24, B: 0x75, A: 0xff},
	color.RGBA{R: 0x41, G: 0x44, B: 0x87, A: 0xff},
	color.RGBA{R: 0x35, G: 0x5f, B: 0x8d, A: 0xff},
	color.RGBA{R: 0x2a, G: 0x78, B: 0x8e, A: 0xff},
	color.RGBA{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	color.RGBA{R: 0x22, G: 0xa8, B: 0x84, A: 0xff},
	color.RGBA{R: 0x44, G: 0xbf, B: 0x70, A: 0xff},
	color.RGBA{R: 0x7a, G: 0xd1, B: 0x51, A: 0xff},
	color.RGBA{R: 0xbd, G: 0xdf, B: 0x26, A: 0xff},
	color.RGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// Viridis returns a fresh viridis color map spanning [lo, hi]. The anchors
// rise monotonically in lightness, so the map interpolates in CIELAB.
func Viridis(lo, hi float64) (palette.ColorMap, error) {
	cmap, err := moreland.NewLuminance(viridis)
	if err != nil {
		return nil, err
	}
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	return cmap, nil
}
