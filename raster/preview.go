package raster

import (
	"image"

	"github.com/alpha2ds/alpha2ds/pixel"
)

// Preview returns m as it will appear on the display when stored with the
// color format f. Every channel is truncated as the encoder does it and, for
// formats with a transparency bit, only fully transparent pixels vanish.
func Preview(m image.Image, f pixel.Format) *image.NRGBA {
	b := m.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	model := f.Model()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, model.Convert(m.At(x, y)))
		}
	}
	return out
}
