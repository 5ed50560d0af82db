/*
Package raster encodes an RGBA raster into every representation the display
hardware understands in a single pass.

A Raster addresses rows from the bottom up, row 0 being the bottom row. The
encoder walks the rows from Height-1 down to 0 and each row left to right, so
for a raster built with FromImage the first pixel written is the top left
pixel of the source image.
*/
package raster

import (
	"image"
	"image/color"
)

// Raster is an immutable grid of 8-bit RGBA pixels.
type Raster interface {
	Width() int
	Height() int
	// RGBA returns the non-premultiplied channels of the pixel at x, y
	// where y counts up from the bottom row.
	RGBA(x, y int) (r, g, b, a uint8)
}

type imageRaster struct {
	m    image.Image
	rect image.Rectangle
}

// FromImage adapts a decoded image into a Raster.
func FromImage(m image.Image) Raster {
	return &imageRaster{
		m:    m,
		rect: m.Bounds(),
	}
}

func (r *imageRaster) Width() int {
	return r.rect.Dx()
}

func (r *imageRaster) Height() int {
	return r.rect.Dy()
}

func (r *imageRaster) RGBA(x, y int) (uint8, uint8, uint8, uint8) {
	c := color.NRGBAModel.Convert(r.m.At(r.rect.Min.X+x, r.rect.Max.Y-1-y)).(color.NRGBA)
	return c.R, c.G, c.B, c.A
}

// Pixels is a Raster backed by a slice of colors in top-down row order, handy
// for building small rasters by hand.
type Pixels struct {
	W, H int
	Pix  []color.NRGBA
}

// Width implements Raster.
func (p *Pixels) Width() int { return p.W }

// Height implements Raster.
func (p *Pixels) Height() int { return p.H }

// RGBA implements Raster.
func (p *Pixels) RGBA(x, y int) (uint8, uint8, uint8, uint8) {
	c := p.Pix[(p.H-1-y)*p.W+x]
	return c.R, c.G, c.B, c.A
}
