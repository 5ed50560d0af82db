package raster

import (
	"github.com/alpha2ds/alpha2ds/palette"
	"github.com/alpha2ds/alpha2ds/pixel"
)

// Options controls how pixels are interpreted during encoding.
type Options struct {
	// Format selects the layout of the 16-bit color words, which are also
	// the keys of the palette.
	Format pixel.Format
	// AlphaTransparent treats any pixel that isn't fully opaque as
	// transparent for the indexed and RGB555 representations.
	AlphaTransparent bool
}

// Buffers holds one flat buffer per representation, in encoding order.
type Buffers struct {
	Width, Height int

	// Pix16 holds a color word per pixel, with bit 15 set for visible
	// pixels when the format carries a transparency bit.
	Pix16 []uint16
	// Pix8 holds a palette index per pixel.
	Pix8 []byte
	// Pix4 holds an RGB444 value per pixel.
	Pix4 []uint16
	// Grey holds a 4-bit luma value per pixel.
	Grey []byte
	// Bits holds one bit per pixel, the least significant bit of each byte
	// being the first of its eight pixels.
	Bits []byte
	// Alpha holds the raw alpha value of each pixel.
	Alpha []byte
}

// Len returns the number of pixels.
func (b *Buffers) Len() int {
	return b.Width * b.Height
}

func newBuffers(w, h int) *Buffers {
	n := w * h
	return &Buffers{
		Width:  w,
		Height: h,
		Pix16:  make([]uint16, n),
		Pix8:   make([]byte, n),
		Pix4:   make([]uint16, n),
		Grey:   make([]byte, n),
		Bits:   make([]byte, (n+7)>>3),
		Alpha:  make([]byte, n),
	}
}

// Encode scans r once and fills every representation. Palette indices are
// assigned through p which therefore carries state across the whole image.
func Encode(r Raster, opts Options, p *palette.Builder) *Buffers {
	w, h := r.Width(), r.Height()
	b := newBuffers(w, h)

	pos := 0
	for y := h - 1; y >= 0; y-- {
		for x := 0; x < w; x++ {
			cr, cg, cb, ca := r.RGBA(x, y)

			b.Pix4[pos] = pixel.RGB444(cr, cg, cb)
			b.Grey[pos] = pixel.Grey4(cr, cg, cb)

			c := opts.Format.Word(cr, cg, cb)
			transparent := pixel.Transparent(ca, opts.AlphaTransparent)

			// Index 0 is always the transparent pixel
			if !transparent {
				b.Pix8[pos] = p.Assign(c)
			}

			if pixel.Bit(ca) {
				b.Bits[pos>>3] |= 1 << (pos & 7)
			}

			switch {
			case !opts.Format.HasTransparency():
				b.Pix16[pos] = c
			case transparent:
				b.Pix16[pos] = c &^ pixel.Visible
			default:
				b.Pix16[pos] = c | pixel.Visible
			}

			b.Alpha[pos] = ca

			pos++
		}
	}

	return b
}

// Packed444 returns the RGB444 values packed two pixels to three bytes.
func (b *Buffers) Packed444() []byte {
	return Pack444(b.Pix4)
}

// PackedGrey returns the 4-bit luma values packed two pixels to a byte.
func (b *Buffers) PackedGrey() []byte {
	return PackGrey(b.Grey)
}

// Pack444 packs RGB444 values two pixels to three bytes. An odd final pixel
// is paired with a zero pixel.
func Pack444(pix []uint16) []byte {
	out := make([]byte, 0, (len(pix)+1)/2*3)
	for i := 0; i < len(pix); i += 2 {
		var p1 uint16
		if i+1 < len(pix) {
			p1 = pix[i+1]
		}
		t := pixel.Pack444(pix[i], p1)
		out = append(out, t[:]...)
	}
	return out
}

// PackGrey packs 4-bit values two pixels to a byte, the first pixel in the
// high nibble.
func PackGrey(grey []byte) []byte {
	out := make([]byte, (len(grey)+1)/2)
	for i, v := range grey {
		if i&1 == 0 {
			out[i>>1] = v << 4
		} else {
			out[i>>1] |= v & 0x0f
		}
	}
	return out
}
