package format

import (
	"errors"
	"image"
	"image/color"

	"github.com/alpha2ds/alpha2ds/palette"
	"github.com/alpha2ds/alpha2ds/pixel"
	"github.com/alpha2ds/alpha2ds/tile"
)

var errCompressed = errors.New("format: payload must be uncompressed")

func expand4(v uint8) uint8 {
	return v<<4 | v
}

func (p *Payload) colors(f pixel.Format, pal *palette.Builder, bits []byte) ([]color.NRGBA, error) {
	n := p.Width * p.Height
	pix := make([]color.NRGBA, n)

	word := func(v uint16) color.NRGBA {
		c := f.Color(v)
		return color.NRGBA{c.R, c.G, c.B, c.A}
	}

	for i := range pix {
		switch p.Kind {
		case Bits1:
			if bits[i>>3]&(1<<(i&7)) != 0 {
				pix[i] = color.NRGBA{0xff, 0xff, 0xff, 0xff}
			}
		case Grey4:
			v := p.Bytes[i>>1] >> 4
			if i&1 != 0 {
				v = p.Bytes[i>>1] & 0x0f
			}
			v = expand4(v)
			pix[i] = color.NRGBA{v, v, v, 0xff}
		case Indexed8:
			if pal == nil {
				return nil, errors.New("format: indexed data needs a palette")
			}
			c, ok := pal.Color(p.Bytes[i])
			if !ok {
				continue
			}
			if f.HasTransparency() {
				c |= pixel.Visible
			}
			pix[i] = word(c)
		case Color16:
			pix[i] = word(p.Words[i])
		case Packed444:
			var t [3]byte
			copy(t[:], p.Bytes[i>>1*3:])
			v0, v1 := pixel.Unpack444(t)
			if i&1 != 0 {
				v0 = v1
			}
			r, g, b := pixel.Decode444(v0)
			pix[i] = color.NRGBA{expand4(r), expand4(g), expand4(b), 0xff}
		case Alpha:
			a := p.Bytes[i]
			pix[i] = color.NRGBA{a, a, a, 0xff}
		default:
			return nil, errKind
		}
	}

	return pix, nil
}

// Image renders an uncompressed payload for inspection. The color format
// and palette are needed for 16-bit and indexed data respectively. A
// non-zero size undoes tile rearrangement with that tile size first.
func (p *Payload) Image(f pixel.Format, pal *palette.Builder, size int) (image.Image, error) {
	if p.Compressed() {
		return nil, errCompressed
	}
	if p.Size() != p.Kind.Size(p.Width*p.Height) {
		return nil, errNotEnough
	}

	bits := p.Bytes
	if p.Kind == Bits1 && size > 0 {
		var err error
		if bits, err = tile.RestoreBits(bits, p.Width, p.Height, size); err != nil {
			return nil, err
		}
	}

	pix, err := p.colors(f, pal, bits)
	if err != nil {
		return nil, err
	}

	if p.Kind != Bits1 && size > 0 {
		if pix, err = tile.Restore(pix, p.Width, p.Height, size); err != nil {
			return nil, err
		}
	}

	m := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, c := range pix {
		m.SetNRGBA(i%p.Width, i/p.Width, c)
	}

	return m, nil
}
