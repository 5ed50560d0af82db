package tile

import "math/bits"

// Extent is the trimmed size of a 1-bit tile.
type Extent struct {
	// Width is one past the column of the rightmost lit pixel, or zero for
	// an empty tile.
	Width uint8
	// Height is the row of the lowest lit pixel. An empty tile and a tile
	// lit only on its first row both report zero.
	Height uint8
}

// Extents holds one Extent per tile in tile-major order.
type Extents []Extent

// Widths returns the width of every tile, one byte each, as written to the
// width map.
func (e Extents) Widths() []byte {
	b := make([]byte, len(e))
	for i, x := range e {
		b[i] = x.Width
	}
	return b
}

// Heights returns the height of every tile, one byte each, as written to
// the height map.
func (e Extents) Heights() []byte {
	b := make([]byte, len(e))
	for i, x := range e {
		b[i] = x.Height
	}
	return b
}

// lastPixel returns one past the highest lit pixel in b. The least
// significant bit is the first pixel.
func lastPixel(b byte) int {
	return bits.Len8(b)
}

// RearrangeBits returns src, a w by h buffer of one bit per pixel packed
// eight pixels to a byte, in tile-major order along with the extent of every
// tile.
func RearrangeBits(src []byte, w, h, size int) ([]byte, Extents, error) {
	if err := ValidateBits(w, h, size); err != nil {
		return nil, nil, err
	}
	if len(src) != w*h/pixelsPerByte {
		return nil, nil, errLength
	}

	stride := w / pixelsPerByte
	span := size / pixelsPerByte

	tileX, tileY := Count(w, h, size)
	dst := make([]byte, 0, len(src))
	extents := make(Extents, 0, tileX*tileY)

	for ty := 0; ty < tileY; ty++ {
		for tx := 0; tx < tileX; tx++ {
			var e Extent
			for y := 0; y < size; y++ {
				for x := 0; x < span; x++ {
					b := src[(ty*size+y)*stride+tx*span+x]
					dst = append(dst, b)

					if b == 0 {
						continue
					}
					if n := uint8(x*pixelsPerByte + lastPixel(b)); n > e.Width {
						e.Width = n
					}
					e.Height = uint8(y)
				}
			}
			extents = append(extents, e)
		}
	}

	return dst, extents, nil
}

// RestoreBits reverses RearrangeBits.
func RestoreBits(src []byte, w, h, size int) ([]byte, error) {
	if err := ValidateBits(w, h, size); err != nil {
		return nil, err
	}
	if len(src) != w*h/pixelsPerByte {
		return nil, errLength
	}
	return restore(src, w/pixelsPerByte, h, size/pixelsPerByte, size), nil
}
