/*
Package tile reorders scanline-major pixel buffers into tile-major order.

Tiles are square and must cover the image exactly. Tiles are emitted row by
row, left to right, and within a tile the pixels are emitted row by row, left
to right, so an 8 by 8 tile of an 8-bit buffer is 64 consecutive bytes.

One bit per pixel buffers are handled a byte at a time, eight pixels per
byte, so both the tile size and the image width must be multiples of eight.
While rearranging such a buffer the extent of the lit pixels within each tile
is recorded which the hardware uses to trim sprites.
*/
package tile

import (
	"errors"
	"fmt"
)

const (
	// DefaultSize is the tile size used unless told otherwise.
	DefaultSize = 8
	// MaxSize is the largest supported tile size.
	MaxSize = 64

	pixelsPerByte = 8
)

var (
	errSize      = errors.New("tile: size must be an even number between 2 and 64")
	errUneven    = errors.New("tile: image dimensions are not a multiple of the tile size")
	errBitsAlign = errors.New("tile: 1-bit tiles need a tile size and width that are multiples of 8")
	errLength    = errors.New("tile: buffer length does not match dimensions")
)

// Validate checks that tiles of the given size cover a w by h image exactly.
func Validate(w, h, size int) error {
	if size < 2 || size > MaxSize || size&1 != 0 {
		return fmt.Errorf("%w: %d", errSize, size)
	}
	if w%size != 0 || h%size != 0 {
		return fmt.Errorf("%w: %dx%d, tile size %d", errUneven, w, h, size)
	}
	return nil
}

// ValidateBits is Validate with the extra constraints of 1-bit buffers.
func ValidateBits(w, h, size int) error {
	if err := Validate(w, h, size); err != nil {
		return err
	}
	if size%pixelsPerByte != 0 || w%pixelsPerByte != 0 {
		return errBitsAlign
	}
	return nil
}

// Count returns the number of tiles across and down.
func Count(w, h, size int) (int, int) {
	return w / size, h / size
}
