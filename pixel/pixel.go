/*
Package pixel implements the per-pixel conversions from 8-bit RGBA to the
packed representations understood by the display hardware.

All conversions truncate; the low bits of each channel are dropped rather than
rounded so that the output matches what the hardware tooling has always
produced.

	RGB555   0RRRRRGG GGGBBBBB   bit 15 optionally flags a visible pixel
	RGB565   RRRRRGGG GG0BBBBB   green keeps five bits
	BGR565   BBBBBGGG GG0RRRRR
	RGB444   0000BBBB GGGGRRRR   two pixels are later packed into 3 bytes
*/
package pixel

// Visible is the bit set in an RGB555 word when the pixel is not fully
// transparent.
const Visible uint16 = 1 << 15

const (
	mask5 = 0x1f
	mask4 = 0x0f
)

// RGB555 returns the 15-bit value of the color with no transparency bit.
func RGB555(r, g, b uint8) uint16 {
	return uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
}

// RGB565 returns the 16-bit RGB565 value of the color.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>3)<<6 | uint16(b>>3)
}

// BGR565 returns the 16-bit BGR565 value of the color. It is the RGB555
// value with the red and blue fields exchanged.
func BGR565(r, g, b uint8) uint16 {
	return SwapRB(RGB555(r, g, b))
}

// SwapRB converts an RGB555 value into BGR565 layout.
func SwapRB(v uint16) uint16 {
	return (v&0x7c00)>>10 | (v&0x03e0)<<1 | (v&0x001f)<<11
}

// RGB444 returns the 12-bit value used as the intermediate for the packed
// 4-bit format, laid out as 0000BBBBGGGGRRRR.
func RGB444(r, g, b uint8) uint16 {
	return uint16(b>>4)<<8 | uint16(g>>4)<<4 | uint16(r>>4)
}

// Pack444 packs two RGB444 values into three bytes:
//
//	Byte   |   1    |   2    |   3    |
//	Color   BBBBGGGG RRRRBBBB GGGGRRRR
//	Pixel   11111111 11112222 22222222
func Pack444(p0, p1 uint16) [3]byte {
	return [3]byte{
		byte((p0 & 0xff0) >> 4),
		byte((p0&0x00f)<<4 | (p1&0xf00)>>8),
		byte(p1 & 0x0ff),
	}
}

// Unpack444 reverses Pack444.
func Unpack444(b [3]byte) (uint16, uint16) {
	p0 := uint16(b[0])<<4 | uint16(b[1])>>4
	p1 := uint16(b[1]&0x0f)<<8 | uint16(b[2])
	return p0, p1
}

// Grey4 returns the 4-bit luma of the color.
func Grey4(r, g, b uint8) uint8 {
	y := (299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000
	return uint8(y >> 4)
}

// Bit reports whether a pixel is lit in the 1-bit representation. Only a fully
// transparent pixel is unset.
func Bit(a uint8) bool {
	return a != 0
}

// Transparent reports whether a pixel is treated as transparent. When partial
// is set any pixel that isn't fully opaque counts as transparent.
func Transparent(a uint8, partial bool) bool {
	return a == 0 || (partial && a != 0xff)
}

// Decode555 returns the 5-bit channels of an RGB555 value, ignoring bit 15.
func Decode555(v uint16) (r, g, b uint8) {
	return uint8(v>>10) & mask5, uint8(v>>5) & mask5, uint8(v) & mask5
}

// Decode565 returns the 5-bit channels of an RGB565 value.
func Decode565(v uint16) (r, g, b uint8) {
	return uint8(v>>11) & mask5, uint8(v>>6) & mask5, uint8(v) & mask5
}

// DecodeBGR565 returns the 5-bit channels of a BGR565 value.
func DecodeBGR565(v uint16) (r, g, b uint8) {
	return uint8(v) & mask5, uint8(v>>6) & mask5, uint8(v>>11) & mask5
}

// Decode444 returns the 4-bit channels of an RGB444 value.
func Decode444(v uint16) (r, g, b uint8) {
	return uint8(v) & mask4, uint8(v>>4) & mask4, uint8(v>>8) & mask4
}
