/*
Package format implements the file layouts read by the display hardware.

Apart from the 4-bit greyscale format every image file may start with a
10 byte header, all fields little-endian:

	u32  length of the data; the pixel count when uncompressed, otherwise
	     the number of compressed symbols (bytes, or words for 16-bit data)
	u16  width in pixels
	u16  height in pixels
	u16  configuration; bit 0 set when RLE compressed, bit 1 set for 8-bit
	     indexed data

followed by the data to the end of the file:

	Bits1      1 bit per pixel, least significant bit first
	Grey4      4-bit luma, two pixels per byte, high nibble first
	Indexed8   palette index per pixel, index 0 transparent
	Color16    16-bit color word per pixel
	Packed444  RGB444, 2 pixels packed into 3 bytes
	Alpha      8-bit alpha per pixel

Compressed 16-bit data uses the 16-bit symbol RLE codec, everything else uses
the 8-bit codec.
*/
package format

import (
	"errors"
	"fmt"
)

// Kind identifies the layout of the data in an image file.
type Kind int

// Supported kinds.
const (
	Bits1 Kind = iota
	Grey4
	Indexed8
	Color16
	Packed444
	Alpha
)

var kindNames = [...]string{
	Bits1:     "1bit",
	Grey4:     "4bit",
	Indexed8:  "8bit",
	Color16:   "16bit",
	Packed444: "444",
	Alpha:     "alpha",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if s == n {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("format: unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, errKind
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Wide reports whether the kind is made of 16-bit symbols.
func (k Kind) Wide() bool {
	return k == Color16
}

// HasHeader reports whether files of this kind ever carry a header.
func (k Kind) HasHeader() bool {
	return k != Grey4
}

// Size returns the size in bytes of the uncompressed data for n pixels.
func (k Kind) Size(n int) int {
	switch k {
	case Bits1:
		return (n + 7) >> 3
	case Grey4:
		return (n + 1) >> 1
	case Color16:
		return n << 1
	case Packed444:
		return (n + 1) >> 1 * 3
	default:
		return n
	}
}

// Configuration bits.
const (
	ConfigCompressed uint16 = 1 << 0
	Config8Bit       uint16 = 1 << 1
)

// HeaderSize is the size in bytes of the header.
const HeaderSize = 10

// Header is the optional header of an image file.
type Header struct {
	Length uint32
	Width  uint16
	Height uint16
	Config uint16
}

// Compressed reports whether the data following the header is compressed.
func (h Header) Compressed() bool {
	return h.Config&ConfigCompressed != 0
}

var (
	errNotEnough  = errors.New("format: not enough image data")
	errTooMuch    = errors.New("format: too much image data")
	errDimensions = errors.New("format: image dimensions out of range")
	errKind       = errors.New("format: unsupported kind")
)
