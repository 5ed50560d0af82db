package pixel

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// Format selects the layout of the 16-bit color word.
type Format int

const (
	// FormatRGB555 is the default layout and the only one carrying a
	// transparency bit.
	FormatRGB555 Format = iota
	FormatRGB565
	FormatBGR565
)

var formatNames = [...]string{
	FormatRGB555: "rgb555",
	FormatRGB565: "rgb565",
	FormatBGR565: "bgr565",
}

var errUnknownFormat = errors.New("pixel: unknown color format")

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(s, n) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownFormat, s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(formatNames) {
		return nil, errUnknownFormat
	}
	return []byte(formatNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so a Format can be read
// straight from a configuration file.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// HasTransparency reports whether bit 15 of the word is used as a
// transparency flag.
func (f Format) HasTransparency() bool {
	return f == FormatRGB555
}

// Word returns the color word for the given channels, without any
// transparency bit.
func (f Format) Word(r, g, b uint8) uint16 {
	switch f {
	case FormatRGB565:
		return RGB565(r, g, b)
	case FormatBGR565:
		return BGR565(r, g, b)
	default:
		return RGB555(r, g, b)
	}
}

// Channels returns the truncated 5-bit channels of a color word.
func (f Format) Channels(v uint16) (r, g, b uint8) {
	switch f {
	case FormatRGB565:
		return Decode565(v)
	case FormatBGR565:
		return DecodeBGR565(v)
	default:
		return Decode555(v)
	}
}

// Color expands a color word back to 8-bit channels, replicating the top
// bits into the bottom so full intensity stays at 0xff.
func (f Format) Color(v uint16) color.RGBA {
	if f.HasTransparency() && v&Visible == 0 {
		return color.RGBA{}
	}
	r, g, b := f.Channels(v)
	return color.RGBA{expand5(r), expand5(g), expand5(b), 0xff}
}

// Model returns a color.Model that quantizes colors to the format.
func (f Format) Model() color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		r, g, b, a := c.RGBA()
		v := f.Word(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		if f.HasTransparency() && a != 0 {
			v |= Visible
		}
		return f.Color(v)
	})
}

func expand5(v uint8) uint8 {
	return v<<3 | v>>2
}
