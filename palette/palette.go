/*
Package palette implements the 256 color table used by 8-bit indexed output.

Index 0 is reserved for transparent pixels and is never handed out by the
builder. Index 1 is bound to black (a color word of zero) from the start.
Remaining indices are bound in the order colors are first seen; once bound an
index never changes color. When the table is full every further new color is
mapped onto the last index.

The palette file is written as 256 little-endian 16-bit color words. Entry 0
is unused and an entry holding zero beyond index 1 is unbound.
*/
package palette

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Size is the number of entries in a palette.
	Size = 256

	// Transparent is the index used for transparent pixels.
	Transparent = 0

	// Black is the index permanently bound to the zero color word.
	Black = 1

	// Last is the index that absorbs colors once the table is full.
	Last = Size - 1

	first = 2

	// FileSize is the size in bytes of a palette file.
	FileSize = Size * 2
)

var errFileSize = errors.New("palette: incorrect length")

// Builder assigns palette indices to color words. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Builder struct {
	colors [Size]uint16
	next   int

	overflows int
	lost      map[uint16]struct{}
}

// New returns an empty palette.
func New() *Builder {
	p := new(Builder)
	p.Reset()
	return p
}

// Reset unbinds every index other than the reserved ones.
func (p *Builder) Reset() {
	p.colors = [Size]uint16{}
	p.next = first
	p.overflows = 0
	p.lost = nil
}

// Clone returns an independent copy of the palette, including its overflow
// statistics.
func (p *Builder) Clone() *Builder {
	dup := *p
	if p.lost != nil {
		dup.lost = make(map[uint16]struct{}, len(p.lost))
		for c := range p.lost {
			dup.lost[c] = struct{}{}
		}
	}
	return &dup
}

// Assign returns the index for color word c, binding a new index if c hasn't
// been seen before. It never returns Transparent.
func (p *Builder) Assign(c uint16) uint8 {
	if c == 0 {
		return Black
	}

	// Linear scan so the first bound match always wins
	for i := first; i < p.next; i++ {
		if p.colors[i] == c {
			return uint8(i)
		}
	}

	if p.next < Size {
		p.colors[p.next] = c
		p.next++
		return uint8(p.next - 1)
	}

	p.overflows++
	if p.lost == nil {
		p.lost = make(map[uint16]struct{})
	}
	p.lost[c] = struct{}{}

	return Last
}

// Color returns the color word bound to index i and whether it is bound.
func (p *Builder) Color(i uint8) (uint16, bool) {
	switch {
	case i == Transparent:
		return 0, false
	case i == Black:
		return 0, true
	default:
		return p.colors[i], int(i) < p.next
	}
}

// Len returns the number of bound indices, including the black entry.
func (p *Builder) Len() int {
	return p.next - 1
}

// Overflows returns the number of assignments that had to fall back to the
// last index because the table was full.
func (p *Builder) Overflows() int {
	return p.overflows
}

// Lost returns the number of distinct colors that were folded onto the last
// index.
func (p *Builder) Lost() int {
	return len(p.lost)
}

// ClearStats forgets any overflow counted so far while keeping every binding.
func (p *Builder) ClearStats() {
	p.overflows = 0
	p.lost = nil
}

// MarshalBinary encodes the palette into its file form.
func (p *Builder) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, FileSize)
	for _, c := range p.colors {
		b = binary.LittleEndian.AppendUint16(b, c)
	}
	return b, nil
}

// UnmarshalBinary decodes the palette from its file form. Bindings stop at
// the first zero entry after the black index, matching how the builder scans
// the table.
func (p *Builder) UnmarshalBinary(b []byte) error {
	if len(b) != FileSize {
		return fmt.Errorf("%w: %d bytes", errFileSize, len(b))
	}

	p.Reset()

	for i := first; i < Size; i++ {
		c := binary.LittleEndian.Uint16(b[i*2:])
		if c == 0 {
			break
		}
		p.colors[i] = c
		p.next = i + 1
	}

	return nil
}
