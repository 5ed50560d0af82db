package format

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/alpha2ds/alpha2ds/rle"
)

// Payload is the data of one image file, either raw or compressed.
type Payload struct {
	Kind          Kind
	Width, Height int

	// Config is written to the header. It is filled in by the constructors
	// and may be overridden, the alpha file for instance reuses the config
	// of the image it belongs to.
	Config uint16

	// Bytes holds the data of every kind except Color16, which uses Words.
	Bytes []byte
	Words []uint16
}

func config(k Kind) uint16 {
	if k == Indexed8 {
		return Config8Bit
	}
	return 0
}

// NewBytes returns an uncompressed payload of byte data.
func NewBytes(k Kind, w, h int, b []byte) *Payload {
	return &Payload{
		Kind:   k,
		Width:  w,
		Height: h,
		Config: config(k),
		Bytes:  b,
	}
}

// NewWords returns an uncompressed payload of 16-bit data.
func NewWords(w, h int, words []uint16) *Payload {
	return &Payload{
		Kind:   Color16,
		Width:  w,
		Height: h,
		Config: config(Color16),
		Words:  words,
	}
}

// Compressed reports whether the data is compressed.
func (p *Payload) Compressed() bool {
	return p.Config&ConfigCompressed != 0
}

// Len returns the number of symbols in the data.
func (p *Payload) Len() int {
	if p.Kind.Wide() {
		return len(p.Words)
	}
	return len(p.Bytes)
}

// Size returns the size in bytes of the data.
func (p *Payload) Size() int {
	if p.Kind.Wide() {
		return len(p.Words) << 1
	}
	return len(p.Bytes)
}

// Compress returns a compressed copy of the payload. Compressing an already
// compressed payload returns it unchanged.
func (p *Payload) Compress() *Payload {
	if p.Compressed() {
		return p
	}

	dup := *p
	dup.Config |= ConfigCompressed
	if p.Kind.Wide() {
		dup.Words = rle.Compress16(p.Words)
	} else {
		dup.Bytes = rle.Compress8(p.Bytes)
	}
	return &dup
}

// Uncompress returns an uncompressed copy of the payload.
func (p *Payload) Uncompress() (*Payload, error) {
	if !p.Compressed() {
		return p, nil
	}

	dup := *p
	dup.Config &^= ConfigCompressed

	var err error
	if p.Kind.Wide() {
		dup.Words, err = rle.Uncompress16(p.Words)
	} else {
		dup.Bytes, err = rle.Uncompress8(p.Bytes)
	}
	if err != nil {
		return nil, err
	}

	if dup.Size() != p.Kind.Size(p.Width*p.Height) {
		return nil, errNotEnough
	}

	return &dup, nil
}

// Header returns the header describing the payload.
func (p *Payload) Header() Header {
	length := p.Width * p.Height
	if p.Compressed() {
		length = p.Len()
	}
	return Header{
		Length: uint32(length),
		Width:  uint16(p.Width),
		Height: uint16(p.Height),
		Config: p.Config,
	}
}

type encoder struct {
	w *bufio.Writer
}

func (e *encoder) writeHeader(h Header) error {
	return binary.Write(e.w, binary.LittleEndian, &h)
}

func (e *encoder) writeData(p *Payload) error {
	if !p.Kind.Wide() {
		_, err := e.w.Write(p.Bytes)
		return err
	}

	var tmp [2]byte
	for _, v := range p.Words {
		binary.LittleEndian.PutUint16(tmp[:], v)
		if _, err := e.w.Write(tmp[:]); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes the payload to w, preceded by its header unless noHeader is
// set or the kind never has one.
func Encode(w io.Writer, p *Payload, noHeader bool) error {
	if p.Width < 0 || p.Width > math.MaxUint16 || p.Height < 0 || p.Height > math.MaxUint16 {
		return errDimensions
	}
	if p.Kind < Bits1 || p.Kind > Alpha {
		return errKind
	}

	e := encoder{w: bufio.NewWriter(w)}

	if !noHeader && p.Kind.HasHeader() {
		if err := e.writeHeader(p.Header()); err != nil {
			return err
		}
	}

	if err := e.writeData(p); err != nil {
		return err
	}

	return e.w.Flush()
}
