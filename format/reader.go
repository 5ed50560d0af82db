package format

import (
	"encoding/binary"
	"io"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r    io.Reader
	kind Kind

	header  Header
	payload *Payload

	tmp [HeaderSize]byte
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:]); err != nil {
		return err
	}
	d.header = Header{
		Length: binary.LittleEndian.Uint32(d.tmp[0:]),
		Width:  binary.LittleEndian.Uint16(d.tmp[4:]),
		Height: binary.LittleEndian.Uint16(d.tmp[6:]),
		Config: binary.LittleEndian.Uint16(d.tmp[8:]),
	}
	return nil
}

func (d *decoder) readData() error {
	h := d.header

	size := d.kind.Size(int(h.Width) * int(h.Height))
	if h.Compressed() {
		size = int(h.Length)
		if d.kind.Wide() {
			size <<= 1
		}
	}

	b := make([]byte, size)
	if err := readFull(d.r, b); err != nil {
		return err
	}

	d.payload = &Payload{
		Kind:   d.kind,
		Width:  int(h.Width),
		Height: int(h.Height),
		Config: h.Config,
	}
	d.payload.setData(b)

	return nil
}

func (p *Payload) setData(b []byte) {
	if !p.Kind.Wide() {
		p.Bytes = b
		return
	}
	p.Words = make([]uint16, len(b)>>1)
	for i := range p.Words {
		p.Words[i] = binary.LittleEndian.Uint16(b[i<<1:])
	}
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if !d.kind.HasHeader() {
		return errKind
	}

	if err := d.readHeader(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	if configOnly {
		return nil
	}

	if err := d.readData(); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	if n, err := r.Read(d.tmp[:1]); n != 0 || (err != io.EOF && err != io.ErrUnexpectedEOF) {
		if err != nil {
			return err
		}
		return errTooMuch
	}

	return nil
}

// Decode reads an image file of the given kind with a header from r. The
// returned payload is as stored, call Uncompress to expand it.
func Decode(r io.Reader, k Kind) (*Payload, error) {
	d := decoder{kind: k}
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.payload, nil
}

// DecodeConfig returns the header of an image file without reading the data.
func DecodeConfig(r io.Reader, k Kind) (Header, error) {
	d := decoder{kind: k}
	if err := d.decode(r, true); err != nil {
		return Header{}, err
	}
	return d.header, nil
}

// DecodeRaw reads an image file written without a header. The dimensions
// and compression can't be recovered from the file so they must be given.
func DecodeRaw(r io.Reader, k Kind, w, h int, compressed bool) (*Payload, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if !compressed && len(b) != k.Size(w*h) {
		if len(b) < k.Size(w*h) {
			return nil, errNotEnough
		}
		return nil, errTooMuch
	}
	if k.Wide() && len(b)&1 != 0 {
		return nil, errNotEnough
	}

	p := &Payload{
		Kind:   k,
		Width:  w,
		Height: h,
		Config: config(k),
	}
	if compressed {
		p.Config |= ConfigCompressed
	}
	p.setData(b)

	return p, nil
}
