package alpha2ds

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alpha2ds/alpha2ds/format"
	"github.com/alpha2ds/alpha2ds/manifest"
	"github.com/alpha2ds/alpha2ds/palette"
	"github.com/alpha2ds/alpha2ds/raster"
	"github.com/alpha2ds/alpha2ds/tile"
)

var (
	errEmpty  = errors.New("alpha2ds: image has no pixels")
	errVerify = errors.New("alpha2ds: compressed data does not match")
)

// Result describes the outcome of converting one source image.
type Result struct {
	Source string
	// Image is the path of the image file written
	Image         string
	Width, Height int
	// Size is the uncompressed size of the image data in bytes
	Size int
	// Stored is the size of the image file including any header
	Stored    int
	Colors    int
	Overflows int
	Lost      int
	// Skipped is set when the manifest showed the image to be up to date
	Skipped bool
}

type outputs struct {
	image, alpha, palette, width, height string
}

// baseName returns the file name up to its first dot.
func baseName(source string) string {
	base := filepath.Base(source)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

func (c *Converter) outputs(source string) outputs {
	dir := c.opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	base := baseName(source)

	rle := ""
	if c.opts.Compress {
		rle = ".rle"
	}

	o := outputs{
		image:   filepath.Join(dir, base+rle+"."+c.opts.ImageExt),
		alpha:   filepath.Join(dir, "alpha"+base+rle+"."+c.opts.AlphaExt),
		palette: filepath.Join(dir, base+".pal.bin"),
		width:   filepath.Join(dir, base+".width.bin"),
		height:  filepath.Join(dir, base+".height.bin"),
	}
	if c.opts.Palette != "" {
		o.palette = c.opts.Palette
	}
	return o
}

// ConvertFile decodes the image at source and converts it. The image can be
// in any format registered with the image package.
func (c *Converter) ConvertFile(source string) (*Result, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha1.New()
	m, _, err := image.Decode(io.TeeReader(f, h))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", source, err)
	}
	// The decoder may not have consumed everything
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	sum := fmt.Sprintf("%X", h.Sum(nil))

	skip, err := c.upToDate(source, sum)
	if err != nil {
		return nil, err
	}
	if skip != nil {
		c.debugf("Skipping %s, already converted to %s\n", source, skip.Image)
		return skip, nil
	}

	return c.convert(source, sum, raster.FromImage(m))
}

// Convert converts r as though it had been read from source, which is only
// used to name the output files.
func (c *Converter) Convert(source string, r raster.Raster) (*Result, error) {
	return c.convert(source, "", r)
}

func (c *Converter) upToDate(source, sum string) (*Result, error) {
	// A shared palette depends on every image converted before this one
	if c.manifest == nil || c.force || c.palette != nil {
		return nil, nil
	}

	e, err := c.manifest.Find(source)
	if err != nil || e == nil {
		return nil, err
	}
	if e.SHA1 != sum || e.Options != c.opts.Fingerprint() {
		return nil, nil
	}
	if _, err := os.Stat(e.Image); err != nil {
		return nil, nil
	}

	return &Result{
		Source:    source,
		Image:     e.Image,
		Width:     e.Width,
		Height:    e.Height,
		Size:      e.Size,
		Stored:    e.Stored,
		Colors:    e.Colors,
		Overflows: e.Overflows,
		Skipped:   true,
	}, nil
}

func (c *Converter) validateTiles(w, h int) error {
	if !c.opts.Tile {
		return nil
	}
	if c.opts.Output == format.Bits1 {
		return tile.ValidateBits(w, h, c.opts.TileSize)
	}
	return tile.Validate(w, h, c.opts.TileSize)
}

func (c *Converter) convert(source, sum string, r raster.Raster) (*Result, error) {
	w, h := r.Width(), r.Height()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%s: %w", source, errEmpty)
	}
	if err := c.validateTiles(w, h); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	c.debugf("File %s Width %d Height %d\n", source, w, h)

	pal := palette.New()
	if c.palette != nil {
		pal = c.palette.Clone()
		pal.ClearStats()
	}

	buf := raster.Encode(r, raster.Options{
		Format:           c.opts.Format,
		AlphaTransparent: c.opts.AlphaTransparent,
	}, pal)

	if c.opts.Output == format.Indexed8 && pal.Overflows() > 0 {
		c.printf("Warning: %s has more than %d colors, %d colors folded onto index %d in %d pixels\n", source, palette.Size-2, pal.Lost(), palette.Last, pal.Overflows())
	}

	img, extents, err := c.payload(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var alpha *format.Payload
	if c.opts.Alpha {
		data := buf.Alpha
		if c.opts.Tile {
			if data, err = tile.Rearrange(data, w, h, c.opts.TileSize); err != nil {
				return nil, fmt.Errorf("%s: %w", source, err)
			}
		}
		alpha = format.NewBytes(format.Alpha, w, h, data)
	}

	size := img.Size()

	if c.opts.Compress {
		if img, err = c.compress(img); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		if alpha != nil {
			if alpha, err = c.compress(alpha); err != nil {
				return nil, fmt.Errorf("%s: %w", source, err)
			}
		}
	}

	// The alpha file always describes itself with the image config
	if alpha != nil {
		alpha.Config = img.Config
	}

	out := c.outputs(source)
	if err := os.MkdirAll(filepath.Dir(out.image), 0o755); err != nil {
		return nil, err
	}

	if err := writeFile(out.image, func(wr io.Writer) error {
		return format.Encode(wr, img, c.opts.NoHeader)
	}); err != nil {
		return nil, err
	}

	stored := img.Size()
	if !c.opts.NoHeader && img.Kind.HasHeader() {
		stored += format.HeaderSize
	}

	if alpha != nil {
		if err := writeFile(out.alpha, func(wr io.Writer) error {
			return format.Encode(wr, alpha, c.opts.NoHeader)
		}); err != nil {
			return nil, err
		}
	}

	if c.opts.Output == format.Indexed8 {
		b, err := pal.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(out.palette, b, 0o644); err != nil {
			return nil, err
		}
		c.debugf("Wrote %d colors to %s\n", pal.Len(), out.palette)
	}

	if c.opts.WidthMap {
		if err := os.WriteFile(out.width, extents.Widths(), 0o644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(out.height, extents.Heights(), 0o644); err != nil {
			return nil, err
		}
	}

	if c.palette != nil {
		c.palette = pal
	}

	res := &Result{
		Source:    source,
		Image:     out.image,
		Width:     w,
		Height:    h,
		Size:      size,
		Stored:    stored,
		Colors:    pal.Len(),
		Overflows: pal.Overflows(),
		Lost:      pal.Lost(),
	}

	if c.manifest != nil && sum != "" {
		if err := c.manifest.Record(&manifest.Entry{
			Source:    source,
			SHA1:      sum,
			Options:   c.opts.Fingerprint(),
			Image:     res.Image,
			Width:     res.Width,
			Height:    res.Height,
			Size:      res.Size,
			Stored:    res.Stored,
			Colors:    res.Colors,
			Overflows: res.Overflows,
			Converted: time.Now(),
		}); err != nil {
			return nil, err
		}
	}

	if c.opts.Compress {
		c.printf("%s (Size %d) -> %s (Size %d)\n", source, size, out.image, stored)
	} else {
		c.printf("%s -> %s (Size %d)\n", source, out.image, stored)
	}

	return res, nil
}

// payload builds the uncompressed image data of the configured kind, in
// tile order if tiling is enabled.
func (c *Converter) payload(buf *raster.Buffers) (*format.Payload, tile.Extents, error) {
	w, h, size := buf.Width, buf.Height, c.opts.TileSize

	switch c.opts.Output {
	case format.Bits1:
		if !c.opts.Tile {
			return format.NewBytes(format.Bits1, w, h, buf.Bits), nil, nil
		}
		bits, extents, err := tile.RearrangeBits(buf.Bits, w, h, size)
		if err != nil {
			return nil, nil, err
		}
		for i, e := range extents {
			c.debugf("Tile %d Width %d Height %d\n", i, e.Width, e.Height)
		}
		return format.NewBytes(format.Bits1, w, h, bits), extents, nil
	case format.Grey4:
		if !c.opts.Tile {
			return format.NewBytes(format.Grey4, w, h, buf.PackedGrey()), nil, nil
		}
		grey, err := tile.Rearrange(buf.Grey, w, h, size)
		if err != nil {
			return nil, nil, err
		}
		return format.NewBytes(format.Grey4, w, h, raster.PackGrey(grey)), nil, nil
	case format.Indexed8:
		pix := buf.Pix8
		if c.opts.Tile {
			var err error
			if pix, err = tile.Rearrange(pix, w, h, size); err != nil {
				return nil, nil, err
			}
		}
		return format.NewBytes(format.Indexed8, w, h, pix), nil, nil
	case format.Color16:
		pix := buf.Pix16
		if c.opts.Tile {
			var err error
			if pix, err = tile.Rearrange(pix, w, h, size); err != nil {
				return nil, nil, err
			}
		}
		return format.NewWords(w, h, pix), nil, nil
	case format.Packed444:
		if !c.opts.Tile {
			return format.NewBytes(format.Packed444, w, h, buf.Packed444()), nil, nil
		}
		pix, err := tile.Rearrange(buf.Pix4, w, h, size)
		if err != nil {
			return nil, nil, err
		}
		return format.NewBytes(format.Packed444, w, h, raster.Pack444(pix)), nil, nil
	}

	return nil, nil, errOutputKind
}

func (c *Converter) compress(p *format.Payload) (*format.Payload, error) {
	cp := p.Compress()
	if !c.opts.Verify {
		return cp, nil
	}

	up, err := cp.Uncompress()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errVerify, err)
	}
	if !bytes.Equal(up.Bytes, p.Bytes) || !slices.Equal(up.Words, p.Words) {
		return nil, errVerify
	}
	c.debugf("Verified %s, %d symbols compressed to %d\n", p.Kind, p.Len(), cp.Len())

	return cp, nil
}

func writeFile(name string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
