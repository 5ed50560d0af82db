package alpha2ds

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/alpha2ds/alpha2ds/format"
	"github.com/alpha2ds/alpha2ds/manifest"
	"github.com/alpha2ds/alpha2ds/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red         = color.NRGBA{0xff, 0, 0, 0xff}
	blue        = color.NRGBA{0, 0, 0xff, 0xff}
	white       = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	black       = color.NRGBA{0, 0, 0, 0xff}
	transparent = color.NRGBA{}
)

// row returns a one pixel high image of the given colors.
func row(colors ...color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, len(colors), 1))
	for x, c := range colors {
		m.SetNRGBA(x, 0, c)
	}
	return m
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func writePNG(t *testing.T, name string, m image.Image) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	require.NoError(t, os.WriteFile(name, buf.Bytes(), 0o644))
}

func readFile(t *testing.T, name string) []byte {
	t.Helper()

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	return b
}

func newConverter(t *testing.T, opts Options, m Manifest) *Converter {
	t.Helper()

	c, err := New(opts, nil, m)
	require.NoError(t, err)
	return c
}

func TestConvertFileColor16(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.png")
	writePNG(t, source, row(red, transparent))

	res, err := newConverter(t, DefaultOptions(), nil).ConvertFile(source)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a.bin"), res.Image)
	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 1, res.Height)
	assert.Equal(t, 4, res.Size)
	assert.Equal(t, 14, res.Stored)
	assert.False(t, res.Skipped)

	assert.Equal(t, []byte{
		0x02, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x00, 0xfc, 0x00, 0x00,
	}, readFile(t, res.Image))
}

func TestConvertFileIndexed(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "b.sprite.png")
	writePNG(t, source, row(red, transparent))

	opts := DefaultOptions()
	opts.Output = format.Indexed8
	opts.Alpha = true
	opts.AlphaExt = "abin"

	res, err := newConverter(t, opts, nil).ConvertFile(source)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Colors)

	assert.Equal(t, []byte{
		0x02, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x00, 0x02, 0x00,
		0x02, 0x00,
	}, readFile(t, filepath.Join(dir, "b.bin")))

	// The alpha file carries the image config
	assert.Equal(t, []byte{
		0x02, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x00, 0x02, 0x00,
		0xff, 0x00,
	}, readFile(t, filepath.Join(dir, "alphab.abin")))

	pal := readFile(t, filepath.Join(dir, "b.pal.bin"))
	require.Len(t, pal, 512)
	assert.Equal(t, []byte{0x00, 0x7c}, pal[4:6])
	assert.Equal(t, []byte{0x00, 0x00}, pal[6:8])
}

func TestConvertFileCompressed(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "d.png")
	writePNG(t, source, solid(16, 16, red))

	opts := DefaultOptions()
	opts.Compress = true
	opts.Verify = true
	opts.Alpha = true

	res, err := newConverter(t, opts, nil).ConvertFile(source)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "d.rle.bin"), res.Image)
	assert.Equal(t, 512, res.Size)
	assert.Equal(t, 18, res.Stored)

	assert.Equal(t, []byte{
		0x04, 0x00, 0x00, 0x00, 0x10, 0x00, 0x10, 0x00, 0x01, 0x00,
		0x00, 0x00, 0x00, 0x00, 0xff, 0x00, 0x00, 0xfc,
	}, readFile(t, res.Image))

	// 256 bytes of 0xff, marker 0x00 then a two byte count
	assert.Equal(t, []byte{
		0x05, 0x00, 0x00, 0x00, 0x10, 0x00, 0x10, 0x00, 0x01, 0x00,
		0x00, 0x00, 0x80, 0xff, 0xff,
	}, readFile(t, filepath.Join(dir, "alphad.rle.bin")))

	f, err := os.Open(res.Image)
	require.NoError(t, err)
	defer f.Close()

	p, err := format.Decode(f, format.Color16)
	require.NoError(t, err)
	up, err := p.Uncompress()
	require.NoError(t, err)
	assert.Len(t, up.Words, 256)
}

func TestConvertFileGrey(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "e.png")
	writePNG(t, source, row(white, black, white))

	opts := DefaultOptions()
	opts.Output = format.Grey4

	res, err := newConverter(t, opts, nil).ConvertFile(source)
	require.NoError(t, err)

	// Never a header
	assert.Equal(t, []byte{0xf0, 0xf0}, readFile(t, res.Image))
	assert.Equal(t, 2, res.Stored)
}

func TestConvertFileBitsTiled(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "c.png")

	m := solid(16, 8, transparent)
	m.SetNRGBA(2, 3, white)
	m.SetNRGBA(9, 0, white)
	writePNG(t, source, m)

	opts := DefaultOptions()
	opts.Output = format.Bits1
	opts.Tile = true
	opts.WidthMap = true

	res, err := newConverter(t, opts, nil).ConvertFile(source)
	require.NoError(t, err)

	b := readFile(t, res.Image)
	require.Len(t, b, 10+16)
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x00, 0x10, 0x00, 0x08, 0x00, 0x00, 0x00}, b[:10])
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, b[10:])

	assert.Equal(t, []byte{3, 2}, readFile(t, filepath.Join(dir, "c.width.bin")))
	assert.Equal(t, []byte{3, 0}, readFile(t, filepath.Join(dir, "c.height.bin")))
}

func TestConvertFileErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	c := newConverter(t, DefaultOptions(), nil)

	_, err := c.ConvertFile(bad)
	assert.Error(t, err)

	_, err = c.ConvertFile(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	odd := filepath.Join(dir, "odd.png")
	writePNG(t, odd, solid(12, 8, red))

	opts := DefaultOptions()
	opts.Tile = true
	_, err = newConverter(t, opts, nil).ConvertFile(odd)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "odd.bin"))
}

func TestConvertRaster(t *testing.T) {
	dir := t.TempDir()

	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")
	opts.NoHeader = true
	opts.Output = format.Packed444

	r := &raster.Pixels{W: 2, H: 1, Pix: []color.NRGBA{red, blue}}
	res, err := newConverter(t, opts, nil).Convert("/elsewhere/f.png", r)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "out", "f.bin"), res.Image)
	assert.Equal(t, []byte{0x00, 0xff, 0x00}, readFile(t, res.Image))

	_, err = newConverter(t, opts, nil).Convert("g.png", &raster.Pixels{})
	assert.ErrorIs(t, err, errEmpty)
}

func TestSharedPalette(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), row(red))
	writePNG(t, filepath.Join(dir, "b.png"), row(blue, red))
	shared := filepath.Join(dir, "shared.pal")

	opts := DefaultOptions()
	opts.Output = format.Indexed8
	opts.Palette = shared

	require.NoError(t, newConverter(t, opts, nil).Run(context.Background(), dir))

	assert.Equal(t, byte(2), readFile(t, filepath.Join(dir, "a.bin"))[10])
	assert.Equal(t, []byte{3, 2}, readFile(t, filepath.Join(dir, "b.bin"))[10:])

	pal := readFile(t, shared)
	assert.Equal(t, []byte{0x00, 0x7c, 0x1f, 0x00, 0x00, 0x00}, pal[4:10])

	// A second run starts from the saved palette
	writePNG(t, filepath.Join(dir, "a.png"), row(blue))
	require.NoError(t, newConverter(t, opts, nil).Run(context.Background(), dir))
	assert.Equal(t, byte(3), readFile(t, filepath.Join(dir, "a.bin"))[10])
}

func TestRunContinues(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), row(red))
	writePNG(t, filepath.Join(dir, ".hidden.png"), row(red))
	writePNG(t, filepath.Join(dir, "c.gif.png"), row(red))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("junk"), 0o644))

	err := newConverter(t, DefaultOptions(), nil).Run(context.Background(), dir)
	assert.ErrorIs(t, err, ErrFailed)

	assert.FileExists(t, filepath.Join(dir, "a.bin"))
	assert.FileExists(t, filepath.Join(dir, "c.bin"))
	assert.NoFileExists(t, filepath.Join(dir, ".bin"))
	assert.NoFileExists(t, filepath.Join(dir, "notes.bin"))
}

func TestManifestSkip(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.png")
	writePNG(t, source, row(red, transparent))

	db, err := manifest.Open(filepath.Join(dir, "manifest.db"))
	require.NoError(t, err)
	defer db.Close()

	c := newConverter(t, DefaultOptions(), db)

	res, err := c.ConvertFile(source)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	e, err := db.Find(source)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, res.Image, e.Image)
	assert.Equal(t, DefaultOptions().Fingerprint(), e.Options)

	res, err = c.ConvertFile(source)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 14, res.Stored)

	c.Force(true)
	res, err = c.ConvertFile(source)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	// Different options mean a different output
	opts := DefaultOptions()
	opts.Compress = true
	res, err = newConverter(t, opts, db).ConvertFile(source)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	// A changed source is converted again
	writePNG(t, source, row(blue, transparent))
	res, err = newConverter(t, opts, db).ConvertFile(source)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
}

func TestConvertFileTiled(t *testing.T) {
	translucent := color.NRGBA{0, 0, 0xff, 0x80}

	// Two 2x2 tiles side by side, red then translucent blue
	split := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		split.SetNRGBA(0, y, red)
		split.SetNRGBA(1, y, red)
		split.SetNRGBA(2, y, translucent)
		split.SetNRGBA(3, y, translucent)
	}

	tables := map[string]struct {
		m        image.Image
		output   format.Kind
		size     int
		compress bool
		image    []byte
		alpha    []byte
	}{
		"16-bit solid rle": {
			m:        solid(16, 16, red),
			output:   format.Color16,
			size:     8,
			compress: true,
			image: []byte{
				0x04, 0x00, 0x00, 0x00, 0x10, 0x00, 0x10, 0x00, 0x01, 0x00,
				0x00, 0x00, 0x00, 0x00, 0xff, 0x00, 0x00, 0xfc,
			},
			alpha: []byte{
				0x05, 0x00, 0x00, 0x00, 0x10, 0x00, 0x10, 0x00, 0x01, 0x00,
				0x00, 0x00, 0x80, 0xff, 0xff,
			},
		},
		"8-bit solid rle": {
			m:        solid(16, 16, red),
			output:   format.Indexed8,
			size:     8,
			compress: true,
			image: []byte{
				0x05, 0x00, 0x00, 0x00, 0x10, 0x00, 0x10, 0x00, 0x03, 0x00,
				0x00, 0x00, 0x80, 0xff, 0x02,
			},
			alpha: []byte{
				0x05, 0x00, 0x00, 0x00, 0x10, 0x00, 0x10, 0x00, 0x03, 0x00,
				0x00, 0x00, 0x80, 0xff, 0xff,
			},
		},
		"8-bit tile order": {
			m:      split,
			output: format.Indexed8,
			size:   2,
			image: []byte{
				0x08, 0x00, 0x00, 0x00, 0x04, 0x00, 0x02, 0x00, 0x02, 0x00,
				0x02, 0x02, 0x02, 0x02, 0x03, 0x03, 0x03, 0x03,
			},
			alpha: []byte{
				0x08, 0x00, 0x00, 0x00, 0x04, 0x00, 0x02, 0x00, 0x02, 0x00,
				0xff, 0xff, 0xff, 0xff, 0x80, 0x80, 0x80, 0x80,
			},
		},
		"16-bit tile order": {
			m:      split,
			output: format.Color16,
			size:   2,
			image: []byte{
				0x08, 0x00, 0x00, 0x00, 0x04, 0x00, 0x02, 0x00, 0x00, 0x00,
				0x00, 0xfc, 0x00, 0xfc, 0x00, 0xfc, 0x00, 0xfc,
				0x1f, 0x80, 0x1f, 0x80, 0x1f, 0x80, 0x1f, 0x80,
			},
			alpha: []byte{
				0x08, 0x00, 0x00, 0x00, 0x04, 0x00, 0x02, 0x00, 0x00, 0x00,
				0xff, 0xff, 0xff, 0xff, 0x80, 0x80, 0x80, 0x80,
			},
		},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writePNG(t, filepath.Join(dir, "d.png"), table.m)

			opts := DefaultOptions()
			opts.Output = table.output
			opts.Tile = true
			opts.TileSize = table.size
			opts.Compress = table.compress
			opts.Verify = table.compress
			opts.Alpha = true

			_, err := newConverter(t, opts, nil).ConvertFile(filepath.Join(dir, "d.png"))
			require.NoError(t, err)

			suffix := ".bin"
			if table.compress {
				suffix = ".rle.bin"
			}
			assert.Equal(t, table.image, readFile(t, filepath.Join(dir, "d"+suffix)))
			assert.Equal(t, table.alpha, readFile(t, filepath.Join(dir, "alphad"+suffix)))
		})
	}
}

func TestConvertFileTiledPacked(t *testing.T) {
	dir := t.TempDir()

	m := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		m.SetNRGBA(0, y, white)
		m.SetNRGBA(1, y, white)
		m.SetNRGBA(2, y, black)
		m.SetNRGBA(3, y, black)
	}
	writePNG(t, filepath.Join(dir, "p.png"), m)

	opts := DefaultOptions()
	opts.Output = format.Grey4
	opts.Tile = true
	opts.TileSize = 2

	res, err := newConverter(t, opts, nil).ConvertFile(filepath.Join(dir, "p.png"))
	require.NoError(t, err)
	// Packed after rearranging, so each tile fills whole bytes
	assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x00}, readFile(t, res.Image))
}
