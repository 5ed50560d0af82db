package alpha2ds

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/alpha2ds/alpha2ds/format"
	"github.com/alpha2ds/alpha2ds/pixel"
	"github.com/alpha2ds/alpha2ds/tile"
)

// Options controls a conversion run. It is built once, validated, and never
// modified afterwards.
type Options struct {
	// Output is the kind of image file written for every source image.
	Output format.Kind `toml:"output"`
	// Format is the layout of 16-bit color words, which also keys the
	// palette for indexed output.
	Format pixel.Format `toml:"format"`
	// AlphaTransparent treats every pixel that isn't fully opaque as
	// transparent.
	AlphaTransparent bool `toml:"alpha_transparent"`

	Compress bool `toml:"rle"`
	Tile     bool `toml:"tile"`
	TileSize int  `toml:"tile_size"`
	NoHeader bool `toml:"no_header"`

	// Alpha writes a separate alpha file next to each image.
	Alpha bool `toml:"alpha"`
	// WidthMap writes the per tile width and height maps of tiled 1-bit
	// images.
	WidthMap bool `toml:"width_map"`
	// Verify decompresses and checks every compressed payload before it is
	// written.
	Verify bool `toml:"verify"`

	// Palette names a palette file shared by every image; it is read first
	// if it exists and rewritten after each image.
	Palette string `toml:"palette"`

	Filter    string `toml:"filter"`
	ImageExt  string `toml:"image_ext"`
	AlphaExt  string `toml:"alpha_ext"`
	OutputDir string `toml:"output_dir"`

	Quiet   bool `toml:"quiet"`
	Verbose bool `toml:"verbose"`
}

var (
	errOutputKind   = errors.New("alpha2ds: alpha is not an output kind")
	errWidthMap     = errors.New("alpha2ds: width map requires tiled 1-bit output")
	errPalette      = errors.New("alpha2ds: palette file requires 8-bit output")
	errExtension    = errors.New("alpha2ds: empty file extension")
	errFilter       = errors.New("alpha2ds: invalid file filter")
	errQuietVerbose = errors.New("alpha2ds: quiet and verbose are mutually exclusive")
)

// DefaultOptions returns the options used when nothing else is given; 16-bit
// RGB555 files from every PNG file.
func DefaultOptions() Options {
	return Options{
		Output:   format.Color16,
		Format:   pixel.FormatRGB555,
		TileSize: tile.DefaultSize,
		Filter:   "*.png",
		ImageExt: "bin",
		AlphaExt: "bin",
	}
}

// LoadOptions returns the default options overlaid with the contents of the
// TOML file at path. A missing file is not an error.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return Options{}, err
	}

	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, fmt.Errorf("parsing options %s: %w", path, err)
	}

	return opts, nil
}

// Validate checks the options for conflicts that don't depend on any image.
func (o Options) Validate() error {
	if o.Output < format.Bits1 || o.Output >= format.Alpha {
		return errOutputKind
	}
	if _, err := o.Format.MarshalText(); err != nil {
		return err
	}
	if o.Tile {
		// Any image size will do to check the tile size itself
		if err := tile.Validate(o.TileSize, o.TileSize, o.TileSize); err != nil {
			return err
		}
		if o.Output == format.Bits1 {
			if err := tile.ValidateBits(o.TileSize, o.TileSize, o.TileSize); err != nil {
				return err
			}
		}
	}
	if o.WidthMap && (!o.Tile || o.Output != format.Bits1) {
		return errWidthMap
	}
	if o.Palette != "" && o.Output != format.Indexed8 {
		return errPalette
	}
	if o.ImageExt == "" || (o.Alpha && o.AlphaExt == "") {
		return errExtension
	}
	if _, err := filepath.Match(o.Filter, ""); err != nil || o.Filter == "" {
		return errFilter
	}
	if o.Quiet && o.Verbose {
		return errQuietVerbose
	}
	return nil
}

// Fingerprint returns a digest of every option that changes the bytes
// written, so a manifest can tell when an image needs converting again.
func (o Options) Fingerprint() string {
	s := fmt.Sprintf("%v|%v|%v|%v|%v|%v|%v|%v|%v|%v|%v|%v",
		o.Output, o.Format, o.AlphaTransparent, o.Compress, o.Tile, o.TileSize,
		o.NoHeader, o.Alpha, o.WidthMap, o.Palette, o.ImageExt, o.AlphaExt)
	return fmt.Sprintf("%X", sha1.Sum([]byte(s)))
}
