/*
Package alpha2ds is a library for converting images with an alpha channel
into the compact binary formats used by embedded display hardware.

Each source image is scanned once to build every representation, optionally
rearranged into tiles and RLE compressed, and then written out as an image
file with optional alpha, palette and tile extent files alongside it.
*/
package alpha2ds

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/alpha2ds/alpha2ds/manifest"
	"github.com/alpha2ds/alpha2ds/palette"
)

// Manifest remembers previous conversions. It is satisfied by *manifest.DB.
type Manifest interface {
	Find(source string) (*manifest.Entry, error)
	Record(e *manifest.Entry) error
}

// Converter converts source images according to a fixed set of options.
type Converter struct {
	opts     Options
	logger   *log.Logger
	manifest Manifest

	// Shared palette when Options.Palette is set, nil otherwise
	palette *palette.Builder

	force bool
}

// New returns a Converter. The logger and manifest may both be nil.
func New(opts Options, logger *log.Logger, m Manifest) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Converter{
		opts:     opts,
		logger:   logger,
		manifest: m,
	}

	if opts.Palette != "" {
		c.palette = palette.New()

		b, err := os.ReadFile(opts.Palette)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := c.palette.UnmarshalBinary(b); err != nil {
				return nil, err
			}
			c.debugf("Imported %d colors from palette %s\n", c.palette.Len(), opts.Palette)
		}
	}

	return c, nil
}

// Force makes the converter ignore the manifest when deciding whether an
// image needs converting.
func (c *Converter) Force(force bool) {
	c.force = force
}

func (c *Converter) printf(format string, v ...interface{}) {
	if !c.opts.Quiet {
		c.logger.Printf(format, v...)
	}
}

func (c *Converter) debugf(format string, v ...interface{}) {
	if c.opts.Verbose {
		c.logger.Printf(format, v...)
	}
}
