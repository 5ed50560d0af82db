package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	// Source image formats
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/alpha2ds/alpha2ds"
	"github.com/alpha2ds/alpha2ds/format"
	"github.com/alpha2ds/alpha2ds/manifest"
	"github.com/alpha2ds/alpha2ds/palette"
	"github.com/alpha2ds/alpha2ds/pixel"
	"github.com/alpha2ds/alpha2ds/raster"
	"github.com/urfave/cli/v2"
)

const defaultConfig = "alpha2ds.toml"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var convertFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   format.Color16.String(),
		Usage:   "output kind: 1bit, 4bit, 8bit, 16bit or 444",
	},
	&cli.StringFlag{
		Name:    "format",
		Aliases: []string{"F"},
		Value:   pixel.FormatRGB555.String(),
		Usage:   "16-bit color format: rgb555, rgb565 or bgr565",
	},
	&cli.BoolFlag{
		Name:    "rle",
		Aliases: []string{"r"},
		Usage:   "compress output by RLE",
	},
	&cli.BoolFlag{
		Name:    "tile",
		Aliases: []string{"t"},
		Usage:   "make tiles",
	},
	&cli.IntFlag{
		Name:    "tile-size",
		Aliases: []string{"d"},
		Value:   8,
		Usage:   "tile size, must be even and at most 64",
	},
	&cli.BoolFlag{
		Name:    "alpha-transparent",
		Aliases: []string{"c"},
		Usage:   "treat partially transparent pixels as fully transparent",
	},
	&cli.BoolFlag{
		Name:    "width-map",
		Aliases: []string{"w"},
		Usage:   "write width and height files for 1-bit tiles",
	},
	&cli.BoolFlag{
		Name:    "no-header",
		Aliases: []string{"n"},
		Usage:   "omit the header",
	},
	&cli.BoolFlag{
		Name:    "alpha",
		Aliases: []string{"a"},
		Usage:   "write a separate alpha file",
	},
	&cli.BoolFlag{
		Name:  "verify",
		Usage: "check compressed data decompresses correctly",
	},
	&cli.StringFlag{
		Name:    "palette",
		Aliases: []string{"p"},
		Usage:   "shared palette file for 8-bit output",
	},
	&cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Value:   "*.png",
		Usage:   "source file filter",
	},
	&cli.StringFlag{
		Name:    "image-ext",
		Aliases: []string{"e"},
		Value:   "bin",
		Usage:   "image file extension",
	},
	&cli.StringFlag{
		Name:    "alpha-ext",
		Aliases: []string{"g"},
		Value:   "bin",
		Usage:   "alpha file extension",
	},
	&cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"O"},
		Usage:   "directory for output files, defaults to the source directory",
	},
	&cli.BoolFlag{
		Name:  "force",
		Usage: "convert images the manifest says are up to date",
	},
}

// options starts from the config file, if any, and applies every flag that
// was given explicitly.
func options(c *cli.Context) (alpha2ds.Options, error) {
	opts, err := alpha2ds.LoadOptions(c.String("config"))
	if err != nil {
		return opts, err
	}

	if c.IsSet("output") {
		if opts.Output, err = format.ParseKind(c.String("output")); err != nil {
			return opts, err
		}
	}
	if c.IsSet("format") {
		if opts.Format, err = pixel.ParseFormat(c.String("format")); err != nil {
			return opts, err
		}
	}

	bools := map[string]*bool{
		"rle":               &opts.Compress,
		"tile":              &opts.Tile,
		"alpha-transparent": &opts.AlphaTransparent,
		"width-map":         &opts.WidthMap,
		"no-header":         &opts.NoHeader,
		"alpha":             &opts.Alpha,
		"verify":            &opts.Verify,
		"quiet":             &opts.Quiet,
		"verbose":           &opts.Verbose,
	}
	for name, p := range bools {
		if c.IsSet(name) {
			*p = c.Bool(name)
		}
	}

	strs := map[string]*string{
		"palette":    &opts.Palette,
		"filter":     &opts.Filter,
		"image-ext":  &opts.ImageExt,
		"alpha-ext":  &opts.AlphaExt,
		"output-dir": &opts.OutputDir,
	}
	for name, p := range strs {
		if c.IsSet(name) {
			*p = c.String(name)
		}
	}

	if c.IsSet("tile-size") {
		opts.TileSize = c.Int("tile-size")
	}

	return opts, opts.Validate()
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if !c.Bool("quiet") || c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// newConverter returns a converter and a function to release it.
func newConverter(c *cli.Context) (*alpha2ds.Converter, func(), error) {
	opts, err := options(c)
	if err != nil {
		return nil, nil, err
	}

	var m alpha2ds.Manifest
	closer := func() {}
	if db := c.String("db"); db != "" {
		mdb, err := manifest.Open(db)
		if err != nil {
			return nil, nil, err
		}
		m = mdb
		closer = func() { mdb.Close() }
	}

	conv, err := alpha2ds.New(opts, newLogger(c), m)
	if err != nil {
		closer()
		return nil, nil, err
	}
	conv.Force(c.Bool("force"))

	return conv, closer, nil
}

func directory(c *cli.Context) string {
	if c.NArg() > 0 {
		return c.Args().First()
	}
	return "."
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func inspect(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	k, err := format.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}
	f, err := pixel.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	file, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer file.Close()

	if c.Bool("header") {
		h, err := format.DecodeConfig(file, k)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
		fmt.Fprintf(tw, "Length\t%d\n", h.Length)
		fmt.Fprintf(tw, "Width\t%d\n", h.Width)
		fmt.Fprintf(tw, "Height\t%d\n", h.Height)
		fmt.Fprintf(tw, "Config\t%#04x\n", h.Config)
		fmt.Fprintf(tw, "Compressed\t%t\n", h.Compressed())
		return tw.Flush()
	}

	var p *format.Payload
	if c.IsSet("size") {
		var w, h int
		if _, err := fmt.Sscanf(c.String("size"), "%dx%d", &w, &h); err != nil {
			return fmt.Errorf("parsing size %q: %w", c.String("size"), err)
		}
		p, err = format.DecodeRaw(file, k, w, h, c.Bool("rle"))
	} else {
		p, err = format.Decode(file, k)
	}
	if err != nil {
		return err
	}

	up, err := p.Uncompress()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "Kind\t%s\n", p.Kind)
	fmt.Fprintf(tw, "Width\t%d\n", p.Width)
	fmt.Fprintf(tw, "Height\t%d\n", p.Height)
	fmt.Fprintf(tw, "Config\t%#04x\n", p.Config)
	fmt.Fprintf(tw, "Compressed\t%t\n", p.Compressed())
	fmt.Fprintf(tw, "Length\t%d\n", p.Header().Length)
	fmt.Fprintf(tw, "Stored\t%d bytes\n", p.Size())
	fmt.Fprintf(tw, "Uncompressed\t%d bytes\n", up.Size())
	if err := tw.Flush(); err != nil {
		return err
	}

	out := c.String("png")
	if out == "" {
		return nil
	}

	var pal *palette.Builder
	if name := c.String("palette"); name != "" {
		b, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		pal = palette.New()
		if err := pal.UnmarshalBinary(b); err != nil {
			return err
		}
	}

	size := 0
	if c.Bool("tile") {
		size = c.Int("tile-size")
	}

	m, err := up.Image(f, pal, size)
	if err != nil {
		return err
	}

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(w, m); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func list(c *cli.Context) error {
	db, err := manifest.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if source := c.String("forget"); source != "" {
		return db.Forget(source)
	}

	entries, err := db.Entries()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tIMAGE\tWIDTH\tHEIGHT\tSIZE\tSTORED\tCOLORS\tCONVERTED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n", e.Source, e.Image, e.Width, e.Height, e.Size, e.Stored, e.Colors, e.Converted.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func preview(c *cli.Context) error {
	if c.NArg() < 1 || c.String("png") == "" {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := pixel.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	in, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer in.Close()

	m, _, err := image.Decode(in)
	if err != nil {
		return err
	}

	out, err := os.Create(c.String("png"))
	if err != nil {
		return err
	}
	if err := png.Encode(out, raster.Preview(m, f)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func main() {
	app := cli.NewApp()

	app.Name = "alpha2ds"
	app.Usage = "Convert images with alpha into embedded display formats"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"ALPHA2DS_CONFIG"},
			Value:   defaultConfig,
			Usage:   "path to TOML options file",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"ALPHA2DS_DB"},
			Usage:   "path to conversion manifest database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "print verbose information",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "quiet operation",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert every matching image in a directory",
			Description: "",
			ArgsUsage:   "[DIRECTORY]",
			Flags:       convertFlags,
			Action: func(c *cli.Context) error {
				conv, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				ctx, cancel := signalContext()
				defer cancel()

				if err := conv.Run(ctx, directory(c)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "watch",
			Usage:       "Convert matching images as they change",
			Description: "",
			ArgsUsage:   "[DIRECTORY]",
			Flags: append([]cli.Flag{
				&cli.DurationFlag{
					Name:  "delay",
					Value: alpha2ds.DefaultDelay,
					Usage: "quiet period before a changed image is converted",
				},
			}, convertFlags...),
			Action: func(c *cli.Context) error {
				conv, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				ctx, cancel := signalContext()
				defer cancel()

				if err := conv.Watch(ctx, directory(c), c.Duration("delay")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "inspect",
			Usage:       "Describe an output file",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kind",
					Aliases: []string{"k"},
					Value:   format.Color16.String(),
					Usage:   "kind of file: 1bit, 4bit, 8bit, 16bit, 444 or alpha",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"F"},
					Value:   pixel.FormatRGB555.String(),
					Usage:   "16-bit color format",
				},
				&cli.BoolFlag{
					Name:  "header",
					Usage: "print the header only",
				},
				&cli.StringFlag{
					Name:  "size",
					Usage: "WIDTHxHEIGHT of a file without a header",
				},
				&cli.BoolFlag{
					Name:    "rle",
					Aliases: []string{"r"},
					Usage:   "file without a header is compressed",
				},
				&cli.BoolFlag{
					Name:    "tile",
					Aliases: []string{"t"},
					Usage:   "data is tiled",
				},
				&cli.IntFlag{
					Name:    "tile-size",
					Aliases: []string{"d"},
					Value:   8,
					Usage:   "tile size",
				},
				&cli.StringFlag{
					Name:    "palette",
					Aliases: []string{"p"},
					Usage:   "palette file for 8-bit files",
				},
				&cli.StringFlag{
					Name:  "png",
					Usage: "write the decoded image to this PNG file",
				},
			},
			Action: func(c *cli.Context) error {
				if err := inspect(c); err != nil {
					return cli.NewExitError(err, 1)
				}
				return nil
			},
		},
		{
			Name:        "preview",
			Usage:       "Show how a source image looks in a 16-bit format",
			Description: "",
			ArgsUsage:   "SOURCE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"F"},
					Value:   pixel.FormatRGB555.String(),
					Usage:   "16-bit color format",
				},
				&cli.StringFlag{
					Name:  "png",
					Usage: "PNG file to write",
				},
			},
			Action: func(c *cli.Context) error {
				if err := preview(c); err != nil {
					return cli.NewExitError(err, 1)
				}
				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List the conversion manifest",
			Description: "",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "forget",
					Usage: "remove the entry for this source instead of listing",
				},
			},
			Action: func(c *cli.Context) error {
				if c.String("db") == "" {
					return cli.NewExitError("no manifest database given", 1)
				}
				if err := list(c); err != nil {
					return cli.NewExitError(err, 1)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
