// Package options holds the startup settings. Values come from defaults, then
// an optional TOML file, then command-line flags.
package options

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

type Options struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	FPS    float64 `toml:"fps"`
	// Image is opened at startup. It may be empty.
	Image string `toml:"image"`
	// Filters is the initial chain.
	Filters    []string `toml:"filters"`
	RecordDir  string   `toml:"record_dir"`
	Screenshot string   `toml:"screenshot"`
	// Font is a 16x16 glyph atlas image or a BMFont .fnt file.
	Font      string `toml:"font"`
	FilterDir string `toml:"filter_dir"`
	// Watch recompiles files in FilterDir when they change.
	Watch    bool   `toml:"watch"`
	LogLevel string `toml:"log_level"`
	GLES     bool   `toml:"gles"`
	FFmpeg   string `toml:"ffmpeg"`
	Codec    string `toml:"codec"`
	// Seed drives shuffles and the effects' random input. Zero picks one
	// from the clock.
	Seed uint64 `toml:"seed"`
}

func Default() Options {
	return Options{
		Width:      1280,
		Height:     720,
		FPS:        10,
		RecordDir:  "record",
		Screenshot: "out.png",
		LogLevel:   "info",
		Codec:      "h264",
	}
}

// LoadFile merges the TOML file at path into o. Unknown keys are an error.
func LoadFile(path string, o *Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(o); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config %s: %s", path, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			return fmt.Errorf("config %s: %s", path, decodeErr.String())
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (o *Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", o.Width, o.Height)
	}
	if o.FPS <= 0 || math.IsNaN(o.FPS) || math.IsInf(o.FPS, 0) {
		return fmt.Errorf("invalid fps %g", o.FPS)
	}
	if _, err := log.ParseLevel(strings.ToLower(o.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", o.LogLevel)
	}
	switch o.Codec {
	case "h264", "hevc":
	default:
		return fmt.Errorf("invalid codec %q", o.Codec)
	}
	if o.Watch && o.FilterDir == "" {
		return errors.New("watch needs a filter directory")
	}
	return nil
}

// Parse builds Options from args (without the program name). A -config file
// is applied first; flags given explicitly override it. The first positional
// argument, if any, is the image.
func Parse(args []string) (*Options, error) {
	o := Default()
	f := Default()

	fs := flag.NewFlagSet("goglitch", flag.ContinueOnError)
	config := fs.String("config", "", "TOML config file")
	fs.IntVar(&f.Width, "width", f.Width, "window width")
	fs.IntVar(&f.Height, "height", f.Height, "window height")
	fs.Float64Var(&f.FPS, "fps", f.FPS, "playback rate")
	fs.StringVar(&f.Image, "image", f.Image, "image to open")
	chain := fs.String("filters", "", "comma-separated initial filter chain")
	fs.StringVar(&f.RecordDir, "record-dir", f.RecordDir, "directory recorded frames are saved to")
	fs.StringVar(&f.Screenshot, "screenshot", f.Screenshot, "screenshot file")
	fs.StringVar(&f.Font, "font", f.Font, "console font atlas (image or .fnt)")
	fs.StringVar(&f.FilterDir, "filter-dir", f.FilterDir, "directory of user .frag filters")
	fs.BoolVar(&f.Watch, "watch", f.Watch, "recompile user filters when they change")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&f.GLES, "gles", f.GLES, "use an OpenGL ES 3.0 context")
	fs.StringVar(&f.FFmpeg, "ffmpeg", f.FFmpeg, "path to the ffmpeg executable")
	fs.StringVar(&f.Codec, "codec", f.Codec, "video codec for encode: h264 or hevc")
	fs.Uint64Var(&f.Seed, "seed", f.Seed, "random seed, 0 for the clock")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *config != "" {
		if err := LoadFile(*config, &o); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "width":
			o.Width = f.Width
		case "height":
			o.Height = f.Height
		case "fps":
			o.FPS = f.FPS
		case "image":
			o.Image = f.Image
		case "filters":
			o.Filters = splitList(*chain)
		case "record-dir":
			o.RecordDir = f.RecordDir
		case "screenshot":
			o.Screenshot = f.Screenshot
		case "font":
			o.Font = f.Font
		case "filter-dir":
			o.FilterDir = f.FilterDir
		case "watch":
			o.Watch = f.Watch
		case "log-level":
			o.LogLevel = f.LogLevel
		case "gles":
			o.GLES = f.GLES
		case "ffmpeg":
			o.FFmpeg = f.FFmpeg
		case "codec":
			o.Codec = f.Codec
		case "seed":
			o.Seed = f.Seed
		}
	})
	if fs.NArg() > 0 {
		o.Image = fs.Arg(0)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
