package main

import (
	"errors"
	"flag"
	"image"
	"os"
	"runtime"
	"time"

	"github.com/richinsley/goglitch/console"
	"github.com/richinsley/goglitch/encoder"
	"github.com/richinsley/goglitch/filters"
	"github.com/richinsley/goglitch/gldevice"
	"github.com/richinsley/goglitch/glfwcontext"
	"github.com/richinsley/goglitch/imageio"
	"github.com/richinsley/goglitch/logger"
	"github.com/richinsley/goglitch/options"
	"github.com/richinsley/goglitch/renderer"
	"github.com/richinsley/goglitch/session"
	"github.com/richinsley/goglitch/translator"
	"golang.org/x/exp/rand"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	opts, err := options.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatal("%v", err)
	}
	logger.SetLevel(opts.LogLevel)

	// Decode before creating the window so a bad path fails fast.
	var img *image.RGBA
	if opts.Image != "" {
		img, err = imageio.Open(opts.Image)
		if err != nil {
			logger.Fatal("%v", err)
		}
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		logger.Fatal("Failed to initialize GLFW: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	ctx, err := glfwcontext.New(opts.Width, opts.Height, "goglitch", opts.GLES)
	if err != nil {
		logger.Fatal("Failed to create window: %v", err)
	}
	defer ctx.Shutdown()
	ctx.MakeCurrent()

	dev, err := gldevice.New(opts.GLES)
	if err != nil {
		logger.Fatal("%v", err)
	}
	logger.Info("OpenGL %s", dev.Version())

	tr, err := translator.GetTranslator()
	if err != nil {
		logger.Fatal("Failed to start shader translator: %v", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Debug("random seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	lib, err := filters.NewLibrary(dev, tr, opts.GLES, filters.BuiltinRegistry(), rng)
	if err != nil {
		logger.Fatal("%v", err)
	}
	defer lib.Cleanup()
	if opts.FilterDir != "" {
		loadUserFilters(lib, opts.FilterDir)
	}
	logger.Info("compiled %d filters", len(lib.Names()))

	eng := renderer.NewEngine(dev, lib)
	defer eng.Release()
	if img != nil {
		if err := eng.BindImage(img); err != nil {
			logger.Fatal("Failed to bind %s: %v", opts.Image, err)
		}
	}
	if err := eng.SetChain(opts.Filters); err != nil {
		logger.Fatal("%v", err)
	}

	cfg := session.Config{
		FPS:            opts.FPS,
		RecordDir:      opts.RecordDir,
		ScreenshotPath: opts.Screenshot,
		FilterDir:      opts.FilterDir,
		GLES:           opts.GLES,
		Clipboard:      &console.SystemClipboard{},
		Encoder:        encoder.New(opts.FFmpeg, opts.Codec),
	}
	if opts.Font != "" {
		atlas, err := console.LoadAtlas(opts.Font)
		if err != nil {
			logger.Fatal("Failed to load font: %v", err)
		}
		cfg.Atlas = atlas
	}
	if opts.Watch {
		w, err := filters.NewWatcher(opts.FilterDir)
		if err != nil {
			logger.Warn("not watching %s: %v", opts.FilterDir, err)
		} else {
			defer w.Close()
			cfg.Watcher = w
		}
	}

	s, err := session.New(ctx, dev, eng, lib, rng, cfg)
	if err != nil {
		logger.Fatal("%v", err)
	}
	defer s.Close()

	logger.Info("Starting interactive loop. Press ` for the console.")
	s.Run()
}

// loadUserFilters compiles the .frag files in dir. A filter that fails is
// logged and left out.
func loadUserFilters(lib *filters.Library, dir string) {
	descs, err := filters.LoadDir(dir)
	if err != nil {
		logger.Warn("%v", err)
		return
	}
	loaded, err := lib.Load(descs)
	if err != nil {
		logger.Warn("%v", err)
	}
	logger.Info("loaded %d user filters from %s", len(loaded), dir)
}
