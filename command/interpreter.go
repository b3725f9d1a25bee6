// Package command interprets the console's one-line commands against the
// filter chain and the session controls.
package command

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/richinsley/goglitch/filters"
	"github.com/richinsley/goglitch/imageio"
	"github.com/richinsley/goglitch/logger"
	"github.com/richinsley/goglitch/renderer"
	"golang.org/x/exp/rand"
)

// Result tells the caller what a command changed.
type Result struct {
	// Rerun means the chain must be drawn again.
	Rerun bool
	// Redraw means the window must be presented again.
	Redraw bool
	// Advance means the rerun should move the frame counter on.
	Advance bool
}

// Or merges two results.
func (r Result) Or(o Result) Result {
	return Result{Rerun: r.Rerun || o.Rerun, Redraw: r.Redraw || o.Redraw, Advance: r.Advance || o.Advance}
}

var redrawOnly = Result{Redraw: true}

// Output receives user-facing text.
type Output interface {
	AddOutput(text string)
	Clear()
}

// Chain is the pipeline state commands operate on.
type Chain interface {
	Append(name string) (renderer.Entry, error)
	Swap(i, j int) error
	Remove(i int) error
	// IndexOf returns the position of the entry with id, or -1.
	IndexOf(id uuid.UUID) int
	Clear()
	Shuffle(r *rand.Rand)
	Chain() []renderer.Entry
	Len() int
	BindImage(img *image.RGBA) error
	ReadFinal() (*image.RGBA, error)
}

// Catalog is the set of effects that can be added.
type Catalog interface {
	Names() []string
	Has(name string) bool
	Load(descs []filters.Descriptor) ([]string, error)
}

// Controls are the session settings commands may change.
type Controls interface {
	SetPlaying(playing bool)
	StartRecording(frames int)
	// StopRecording cancels a recording and reports whether one was active.
	StopRecording() bool
	SetFPS(fps float64)
	ResetView()
	// Encode starts turning the recorded frames into a video file.
	Encode(output string) error
}

// Config holds the paths commands read and write.
type Config struct {
	ScreenshotPath string
	FilterDir      string
	// Apply, when set, is called with the result of every command a script
	// runs before the script continues.
	Apply          func(Result)
}

// maxScriptDepth bounds scripts running scripts.
const maxScriptDepth = 8

// Interpreter executes command lines. Every failure is reported on Output
// and leaves the state it would have changed untouched.
type Interpreter struct {
	chain    Chain
	catalog  Catalog
	controls Controls
	out      Output
	rng      *rand.Rand
	cfg      Config
	depth    int
}

func New(chain Chain, catalog Catalog, controls Controls, out Output, rng *rand.Rand, cfg Config) *Interpreter {
	if cfg.ScreenshotPath == "" {
		cfg.ScreenshotPath = "out.png"
	}
	return &Interpreter{
		chain:    chain,
		catalog:  catalog,
		controls: controls,
		out:      out,
		rng:      rng,
		cfg:      cfg,
	}
}

// Execute runs one line.
func (in *Interpreter) Execute(line string) Result {
	cmd, err := Parse(line)
	if err != nil {
		logger.Debug("%v", err)
		in.out.AddOutput("Command not recognized.")
		return redrawOnly
	}

	switch cmd.Name {
	case "":
		return redrawOnly
	case "clear":
		in.out.Clear()
		return redrawOnly
	case "shuffle":
		in.chain.Shuffle(in.rng)
		in.out.AddOutput("Filter order shuffled.")
		return Result{Rerun: true, Redraw: true}
	case "all":
		in.out.AddOutput(strings.Join(in.catalog.Names(), "\n"))
		return redrawOnly
	case "help":
		in.out.AddOutput(helpText)
		return redrawOnly
	case "echo":
		in.out.AddOutput(cmd.Arg)
		return redrawOnly
	case "add":
		return in.add(cmd.Arg)
	case "mov":
		return in.mov(cmd.Arg)
	case "load":
		return in.load(cmd.Arg)
	case "record":
		return in.record(cmd.Arg)
	case "rem":
		return in.rem(cmd.Arg)
	case "list":
		return in.list(cmd.Arg)
	case "next":
		in.out.AddOutput("Success.")
		return Result{Rerun: true, Redraw: true, Advance: true}
	case "play":
		in.controls.SetPlaying(true)
		in.out.AddOutput("Success. Playing: true")
		return redrawOnly
	case "stop":
		in.controls.SetPlaying(false)
		in.out.AddOutput("Success. Playing: false")
		return redrawOnly
	case "screenshot":
		return in.screenshot()
	case "encode":
		return in.encode(cmd.Arg)
	case "run":
		return in.run(cmd.Arg)
	case "fps":
		return in.fps(cmd.Arg)
	case "reset":
		in.controls.ResetView()
		in.out.AddOutput("View reset.")
		return redrawOnly
	case "reload":
		return in.reload()
	}
	in.out.AddOutput("Command not recognized.")
	return redrawOnly
}

func (in *Interpreter) add(name string) Result {
	if name == "" {
		in.out.AddOutput("Usage: add <filter>")
		return redrawOnly
	}
	if _, err := in.chain.Append(name); err != nil {
		var ufe *filters.UnknownFilterError
		if errors.As(err, &ufe) {
			in.out.AddOutput(fmt.Sprintf("Could not find filter %s.", name))
		} else {
			in.out.AddOutput(err.Error())
		}
		return redrawOnly
	}
	in.out.AddOutput(fmt.Sprintf("Success adding filter %s.", name))
	return Result{Rerun: true, Redraw: true}
}

func (in *Interpreter) mov(arg string) Result {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		in.out.AddOutput("Failed to parse int!")
		return redrawOnly
	}
	i, err := parseInt(fields[0])
	if err != nil {
		in.out.AddOutput("Failed to parse int!")
		return redrawOnly
	}
	j, err := parseInt(fields[1])
	if err != nil {
		in.out.AddOutput("Failed to parse int!")
		return redrawOnly
	}

	n := in.chain.Len()
	bad := false
	if i < 0 || i >= n {
		in.out.AddOutput("Target x is out of bounds!")
		bad = true
	}
	if j < 0 || j >= n {
		in.out.AddOutput("Target y is out of bounds!")
		bad = true
	}
	if bad {
		return redrawOnly
	}

	in.out.AddOutput(fmt.Sprintf("Success, switched %d and %d.", i, j))
	if i == j {
		return redrawOnly
	}
	if err := in.chain.Swap(i, j); err != nil {
		in.out.AddOutput(err.Error())
		return redrawOnly
	}
	return Result{Rerun: true, Redraw: true}
}

func (in *Interpreter) load(path string) Result {
	if path == "" {
		in.out.AddOutput("Usage: load <path>")
		return redrawOnly
	}
	img, err := imageio.Open(path)
	if err != nil {
		logger.Warn("%v", err)
		in.out.AddOutput(fmt.Sprintf("Could not load image %s", path))
		return redrawOnly
	}
	if err := in.chain.BindImage(img); err != nil {
		logger.Error("failed to bind %s: %v", path, err)
		in.out.AddOutput(fmt.Sprintf("Could not bind image %s: %v", path, err))
		return redrawOnly
	}
	in.out.AddOutput(fmt.Sprintf("Success, loaded image %s", path))
	return Result{Rerun: true, Redraw: true}
}

func (in *Interpreter) record(arg string) Result {
	if strings.TrimSpace(arg) == "stop" {
		if in.controls.StopRecording() {
			in.out.AddOutput("Recording stopped.")
		} else {
			in.out.AddOutput("Not recording.")
		}
		return redrawOnly
	}
	n, err := parseInt(arg)
	if err != nil {
		in.out.AddOutput("Failed to parse int")
		return redrawOnly
	}
	if n <= 0 {
		in.out.AddOutput("Frame count must be positive.")
		return redrawOnly
	}
	in.controls.StartRecording(n)
	in.out.AddOutput(fmt.Sprintf("Recording %d frames.", n))
	return redrawOnly
}

func (in *Interpreter) rem(arg string) Result {
	if strings.TrimSpace(arg) == "all" {
		in.chain.Clear()
		in.out.AddOutput("Success.")
		return Result{Rerun: true, Redraw: true}
	}
	i, err := parseInt(arg)
	if err != nil {
		id, uerr := uuid.Parse(strings.TrimSpace(arg))
		if uerr != nil {
			in.out.AddOutput("Could not parse int!")
			return redrawOnly
		}
		if i = in.chain.IndexOf(id); i < 0 {
			in.out.AddOutput(fmt.Sprintf("No filter has id %s.", id))
			return redrawOnly
		}
	}
	if err := in.chain.Remove(i); err != nil {
		in.out.AddOutput("That index is out of bounds!")
		return redrawOnly
	}
	in.out.AddOutput("Success.")
	return Result{Rerun: true, Redraw: true}
}

// list prints each chain position, with the entry IDs when asked for.
func (in *Interpreter) list(arg string) Result {
	withIDs := strings.TrimSpace(arg) == "ids"
	for i, entry := range in.chain.Chain() {
		if withIDs {
			in.out.AddOutput(fmt.Sprintf("%d %s %s", i, entry.Name(), entry.ID))
		} else {
			in.out.AddOutput(fmt.Sprintf("%d %s", i, entry.Name()))
		}
	}
	return redrawOnly
}

func (in *Interpreter) screenshot() Result {
	img, err := in.chain.ReadFinal()
	if err == nil {
		err = imageio.Save(in.cfg.ScreenshotPath, img)
	}
	if err != nil {
		logger.Error("screenshot failed: %v", err)
		in.out.AddOutput(fmt.Sprintf("Could not save %s: %v", in.cfg.ScreenshotPath, err))
		return redrawOnly
	}
	in.out.AddOutput(fmt.Sprintf("Success, saved %s.", in.cfg.ScreenshotPath))
	return redrawOnly
}

func (in *Interpreter) encode(output string) Result {
	if output == "" {
		in.out.AddOutput("Usage: encode <file>")
		return redrawOnly
	}
	if err := in.controls.Encode(output); err != nil {
		in.out.AddOutput(fmt.Sprintf("Could not encode %s: %v", output, err))
		return redrawOnly
	}
	in.out.AddOutput(fmt.Sprintf("Encoding %s...", output))
	return redrawOnly
}

func (in *Interpreter) fps(arg string) Result {
	f, err := parseFloat(arg)
	if err != nil {
		in.out.AddOutput("Failed to parse number")
		return redrawOnly
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		in.out.AddOutput("Rate must be a positive number.")
		return redrawOnly
	}
	in.controls.SetFPS(f)
	in.out.AddOutput(fmt.Sprintf("Playback rate set to %g fps.", f))
	return redrawOnly
}

func (in *Interpreter) reload() Result {
	if in.cfg.FilterDir == "" {
		in.out.AddOutput("No filter directory configured.")
		return redrawOnly
	}
	descs, err := filters.LoadDir(in.cfg.FilterDir)
	if err != nil {
		in.out.AddOutput(err.Error())
		return redrawOnly
	}
	loaded, err := in.catalog.Load(descs)
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			in.out.AddOutput(line)
		}
	}
	in.out.AddOutput(fmt.Sprintf("Reloaded %d filters.", len(loaded)))
	return Result{Rerun: len(loaded) > 0, Redraw: true}
}
