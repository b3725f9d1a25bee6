// Package session runs the interactive loop: window events, the console,
// playback timing, recording and presentation.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/richinsley/goglitch/command"
	"github.com/richinsley/goglitch/console"
	"github.com/richinsley/goglitch/encoder"
	"github.com/richinsley/goglitch/filters"
	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/logger"
	"github.com/richinsley/goglitch/renderer"
	"golang.org/x/exp/rand"
)

// DefaultFPS is the playback rate when none is configured.
const DefaultFPS = 10

// Output receives user-facing text.
type Output interface {
	AddOutput(text string)
}

// Encoder runs encodes in the background and posts their results.
type Encoder interface {
	Start(job encoder.Job) error
	Results() <-chan encoder.Result
}

// Watcher reports changed user filter files.
type Watcher interface {
	Changes() <-chan string
	Errors() <-chan error
}

// Config holds the session settings.
type Config struct {
	FPS            float64
	RecordDir      string
	ScreenshotPath string
	FilterDir      string
	GLES           bool
	// Atlas is the console font; nil uses the built-in one.
	Atlas     *console.Atlas
	Clipboard console.Clipboard
	Encoder   Encoder
	Watcher   Watcher
	// Delay is slept between ticks by Run.
	Delay time.Duration
}

// Session owns the per-window state. All methods run on the thread that owns
// the GL context.
type Session struct {
	ctx       graphics.Context
	dev       graphics.Device
	engine    *renderer.Engine
	library   *filters.Library
	presenter *renderer.Presenter
	interp    *command.Interpreter
	console   *console.Console
	text      *console.Renderer
	atlas     *console.Atlas
	recorder  *Recorder
	cfg       Config

	view      View
	viewport  graphics.Size
	playing   bool
	consoleOn bool
	fps       float64
	lastTick  float64
	quit      bool
}

var _ command.Controls = (*Session)(nil)

// New creates a session presenting engine's output into ctx.
func New(ctx graphics.Context, dev graphics.Device, engine *renderer.Engine, library *filters.Library, rng *rand.Rand, cfg Config) (*Session, error) {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.RecordDir == "" {
		cfg.RecordDir = "record"
	}
	if cfg.Atlas == nil {
		cfg.Atlas = console.DefaultAtlas()
	}
	if cfg.Delay == 0 {
		cfg.Delay = 10 * time.Millisecond
	}

	presenter, err := renderer.NewPresenter(dev, cfg.GLES)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	s := &Session{
		ctx:       ctx,
		dev:       dev,
		engine:    engine,
		library:   library,
		presenter: presenter,
		console:   console.New(),
		atlas:     cfg.Atlas,
		recorder:  NewRecorder(cfg.RecordDir),
		cfg:       cfg,
		view:      NewView(),
		fps:       cfg.FPS,
		lastTick:  ctx.Time(),
	}
	s.interp = command.New(engine, library, s, s.console, rng, command.Config{
		ScreenshotPath: cfg.ScreenshotPath,
		FilterDir:      cfg.FilterDir,
		Apply:          s.apply,
	})
	w, h := ctx.GetFramebufferSize()
	s.viewport = graphics.Size{Width: w, Height: h}
	return s, nil
}

func (s *Session) Console() *console.Console { return s.console }

func (s *Session) View() View { return s.view }

func (s *Session) Playing() bool { return s.playing }

func (s *Session) FPS() float64 { return s.fps }

func (s *Session) Recorder() *Recorder { return s.recorder }

func (s *Session) ConsoleVisible() bool { return s.consoleOn }

// SetPlaying starts or stops playback. Starting resets the tick clock.
func (s *Session) SetPlaying(playing bool) {
	if playing && !s.playing {
		s.lastTick = s.ctx.Time()
	}
	s.playing = playing
}

func (s *Session) StartRecording(frames int) { s.recorder.Start(frames) }

func (s *Session) StopRecording() bool { return s.recorder.Stop() }

func (s *Session) SetFPS(fps float64) { s.fps = fps }

func (s *Session) ResetView() { s.view.Reset() }

// Encode starts encoding the latest recording into output.
func (s *Session) Encode(output string) error {
	if s.cfg.Encoder == nil {
		return errors.New("encoding is not available")
	}
	if s.recorder.Active() {
		return errors.New("recording in progress")
	}
	return s.cfg.Encoder.Start(encoder.Job{
		Dir:    s.recorder.Dir(),
		Frames: s.recorder.Recorded(),
		FPS:    s.fps,
		Output: output,
	})
}

// Execute runs a command line as if it was typed into the console.
func (s *Session) Execute(line string) command.Result {
	s.console.AddOutput(console.Prompt + line)
	res := s.interp.Execute(line)
	s.apply(res)
	return res
}

// Run renders the initial frame and steps until the window is closed.
func (s *Session) Run() {
	s.update(false)
	s.redraw()
	for s.Step() {
		time.Sleep(s.cfg.Delay)
	}
}

// Step handles one tick and reports whether the loop should continue.
func (s *Session) Step() bool {
	res := s.drain()
	res = res.Or(s.handleEvents())
	if s.quit || s.ctx.ShouldClose() {
		return false
	}

	now := s.ctx.Time()
	if s.playing && (now-s.lastTick)*1000 >= 1000/s.fps {
		s.lastTick = now
		s.update(true)
		s.redraw()
		return true
	}
	s.apply(res)
	return true
}

func (s *Session) apply(res command.Result) {
	if res.Rerun {
		s.update(res.Advance)
	}
	if res.Redraw {
		s.redraw()
	}
}

// drain collects what background helpers posted since the last tick.
func (s *Session) drain() command.Result {
	var res command.Result
	if s.cfg.Encoder != nil {
	encodes:
		for {
			select {
			case r := <-s.cfg.Encoder.Results():
				if r.Err != nil {
					s.console.AddOutput(fmt.Sprintf("Could not encode %s: %v", r.Output, r.Err))
				} else {
					s.console.AddOutput(fmt.Sprintf("Encoded %s.", r.Output))
				}
				res.Redraw = true
			default:
				break encodes
			}
		}
	}
	if s.cfg.Watcher != nil {
	changes:
		for {
			select {
			case path := <-s.cfg.Watcher.Changes():
				res = res.Or(s.reloadFilter(path))
			case err := <-s.cfg.Watcher.Errors():
				logger.Warn("filter watcher: %v", err)
			default:
				break changes
			}
		}
	}
	return res
}

func (s *Session) reloadFilter(path string) command.Result {
	desc, err := filters.LoadFile(path)
	if err != nil {
		logger.Warn("%v", err)
		return command.Result{}
	}
	if _, err := s.library.Load([]filters.Descriptor{desc}); err != nil {
		logger.Error("%v", err)
		s.console.AddOutput(err.Error())
		return command.Result{Redraw: true}
	}
	logger.Info("reloaded filter %s", desc.Name)
	s.console.AddOutput(fmt.Sprintf("Reloaded filter %s.", desc.Name))
	return command.Result{Rerun: true, Redraw: true}
}

func (s *Session) handleEvents() command.Result {
	var res command.Result
	for _, ev := range s.ctx.PollEvents() {
		switch ev.Kind {
		case graphics.EventClose:
			s.quit = true
		case graphics.EventResize:
			s.viewport = graphics.Size{Width: ev.Width, Height: ev.Height}
			res.Redraw = true
		case graphics.EventExpose:
			res.Redraw = true
		case graphics.EventTextInput:
			if s.consoleOn {
				res = res.Or(s.feed(ev.Text))
			}
		case graphics.EventKeyDown:
			res = res.Or(s.handleKey(ev))
		}
		if s.quit {
			break
		}
	}
	return res
}

func (s *Session) handleKey(ev graphics.Event) command.Result {
	switch ev.Key {
	case graphics.KeyEscape:
		s.quit = true
		return command.Result{}
	case graphics.KeyBacktick:
		s.toggleConsole()
		return command.Result{Redraw: true}
	}

	if s.consoleOn {
		switch ev.Key {
		case graphics.KeyBackspace:
			s.console.Backspace()
			return command.Result{Redraw: true}
		case graphics.KeyEnter:
			return s.feed("\n")
		case graphics.KeyV:
			if ev.Mods&(graphics.ModControl|graphics.ModSuper) != 0 && s.cfg.Clipboard != nil {
				if text, ok := s.cfg.Clipboard.ReadText(); ok {
					return s.feed(text)
				}
			}
		}
		return command.Result{}
	}

	switch ev.Key {
	case graphics.KeyUp:
		s.view.Pan(0, -PanStep)
	case graphics.KeyDown:
		s.view.Pan(0, PanStep)
	case graphics.KeyLeft:
		s.view.Pan(PanStep, 0)
	case graphics.KeyRight:
		s.view.Pan(-PanStep, 0)
	case graphics.KeyEqual:
		s.view.ZoomBy(ZoomStep)
	case graphics.KeyMinus:
		s.view.ZoomBy(-ZoomStep)
	case graphics.KeyA:
		s.SetPlaying(true)
		return command.Result{Rerun: true, Redraw: true}
	case graphics.KeyS:
		s.SetPlaying(false)
		return command.Result{Rerun: true, Redraw: true}
	case graphics.KeyR:
		s.engine.Shuffle(s.library.Rand())
		return command.Result{Rerun: true, Redraw: true}
	default:
		return command.Result{}
	}
	return command.Result{Redraw: true}
}

// feed types text into the console and runs every completed line.
func (s *Session) feed(text string) command.Result {
	res := command.Result{Redraw: true}
	for _, line := range s.console.ParseInput(text) {
		res = res.Or(s.interp.Execute(line))
	}
	return res
}

func (s *Session) toggleConsole() {
	if s.consoleOn {
		s.consoleOn = false
		return
	}
	if s.text == nil {
		r, err := console.NewRenderer(s.dev, s.atlas, s.cfg.GLES)
		if err != nil {
			logger.Error("failed to create console renderer: %v", err)
			return
		}
		s.text = r
	}
	s.consoleOn = true
}

// update runs the chain and captures the result when recording.
func (s *Session) update(advance bool) {
	if !s.engine.HasImage() {
		return
	}
	s.engine.Run(advance)
	if !advance || !s.recorder.Active() {
		return
	}
	img, err := s.engine.ReadFinal()
	if err == nil {
		err = s.recorder.Capture(img, s.console)
	}
	if err != nil {
		logger.Error("recording: %v", err)
		s.console.AddOutput(fmt.Sprintf("Recording failed: %v", err))
	}
}

func (s *Session) redraw() {
	if s.engine.HasImage() {
		_, tex := s.engine.Final()
		s.presenter.Render(s.dev, tex, s.view.PanX, s.view.PanY, s.view.Zoom, s.viewport, s.engine.Size())
	} else {
		s.dev.BindFramebuffer(0)
		s.dev.Viewport(s.viewport.Width, s.viewport.Height)
		s.dev.Clear()
	}
	if s.consoleOn {
		s.text.Render(s.dev, s.console, s.viewport)
	}
	s.ctx.SwapBuffers()
}

// Close releases what the session created. The engine and library belong to
// the caller.
func (s *Session) Close() {
	s.presenter.Cleanup(s.dev)
	if s.text != nil {
		s.text.Cleanup(s.dev)
	}
}
