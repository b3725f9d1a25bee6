package session

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/richinsley/goglitch/encoder"
	"github.com/richinsley/goglitch/filters"
	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/graphics/gputest"
	"github.com/richinsley/goglitch/imageio"
	"github.com/richinsley/goglitch/renderer"
	"github.com/richinsley/goglitch/translator"
	"golang.org/x/exp/rand"
)

type fakeContext struct {
	now    float64
	events [][]graphics.Event
	swaps  int
	closed bool
	width  int
	height int
}

func (c *fakeContext) MakeCurrent()                   {}
func (c *fakeContext) Shutdown()                      {}
func (c *fakeContext) ShouldClose() bool              { return c.closed }
func (c *fakeContext) SwapBuffers()                   { c.swaps++ }
func (c *fakeContext) GetFramebufferSize() (int, int) { return c.width, c.height }
func (c *fakeContext) Time() float64                  { return c.now }

func (c *fakeContext) PollEvents() []graphics.Event {
	if len(c.events) == 0 {
		return nil
	}
	ev := c.events[0]
	c.events = c.events[1:]
	return ev
}

// push queues events delivered together by the next poll.
func (c *fakeContext) push(evs ...graphics.Event) {
	c.events = append(c.events, evs)
}

func key(k graphics.Key) graphics.Event {
	return graphics.Event{Kind: graphics.EventKeyDown, Key: k}
}

func text(s string) graphics.Event {
	return graphics.Event{Kind: graphics.EventTextInput, Text: s}
}

type fakeClipboard string

func (c fakeClipboard) ReadText() (string, bool) { return string(c), c != "" }

type fakeEncoder struct {
	jobs    []encoder.Job
	results chan encoder.Result
}

func (e *fakeEncoder) Start(job encoder.Job) error {
	e.jobs = append(e.jobs, job)
	return nil
}

func (e *fakeEncoder) Results() <-chan encoder.Result { return e.results }

type fakeWatcher struct {
	changes chan string
	errors  chan error
}

func (w *fakeWatcher) Changes() <-chan string { return w.changes }
func (w *fakeWatcher) Errors() <-chan error   { return w.errors }

type fixture struct {
	s      *Session
	ctx    *fakeContext
	dev    *gputest.Device
	engine *renderer.Engine
	lib    *filters.Library
	dir    string
}

func newFixture(t *testing.T, bind bool, mutate func(*Config)) *fixture {
	t.Helper()
	dev := gputest.New()
	rng := rand.New(rand.NewSource(3))
	lib, err := filters.NewLibrary(dev, translator.Passthrough{}, false, filters.BuiltinRegistry(), rng)
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	eng := renderer.NewEngine(dev, lib)
	if bind {
		img := image.NewRGBA(image.Rect(0, 0, 4, 2))
		img.SetRGBA(1, 0, color.RGBA{10, 20, 30, 255})
		if err := eng.BindImage(img); err != nil {
			t.Fatalf("bind: %v", err)
		}
	}

	dir := t.TempDir()
	cfg := Config{
		FPS:            10,
		RecordDir:      filepath.Join(dir, "record"),
		ScreenshotPath: filepath.Join(dir, "out.png"),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	ctx := &fakeContext{width: 320, height: 240}
	s, err := New(ctx, dev, eng, lib, rng, cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return &fixture{s: s, ctx: ctx, dev: dev, engine: eng, lib: lib, dir: dir}
}

func (f *fixture) output() []string { return f.s.Console().Output() }

func (f *fixture) hasOutput(line string) bool { return slices.Contains(f.output(), line) }

func TestRecordThreeFrames(t *testing.T) {
	f := newFixture(t, true, nil)
	f.s.Execute("add second")
	f.s.Execute("record 3")
	if !f.s.Recorder().Active() {
		t.Fatalf("recorder not active")
	}

	for i := 0; i < 3; i++ {
		f.s.Execute("next")
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(f.s.Recorder().FramePath(i)); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if f.s.Recorder().Active() {
		t.Fatalf("recorder still active after three frames")
	}
	if !f.hasOutput("Saved frame 3/3") || !f.hasOutput("Done recording") {
		t.Fatalf("output = %q", f.output())
	}

	f.s.Execute("next")
	if _, err := os.Stat(f.s.Recorder().FramePath(3)); !os.IsNotExist(err) {
		t.Fatalf("fourth update captured a frame: %v", err)
	}

	got, err := imageio.Open(f.s.Recorder().FramePath(0))
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	if got.Bounds().Dx() != 4 || got.RGBAAt(1, 0) != (color.RGBA{10, 20, 30, 255}) {
		t.Fatalf("frame does not hold the chain output")
	}
}

func TestRecordFromScript(t *testing.T) {
	f := newFixture(t, true, nil)
	script := filepath.Join(f.dir, "record.lua")
	src := `command("record 3")
for i = 1, 3 do command("next") end
command("screenshot")`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	f.s.Execute("run " + script)

	if f.engine.Frame() != 3 {
		t.Fatalf("frame = %d, want 3", f.engine.Frame())
	}
	if f.s.Recorder().Active() {
		t.Fatalf("recorder still active")
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(f.s.Recorder().FramePath(i)); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if _, err := os.Stat(filepath.Join(f.dir, "out.png")); err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	if f.ctx.swaps < 3 {
		t.Fatalf("swaps = %d, want a redraw per command", f.ctx.swaps)
	}
}

func TestRecordOnlyOnAdvancingRuns(t *testing.T) {
	f := newFixture(t, true, nil)
	f.s.Execute("record 2")
	f.s.Execute("add first")
	f.s.Execute("mov 0 0")
	if _, err := os.Stat(f.s.Recorder().FramePath(0)); !os.IsNotExist(err) {
		t.Fatalf("non-advancing run captured a frame")
	}
	f.s.Execute("record stop")
	if f.s.Recorder().Active() || !f.hasOutput("Recording stopped.") {
		t.Fatalf("record stop did not cancel: %q", f.output())
	}
}

func TestPlaybackTiming(t *testing.T) {
	f := newFixture(t, true, nil)
	f.s.SetPlaying(true)

	f.ctx.now = 0.05
	f.s.Step()
	if f.engine.Frame() != 0 || f.ctx.swaps != 0 {
		t.Fatalf("ran before the frame interval: frame %d swaps %d", f.engine.Frame(), f.ctx.swaps)
	}

	f.ctx.now = 0.2
	f.s.Step()
	if f.engine.Frame() != 1 || f.ctx.swaps != 1 {
		t.Fatalf("frame %d swaps %d after interval", f.engine.Frame(), f.ctx.swaps)
	}

	f.ctx.now = 0.25
	f.s.Step()
	if f.engine.Frame() != 1 {
		t.Fatalf("tick clock not reset")
	}

	f.s.Execute("stop")
	f.ctx.now = 5
	f.s.Step()
	if f.engine.Frame() != 1 {
		t.Fatalf("advanced while stopped")
	}
}

func TestFPSCommandChangesInterval(t *testing.T) {
	f := newFixture(t, true, nil)
	f.s.Execute("fps 100")
	f.s.Execute("play")
	if !f.s.Playing() || f.s.FPS() != 100 {
		t.Fatalf("playing %v fps %v", f.s.Playing(), f.s.FPS())
	}
	f.ctx.now = 0.02
	f.s.Step()
	if f.engine.Frame() != 1 {
		t.Fatalf("frame = %d", f.engine.Frame())
	}
}

func TestNonFiniteFPSRejected(t *testing.T) {
	f := newFixture(t, true, nil)
	f.s.Execute("fps NaN")
	f.s.Execute("fps Inf")
	if f.s.FPS() != 10 {
		t.Fatalf("fps = %v", f.s.FPS())
	}
	f.s.Execute("play")
	f.ctx.now = 5
	f.s.Step()
	if f.engine.Frame() != 1 {
		t.Fatalf("frame = %d, playback stalled", f.engine.Frame())
	}
}

func TestHotkeys(t *testing.T) {
	f := newFixture(t, true, nil)
	f.ctx.push(key(graphics.KeyUp), key(graphics.KeyLeft), key(graphics.KeyLeft), key(graphics.KeyEqual))
	if !f.s.Step() {
		t.Fatalf("step stopped")
	}
	v := f.s.View()
	if v.PanX != 16 || v.PanY != -8 || v.Zoom != 1.05 {
		t.Fatalf("view = %+v", v)
	}
	if f.ctx.swaps != 1 {
		t.Fatalf("swaps = %d, want one redraw per tick", f.ctx.swaps)
	}

	f.ctx.push(key(graphics.KeyDown), key(graphics.KeyRight))
	f.s.Step()
	if v := f.s.View(); v.PanX != 8 || v.PanY != 0 {
		t.Fatalf("view = %+v", v)
	}

	f.ctx.push(key(graphics.KeyA))
	f.s.Step()
	if !f.s.Playing() {
		t.Fatalf("a did not start playback")
	}
	f.ctx.push(key(graphics.KeyS))
	f.s.Step()
	if f.s.Playing() {
		t.Fatalf("s did not stop playback")
	}

	f.s.Execute("reset")
	if f.s.View() != NewView() {
		t.Fatalf("reset view = %+v", f.s.View())
	}
}

func TestShuffleHotkey(t *testing.T) {
	f := newFixture(t, true, nil)
	for _, name := range []string{"first", "second", "third", "static", "scanlines"} {
		f.s.Execute("add " + name)
	}
	before := f.engine.Names()
	f.ctx.push(key(graphics.KeyR))
	f.s.Step()
	after := f.engine.Names()
	slices.Sort(before)
	slices.Sort(after)
	if !slices.Equal(before, after) {
		t.Fatalf("shuffle changed the entries: %v", after)
	}
}

func TestZoomClamp(t *testing.T) {
	v := NewView()
	for i := 0; i < 100; i++ {
		v.ZoomBy(-ZoomStep)
	}
	if v.Zoom != MinZoom {
		t.Fatalf("zoom = %v, want %v", v.Zoom, MinZoom)
	}
	v.ZoomBy(1000)
	if v.Zoom != MaxZoom {
		t.Fatalf("zoom = %v, want %v", v.Zoom, MaxZoom)
	}
	v.Pan(3, 4)
	v.Reset()
	if v != NewView() {
		t.Fatalf("reset = %+v", v)
	}
}

func TestConsoleMode(t *testing.T) {
	f := newFixture(t, true, nil)
	f.ctx.push(key(graphics.KeyBacktick), text("`"), text("add first"), key(graphics.KeyEnter))
	f.s.Step()
	if !f.s.ConsoleVisible() {
		t.Fatalf("console not shown")
	}
	if f.engine.Len() != 1 || !f.hasOutput("Success adding filter first.") {
		t.Fatalf("command not run: %q", f.output())
	}
	last := f.dev.Draws[len(f.dev.Draws)-1]
	if !last.Indexed {
		t.Fatalf("console not drawn over the image")
	}

	f.ctx.push(key(graphics.KeyUp), text("ab"), key(graphics.KeyBackspace))
	f.s.Step()
	if f.s.View().PanY != 0 {
		t.Fatalf("hotkey handled in console mode")
	}
	if f.s.Console().Current() != "a" {
		t.Fatalf("current = %q", f.s.Console().Current())
	}

	f.ctx.push(key(graphics.KeyBacktick), text("`"), text("x"))
	f.s.Step()
	if f.s.ConsoleVisible() || f.s.Console().Current() != "a" {
		t.Fatalf("typing reached a hidden console")
	}
}

func TestPaste(t *testing.T) {
	f := newFixture(t, true, func(c *Config) { c.Clipboard = fakeClipboard("add second\nlist\n") })
	f.ctx.push(key(graphics.KeyBacktick), graphics.Event{Kind: graphics.EventKeyDown, Key: graphics.KeyV, Mods: graphics.ModControl})
	f.s.Step()
	if f.engine.Len() != 1 || !f.hasOutput("0 second") {
		t.Fatalf("paste not executed: %q", f.output())
	}
}

func TestExitEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   graphics.Event
	}{
		{"escape", key(graphics.KeyEscape)},
		{"close", graphics.Event{Kind: graphics.EventClose}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true, nil)
			f.ctx.push(tt.ev)
			if f.s.Step() {
				t.Fatalf("step continued after %s", tt.name)
			}
		})
	}
}

func TestResizeRedraws(t *testing.T) {
	f := newFixture(t, true, nil)
	f.ctx.push(graphics.Event{Kind: graphics.EventResize, Width: 100, Height: 50})
	f.s.Step()
	if f.ctx.swaps != 1 {
		t.Fatalf("swaps = %d", f.ctx.swaps)
	}
	last := f.dev.Draws[len(f.dev.Draws)-1]
	if last.Framebuffer != 0 || last.Viewport != (graphics.Size{Width: 100, Height: 50}) {
		t.Fatalf("presented with %+v", last)
	}

	f.ctx.push(graphics.Event{Kind: graphics.EventExpose})
	f.s.Step()
	if f.ctx.swaps != 2 {
		t.Fatalf("expose did not redraw")
	}
}

func TestNoImage(t *testing.T) {
	f := newFixture(t, false, nil)
	f.s.Execute("add first")
	f.s.Execute("next")
	if f.engine.Frame() != 0 || len(f.dev.Draws) != 0 {
		t.Fatalf("ran without an image")
	}
	if f.ctx.swaps == 0 || f.dev.Clears == 0 {
		t.Fatalf("window not cleared")
	}
}

func TestEncode(t *testing.T) {
	enc := &fakeEncoder{results: make(chan encoder.Result, 1)}
	f := newFixture(t, true, func(c *Config) { c.Encoder = enc })

	f.s.Execute("record 2")
	f.s.Execute("encode busy.mp4")
	if len(enc.jobs) != 0 || !strings.HasPrefix(f.output()[len(f.output())-1], "Could not encode busy.mp4") {
		t.Fatalf("encode during recording: %q", f.output())
	}

	f.s.Execute("next")
	f.s.Execute("next")
	f.s.Execute("encode out.mp4")
	if len(enc.jobs) != 1 {
		t.Fatalf("jobs = %d", len(enc.jobs))
	}
	job := enc.jobs[0]
	if job.Frames != 2 || job.FPS != 10 || job.Dir != f.s.Recorder().Dir() || job.Output != "out.mp4" {
		t.Fatalf("job = %+v", job)
	}

	enc.results <- encoder.Result{Output: "out.mp4"}
	f.s.Step()
	if !f.hasOutput("Encoded out.mp4.") {
		t.Fatalf("result not reported: %q", f.output())
	}
}

func TestEncodeUnavailable(t *testing.T) {
	f := newFixture(t, true, nil)
	f.s.Execute("encode out.mp4")
	if !f.hasOutput("Could not encode out.mp4: encoding is not available") {
		t.Fatalf("output = %q", f.output())
	}
}

func TestWatcherReloadsFilter(t *testing.T) {
	w := &fakeWatcher{changes: make(chan string, 1), errors: make(chan error, 1)}
	f := newFixture(t, true, func(c *Config) { c.Watcher = w })

	path := filepath.Join(f.dir, "glow.frag")
	body := "void main() { frag_color = texture(tex, tex_coord()); }\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	w.changes <- path
	w.errors <- os.ErrClosed
	f.s.Step()
	if !f.lib.Has("glow") || !f.hasOutput("Reloaded filter glow.") {
		t.Fatalf("filter not loaded: %q", f.output())
	}

	f.s.Execute("add glow")
	if f.engine.Len() != 1 {
		t.Fatalf("reloaded filter not usable")
	}
}
