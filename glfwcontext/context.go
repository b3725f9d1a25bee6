package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/logger"
)

// Context is a GLFW window with its GL context. Window callbacks are queued
// and handed out by PollEvents.
type Context struct {
	window *glfw.Window
	gles   bool
	events []graphics.Event
}

var _ graphics.Context = (*Context)(nil)

// New creates a resizable window with a GL 4.1 core context, or a GLES 3.0
// context when gles is set.
func New(width, height int, title string, gles bool) (*Context, error) {
	glfw.DefaultWindowHints()
	if gles {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 0)
	} else {
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{window: win, gles: gles}
	win.SetKeyCallback(c.keyCallback)
	win.SetCharCallback(func(_ *glfw.Window, r rune) {
		c.push(graphics.Event{Kind: graphics.EventTextInput, Text: string(r)})
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		c.push(graphics.Event{Kind: graphics.EventResize, Width: w, Height: h})
	})
	win.SetRefreshCallback(func(_ *glfw.Window) {
		c.push(graphics.Event{Kind: graphics.EventExpose})
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		c.push(graphics.Event{Kind: graphics.EventClose})
	})
	return c, nil
}

func (c *Context) push(ev graphics.Event) {
	c.events = append(c.events, ev)
}

func (c *Context) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	k := mapKey(key)
	if k == graphics.KeyUnknown {
		return
	}
	c.push(graphics.Event{Kind: graphics.EventKeyDown, Key: k, Mods: mapMods(mods)})
}

var keys = map[glfw.Key]graphics.Key{
	glfw.KeyEscape:      graphics.KeyEscape,
	glfw.KeyGraveAccent: graphics.KeyBacktick,
	glfw.KeyBackspace:   graphics.KeyBackspace,
	glfw.KeyEnter:       graphics.KeyEnter,
	glfw.KeyKPEnter:     graphics.KeyEnter,
	glfw.KeyUp:          graphics.KeyUp,
	glfw.KeyDown:        graphics.KeyDown,
	glfw.KeyLeft:        graphics.KeyLeft,
	glfw.KeyRight:       graphics.KeyRight,
	glfw.KeyEqual:       graphics.KeyEqual,
	glfw.KeyKPAdd:       graphics.KeyEqual,
	glfw.KeyMinus:       graphics.KeyMinus,
	glfw.KeyKPSubtract:  graphics.KeyMinus,
	glfw.KeyA:           graphics.KeyA,
	glfw.KeyS:           graphics.KeyS,
	glfw.KeyR:           graphics.KeyR,
	glfw.KeyV:           graphics.KeyV,
}

func mapKey(k glfw.Key) graphics.Key {
	return keys[k]
}

func mapMods(m glfw.ModifierKey) graphics.Modifier {
	var out graphics.Modifier
	if m&glfw.ModShift != 0 {
		out |= graphics.ModShift
	}
	if m&glfw.ModControl != 0 {
		out |= graphics.ModControl
	}
	if m&glfw.ModAlt != 0 {
		out |= graphics.ModAlt
	}
	if m&glfw.ModSuper != 0 {
		out |= graphics.ModSuper
	}
	return out
}

func (c *Context) IsGLES() bool { return c.gles }

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

// PollEvents pumps GLFW and returns the events queued since the last call.
func (c *Context) PollEvents() []graphics.Event {
	glfw.PollEvents()
	evs := c.events
	c.events = nil
	return evs
}

func (c *Context) SwapBuffers() {
	c.window.SwapBuffers()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	logger.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts GLFW down. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	logger.Debug("GLFW terminated")
}
