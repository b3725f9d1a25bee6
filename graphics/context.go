package graphics

// Context defines the interface for the window that hosts the GL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// PollEvents pumps the window system and returns the events received since the last call.
	PollEvents() []Event
	SwapBuffers()
	GetFramebufferSize() (int, int)
	Time() float64
}

// EventKind identifies the kind of a window event.
type EventKind int

const (
	EventResize EventKind = iota
	EventClose
	EventTextInput
	EventKeyDown
	EventExpose
)

func (k EventKind) String() string {
	switch k {
	case EventResize:
		return "resize"
	case EventClose:
		return "close"
	case EventTextInput:
		return "text-input"
	case EventKeyDown:
		return "key-down"
	case EventExpose:
		return "expose"
	}
	return "unknown"
}

// Event is a single window system event. Only the fields relevant to Kind are set.
type Event struct {
	Kind   EventKind
	Width  int
	Height int
	Text   string
	Key    Key
	Mods   Modifier
}

// Key is a window-system independent key code.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyBacktick
	KeyBackspace
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEqual
	KeyMinus
	KeyA
	KeyS
	KeyR
	KeyV
)

// Modifier is a bit set of held modifier keys.
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModSuper
)
