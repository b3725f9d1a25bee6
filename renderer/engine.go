package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/richinsley/goglitch/filters"
	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/logger"
	"golang.org/x/exp/rand"
)

// ErrNoImage is returned (or, from Run, panicked with) when the engine is
// used before an image has been bound.
var ErrNoImage = errors.New("renderer: no image bound")

// Catalog resolves effect names to initialized stages.
type Catalog interface {
	Lookup(name string) (filters.Effect, error)
}

// Entry is one position in the filter chain. The same effect may appear at
// several positions; each position has its own ID.
type Entry struct {
	ID     uuid.UUID
	Effect filters.Effect
}

func (e Entry) Name() string { return e.Effect.Name() }

// Final says which image holds the result of the last run.
type Final int

const (
	FinalSource Final = iota
	FinalA
	FinalB
)

func (f Final) String() string {
	switch f {
	case FinalSource:
		return "source"
	case FinalA:
		return "A"
	case FinalB:
		return "B"
	}
	return fmt.Sprintf("Final(%d)", int(f))
}

// IndexError reports a chain position outside the chain.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d is out of bounds for a chain of %d", e.Index, e.Len)
}

// Engine runs the filter chain over the bound image. It owns the source
// texture and the target pool and releases both before binding a new image.
type Engine struct {
	dev     graphics.Device
	catalog Catalog

	pool   TargetPool
	source uint32
	size   graphics.Size
	bound  bool

	chain []Entry
	frame int

	final    Final
	finalTex uint32
}

func NewEngine(dev graphics.Device, catalog Catalog) *Engine {
	return &Engine{dev: dev, catalog: catalog}
}

// BindImage uploads img as the new source and sizes the pool to match. The
// new resources are built before the previous image's are released, so a
// failed bind leaves the old image in place. The frame counter restarts at
// zero; the chain is kept.
func (e *Engine) BindImage(img *image.RGBA) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("cannot bind an empty %dx%d image", w, h)
	}

	texture, err := e.dev.NewTexture(w, h, flipRows(img))
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	var pool TargetPool
	if err := pool.Allocate(e.dev, w, h); err != nil {
		e.dev.DeleteTexture(texture)
		return err
	}

	e.releaseImage()
	e.pool = pool
	e.source = texture
	e.size = graphics.Size{Width: w, Height: h}
	e.bound = true
	e.frame = 0
	e.final, e.finalTex = FinalSource, texture
	logger.Info("bound %dx%d image", w, h)
	return nil
}

func (e *Engine) releaseImage() {
	e.pool.Release(e.dev)
	if e.source != 0 {
		e.dev.DeleteTexture(e.source)
	}
	e.source = 0
	e.size = graphics.Size{}
	e.bound = false
	e.final, e.finalTex = FinalSource, 0
}

// flipRows returns the pixels of img bottom row first.
func flipRows(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	rowLen := w * 4
	for y := 0; y < h; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		dst := (h - 1 - y) * rowLen
		copy(out[dst:dst+rowLen], img.Pix[src:src+rowLen])
	}
	return out
}

// SetChain replaces the chain with the named effects. Every name is
// resolved before anything changes; on error the chain is untouched.
func (e *Engine) SetChain(names []string) error {
	chain := make([]Entry, 0, len(names))
	for _, n := range names {
		effect, err := e.catalog.Lookup(n)
		if err != nil {
			return err
		}
		chain = append(chain, Entry{ID: uuid.New(), Effect: effect})
	}
	e.chain = chain
	for _, entry := range chain {
		logger.Debug("chain entry %s is %s", entry.ID, entry.Name())
	}
	return nil
}

// Append adds the named effect to the end of the chain.
func (e *Engine) Append(name string) (Entry, error) {
	effect, err := e.catalog.Lookup(name)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{ID: uuid.New(), Effect: effect}
	e.chain = append(e.chain, entry)
	logger.Debug("added %s as %s", entry.Name(), entry.ID)
	return entry, nil
}

func (e *Engine) checkIndex(i int) error {
	if i < 0 || i >= len(e.chain) {
		return &IndexError{Index: i, Len: len(e.chain)}
	}
	return nil
}

// Swap exchanges chain positions i and j.
func (e *Engine) Swap(i, j int) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	if err := e.checkIndex(j); err != nil {
		return err
	}
	e.chain[i], e.chain[j] = e.chain[j], e.chain[i]
	return nil
}

// Remove deletes chain position i.
func (e *Engine) Remove(i int) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	logger.Debug("removed %s (%s)", e.chain[i].Name(), e.chain[i].ID)
	e.chain = append(e.chain[:i], e.chain[i+1:]...)
	return nil
}

// IndexOf returns the position of the entry with id, or -1.
func (e *Engine) IndexOf(id uuid.UUID) int {
	for i, entry := range e.chain {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) Clear() { e.chain = nil }

// Shuffle permutes the chain with r.
func (e *Engine) Shuffle(r *rand.Rand) {
	r.Shuffle(len(e.chain), func(i, j int) {
		e.chain[i], e.chain[j] = e.chain[j], e.chain[i]
	})
}

// Chain returns a copy of the current chain.
func (e *Engine) Chain() []Entry {
	return append([]Entry(nil), e.chain...)
}

// Names lists the effect name at every chain position.
func (e *Engine) Names() []string {
	names := make([]string, len(e.chain))
	for i, entry := range e.chain {
		names[i] = entry.Name()
	}
	return names
}

func (e *Engine) Len() int { return len(e.chain) }

// Run draws the chain once. Each stage reads the previous result and writes
// the pool's destination target, then the roles swap; the first stage reads
// the source image. With an empty chain the source itself is the result.
// When advance is set the frame counter moves on after the pass.
func (e *Engine) Run(advance bool) {
	if !e.bound {
		panic(ErrNoImage)
	}

	e.dev.BindTexture(e.source)
	e.final, e.finalTex = FinalSource, e.source

	if len(e.chain) > 0 && !e.size.Empty() {
		e.pool.Reset()
		for _, entry := range e.chain {
			dest := e.pool.Destination()
			target := e.pool.Target(dest)

			e.dev.BindFramebuffer(target.Framebuffer)
			e.dev.Clear()
			entry.Effect.Render(e.dev, e.size, e.frame)

			e.dev.BindTexture(target.Texture)
			e.final, e.finalTex = Final(dest+1), target.Texture
			e.pool.Swap()
		}
		e.dev.BindFramebuffer(0)
	}

	if advance {
		e.frame++
	}
}

// Final reports which image holds the last result and its texture.
func (e *Engine) Final() (Final, uint32) { return e.final, e.finalTex }

// ReadFinal reads the last result back as a top-down image.
func (e *Engine) ReadFinal() (*image.RGBA, error) {
	if !e.bound {
		return nil, ErrNoImage
	}
	w, h := e.size.Width, e.size.Height
	pixels, err := e.dev.ReadTexture(e.finalTex, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", e.final, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rowLen := w * 4
	for y := 0; y < h; y++ {
		src := (h - 1 - y) * rowLen
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], pixels[src:src+rowLen])
	}
	return img, nil
}

func (e *Engine) HasImage() bool { return e.bound }

func (e *Engine) Size() graphics.Size { return e.size }

func (e *Engine) Frame() int { return e.frame }

// Pool exposes the target pool for inspection.
func (e *Engine) Pool() *TargetPool { return &e.pool }

// Release frees the source texture and pool and forgets the chain.
func (e *Engine) Release() {
	e.releaseImage()
	e.chain = nil
}
