package renderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/richinsley/goglitch/filters"
	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/graphics/gputest"
	"github.com/richinsley/goglitch/translator"
	"golang.org/x/exp/rand"
)

func newTestEngine(t *testing.T) (*Engine, *gputest.Device, *filters.Library) {
	t.Helper()
	dev := gputest.New()
	lib, err := filters.NewLibrary(dev, translator.Passthrough{}, false, filters.BuiltinRegistry(), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	return NewEngine(dev, lib), dev, lib
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestRunAlternatesTargetsWithoutAliasing(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	if err := eng.BindImage(testImage(4, 3)); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := eng.SetChain([]string{"first", "second", "first"}); err != nil {
		t.Fatalf("set chain: %v", err)
	}
	dev.ResetDraws()
	eng.Run(false)

	if len(dev.Draws) != 3 {
		t.Fatalf("draws = %d, want 3", len(dev.Draws))
	}
	a, b := eng.Pool().Target(0), eng.Pool().Target(1)
	wantTargets := []uint32{a.Texture, b.Texture, a.Texture}
	wantSources := []uint32{eng.source, a.Texture, b.Texture}
	for i, d := range dev.Draws {
		if d.Texture == d.Target {
			t.Fatalf("draw %d reads and writes texture %d", i, d.Texture)
		}
		if d.Target != wantTargets[i] || d.Texture != wantSources[i] {
			t.Fatalf("draw %d: source %d target %d, want %d -> %d", i, d.Texture, d.Target, wantSources[i], wantTargets[i])
		}
		if d.Viewport != (graphics.Size{Width: 4, Height: 3}) {
			t.Fatalf("draw %d viewport %+v", i, d.Viewport)
		}
	}
	if final, tex := eng.Final(); final != FinalA || tex != a.Texture {
		t.Fatalf("final = %v/%d, want A/%d", final, tex, a.Texture)
	}
	if dev.BoundFramebuffer() != 0 {
		t.Fatalf("window framebuffer not restored")
	}
	if dev.Clears != 3 {
		t.Fatalf("clears = %d, want one per stage", dev.Clears)
	}
}

func TestRunEvenChainEndsOnB(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	eng.BindImage(testImage(2, 2))
	eng.SetChain([]string{"third", "static"})
	eng.Run(false)
	if final, _ := eng.Final(); final != FinalB {
		t.Fatalf("final = %v, want B", final)
	}
}

func TestRunEmptyChainUsesSource(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	eng.BindImage(testImage(2, 2))
	dev.ResetDraws()
	eng.Run(true)
	if len(dev.Draws) != 0 {
		t.Fatalf("empty chain drew %d times", len(dev.Draws))
	}
	if final, tex := eng.Final(); final != FinalSource || tex != eng.source {
		t.Fatalf("final = %v/%d, want source", final, tex)
	}
	if eng.Frame() != 1 {
		t.Fatalf("frame = %d, want 1", eng.Frame())
	}
}

func TestRunPassesFrameAndAdvances(t *testing.T) {
	eng, dev, lib := newTestEngine(t)
	eng.BindImage(testImage(2, 2))
	eng.SetChain([]string{"first"})
	eng.Run(true)
	eng.Run(true)
	eng.Run(false)
	if eng.Frame() != 2 {
		t.Fatalf("frame = %d, want 2", eng.Frame())
	}
	e, _ := lib.Lookup("first")
	prog := dev.Draws[len(dev.Draws)-1].Program
	loc := dev.UniformLocation(prog, "frame")
	if loc < 0 || dev.Uniforms[loc] != 2 {
		t.Fatalf("%s drew with frame %v, want 2", e.Name(), dev.Uniforms[loc])
	}
}

func TestRunWithoutImagePanics(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	defer func() {
		r := recover()
		if err, ok := r.(error); !ok || !errors.Is(err, ErrNoImage) {
			t.Fatalf("expected ErrNoImage panic, got %v", r)
		}
	}()
	eng.Run(false)
}

func TestBindEmptyImageKeepsPrevious(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	if err := eng.BindImage(testImage(3, 2)); err != nil {
		t.Fatalf("bind: %v", err)
	}
	eng.Run(true)
	if err := eng.BindImage(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Fatalf("empty image accepted")
	}
	if !eng.HasImage() || eng.Size() != (graphics.Size{Width: 3, Height: 2}) || eng.Frame() != 1 {
		t.Fatalf("failed bind changed state: image=%v size=%+v frame=%d", eng.HasImage(), eng.Size(), eng.Frame())
	}
	if len(dev.Textures) != 3 || len(dev.Framebuffers) != 2 {
		t.Fatalf("textures=%d fbos=%d", len(dev.Textures), len(dev.Framebuffers))
	}
}

func TestFailedRebindKeepsPrevious(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	if err := eng.BindImage(testImage(4, 2)); err != nil {
		t.Fatalf("bind: %v", err)
	}
	_, before := eng.Final()
	dev.FailFramebuffer = 4
	if err := eng.BindImage(testImage(8, 3)); err == nil {
		t.Fatalf("rebind succeeded with an incomplete framebuffer")
	}
	if eng.Size() != (graphics.Size{Width: 4, Height: 2}) || !eng.Pool().Allocated() {
		t.Fatalf("size = %+v pool allocated %v", eng.Size(), eng.Pool().Allocated())
	}
	if _, tex := eng.Final(); tex != before {
		t.Fatalf("final texture changed")
	}
	if len(dev.Textures) != 3 || len(dev.Framebuffers) != 2 {
		t.Fatalf("failed rebind leaked: textures=%d fbos=%d", len(dev.Textures), len(dev.Framebuffers))
	}
	eng.Run(false)
	got, err := eng.ReadFinal()
	if err != nil || !bytes.Equal(got.Pix, testImage(4, 2).Pix) {
		t.Fatalf("old image lost: %v", err)
	}
}

func TestSetChainIsAtomic(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	eng.SetChain([]string{"first", "second"})
	before := eng.Chain()

	err := eng.SetChain([]string{"third", "missing", "static"})
	var ufe *filters.UnknownFilterError
	if !errors.As(err, &ufe) || ufe.Name != "missing" {
		t.Fatalf("expected UnknownFilterError for missing, got %v", err)
	}
	after := eng.Chain()
	if len(after) != len(before) {
		t.Fatalf("chain changed length after failed SetChain")
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("entry %d changed after failed SetChain", i)
		}
	}
}

func TestDuplicateEntriesAreIndependent(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	eng.SetChain([]string{"first", "first"})
	c := eng.Chain()
	if c[0].ID == c[1].ID {
		t.Fatalf("duplicate entries share an ID")
	}
	if err := eng.Remove(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if eng.Len() != 1 || eng.Chain()[0].ID != c[1].ID {
		t.Fatalf("removing one duplicate affected the other")
	}
	if eng.IndexOf(c[1].ID) != 0 || eng.IndexOf(c[0].ID) != -1 {
		t.Fatalf("IndexOf = %d, %d", eng.IndexOf(c[1].ID), eng.IndexOf(c[0].ID))
	}
}

func TestBindImageResizesPool(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	eng.BindImage(testImage(4, 2))
	eng.SetChain([]string{"first"})
	eng.Run(true)

	if err := eng.BindImage(testImage(8, 3)); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if eng.Pool().Size() != (graphics.Size{Width: 8, Height: 3}) {
		t.Fatalf("pool size = %+v", eng.Pool().Size())
	}
	for i := 0; i < 2; i++ {
		tex := dev.Textures[eng.Pool().Target(i).Texture]
		if tex.Width != 8 || tex.Height != 3 {
			t.Fatalf("target %d is %dx%d", i, tex.Width, tex.Height)
		}
	}
	if len(dev.Textures) != 3 || len(dev.Framebuffers) != 2 {
		t.Fatalf("old resources leaked: %d textures, %d framebuffers", len(dev.Textures), len(dev.Framebuffers))
	}
	if eng.Frame() != 0 {
		t.Fatalf("frame = %d after rebind", eng.Frame())
	}
	if eng.Len() != 1 {
		t.Fatalf("rebind dropped the chain")
	}
}

func TestBindImageFramebufferFailureNamesTarget(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	dev.FailFramebuffer = 2
	err := eng.BindImage(testImage(2, 2))
	var fe *graphics.FramebufferIncompleteError
	if !errors.As(err, &fe) || fe.Name != "B" {
		t.Fatalf("expected incomplete framebuffer B, got %v", err)
	}
	if eng.HasImage() || len(dev.Textures) != 0 || len(dev.Framebuffers) != 0 {
		t.Fatalf("failed bind left resources: image=%v textures=%d fbos=%d", eng.HasImage(), len(dev.Textures), len(dev.Framebuffers))
	}
}

func TestReadFinalRoundTrip(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	img := testImage(5, 4)
	eng.BindImage(img)

	eng.Run(false)
	got, err := eng.ReadFinal()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Fatalf("source read back differs")
	}

	eng.SetChain([]string{"first", "second", "third"})
	eng.Run(false)
	got, err = eng.ReadFinal()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// The fake device copies source to target on every draw.
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Fatalf("chained read back differs")
	}
}

func TestReadFinalWithoutImage(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	if _, err := eng.ReadFinal(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestSwapAndRemoveBounds(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	eng.SetChain([]string{"first", "second", "third"})

	var ie *IndexError
	if err := eng.Swap(0, 3); !errors.As(err, &ie) || ie.Index != 3 {
		t.Fatalf("expected IndexError for 3, got %v", err)
	}
	if err := eng.Swap(-1, 0); !errors.As(err, &ie) || ie.Index != -1 {
		t.Fatalf("expected IndexError for -1, got %v", err)
	}
	if err := eng.Remove(3); !errors.As(err, &ie) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if err := eng.Swap(0, 2); err != nil {
		t.Fatalf("swap: %v", err)
	}
	names := eng.Names()
	if names[0] != "third" || names[2] != "first" {
		t.Fatalf("names after swap = %v", names)
	}
}

func TestShuffleKeepsEntries(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	r := rand.New(rand.NewSource(9))

	eng.SetChain([]string{"first"})
	eng.Shuffle(r)
	if eng.Names()[0] != "first" {
		t.Fatalf("single entry shuffle changed the chain")
	}

	eng.SetChain([]string{"first", "second", "third", "static", "static2"})
	before := map[string]int{}
	for _, n := range eng.Names() {
		before[n]++
	}
	eng.Shuffle(r)
	for _, n := range eng.Names() {
		before[n]--
	}
	for n, c := range before {
		if c != 0 {
			t.Fatalf("shuffle changed count of %s", n)
		}
	}
}

func TestReleaseFreesEverything(t *testing.T) {
	eng, dev, _ := newTestEngine(t)
	eng.BindImage(testImage(3, 3))
	eng.SetChain([]string{"first"})
	eng.Release()
	eng.Release()
	if len(dev.Textures) != 0 || len(dev.Framebuffers) != 0 || eng.Len() != 0 {
		t.Fatalf("release left %d textures, %d framebuffers, %d entries", len(dev.Textures), len(dev.Framebuffers), eng.Len())
	}
}
