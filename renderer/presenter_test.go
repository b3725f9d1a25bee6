package renderer

import (
	"math"
	"testing"

	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/graphics/gputest"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func TestMatricesCenterAndPan(t *testing.T) {
	tests := []struct {
		name       string
		panX, panY float32
		zoom       float32
		viewport   graphics.Size
		image      graphics.Size
		w, h, x, y float32
	}{
		{"centered", 0, 0, 1, graphics.Size{Width: 100, Height: 100}, graphics.Size{Width: 50, Height: 20}, 50, 20, 25, 40},
		{"panned", 8, -8, 1, graphics.Size{Width: 100, Height: 100}, graphics.Size{Width: 50, Height: 20}, 50, 20, 33, 32},
		{"zoomed out", 0, 0, 0.5, graphics.Size{Width: 100, Height: 100}, graphics.Size{Width: 50, Height: 20}, 25, 10, 37, 45},
		{"pan not scaled", 16, 0, 2, graphics.Size{Width: 100, Height: 100}, graphics.Size{Width: 50, Height: 20}, 100, 40, 16, 30},
		{"truncated", 0, 0, 1.05, graphics.Size{Width: 101, Height: 81}, graphics.Size{Width: 33, Height: 17}, 34, 17, 33, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := Matrices(tt.panX, tt.panY, tt.zoom, tt.viewport, tt.image)
			if !near(model.At(0, 0), tt.w) || !near(model.At(1, 1), tt.h) {
				t.Fatalf("scale = %v x %v, want %v x %v", model.At(0, 0), model.At(1, 1), tt.w, tt.h)
			}
			if !near(model.At(0, 3), tt.x) || !near(model.At(1, 3), tt.y) {
				t.Fatalf("offset = %v,%v, want %v,%v", model.At(0, 3), model.At(1, 3), tt.x, tt.y)
			}
		})
	}
}

func TestOrthoMapsViewportCorners(t *testing.T) {
	_, proj := Matrices(0, 0, 1, graphics.Size{Width: 200, Height: 100}, graphics.Size{Width: 10, Height: 10})
	x, y := proj.Apply(0, 0, 0)
	if !near(x, -1) || !near(y, -1) {
		t.Fatalf("origin maps to %v,%v", x, y)
	}
	x, y = proj.Apply(200, 100, 0)
	if !near(x, 1) || !near(y, 1) {
		t.Fatalf("far corner maps to %v,%v", x, y)
	}
}

func TestPresenterDrawsToWindow(t *testing.T) {
	dev := gputest.New()
	p, err := NewPresenter(dev, false)
	if err != nil {
		t.Fatalf("new presenter: %v", err)
	}
	tex, _ := dev.NewTexture(2, 2, nil)
	dev.BindFramebuffer(42)

	p.Render(dev, tex, 0, 0, 1, graphics.Size{Width: 64, Height: 48}, graphics.Size{Width: 2, Height: 2})

	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.Draws))
	}
	d := dev.Draws[0]
	if d.Framebuffer != 0 || d.Texture != tex || d.Count != 6 {
		t.Fatalf("unexpected draw %+v", d)
	}
	if d.Viewport != (graphics.Size{Width: 64, Height: 48}) {
		t.Fatalf("viewport = %+v", d.Viewport)
	}

	p.Cleanup(dev)
	p.Cleanup(dev)
	if len(dev.Programs) != 0 || len(dev.Meshes) != 0 {
		t.Fatalf("cleanup left resources")
	}
}

func TestTargetPoolReleaseEmpty(t *testing.T) {
	dev := gputest.New()
	var p TargetPool
	p.Release(dev)
	if err := p.Allocate(dev, 3, 2); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if p.Destination() != 0 {
		t.Fatalf("destination = %d", p.Destination())
	}
	p.Swap()
	if p.Destination() != 1 {
		t.Fatalf("swap did not toggle")
	}
	p.Release(dev)
	if p.Allocated() || len(dev.Textures) != 0 {
		t.Fatalf("release left resources")
	}
}

func TestTargetPoolFailureOnA(t *testing.T) {
	dev := gputest.New()
	dev.FailFramebuffer = 1
	var p TargetPool
	err := p.Allocate(dev, 2, 2)
	fe, ok := err.(*graphics.FramebufferIncompleteError)
	if !ok || fe.Name != "A" {
		t.Fatalf("expected failure naming A, got %v", err)
	}
	if p.Allocated() || len(dev.Textures) != 0 {
		t.Fatalf("partial allocation not rolled back")
	}
}
