package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/goglitch/graphics"
)

// Target is one texture with the framebuffer that renders into it.
type Target struct {
	Texture     uint32
	Framebuffer uint32
}

var targetNames = [2]string{"A", "B"}

// TargetPool holds the two equally sized render targets stages alternate
// between. The destination index says which one the next stage writes;
// the other holds the previous stage's output.
type TargetPool struct {
	targets   [2]Target
	size      graphics.Size
	dest      int
	allocated bool
}

// Allocate creates both targets at width x height, replacing any previous
// pair. On failure nothing stays allocated.
func (p *TargetPool) Allocate(dev graphics.Device, width, height int) error {
	p.Release(dev)

	var built [2]Target
	rollback := func(n int) {
		for i := 0; i < n; i++ {
			dev.DeleteFramebuffer(built[i].Framebuffer)
			dev.DeleteTexture(built[i].Texture)
		}
	}

	for i := 0; i < 2; i++ {
		texture, err := dev.NewTexture(width, height, nil)
		if err != nil {
			rollback(i)
			return fmt.Errorf("render target %s: %w", targetNames[i], err)
		}
		fbo, err := dev.NewFramebuffer(texture)
		if err != nil {
			dev.DeleteTexture(texture)
			rollback(i)
			var fe *graphics.FramebufferIncompleteError
			if errors.As(err, &fe) {
				fe.Name = targetNames[i]
				return fe
			}
			return fmt.Errorf("render target %s: %w", targetNames[i], err)
		}
		built[i] = Target{Texture: texture, Framebuffer: fbo}
	}
	dev.BindFramebuffer(0)

	p.targets = built
	p.size = graphics.Size{Width: width, Height: height}
	p.dest = 0
	p.allocated = true
	return nil
}

// Release destroys both targets. It is a no-op on an empty pool.
func (p *TargetPool) Release(dev graphics.Device) {
	if !p.allocated {
		return
	}
	for i := range p.targets {
		dev.DeleteFramebuffer(p.targets[i].Framebuffer)
		dev.DeleteTexture(p.targets[i].Texture)
	}
	p.targets = [2]Target{}
	p.size = graphics.Size{}
	p.dest = 0
	p.allocated = false
}

func (p *TargetPool) Allocated() bool { return p.allocated }

func (p *TargetPool) Size() graphics.Size { return p.size }

// Destination is the index of the target the next stage writes.
func (p *TargetPool) Destination() int { return p.dest }

func (p *TargetPool) Target(i int) Target { return p.targets[i] }

// Swap hands the destination role to the other target.
func (p *TargetPool) Swap() { p.dest = 1 - p.dest }

// Reset makes target A the next destination.
func (p *TargetPool) Reset() { p.dest = 0 }
