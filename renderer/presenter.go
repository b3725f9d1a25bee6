package renderer

import (
	"fmt"

	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/shader"
)

// Presenter draws the final image into the window, centered, scaled by the
// zoom and shifted by the pan offset.
type Presenter struct {
	program  uint32
	quad     uint32
	modelLoc int32
	viewLoc  int32
	projLoc  int32
	texLoc   int32
}

func NewPresenter(dev graphics.Device, isGLES bool) (*Presenter, error) {
	vs, fs := shader.GetPresentShaders(isGLES)
	program, err := dev.NewProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation program: %w", err)
	}
	quad, err := dev.NewQuad(shader.UnitQuad)
	if err != nil {
		dev.DeleteProgram(program)
		return nil, fmt.Errorf("failed to create presentation quad: %w", err)
	}
	return &Presenter{
		program:  program,
		quad:     quad,
		modelLoc: dev.UniformLocation(program, "model_matrix"),
		viewLoc:  dev.UniformLocation(program, "view_matrix"),
		projLoc:  dev.UniformLocation(program, "proj_matrix"),
		texLoc:   dev.UniformLocation(program, "tex"),
	}, nil
}

// Matrices returns the model and projection transforms for an image of
// imageSize drawn into viewport. The scaled size is truncated to whole
// pixels, the image is centered, and pan is added in screen pixels without
// being scaled by zoom.
func Matrices(panX, panY, zoom float32, viewport, imageSize graphics.Size) (model, proj graphics.Mat4) {
	w := float32(int(float32(imageSize.Width) * zoom))
	h := float32(int(float32(imageSize.Height) * zoom))
	x := float32(int(float32(viewport.Width)/2-float32(imageSize.Width)*zoom/2)) + panX
	y := float32(int(float32(viewport.Height)/2-float32(imageSize.Height)*zoom/2)) + panY

	model = graphics.Transform(w, h, x, y, 1)
	proj = graphics.Ortho(0, float32(viewport.Width), 0, float32(viewport.Height))
	return model, proj
}

// Render clears the window framebuffer and draws texture through the
// current view.
func (p *Presenter) Render(dev graphics.Device, texture uint32, panX, panY, zoom float32, viewport, imageSize graphics.Size) {
	dev.BindFramebuffer(0)
	dev.Viewport(viewport.Width, viewport.Height)
	dev.Clear()
	if viewport.Empty() {
		return
	}

	dev.UseProgram(p.program)
	model, proj := Matrices(panX, panY, zoom, viewport, imageSize)
	view := graphics.ScreenView()
	dev.UniformMatrix4(p.modelLoc, (*[16]float32)(&model))
	dev.UniformMatrix4(p.viewLoc, (*[16]float32)(&view))
	dev.UniformMatrix4(p.projLoc, (*[16]float32)(&proj))
	if p.texLoc >= 0 {
		dev.Uniform1i(p.texLoc, 0)
	}

	dev.BindTexture(texture)
	dev.DrawArrays(p.quad, 6)
}

func (p *Presenter) Cleanup(dev graphics.Device) {
	if p.program != 0 {
		dev.DeleteProgram(p.program)
		p.program = 0
	}
	if p.quad != 0 {
		dev.DeleteVertexArray(p.quad)
		p.quad = 0
	}
}
