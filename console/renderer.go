package console

import (
	"fmt"

	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/shader"
)

// Renderer draws a Console over the window using an Atlas. The mesh is
// rebuilt only when the console's revision changes.
type Renderer struct {
	program uint32
	mesh    uint32
	texture uint32
	viewLoc int32
	projLoc int32
	texLoc  int32

	charW, charH float32
	count        int32
	built        bool
	revision     uint64
}

func NewRenderer(dev graphics.Device, atlas *Atlas, isGLES bool) (*Renderer, error) {
	vs, fs := shader.GetTextShaders(isGLES)
	program, err := dev.NewProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to create console program: %w", err)
	}
	mesh, err := dev.NewTextMesh()
	if err != nil {
		dev.DeleteProgram(program)
		return nil, fmt.Errorf("failed to create console mesh: %w", err)
	}

	// Rows go up top row first, so v grows downward through the sheet the
	// same way the glyph grid is indexed.
	b := atlas.Image.Bounds()
	rows := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := 0; y < b.Dy(); y++ {
		off := atlas.Image.PixOffset(b.Min.X, b.Min.Y+y)
		rows = append(rows, atlas.Image.Pix[off:off+b.Dx()*4]...)
	}
	texture, err := dev.NewTexture(b.Dx(), b.Dy(), rows)
	if err != nil {
		dev.DeleteVertexArray(mesh)
		dev.DeleteProgram(program)
		return nil, fmt.Errorf("failed to upload font atlas: %w", err)
	}

	r := &Renderer{
		program: program,
		mesh:    mesh,
		texture: texture,
		viewLoc: dev.UniformLocation(program, "view_matrix"),
		projLoc: dev.UniformLocation(program, "proj_matrix"),
		texLoc:  dev.UniformLocation(program, "tex"),
	}
	r.charW, r.charH = atlas.CharSize()
	return r, nil
}

// Render draws c into the window framebuffer over whatever is there.
func (r *Renderer) Render(dev graphics.Device, c *Console, viewport graphics.Size) {
	if !r.built || c.Revision() != r.revision {
		m := BuildMesh(c.Lines(), r.charW, r.charH)
		dev.UpdateTextMesh(r.mesh, m.Vertices, m.Indices)
		r.count = int32(len(m.Indices))
		r.revision = c.Revision()
		r.built = true
	}
	if viewport.Empty() {
		return
	}

	dev.BindFramebuffer(0)
	dev.Viewport(viewport.Width, viewport.Height)
	dev.UseProgram(r.program)
	view := graphics.ScreenView()
	proj := graphics.Ortho(0, float32(viewport.Width), 0, float32(viewport.Height))
	dev.UniformMatrix4(r.viewLoc, (*[16]float32)(&view))
	dev.UniformMatrix4(r.projLoc, (*[16]float32)(&proj))
	if r.texLoc >= 0 {
		dev.Uniform1i(r.texLoc, 0)
	}
	dev.BindTexture(r.texture)
	dev.DrawElements(r.mesh, r.count)
}

func (r *Renderer) Cleanup(dev graphics.Device) {
	if r.program != 0 {
		dev.DeleteProgram(r.program)
		r.program = 0
	}
	if r.mesh != 0 {
		dev.DeleteVertexArray(r.mesh)
		r.mesh = 0
	}
	if r.texture != 0 {
		dev.DeleteTexture(r.texture)
		r.texture = 0
	}
}
