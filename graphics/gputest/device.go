// Package gputest provides an in-memory graphics.Device for tests.
//
// The fake keeps enough state to observe what the pipeline asked the GPU to
// do: live objects, the bound program/texture/framebuffer at every draw and
// the uniform values uploaded. Drawing into a framebuffer copies the bound
// source texture into the attached texture, so pixel data flows through a
// chain of stages unchanged.
package gputest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/richinsley/goglitch/graphics"
)

// Draw records one draw call.
type Draw struct {
	Program     uint32
	Texture     uint32
	Framebuffer uint32
	Target      uint32 // texture attached to Framebuffer, 0 for the window
	Viewport    graphics.Size
	Count       int32
	Indexed     bool
}

// Program is a linked fake program.
type Program struct {
	Vertex   string
	Fragment string
	Uniforms map[string]int32
}

// Texture is a fake RGBA8 texture.
type Texture struct {
	Width  int
	Height int
	Pixels []byte
}

// Mesh is a fake vertex array.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// Device implements graphics.Device in memory.
type Device struct {
	Programs     map[uint32]*Program
	Textures     map[uint32]*Texture
	Framebuffers map[uint32]uint32
	Meshes       map[uint32]*Mesh

	Draws    []Draw
	Clears   int
	Uniforms map[int32]float64

	// FailCompile, when set, makes NewProgram fail to compile any fragment
	// source for which it returns true.
	FailCompile func(fragment string) bool
	// FailLink behaves like FailCompile but reports a link error.
	FailLink func(fragment string) bool
	// FailFramebuffer makes the n-th framebuffer created (1-based) incomplete.
	FailFramebuffer int

	next            uint32
	nextUniform     int32
	fboCount        int
	program         uint32
	texture         uint32
	framebuffer     uint32
	viewport        graphics.Size
	uniformDeclared *regexp.Regexp
}

var _ graphics.Device = (*Device)(nil)

// New returns an empty fake device.
func New() *Device {
	return &Device{
		Programs:        make(map[uint32]*Program),
		Textures:        make(map[uint32]*Texture),
		Framebuffers:    make(map[uint32]uint32),
		Meshes:          make(map[uint32]*Mesh),
		Uniforms:        make(map[int32]float64),
		uniformDeclared: regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*;`),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) NewProgram(vertexSource, fragmentSource string) (uint32, error) {
	if d.FailCompile != nil && d.FailCompile(fragmentSource) {
		return 0, &graphics.ShaderCompileError{Stage: "fragment", Log: "0:1: error: forced failure"}
	}
	if d.FailLink != nil && d.FailLink(fragmentSource) {
		return 0, &graphics.ShaderLinkError{Log: "forced link failure"}
	}
	p := &Program{Vertex: vertexSource, Fragment: fragmentSource, Uniforms: make(map[string]int32)}
	for _, src := range []string{vertexSource, fragmentSource} {
		for _, m := range d.uniformDeclared.FindAllStringSubmatch(src, -1) {
			if _, ok := p.Uniforms[m[1]]; !ok {
				d.nextUniform++
				p.Uniforms[m[1]] = d.nextUniform
			}
		}
	}
	h := d.handle()
	d.Programs[h] = p
	return h, nil
}

func (d *Device) DeleteProgram(program uint32) {
	delete(d.Programs, program)
	if d.program == program {
		d.program = 0
	}
}

func (d *Device) UseProgram(program uint32) { d.program = program }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	p, ok := d.Programs[program]
	if !ok {
		return -1
	}
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) Uniform1f(location int32, v float32) { d.Uniforms[location] = float64(v) }
func (d *Device) Uniform1i(location int32, v int32)   { d.Uniforms[location] = float64(v) }

func (d *Device) UniformMatrix4(location int32, m *[16]float32) {
	// Only the trace is recorded; tests inspect matrices through their builders.
	d.Uniforms[location] = float64(m[0] + m[5] + m[10] + m[15])
}

func (d *Device) NewQuad(vertices []float32) (uint32, error) {
	h := d.handle()
	d.Meshes[h] = &Mesh{Vertices: append([]float32(nil), vertices...)}
	return h, nil
}

func (d *Device) NewTextMesh() (uint32, error) {
	h := d.handle()
	d.Meshes[h] = &Mesh{}
	return h, nil
}

func (d *Device) UpdateTextMesh(vao uint32, vertices []float32, indices []uint32) {
	m, ok := d.Meshes[vao]
	if !ok {
		panic(fmt.Sprintf("gputest: update of unknown vertex array %d", vao))
	}
	m.Vertices = append(m.Vertices[:0], vertices...)
	m.Indices = append(m.Indices[:0], indices...)
}

func (d *Device) DeleteVertexArray(vao uint32) { delete(d.Meshes, vao) }

func (d *Device) DrawArrays(vao uint32, count int32) { d.draw(vao, count, false) }

func (d *Device) DrawElements(vao uint32, count int32) { d.draw(vao, count, true) }

func (d *Device) draw(vao uint32, count int32, indexed bool) {
	if _, ok := d.Meshes[vao]; !ok {
		panic(fmt.Sprintf("gputest: draw with unknown vertex array %d", vao))
	}
	if _, ok := d.Programs[d.program]; !ok {
		panic("gputest: draw without a program in use")
	}
	dr := Draw{
		Program:     d.program,
		Texture:     d.texture,
		Framebuffer: d.framebuffer,
		Target:      d.Framebuffers[d.framebuffer],
		Viewport:    d.viewport,
		Count:       count,
		Indexed:     indexed,
	}
	d.Draws = append(d.Draws, dr)
	if dr.Target == 0 || dr.Target == dr.Texture {
		return
	}
	src, dst := d.Textures[dr.Texture], d.Textures[dr.Target]
	if src != nil && dst != nil && src.Width == dst.Width && src.Height == dst.Height && src.Pixels != nil {
		dst.Pixels = append(dst.Pixels[:0], src.Pixels...)
	}
}

func (d *Device) NewTexture(width, height int, pixels []byte) (uint32, error) {
	if pixels != nil && len(pixels) != width*height*4 {
		return 0, fmt.Errorf("gputest: texture data is %d bytes, want %d", len(pixels), width*height*4)
	}
	h := d.handle()
	t := &Texture{Width: width, Height: height}
	if pixels != nil {
		t.Pixels = append([]byte(nil), pixels...)
	}
	d.Textures[h] = t
	return h, nil
}

func (d *Device) DeleteTexture(texture uint32) {
	delete(d.Textures, texture)
	if d.texture == texture {
		d.texture = 0
	}
}

func (d *Device) BindTexture(texture uint32) { d.texture = texture }

func (d *Device) ReadTexture(texture uint32, width, height int) ([]byte, error) {
	t, ok := d.Textures[texture]
	if !ok {
		return nil, fmt.Errorf("gputest: read of unknown texture %d", texture)
	}
	if t.Width != width || t.Height != height {
		return nil, fmt.Errorf("gputest: read %dx%d from %dx%d texture", width, height, t.Width, t.Height)
	}
	out := make([]byte, width*height*4)
	copy(out, t.Pixels)
	return out, nil
}

func (d *Device) NewFramebuffer(texture uint32) (uint32, error) {
	d.fboCount++
	if d.FailFramebuffer == d.fboCount {
		return 0, &graphics.FramebufferIncompleteError{Status: 0x8CD6}
	}
	if _, ok := d.Textures[texture]; !ok {
		return 0, &graphics.FramebufferIncompleteError{Status: 0x8CD7}
	}
	h := d.handle()
	d.Framebuffers[h] = texture
	return h, nil
}

func (d *Device) DeleteFramebuffer(fbo uint32) {
	delete(d.Framebuffers, fbo)
	if d.framebuffer == fbo {
		d.framebuffer = 0
	}
}

func (d *Device) BindFramebuffer(fbo uint32) { d.framebuffer = fbo }

func (d *Device) Viewport(width, height int) { d.viewport = graphics.Size{Width: width, Height: height} }

func (d *Device) Clear() { d.Clears++ }

// BoundFramebuffer returns the currently bound framebuffer.
func (d *Device) BoundFramebuffer() uint32 { return d.framebuffer }

// BoundTexture returns the currently bound texture.
func (d *Device) BoundTexture() uint32 { return d.texture }

// ResetDraws forgets the recorded draw calls.
func (d *Device) ResetDraws() { d.Draws = d.Draws[:0] }

// ProgramsWith returns the handles of programs whose fragment source contains s.
func (d *Device) ProgramsWith(s string) []uint32 {
	var out []uint32
	for h, p := range d.Programs {
		if strings.Contains(p.Fragment, s) {
			out = append(out, h)
		}
	}
	return out
}
