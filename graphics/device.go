package graphics

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Device is the set of GPU operations the pipeline needs. Handles are the
// underlying API object names; 0 means "none" (framebuffer 0 is the window).
type Device interface {
	// NewProgram compiles and links a vertex/fragment pair. It fails with
	// *ShaderCompileError or *ShaderLinkError.
	NewProgram(vertexSource, fragmentSource string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	// UniformLocation returns -1 when the program has no active uniform with that name.
	UniformLocation(program uint32, name string) int32
	Uniform1f(location int32, v float32)
	Uniform1i(location int32, v int32)
	UniformMatrix4(location int32, m *[16]float32)

	// NewQuad uploads interleaved (x, y, u, v) vertices as a vertex array.
	NewQuad(vertices []float32) (uint32, error)
	// NewTextMesh creates an empty vertex array with (x, y, u, v, r, g, b, a) layout.
	NewTextMesh() (uint32, error)
	UpdateTextMesh(vao uint32, vertices []float32, indices []uint32)
	DeleteVertexArray(vao uint32)
	// DrawArrays draws count vertices of vao as triangles.
	DrawArrays(vao uint32, count int32)
	// DrawElements draws count indices of vao as triangles.
	DrawElements(vao uint32, count int32)

	// NewTexture creates an RGBA8 texture. pixels may be nil; otherwise it holds
	// width*height*4 bytes, bottom row first.
	NewTexture(width, height int, pixels []byte) (uint32, error)
	DeleteTexture(texture uint32)
	BindTexture(texture uint32)
	// ReadTexture returns the RGBA8 contents of texture, bottom row first.
	ReadTexture(texture uint32, width, height int) ([]byte, error)

	// NewFramebuffer attaches texture as color attachment 0. It fails with
	// *FramebufferIncompleteError when the framebuffer is not complete.
	NewFramebuffer(texture uint32) (uint32, error)
	DeleteFramebuffer(fbo uint32)
	BindFramebuffer(fbo uint32)

	Viewport(width, height int)
	Clear()
}
