package filters

import (
	"errors"
	"fmt"

	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/shader"
	"github.com/richinsley/goglitch/translator"
	"golang.org/x/exp/rand"
)

// Env is what a stage needs to compile and draw.
type Env struct {
	Device     graphics.Device
	Translator translator.Translator
	GLES       bool
	// Quad is the shared full-screen vertex array, six vertices.
	Quad uint32
	Rand *rand.Rand
}

// Effect is the capability every chain entry satisfies.
type Effect interface {
	Name() string
	Initialize(env Env) error
	Render(dev graphics.Device, size graphics.Size, frame int)
	Cleanup(dev graphics.Device)
}

// Stage is a compiled effect. It draws the currently bound texture through
// its fragment shader into the currently bound framebuffer and never binds
// either itself.
type Stage struct {
	desc    Descriptor
	quad    uint32
	rng     *rand.Rand
	program uint32

	frameLoc int32
	randLoc  int32
	texLoc   int32
}

var _ Effect = (*Stage)(nil)

func NewStage(d Descriptor) *Stage {
	return &Stage{desc: d, frameLoc: -1, randLoc: -1, texLoc: -1}
}

func (s *Stage) Name() string { return s.desc.Name }

func (s *Stage) String() string { return s.desc.Name }

// Initialized reports whether the stage holds a linked program.
func (s *Stage) Initialized() bool { return s.program != 0 }

func (s *Stage) Initialize(env Env) error {
	return s.compile(env, s.desc)
}

// Recompile builds d in place of the current program. The old program is
// kept when the new one fails, so entries already in a chain stay usable.
func (s *Stage) Recompile(env Env, d Descriptor) error {
	if d.Name != s.desc.Name {
		return fmt.Errorf("recompile of %s with descriptor %s", s.desc.Name, d.Name)
	}
	return s.compile(env, d)
}

func (s *Stage) compile(env Env, d Descriptor) error {
	fsShader, err := env.Translator.Translate(d.Fragment, env.GLES)
	if err != nil {
		var ce *graphics.ShaderCompileError
		if !errors.As(err, &ce) {
			err = &graphics.ShaderCompileError{Stage: "fragment", Log: err.Error()}
		}
		return fmt.Errorf("filter %s: %w", d.Name, err)
	}

	vertexSource := d.Vertex
	if vertexSource == "" {
		vertexSource = shader.GenerateVertexShader(env.GLES)
	}
	program, err := env.Device.NewProgram(vertexSource, fsShader.Code)
	if err != nil {
		return fmt.Errorf("filter %s: failed to create shader program: %w", d.Name, err)
	}

	if s.program != 0 {
		env.Device.DeleteProgram(s.program)
	}
	s.desc = d
	s.program = program
	s.quad = env.Quad
	s.rng = env.Rand

	s.frameLoc = uniformLocation(env.Device, fsShader.Uniforms, program, "frame")
	s.randLoc = uniformLocation(env.Device, fsShader.Uniforms, program, "rand")
	s.texLoc = uniformLocation(env.Device, fsShader.Uniforms, program, "tex")
	return nil
}

// uniformLocation resolves a uniform through the translator's name mapping;
// uniforms the translator dropped or never saw report -1.
func uniformLocation(dev graphics.Device, mapped map[string]string, program uint32, name string) int32 {
	if v, ok := mapped[name]; ok {
		return dev.UniformLocation(program, v)
	}
	return -1
}

func (s *Stage) Render(dev graphics.Device, size graphics.Size, frame int) {
	if s.program == 0 {
		panic(fmt.Sprintf("filters: render of uninitialized stage %s", s.desc.Name))
	}
	dev.UseProgram(s.program)
	dev.Viewport(size.Width, size.Height)

	if s.randLoc >= 0 {
		var r float32
		if s.rng != nil {
			r = s.rng.Float32()
		}
		dev.Uniform1f(s.randLoc, r)
	}
	if s.frameLoc >= 0 {
		dev.Uniform1i(s.frameLoc, int32(frame))
	}
	if s.texLoc >= 0 {
		dev.Uniform1i(s.texLoc, 0)
	}

	dev.DrawArrays(s.quad, 6)
}

func (s *Stage) Cleanup(dev graphics.Device) {
	if s.program == 0 {
		return
	}
	dev.DeleteProgram(s.program)
	s.program = 0
	s.frameLoc, s.randLoc, s.texLoc = -1, -1, -1
}
