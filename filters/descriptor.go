// Package filters holds the effect catalog: descriptors registered by name,
// and the compiled Stage each one becomes on a GPU device.
package filters

import (
	"sort"

	"github.com/richinsley/goglitch/shader"
)

// Descriptor names an effect and carries its sources. Fragment is a full
// GLSL ES 3.00 shader; an empty Vertex selects the shared full-screen vertex
// shader.
type Descriptor struct {
	Name     string
	Fragment string
	Vertex   string
}

// Registry maps effect names to descriptors.
type Registry struct {
	descs map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descs: make(map[string]Descriptor)}
}

// Register adds or replaces the descriptor for d.Name.
func (r *Registry) Register(d Descriptor) {
	r.descs[d.Name] = d
}

func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.descs[name]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descs))
	for n := range r.descs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int { return len(r.descs) }

// BuiltinRegistry returns a registry holding the bundled effects.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtins() {
		r.Register(d)
	}
	return r
}

func builtins() []Descriptor {
	return []Descriptor{
		{Name: "first", Fragment: shader.GetEffectShader(shader.EffectFirst)},
		{Name: "second", Fragment: shader.GetEffectShader(shader.EffectSecond)},
		{Name: "third", Fragment: shader.GetEffectShader(shader.EffectThird)},
		{Name: "rgb_shift", Fragment: shader.GetEffectShader(shader.EffectRGBShift)},
		{Name: "repeat_end", Fragment: shader.GetEffectShader(shader.EffectRepeatEnd)},
		{Name: "static", Fragment: shader.GetEffectShader(shader.EffectStatic)},
		{Name: "static2", Fragment: shader.GetEffectShader(shader.EffectStatic2)},
		{Name: "scanlines", Fragment: shader.GetEffectShader(shader.EffectScanlines)},
	}
}
