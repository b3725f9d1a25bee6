package filters

import (
	"errors"
	"fmt"

	"github.com/richinsley/goglitch/graphics"
	"github.com/richinsley/goglitch/logger"
	"github.com/richinsley/goglitch/shader"
	"github.com/richinsley/goglitch/translator"
	"golang.org/x/exp/rand"
)

// Library owns one compiled Stage per registered descriptor. Chain entries
// share these instances; the same effect appearing twice in a chain is the
// same Stage drawn twice.
type Library struct {
	env      Env
	registry *Registry
	stages   map[string]*Stage
}

// NewLibrary compiles every descriptor in reg. Any failure releases what was
// built and is returned; a stage that does not compile never becomes
// reachable by name.
func NewLibrary(dev graphics.Device, tr translator.Translator, gles bool, reg *Registry, rng *rand.Rand) (*Library, error) {
	quad, err := dev.NewQuad(shader.FilterQuad)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter quad: %w", err)
	}
	l := &Library{
		env: Env{
			Device:     dev,
			Translator: tr,
			GLES:       gles,
			Quad:       quad,
			Rand:       rng,
		},
		registry: NewRegistry(),
		stages:   make(map[string]*Stage),
	}
	for _, name := range reg.Names() {
		d, _ := reg.Lookup(name)
		if err := l.add(d); err != nil {
			l.Cleanup()
			return nil, err
		}
		logger.Debug("compiled filter %s", name)
	}
	return l, nil
}

func (l *Library) add(d Descriptor) error {
	s := NewStage(d)
	if err := s.Initialize(l.env); err != nil {
		return err
	}
	l.registry.Register(d)
	l.stages[d.Name] = s
	return nil
}

// Lookup returns the stage registered under name.
func (l *Library) Lookup(name string) (Effect, error) {
	s, ok := l.stages[name]
	if !ok {
		return nil, &UnknownFilterError{Name: name}
	}
	return s, nil
}

func (l *Library) Has(name string) bool {
	_, ok := l.stages[name]
	return ok
}

// Names lists the catalog in sorted order.
func (l *Library) Names() []string { return l.registry.Names() }

// Rand is the random source shared by the stages.
func (l *Library) Rand() *rand.Rand { return l.env.Rand }

// Load compiles descriptors into the library after startup. New names are
// added; existing stages are recompiled in place so chains referencing them
// pick up the change. Failures leave the previous state of that name intact.
func (l *Library) Load(descs []Descriptor) ([]string, error) {
	var loaded []string
	var errs []error
	for _, d := range descs {
		var err error
		if s, ok := l.stages[d.Name]; ok {
			err = s.Recompile(l.env, d)
			if err == nil {
				l.registry.Register(d)
			}
		} else {
			err = l.add(d)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, d.Name)
	}
	return loaded, errors.Join(errs...)
}

// Cleanup releases every program and the shared quad.
func (l *Library) Cleanup() {
	for _, s := range l.stages {
		s.Cleanup(l.env.Device)
	}
	if l.env.Quad != 0 {
		l.env.Device.DeleteVertexArray(l.env.Quad)
		l.env.Quad = 0
	}
}
