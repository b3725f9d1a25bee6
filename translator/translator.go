// Package translator turns WebGL2 fragment sources into the dialect of the
// running GL context.
package translator

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

// Shader is a translated fragment shader. Uniforms maps each declared
// uniform to the name it carries in Code.
type Shader struct {
	Code     string
	Uniforms map[string]string
}

// Translator converts a GLSL ES 3.00 fragment shader. When gles is false the
// output targets desktop GLSL 4.10.
type Translator interface {
	Translate(source string, gles bool) (*Shader, error)
}

// ShaderTranslator is backed by goshadertranslator.
type ShaderTranslator struct {
	mu sync.Mutex
	gt *gst.ShaderTranslator
}

var (
	shared     *ShaderTranslator
	sharedErr  error
	sharedOnce sync.Once
)

// GetTranslator returns the process-wide translator, creating it on first use.
func GetTranslator() (*ShaderTranslator, error) {
	sharedOnce.Do(func() {
		gt, err := gst.NewShaderTranslator(context.Background())
		if err != nil {
			sharedErr = fmt.Errorf("failed to create shader translator: %w", err)
			return
		}
		shared = &ShaderTranslator{gt: gt}
	})
	return shared, sharedErr
}

func (t *ShaderTranslator) Translate(source string, gles bool) (*Shader, error) {
	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fsShader, err := t.gt.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	out := &Shader{Code: fsShader.Code, Uniforms: make(map[string]string, len(fsShader.Variables))}
	for name, v := range fsShader.Variables {
		out.Uniforms[name] = v.MappedName
	}
	return out, nil
}

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*;`)

// Passthrough returns sources unchanged, reporting every declared uniform
// under its own name. It suits devices that accept GLSL ES directly and
// tests that never reach a real compiler.
type Passthrough struct{}

func (Passthrough) Translate(source string, _ bool) (*Shader, error) {
	out := &Shader{Code: source, Uniforms: make(map[string]string)}
	for _, m := range uniformDecl.FindAllStringSubmatch(source, -1) {
		out.Uniforms[m[1]] = m[1]
	}
	return out, nil
}
