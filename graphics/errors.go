package graphics

import "fmt"

// ShaderCompileError is returned when a shader stage fails to compile.
type ShaderCompileError struct {
	Stage string // "vertex" or "fragment"
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// ShaderLinkError is returned when a program fails to link.
type ShaderLinkError struct {
	Log string
}

func (e *ShaderLinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}

// FramebufferIncompleteError is returned when a render target cannot be completed.
type FramebufferIncompleteError struct {
	Name   string
	Status uint32
}

func (e *FramebufferIncompleteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("framebuffer is not complete (status 0x%x)", e.Status)
	}
	return fmt.Sprintf("framebuffer %s is not complete (status 0x%x)", e.Name, e.Status)
}
