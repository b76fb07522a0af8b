// Package gfx defines the graphics capability interface the particle field
// renders through. Backends wrap a native graphics API (raylib's rlgl, ebiten)
// or record calls for headless runs.
package gfx

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// Errors reported by backends.
var (
	// ErrNoContext means no graphics-capable surface is available.
	ErrNoContext = errors.New("no graphics context")
	// ErrCompile means the program failed to compile or link.
	ErrCompile = errors.New("program compile failed")
	// ErrDisposed means a handle was used after Dispose.
	ErrDisposed = errors.New("resource disposed")
)

// Kind distinguishes handle types.
type Kind uint8

const (
	KindBuffer Kind = iota + 1
	KindProgram
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindProgram:
		return "program"
	}
	return "unknown"
}

// Handle names a backend-owned GPU resource.
type Handle struct {
	Kind Kind
	ID   uint32
}

// Valid reports whether the handle refers to an allocated resource.
func (h Handle) Valid() bool {
	return h.Kind != 0 && h.ID != 0
}

// BufferSpec describes one per-particle attribute buffer.
type BufferSpec struct {
	Name       string    // Attribute name in the vertex stage
	Components int       // Floats per particle (3 for vec3, 1 for float)
	Data       []float32 // len(Data) == Components * particle count
}

// ProgramSource carries the program text for every backend flavor.
// Each backend picks the stages it can compile.
type ProgramSource struct {
	VertexGLSL   string
	FragmentGLSL string
	FragmentKage []byte
}

// BlendMode selects how fragments are composited.
type BlendMode uint8

const (
	// BlendAdditive adds alpha-weighted source color to the frame buffer.
	BlendAdditive BlendMode = iota
)

// Uniforms are constant across all particles of one draw call.
type Uniforms struct {
	Time       float32
	Mouse      mgl32.Vec2
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4
	Viewport   mgl32.Vec2 // Framebuffer size in pixels
}

// DrawCall issues one draw of Count particles.
type DrawCall struct {
	Program  Handle
	Position Handle
	Color    Handle
	Size     Handle
	Count    int
	Uniforms Uniforms
	Blend    BlendMode
}

// Backend is the minimal graphics capability set the field needs.
type Backend interface {
	// AllocateBuffer uploads a static attribute buffer.
	AllocateBuffer(spec BufferSpec) (Handle, error)
	// CompileProgram compiles and links the particle program.
	CompileProgram(src ProgramSource) (Handle, error)
	// Draw issues one draw call.
	Draw(call DrawCall) error
	// ResizeSurface resizes the framebuffer the backend draws into.
	ResizeSurface(width, height int)
	// Dispose releases a buffer or program. Disposing an unknown or
	// already released handle is a no-op.
	Dispose(h Handle)
}
