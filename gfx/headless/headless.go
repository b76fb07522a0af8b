// Package headless provides a recording graphics backend. It performs no
// rendering; it validates calls and keeps enough accounting for tests and
// GPU-less runs.
package headless

import (
	"fmt"

	"github.com/pthm-cable/glowfield/gfx"
)

// Backend records allocations, draws and disposals.
type Backend struct {
	// FailCompile makes CompileProgram fail, simulating a driver that
	// rejects the program.
	FailCompile bool

	nextID   uint32
	buffers  map[uint32]gfx.BufferSpec
	programs map[uint32]gfx.ProgramSource

	// Recorded activity
	Draws    []gfx.DrawCall
	Disposed []gfx.Handle
	Width    int
	Height   int
	Resizes  int
}

// New creates an empty recording backend.
func New() *Backend {
	return &Backend{
		buffers:  make(map[uint32]gfx.BufferSpec),
		programs: make(map[uint32]gfx.ProgramSource),
	}
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

// AllocateBuffer stores a copy of the buffer spec.
func (b *Backend) AllocateBuffer(spec gfx.BufferSpec) (gfx.Handle, error) {
	if spec.Components <= 0 || len(spec.Data)%spec.Components != 0 {
		return gfx.Handle{}, fmt.Errorf("buffer %q: %d floats do not divide into %d components", spec.Name, len(spec.Data), spec.Components)
	}
	data := make([]float32, len(spec.Data))
	copy(data, spec.Data)
	spec.Data = data

	id := b.id()
	b.buffers[id] = spec
	return gfx.Handle{Kind: gfx.KindBuffer, ID: id}, nil
}

// CompileProgram records the program unless FailCompile is set.
func (b *Backend) CompileProgram(src gfx.ProgramSource) (gfx.Handle, error) {
	if b.FailCompile {
		return gfx.Handle{}, fmt.Errorf("headless: %w", gfx.ErrCompile)
	}
	if src.VertexGLSL == "" || src.FragmentGLSL == "" {
		return gfx.Handle{}, fmt.Errorf("headless: empty stage: %w", gfx.ErrCompile)
	}
	id := b.id()
	b.programs[id] = src
	return gfx.Handle{Kind: gfx.KindProgram, ID: id}, nil
}

// Draw validates the handles and records the call.
func (b *Backend) Draw(call gfx.DrawCall) error {
	if _, ok := b.programs[call.Program.ID]; !ok || call.Program.Kind != gfx.KindProgram {
		return fmt.Errorf("draw with program %d: %w", call.Program.ID, gfx.ErrDisposed)
	}
	for _, h := range []gfx.Handle{call.Position, call.Color, call.Size} {
		if _, ok := b.buffers[h.ID]; !ok || h.Kind != gfx.KindBuffer {
			return fmt.Errorf("draw with buffer %d: %w", h.ID, gfx.ErrDisposed)
		}
	}
	b.Draws = append(b.Draws, call)
	return nil
}

// ResizeSurface records the new framebuffer size.
func (b *Backend) ResizeSurface(width, height int) {
	b.Width = width
	b.Height = height
	b.Resizes++
}

// Dispose releases a handle; unknown handles are ignored.
func (b *Backend) Dispose(h gfx.Handle) {
	switch h.Kind {
	case gfx.KindBuffer:
		if _, ok := b.buffers[h.ID]; !ok {
			return
		}
		delete(b.buffers, h.ID)
	case gfx.KindProgram:
		if _, ok := b.programs[h.ID]; !ok {
			return
		}
		delete(b.programs, h.ID)
	default:
		return
	}
	b.Disposed = append(b.Disposed, h)
}

// Buffer returns the stored data for a live buffer handle.
func (b *Backend) Buffer(h gfx.Handle) (gfx.BufferSpec, bool) {
	spec, ok := b.buffers[h.ID]
	return spec, ok && h.Kind == gfx.KindBuffer
}

// Live returns the number of resources not yet disposed.
func (b *Backend) Live() int {
	return len(b.buffers) + len(b.programs)
}
