// Package ebitengfx draws the particle field with Ebitengine. The vertex
// stage runs on the CPU: each particle is displaced, projected and
// expanded into a screen-space quad; the Kage fragment shader shades the
// sprites and BlendLighter composites them additively.
package ebitengfx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/pthm-cable/glowfield/camera"
	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/shader"
)

// maxBatch keeps the four vertices per particle addressable by uint16
// indices.
const maxBatch = 16383

// Backend implements gfx.Backend on an Ebitengine image.
type Backend struct {
	nextID   uint32
	buffers  map[uint32][]float32
	programs map[uint32]*ebiten.Shader

	target        *ebiten.Image
	width, height int

	vertices []ebiten.Vertex
	indices  []uint16
}

// New creates a backend with no target. Draw fails until SetTarget is
// called.
func New() *Backend {
	return &Backend{
		buffers:  make(map[uint32][]float32),
		programs: make(map[uint32]*ebiten.Shader),
	}
}

// SetTarget sets the image the next draws go to, usually the screen passed
// to ebiten.Game.Draw.
func (b *Backend) SetTarget(img *ebiten.Image) {
	b.target = img
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

// AllocateBuffer keeps a CPU copy of the attribute data.
func (b *Backend) AllocateBuffer(spec gfx.BufferSpec) (gfx.Handle, error) {
	if spec.Components <= 0 || len(spec.Data)%spec.Components != 0 {
		return gfx.Handle{}, fmt.Errorf("buffer %q: bad shape %d/%d", spec.Name, len(spec.Data), spec.Components)
	}
	data := make([]float32, len(spec.Data))
	copy(data, spec.Data)

	id := b.id()
	b.buffers[id] = data
	return gfx.Handle{Kind: gfx.KindBuffer, ID: id}, nil
}

// CompileProgram compiles the Kage fragment stage.
func (b *Backend) CompileProgram(src gfx.ProgramSource) (gfx.Handle, error) {
	if len(src.FragmentKage) == 0 {
		return gfx.Handle{}, fmt.Errorf("ebitengfx: no kage source: %w", gfx.ErrCompile)
	}
	sh, err := ebiten.NewShader(src.FragmentKage)
	if err != nil {
		return gfx.Handle{}, fmt.Errorf("ebitengfx: %w: %w", gfx.ErrCompile, err)
	}

	id := b.id()
	b.programs[id] = sh
	return gfx.Handle{Kind: gfx.KindProgram, ID: id}, nil
}

// Draw projects the particles and submits them in batches.
func (b *Backend) Draw(call gfx.DrawCall) error {
	sh, ok := b.programs[call.Program.ID]
	if !ok || call.Program.Kind != gfx.KindProgram {
		return fmt.Errorf("ebitengfx: program %d: %w", call.Program.ID, gfx.ErrDisposed)
	}
	pos, err := b.buffer(call.Position, 3*call.Count)
	if err != nil {
		return err
	}
	col, err := b.buffer(call.Color, 3*call.Count)
	if err != nil {
		return err
	}
	size, err := b.buffer(call.Size, call.Count)
	if err != nil {
		return err
	}
	if b.target == nil {
		return gfx.ErrNoContext
	}

	b.vertices = b.vertices[:0]
	for i := 0; i < call.Count; i++ {
		b.vertices = appendSprite(b.vertices, call.Uniforms,
			mgl32.Vec3{pos[3*i], pos[3*i+1], pos[3*i+2]},
			mgl32.Vec3{col[3*i], col[3*i+1], col[3*i+2]},
			size[i],
		)
	}

	opts := &ebiten.DrawTrianglesShaderOptions{Blend: blend(call.Blend)}
	for start := 0; start < len(b.vertices); start += 4 * maxBatch {
		end := min(start+4*maxBatch, len(b.vertices))
		batch := b.vertices[start:end]
		b.indices = quadIndices(b.indices[:0], len(batch)/4)
		b.target.DrawTrianglesShader(batch, b.indices, sh, opts)
	}
	return nil
}

func (b *Backend) buffer(h gfx.Handle, want int) ([]float32, error) {
	data, ok := b.buffers[h.ID]
	if !ok || h.Kind != gfx.KindBuffer {
		return nil, fmt.Errorf("ebitengfx: buffer %d: %w", h.ID, gfx.ErrDisposed)
	}
	if len(data) < want {
		return nil, fmt.Errorf("ebitengfx: buffer %d holds %d floats, need %d", h.ID, len(data), want)
	}
	return data, nil
}

// appendSprite runs the vertex stage for one particle and appends its
// quad. Particles behind the camera are skipped.
func appendSprite(dst []ebiten.Vertex, u gfx.Uniforms, base, color mgl32.Vec3, size float32) []ebiten.Vertex {
	pos := shader.Displace(base, u.Time, u.Mouse)
	mv := u.ModelView.Mul4x1(pos.Vec4(1))
	if mv.Z() >= 0 {
		return dst
	}
	half := shader.PointSize(size, mv.Z()) / 2

	cx, cy, ok := camera.ClipToViewport(u.Projection.Mul4x1(mv), u.Viewport[0], u.Viewport[1])
	if !ok {
		return dst
	}

	for _, c := range [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}} {
		dst = append(dst, ebiten.Vertex{
			// Screen y grows downward; corner y grows upward.
			DstX:   cx + c[0]*2*half,
			DstY:   cy - c[1]*2*half,
			SrcX:   c[0],
			SrcY:   c[1],
			ColorR: color[0],
			ColorG: color[1],
			ColorB: color[2],
			ColorA: 1,
		})
	}
	return dst
}

// quadIndices appends two triangles per quad of four vertices.
func quadIndices(dst []uint16, quads int) []uint16 {
	for q := 0; q < quads; q++ {
		v := uint16(4 * q)
		dst = append(dst, v, v+1, v+2, v, v+2, v+3)
	}
	return dst
}

func blend(m gfx.BlendMode) ebiten.Blend {
	switch m {
	case gfx.BlendAdditive:
		return ebiten.BlendLighter
	}
	return ebiten.BlendSourceOver
}

// ResizeSurface records the framebuffer size. The screen image already
// follows the window.
func (b *Backend) ResizeSurface(width, height int) {
	b.width = width
	b.height = height
}

// Size returns the last framebuffer size reported to the backend.
func (b *Backend) Size() (int, int) {
	return b.width, b.height
}

// Dispose releases a buffer or a shader.
func (b *Backend) Dispose(h gfx.Handle) {
	switch h.Kind {
	case gfx.KindBuffer:
		delete(b.buffers, h.ID)
	case gfx.KindProgram:
		if sh, ok := b.programs[h.ID]; ok {
			sh.Deallocate()
			delete(b.programs, h.ID)
		}
	}
}
