// Package rlgl draws the particle field through raylib's rlgl layer: one
// instanced draw of a six-vertex quad per particle, with the particle
// attributes advancing once per instance.
package rlgl

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/shader"
)

const glFloat = 0x1406

type buffer struct {
	vbo        uint32
	components int32
	count      int
}

type program struct {
	shader rl.Shader
	vao    uint32
	corner uint32 // Static quad corner buffer

	timeLoc       int32
	mouseLoc      int32
	modelViewLoc  int32
	projectionLoc int32
	viewportLoc   int32

	attribs map[string]int32
}

// Backend implements gfx.Backend on the current raylib window.
type Backend struct {
	nextID   uint32
	buffers  map[uint32]*buffer
	programs map[uint32]*program

	width, height int
}

// New creates a backend. The raylib window must be initialized before any
// resource is allocated.
func New() *Backend {
	return &Backend{
		buffers:  make(map[uint32]*buffer),
		programs: make(map[uint32]*program),
	}
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

// AllocateBuffer uploads a static vertex buffer.
func (b *Backend) AllocateBuffer(spec gfx.BufferSpec) (gfx.Handle, error) {
	if !rl.IsWindowReady() {
		return gfx.Handle{}, gfx.ErrNoContext
	}
	if spec.Components <= 0 || len(spec.Data) == 0 || len(spec.Data)%spec.Components != 0 {
		return gfx.Handle{}, fmt.Errorf("buffer %q: bad shape %d/%d", spec.Name, len(spec.Data), spec.Components)
	}

	vbo := rl.LoadVertexBuffer(spec.Data, false)
	if vbo == 0 {
		return gfx.Handle{}, fmt.Errorf("buffer %q: upload failed", spec.Name)
	}

	id := b.id()
	b.buffers[id] = &buffer{
		vbo:        vbo,
		components: int32(spec.Components),
		count:      len(spec.Data) / spec.Components,
	}
	return gfx.Handle{Kind: gfx.KindBuffer, ID: id}, nil
}

// CompileProgram builds the GLSL program and its vertex array. raylib falls
// back to its default shader when compilation fails, so failure shows up
// as missing uniforms.
func (b *Backend) CompileProgram(src gfx.ProgramSource) (gfx.Handle, error) {
	if !rl.IsWindowReady() {
		return gfx.Handle{}, gfx.ErrNoContext
	}

	sh := rl.LoadShaderFromMemory(src.VertexGLSL, src.FragmentGLSL)
	p := &program{
		shader:        sh,
		timeLoc:       rl.GetShaderLocation(sh, shader.UniformTime),
		mouseLoc:      rl.GetShaderLocation(sh, shader.UniformMouse),
		modelViewLoc:  rl.GetShaderLocation(sh, shader.UniformModelView),
		projectionLoc: rl.GetShaderLocation(sh, shader.UniformProjection),
		viewportLoc:   rl.GetShaderLocation(sh, shader.UniformViewport),
		attribs:       make(map[string]int32, 4),
	}
	for _, name := range []string{shader.AttribCorner, shader.AttribPosition, shader.AttribColor, shader.AttribSize} {
		p.attribs[name] = rl.GetShaderLocationAttrib(sh, name)
	}

	if missing := p.missing(); missing != "" {
		rl.UnloadShader(sh)
		return gfx.Handle{}, fmt.Errorf("rlgl: %s not found: %w", missing, gfx.ErrCompile)
	}

	corners := flattenCorners()
	p.vao = rl.LoadVertexArray()
	p.corner = rl.LoadVertexBuffer(corners, false)

	id := b.id()
	b.programs[id] = p
	return gfx.Handle{Kind: gfx.KindProgram, ID: id}, nil
}

// missing names the first uniform or attribute the linked program lacks.
func (p *program) missing() string {
	uniforms := []struct {
		name string
		loc  int32
	}{
		{shader.UniformModelView, p.modelViewLoc},
		{shader.UniformProjection, p.projectionLoc},
		{shader.UniformViewport, p.viewportLoc},
	}
	for _, u := range uniforms {
		if u.loc < 0 {
			return "uniform " + u.name
		}
	}
	for name, loc := range p.attribs {
		if loc < 0 {
			return "attribute " + name
		}
	}
	return ""
}

// Draw renders the particles in one instanced call.
func (b *Backend) Draw(call gfx.DrawCall) error {
	p, ok := b.programs[call.Program.ID]
	if !ok || call.Program.Kind != gfx.KindProgram {
		return fmt.Errorf("rlgl: program %d: %w", call.Program.ID, gfx.ErrDisposed)
	}
	bufs := map[string]gfx.Handle{
		shader.AttribPosition: call.Position,
		shader.AttribColor:    call.Color,
		shader.AttribSize:     call.Size,
	}
	resolved := make(map[string]*buffer, len(bufs))
	for name, h := range bufs {
		buf, ok := b.buffers[h.ID]
		if !ok || h.Kind != gfx.KindBuffer {
			return fmt.Errorf("rlgl: %s buffer %d: %w", name, h.ID, gfx.ErrDisposed)
		}
		if buf.count < call.Count {
			return fmt.Errorf("rlgl: %s buffer holds %d of %d particles", name, buf.count, call.Count)
		}
		resolved[name] = buf
	}
	if call.Count == 0 {
		return nil
	}

	// Flush whatever raylib has batched so far; the raw calls below bypass
	// the batch.
	rl.DrawRenderBatchActive()
	rl.DisableDepthTest()
	rl.BeginBlendMode(blendMode(call.Blend))

	rl.EnableShader(p.shader.ID)
	p.setUniforms(call.Uniforms)

	rl.EnableVertexArray(p.vao)
	bindAttribute(p.attribs[shader.AttribCorner], p.corner, 2, 0)
	for name, buf := range resolved {
		bindAttribute(p.attribs[name], buf.vbo, buf.components, 1)
	}
	rl.DrawVertexArrayInstanced(0, int32(len(shader.QuadCorners)), int32(call.Count))
	rl.DisableVertexArray()

	rl.DisableShader()
	rl.EndBlendMode()
	return nil
}

func bindAttribute(loc int32, vbo uint32, components int32, divisor int32) {
	rl.EnableVertexBuffer(vbo)
	rl.SetVertexAttribute(uint32(loc), components, glFloat, false, 0, 0)
	rl.EnableVertexAttribute(uint32(loc))
	rl.SetVertexAttributeDivisor(uint32(loc), divisor)
}

func (p *program) setUniforms(u gfx.Uniforms) {
	if p.timeLoc >= 0 {
		rl.SetShaderValue(p.shader, p.timeLoc, []float32{u.Time}, rl.ShaderUniformFloat)
	}
	if p.mouseLoc >= 0 {
		rl.SetShaderValue(p.shader, p.mouseLoc, u.Mouse[:], rl.ShaderUniformVec2)
	}
	rl.SetShaderValue(p.shader, p.viewportLoc, u.Viewport[:], rl.ShaderUniformVec2)
	rl.SetShaderValueMatrix(p.shader, p.modelViewLoc, toMatrix(u.ModelView))
	rl.SetShaderValueMatrix(p.shader, p.projectionLoc, toMatrix(u.Projection))
}

// ResizeSurface records the framebuffer size. The window itself is resized
// by the user or the host.
func (b *Backend) ResizeSurface(width, height int) {
	b.width = width
	b.height = height
}

// Size returns the last framebuffer size reported to the backend.
func (b *Backend) Size() (int, int) {
	return b.width, b.height
}

// Dispose releases a buffer or a program with its vertex array.
func (b *Backend) Dispose(h gfx.Handle) {
	switch h.Kind {
	case gfx.KindBuffer:
		buf, ok := b.buffers[h.ID]
		if !ok {
			return
		}
		rl.UnloadVertexBuffer(buf.vbo)
		delete(b.buffers, h.ID)
	case gfx.KindProgram:
		p, ok := b.programs[h.ID]
		if !ok {
			return
		}
		rl.UnloadVertexBuffer(p.corner)
		rl.UnloadVertexArray(p.vao)
		rl.UnloadShader(p.shader)
		delete(b.programs, h.ID)
	}
}

func blendMode(m gfx.BlendMode) rl.BlendMode {
	switch m {
	case gfx.BlendAdditive:
		return rl.BlendAdditive
	}
	return rl.BlendAlpha
}

// toMatrix converts a column-major mgl32 matrix to raylib's layout, which
// names elements column-major too.
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

func flattenCorners() []float32 {
	out := make([]float32, 0, len(shader.QuadCorners)*2)
	for _, c := range shader.QuadCorners {
		out = append(out, c[0], c[1])
	}
	return out
}
