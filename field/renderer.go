// Package field implements the particle field renderer: a decorative point
// cloud drawn with one shader program, animated every display refresh and
// biased toward the pointer.
//
// A Renderer owns its render surface, GPU buffers, program and event
// subscriptions from New until Teardown. Everything runs on the host's
// single loop; no locking is involved.
package field

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/glowfield/camera"
	"github.com/pthm-cable/glowfield/config"
	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/host"
	"github.com/pthm-cable/glowfield/shader"
	"github.com/pthm-cable/glowfield/telemetry"
)

// Renderer is one mounted particle field.
type Renderer struct {
	opts   Options
	host   host.Host
	gpu    gfx.Backend
	logger *slog.Logger
	perf   *telemetry.PerfCollector

	attrs   *Attributes
	state   State
	cam     *camera.Camera
	surface *host.Surface

	program  gfx.Handle
	position gfx.Handle
	color    gfx.Handle
	size     gfx.Handle

	sched       *Scheduler
	unsubscribe []func()

	drawFailed bool
	torn       bool
}

// New initializes the field: mounts the surface, builds the particle
// buffers, compiles the program, subscribes to host events and starts the
// frame loop. On failure every resource acquired so far is released.
func New(h host.Host, gpu gfx.Backend, opts Options, options ...Option) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := newSettings(options)

	r := &Renderer{
		opts:   opts,
		host:   h,
		gpu:    gpu,
		logger: s.logger,
		perf:   s.perf,
	}

	w, hgt := h.Viewport()
	r.surface = &host.Surface{
		ClassName:  opts.ClassName,
		Width:      w,
		Height:     hgt,
		Fixed:      true,
		PixelRatio: clampPixelRatio(h.PixelRatio()),
	}
	if err := h.Attach(r.surface); err != nil {
		r.Teardown()
		return nil, fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
	}

	r.cam = camera.New(w, hgt, s.camera)
	r.state.Aspect = r.cam.Aspect()
	r.gpu.ResizeSurface(r.framebufferSize())

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r.attrs = Generate(opts.ParticleCount, rand.New(rand.NewSource(seed)))

	if err := r.allocateBuffers(); err != nil {
		r.Teardown()
		return nil, fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
	}

	program, err := gpu.CompileProgram(gfx.ProgramSource{
		VertexGLSL:   shader.VertexGLSL,
		FragmentGLSL: shader.FragmentGLSL,
		FragmentKage: shader.FragmentKage,
	})
	if err != nil {
		r.Teardown()
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	r.program = program

	r.subscribe()
	r.sched = startScheduler(h, r.frame)

	r.logger.Info("field mounted",
		"particles", opts.ParticleCount,
		"interactive", opts.Interactive,
		"viewport_w", w,
		"viewport_h", hgt,
		"seed", seed,
	)
	return r, nil
}

func (r *Renderer) allocateBuffers() error {
	specs := []struct {
		dst  *gfx.Handle
		spec gfx.BufferSpec
	}{
		{&r.position, gfx.BufferSpec{Name: shader.AttribPosition, Components: 3, Data: r.attrs.Positions}},
		{&r.color, gfx.BufferSpec{Name: shader.AttribColor, Components: 3, Data: r.attrs.Colors}},
		{&r.size, gfx.BufferSpec{Name: shader.AttribSize, Components: 1, Data: r.attrs.Sizes}},
	}
	for _, s := range specs {
		handle, err := r.gpu.AllocateBuffer(s.spec)
		if err != nil {
			return fmt.Errorf("allocating %s buffer: %w", s.spec.Name, err)
		}
		*s.dst = handle
	}
	return nil
}

func (r *Renderer) subscribe() {
	r.unsubscribe = append(r.unsubscribe, r.host.OnResize(r.handleResize))
	if r.opts.Interactive {
		r.unsubscribe = append(r.unsubscribe, r.host.OnPointerMove(r.handlePointerMove))
	}
}

// frame advances the state to nowMs and issues one draw call.
func (r *Renderer) frame(nowMs float64) {
	if r.perf != nil {
		r.perf.StartFrame()
		r.perf.StartPhase(telemetry.PhaseUniforms)
	}

	r.state.advance(nowMs)

	fbW, fbH := r.framebufferSize()
	call := gfx.DrawCall{
		Program:  r.program,
		Position: r.position,
		Color:    r.color,
		Size:     r.size,
		Count:    r.attrs.Len(),
		Blend:    gfx.BlendAdditive,
		Uniforms: gfx.Uniforms{
			Time:       float32(r.state.TimeMs),
			Mouse:      r.state.Pointer,
			ModelView:  r.cam.ModelView(r.state.Rotation.Yaw, r.state.Rotation.Pitch),
			Projection: r.cam.Projection(),
			Viewport:   [2]float32{float32(fbW), float32(fbH)},
		},
	}

	if r.perf != nil {
		r.perf.StartPhase(telemetry.PhaseDraw)
	}
	if err := r.gpu.Draw(call); err != nil && !r.drawFailed {
		// Reported once; the loop keeps running so the backdrop recovers
		// if the backend does.
		r.drawFailed = true
		r.logger.Warn("field draw failed", "error", err)
	}
	if r.perf != nil {
		r.perf.EndFrame()
	}
}

// Teardown releases everything in a fixed order: stop scheduling, remove
// listeners, release buffers and program, detach the surface. It is safe
// to call more than once and on a partially initialized renderer.
func (r *Renderer) Teardown() {
	if r.torn {
		return
	}
	r.torn = true

	if r.sched != nil {
		r.sched.Stop()
	}

	for i := len(r.unsubscribe) - 1; i >= 0; i-- {
		r.unsubscribe[i]()
	}
	r.unsubscribe = nil

	for _, h := range []*gfx.Handle{&r.position, &r.color, &r.size, &r.program} {
		if h.Valid() {
			r.gpu.Dispose(*h)
			*h = gfx.Handle{}
		}
	}

	if r.surface != nil && r.surface.Attached() {
		r.host.Detach(r.surface)
	}

	if r.sched != nil {
		r.logger.Info("field torn down", "frames", r.state.Frames)
	}
}

func (r *Renderer) framebufferSize() (int, int) {
	ratio := r.surface.PixelRatio
	return int(r.surface.Width * ratio), int(r.surface.Height * ratio)
}

func clampPixelRatio(ratio float32) float32 {
	switch {
	case ratio <= 0:
		return 1
	case ratio > config.MaxPixelRatio:
		return config.MaxPixelRatio
	}
	return ratio
}

// State returns a copy of the current field state.
func (r *Renderer) State() State {
	return r.state
}

// Attributes returns the particle buffers. Callers must not modify them.
func (r *Renderer) Attributes() *Attributes {
	return r.attrs
}

// Camera returns the field camera.
func (r *Renderer) Camera() *camera.Camera {
	return r.cam
}

// Surface returns the mounted render surface.
func (r *Renderer) Surface() *host.Surface {
	return r.surface
}

// Options returns the construction options.
func (r *Renderer) Options() Options {
	return r.opts
}

// ClassName returns the styling hook of the surface.
func (r *Renderer) ClassName() string {
	return r.opts.ClassName
}

// Running reports whether the frame loop is still scheduling frames.
func (r *Renderer) Running() bool {
	return r.sched != nil && r.sched.State() == Running
}

// setClassName updates the styling hook without touching anything else.
func (r *Renderer) setClassName(name string) {
	r.opts.ClassName = name
	r.surface.ClassName = name
}
