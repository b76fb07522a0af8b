package field

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/gfx/headless"
	"github.com/pthm-cable/glowfield/host"
	"github.com/pthm-cable/glowfield/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T, opts Options) (*Renderer, *host.Sim, *headless.Backend) {
	t.Helper()
	sim := host.NewSim(800, 600)
	gpu := headless.New()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	r, err := New(sim, gpu, opts, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, sim, gpu
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEndToEndFixedFrames(t *testing.T) {
	r, sim, gpu := newTestRenderer(t, Options{ParticleCount: 10, Interactive: false})
	defer r.Teardown()

	for _, now := range []float64{0, 16, 32, 48, 64} {
		if n := sim.Step(now); n != 1 {
			t.Fatalf("expected one frame callback at %v, got %d", now, n)
		}
	}

	st := r.State()
	if !closeTo(st.Rotation.Yaw, 0.005) {
		t.Errorf("expected yaw 0.005, got %v", st.Rotation.Yaw)
	}
	if !closeTo(st.Rotation.Pitch, 0.0025) {
		t.Errorf("expected pitch 0.0025, got %v", st.Rotation.Pitch)
	}
	if st.TimeMs != 64 {
		t.Errorf("expected time 64, got %v", st.TimeMs)
	}

	if len(gpu.Draws) != 5 {
		t.Fatalf("expected 5 draws, got %d", len(gpu.Draws))
	}
	last := gpu.Draws[4]
	if last.Count != 10 || last.Uniforms.Time != 64 {
		t.Errorf("unexpected last draw: count=%d time=%v", last.Count, last.Uniforms.Time)
	}
	if last.Blend != gfx.BlendAdditive {
		t.Error("expected additive blending")
	}
}

func TestBuffersMatchParticleCount(t *testing.T) {
	r, _, gpu := newTestRenderer(t, Options{ParticleCount: 37, Interactive: true})
	defer r.Teardown()

	for _, tc := range []struct {
		h    gfx.Handle
		want int
	}{
		{r.position, 3 * 37},
		{r.color, 3 * 37},
		{r.size, 37},
	} {
		spec, ok := gpu.Buffer(tc.h)
		if !ok {
			t.Fatalf("buffer %v not allocated", tc.h)
		}
		if len(spec.Data) != tc.want {
			t.Errorf("buffer %s: expected %d floats, got %d", spec.Name, tc.want, len(spec.Data))
		}
	}
}

func TestEntityCountStableAcrossFrames(t *testing.T) {
	r, sim, _ := newTestRenderer(t, Options{ParticleCount: 25, Interactive: true})
	defer r.Teardown()

	for i := 0; i < 10; i++ {
		sim.MovePointer(float32(i*10), float32(i*10))
		sim.Step(float64(i * 16))
		if n := r.Attributes().Len(); n != 25 {
			t.Fatalf("frame %d: expected 25 entities, got %d", i, n)
		}
	}
}

func TestMonotonicTimeAndRotation(t *testing.T) {
	r, sim, _ := newTestRenderer(t, Options{ParticleCount: 5})
	defer r.Teardown()

	prev := r.State()
	for _, now := range []float64{0, 16, 10, 40, 40, 100} {
		sim.Step(now)
		cur := r.State()

		if cur.TimeMs < prev.TimeMs {
			t.Errorf("time went backwards: %v -> %v", prev.TimeMs, cur.TimeMs)
		}
		if !closeTo(cur.Rotation.Yaw-prev.Rotation.Yaw, YawStep) {
			t.Errorf("yaw step %v", cur.Rotation.Yaw-prev.Rotation.Yaw)
		}
		if !closeTo(cur.Rotation.Pitch-prev.Rotation.Pitch, PitchStep) {
			t.Errorf("pitch step %v", cur.Rotation.Pitch-prev.Rotation.Pitch)
		}
		prev = cur
	}
	if prev.TimeMs != 100 {
		t.Errorf("expected final time 100, got %v", prev.TimeMs)
	}
}

func TestPointerBridge(t *testing.T) {
	r, sim, gpu := newTestRenderer(t, Options{ParticleCount: 5, Interactive: true})
	defer r.Teardown()

	sim.MovePointer(400, 300)
	if p := r.State().Pointer; math.Abs(float64(p[0])) > 1e-6 || math.Abs(float64(p[1])) > 1e-6 {
		t.Errorf("center should map to (0, 0), got %v", p)
	}

	sim.MovePointer(0, 0)
	if p := r.State().Pointer; p[0] != -1 || p[1] != 1 {
		t.Errorf("top-left should map to (-1, 1), got %v", p)
	}

	// Last write wins between frames
	sim.MovePointer(800, 600)
	sim.MovePointer(200, 150)
	sim.Step(16)
	mouse := gpu.Draws[len(gpu.Draws)-1].Uniforms.Mouse
	if mouse[0] != -0.5 || mouse[1] != 0.5 {
		t.Errorf("expected the latest pointer (-0.5, 0.5) in the draw, got %v", mouse)
	}
}

func TestNonInteractiveIgnoresPointer(t *testing.T) {
	r, sim, gpu := newTestRenderer(t, Options{ParticleCount: 5, Interactive: false})
	defer r.Teardown()

	if sim.PointerListeners() != 0 {
		t.Fatalf("expected no pointer subscription, got %d", sim.PointerListeners())
	}
	if sim.ResizeListeners() != 1 {
		t.Fatalf("expected resize subscription, got %d", sim.ResizeListeners())
	}

	for i := 0; i < 3; i++ {
		sim.MovePointer(10, 20)
		sim.Step(float64(i * 16))
	}

	// The handler itself is gated too
	r.handlePointerMove(host.PointerEvent{ClientX: 1, ClientY: 1})

	if p := r.State().Pointer; p[0] != 0 || p[1] != 0 {
		t.Errorf("pointer must stay at zero, got %v", p)
	}
	for i, d := range gpu.Draws {
		if d.Uniforms.Mouse[0] != 0 || d.Uniforms.Mouse[1] != 0 {
			t.Errorf("draw %d carries mouse %v", i, d.Uniforms.Mouse)
		}
	}
}

func TestResizeBridge(t *testing.T) {
	r, sim, gpu := newTestRenderer(t, Options{ParticleCount: 5})
	defer r.Teardown()

	before := r.Camera().Projection()
	sim.Resize(1000, 500)

	if r.State().Aspect != 2 {
		t.Errorf("expected aspect 2, got %v", r.State().Aspect)
	}
	if r.Camera().Projection() == before {
		t.Error("projection should update before the next frame")
	}
	if gpu.Width != 1000 || gpu.Height != 500 {
		t.Errorf("surface not resized: %dx%d", gpu.Width, gpu.Height)
	}
	if s := r.Surface(); s.Width != 1000 || s.Height != 500 {
		t.Errorf("surface dimensions not updated: %vx%v", s.Width, s.Height)
	}

	sim.Step(16)
	if got := gpu.Draws[0].Uniforms.Projection; got != r.Camera().Projection() {
		t.Error("draw should use the resized projection")
	}
	if v := gpu.Draws[0].Uniforms.Viewport; v[0] != 1000 || v[1] != 500 {
		t.Errorf("unexpected viewport uniform %v", v)
	}
}

func TestPixelRatioClamp(t *testing.T) {
	sim := host.NewSim(400, 300)
	sim.SetPixelRatio(3)
	gpu := headless.New()

	r, err := New(sim, gpu, Options{ParticleCount: 1, Seed: 1}, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Teardown()

	if gpu.Width != 800 || gpu.Height != 600 {
		t.Errorf("expected framebuffer clamped to 2x (800x600), got %dx%d", gpu.Width, gpu.Height)
	}
}

func TestResizePicksUpPixelRatio(t *testing.T) {
	r, sim, gpu := newTestRenderer(t, Options{ParticleCount: 3})
	defer r.Teardown()

	sim.SetPixelRatio(2)
	sim.Resize(800, 600)

	if gpu.Width != 1600 || gpu.Height != 1200 {
		t.Errorf("expected a 1600x1200 framebuffer after the ratio change, got %dx%d", gpu.Width, gpu.Height)
	}
	if r.Surface().PixelRatio != 2 {
		t.Errorf("expected surface ratio 2, got %v", r.Surface().PixelRatio)
	}

	sim.Step(0)
	if v := gpu.Draws[0].Uniforms.Viewport; v[0] != 1600 || v[1] != 1200 {
		t.Errorf("unexpected viewport uniform %v", v)
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	r, sim, gpu := newTestRenderer(t, Options{ParticleCount: 5, Interactive: true})
	sim.Step(0)

	r.Teardown()
	r.Teardown()

	if len(gpu.Disposed) != 4 {
		t.Errorf("expected 4 disposals (3 buffers + program), got %d", len(gpu.Disposed))
	}
	if gpu.Live() != 0 {
		t.Errorf("expected no live resources, got %d", gpu.Live())
	}
	if sim.PointerListeners() != 0 || sim.ResizeListeners() != 0 {
		t.Error("listeners not removed")
	}
	if sim.PendingFrames() != 0 {
		t.Error("pending frame not cancelled")
	}
	if len(sim.Surfaces()) != 0 || r.Surface().Attached() {
		t.Error("surface not detached")
	}
	if r.Running() {
		t.Error("scheduler should be stopped")
	}

	// Events after teardown are ignored
	sim.MovePointer(0, 0)
	sim.Resize(10, 10)
	if sim.Step(100) != 0 {
		t.Error("no frame should run after teardown")
	}
}

// orderedHost and orderedBackend log the release sequence.
type orderedHost struct {
	*host.Sim
	log *[]string
}

func (h orderedHost) CancelFrame(id host.FrameID) {
	*h.log = append(*h.log, "cancel")
	h.Sim.CancelFrame(id)
}

func (h orderedHost) OnResize(fn func(host.ResizeEvent)) func() {
	unsub := h.Sim.OnResize(fn)
	return func() { *h.log = append(*h.log, "unsubscribe"); unsub() }
}

func (h orderedHost) OnPointerMove(fn func(host.PointerEvent)) func() {
	unsub := h.Sim.OnPointerMove(fn)
	return func() { *h.log = append(*h.log, "unsubscribe"); unsub() }
}

func (h orderedHost) Detach(s *host.Surface) {
	*h.log = append(*h.log, "detach")
	h.Sim.Detach(s)
}

type orderedBackend struct {
	*headless.Backend
	log *[]string
}

func (b orderedBackend) Dispose(h gfx.Handle) {
	*b.log = append(*b.log, "dispose "+h.Kind.String())
	b.Backend.Dispose(h)
}

func TestTeardownOrder(t *testing.T) {
	var log []string
	h := orderedHost{Sim: host.NewSim(800, 600), log: &log}
	b := orderedBackend{Backend: headless.New(), log: &log}

	r, err := New(h, b, Options{ParticleCount: 3, Interactive: true, Seed: 1}, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	r.Teardown()

	want := []string{
		"cancel",
		"unsubscribe", "unsubscribe",
		"dispose buffer", "dispose buffer", "dispose buffer", "dispose program",
		"detach",
	}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], log[i])
		}
	}
}

func TestSurfaceUnavailable(t *testing.T) {
	sim := host.NewSim(800, 600)
	sim.FailAttach = true
	gpu := headless.New()

	r, err := New(sim, gpu, DefaultOptions(), WithLogger(quietLogger()))
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable, got %v", err)
	}
	if !errors.Is(err, host.ErrNoSurface) {
		t.Errorf("expected the host cause to be kept, got %v", err)
	}
	if r != nil {
		t.Error("expected nil renderer")
	}
	if gpu.Live() != 0 || sim.ResizeListeners() != 0 || sim.PendingFrames() != 0 {
		t.Error("failed init must not leave resources behind")
	}
}

func TestShaderCompileFailure(t *testing.T) {
	sim := host.NewSim(800, 600)
	gpu := headless.New()
	gpu.FailCompile = true

	_, err := New(sim, gpu, DefaultOptions(), WithLogger(quietLogger()))
	if !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("expected ErrShaderCompile, got %v", err)
	}
	if gpu.Live() != 0 {
		t.Errorf("buffers leaked: %d live", gpu.Live())
	}
	if len(sim.Surfaces()) != 0 {
		t.Error("surface should be detached after failed init")
	}
	if sim.PendingFrames() != 0 || sim.ResizeListeners() != 0 {
		t.Error("no subscriptions or frames expected")
	}
}

func TestInvalidOptions(t *testing.T) {
	_, err := New(host.NewSim(1, 1), headless.New(), Options{ParticleCount: 0})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
}

func TestAttributesNeverMutate(t *testing.T) {
	r, sim, _ := newTestRenderer(t, Options{ParticleCount: 20, Interactive: true})
	defer r.Teardown()

	snapshot := append([]float32(nil), r.Attributes().Positions...)
	for i := 0; i < 10; i++ {
		sim.MovePointer(float32(i*50), float32(i*30))
		sim.Step(float64(i * 16))
	}
	for i, v := range r.Attributes().Positions {
		if v != snapshot[i] {
			t.Fatalf("position %d changed from %v to %v", i, snapshot[i], v)
		}
	}
}

func TestPerfCollectorWired(t *testing.T) {
	sim := host.NewSim(800, 600)
	pc := telemetry.NewPerfCollector(10)

	r, err := New(sim, headless.New(), Options{ParticleCount: 4, Seed: 9}, WithLogger(quietLogger()), WithPerf(pc))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Teardown()

	for i := 0; i < 3; i++ {
		sim.Step(float64(i))
	}
	if pc.Frames() != 3 {
		t.Errorf("expected 3 recorded frames, got %d", pc.Frames())
	}
	if _, ok := pc.Stats().PhaseAvg[telemetry.PhaseDraw]; !ok {
		t.Error("draw phase not recorded")
	}
}
