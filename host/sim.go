package host

import "fmt"

// Sim is a synthetic host driven by explicit calls. It backs tests and
// headless runs.
type Sim struct {
	*Dispatcher
	Mounts

	// FailAttach makes Attach fail as if no graphics context existed.
	FailAttach bool

	width, height float32
	pixelRatio    float32
}

// NewSim creates a synthetic host with the given viewport.
func NewSim(width, height float32) *Sim {
	return &Sim{
		Dispatcher: NewDispatcher(),
		width:      width,
		height:     height,
		pixelRatio: 1,
	}
}

// Viewport returns the synthetic viewport size.
func (s *Sim) Viewport() (float32, float32) { return s.width, s.height }

// PixelRatio returns the synthetic device pixel ratio.
func (s *Sim) PixelRatio() float32 { return s.pixelRatio }

// SetPixelRatio changes the device pixel ratio reported to new surfaces.
func (s *Sim) SetPixelRatio(r float32) { s.pixelRatio = r }

// Attach mounts the surface unless FailAttach is set.
func (s *Sim) Attach(surface *Surface) error {
	if s.FailAttach {
		return fmt.Errorf("sim host: %w", ErrNoSurface)
	}
	s.Mount(surface)
	return nil
}

// Detach unmounts the surface.
func (s *Sim) Detach(surface *Surface) {
	s.Unmount(surface)
}

// Step runs one refresh tick at the given host time.
func (s *Sim) Step(nowMs float64) int {
	return s.RunFrame(nowMs)
}

// MovePointer emits a pointer event at viewport pixel (x, y).
func (s *Sim) MovePointer(x, y float32) {
	s.EmitPointer(PointerEvent{ClientX: x, ClientY: y})
}

// Resize changes the viewport and emits a resize event.
func (s *Sim) Resize(width, height float32) {
	s.width = width
	s.height = height
	s.EmitResize(ResizeEvent{Width: width, Height: height})
}
