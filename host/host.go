// Package host models the environment the particle field is mounted into:
// a mount point for the render surface, pointer and resize signals, and a
// refresh-synchronized frame callback.
//
// All callbacks run on the host's single loop and never overlap.
package host

import "errors"

// ErrNoSurface is returned by Attach when the host cannot provide a
// graphics-capable surface.
var ErrNoSurface = errors.New("no render surface available")

// PointerEvent carries a pointer position in viewport pixels.
type PointerEvent struct {
	ClientX, ClientY float32
}

// ResizeEvent carries the new viewport size in pixels.
type ResizeEvent struct {
	Width, Height float32
}

// FrameFunc is called once per display refresh with the host clock in ms.
type FrameFunc func(nowMs float64)

// FrameID identifies a pending frame request.
type FrameID uint64

// Surface is the render surface placed behind page content.
type Surface struct {
	ClassName     string // Styling hook, passed through untouched
	Width, Height float32
	Fixed         bool // Fixed-position, full-viewport backdrop
	PixelRatio    float32

	attached bool
}

// Attached reports whether the surface is currently mounted.
func (s *Surface) Attached() bool {
	return s != nil && s.attached
}

// Host is the environment boundary.
type Host interface {
	// Viewport returns the current viewport size in pixels.
	Viewport() (width, height float32)
	// PixelRatio returns the device pixel ratio.
	PixelRatio() float32

	// Attach mounts the surface. Fails with ErrNoSurface when no graphics
	// context exists.
	Attach(s *Surface) error
	// Detach unmounts the surface. Detaching twice is a no-op.
	Detach(s *Surface)

	OnPointerMove(fn func(PointerEvent)) (unsubscribe func())
	OnResize(fn func(ResizeEvent)) (unsubscribe func())

	// RequestFrame schedules fn for the next refresh.
	RequestFrame(fn FrameFunc) FrameID
	// CancelFrame drops a pending request; unknown ids are ignored.
	CancelFrame(id FrameID)
}
