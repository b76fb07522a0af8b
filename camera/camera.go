// Package camera provides the perspective camera that frames the particle field.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/glowfield/config"
)

// Camera is a perspective camera on the +Z axis looking at the origin.
type Camera struct {
	// Vertical field of view in degrees
	FOV float32

	// Clip planes
	Near, Far float32

	// Distance from the origin along +Z
	Distance float32

	// Viewport dimensions (surface size in CSS-equivalent pixels)
	ViewportW, ViewportH float32

	aspect     float32
	view       mgl32.Mat4
	projection mgl32.Mat4
}

// DefaultConfig mirrors the embedded config defaults.
func DefaultConfig() config.CameraConfig {
	return config.CameraConfig{FOV: 75, Near: 0.1, Far: 1000, Distance: 30}
}

// New creates a camera for the given viewport.
func New(viewportW, viewportH float32, cfg config.CameraConfig) *Camera {
	c := &Camera{
		FOV:       cfg.FOV,
		Near:      cfg.Near,
		Far:       cfg.Far,
		Distance:  cfg.Distance,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
	c.view = mgl32.LookAtV(
		mgl32.Vec3{0, 0, c.Distance},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 1, 0},
	)
	c.updateProjection()
	return c
}

// Resize updates viewport dimensions and recomputes the projection.
// Returns false when the size is unchanged or degenerate.
func (c *Camera) Resize(viewportW, viewportH float32) bool {
	if viewportW <= 0 || viewportH <= 0 {
		return false
	}
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return false
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateProjection()
	return true
}

func (c *Camera) updateProjection() {
	c.aspect = 1
	if c.ViewportW > 0 && c.ViewportH > 0 {
		c.aspect = c.ViewportW / c.ViewportH
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.aspect, c.Near, c.Far)
}

// Aspect returns the current width/height ratio.
func (c *Camera) Aspect() float32 {
	return c.aspect
}

// View returns the world-to-view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

// Projection returns the view-to-clip matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

// Model returns the rigid rotation of the point cloud.
// Euler order is XYZ: pitch about X, then yaw about Y.
func Model(yaw, pitch float64) mgl32.Mat4 {
	return mgl32.HomogRotate3DX(float32(pitch)).Mul4(mgl32.HomogRotate3DY(float32(yaw)))
}

// ModelView returns view * model for the given cloud rotation.
func (c *Camera) ModelView(yaw, pitch float64) mgl32.Mat4 {
	return c.view.Mul4(Model(yaw, pitch))
}

// ScreenToNDC converts a pointer position in viewport pixels to normalized
// device coordinates. Y is flipped so that up is positive.
func (c *Camera) ScreenToNDC(x, y float32) (nx, ny float32) {
	return ScreenToNDC(x, y, c.ViewportW, c.ViewportH)
}

// ScreenToNDC converts a pointer position to NDC for a viewport of the given size.
// A degenerate viewport maps everything to the origin.
func ScreenToNDC(x, y, viewportW, viewportH float32) (nx, ny float32) {
	if viewportW <= 0 || viewportH <= 0 {
		return 0, 0
	}
	nx = (x/viewportW)*2 - 1
	ny = -(y/viewportH)*2 + 1
	return nx, ny
}

// ClipToScreen converts a clip-space position to viewport pixels.
// ok is false for points behind the camera.
func (c *Camera) ClipToScreen(clip mgl32.Vec4) (sx, sy float32, ok bool) {
	return ClipToViewport(clip, c.ViewportW, c.ViewportH)
}

// ClipToViewport converts a clip-space position to pixels of a viewport of
// the given size, y pointing down. ok is false for points behind the camera.
func ClipToViewport(clip mgl32.Vec4, viewportW, viewportH float32) (sx, sy float32, ok bool) {
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	sx = (ndcX + 1) / 2 * viewportW
	sy = (1 - ndcY) / 2 * viewportH
	return sx, sy, true
}
