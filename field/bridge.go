package field

import (
	"github.com/pthm-cable/glowfield/camera"
	"github.com/pthm-cable/glowfield/host"
)

// handlePointerMove stores the pointer in NDC. The latest event wins; the
// frame loop reads whatever value is current when it draws.
func (r *Renderer) handlePointerMove(ev host.PointerEvent) {
	if !r.opts.Interactive || r.torn {
		return
	}
	w, h := r.host.Viewport()
	x, y := camera.ScreenToNDC(ev.ClientX, ev.ClientY, w, h)
	r.state.Pointer[0] = x
	r.state.Pointer[1] = y
}

// handleResize applies the new viewport and the current pixel ratio to the
// camera and the surface immediately rather than on the next frame.
func (r *Renderer) handleResize(ev host.ResizeEvent) {
	if r.torn || ev.Width <= 0 || ev.Height <= 0 {
		return
	}

	r.cam.Resize(ev.Width, ev.Height)
	r.state.Aspect = r.cam.Aspect()

	r.surface.Width = ev.Width
	r.surface.Height = ev.Height
	r.surface.PixelRatio = clampPixelRatio(r.host.PixelRatio())
	r.gpu.ResizeSurface(r.framebufferSize())
}
