// Package ebitenhost runs the field inside an Ebitengine game loop. The
// host implements ebiten.Game: Update polls input, Draw runs the frame
// callbacks and Layout reports window size changes.
package ebitenhost

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/pthm-cable/glowfield/config"
	"github.com/pthm-cable/glowfield/host"
)

// Target receives the screen image before each frame runs.
type Target interface {
	SetTarget(img *ebiten.Image)
}

// Host is a host.Host backed by an Ebitengine window.
type Host struct {
	*host.Dispatcher
	host.Mounts

	screen  config.ScreenConfig
	clear   color.RGBA
	targets []Target
	start   time.Time

	width, height float32 // Window size in screen pixels
	ratio         float32
	deviceScale   func() float64

	pointerX, pointerY int
	stopped            bool

	// Overlay, when set, draws on top of the field each frame.
	Overlay func(screen *ebiten.Image)
}

// New creates a host for the given screen config. Each target gets the
// screen image before the frame callbacks run.
func New(screen config.ScreenConfig, clear [4]uint8, targets ...Target) *Host {
	return &Host{
		Dispatcher:  host.NewDispatcher(),
		screen:      screen,
		clear:       color.RGBA{R: clear[0], G: clear[1], B: clear[2], A: clear[3]},
		targets:     targets,
		start:       time.Now(),
		width:       float32(screen.Width),
		height:      float32(screen.Height),
		pointerX:    -1,
		pointerY:    -1,
		deviceScale: monitorScale,
	}
}

func monitorScale() float64 {
	return ebiten.Monitor().DeviceScaleFactor()
}

// Run opens the window and blocks until it closes or Stop is called.
func (h *Host) Run() error {
	ebiten.SetWindowSize(h.screen.Width, h.screen.Height)
	ebiten.SetWindowTitle(h.screen.Title)
	if h.screen.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if h.screen.TargetFPS > 0 {
		ebiten.SetTPS(h.screen.TargetFPS)
	}
	ebiten.SetVsyncEnabled(true)

	return ebiten.RunGameWithOptions(h, &ebiten.RunGameOptions{
		ScreenTransparent: h.clear.A < 255,
	})
}

// Stop ends the game loop at the next update.
func (h *Host) Stop() {
	h.stopped = true
}

// Viewport returns the window size in screen pixels.
func (h *Host) Viewport() (float32, float32) {
	return h.width, h.height
}

// PixelRatio returns the configured ratio, or the monitor scale when none
// is configured. The value is capped so the screen image matches the
// framebuffer the field computes. It is refreshed on every Layout.
func (h *Host) PixelRatio() float32 {
	if h.ratio == 0 {
		h.refreshRatio()
	}
	return h.ratio
}

// refreshRatio recomputes the pixel ratio and reports whether it changed.
func (h *Host) refreshRatio() bool {
	ratio := h.screen.PixelRatio
	if ratio <= 0 {
		ratio = float32(h.deviceScale())
	}
	ratio = min(max(ratio, 1), config.MaxPixelRatio)
	if ratio == h.ratio {
		return false
	}
	h.ratio = ratio
	return true
}

// Attach mounts the surface. The window is created by Run, so attaching
// before it always succeeds.
func (h *Host) Attach(s *host.Surface) error {
	h.Mount(s)
	return nil
}

// Detach unmounts the surface.
func (h *Host) Detach(s *host.Surface) {
	h.Unmount(s)
}

// Now returns the host clock in ms since New.
func (h *Host) Now() float64 {
	return float64(time.Since(h.start).Microseconds()) / 1000
}

// Update polls the cursor and emits a pointer event when it moved.
func (h *Host) Update() error {
	if h.stopped {
		return ebiten.Termination
	}

	x, y := ebiten.CursorPosition()
	if x != h.pointerX || y != h.pointerY {
		h.pointerX, h.pointerY = x, y
		ratio := h.PixelRatio()
		h.EmitPointer(host.PointerEvent{ClientX: float32(x) / ratio, ClientY: float32(y) / ratio})
	}
	return nil
}

// Draw clears the screen and runs the pending frame callbacks against it.
func (h *Host) Draw(screen *ebiten.Image) {
	screen.Fill(h.clear)
	for _, t := range h.targets {
		t.SetTarget(screen)
	}
	h.RunFrame(h.Now())
	if h.Overlay != nil {
		h.Overlay(screen)
	}
}

// Layout emits a resize when the window size or the device scale changes,
// for example after the window moved to another monitor, and sizes the
// screen image in device pixels.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	first := h.ratio == 0
	ratioChanged := h.refreshRatio() && !first

	w, hgt := float32(outsideWidth), float32(outsideHeight)
	if w > 0 && hgt > 0 && (w != h.width || hgt != h.height || ratioChanged) {
		h.width, h.height = w, hgt
		h.EmitResize(host.ResizeEvent{Width: w, Height: hgt})
	}
	return int(w * h.ratio), int(hgt * h.ratio)
}
