// Package raylibhost runs the field inside a raylib window. The window is
// the viewport, the render surface fills it, and every pass of the main
// loop is one refresh tick.
package raylibhost

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glowfield/config"
	"github.com/pthm-cable/glowfield/host"
)

// Host is a host.Host backed by a raylib window.
type Host struct {
	*host.Dispatcher
	host.Mounts

	screen  config.ScreenConfig
	clear   rl.Color
	start   time.Time
	pointer rl.Vector2

	// Overlay, when set, draws on top of the field each frame.
	Overlay func()
}

// Open creates the window. Call Close when done.
func Open(screen config.ScreenConfig, clear [4]uint8) *Host {
	rl.SetConfigFlags(configFlags(screen, clear))
	rl.InitWindow(int32(screen.Width), int32(screen.Height), screen.Title)
	if screen.TargetFPS > 0 {
		rl.SetTargetFPS(int32(screen.TargetFPS))
	}

	return &Host{
		Dispatcher: host.NewDispatcher(),
		screen:     screen,
		clear:      rl.NewColor(clear[0], clear[1], clear[2], clear[3]),
		start:      time.Now(),
		pointer:    rl.GetMousePosition(),
	}
}

func configFlags(screen config.ScreenConfig, clear [4]uint8) uint32 {
	flags := uint32(rl.FlagMsaa4xHint)
	if screen.TargetFPS == 0 {
		flags |= rl.FlagVsyncHint
	}
	if screen.Resizable {
		flags |= rl.FlagWindowResizable
	}
	if clear[3] < 255 {
		flags |= rl.FlagWindowTransparent
	}
	if screen.PixelRatio != 1 {
		flags |= rl.FlagWindowHighdpi
	}
	return flags
}

// Close destroys the window.
func (h *Host) Close() {
	rl.CloseWindow()
}

// Viewport returns the window size in screen pixels.
func (h *Host) Viewport() (float32, float32) {
	return float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
}

// PixelRatio returns the ratio of the render framebuffer to the window
// size. It exceeds 1 only when the window was opened high-DPI.
func (h *Host) PixelRatio() float32 {
	if !rl.IsWindowReady() {
		return 1
	}
	return renderScale(rl.GetRenderWidth(), rl.GetScreenWidth())
}

// renderScale is the framebuffer density, capped at config.MaxPixelRatio.
func renderScale(renderW, screenW int) float32 {
	if renderW <= 0 || screenW <= 0 {
		return 1
	}
	return min(max(float32(renderW)/float32(screenW), 1), config.MaxPixelRatio)
}

// Attach mounts the surface on the window.
func (h *Host) Attach(s *host.Surface) error {
	if !rl.IsWindowReady() {
		return fmt.Errorf("raylib host: %w", host.ErrNoSurface)
	}
	h.Mount(s)
	return nil
}

// Detach unmounts the surface.
func (h *Host) Detach(s *host.Surface) {
	h.Unmount(s)
}

// Now returns the host clock in ms since Open.
func (h *Host) Now() float64 {
	return float64(time.Since(h.start).Microseconds()) / 1000
}

// Step runs one pass of the main loop: poll input, then draw one frame.
// It returns false once the window wants to close.
func (h *Host) Step() bool {
	if rl.WindowShouldClose() {
		return false
	}
	h.poll()

	rl.BeginDrawing()
	rl.ClearBackground(h.clear)
	h.RunFrame(h.Now())
	if h.Overlay != nil {
		h.Overlay()
	}
	rl.EndDrawing()
	return true
}

// poll turns raylib's polled input state into events.
func (h *Host) poll() {
	if rl.IsWindowResized() {
		h.EmitResize(host.ResizeEvent{
			Width:  float32(rl.GetScreenWidth()),
			Height: float32(rl.GetScreenHeight()),
		})
	}

	mouse := rl.GetMousePosition()
	if mouse != h.pointer {
		h.pointer = mouse
		h.EmitPointer(host.PointerEvent{ClientX: mouse.X, ClientY: mouse.Y})
	}
}
