// Field preview tool - live particle field with a control panel.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glowfield/config"
	"github.com/pthm-cable/glowfield/field"
	"github.com/pthm-cable/glowfield/gfx/rlgl"
	"github.com/pthm-cable/glowfield/host/raylibhost"
	"github.com/pthm-cable/glowfield/telemetry"
)

const (
	panelX     = 10
	panelWidth = 260
	maxCount   = 5000
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Defaults()
	cfg.Screen.Title = "Field Preview"
	cfg.Screen.TargetFPS = 60
	cfg.Render.ClearColor = [4]uint8{8, 8, 16, 255}

	h := raylibhost.Open(cfg.Screen, cfg.Render.ClearColor)
	defer h.Close()

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	opts := field.OptionsFromConfig(cfg.Field)
	opts.Seed = 1

	c := field.Mount(h, rlgl.New(), opts,
		field.WithLogger(logger),
		field.WithPerf(perf),
		field.WithCamera(cfg.Camera),
	)
	defer c.Unmount()

	pending := opts
	h.Overlay = func() {
		var panelY float32 = 10
		rl.DrawRectangle(panelX-5, int32(panelY)-5, panelWidth+10, 190, rl.Fade(rl.Black, 0.6))
		rl.DrawText("Particle Field", panelX, int32(panelY), 20, rl.RayWhite)
		panelY += 30

		rl.DrawText("Particles", panelX, int32(panelY), 14, rl.Gray)
		panelY += 18
		count := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 60, Height: 20},
			"", "",
			float32(pending.ParticleCount), 1, maxCount,
		)
		pending.ParticleCount = max(1, int(count))
		rl.DrawText(fmt.Sprintf("%d", pending.ParticleCount), panelX+panelWidth-50, int32(panelY)+2, 16, rl.RayWhite)
		panelY += 30

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(pending.Interactive, "Pointer: on", "Pointer: off")) {
			pending.Interactive = !pending.Interactive
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reseed") {
			pending.Seed = int64(rl.GetRandomValue(1, 1<<30))
		}
		panelY += 45

		// Slider drags only rebuild once released.
		if pending != c.Options() && !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
			c.Reconfigure(pending)
		}

		stats := perf.Stats()
		status := "disabled"
		if c.Enabled() {
			status = fmt.Sprintf("yaw %.2f pitch %.2f", c.Renderer().State().Rotation.Yaw, c.Renderer().State().Rotation.Pitch)
		}
		rl.DrawText(fmt.Sprintf("FPS %.0f  work %v", stats.FPS, stats.AvgFrameWork), panelX, int32(panelY), 14, rl.Gray)
		rl.DrawText(status, panelX, int32(panelY)+18, 14, rl.Gray)
	}

	for h.Step() {
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
