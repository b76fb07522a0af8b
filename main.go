package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/pthm-cable/glowfield/config"
	"github.com/pthm-cable/glowfield/field"
	"github.com/pthm-cable/glowfield/gfx/ebitengfx"
	"github.com/pthm-cable/glowfield/gfx/headless"
	"github.com/pthm-cable/glowfield/gfx/rlgl"
	"github.com/pthm-cable/glowfield/host"
	"github.com/pthm-cable/glowfield/host/ebitenhost"
	"github.com/pthm-cable/glowfield/host/raylibhost"
	"github.com/pthm-cable/glowfield/telemetry"
)

// headlessFrameMs is the synthetic refresh interval of headless runs.
const headlessFrameMs = 1000.0 / 60

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	backend := flag.String("backend", "", "Render backend: raylib, ebiten or headless (empty = use config)")
	particles := flag.Int("particles", 0, "Particle count (0 = use config)")
	interactive := flag.Bool("interactive", true, "Bias particles toward the pointer")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited, headless defaults to 600)")
	outputDir := flag.String("output-dir", "", "Output directory for perf CSV and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Command line overrides
	if *backend != "" {
		cfg.Render.Backend = *backend
	}
	if *particles > 0 {
		cfg.Field.ParticleCount = *particles
	}
	if *seed != 0 {
		cfg.Field.Seed = *seed
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "interactive" {
			cfg.Field.Interactive = *interactive
		}
	})
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid options", "error", err)
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	rep := &reporter{
		perf:      perf,
		out:       out,
		interval:  int64(cfg.Telemetry.LogInterval),
		logStats:  *logStats,
		maxFrames: int64(*maxFrames),
	}

	opts := field.OptionsFromConfig(cfg.Field)
	fieldOpts := []field.Option{
		field.WithLogger(logger),
		field.WithPerf(perf),
		field.WithCamera(cfg.Camera),
	}

	slog.Info("starting",
		"backend", cfg.Render.Backend,
		"particles", opts.ParticleCount,
		"interactive", opts.Interactive,
		"max_frames", *maxFrames,
	)

	switch cfg.Render.Backend {
	case config.BackendHeadless:
		if rep.maxFrames == 0 {
			rep.maxFrames = 600
		}
		sim := host.NewSim(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32)
		sim.SetPixelRatio(cfg.Derived.PixelRatio)

		c := field.Mount(sim, headless.New(), opts, fieldOpts...)
		defer c.Unmount()

		for i := int64(0); !rep.done(); i++ {
			sim.Step(float64(i) * headlessFrameMs)
			rep.frame()
		}

	case config.BackendEbiten:
		gpu := ebitengfx.New()
		h := ebitenhost.New(cfg.Screen, cfg.Render.ClearColor, gpu)

		c := field.Mount(h, gpu, opts, fieldOpts...)
		defer c.Unmount()

		h.Overlay = func(*ebiten.Image) {
			rep.frame()
			if rep.done() {
				h.Stop()
			}
		}
		if err := h.Run(); err != nil {
			slog.Error("game loop failed", "error", err)
		}

	default:
		h := raylibhost.Open(cfg.Screen, cfg.Render.ClearColor)
		defer h.Close()

		c := field.Mount(h, rlgl.New(), opts, fieldOpts...)
		defer c.Unmount()

		for !rep.done() && h.Step() {
			rep.frame()
		}
	}

	slog.Info("stopped", "frames", rep.frames)
}

// reporter logs and records perf stats every interval frames.
type reporter struct {
	perf      *telemetry.PerfCollector
	out       *telemetry.OutputManager
	interval  int64
	logStats  bool
	maxFrames int64
	frames    int64
}

func (r *reporter) frame() {
	r.frames++
	if r.interval <= 0 || r.frames%r.interval != 0 {
		return
	}

	stats := r.perf.Stats()
	if r.logStats {
		slog.Info("perf", "frame", r.frames, "stats", stats)
	}
	if err := r.out.WritePerf(stats, r.frames); err != nil {
		slog.Warn("failed to write perf stats", "error", err)
	}
}

func (r *reporter) done() bool {
	return r.maxFrames > 0 && r.frames >= r.maxFrames
}
