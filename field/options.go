package field

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/glowfield/camera"
	"github.com/pthm-cable/glowfield/config"
	"github.com/pthm-cable/glowfield/telemetry"
)

// DefaultParticleCount is the number of particles when none is configured.
const DefaultParticleCount = 200

// Options are the construction options of the field. Changing
// ParticleCount, Interactive or Seed after mount rebuilds everything.
type Options struct {
	ParticleCount int
	Interactive   bool
	ClassName     string // Styling hook for the surface container; no behavioral effect
	Seed          int64  // 0 = time-based
}

// DefaultOptions returns 200 interactive particles.
func DefaultOptions() Options {
	return Options{
		ParticleCount: DefaultParticleCount,
		Interactive:   true,
	}
}

// OptionsFromConfig maps the field section of the config.
func OptionsFromConfig(cfg config.FieldConfig) Options {
	return Options{
		ParticleCount: cfg.ParticleCount,
		Interactive:   cfg.Interactive,
		ClassName:     cfg.ClassName,
		Seed:          cfg.Seed,
	}
}

// Validate rejects options that cannot produce a field.
func (o Options) Validate() error {
	if o.ParticleCount <= 0 {
		return fmt.Errorf("%w: particle count must be positive, got %d", ErrInvalidOptions, o.ParticleCount)
	}
	return nil
}

// needsRebuild reports whether moving from o to next requires a full
// teardown and re-creation.
func (o Options) needsRebuild(next Options) bool {
	return o.ParticleCount != next.ParticleCount ||
		o.Interactive != next.Interactive ||
		o.Seed != next.Seed
}

// settings collects the functional options.
type settings struct {
	logger *slog.Logger
	perf   *telemetry.PerfCollector
	camera config.CameraConfig
}

func newSettings(opts []Option) settings {
	s := settings{
		logger: slog.Default(),
		camera: camera.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures ambient collaborators of a Renderer.
type Option func(*settings)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPerf records frame timing into pc.
func WithPerf(pc *telemetry.PerfCollector) Option {
	return func(s *settings) { s.perf = pc }
}

// WithCamera overrides the camera parameters.
func WithCamera(cfg config.CameraConfig) Option {
	return func(s *settings) { s.camera = cfg }
}
