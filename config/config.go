// Package config provides configuration loading and access for the particle field.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Camera    CameraConfig    `yaml:"camera"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TargetFPS  int     `yaml:"target_fps"` // 0 = follow display refresh (vsync)
	Title      string  `yaml:"title"`
	Resizable  bool    `yaml:"resizable"`
	PixelRatio float32 `yaml:"pixel_ratio"` // 1 = one framebuffer pixel per screen pixel; other values request high-DPI (0 = monitor scale)
}

// FieldConfig holds the construction options of the particle field.
type FieldConfig struct {
	ParticleCount int    `yaml:"particle_count"`
	Interactive   bool   `yaml:"interactive"`
	ClassName     string `yaml:"class_name"` // Styling hook, passed through untouched
	Seed          int64  `yaml:"seed"`       // 0 = time-based
}

// CameraConfig holds perspective camera parameters.
type CameraConfig struct {
	FOV      float32 `yaml:"fov"`      // Vertical field of view in degrees
	Near     float32 `yaml:"near"`     // Near clip plane
	Far      float32 `yaml:"far"`      // Far clip plane
	Distance float32 `yaml:"distance"` // Camera z position, looking at the origin
}

// RenderConfig selects the graphics backend.
type RenderConfig struct {
	Backend    string   `yaml:"backend"`     // raylib, ebiten or headless
	ClearColor [4]uint8 `yaml:"clear_color"` // RGBA; alpha 0 keeps the backdrop transparent
}

// TelemetryConfig holds frame timing parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`  // Frames in the rolling perf window
	LogInterval int `yaml:"log_interval"` // Frames between perf log lines (0 = never)
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	ScreenW32  float32
	ScreenH32  float32
	PixelRatio float32
}

// MaxPixelRatio caps the framebuffer density of the render surface.
const MaxPixelRatio = 2

// Backend names.
const (
	BackendRaylib   = "raylib"
	BackendEbiten   = "ebiten"
	BackendHeadless = "headless"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded default configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate checks value ranges that would otherwise surface as rendering faults.
func (c *Config) Validate() error {
	switch {
	case c.Field.ParticleCount <= 0:
		return fmt.Errorf("%w: field.particle_count must be positive, got %d", ErrInvalid, c.Field.ParticleCount)
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("%w: screen size must be positive, got %dx%d", ErrInvalid, c.Screen.Width, c.Screen.Height)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("%w: camera.fov must be in (0, 180), got %v", ErrInvalid, c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera clip planes must satisfy 0 < near < far, got %v/%v", ErrInvalid, c.Camera.Near, c.Camera.Far)
	}
	switch c.Render.Backend {
	case BackendRaylib, BackendEbiten, BackendHeadless:
	default:
		return fmt.Errorf("%w: unknown render.backend %q", ErrInvalid, c.Render.Backend)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	ratio := c.Screen.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	if ratio > MaxPixelRatio {
		ratio = MaxPixelRatio
	}
	c.Derived.PixelRatio = ratio
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
