// Package config provides configuration loading and access for the particle field.
package config

import (
	_ "embed"
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Mode selects how a field is generated.
type Mode string

const (
	ModeGenerative Mode = "generative"
	ModeImage      Mode = "image"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeGenerative || m == ModeImage
}

// Config holds all configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Settings    Settings          `yaml:"settings"`
	Field       FieldConfig       `yaml:"field"`
	Tree        TreeConfig        `yaml:"tree"`
	Interaction InteractionConfig `yaml:"interaction"`
	Oscillation OscillationConfig `yaml:"oscillation"`
	Render      RenderConfig      `yaml:"render"`
	Parallel    ParallelConfig    `yaml:"parallel"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// Settings are the live tunables of the field. The integrator reads them every
// frame; only Gap changes the sampling grid.
type Settings struct {
	Gap             int     `yaml:"gap"`              // Image sampling stride in pixels (lower = denser)
	Size            float64 `yaml:"size"`             // Base particle radius
	Friction        float64 `yaml:"friction"`         // Per-frame velocity decay
	Ease            float64 `yaml:"ease"`             // Spring stiffness toward home
	BreathIntensity float64 `yaml:"breath_intensity"` // Ambient oscillation amplitude
}

// Safe floors and ceilings for Settings.
const (
	MinSize     = 0.1
	MaxFriction = 0.99
	MinEase     = 0.001
	MaxEase     = 0.99
)

// Clamp returns a copy of s with every field forced into its safe range.
// NaN values fall back to the range floor.
func (s Settings) Clamp() Settings {
	if s.Gap < 1 {
		s.Gap = 1
	}
	s.Size = clampFloat(s.Size, MinSize, math.MaxFloat64)
	s.Friction = clampFloat(s.Friction, 0, MaxFriction)
	s.Ease = clampFloat(s.Ease, MinEase, MaxEase)
	s.BreathIntensity = clampFloat(s.BreathIntensity, 0, math.MaxFloat64)
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FieldConfig holds field generation parameters.
type FieldConfig struct {
	Mode                Mode    `yaml:"mode"`
	Image               string  `yaml:"image"`                // Primary image locator (path, data URI or URL)
	FallbackImage       string  `yaml:"fallback_image"`       // Tried once when the primary fails
	MinGap              int     `yaml:"min_gap"`              // Floor for the sampling stride
	AlphaThreshold      uint8   `yaml:"alpha_threshold"`      // Pixels below this alpha are background
	BrightnessThreshold float64 `yaml:"brightness_threshold"` // Mean RGB at or above this marks an accent
	Depth               bool    `yaml:"depth"`                // Assign per-particle depth for parallax
	LoadTimeout         float64 `yaml:"load_timeout"`         // Seconds allowed for one image load
}

// TreeConfig holds procedural tree parameters.
type TreeConfig struct {
	BodyCount     int     `yaml:"body_count"`
	OrnamentCount int     `yaml:"ornament_count"`
	StarCount     int     `yaml:"star_count"`
	BodyAlphaMin  float64 `yaml:"body_alpha_min"`
	BodyAlphaMax  float64 `yaml:"body_alpha_max"`
	StarRadius    float64 `yaml:"star_radius"`
}

// InteractionConfig holds pointer repulsion parameters.
type InteractionConfig struct {
	Radius   float64 `yaml:"radius"`   // Repulsion radius in pixels
	Strength float64 `yaml:"strength"` // Force at zero distance
}

// OscillationConfig holds breathing parameters.
type OscillationConfig struct {
	BaseSpeed float64 `yaml:"base_speed"` // Radians per frame
	Jitter    float64 `yaml:"jitter"`     // Random extra speed per particle
}

// RenderConfig holds compositor parameters.
type RenderConfig struct {
	FadeColor   string  `yaml:"fade_color"`   // Hex color of the trail fade layer
	FadeAlpha   float64 `yaml:"fade_alpha"`   // Opacity of the fade layer per frame
	GlowScale   float64 `yaml:"glow_scale"`   // Glow radius relative to particle size
	GlowAlpha   float64 `yaml:"glow_alpha"`   // Glow opacity relative to particle alpha
	AccentBoost float64 `yaml:"accent_boost"` // Size multiplier for accent particles
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Minimum particle count for parallel integration
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FadeColor  color.RGBA // Render.FadeColor parsed, alpha from Render.FadeAlpha
	Background color.RGBA // Render.FadeColor, opaque; the initial canvas fill
	Settings   Settings   // Settings after Clamp
}

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

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived validates the loaded config and calculates derived values.
func (c *Config) computeDerived() error {
	if !c.Field.Mode.Valid() {
		return fmt.Errorf("field.mode: unknown mode %q", c.Field.Mode)
	}
	if c.Field.Mode == ModeImage && c.Field.Image == "" && c.Field.FallbackImage == "" {
		return fmt.Errorf("field.mode is image but no image or fallback_image is set")
	}
	if c.Field.MinGap < 1 {
		c.Field.MinGap = 1
	}
	if c.Interaction.Radius <= 0 {
		return fmt.Errorf("interaction.radius must be positive, got %v", c.Interaction.Radius)
	}
	if c.Tree.BodyAlphaMax < c.Tree.BodyAlphaMin {
		c.Tree.BodyAlphaMin, c.Tree.BodyAlphaMax = c.Tree.BodyAlphaMax, c.Tree.BodyAlphaMin
	}

	fade, err := colorful.Hex(c.Render.FadeColor)
	if err != nil {
		return fmt.Errorf("render.fade_color: %w", err)
	}
	r, g, b := fade.RGB255()
	a := clampFloat(c.Render.FadeAlpha, 0, 1)
	// image.Uniform expects premultiplied components
	c.Derived.FadeColor = color.RGBA{
		R: uint8(math.Round(float64(r) * a)),
		G: uint8(math.Round(float64(g) * a)),
		B: uint8(math.Round(float64(b) * a)),
		A: uint8(math.Round(a * 255)),
	}

	c.Derived.Background = color.RGBA{R: r, G: g, B: b, A: 255}

	c.Derived.Settings = c.Settings.Clamp()
	return nil
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
