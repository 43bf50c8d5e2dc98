// Package config loads the declarative preset file that drives a
// simulation run: domain, boundary, sources, models, schedules. See
// spec.md §6. Grounded in the teacher's //go:embed defaults.yaml +
// yaml.v3 struct-tag pattern.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full preset contract of spec.md §6.
type Config struct {
	Domain               [3][2]float64 `yaml:"domain"`
	Workgroup            *Workgroup    `yaml:"workgroup"`
	Boundary             Boundary      `yaml:"boundary"`
	SpatialStep          float64       `yaml:"spatial_step"`
	TemporalStep         float64       `yaml:"temporal_step"`
	StepsPerSecondLimit  float64       `yaml:"steps_per_second_limit"`
	DefaultSlice         Slice         `yaml:"default_slice"`
	DefaultScalingFactor float32       `yaml:"default_scaling_factor"`
	DefaultShader        string        `yaml:"default_shader"`
	PauseAt              []Timing      `yaml:"pause_at"`
	Exports              []Export      `yaml:"exports"`
	Models               []ModelConfig `yaml:"models"`
	Sources              []Source      `yaml:"sources"`
}

// Workgroup is the compute kernel's invocation tile, defaulting to
// {8,8,4} when absent (see Load).
type Workgroup struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Boundary mirrors gridmap.Boundary's YAML surface: a type discriminator
// plus PML-only parameters.
type Boundary struct {
	Type  string  `yaml:"type"`
	Sigma float64 `yaml:"sigma"`
	Alpha float64 `yaml:"alpha"`
	Cells int     `yaml:"cells"`
}

// Slice configures the visualizer's default cross-section.
type Slice struct {
	Field    string  `yaml:"field"` // "E" | "H"
	Mode     string  `yaml:"mode"`  // "X" | "Y" | "Z"
	Position float64 `yaml:"position"`
}

// Timing is a pause_at / export schedule entry: a step count or a
// simulated time, resolved to a step count by ResolveStep.
type Timing struct {
	Type  string  `yaml:"type"` // "step" | "time"
	Value float64 `yaml:"value"`
}

// ResolveStep converts a Timing entry to an absolute step index given
// the temporal step dt. "time" entries round to the nearest step.
func (t Timing) ResolveStep(dt float64) int {
	if t.Type == "time" {
		return int(t.Value/dt + 0.5)
	}
	return int(t.Value)
}

// ExportSettings holds the one field this module implements: a dense
// field-component dump. Other dimension/settings combinations the
// contract allows are rejected at load time (see Load).
type ExportSettings struct {
	Field string `yaml:"field"` // "E" | "H"
}

// Export is one scheduled field dump.
type Export struct {
	Timing    Timing         `yaml:"timing"`
	Dimension string         `yaml:"dimension"` // "D3"
	Settings  ExportSettings `yaml:"settings"`
}

// ModelConfig places a mesh in world space with a uniform per-axis
// scale and a scalar refractive index.
type ModelConfig struct {
	Path            string     `yaml:"path"`
	Position        [3]float64 `yaml:"position"`
	Scale           [3]float64 `yaml:"scale"`
	RefractiveIndex float64    `yaml:"refractive_index"`
}

// VolumeSourceSettings is a hard-coded-direction volumetric source.
type VolumeSourceSettings struct {
	Direction [3]float64 `yaml:"direction"`
	Field     string     `yaml:"field"` // "E" | "H"
}

// TextureSourceSettings is a modal source driven by per-component CSV
// amplitude maps; absent fields are nil (no injection for that
// component).
type TextureSourceSettings struct {
	Ex          *string `yaml:"ex,omitempty"`
	Ey          *string `yaml:"ey,omitempty"`
	Ez          *string `yaml:"ez,omitempty"`
	Hx          *string `yaml:"hx,omitempty"`
	Hy          *string `yaml:"hy,omitempty"`
	Hz          *string `yaml:"hz,omitempty"`
	SpatialStep float64 `yaml:"spatial_step"`
}

// SourceMode discriminates between the two source kinds; exactly one
// of Volume/Texture is populated, selected by Type.
type SourceMode struct {
	Type     string                 `yaml:"type"` // "volume" | "texture"
	Settings yaml.Node              `yaml:"settings"`
	Volume   *VolumeSourceSettings  `yaml:"-"`
	Texture  *TextureSourceSettings `yaml:"-"`
}

// Resolve decodes Settings into Volume or Texture according to Type.
// yaml.v3's yaml.Node capture lets a single "settings" key carry either
// shape without a second, type-specific YAML tag per source entry.
func (m *SourceMode) Resolve() error {
	switch m.Type {
	case "volume":
		m.Volume = &VolumeSourceSettings{}
		return m.Settings.Decode(m.Volume)
	case "texture":
		m.Texture = &TextureSourceSettings{}
		return m.Settings.Decode(m.Texture)
	default:
		return fmt.Errorf("config: source mode.type %q is not one of volume, texture", m.Type)
	}
}

// Source is one entry of the sources list, per spec.md §6's
// SourceSettings contract.
type Source struct {
	Wavelength float64    `yaml:"wavelength"`
	Position   [3]float64 `yaml:"position"`
	Size       [3]float64 `yaml:"size"`
	Phase      float64    `yaml:"phase"`
	Delay      float64    `yaml:"delay"`
	FWHM       float64    `yaml:"fwhm"`
	Power      float64    `yaml:"power"`
	Mode       SourceMode `yaml:"mode"`
}

// global holds the loaded configuration for process-wide access by
// cmd/fdtdsim, mirroring the teacher's Init/Cfg pair.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults alone if path is empty. Must be called before Cfg().
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

// Load loads configuration from a YAML preset file, merging with
// embedded defaults: the preset only needs to override the keys it
// cares about. An empty path uses the embedded defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading preset %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing preset %q: %w", path, err)
		}
	}

	if cfg.Workgroup == nil {
		cfg.Workgroup = &Workgroup{X: 8, Y: 8, Z: 4}
	}

	for i := range cfg.Sources {
		if err := cfg.Sources[i].Mode.Resolve(); err != nil {
			return nil, fmt.Errorf("config: sources[%d]: %w", i, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for i, a := range c.Domain {
		if a[1] <= a[0] {
			return fmt.Errorf("config: domain axis %d: max %v must be > min %v", i, a[1], a[0])
		}
	}
	if c.SpatialStep <= 0 {
		return fmt.Errorf("config: spatial_step must be > 0, got %v", c.SpatialStep)
	}
	if c.TemporalStep <= 0 {
		return fmt.Errorf("config: temporal_step must be > 0, got %v", c.TemporalStep)
	}
	if c.StepsPerSecondLimit <= 0 {
		return fmt.Errorf("config: steps_per_second_limit must be > 0, got %v", c.StepsPerSecondLimit)
	}
	switch c.Boundary.Type {
	case "PML", "PEC", "PMC":
	default:
		return fmt.Errorf("config: boundary.type %q is not one of PML, PEC, PMC", c.Boundary.Type)
	}
	for i, e := range c.Exports {
		if e.Dimension != "D3" {
			return fmt.Errorf("config: exports[%d].dimension %q is not supported (only D3)", i, e.Dimension)
		}
		switch e.Settings.Field {
		case "E", "H":
		default:
			return fmt.Errorf("config: exports[%d].settings.field %q is not one of E, H", i, e.Settings.Field)
		}
	}
	return nil
}
