// Package config handles splatgen configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/splatgen/internal/bake"
	"github.com/Faultbox/splatgen/internal/converter"
	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/internal/source"
	"github.com/Faultbox/splatgen/pkg/splat"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all exporter settings.
type Config struct {
	Converter ConverterConfig `yaml:"converter" toml:"converter"`
	Sampling  SamplingConfig  `yaml:"sampling" toml:"sampling"`
	Splat     SplatConfig     `yaml:"splat" toml:"splat"`
	Axes      AxesConfig      `yaml:"axes" toml:"axes"`
	Animation AnimationConfig `yaml:"animation" toml:"animation"`
	Bake      BakeConfig      `yaml:"bake" toml:"bake"`
	Source    SourceConfig    `yaml:"source" toml:"source"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Watch     WatchConfig     `yaml:"watch" toml:"watch"`
}

// ConverterConfig holds the external converter invocation.
type ConverterConfig struct {
	Command   string `yaml:"command" toml:"command"` // shell-style, e.g. "npx @playcanvas/splat-transform"
	Overwrite bool   `yaml:"overwrite" toml:"overwrite"`
}

// SamplingConfig holds sampler settings.
type SamplingConfig struct {
	Mode       string  `yaml:"mode" toml:"mode"` // surface or vertex
	Density    float64 `yaml:"density" toml:"density"`
	Sequence   string  `yaml:"sequence" toml:"sequence"` // legacy or random
	Seed       uint64  `yaml:"seed" toml:"seed"`
	UseNormals bool    `yaml:"use_normals" toml:"use_normals"`
}

// SplatConfig holds per-splat attribute settings.
type SplatConfig struct {
	AutoScale         bool    `yaml:"auto_scale" toml:"auto_scale"`
	ScaleMultiplier   float64 `yaml:"scale_multiplier" toml:"scale_multiplier"`
	OpacityMultiplier float64 `yaml:"opacity_multiplier" toml:"opacity_multiplier"`
	UseColors         bool    `yaml:"use_colors" toml:"use_colors"`
}

// AxesConfig is the target basis.
type AxesConfig struct {
	Forward string `yaml:"forward" toml:"forward"`
	Up      string `yaml:"up" toml:"up"`
}

// AnimationConfig holds frame settings.
type AnimationConfig struct {
	FPS          float64 `yaml:"fps" toml:"fps"`
	FrameNumbers bool    `yaml:"frame_numbers" toml:"frame_numbers"`
}

// BakeConfig holds texture baking settings.
type BakeConfig struct {
	Enabled      bool    `yaml:"enabled" toml:"enabled"`
	Lit          bool    `yaml:"lit" toml:"lit"`
	SunLongitude float64 `yaml:"sun_longitude" toml:"sun_longitude"`
	SunLatitude  float64 `yaml:"sun_latitude" toml:"sun_latitude"`
	Ambient      float64 `yaml:"ambient" toml:"ambient"`
	// MapSun uses a map's own light direction instead of the angles above.
	MapSun bool `yaml:"map_sun" toml:"map_sun"`
}

// SourceConfig holds model lookup settings.
type SourceConfig struct {
	GRF string `yaml:"grf" toml:"grf"` // archive searched for models and textures
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// Default returns a Config with the exporter's default values.
func Default() *Config {
	so := splat.DefaultOptions()
	bo := bake.DefaultOptions()
	return &Config{
		Converter: ConverterConfig{
			Command: converter.DefaultCommand,
		},
		Sampling: SamplingConfig{
			Mode:       so.Mode.String(),
			Density:    so.Density,
			Sequence:   so.Sequence.String(),
			UseNormals: so.UseNormals,
		},
		Splat: SplatConfig{
			AutoScale:         so.AutoScale,
			ScaleMultiplier:   so.ScaleMultiplier,
			OpacityMultiplier: so.OpacityMultiplier,
			UseColors:         so.UseColors,
		},
		Axes: AxesConfig{
			Forward: so.Axes.Forward.String(),
			Up:      so.Axes.Up.String(),
		},
		Animation: AnimationConfig{
			FPS:          24,
			FrameNumbers: true,
		},
		Bake: BakeConfig{
			Lit:          bo.Lit,
			SunLongitude: bo.SunLongitude,
			SunLatitude:  bo.SunLatitude,
			Ambient:      bo.Ambient,
			MapSun:       true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
	}
}

// Validate checks every setting the exporter depends on.
func (c *Config) Validate() error {
	if _, err := c.SplatOptions(); err != nil {
		return err
	}
	if c.Animation.FPS <= 0 {
		return fmt.Errorf("%w: animation.fps must be positive, got %v", ErrInvalidConfig, c.Animation.FPS)
	}
	if c.Bake.Ambient < 0 || c.Bake.Ambient > 1 {
		return fmt.Errorf("%w: bake.ambient must be in [0, 1], got %v", ErrInvalidConfig, c.Bake.Ambient)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("%w: watch.debounce_ms must not be negative", ErrInvalidConfig)
	}
	if _, err := converter.ParseCommand(c.Converter.Command, c.Converter.Overwrite); err != nil {
		return fmt.Errorf("%w: converter.command: %v", ErrInvalidConfig, err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SplatOptions converts the sampling, splat and axes sections.
func (c *Config) SplatOptions() (splat.Options, error) {
	opts := splat.Options{
		Density:           c.Sampling.Density,
		Seed:              c.Sampling.Seed,
		UseNormals:        c.Sampling.UseNormals,
		UseColors:         c.Splat.UseColors,
		AutoScale:         c.Splat.AutoScale,
		ScaleMultiplier:   c.Splat.ScaleMultiplier,
		OpacityMultiplier: c.Splat.OpacityMultiplier,
	}

	var err error
	if opts.Mode, err = splat.ParseMode(c.Sampling.Mode); err != nil {
		return opts, fmt.Errorf("%w: sampling.mode: %v", ErrInvalidConfig, err)
	}
	if opts.Sequence, err = splat.ParseSequence(c.Sampling.Sequence); err != nil {
		return opts, fmt.Errorf("%w: sampling.sequence: %v", ErrInvalidConfig, err)
	}
	if !(opts.Density > 0) {
		return opts, fmt.Errorf("%w: sampling.density must be positive, got %v", ErrInvalidConfig, opts.Density)
	}
	if opts.ScaleMultiplier < 0 || opts.OpacityMultiplier < 0 {
		return opts, fmt.Errorf("%w: splat multipliers must not be negative", ErrInvalidConfig)
	}

	if opts.Axes.Forward, err = splat.ParseAxis(c.Axes.Forward); err != nil {
		return opts, fmt.Errorf("%w: axes.forward: %w", ErrInvalidConfig, err)
	}
	if opts.Axes.Up, err = splat.ParseAxis(c.Axes.Up); err != nil {
		return opts, fmt.Errorf("%w: axes.up: %w", ErrInvalidConfig, err)
	}
	if err := opts.Axes.Validate(); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return opts, nil
}

// BakeOptions returns the bake settings, or nil when baking is disabled.
// sun, when non-nil and map_sun is on, replaces the configured angles.
func (c *Config) BakeOptions(sun *source.Sun) *bake.Options {
	if !c.Bake.Enabled {
		return nil
	}
	opts := &bake.Options{
		Lit:          c.Bake.Lit,
		SunLongitude: c.Bake.SunLongitude,
		SunLatitude:  c.Bake.SunLatitude,
		Ambient:      c.Bake.Ambient,
	}
	if sun != nil && c.Bake.MapSun {
		opts.SunLongitude, opts.SunLatitude = sun.Longitude, sun.Latitude
	}
	return opts
}
