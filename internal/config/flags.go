package config

import "flag"

// Flags are the command-line overrides shared by the export commands. Only
// flags given on the command line override the config file.
type Flags struct {
	fs *flag.FlagSet

	Config            string
	Debug             bool
	Mode              string
	Density           float64
	Sequence          string
	Seed              uint64
	ScaleMultiplier   float64
	OpacityMultiplier float64
	NoColors          bool
	Forward           string
	Up                string
	FPS               float64
	GRF               string
	Converter         string
	Overwrite         bool
	Bake              bool
	LogFile           string
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Mode, "mode", "", "Sampling mode: surface or vertex")
	fs.Float64Var(&f.Density, "density", 0, "Surface samples per square unit")
	fs.StringVar(&f.Sequence, "sequence", "", "Barycentric sequence: legacy or random")
	fs.Uint64Var(&f.Seed, "seed", 0, "Seed for the random sequence")
	fs.Float64Var(&f.ScaleMultiplier, "scale", 0, "Splat scale multiplier")
	fs.Float64Var(&f.OpacityMultiplier, "opacity", 0, "Splat opacity multiplier")
	fs.BoolVar(&f.NoColors, "no-colors", false, "Ignore color attributes")
	fs.StringVar(&f.Forward, "forward", "", "Target forward axis (X, Y, Z, -X, -Y, -Z)")
	fs.StringVar(&f.Up, "up", "", "Target up axis")
	fs.Float64Var(&f.FPS, "fps", 0, "Frames per second for animated models")
	fs.StringVar(&f.GRF, "grf", "", "GRF archive to read models and textures from")
	fs.StringVar(&f.Converter, "converter", "", "Converter command line")
	fs.BoolVar(&f.Overwrite, "w", false, "Let the converter overwrite existing output")
	fs.BoolVar(&f.Bake, "bake", false, "Bake textures into splat colors")
	fs.StringVar(&f.LogFile, "log", "", "Log file path")
	return f
}

func (f *Flags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil || f.fs == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.isSet("mode") {
		cfg.Sampling.Mode = f.Mode
	}
	if f.isSet("density") {
		cfg.Sampling.Density = f.Density
	}
	if f.isSet("sequence") {
		cfg.Sampling.Sequence = f.Sequence
	}
	if f.isSet("seed") {
		cfg.Sampling.Seed = f.Seed
	}
	if f.isSet("scale") {
		cfg.Splat.ScaleMultiplier = f.ScaleMultiplier
	}
	if f.isSet("opacity") {
		cfg.Splat.OpacityMultiplier = f.OpacityMultiplier
	}
	if f.NoColors {
		cfg.Splat.UseColors = false
	}
	if f.isSet("forward") {
		cfg.Axes.Forward = f.Forward
	}
	if f.isSet("up") {
		cfg.Axes.Up = f.Up
	}
	if f.isSet("fps") {
		cfg.Animation.FPS = f.FPS
	}
	if f.isSet("grf") {
		cfg.Source.GRF = f.GRF
	}
	if f.isSet("converter") {
		cfg.Converter.Command = f.Converter
	}
	if f.Overwrite {
		cfg.Converter.Overwrite = true
	}
	if f.Bake {
		cfg.Bake.Enabled = true
	}
	if f.isSet("log") {
		cfg.Logging.LogFile = f.LogFile
	}
}
