package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds the fold flags of one command. Every command registers its own
// Flags so defaults written at registration never leak between commands.
type Flags struct {
	ConfigFile string
	Preset     string

	Width, Height int

	// Angle and AngleStep are in degrees.
	Angle      float64
	AngleStep  float64
	Steps      int
	LineLength float64
	AreaLength float64
	Margin     float64
	Rounds     int
	Backend    string
	Workers    int
}

// Register adds the fold flags to fs. backends is listed in the --backend
// help text.
func (f *Flags) Register(fs *pflag.FlagSet, backends []string) {
	fs.StringVar(&f.ConfigFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.Preset, "preset", "", "use preset configuration")
	fs.IntVar(&f.Width, "width", DefaultWidth, "canvas width")
	fs.IntVar(&f.Height, "height", DefaultHeight, "canvas height")
	fs.Float64Var(&f.Angle, "angle", degrees(DefaultAngle), "fold angle in degrees")
	fs.Float64Var(&f.AngleStep, "angle-step", 0, "degrees added to the angle after each round")
	fs.IntVar(&f.Steps, "steps", DefaultSteps, "sub-frames per round")
	fs.Float64Var(&f.LineLength, "line", DefaultLineLength, "seed line length")
	fs.Float64Var(&f.AreaLength, "area", DefaultAreaLength, "initial pivot distance")
	fs.Float64Var(&f.Margin, "margin", DefaultMargin, "zoom-out margin")
	fs.IntVarP(&f.Rounds, "rounds", "n", DefaultIterations, "rounds to run (-1 = until stopped)")
	fs.StringVar(&f.Backend, "backend", DefaultBackend, fmt.Sprintf("compute backend %v", backends))
	fs.IntVar(&f.Workers, "workers", 0, "cpu workers (0 = all cores)")
}

// Apply copies the flags set on the command line over cfg.
func (f *Flags) Apply(fs *pflag.FlagSet, cfg *Config) {
	if fs.Changed("width") {
		cfg.Width = f.Width
	}
	if fs.Changed("height") {
		cfg.Height = f.Height
	}
	if fs.Changed("angle") {
		cfg.Angle = radians(f.Angle)
	}
	if fs.Changed("angle-step") {
		cfg.AngleStep = radians(f.AngleStep)
	}
	if fs.Changed("steps") {
		cfg.Steps = f.Steps
	}
	if fs.Changed("line") {
		cfg.LineLength = f.LineLength
	}
	if fs.Changed("area") {
		cfg.AreaLength = f.AreaLength
	}
	if fs.Changed("margin") {
		cfg.Margin = f.Margin
	}
	if fs.Changed("rounds") {
		cfg.Iterations = f.Rounds
	}
	if fs.Changed("backend") {
		cfg.Backend = f.Backend
	}
	if fs.Changed("workers") {
		cfg.Workers = f.Workers
	}
}

// Interactive reports whether neither a preset nor a config file was named.
func (f *Flags) Interactive() bool {
	return f.Preset == "" && f.ConfigFile == ""
}

// Resolve builds the config from the defaults, then the preset, then the
// config file, then explicit flags. It returns the config and a name for
// the run.
func (f *Flags) Resolve(fs *pflag.FlagSet) (*Config, string, error) {
	cfg := DefaultConfig()
	name := "custom"
	if f.Preset != "" {
		cfg = GetPreset(f.Preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", f.Preset, ListPresets())
		}
		name = f.Preset
	}
	if f.ConfigFile != "" {
		loaded, err := Overlay(f.ConfigFile, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if f.Preset == "" {
			name = strings.TrimSuffix(filepath.Base(f.ConfigFile), filepath.Ext(f.ConfigFile))
		}
	}
	f.Apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }
