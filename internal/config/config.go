package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth      = 1000
	DefaultHeight     = 1000
	DefaultAngle      = math.Pi / 2
	DefaultSteps      = 10
	DefaultLineLength = 10.0
	DefaultAreaLength = 10.0
	DefaultIterations = -1
	DefaultMargin     = 500.0
	DefaultFrameDelay = 20 * time.Millisecond
	DefaultRoundDelay = 250 * time.Millisecond
	DefaultBackend    = "cpu"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Angle is the fold angle of one round in radians. AngleStep, when
	// non-zero, is added to it after every round, wrapping at 2 pi.
	Angle     float64 `yaml:"angle"`
	AngleStep float64 `yaml:"angle_step"`
	Steps     int     `yaml:"steps"`

	LineLength float64 `yaml:"line_length"`
	AreaLength float64 `yaml:"area_length"`

	// Iterations is the number of rounds to run; -1 runs until stopped.
	Iterations int     `yaml:"iterations"`
	Margin     float64 `yaml:"margin"`

	FrameDelay time.Duration `yaml:"frame_delay"`
	RoundDelay time.Duration `yaml:"round_delay"`

	Backend string `yaml:"backend"`
	Workers int    `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Angle:      DefaultAngle,
		Steps:      DefaultSteps,
		LineLength: DefaultLineLength,
		AreaLength: DefaultAreaLength,
		Iterations: DefaultIterations,
		Margin:     DefaultMargin,
		FrameDelay: DefaultFrameDelay,
		RoundDelay: DefaultRoundDelay,
		Backend:    DefaultBackend,
	}
}

func Load(path string) (*Config, error) {
	return Overlay(path, DefaultConfig())
}

// Overlay reads the yaml file at path over a copy of base. Fields the file
// leaves out keep base's values.
func Overlay(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first out-of-range field.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case !finite(c.Angle) || !finite(c.AngleStep):
		return fmt.Errorf("%w: angle must be finite", ErrInvalidConfig)
	case c.Steps < 1:
		return fmt.Errorf("%w: steps must be at least 1, got %d", ErrInvalidConfig, c.Steps)
	case !finite(c.LineLength) || c.LineLength < 0 || c.LineLength > float64(c.Width):
		return fmt.Errorf("%w: line_length must be in [0, %d], got %v", ErrInvalidConfig, c.Width, c.LineLength)
	case !finite(c.AreaLength):
		return fmt.Errorf("%w: area_length must be finite", ErrInvalidConfig)
	case c.Iterations < -1:
		return fmt.Errorf("%w: iterations must be -1 or more, got %d", ErrInvalidConfig, c.Iterations)
	case !finite(c.Margin) || c.Margin < 0:
		return fmt.Errorf("%w: margin must be non-negative, got %v", ErrInvalidConfig, c.Margin)
	case c.FrameDelay < 0 || c.RoundDelay < 0:
		return fmt.Errorf("%w: delays must be non-negative", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
