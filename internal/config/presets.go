package config

import (
	"math"
	"sort"
)

func preset(apply func(c *Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

var Presets = map[string]*Config{
	"dragon": DefaultConfig(),
	"quarter": preset(func(c *Config) {
		c.Angle = math.Pi / 4
		c.AngleStep = math.Pi / 4
	}),
	"levy": preset(func(c *Config) {
		c.Angle = math.Pi / 4
	}),
	"small": preset(func(c *Config) {
		c.Width, c.Height = 256, 256
		c.Margin = 128
		c.Steps = 4
		c.Iterations = 12
		c.FrameDelay = 0
		c.RoundDelay = 0
	}),
	"triangle": preset(func(c *Config) {
		c.Angle = 2 * math.Pi / 3
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
