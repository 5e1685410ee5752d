package config

import "slices"

// Presets are complete configurations for common scenarios.
var Presets = map[string]*Config{
	"clean": DefaultConfig(),
	"sim2real": func() *Config {
		c := DefaultConfig()
		c.Task.RotationNoiseStd = 0.01
		c.Task.PositionNoiseStd = 0.0005
		c.Task.PositionNoiseBiasZ = 0.0001
		c.Task.EMAAlpha = 0.3
		c.Task.LagSteps = 3
		return c
	}(),
	"free": func() *Config {
		c := DefaultConfig()
		c.Task.AxisAlignedGoal = false
		return c
	}(),
	"drops": func() *Config {
		c := DefaultConfig()
		c.ControllerParams.DropEvery = 5
		return c
	}(),
	"spin": func() *Config {
		c := DefaultConfig()
		c.Controller = "manual"
		c.ControllerParams.SpinRate = 1
		c.Task.RotationNoiseStd = 0.01
		c.Task.PositionNoiseStd = 0.0005
		c.Duration = 10
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
