package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/leap/internal/control"
	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/task"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEAP_"

const (
	DefaultDt        = 0.01
	DefaultDuration  = 30.0
	DefaultKp        = 4.0
	DefaultKd        = 0.1
	DefaultMaxRate   = 6.0
	DefaultOutputDir = "runs"
)

type Config struct {
	Controller       string           `yaml:"controller" env:"CONTROLLER"`
	Dt               float64          `yaml:"dt" env:"DT"`
	Duration         float64          `yaml:"duration" env:"DURATION"`
	Seed             uint64           `yaml:"seed" env:"SEED"`
	RecordEvery      int              `yaml:"record_every" env:"RECORD_EVERY"`
	OutputDir        string           `yaml:"output_dir" env:"OUTPUT_DIR"`
	Task             TaskConfig       `yaml:"task" envPrefix:"TASK_"`
	ControllerParams ControllerConfig `yaml:"controller_params" envPrefix:"CTRL_"`
}

// TaskConfig holds the session tunables.
type TaskConfig struct {
	AxisAlignedGoal    bool    `yaml:"axis_aligned_goal" env:"AXIS_ALIGNED_GOAL"`
	RotationNoiseStd   float64 `yaml:"rotation_noise_std" env:"ROTATION_NOISE_STD"`
	PositionNoiseStd   float64 `yaml:"position_noise_std" env:"POSITION_NOISE_STD"`
	PositionNoiseBiasX float64 `yaml:"position_noise_bias_x" env:"POSITION_NOISE_BIAS_X"`
	PositionNoiseBiasY float64 `yaml:"position_noise_bias_y" env:"POSITION_NOISE_BIAS_Y"`
	PositionNoiseBiasZ float64 `yaml:"position_noise_bias_z" env:"POSITION_NOISE_BIAS_Z"`
	RotationNoiseMax   float64 `yaml:"rotation_noise_max" env:"ROTATION_NOISE_MAX"`
	PositionNoiseMax   float64 `yaml:"position_noise_max" env:"POSITION_NOISE_MAX"`
	EMAAlpha           float64 `yaml:"ema_alpha" env:"EMA_ALPHA"`
	LagSteps           int     `yaml:"lag_steps" env:"LAG_STEPS"`
	TimeoutSeconds     float64 `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

type ControllerConfig struct {
	Kp        float64 `yaml:"kp" env:"KP"`
	Ki        float64 `yaml:"ki" env:"KI"`
	Kd        float64 `yaml:"kd" env:"KD"`
	MaxRate   float64 `yaml:"max_rate" env:"MAX_RATE"`
	DropEvery float64 `yaml:"drop_every" env:"DROP_EVERY"`
	SpinRate  float64 `yaml:"spin_rate" env:"SPIN_RATE"`
}

func DefaultConfig() *Config {
	p := task.DefaultParams()
	return &Config{
		Controller: "tracker",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		OutputDir:  DefaultOutputDir,
		Task: TaskConfig{
			AxisAlignedGoal:  p.AxisAlignedGoal,
			RotationNoiseMax: p.RotationNoiseMax,
			PositionNoiseMax: p.PositionNoiseMax,
			EMAAlpha:         p.EMAAlpha,
			TimeoutSeconds:   p.TimeoutSeconds,
		},
		ControllerParams: ControllerConfig{
			Kp:      DefaultKp,
			Kd:      DefaultKd,
			MaxRate: DefaultMaxRate,
		},
	}
}

// Load reads a yaml file over the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver reads a yaml file over base.
func LoadOver(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from LEAP_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("record_every must be non-negative: %w", dynamo.ErrParameterBounds)
	}
	if !slices.Contains(control.Names(), c.Controller) {
		return fmt.Errorf("controller %q: %w", c.Controller, dynamo.ErrUnknownName)
	}
	return c.TaskParams().Validate()
}

func (c *Config) TaskParams() task.Params {
	t := c.Task
	return task.Params{
		AxisAlignedGoal:   t.AxisAlignedGoal,
		RotationNoiseStd:  t.RotationNoiseStd,
		PositionNoiseStd:  t.PositionNoiseStd,
		PositionNoiseBias: r3.Vec{X: t.PositionNoiseBiasX, Y: t.PositionNoiseBiasY, Z: t.PositionNoiseBiasZ},
		RotationNoiseMax:  t.RotationNoiseMax,
		PositionNoiseMax:  t.PositionNoiseMax,
		EMAAlpha:          t.EMAAlpha,
		LagSteps:          t.LagSteps,
		TimeoutSeconds:    t.TimeoutSeconds,
	}
}

// PolicyParams returns the parameters the configured controller accepts.
func (c *Config) PolicyParams() map[string]float64 {
	p := c.ControllerParams
	switch c.Controller {
	case "tracker":
		return map[string]float64{
			"kp":         p.Kp,
			"ki":         p.Ki,
			"kd":         p.Kd,
			"max_rate":   p.MaxRate,
			"drop_every": p.DropEvery,
		}
	case "manual":
		return map[string]float64{"wz": p.SpinRate}
	default:
		return nil
	}
}
