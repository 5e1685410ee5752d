package task

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/goal"
	"github.com/san-kum/leap/internal/noise"
)

// Success thresholds on the orientation error, 0.2 and 0.4 rad.
const (
	ThresholdAxisAlignedDeg = 11.4592
	ThresholdFreeDeg        = 22.9183
)

// DefaultTimeout is how long the cube may go without a successful rotation
// before the episode is reset.
const DefaultTimeout = 80.0

// Params are the live tunables of a session.
type Params struct {
	AxisAlignedGoal   bool
	RotationNoiseStd  float64
	PositionNoiseStd  float64
	PositionNoiseBias r3.Vec
	RotationNoiseMax  float64
	PositionNoiseMax  float64
	EMAAlpha          float64
	LagSteps          int
	TimeoutSeconds    float64
}

func DefaultParams() Params {
	return Params{
		AxisAlignedGoal:  true,
		RotationNoiseMax: 0.05,
		PositionNoiseMax: 0.005,
		EMAAlpha:         1.0,
		TimeoutSeconds:   DefaultTimeout,
	}
}

func (p Params) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"rotation_noise_std", p.RotationNoiseStd >= 0},
		{"position_noise_std", p.PositionNoiseStd >= 0},
		{"rotation_noise_max", p.RotationNoiseMax >= 0},
		{"position_noise_max", p.PositionNoiseMax >= 0},
		{"ema_alpha", p.EMAAlpha >= 0 && p.EMAAlpha <= 1},
		{"lag_steps", p.LagSteps >= 0},
		{"timeout_seconds", p.TimeoutSeconds > 0},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%s: %w", c.name, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// Threshold returns the success threshold in degrees for the goal mode.
func (p Params) Threshold() float64 {
	if p.AxisAlignedGoal {
		return ThresholdAxisAlignedDeg
	}
	return ThresholdFreeDeg
}

func (p Params) goalMode() goal.Mode {
	if p.AxisAlignedGoal {
		return goal.Discrete
	}
	return goal.Continuous
}

func (p Params) noise() noise.Params {
	return noise.Params{
		RotationStd:  p.RotationNoiseStd,
		PositionStd:  p.PositionNoiseStd,
		PositionBias: p.PositionNoiseBias,
		RotationMax:  p.RotationNoiseMax,
		PositionMax:  p.PositionNoiseMax,
		Alpha:        p.EMAAlpha,
		LagSteps:     p.LagSteps,
	}
}

// Map returns the parameters keyed by their tunable names.
func (p Params) Map() map[string]float64 {
	aligned := 0.0
	if p.AxisAlignedGoal {
		aligned = 1
	}
	return map[string]float64{
		"axis_aligned_goal":     aligned,
		"rotation_noise_std":    p.RotationNoiseStd,
		"position_noise_std":    p.PositionNoiseStd,
		"position_noise_bias_x": p.PositionNoiseBias.X,
		"position_noise_bias_y": p.PositionNoiseBias.Y,
		"position_noise_bias_z": p.PositionNoiseBias.Z,
		"rotation_noise_max":    p.RotationNoiseMax,
		"position_noise_max":    p.PositionNoiseMax,
		"ema_alpha":             p.EMAAlpha,
		"lag_steps":             float64(p.LagSteps),
		"timeout_seconds":       p.TimeoutSeconds,
	}
}

// With returns a copy of p with the named tunable set to value.
func (p Params) With(name string, value float64) (Params, error) {
	switch name {
	case "axis_aligned_goal":
		p.AxisAlignedGoal = value != 0
	case "rotation_noise_std":
		p.RotationNoiseStd = value
	case "position_noise_std":
		p.PositionNoiseStd = value
	case "position_noise_bias_x":
		p.PositionNoiseBias.X = value
	case "position_noise_bias_y":
		p.PositionNoiseBias.Y = value
	case "position_noise_bias_z":
		p.PositionNoiseBias.Z = value
	case "rotation_noise_max":
		p.RotationNoiseMax = value
	case "position_noise_max":
		p.PositionNoiseMax = value
	case "ema_alpha":
		p.EMAAlpha = value
	case "lag_steps":
		p.LagSteps = int(math.Round(value))
	case "timeout_seconds":
		p.TimeoutSeconds = value
	default:
		return p, fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	return p, p.Validate()
}
