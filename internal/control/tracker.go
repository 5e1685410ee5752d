package control

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/rotation"
)

// Tracker turns the cube toward the goal with a PID on the rotation vector
// from the observed orientation to the goal, and holds the cube at its home
// position with a proportional term. With DropEvery > 0 it lets go of the
// cube for DropFor seconds every DropEvery seconds.
type Tracker struct {
	Kp        float64
	Ki        float64
	Kd        float64
	MaxRate   float64
	HoldGain  float64
	Home      r3.Vec
	DropEvery float64
	DropFor   float64
	DropSpeed float64

	integral r3.Vec
	prevErr  r3.Vec
	prevT    float64
	first    bool
	lastDrop float64
}

func NewTracker() *Tracker {
	return &Tracker{
		Kp:        4,
		Kd:        0.1,
		MaxRate:   6,
		HoldGain:  5,
		Home:      r3.Vec{X: 0.11},
		DropFor:   0.5,
		DropSpeed: 0.5,
		first:     true,
	}
}

func (p *Tracker) Compute(in Input, t float64) Command {
	cmd := Command{Joints: nominal(in)}
	if len(in.QPos) < 7 {
		return cmd
	}

	cube := rotation.Normalize(rotation.FromSlice(in.QPos[3:7]))
	err := rotation.Diff(rotation.Normalize(in.Goal), cube)

	u := r3.Scale(p.Kp, err)
	if p.first {
		p.first = false
		p.lastDrop = t
	} else if dt := t - p.prevT; dt > 0 {
		p.integral = r3.Add(p.integral, r3.Scale(dt, err))
		derivative := r3.Scale(1/dt, r3.Sub(err, p.prevErr))
		u = r3.Add(u, r3.Add(r3.Scale(p.Ki, p.integral), r3.Scale(p.Kd, derivative)))
	}
	p.prevErr = err
	p.prevT = t
	cmd.Angular = rotation.Clamp(u, p.MaxRate)

	if p.DropEvery > 0 && t-p.lastDrop >= p.DropEvery {
		if t-p.lastDrop < p.DropEvery+p.DropFor {
			cmd.Linear = r3.Vec{Z: -p.DropSpeed}
			return cmd
		}
		p.lastDrop = t
	}
	cmd.Linear = r3.Scale(p.HoldGain, r3.Sub(p.Home, rotation.Vec(in.QPos[0:3])))
	return cmd
}

// Reset clears integral, derivative and drop schedule state.
func (p *Tracker) Reset() {
	p.integral = r3.Vec{}
	p.prevErr = r3.Vec{}
	p.prevT = 0
	p.first = true
	p.lastDrop = 0
}

func (p *Tracker) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":         p.Kp,
		"ki":         p.Ki,
		"kd":         p.Kd,
		"max_rate":   p.MaxRate,
		"hold_gain":  p.HoldGain,
		"drop_every": p.DropEvery,
		"drop_for":   p.DropFor,
		"drop_speed": p.DropSpeed,
	}
}

func (p *Tracker) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "max_rate":
		p.MaxRate = value
	case "hold_gain":
		p.HoldGain = value
	case "drop_every":
		p.DropEvery = value
	case "drop_for":
		p.DropFor = value
	case "drop_speed":
		p.DropSpeed = value
	default:
		return fmt.Errorf("tracker %q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
