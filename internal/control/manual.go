package control

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
)

// Manual commands a fixed cube twist set by the user.
type Manual struct {
	Linear  r3.Vec
	Angular r3.Vec
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Compute(in Input, t float64) Command {
	return Command{Joints: nominal(in), Linear: m.Linear, Angular: m.Angular}
}

func (m *Manual) Reset() {}

func (m *Manual) GetParams() map[string]float64 {
	return map[string]float64{
		"vx": m.Linear.X, "vy": m.Linear.Y, "vz": m.Linear.Z,
		"wx": m.Angular.X, "wy": m.Angular.Y, "wz": m.Angular.Z,
	}
}

func (m *Manual) SetParam(name string, value float64) error {
	switch name {
	case "vx":
		m.Linear.X = value
	case "vy":
		m.Linear.Y = value
	case "vz":
		m.Linear.Z = value
	case "wx":
		m.Angular.X = value
	case "wy":
		m.Angular.Y = value
	case "wz":
		m.Angular.Z = value
	default:
		return fmt.Errorf("manual %q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
