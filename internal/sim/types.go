package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
)

// Plant is an engine the harness can drive.
type Plant interface {
	dynamo.Engine
	SetControl(u dynamo.Control)
	SetCubeVelocity(linear, angular r3.Vec)
	Step(dt float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	Seed          uint64
	ValidateState bool
	// RecordEvery keeps every n-th step in the result; 0 keeps all.
	RecordEvery int
}

// Frame is one recorded step.
type Frame struct {
	Time      float64
	Cost      float64
	Telemetry dynamo.Telemetry
	Noise     [6]float64
	// AngularVelocity is the filtered estimate the policy saw.
	AngularVelocity [3]float64
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Err        error
}
