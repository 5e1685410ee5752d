// Package residual computes the cost vector the planner minimizes.
//
// The vector is laid out as
//
//	[0]      containment of the cube over the palm
//	[1:4]    orientation error to the goal
//	[4:7]    cube linear velocity
//	[7:10]   cube angular velocity
//	[10:26]  actuator forces
//	[26:42]  joint positions minus the nominal keyframe
//	[42:58]  joint velocities
package residual

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/rotation"
)

// Size is the length of the residual vector.
const Size = 1 + 3 + 3 + 3 + 3*dynamo.NumJoints

// Offsets of each term.
const (
	Containment     = 0
	Orientation     = 1
	LinearVelocity  = 4
	AngularVelocity = 7
	Effort          = 10
	Pose            = Effort + dynamo.NumJoints
	JointVelocity   = Pose + dynamo.NumJoints
)

// Region bounds of the cube center over the palm.
const (
	XMin = 0.08
	XMax = 0.14
	YMin = -0.02
	YMax = 0.02
	ZMin = -0.015

	// PalmTilt is the palm inclination used outside the region.
	PalmTilt = 20 * math.Pi / 180
	// CubeHalf is the height of the cube center above a flat palm.
	CubeHalf = 0.035
	// Slope scales the containment distance.
	Slope = 250.0
)

// Input holds everything the residual depends on.
type Input struct {
	CubePosition        r3.Vec
	CubeOrientation     []float64 // [w, x, y, z]
	GoalOrientation     []float64 // [w, x, y, z]
	CubeLinearVelocity  []float64
	CubeAngularVelocity []float64
	ActuatorForce       []float64
	JointPosition       []float64
	JointVelocity       []float64
	NominalPose         []float64
}

// Evaluator writes residual vectors. It is stateless after construction.
type Evaluator struct{}

// New checks that the engine declares exactly Size residual sensors.
func New(sensorDim int) (*Evaluator, error) {
	if sensorDim != Size {
		return nil, fmt.Errorf("residual has %d entries, model declares %d: %w",
			Size, sensorDim, dynamo.ErrDimensionMismatch)
	}
	return &Evaluator{}, nil
}

// Evaluate fills out with the residual of in. out must have length Size and
// every input vector its full length; nothing is written otherwise.
func (e *Evaluator) Evaluate(in Input, out []float64) error {
	if len(out) != Size {
		return fmt.Errorf("output buffer has %d entries, want %d: %w",
			len(out), Size, dynamo.ErrDimensionMismatch)
	}
	if len(in.CubeOrientation) != 4 || len(in.GoalOrientation) != 4 {
		return fmt.Errorf("orientations must have 4 entries, got %d and %d: %w",
			len(in.CubeOrientation), len(in.GoalOrientation), dynamo.ErrDimensionMismatch)
	}
	if len(in.CubeLinearVelocity) != 3 || len(in.CubeAngularVelocity) != 3 {
		return fmt.Errorf("cube velocities must have 3 entries, got %d and %d: %w",
			len(in.CubeLinearVelocity), len(in.CubeAngularVelocity), dynamo.ErrDimensionMismatch)
	}
	if len(in.ActuatorForce) != dynamo.NumJoints || len(in.JointPosition) != dynamo.NumJoints ||
		len(in.JointVelocity) != dynamo.NumJoints || len(in.NominalPose) != dynamo.NumJoints {
		return fmt.Errorf("joint vectors must have %d entries: %w",
			dynamo.NumJoints, dynamo.ErrDimensionMismatch)
	}

	out[Containment] = ContainmentCost(in.CubePosition)

	goal := rotation.Normalize(rotation.FromSlice(in.GoalOrientation))
	cube := rotation.FromSlice(in.CubeOrientation)
	rotation.PutVec(out[Orientation:], rotation.Diff(goal, cube))

	copy(out[LinearVelocity:LinearVelocity+3], in.CubeLinearVelocity)
	copy(out[AngularVelocity:AngularVelocity+3], in.CubeAngularVelocity)
	copy(out[Effort:Pose], in.ActuatorForce)
	floats.SubTo(out[Pose:JointVelocity], in.JointPosition, in.NominalPose)
	copy(out[JointVelocity:Size], in.JointVelocity)
	return nil
}

// ContainmentCost is Slope times the distance from p to the allowed region.
// Inside the x/y window the cube may sit anywhere above ZMin; outside it the
// height is held to a band above the tilted palm.
func ContainmentCost(p r3.Vec) float64 {
	return Slope * r3.Norm(r3.Sub(p, Closest(p)))
}

// Closest returns the point of the allowed region nearest to p, clamping each
// coordinate independently.
func Closest(p r3.Vec) r3.Vec {
	c := r3.Vec{
		X: math.Max(XMin, math.Min(p.X, XMax)),
		Y: math.Max(YMin, math.Min(p.Y, YMax)),
	}
	if p.X < XMin || p.X > XMax || p.Y < YMin || p.Y > YMax {
		zMin := -p.X*math.Tan(PalmTilt) + CubeHalf/math.Cos(PalmTilt)
		zMax := zMin + CubeHalf
		c.Z = math.Max(zMin, math.Min(p.Z, zMax))
	} else {
		c.Z = math.Max(ZMin, p.Z)
	}
	return c
}

// FromEngine gathers an Input from the named sensors and the state buffers.
func FromEngine(eng dynamo.Engine) (Input, error) {
	var in Input
	sensors := []struct {
		name string
		dst  *[]float64
	}{
		{dynamo.SensorCubeOrientation, &in.CubeOrientation},
		{dynamo.SensorGoalOrientation, &in.GoalOrientation},
		{dynamo.SensorCubeLinearVelocity, &in.CubeLinearVelocity},
		{dynamo.SensorCubeAngularVelocity, &in.CubeAngularVelocity},
	}
	for _, s := range sensors {
		v, err := eng.Sensor(s.name)
		if err != nil {
			return Input{}, err
		}
		*s.dst = v
	}
	pos, err := eng.Sensor(dynamo.SensorCubePosition)
	if err != nil {
		return Input{}, err
	}
	in.CubePosition = rotation.Vec(pos)

	in.ActuatorForce = eng.ActuatorForce()
	in.JointPosition = eng.QPos()[7:dynamo.NQ]
	in.JointVelocity = eng.QVel()[6:dynamo.NV]
	in.NominalPose = eng.KeyQPos()[7:dynamo.NQ]
	return in, nil
}
