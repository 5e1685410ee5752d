package dynamo

import (
	"fmt"
	"math"
)

// Model dimensions of the hand-cube system.
const (
	NumJoints = 16
	NQ        = 7 + NumJoints
	NV        = 6 + NumJoints
)

// Sensor names read by the task.
const (
	SensorCubePosition        = "cube_position"
	SensorCubeOrientation     = "cube_orientation"
	SensorGoalOrientation     = "cube_goal_orientation"
	SensorCubeLinearVelocity  = "cube_linear_velocity"
	SensorCubeAngularVelocity = "cube_angular_velocity"
)

// Model names resolved at session start.
const (
	GeomCube   = "cube"
	GeomFloor  = "floor"
	BodyCube   = "cube"
	MocapGoal  = "goal"
	MocapNoisy = "noisy_cube"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is one actuator command per joint.
type Control []float64

// Contact is an active contact between two geoms.
type Contact struct {
	Geom1, Geom2 int
}

// Between reports whether the contact pairs geoms a and b in either order.
func (c Contact) Between(a, b int) bool {
	return (c.Geom1 == a && c.Geom2 == b) || (c.Geom1 == b && c.Geom2 == a)
}

// Engine is the physics engine surface the task consumes. Slices returned by
// the accessors alias the engine's buffers.
type Engine interface {
	Time() float64
	Sensor(name string) ([]float64, error)
	// ResidualDim is the number of residual sensors the model declares.
	ResidualDim() int

	// Name lookups return -1 when the name is unknown.
	GeomID(name string) int
	BodyID(name string) int
	MocapID(name string) int
	// FreeJoint returns the qpos and qvel addresses of the free joint of body.
	FreeJoint(body int) (qposAdr, dofAdr int, ok bool)

	KeyQPos() []float64
	QPos() []float64
	QVel() []float64
	ActuatorForce() []float64
	Contacts() []Contact

	SetMocap(id int, pos [3]float64, quat [4]float64)
	Mocap(id int) (pos [3]float64, quat [4]float64)

	// Forward recomputes derived quantities (sensors, contacts) from qpos and
	// qvel. Implementations take the session lock themselves.
	Forward()
}

// StateBuffer is the estimator's copy of the state. The observation pipeline
// reads the true state from it and overwrites it with the observed one.
type StateBuffer interface {
	Time() float64
	QPos() []float64
	QVel() []float64
	SetPosition(qpos []float64)
	SetVelocity(qvel []float64)
}

// Telemetry is published by the task once per transition.
type Telemetry struct {
	RotationCount       int
	BestRotationCount   int
	SinceLastRotation   float64
	SinceLastReset      float64
	SecondsPerRotation  float64
	CubePosition        [3]float64
	OrientationErrorDeg float64
	Drops               int
	Timeouts            int
	GoalChanges         int
}

// Sample is what metrics and observers see after each step.
type Sample struct {
	Step      int
	Time      float64
	Residual  []float64
	Control   Control
	Telemetry Telemetry
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
