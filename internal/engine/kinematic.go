// Package engine provides Kinematic, an in-memory stand-in for the physics
// engine. It integrates the cube's free joint and the hand joints without
// dynamics, reports a cube-floor contact when the cube sinks below the floor
// threshold, and serves the named sensors the task reads.
package engine

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/residual"
	"github.com/san-kum/leap/internal/rotation"
)

const (
	DefaultFloorHeight = -0.1
	DefaultStiffness   = 2.0
	DefaultTau         = 0.05
)

// Model names the entities of a kinematic scene.
type Model struct {
	Geoms       map[string]int
	Bodies      map[string]int
	Mocaps      map[string]int
	ResidualDim int
	Key         []float64
	FloorHeight float64
	Stiffness   float64
	Tau         float64
}

// DefaultModel is the hand-cube scene: the cube resting over the palm at the
// keyframe, a goal marker and a noisy-cube marker.
func DefaultModel() Model {
	key := make([]float64, dynamo.NQ)
	key[0], key[1], key[2] = 0.11, 0, 0.0
	key[3] = 1
	for i := 0; i < dynamo.NumJoints; i++ {
		key[7+i] = 0.1 * float64(i%4)
	}
	return Model{
		Geoms:       map[string]int{dynamo.GeomFloor: 0, dynamo.GeomCube: 1, "palm": 2},
		Bodies:      map[string]int{"world": 0, dynamo.BodyCube: 1},
		Mocaps:      map[string]int{dynamo.MocapGoal: 0, dynamo.MocapNoisy: 1},
		ResidualDim: residual.Size,
		Key:         key,
		FloorHeight: DefaultFloorHeight,
		Stiffness:   DefaultStiffness,
		Tau:         DefaultTau,
	}
}

// Kinematic implements dynamo.Engine.
type Kinematic struct {
	model Model
	lock  sync.Locker

	time      float64
	qpos      []float64
	qvel      []float64
	ctrl      []float64
	force     []float64
	mocapPos  [][3]float64
	mocapQuat [][4]float64
	contacts  []dynamo.Contact
	sensors   map[string][]float64
}

func New(m Model) *Kinematic {
	nm := 0
	for _, id := range m.Mocaps {
		nm = max(nm, id+1)
	}
	k := &Kinematic{
		model:     m,
		qpos:      make([]float64, dynamo.NQ),
		qvel:      make([]float64, dynamo.NV),
		ctrl:      make([]float64, dynamo.NumJoints),
		force:     make([]float64, dynamo.NumJoints),
		mocapPos:  make([][3]float64, nm),
		mocapQuat: make([][4]float64, nm),
		sensors: map[string][]float64{
			dynamo.SensorCubePosition:        make([]float64, 3),
			dynamo.SensorCubeOrientation:     make([]float64, 4),
			dynamo.SensorGoalOrientation:     make([]float64, 4),
			dynamo.SensorCubeLinearVelocity:  make([]float64, 3),
			dynamo.SensorCubeAngularVelocity: make([]float64, 3),
		},
	}
	copy(k.qpos, m.Key)
	copy(k.ctrl, m.Key[7:])
	for i := range k.mocapQuat {
		k.mocapQuat[i] = [4]float64{1, 0, 0, 0}
	}
	if id, ok := m.Mocaps[dynamo.MocapGoal]; ok {
		k.mocapPos[id] = [3]float64{0.11, 0.12, 0.05}
	}
	k.forward()
	return k
}

// SetLocker makes Step and Forward run under l.
func (k *Kinematic) SetLocker(l sync.Locker) { k.lock = l }

func (k *Kinematic) acquire() func() {
	if k.lock == nil {
		return func() {}
	}
	k.lock.Lock()
	return k.lock.Unlock
}

func (k *Kinematic) Time() float64 { return k.time }

func (k *Kinematic) Sensor(name string) ([]float64, error) {
	s, ok := k.sensors[name]
	if !ok {
		return nil, fmt.Errorf("sensor %q: %w", name, dynamo.ErrUnknownName)
	}
	return s, nil
}

func (k *Kinematic) ResidualDim() int { return k.model.ResidualDim }

func (k *Kinematic) GeomID(name string) int  { return lookup(k.model.Geoms, name) }
func (k *Kinematic) BodyID(name string) int  { return lookup(k.model.Bodies, name) }
func (k *Kinematic) MocapID(name string) int { return lookup(k.model.Mocaps, name) }

func lookup(m map[string]int, name string) int {
	if id, ok := m[name]; ok {
		return id
	}
	return -1
}

// FreeJoint reports the cube's free joint, which leads qpos and qvel.
func (k *Kinematic) FreeJoint(body int) (qposAdr, dofAdr int, ok bool) {
	if id, found := k.model.Bodies[dynamo.BodyCube]; found && id == body {
		return 0, 0, true
	}
	return 0, 0, false
}

func (k *Kinematic) KeyQPos() []float64         { return k.model.Key }
func (k *Kinematic) QPos() []float64            { return k.qpos }
func (k *Kinematic) QVel() []float64            { return k.qvel }
func (k *Kinematic) ActuatorForce() []float64   { return k.force }
func (k *Kinematic) Contacts() []dynamo.Contact { return k.contacts }

// AddContact injects a contact until the next Forward or Step.
func (k *Kinematic) AddContact(c dynamo.Contact) {
	k.contacts = append(k.contacts, c)
}

func (k *Kinematic) SetMocap(id int, pos [3]float64, quat [4]float64) {
	k.mocapPos[id] = pos
	k.mocapQuat[id] = quat
}

func (k *Kinematic) Mocap(id int) ([3]float64, [4]float64) {
	return k.mocapPos[id], k.mocapQuat[id]
}

// SetControl sets the joint position targets.
func (k *Kinematic) SetControl(u dynamo.Control) {
	copy(k.ctrl, u)
}

// SetCubeVelocity sets the cube twist; angular is in the cube frame.
func (k *Kinematic) SetCubeVelocity(linear, angular r3.Vec) {
	rotation.PutVec(k.qvel[0:3], linear)
	rotation.PutVec(k.qvel[3:6], angular)
}

// SetCubePose places the cube.
func (k *Kinematic) SetCubePose(pos r3.Vec, quat [4]float64) {
	rotation.PutVec(k.qpos[0:3], pos)
	copy(k.qpos[3:7], quat[:])
}

func (k *Kinematic) Forward() {
	defer k.acquire()()
	k.forward()
}

// Step advances the state by dt. Joints relax toward their targets with
// time constant Tau; actuator forces are Stiffness times the tracking error.
func (k *Kinematic) Step(dt float64) {
	defer k.acquire()()

	pos := r3.Add(rotation.Vec(k.qpos[0:3]), r3.Scale(dt, rotation.Vec(k.qvel[0:3])))
	rotation.PutVec(k.qpos[0:3], pos)
	q := rotation.Integrate(rotation.FromSlice(k.qpos[3:7]), rotation.Vec(k.qvel[3:6]), dt)
	rotation.Put(k.qpos[3:7], rotation.Normalize(q))

	for i := 0; i < dynamo.NumJoints; i++ {
		e := k.ctrl[i] - k.qpos[7+i]
		k.force[i] = k.model.Stiffness * e
		k.qvel[6+i] = e / k.model.Tau
		k.qpos[7+i] += k.qvel[6+i] * dt
	}
	k.time += dt
	k.forward()
}

func (k *Kinematic) forward() {
	copy(k.sensors[dynamo.SensorCubePosition], k.qpos[0:3])
	copy(k.sensors[dynamo.SensorCubeOrientation], k.qpos[3:7])
	copy(k.sensors[dynamo.SensorCubeLinearVelocity], k.qvel[0:3])
	copy(k.sensors[dynamo.SensorCubeAngularVelocity], k.qvel[3:6])
	if id, ok := k.model.Mocaps[dynamo.MocapGoal]; ok {
		copy(k.sensors[dynamo.SensorGoalOrientation], k.mocapQuat[id][:])
	}

	k.contacts = k.contacts[:0]
	cube, okc := k.model.Geoms[dynamo.GeomCube]
	floor, okf := k.model.Geoms[dynamo.GeomFloor]
	if okc && okf && k.qpos[2] < k.model.FloorHeight {
		k.contacts = append(k.contacts, dynamo.Contact{Geom1: floor, Geom2: cube})
	}
}

// Estimate is the estimator-side state buffer of a Kinematic engine.
type Estimate struct {
	time float64
	qpos []float64
	qvel []float64
}

func NewEstimate() *Estimate {
	return &Estimate{
		qpos: make([]float64, dynamo.NQ),
		qvel: make([]float64, dynamo.NV),
	}
}

// Sync copies the engine's true state.
func (e *Estimate) Sync(eng dynamo.Engine) {
	e.time = eng.Time()
	copy(e.qpos, eng.QPos())
	copy(e.qvel, eng.QVel())
}

func (e *Estimate) Time() float64              { return e.time }
func (e *Estimate) QPos() []float64            { return e.qpos }
func (e *Estimate) QVel() []float64            { return e.qvel }
func (e *Estimate) SetPosition(qpos []float64) { copy(e.qpos, qpos) }
func (e *Estimate) SetVelocity(qvel []float64) { copy(e.qvel, qvel) }
