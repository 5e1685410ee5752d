// Package noise turns the true cube and hand state into the noisy, filtered
// and delayed state the planner observes.
//
// Each step the pipeline
//
//  1. advances two bounded random walks, one in the tangent space of the
//     cube orientation and one on its position, and applies them to the
//     true pose;
//  2. estimates velocities by finite differences of successive observed
//     poses and joint positions, smoothed with an [EMA];
//  3. pushes the resulting snapshot through a [Lag] queue and publishes the
//     delayed one.
package noise

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/rotation"
)

// MinDt is the smallest time step used for finite differences. Shorter steps
// contribute a zero velocity estimate.
const MinDt = 1e-6

// Params are the live tunables of the pipeline.
type Params struct {
	RotationStd  float64
	PositionStd  float64
	PositionBias r3.Vec
	RotationMax  float64
	PositionMax  float64
	Alpha        float64
	LagSteps     int
}

// Observation is one published snapshot.
type Observation struct {
	QPos            dynamo.State
	QVel            dynamo.State
	CubePosition    r3.Vec
	CubeOrientation quat.Number
}

// SourceFunc returns the generator used for one step's noise draws.
type SourceFunc func() rand.Source

// FreshSource seeds a new PCG from the runtime generator on every call, so
// noise carries no seed continuity between steps.
func FreshSource() rand.Source {
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}

// SeededSource returns a SourceFunc whose per-step generators are drawn
// from one PCG seeded with seed, for reproducible runs.
func SeededSource(seed uint64) SourceFunc {
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	return func() rand.Source {
		return rand.NewPCG(rng.Uint64(), rng.Uint64())
	}
}

// Pipeline holds the noise walks, filter and lag queue of one session. Not
// safe for concurrent use.
type Pipeline struct {
	rot Walk
	pos Walk

	filter *EMA
	lag    Lag
	source SourceFunc

	first      bool
	lastTime   float64
	lastPos    r3.Vec
	lastQuat   quat.Number
	lastJoints []float64
}

func New(source SourceFunc) *Pipeline {
	if source == nil {
		source = FreshSource
	}
	return &Pipeline{
		filter:     NewEMA(dynamo.NV),
		source:     source,
		first:      true,
		lastQuat:   rotation.Identity,
		lastJoints: make([]float64, dynamo.NumJoints),
	}
}

// Reset clears the walks, filter, lag queue and finite-difference history.
func (p *Pipeline) Reset() {
	p.rot.Reset()
	p.pos.Reset()
	p.filter.Reset()
	p.lag.Reset()
	p.first = true
	p.lastTime = 0
	p.lastPos = r3.Vec{}
	p.lastQuat = rotation.Identity
	clear(p.lastJoints)
}

// Noise returns the current orientation and position walk values.
func (p *Pipeline) Noise() (rot, pos r3.Vec) {
	return p.rot.Value(), p.pos.Value()
}

// Filtered returns the current filtered velocity estimate.
func (p *Pipeline) Filtered() []float64 { return p.filter.Value() }

// Buffered returns the number of snapshots waiting in the lag queue.
func (p *Pipeline) Buffered() int { return p.lag.Len() }

// Observe reads the true state from buf, runs one step and writes the
// observed state back.
func (p *Pipeline) Observe(params Params, buf dynamo.StateBuffer) Observation {
	obs := p.Apply(params, buf.Time(), buf.QPos())
	buf.SetPosition(obs.QPos)
	buf.SetVelocity(obs.QVel)
	return obs
}

// Apply runs one step on the true positions qpos at time t. Published
// velocities are always estimated, never copied from the engine.
func (p *Pipeline) Apply(params Params, t float64, qpos []float64) Observation {
	p.lag.Trim(params.LagSteps)
	src := p.source()

	rotNoise := p.rot.Step(r3.Vec{}, params.RotationStd, params.RotationMax, src)
	cubeQuat := rotation.Normalize(rotation.Integrate(rotation.FromSlice(qpos[3:7]), rotNoise, 1))

	posNoise := p.pos.Step(params.PositionBias, params.PositionStd, params.PositionMax, src)
	cubePos := r3.Add(rotation.Vec(qpos[0:3]), posNoise)

	joints := qpos[7:dynamo.NQ]
	raw := make([]float64, dynamo.NV)
	if dt := t - p.lastTime; !p.first && dt >= MinDt {
		rotation.PutVec(raw[0:3], r3.Scale(1/dt, r3.Sub(cubePos, p.lastPos)))
		rotation.PutVec(raw[3:6], rotation.AngularVelocity(cubeQuat, p.lastQuat, dt))
		for i, q := range joints {
			raw[6+i] = (q - p.lastJoints[i]) / dt
		}
	}
	vel := p.filter.Update(params.Alpha, raw)

	p.first = false
	p.lastTime = t
	p.lastPos = cubePos
	p.lastQuat = cubeQuat
	copy(p.lastJoints, joints)

	snap := make(dynamo.State, dynamo.NQ+dynamo.NV)
	rotation.PutVec(snap[0:3], cubePos)
	rotation.Put(snap[3:7], cubeQuat)
	copy(snap[7:dynamo.NQ], joints)
	copy(snap[dynamo.NQ:], vel)

	out := p.lag.Push(snap, params.LagSteps).Clone()
	return Observation{
		QPos:            out[:dynamo.NQ],
		QVel:            out[dynamo.NQ:],
		CubePosition:    rotation.Vec(out[0:3]),
		CubeOrientation: rotation.FromSlice(out[3:7]),
	}
}
