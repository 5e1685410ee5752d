package sim

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/leap/internal/control"
	"github.com/san-kum/leap/internal/engine"
	"github.com/san-kum/leap/internal/noise"
	"github.com/san-kum/leap/internal/task"
)

// Options configure a kinematic harness.
type Options struct {
	Model        engine.Model
	Params       task.Params
	Policy       string
	PolicyParams map[string]float64
	Log          *zap.Logger
}

// SimClock reads the engine's simulated time as a wall time counted from the
// Unix epoch, so session timers follow the simulation rather than the CPU.
func SimClock(eng interface{ Time() float64 }) func() time.Time {
	return func() time.Time {
		return time.Unix(0, 0).Add(time.Duration(eng.Time() * float64(time.Second)))
	}
}

// NewKinematic wires a kinematic engine, a task session and a policy into a
// simulator. A zero seed leaves goals and noise unseeded.
func NewKinematic(opts Options, seed uint64) (*Simulator, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	eng := engine.New(opts.Model)

	topts := []task.Option{task.WithLogger(log), task.WithClock(SimClock(eng))}
	if seed != 0 {
		topts = append(topts,
			task.WithGoalSource(rand.NewPCG(seed, 1)),
			task.WithNoiseSource(noise.SeededSource(seed)),
		)
	}
	sess, err := task.New(eng, opts.Params, topts...)
	if err != nil {
		return nil, err
	}
	eng.SetLocker(sess.Locker())

	policy, err := control.New(opts.Policy, opts.PolicyParams)
	if err != nil {
		return nil, err
	}
	return New(eng, sess, policy, log.With(zap.Uint64("seed", seed))), nil
}
