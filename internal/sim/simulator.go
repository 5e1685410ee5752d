package sim

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/leap/internal/control"
	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/engine"
	"github.com/san-kum/leap/internal/noise"
	"github.com/san-kum/leap/internal/residual"
	"github.com/san-kum/leap/internal/rotation"
	"github.com/san-kum/leap/internal/task"
)

// Simulator runs episodes of the task: observe, act, step, transition.
type Simulator struct {
	plant     Plant
	session   *task.Session
	policy    control.Policy
	estimate  *engine.Estimate
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	log       *zap.Logger

	step     int
	residual []float64
	observed noise.Observation
	command  control.Command
}

func New(plant Plant, session *task.Session, policy control.Policy, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		plant:     plant,
		session:   session,
		policy:    policy,
		estimate:  engine.NewEstimate(),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		log:       log,
		residual:  make([]float64, residual.Size),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Session() *task.Session { return s.session }
func (s *Simulator) Plant() Plant           { return s.plant }
func (s *Simulator) Policy() control.Policy { return s.policy }

// Observed returns the observation the policy acted on in the last step.
func (s *Simulator) Observed() noise.Observation { return s.observed }

// Residual returns the cost vector of the last step. It is overwritten by
// the next one.
func (s *Simulator) Residual() []float64 { return s.residual }

// Reset starts a new episode.
func (s *Simulator) Reset() error {
	for _, m := range s.metrics {
		m.Reset()
	}
	s.policy.Reset()
	s.step = 0
	return s.session.Reset(s.plant)
}

// Step advances one control period of dt. The returned error collects
// transition and residual failures; the step itself always completes.
func (s *Simulator) Step(dt float64) (dynamo.Sample, error) {
	var errs error

	s.estimate.Sync(s.plant)
	s.observed = s.session.Observe(s.plant, s.estimate)

	goalSensor, err := s.plant.Sensor(dynamo.SensorGoalOrientation)
	if err != nil {
		return dynamo.Sample{}, err
	}
	s.command = s.policy.Compute(control.Input{
		QPos:    s.estimate.QPos(),
		QVel:    s.estimate.QVel(),
		Goal:    rotation.FromSlice(goalSensor),
		Nominal: s.plant.KeyQPos()[7:dynamo.NQ],
	}, s.plant.Time())

	s.plant.SetControl(s.command.Joints)
	s.plant.SetCubeVelocity(s.command.Linear, s.command.Angular)
	s.plant.Step(dt)

	errs = multierr.Append(errs, s.session.Transition(s.plant))
	errs = multierr.Append(errs, s.session.Residual(s.plant, s.residual))

	sample := dynamo.Sample{
		Step:      s.step,
		Time:      s.plant.Time(),
		Residual:  s.residual,
		Control:   s.command.Joints,
		Telemetry: s.session.Telemetry(),
	}
	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, obs := range s.observers {
		obs.OnStep(sample)
	}
	s.step++
	return sample, errs
}

func (s *Simulator) frame(sample dynamo.Sample) Frame {
	n := floats.Norm(sample.Residual, 2)
	rot, pos := s.session.Noise()
	w := s.estimate.QVel()
	return Frame{
		Time:            sample.Time,
		Cost:            0.5 * n * n,
		Telemetry:       sample.Telemetry,
		Noise:           [6]float64{rot[0], rot[1], rot[2], pos[0], pos[1], pos[2]},
		AngularVelocity: [3]float64{w[3], w[4], w[5]},
	}
}

func (s *Simulator) valid() bool {
	return dynamo.State(s.plant.QPos()).IsValid() && dynamo.State(s.plant.QVel()).IsValid()
}

// Run resets the session and runs one episode of cfg.Duration seconds.
// Step errors are collected in Result.Err; an invalid state or a cancelled
// context stops the run.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	every := max(cfg.RecordEvery, 1)
	result := &Result{
		Frames:  make([]Frame, 0, steps/every+1),
		Metrics: make(map[string]float64),
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, err := s.Step(cfg.Dt)
		result.Err = multierr.Append(result.Err, err)

		if cfg.ValidateState && !s.valid() {
			result.Err = multierr.Append(result.Err,
				dynamo.SimError{Time: sample.Time, Step: i, Message: "invalid state (NaN/Inf)"})
			break
		}
		result.StepsTaken++

		if i%every == 0 {
			result.Frames = append(result.Frames, s.frame(sample))
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	tel := s.session.Telemetry()
	s.log.Info("episode finished",
		zap.Int("steps", result.StepsTaken),
		zap.Int("best_rotation_count", tel.BestRotationCount),
		zap.Int("drops", tel.Drops),
		zap.Int("timeouts", tel.Timeouts),
	)
	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("record_every must be non-negative: %w", dynamo.ErrParameterBounds)
	}
	return nil
}
