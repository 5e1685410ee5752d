package task

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/goal"
	"github.com/san-kum/leap/internal/noise"
	"github.com/san-kum/leap/internal/residual"
)

// Session is the mutable state of one task instance.
type Session struct {
	mu sync.Mutex

	id  uuid.UUID
	log *zap.Logger
	now func() time.Time

	params    Params
	sampler   *goal.Sampler
	pipeline  *noise.Pipeline
	evaluator *residual.Evaluator

	goalSrc  rand.Source
	noiseSrc noise.SourceFunc

	cubeGeom   int
	floorGeom  int
	goalMocap  int
	noisyMocap int

	rotationCount     int
	bestRotationCount int
	lastReset         time.Time
	lastRotation      time.Time
	lastAngle         float64
	drops             int
	timeouts          int
	goalChanges       int

	observed  bool
	noisyPos  r3.Vec
	noisyQuat quat.Number

	telemetry dynamo.Telemetry
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces time.Now for the rotation and reset timers.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithGoalSource seeds the goal sampler.
func WithGoalSource(src rand.Source) Option {
	return func(s *Session) { s.goalSrc = src }
}

// WithNoiseSource sets the generator factory of the observation noise.
func WithNoiseSource(f noise.SourceFunc) Option {
	return func(s *Session) { s.noiseSrc = f }
}

func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

// New builds a session for eng. It fails when the parameters are out of
// range, the model's residual dimension is wrong, or a required geom or
// marker cannot be resolved.
func New(eng dynamo.Engine, params Params, opts ...Option) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.New(),
		log:    zap.NewNop(),
		now:    time.Now,
		params: params,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("session", s.id.String()))

	ev, err := residual.New(eng.ResidualDim())
	if err != nil {
		return nil, err
	}
	s.evaluator = ev

	lookups := []struct {
		kind, name string
		id         func(string) int
		dst        *int
	}{
		{"geom", dynamo.GeomCube, eng.GeomID, &s.cubeGeom},
		{"geom", dynamo.GeomFloor, eng.GeomID, &s.floorGeom},
		{"mocap body", dynamo.MocapGoal, eng.MocapID, &s.goalMocap},
		{"mocap body", dynamo.MocapNoisy, eng.MocapID, &s.noisyMocap},
	}
	for _, l := range lookups {
		id := l.id(l.name)
		if id < 0 {
			return nil, fmt.Errorf("%s %q: %w", l.kind, l.name, dynamo.ErrUnknownName)
		}
		*l.dst = id
	}

	var sopts []goal.Option
	if s.goalSrc != nil {
		sopts = append(sopts, goal.WithSource(s.goalSrc))
	}
	s.sampler = goal.NewSampler(params.goalMode(), sopts...)
	s.pipeline = noise.New(s.noiseSrc)

	now := s.now()
	s.lastReset = now
	s.lastRotation = now
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Locker is the session mutex, for engines whose Forward must serialize
// with the session.
func (s *Session) Locker() sync.Locker { return &s.mu }

func (s *Session) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams replaces all tunables. They take effect on the next step.
func (s *Session) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.sampler.SetMode(p.goalMode())
	return nil
}

func (s *Session) GetParams() map[string]float64 {
	return s.Params().Map()
}

// SetParam sets one tunable by name.
func (s *Session) SetParam(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.params.With(name, value)
	if err != nil {
		return err
	}
	s.params = p
	s.sampler.SetMode(p.goalMode())
	return nil
}

// Telemetry returns the counters published by the last transition.
func (s *Session) Telemetry() dynamo.Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.telemetry
}

// Residual writes the cost vector for the current engine state into out.
// It reads engine buffers only and does not touch session state.
func (s *Session) Residual(eng dynamo.Engine, out []float64) error {
	in, err := residual.FromEngine(eng)
	if err != nil {
		return err
	}
	return s.evaluator.Evaluate(in, out)
}

// Reset starts a new episode: the cube goes back to its keyframe, counters,
// timers and the observation pipeline are cleared and a new goal is drawn.
// The best rotation count survives.
func (s *Session) Reset(eng dynamo.Engine) error {
	s.mu.Lock()
	s.resetCubeLocked(eng)
	s.rotationCount = 0
	s.drops, s.timeouts, s.goalChanges = 0, 0, 0
	s.pipeline.Reset()
	s.observed = false
	now := s.now()
	s.lastReset = now
	err := s.changeGoalLocked(eng, now)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	eng.Forward()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Info("session reset")
	return s.publishLocked(eng)
}

// resetCubeLocked puts the cube's free joint back at the keyframe with zero
// velocity. A model without a free-jointed cube body is left alone.
func (s *Session) resetCubeLocked(eng dynamo.Engine) {
	body := eng.BodyID(dynamo.BodyCube)
	if body < 0 {
		return
	}
	qadr, dadr, ok := eng.FreeJoint(body)
	if !ok {
		return
	}
	copy(eng.QPos()[qadr:qadr+7], eng.KeyQPos()[qadr:qadr+7])
	clear(eng.QVel()[dadr : dadr+6])
}
