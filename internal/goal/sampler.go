// Package goal samples new target orientations for the cube.
package goal

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/leap/internal/rotation"
)

// Mode selects the sampling strategy.
type Mode int

const (
	// Discrete draws one of the 24 axis-aligned cube orientations.
	Discrete Mode = iota
	// Continuous draws a uniformly random orientation.
	Continuous
)

func (m Mode) String() string {
	if m == Continuous {
		return "continuous"
	}
	return "discrete"
}

// MinSeparationDeg is the smallest rotation a continuous goal must be from
// the current one.
const MinSeparationDeg = 90.0

const r2 = 0.7071067811865476

// WristTilt aligns the goal frame with the tilted palm.
var WristTilt = quat.Number{Real: 0, Imag: 1, Jmag: 0, Kmag: 0.7}

// Faces picks which cube face points up.
var Faces = [6]quat.Number{
	{Real: 1},             // identity
	{Real: r2, Imag: r2},  // x +90
	{Imag: 1},             // x 180
	{Real: -r2, Imag: r2}, // x 270
	{Real: r2, Jmag: r2},  // y +90
	{Real: r2, Jmag: -r2}, // y 270
}

// Spins rotates the cube about the vertical axis.
var Spins = [4]quat.Number{
	{Real: 1},             // identity
	{Real: r2, Kmag: r2},  // z +90
	{Kmag: 1},             // z 180
	{Real: -r2, Kmag: r2}, // z 270
}

// Axis returns the axis-aligned goal for a face and spin index.
func Axis(face, spin int) quat.Number {
	q := quat.Mul(quat.Mul(WristTilt, Spins[spin]), Faces[face])
	return rotation.Normalize(q)
}

// Sampler produces goal orientations. It keeps one generator for its whole
// lifetime so consecutive discrete goals can be kept apart. Not safe for
// concurrent use; the task session serializes access.
type Sampler struct {
	mode Mode
	rng  *rand.Rand
	face int
	spin int
}

type Option func(*Sampler)

// WithSource seeds the sampler from src instead of a random PCG.
func WithSource(src rand.Source) Option {
	return func(s *Sampler) { s.rng = rand.New(src) }
}

func NewSampler(mode Mode, opts ...Option) *Sampler {
	s := &Sampler{
		mode: mode,
		face: -1,
		spin: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

func (s *Sampler) Mode() Mode { return s.mode }

func (s *Sampler) SetMode(m Mode) { s.mode = m }

// Last returns the most recent discrete (face, spin) pair, or (-1, -1)
// before the first discrete draw.
func (s *Sampler) Last() (face, spin int) { return s.face, s.spin }

// Next returns a new unit goal orientation. current is the goal being
// replaced; continuous sampling keeps the new goal at least
// MinSeparationDeg away from it.
func (s *Sampler) Next(current quat.Number) quat.Number {
	if s.mode == Discrete {
		return s.nextDiscrete()
	}
	return s.nextContinuous(current)
}

func (s *Sampler) nextDiscrete() quat.Number {
	face, spin := s.face, s.spin
	for face == s.face && spin == s.spin {
		face = s.rng.IntN(len(Faces))
		spin = s.rng.IntN(len(Spins))
	}
	s.face, s.spin = face, spin
	return Axis(face, spin)
}

// nextContinuous rejection-samples until the separation holds. About four in
// five uniform orientations qualify.
func (s *Sampler) nextContinuous(current quat.Number) quat.Number {
	current = rotation.Normalize(current)
	for {
		q := s.Uniform()
		if rotation.AngleDeg(q, current) >= MinSeparationDeg {
			return q
		}
	}
}

// Uniform draws an orientation uniformly from SO(3).
func (s *Sampler) Uniform() quat.Number {
	a := s.rng.Float64()
	b := 2 * math.Pi * s.rng.Float64()
	c := 2 * math.Pi * s.rng.Float64()
	s1, s2 := math.Sqrt(1-a), math.Sqrt(a)
	q := quat.Number{
		Real: s1 * math.Sin(b),
		Imag: s1 * math.Cos(b),
		Jmag: s2 * math.Sin(c),
		Kmag: s2 * math.Cos(c),
	}
	return rotation.Normalize(q)
}
