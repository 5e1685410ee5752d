package goal

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/leap/internal/rotation"
)

func TestTablesAreUnit(t *testing.T) {
	for i, q := range Faces {
		assert.InDelta(t, 1.0, quat.Abs(q), 1e-12, "face %d", i)
	}
	for i, q := range Spins {
		assert.InDelta(t, 1.0, quat.Abs(q), 1e-12, "spin %d", i)
	}
}

func TestAxis_AllDistinct(t *testing.T) {
	goals := make([]quat.Number, 0, 24)
	for f := range Faces {
		for s := range Spins {
			q := Axis(f, s)
			require.InDelta(t, 1.0, quat.Abs(q), 1e-12)
			goals = append(goals, q)
		}
	}

	for i := range goals {
		for j := i + 1; j < len(goals); j++ {
			assert.Greater(t, rotation.AngleDeg(goals[i], goals[j]), 1.0,
				"goals %d and %d coincide", i, j)
		}
	}
}

func TestDiscrete_NeverRepeatsPair(t *testing.T) {
	s := NewSampler(Discrete, WithSource(rand.NewPCG(1, 2)))

	f, sp := s.Last()
	assert.Equal(t, -1, f)
	assert.Equal(t, -1, sp)

	seen := make(map[[2]int]bool)
	prevF, prevS := -1, -1
	for i := 0; i < 2000; i++ {
		q := s.Next(rotation.Identity)
		f, sp := s.Last()
		require.False(t, f == prevF && sp == prevS, "draw %d repeated (%d, %d)", i, f, sp)
		assert.InDelta(t, 1.0, quat.Abs(q), 1e-12)
		assert.Equal(t, Axis(f, sp), q)
		seen[[2]int{f, sp}] = true
		prevF, prevS = f, sp
	}
	assert.Len(t, seen, 24)
}

func TestContinuous_Separation(t *testing.T) {
	s := NewSampler(Continuous, WithSource(rand.NewPCG(7, 11)))

	current := rotation.Identity
	for i := 0; i < 1000; i++ {
		q := s.Next(current)
		require.InDelta(t, 1.0, quat.Abs(q), 1e-12)
		require.GreaterOrEqual(t, rotation.AngleDeg(q, current), MinSeparationDeg)
		current = q
	}
}

func TestContinuous_DegenerateCurrent(t *testing.T) {
	s := NewSampler(Continuous, WithSource(rand.NewPCG(3, 5)))

	q := s.Next(quat.Number{})
	assert.GreaterOrEqual(t, rotation.AngleDeg(q, rotation.Identity), MinSeparationDeg)
}

func TestUniform_CoversHemispheres(t *testing.T) {
	s := NewSampler(Continuous, WithSource(rand.NewPCG(9, 9)))

	var sum [4]float64
	n := 20000
	for i := 0; i < n; i++ {
		q := s.Uniform()
		sum[0] += q.Real
		sum[1] += q.Imag
		sum[2] += q.Jmag
		sum[3] += q.Kmag
	}
	for i, v := range sum {
		assert.Less(t, math.Abs(v/float64(n)), 0.03, "component %d mean", i)
	}
}

func TestSetMode(t *testing.T) {
	s := NewSampler(Discrete)
	assert.Equal(t, "discrete", s.Mode().String())
	s.SetMode(Continuous)
	assert.Equal(t, Continuous, s.Mode())
	assert.Equal(t, "continuous", s.Mode().String())
}
