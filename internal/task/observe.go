package task

import (
	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/noise"
	"github.com/san-kum/leap/internal/rotation"
)

// Observe replaces the true state in est with the noisy, filtered and
// delayed observation and moves the noisy-cube marker to the observed pose.
func (s *Session) Observe(eng dynamo.Engine, est dynamo.StateBuffer) noise.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs := s.pipeline.Observe(s.params.noise(), est)
	s.noisyPos = obs.CubePosition
	s.noisyQuat = obs.CubeOrientation
	s.observed = true
	eng.SetMocap(s.noisyMocap, rotation.Array3(s.noisyPos), rotation.Array(s.noisyQuat))
	return obs
}

// Noise returns the current orientation and position noise walks.
func (s *Session) Noise() (rot, pos [3]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, p := s.pipeline.Noise()
	return rotation.Array3(r), rotation.Array3(p)
}
