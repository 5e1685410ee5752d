package task

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/rotation"
)

// Transition advances the goal state machine by one step: it counts a
// success when the cube is within the threshold of the goal, resets the
// cube after a drop or timeout, and draws a new goal after either.
func (s *Session) Transition(eng dynamo.Engine) error {
	s.mu.Lock()
	recompute, err := s.transitionLocked(eng)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if recompute {
		eng.Forward()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(eng)
}

func (s *Session) transitionLocked(eng dynamo.Engine) (bool, error) {
	cubeSensor, err := eng.Sensor(dynamo.SensorCubeOrientation)
	if err != nil {
		return false, err
	}
	goalSensor, err := eng.Sensor(dynamo.SensorGoalOrientation)
	if err != nil {
		return false, err
	}

	goalQuat := rotation.FromSlice(goalSensor)
	if rotation.IsZero(goalQuat) {
		goalQuat = rotation.Identity
		rotation.Put(goalSensor, goalQuat)
	}
	angle := rotation.AngleDeg(rotation.FromSlice(cubeSensor), goalQuat)
	s.lastAngle = angle

	changeGoal := false
	if angle < s.params.Threshold() {
		changeGoal = true
		s.rotationCount++
		s.bestRotationCount = max(s.bestRotationCount, s.rotationCount)
	}

	onFloor := false
	for _, c := range eng.Contacts() {
		if c.Between(s.cubeGeom, s.floorGeom) {
			onFloor = true
			break
		}
	}
	if onFloor {
		s.resetCubeLocked(eng)
	}

	now := s.now()
	sinceReset := now.Sub(s.lastReset).Seconds()
	sinceRotation := now.Sub(s.lastRotation).Seconds()
	timedOut := sinceRotation > s.params.TimeoutSeconds

	if onFloor || timedOut {
		// a timeout does not count its idle interval against the average
		active := sinceReset
		if timedOut {
			active = sinceReset - sinceRotation
		}
		msg := "timeout detected, resetting cube"
		if onFloor {
			s.drops++
			msg = "drop detected, resetting cube"
		} else {
			s.timeouts++
		}
		s.log.Info(msg,
			zap.Int("rotations", s.rotationCount),
			zap.Float64("seconds_per_rotation", active/math.Max(float64(s.rotationCount), 1)),
		)

		s.lastReset = now
		s.rotationCount = 0
		changeGoal = true
	}

	if changeGoal {
		if err := s.changeGoalLocked(eng, now); err != nil {
			return false, err
		}
	}
	return onFloor || changeGoal, nil
}

// changeGoalLocked draws a new goal and writes it into the goal marker.
func (s *Session) changeGoalLocked(eng dynamo.Engine, now time.Time) error {
	goalSensor, err := eng.Sensor(dynamo.SensorGoalOrientation)
	if err != nil {
		return err
	}
	q := s.sampler.Next(rotation.FromSlice(goalSensor))

	pos, _ := eng.Mocap(s.goalMocap)
	eng.SetMocap(s.goalMocap, pos, rotation.Array(q))
	s.lastRotation = now
	s.goalChanges++
	goalArr := rotation.Array(q)
	s.log.Debug("goal changed", zap.Float64s("goal", goalArr[:]))
	return nil
}

// publishLocked mirrors the observed cube into its marker and refreshes the
// telemetry.
func (s *Session) publishLocked(eng dynamo.Engine) error {
	if s.observed {
		eng.SetMocap(s.noisyMocap, rotation.Array3(s.noisyPos), rotation.Array(s.noisyQuat))
	}

	pos, err := eng.Sensor(dynamo.SensorCubePosition)
	if err != nil {
		return err
	}

	now := s.now()
	sinceReset := now.Sub(s.lastReset).Seconds()
	s.telemetry = dynamo.Telemetry{
		RotationCount:       s.rotationCount,
		BestRotationCount:   s.bestRotationCount,
		SinceLastRotation:   now.Sub(s.lastRotation).Seconds(),
		SinceLastReset:      sinceReset,
		SecondsPerRotation:  sinceReset / math.Max(float64(s.rotationCount), 1),
		CubePosition:        [3]float64{pos[0], pos[1], pos[2]},
		OrientationErrorDeg: s.lastAngle,
		Drops:               s.drops,
		Timeouts:            s.timeouts,
		GoalChanges:         s.goalChanges,
	}
	return nil
}
