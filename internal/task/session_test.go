package task_test

import (
	"math"
	"math/rand/v2"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/engine"
	"github.com/san-kum/leap/internal/residual"
	"github.com/san-kum/leap/internal/rotation"
	"github.com/san-kum/leap/internal/task"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// alignCube turns the cube onto the current goal.
func alignCube(eng *engine.Kinematic) {
	g, err := eng.Sensor(dynamo.SensorGoalOrientation)
	Expect(err).NotTo(HaveOccurred())
	copy(eng.QPos()[3:7], g)
	eng.Forward()
}

var _ = Describe("Session", func() {
	var (
		eng   *engine.Kinematic
		sess  *task.Session
		clock *fakeClock
	)

	BeforeEach(func() {
		clock = &fakeClock{t: time.Unix(1700000000, 0)}
		eng = engine.New(engine.DefaultModel())
		var err error
		sess, err = task.New(eng, task.DefaultParams(),
			task.WithClock(clock.Now),
			task.WithGoalSource(rand.NewPCG(1, 2)),
		)
		Expect(err).NotTo(HaveOccurred())
		eng.SetLocker(sess.Locker())
		Expect(sess.Reset(eng)).To(Succeed())
	})

	Describe("New", func() {
		It("rejects a model with the wrong residual dimension", func() {
			m := engine.DefaultModel()
			m.ResidualDim = residual.Size - 1
			_, err := task.New(engine.New(m), task.DefaultParams())
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		DescribeTable("rejects a model missing a required name",
			func(mutate func(*engine.Model)) {
				m := engine.DefaultModel()
				mutate(&m)
				_, err := task.New(engine.New(m), task.DefaultParams())
				Expect(err).To(MatchError(dynamo.ErrUnknownName))
			},
			Entry("cube geom", func(m *engine.Model) { delete(m.Geoms, dynamo.GeomCube) }),
			Entry("floor geom", func(m *engine.Model) { delete(m.Geoms, dynamo.GeomFloor) }),
			Entry("goal marker", func(m *engine.Model) { delete(m.Mocaps, dynamo.MocapGoal) }),
			Entry("noisy marker", func(m *engine.Model) { delete(m.Mocaps, dynamo.MocapNoisy) }),
		)

		It("rejects out of range parameters", func() {
			p := task.DefaultParams()
			p.EMAAlpha = 1.5
			_, err := task.New(eng, p)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("Transition", func() {
		It("counts five consecutive successes", func() {
			for i := 0; i < 5; i++ {
				alignCube(eng)
				Expect(sess.Transition(eng)).To(Succeed())
			}
			tel := sess.Telemetry()
			Expect(tel.RotationCount).To(Equal(5))
			Expect(tel.BestRotationCount).To(BeNumerically(">=", 5))
			Expect(tel.GoalChanges).To(Equal(6))
		})

		It("draws a free goal at least 90 degrees from the last after a success", func() {
			Expect(sess.SetParam("axis_aligned_goal", 0)).To(Succeed())
			before, _ := eng.Sensor(dynamo.SensorGoalOrientation)
			prev := rotation.FromSlice(append([]float64(nil), before...))
			alignCube(eng)
			Expect(sess.Transition(eng)).To(Succeed())

			after, _ := eng.Sensor(dynamo.SensorGoalOrientation)
			Expect(rotation.AngleDeg(rotation.FromSlice(after), prev)).To(BeNumerically(">=", 89.9))
		})

		It("keeps every free goal at least 90 degrees from the one it replaces", func() {
			Expect(sess.SetParam("axis_aligned_goal", 0)).To(Succeed())
			for i := 0; i < 5; i++ {
				prev, _ := eng.Sensor(dynamo.SensorGoalOrientation)
				prevGoal := rotation.FromSlice(append([]float64(nil), prev...))
				alignCube(eng)
				Expect(sess.Transition(eng)).To(Succeed())

				next, _ := eng.Sensor(dynamo.SensorGoalOrientation)
				q := rotation.FromSlice(next)
				Expect(quat.Abs(q)).To(BeNumerically("~", 1, 1e-9))
				Expect(rotation.AngleDeg(q, prevGoal)).To(BeNumerically(">=", 90))
			}
			Expect(sess.Telemetry().RotationCount).To(Equal(5))
		})

		DescribeTable("applies the success threshold of the goal mode",
			func(aligned float64, wantCount int) {
				Expect(sess.SetParam("axis_aligned_goal", aligned)).To(Succeed())
				g, _ := eng.Sensor(dynamo.SensorGoalOrientation)
				off := rotation.AxisAngle(r3.Vec{Z: 1}, 15*math.Pi/180)
				rotation.Put(eng.QPos()[3:7], rotation.Normalize(quat.Mul(off, rotation.FromSlice(g))))
				eng.Forward()

				Expect(sess.Transition(eng)).To(Succeed())
				tel := sess.Telemetry()
				Expect(tel.OrientationErrorDeg).To(BeNumerically("~", 15, 1e-6))
				Expect(tel.RotationCount).To(Equal(wantCount))
			},
			Entry("15 degrees misses the axis-aligned threshold", 1.0, 0),
			Entry("15 degrees meets the free threshold", 0.0, 1),
		)

		It("leaves the counters alone while the cube is off target", func() {
			before := sess.Telemetry()
			q := rotation.AxisAngle(r3.Vec{X: 1}, 1.0)
			g, _ := eng.Sensor(dynamo.SensorGoalOrientation)
			rotation.Put(eng.QPos()[3:7], rotation.Normalize(quat.Mul(q, rotation.FromSlice(g))))
			eng.Forward()

			Expect(sess.Transition(eng)).To(Succeed())
			tel := sess.Telemetry()
			Expect(tel.RotationCount).To(Equal(0))
			Expect(tel.GoalChanges).To(Equal(before.GoalChanges))
			Expect(tel.OrientationErrorDeg).To(BeNumerically("~", 57.2958, 0.01))
		})

		It("resets the count and the cube after a floor contact", func() {
			for i := 0; i < 3; i++ {
				alignCube(eng)
				Expect(sess.Transition(eng)).To(Succeed())
			}
			eng.QPos()[2] = engine.DefaultFloorHeight - 0.05
			eng.QVel()[0] = 0.3
			eng.Forward()
			Expect(eng.Contacts()).NotTo(BeEmpty())

			Expect(sess.Transition(eng)).To(Succeed())
			tel := sess.Telemetry()
			Expect(tel.RotationCount).To(Equal(0))
			Expect(tel.BestRotationCount).To(Equal(3))
			Expect(tel.Drops).To(Equal(1))
			Expect(eng.QPos()[:7]).To(Equal(eng.KeyQPos()[:7]))
			Expect(eng.QVel()[:6]).To(HaveEach(0.0))
			Expect(eng.Contacts()).To(BeEmpty())
		})

		It("times out after the configured interval without a success", func() {
			alignCube(eng)
			Expect(sess.Transition(eng)).To(Succeed())
			goals := sess.Telemetry().GoalChanges

			clock.Advance(81 * time.Second)
			Expect(sess.Transition(eng)).To(Succeed())
			tel := sess.Telemetry()
			Expect(tel.Timeouts).To(Equal(1))
			Expect(tel.RotationCount).To(Equal(0))
			Expect(tel.BestRotationCount).To(Equal(1))
			Expect(tel.GoalChanges).To(Equal(goals + 1))
			Expect(tel.SinceLastReset).To(BeNumerically("~", 0, 1e-9))
		})

		It("honours a tuned timeout", func() {
			Expect(sess.SetParam("timeout_seconds", 5)).To(Succeed())
			clock.Advance(6 * time.Second)
			Expect(sess.Transition(eng)).To(Succeed())
			Expect(sess.Telemetry().Timeouts).To(Equal(1))
		})

		It("treats an all-zero goal as identity", func() {
			goalID := eng.MocapID(dynamo.MocapGoal)
			pos, _ := eng.Mocap(goalID)
			eng.SetMocap(goalID, pos, [4]float64{})
			eng.Forward()
			eng.SetCubePose(rotation.Vec(eng.KeyQPos()[0:3]), [4]float64{1, 0, 0, 0})

			Expect(sess.Transition(eng)).To(Succeed())
			Expect(sess.Telemetry().RotationCount).To(Equal(1))
		})

		It("calls Forward without holding the session lock", func() {
			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 3; i++ {
					alignCube(eng)
					_ = sess.Transition(eng)
				}
			}()
			Eventually(done, time.Second).Should(BeClosed())
		})
	})

	Describe("Reset", func() {
		It("keeps the best count and clears the rest", func() {
			for i := 0; i < 2; i++ {
				alignCube(eng)
				Expect(sess.Transition(eng)).To(Succeed())
			}
			Expect(sess.Reset(eng)).To(Succeed())
			tel := sess.Telemetry()
			Expect(tel.RotationCount).To(Equal(0))
			Expect(tel.BestRotationCount).To(Equal(2))
			Expect(tel.GoalChanges).To(Equal(1))
		})
	})

	Describe("Observe", func() {
		It("moves the noisy marker to the observed pose", func() {
			p := task.DefaultParams()
			p.PositionNoiseStd = 0.01
			Expect(sess.SetParams(p)).To(Succeed())

			est := engine.NewEstimate()
			est.Sync(eng)
			obs := sess.Observe(eng, est)

			pos, q := eng.Mocap(eng.MocapID(dynamo.MocapNoisy))
			Expect(pos).To(Equal(rotation.Array3(obs.CubePosition)))
			Expect(q).To(Equal(rotation.Array(obs.CubeOrientation)))
			Expect(est.QPos()[0:3]).To(Equal(pos[:]))

			_, noisePos := sess.Noise()
			for i := range noisePos {
				Expect(noisePos[i]).To(BeNumerically("<=", p.PositionNoiseMax))
			}
		})
	})

	Describe("Residual", func() {
		It("is zero at the keyframe with the cube on target", func() {
			alignCube(eng)
			out := make([]float64, residual.Size)
			Expect(sess.Residual(eng, out)).To(Succeed())
			Expect(out[residual.Orientation : residual.Orientation+3]).To(HaveEach(BeNumerically("~", 0, 1e-9)))
			Expect(out[residual.Pose : residual.Pose+dynamo.NumJoints]).To(HaveEach(BeNumerically("~", 0, 1e-12)))
		})

		It("rejects a short output buffer", func() {
			Expect(sess.Residual(eng, make([]float64, 10))).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})
})
