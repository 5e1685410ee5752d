package metrics

import "github.com/san-kum/leap/internal/dynamo"

// OrientationError is the mean angle in degrees between the cube and its
// goal.
type OrientationError struct {
	sum     float64
	samples int
}

func NewOrientationError() *OrientationError { return &OrientationError{} }

func (o *OrientationError) Name() string { return "orientation_error_deg" }

func (o *OrientationError) Observe(s dynamo.Sample) {
	o.sum += s.Telemetry.OrientationErrorDeg
	o.samples++
}

func (o *OrientationError) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.sum / float64(o.samples)
}

func (o *OrientationError) Reset() {
	o.sum = 0
	o.samples = 0
}

// Counter reports the last value of one telemetry counter.
type Counter struct {
	name string
	get  func(dynamo.Telemetry) int
	last int
}

func (c *Counter) Name() string            { return c.name }
func (c *Counter) Observe(s dynamo.Sample) { c.last = c.get(s.Telemetry) }
func (c *Counter) Value() float64          { return float64(c.last) }
func (c *Counter) Reset()                  { c.last = 0 }

func NewBestRotations() *Counter {
	return &Counter{name: "best_rotation_count", get: func(t dynamo.Telemetry) int { return t.BestRotationCount }}
}

func NewDrops() *Counter {
	return &Counter{name: "drops", get: func(t dynamo.Telemetry) int { return t.Drops }}
}

func NewTimeouts() *Counter {
	return &Counter{name: "timeouts", get: func(t dynamo.Telemetry) int { return t.Timeouts }}
}

func NewGoalChanges() *Counter {
	return &Counter{name: "goal_changes", get: func(t dynamo.Telemetry) int { return t.GoalChanges }}
}

// Default is the metric set a run reports.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewCost(),
		NewControlEffort(),
		NewContainment(),
		NewOrientationError(),
		NewBestRotations(),
		NewDrops(),
		NewTimeouts(),
		NewGoalChanges(),
	}
}
