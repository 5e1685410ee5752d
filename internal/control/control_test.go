package control

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/rotation"
)

func input(q [4]float64) Input {
	qpos := make([]float64, dynamo.NQ)
	qpos[0] = 0.11
	copy(qpos[3:7], q[:])
	nom := make([]float64, dynamo.NumJoints)
	for i := range nom {
		nom[i] = 0.2
	}
	return Input{QPos: qpos, QVel: make([]float64, dynamo.NV), Goal: rotation.Identity, Nominal: nom}
}

func TestNone(t *testing.T) {
	cmd := NewNone().Compute(input([4]float64{1}), 0)
	if len(cmd.Joints) != dynamo.NumJoints {
		t.Fatalf("expected %d joint targets, got %d", dynamo.NumJoints, len(cmd.Joints))
	}
	for i, v := range cmd.Joints {
		if v != 0.2 {
			t.Errorf("joint[%d] should hold nominal 0.2, got %f", i, v)
		}
	}
	if cmd.Angular != (r3.Vec{}) || cmd.Linear != (r3.Vec{}) {
		t.Errorf("expected zero twist, got %v %v", cmd.Linear, cmd.Angular)
	}
}

func TestTrackerTurnsTowardGoal(t *testing.T) {
	p := NewTracker()
	q := rotation.AxisAngle(r3.Vec{Z: 1}, 0.5)
	cmd := p.Compute(input(rotation.Array(q)), 0)

	// the goal is identity, so the cube must turn back about -z
	if cmd.Angular.Z >= 0 {
		t.Errorf("expected negative z rate, got %f", cmd.Angular.Z)
	}
	if math.Abs(cmd.Angular.Z+p.Kp*0.5) > 1e-9 {
		t.Errorf("expected %f, got %f", -p.Kp*0.5, cmd.Angular.Z)
	}
}

func TestTrackerClampsRate(t *testing.T) {
	p := NewTracker()
	p.Kp = 100
	q := rotation.AxisAngle(r3.Vec{X: 1}, 1)
	cmd := p.Compute(input(rotation.Array(q)), 0)
	if math.Abs(cmd.Angular.X) > p.MaxRate+1e-12 {
		t.Errorf("rate %f exceeds max %f", cmd.Angular.X, p.MaxRate)
	}
}

func TestTrackerDropSchedule(t *testing.T) {
	p := NewTracker()
	p.DropEvery = 2
	in := input([4]float64{1})

	tests := []struct {
		t    float64
		drop bool
	}{
		{0, false},
		{1.9, false},
		{2.0, true},
		{2.4, true},
		{2.6, false},
		{3.0, false},
		{4.6, true},
	}
	for _, tt := range tests {
		cmd := p.Compute(in, tt.t)
		dropping := cmd.Linear.Z < 0
		if dropping != tt.drop {
			t.Errorf("t=%.1f: dropping=%v, want %v", tt.t, dropping, tt.drop)
		}
	}
}

func TestTrackerHoldsHome(t *testing.T) {
	p := NewTracker()
	in := input([4]float64{1})
	in.QPos[2] = -0.02
	cmd := p.Compute(in, 0)
	if cmd.Linear.Z <= 0 {
		t.Errorf("expected upward correction, got %f", cmd.Linear.Z)
	}
}

func TestTrackerParams(t *testing.T) {
	p := NewTracker()
	for name, v := range p.GetParams() {
		if err := p.SetParam(name, v+1); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
		if p.GetParams()[name] != v+1 {
			t.Errorf("%s not applied", name)
		}
	}
	if err := p.SetParam("gain", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestNew(t *testing.T) {
	p, err := New("tracker", map[string]float64{"kp": 7, "drop_every": 3})
	if err != nil {
		t.Fatal(err)
	}
	tr := p.(*Tracker)
	if tr.Kp != 7 || tr.DropEvery != 3 {
		t.Errorf("params not applied: %+v", tr.GetParams())
	}

	if _, err := New("lqr", nil); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
	if _, err := New("manual", map[string]float64{"kp": 1}); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}

	m, err := New("manual", map[string]float64{"wz": 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if cmd := m.Compute(input([4]float64{1}), 0); cmd.Angular.Z != 1.5 {
		t.Errorf("expected wz 1.5, got %f", cmd.Angular.Z)
	}
}
