package residual

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
)

func joints(v float64) []float64 {
	s := make([]float64, dynamo.NumJoints)
	for i := range s {
		s[i] = v + float64(i)
	}
	return s
}

func baseInput() Input {
	return Input{
		CubePosition:        r3.Vec{X: 0.1, Y: 0, Z: 0.01},
		CubeOrientation:     []float64{1, 0, 0, 0},
		GoalOrientation:     []float64{1, 0, 0, 0},
		CubeLinearVelocity:  []float64{0.1, 0.2, 0.3},
		CubeAngularVelocity: []float64{-1, -2, -3},
		ActuatorForce:       joints(100),
		JointPosition:       joints(1),
		JointVelocity:       joints(-50),
		NominalPose:         joints(0),
	}
}

func TestSize(t *testing.T) {
	if Size != 58 {
		t.Fatalf("expected residual size 58, got %d", Size)
	}
	if JointVelocity+dynamo.NumJoints != Size {
		t.Errorf("offsets do not cover the vector: %d", JointVelocity+dynamo.NumJoints)
	}
}

func TestNew_DimensionMismatch(t *testing.T) {
	if _, err := New(Size); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, dim := range []int{0, Size - 1, Size + 1} {
		if _, err := New(dim); !errors.Is(err, dynamo.ErrDimensionMismatch) {
			t.Errorf("dim %d: expected ErrDimensionMismatch, got %v", dim, err)
		}
	}
}

func TestContainment_InsideIsZero(t *testing.T) {
	tests := []r3.Vec{
		{X: 0.081, Y: -0.019, Z: -0.0149},
		{X: 0.11, Y: 0, Z: 0},
		{X: 0.139, Y: 0.019, Z: 5},
		{X: 0.08, Y: 0.02, Z: -0.015},
	}
	for _, p := range tests {
		if got := ContainmentCost(p); got != 0 {
			t.Errorf("ContainmentCost(%v) = %v, want 0", p, got)
		}
	}
}

func TestContainment_Outside(t *testing.T) {
	tilt := math.Tan(PalmTilt)
	band := func(x float64) (float64, float64) {
		lo := -x*tilt + CubeHalf/math.Cos(PalmTilt)
		return lo, lo + CubeHalf
	}

	tests := []struct {
		name string
		p    r3.Vec
		want float64
	}{
		{"below floor inside window", r3.Vec{X: 0.1, Y: 0, Z: -0.025}, Slope * 0.01},
		{
			"beyond x inside band",
			r3.Vec{X: 0.16, Y: 0, Z: func() float64 { lo, _ := band(0.16); return lo + 0.01 }()},
			Slope * 0.02,
		},
		{
			"beyond y and above band",
			r3.Vec{X: 0.1, Y: 0.05, Z: 1},
			func() float64 {
				_, hi := band(0.1)
				return Slope * math.Hypot(0.03, 1-hi)
			}(),
		},
		{
			"before x and under band",
			r3.Vec{X: 0.05, Y: -0.03, Z: -0.5},
			func() float64 {
				lo, _ := band(0.05)
				return Slope * math.Sqrt(0.03*0.03+0.01*0.01+(lo+0.5)*(lo+0.5))
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainmentCost(tt.p)
			if got < 0 {
				t.Fatalf("negative cost %v", got)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ContainmentCost(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Layout(t *testing.T) {
	e, err := New(Size)
	if err != nil {
		t.Fatal(err)
	}
	in := baseInput()
	out := make([]float64, Size)
	if err := e.Evaluate(in, out); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	// joint positions are i+1 and nominal is i
	ones := make([]float64, dynamo.NumJoints)
	for i := range ones {
		ones[i] = 1
	}

	approx := cmpopts.EquateApprox(0, 1e-12)
	checks := []struct {
		name string
		got  []float64
		want []float64
	}{
		{"containment", out[Containment:Orientation], []float64{0}},
		{"orientation", out[Orientation:LinearVelocity], []float64{0, 0, 0}},
		{"linear velocity", out[LinearVelocity:AngularVelocity], in.CubeLinearVelocity},
		{"angular velocity", out[AngularVelocity:Effort], in.CubeAngularVelocity},
		{"effort", out[Effort:Pose], in.ActuatorForce},
		{"pose", out[Pose:JointVelocity], ones},
		{"joint velocity", out[JointVelocity:], in.JointVelocity},
	}
	for _, c := range checks {
		if diff := cmp.Diff(c.want, c.got, approx); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestEvaluate_OrientationZeroUpToSign(t *testing.T) {
	e, _ := New(Size)
	out := make([]float64, Size)

	in := baseInput()
	in.CubeOrientation = []float64{0.5, 0.5, -0.5, 0.5}
	in.GoalOrientation = []float64{-0.5, -0.5, 0.5, -0.5}
	if err := e.Evaluate(in, out); err != nil {
		t.Fatal(err)
	}
	for i := Orientation; i < LinearVelocity; i++ {
		if math.Abs(out[i]) > 1e-12 {
			t.Errorf("expected zero orientation residual, got %v", out[Orientation:LinearVelocity])
			break
		}
	}

	in.GoalOrientation = []float64{math.Cos(0.1), 0, 0, math.Sin(0.1)}
	in.CubeOrientation = []float64{1, 0, 0, 0}
	if err := e.Evaluate(in, out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0, 0, 0.2}, out[Orientation:LinearVelocity], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("orientation residual mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_DegenerateGoal(t *testing.T) {
	e, _ := New(Size)
	out := make([]float64, Size)

	in := baseInput()
	in.GoalOrientation = []float64{0, 0, 0, 0}
	if err := e.Evaluate(in, out); err != nil {
		t.Fatal(err)
	}
	for i := Orientation; i < LinearVelocity; i++ {
		if out[i] != 0 {
			t.Fatalf("zero goal should act as identity, got %v", out[Orientation:LinearVelocity])
		}
	}
}

func TestEvaluate_BadBuffers(t *testing.T) {
	e, _ := New(Size)

	out := make([]float64, Size-1)
	for i := range out {
		out[i] = 42
	}
	err := e.Evaluate(baseInput(), out)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	for _, v := range out {
		if v != 42 {
			t.Fatal("output written despite size mismatch")
		}
	}

	in := baseInput()
	in.JointVelocity = in.JointVelocity[:3]
	if err := e.Evaluate(in, make([]float64, Size)); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for short joint vector, got %v", err)
	}
}

func TestEvaluate_ShortSensors(t *testing.T) {
	e, _ := New(Size)

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"cube orientation", func(in *Input) { in.CubeOrientation = in.CubeOrientation[:3] }},
		{"goal orientation", func(in *Input) { in.GoalOrientation = nil }},
		{"linear velocity", func(in *Input) { in.CubeLinearVelocity = in.CubeLinearVelocity[:2] }},
		{"angular velocity", func(in *Input) { in.CubeAngularVelocity = []float64{1, 2, 3, 4} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(&in)
			out := make([]float64, Size)
			for i := range out {
				out[i] = 42
			}
			if err := e.Evaluate(in, out); !errors.Is(err, dynamo.ErrDimensionMismatch) {
				t.Fatalf("expected ErrDimensionMismatch, got %v", err)
			}
			for _, v := range out {
				if v != 42 {
					t.Fatal("output written despite short sensor")
				}
			}
		})
	}
}
