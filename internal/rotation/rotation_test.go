package rotation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   quat.Number
		want quat.Number
	}{
		{"zero", quat.Number{}, Identity},
		{"scaled identity", quat.Number{Real: 4}, Identity},
		{"negative", quat.Number{Real: 0, Imag: -2}, quat.Number{Imag: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if quat.Abs(quat.Sub(got, tt.want)) > 1e-12 {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiff_ZeroUpToSign(t *testing.T) {
	q := Normalize(quat.Number{Real: 0.3, Imag: -0.5, Jmag: 0.1, Kmag: 0.8})

	if d := Diff(q, q); r3.Norm(d) > 1e-12 {
		t.Errorf("expected zero difference, got %v", d)
	}
	if d := Diff(quat.Scale(-1, q), q); r3.Norm(d) > 1e-12 {
		t.Errorf("expected zero difference for negated quaternion, got %v", d)
	}
}

func TestDiff_AxisAngle(t *testing.T) {
	axis := r3.Vec{Z: 1}
	got := Diff(AxisAngle(axis, 0.3), Identity)
	if !near(got, r3.Vec{Z: 0.3}, 1e-12) {
		t.Errorf("expected (0, 0, 0.3), got %v", got)
	}

	// past pi the difference wraps onto the short way round
	got = Diff(AxisAngle(axis, 1.5*math.Pi), Identity)
	if !near(got, r3.Vec{Z: -0.5 * math.Pi}, 1e-12) {
		t.Errorf("expected (0, 0, -pi/2), got %v", got)
	}
}

func TestIntegrate_InvertsDiff(t *testing.T) {
	q0 := Normalize(quat.Number{Real: 0.9, Imag: 0.1, Jmag: -0.3, Kmag: 0.2})
	v := r3.Vec{X: 0.2, Y: -0.4, Z: 0.1}

	q1 := Integrate(q0, v, 1)
	if math.Abs(quat.Abs(q1)-1) > 1e-12 {
		t.Errorf("expected unit quaternion, got norm %f", quat.Abs(q1))
	}
	if got := Diff(q1, q0); !near(got, v, 1e-12) {
		t.Errorf("Diff(Integrate(q, v), q) = %v, want %v", got, v)
	}
	if got := Integrate(q0, r3.Vec{}, 1); quat.Abs(quat.Sub(got, q0)) > 1e-15 {
		t.Errorf("zero rotation changed quaternion: %v", got)
	}
}

func TestAngleDeg(t *testing.T) {
	tests := []struct {
		name  string
		a, b  quat.Number
		angle float64
	}{
		{"same", Identity, Identity, 0},
		{"opposite sign", quat.Scale(-1, Identity), Identity, 0},
		{"quarter turn", AxisAngle(r3.Vec{X: 1}, math.Pi/2), Identity, 90},
		{"half turn", AxisAngle(r3.Vec{Y: 1}, math.Pi), Identity, 180},
		{"relative", AxisAngle(r3.Vec{Z: 1}, 0.5), AxisAngle(r3.Vec{Z: 1}, 0.3), 0.2 * 180 / math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleDeg(tt.a, tt.b); math.Abs(got-tt.angle) > 1e-6 {
				t.Errorf("AngleDeg = %f, want %f", got, tt.angle)
			}
		})
	}
}

func TestAngularVelocity(t *testing.T) {
	prev := Normalize(quat.Number{Real: 0.7, Imag: 0.2, Jmag: 0.1, Kmag: -0.4})
	w := r3.Vec{X: 0.5, Y: -0.2, Z: 1.0}
	dt := 1e-4

	cur := Integrate(prev, w, dt)
	if got := AngularVelocity(cur, prev, dt); !near(got, w, 1e-3) {
		t.Errorf("AngularVelocity = %v, want %v", got, w)
	}
}

func TestClamp(t *testing.T) {
	got := Clamp(r3.Vec{X: 0.2, Y: -0.7, Z: 0.01}, 0.05)
	want := r3.Vec{X: 0.05, Y: -0.05, Z: 0.01}
	if got != want {
		t.Errorf("Clamp = %v, want %v", got, want)
	}
}

func TestRotate(t *testing.T) {
	q := AxisAngle(r3.Vec{Z: 1}, math.Pi/2)
	if got := Rotate(q, r3.Vec{X: 1}); !near(got, r3.Vec{Y: 1}, 1e-12) {
		t.Errorf("Rotate = %v, want +y", got)
	}
	if got := Rotate(Identity, r3.Vec{X: 1, Y: 2, Z: 3}); !near(got, r3.Vec{X: 1, Y: 2, Z: 3}, 1e-12) {
		t.Errorf("identity Rotate = %v", got)
	}
}
