// Package rotation holds the quaternion and 3-vector helpers shared by the
// residual, goal, noise and task packages.
//
// Quaternions are gonum [quat.Number] values with Real as the scalar part.
// Engine buffers store them as [w, x, y, z].
package rotation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the unit quaternion with no rotation.
var Identity = quat.Number{Real: 1}

// FromSlice reads a [w, x, y, z] quaternion.
func FromSlice(s []float64) quat.Number {
	return quat.Number{Real: s[0], Imag: s[1], Jmag: s[2], Kmag: s[3]}
}

// Put writes q into dst as [w, x, y, z].
func Put(dst []float64, q quat.Number) {
	dst[0], dst[1], dst[2], dst[3] = q.Real, q.Imag, q.Jmag, q.Kmag
}

// Array returns q as a [w, x, y, z] array.
func Array(q quat.Number) [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// Array3 returns v as an array.
func Array3(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Vec reads a 3-vector.
func Vec(s []float64) r3.Vec {
	return r3.Vec{X: s[0], Y: s[1], Z: s[2]}
}

// PutVec writes v into dst.
func PutVec(dst []float64, v r3.Vec) {
	dst[0], dst[1], dst[2] = v.X, v.Y, v.Z
}

// IsZero reports whether every component of q is exactly zero.
func IsZero(q quat.Number) bool {
	return q == quat.Number{}
}

// Normalize scales q to unit length. A zero quaternion becomes Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-14 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// Canonical flips q onto the hemisphere with a non-negative scalar part.
func Canonical(q quat.Number) quat.Number {
	if q.Real < 0 {
		return quat.Scale(-1, q)
	}
	return q
}

// AngleDeg returns the rotation angle in degrees taking b onto a along the
// shortest path.
func AngleDeg(a, b quat.Number) float64 {
	d := Canonical(Normalize(quat.Mul(a, quat.Conj(b))))
	w := math.Min(d.Real, 1)
	return 2 * math.Acos(w) * 180 / math.Pi
}

// ToVel converts a rotation into the angular velocity that produces it over
// dt, with the angle wrapped into [-pi, pi].
func ToVel(q quat.Number, dt float64) r3.Vec {
	l := quat.Log(Canonical(Normalize(q)))
	return r3.Scale(2/dt, r3.Vec{X: l.Imag, Y: l.Jmag, Z: l.Kmag})
}

// Diff returns the tangent-space difference a - b: the rotation vector v
// with b * exp(v) = a.
func Diff(a, b quat.Number) r3.Vec {
	return ToVel(quat.Mul(quat.Conj(b), a), 1)
}

// AxisAngle builds the rotation of angle radians about axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	n := r3.Norm(axis)
	if n == 0 {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	u := r3.Scale(s/n, axis)
	return quat.Number{Real: c, Imag: u.X, Jmag: u.Y, Kmag: u.Z}
}

// Integrate rotates q by the body-frame rotation vector v*scale.
func Integrate(q quat.Number, v r3.Vec, scale float64) quat.Number {
	half := r3.Scale(scale/2, v)
	return quat.Mul(q, quat.Exp(quat.Number{Imag: half.X, Jmag: half.Y, Kmag: half.Z}))
}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// AngularVelocity estimates the body-frame angular velocity carrying prev
// onto cur over dt, 2/dt times the vector part of conj(prev)*cur.
func AngularVelocity(cur, prev quat.Number, dt float64) r3.Vec {
	k := 2 / dt
	return r3.Vec{
		X: k * (cur.Imag*prev.Real - cur.Real*prev.Imag - cur.Kmag*prev.Jmag + cur.Jmag*prev.Kmag),
		Y: k * (cur.Jmag*prev.Real + cur.Kmag*prev.Imag - cur.Real*prev.Jmag - cur.Imag*prev.Kmag),
		Z: k * (cur.Kmag*prev.Real - cur.Jmag*prev.Imag + cur.Imag*prev.Jmag - cur.Real*prev.Kmag),
	}
}

// Clamp limits every component of v to [-max, max].
func Clamp(v r3.Vec, max float64) r3.Vec {
	return r3.Vec{
		X: clamp(v.X, max),
		Y: clamp(v.Y, max),
		Z: clamp(v.Z, max),
	}
}

func clamp(x, max float64) float64 {
	if x > max {
		return max
	}
	if x < -max {
		return -max
	}
	return x
}
