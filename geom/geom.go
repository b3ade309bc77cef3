// Package geom provides the 3D vector and rotation helpers shared by the mind.
//
// Vectors are gonum r3.Vec values and orientations are unit quaternions
// (gonum quat.Number). The craft-local frame follows the convention
// forward = -Z, up = +Y, right = +X.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Local axes of a craft.
var (
	Forward = r3.Vec{Z: -1}
	Up      = r3.Vec{Y: 1}
	Right   = r3.Vec{X: 1}
)

// Identity is the zero rotation.
var Identity = quat.Number{Real: 1}

// Epsilon is the squared-length threshold below which a vector is treated as zero.
const Epsilon = 1e-12

// IsZero reports whether v is (numerically) the zero vector.
func IsZero(v r3.Vec) bool {
	return r3.Norm2(v) <= Epsilon
}

// NormalizeOrZero returns the unit vector along v, or the zero vector when v
// is too short to have a direction.
func NormalizeOrZero(v r3.Vec) r3.Vec {
	n2 := r3.Norm2(v)
	if n2 <= Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/math.Sqrt(n2), v)
}

// ClampLength scales v down so its length does not exceed max.
func ClampLength(v r3.Vec, max float64) r3.Vec {
	if max <= 0 {
		return r3.Vec{}
	}
	n2 := r3.Norm2(v)
	if n2 <= max*max {
		return v
	}
	return r3.Scale(max/math.Sqrt(n2), v)
}

// Mul returns the elementwise product of a and b.
func Mul(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// Abs returns v with every component made non-negative.
func Abs(v r3.Vec) r3.Vec {
	return r3.Vec{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}

// ClampAxes clamps each component of v to [-|limit|, |limit|].
func ClampAxes(v, limit r3.Vec) r3.Vec {
	return r3.Vec{
		X: clamp(v.X, math.Abs(limit.X)),
		Y: clamp(v.Y, math.Abs(limit.Y)),
		Z: clamp(v.Z, math.Abs(limit.Z)),
	}
}

func clamp(x, lim float64) float64 {
	if x > lim {
		return lim
	}
	if x < -lim {
		return -lim
	}
	return x
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// InverseRotate applies the inverse of the unit quaternion q to v, taking a
// world-space vector into the local frame described by q.
func InverseRotate(q quat.Number, v r3.Vec) r3.Vec {
	return Rotate(quat.Conj(q), v)
}

// Normalize returns q scaled to unit length. The zero quaternion maps to Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-12 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// FromAxisAngle returns the rotation of angle radians about axis.
func FromAxisAngle(axis r3.Vec, angle float64) quat.Number {
	a := NormalizeOrZero(axis)
	if IsZero(a) {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: a.X * s, Jmag: a.Y * s, Kmag: a.Z * s}
}

// RotationBetween returns the shortest rotation taking direction from onto
// direction to. Degenerate inputs yield Identity.
func RotationBetween(from, to r3.Vec) quat.Number {
	a := NormalizeOrZero(from)
	b := NormalizeOrZero(to)
	if IsZero(a) || IsZero(b) {
		return Identity
	}
	d := r3.Dot(a, b)
	if d > 1-1e-12 {
		return Identity
	}
	if d < -1+1e-12 {
		// Half turn about any axis orthogonal to a.
		axis := r3.Cross(a, Right)
		if IsZero(axis) {
			axis = r3.Cross(a, Up)
		}
		return FromAxisAngle(axis, math.Pi)
	}
	c := r3.Cross(a, b)
	return Normalize(quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z})
}

// LookRotation returns a rotation whose forward axis points along dir.
func LookRotation(dir r3.Vec) quat.Number {
	return RotationBetween(Forward, dir)
}

// Integrate advances orientation q by the world-frame angular velocity w over dt.
func Integrate(q quat.Number, w r3.Vec, dt float64) quat.Number {
	spin := quat.Mul(quat.Number{Imag: w.X, Jmag: w.Y, Kmag: w.Z}, q)
	return Normalize(quat.Add(q, quat.Scale(0.5*dt, spin)))
}

// ForwardOf returns the world-space forward axis of orientation q.
func ForwardOf(q quat.Number) r3.Vec {
	return Rotate(q, Forward)
}
