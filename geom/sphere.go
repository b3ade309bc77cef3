package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// goldenAngle is the angular increment of the Fibonacci sphere lattice.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// SphereSamples returns n near-uniformly distributed unit directions using a
// golden-ratio spiral. The i-th direction depends only on i and n.
func SphereSamples(n int) []r3.Vec {
	if n <= 0 {
		return nil
	}
	out := make([]r3.Vec, n)
	for i := range out {
		out[i] = SphereSample(i, n)
	}
	return out
}

// SphereSample returns the i-th of n golden-ratio spiral directions.
func SphereSample(i, n int) r3.Vec {
	if n <= 0 {
		return r3.Vec{}
	}
	y := 1 - (float64(i)+0.5)*2/float64(n)
	r := math.Sqrt(math.Max(0, 1-y*y))
	s, c := math.Sincos(goldenAngle * float64(i))
	return r3.Vec{X: c * r, Y: y, Z: s * r}
}

// SweepSphere sweeps a sphere of radius r from origin along the unit
// direction dir and returns the travel distance at which it first touches a
// sphere of radius other centred at center. Already overlapping spheres hit
// at distance 0.
func SweepSphere(origin, dir r3.Vec, r float64, center r3.Vec, other float64) (float64, bool) {
	rr := r + other
	oc := r3.Sub(origin, center)
	c := r3.Norm2(oc) - rr*rr
	if c <= 0 {
		return 0, true
	}
	b := r3.Dot(oc, dir)
	if b > 0 {
		// Moving away from the sphere.
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}
