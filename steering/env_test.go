package steering

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

type marker struct{}

// newEntities allocates n live handles from a fresh world.
func newEntities(n int) []ecs.Entity {
	w := ecs.NewWorld()
	m := ecs.NewMap[marker](w)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = m.NewEntity(&marker{})
	}
	return out
}

type obstacle struct {
	entity ecs.Entity
	center r3.Vec
	radius float64
}

// fakeEnv is a brute-force Environment over a handful of spheres.
type fakeEnv struct {
	now       float64
	bodies    map[ecs.Entity]Body
	obstacles []obstacle
	flocks    map[ecs.Entity]FlockStats
}

func (f *fakeEnv) Body(e ecs.Entity) (Body, bool) {
	b, ok := f.bodies[e]
	return b, ok
}

func (f *fakeEnv) ShapeCast(origin r3.Vec, radius float64, dir r3.Vec, maxDist float64, filter CastFilter) (CastHit, bool) {
	best := CastHit{Distance: maxDist}
	found := false
	for _, o := range f.obstacles {
		if filter.Excludes(o.entity) {
			continue
		}
		d, hit := geom.SweepSphere(origin, dir, radius, o.center, o.radius)
		if !hit || d > maxDist || d > best.Distance {
			continue
		}
		best = CastHit{Entity: o.entity, Distance: d}
		found = true
	}
	return best, found
}

func (f *fakeEnv) Flock(e ecs.Entity) (FlockStats, bool) {
	s, ok := f.flocks[e]
	return s, ok
}

func (f *fakeEnv) Now() float64 { return f.now }

var testLimits = Limits{
	LinearVelocity:  r3.Vec{X: 20, Y: 20, Z: 50},
	AngularVelocity: r3.Vec{X: 2, Y: 2, Z: 2},
	LinearAccel:     r3.Vec{X: 10, Y: 10, Z: 25},
	AngularAccel:    r3.Vec{X: 4, Y: 4, Z: 4},
}

func testCraft(e ecs.Entity, pos, vel r3.Vec) Craft {
	return Craft{
		Entity: e,
		Body: Body{
			Position:       pos,
			Rotation:       geom.Identity,
			LinearVelocity: vel,
			Radius:         1,
		},
		Limits: testLimits,
	}
}

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}
