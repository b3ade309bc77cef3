package steering

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Body is a read-only snapshot of a physical body for one tick.
type Body struct {
	Position        r3.Vec
	Rotation        quat.Number
	LinearVelocity  r3.Vec // world frame
	AngularVelocity r3.Vec // world frame
	Radius          float64
}

// Limits are the engine limits of a craft, per local axis.
type Limits struct {
	LinearVelocity  r3.Vec
	AngularVelocity r3.Vec
	LinearAccel     r3.Vec
	AngularAccel    r3.Vec
}

// ForwardSpeed is the velocity limit along the forward axis.
func (l Limits) ForwardSpeed() float64 { return math.Abs(l.LinearVelocity.Z) }

// ForwardAccel is the acceleration cap along the forward axis.
func (l Limits) ForwardAccel() float64 { return math.Abs(l.LinearAccel.Z) }

// Craft is the state a routine sees of its owning craft.
type Craft struct {
	Entity ecs.Entity
	Body
	Limits Limits
}

// CastFilter excludes colliders from shape casts.
type CastFilter struct {
	Self    ecs.Entity
	Exclude []ecs.Entity
}

// Excludes reports whether e is filtered out.
func (f CastFilter) Excludes(e ecs.Entity) bool {
	if e == f.Self {
		return true
	}
	for _, x := range f.Exclude {
		if x == e {
			return true
		}
	}
	return false
}

// CastHit is the nearest hit of a shape cast.
type CastHit struct {
	Entity   ecs.Entity
	Distance float64
}

// FlockStats are the per-tick aggregates of a flock. Members and Positions
// are index aligned.
type FlockStats struct {
	Members      []ecs.Entity
	Positions    []r3.Vec
	PositionSum  r3.Vec
	VelocitySum  r3.Vec
	CenterOfMass r3.Vec
	Count        int
}

// Environment is the read-only view of the world that routines query.
// Implementations must be safe for concurrent readers.
type Environment interface {
	// Body returns the snapshot of entity e, false if it no longer exists.
	Body(e ecs.Entity) (Body, bool)
	// ShapeCast sweeps a sphere of the given radius from origin along the unit
	// direction dir and reports the nearest hit within maxDist.
	ShapeCast(origin r3.Vec, radius float64, dir r3.Vec, maxDist float64, filter CastFilter) (CastHit, bool)
	// Flock returns the aggregates of flock e.
	Flock(e ecs.Entity) (FlockStats, bool)
	// Now returns the simulation time in seconds.
	Now() float64
}
