package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/geom"
	"github.com/pthm-cable/boidmind/steering"
)

// colliderEntry is one collider in the tick snapshot.
type colliderEntry struct {
	entity ecs.Entity
	center r3.Vec
	radius float64
	sensor bool
}

// IntersectionPair is a sensor overlapping a solid collider.
type IntersectionPair struct {
	Sensor ecs.Entity
	Other  ecs.Entity
}

// PhysicsWorld is the read-only view of bodies, colliders and flock
// aggregates for one tick. Every entity with a Transform is a body; only
// those with a Collider take part in casts and sensor overlaps. It implements steering.Environment and is safe
// for concurrent readers between Update calls.
type PhysicsWorld struct {
	now       float64
	bodies    map[ecs.Entity]steering.Body
	colliders []colliderEntry
	grid      *SpatialGrid
	flocks    map[ecs.Entity]steering.FlockStats
	maxRadius float64

	pairs []IntersectionPair
	seen  map[IntersectionPair]struct{}
	probe []int32

	bodyFilter  *ecs.Filter1[components.Transform]
	colMap      *ecs.Map[components.Collider]
	velMap      *ecs.Map[components.Velocity]
	flockFilter *ecs.Filter1[components.FlockStats]
}

// NewPhysicsWorld creates an empty snapshot bound to w.
func NewPhysicsWorld(w *ecs.World, cellSize float64) *PhysicsWorld {
	return &PhysicsWorld{
		bodies:      make(map[ecs.Entity]steering.Body),
		grid:        NewSpatialGrid(cellSize),
		flocks:      make(map[ecs.Entity]steering.FlockStats),
		seen:        make(map[IntersectionPair]struct{}),
		bodyFilter:  ecs.NewFilter1[components.Transform](w),
		colMap:      ecs.NewMap[components.Collider](w),
		velMap:      ecs.NewMap[components.Velocity](w),
		flockFilter: ecs.NewFilter1[components.FlockStats](w),
	}
}

// Update rebuilds the snapshot from the world at simulation time now.
func (p *PhysicsWorld) Update(w *ecs.World, now float64) {
	p.now = now
	clear(p.bodies)
	clear(p.flocks)
	p.colliders = p.colliders[:0]
	p.grid.Clear()
	p.maxRadius = 0

	query := p.bodyFilter.Query()
	for query.Next() {
		e := query.Entity()
		tr := query.Get()

		body := steering.Body{
			Position: tr.Position,
			Rotation: tr.Rotation,
		}
		if p.velMap.Has(e) {
			v := p.velMap.Get(e)
			body.LinearVelocity = v.Linear
			body.AngularVelocity = v.Angular
		}
		if !p.colMap.Has(e) {
			p.bodies[e] = body
			continue
		}
		col := p.colMap.Get(e)
		body.Radius = col.Radius
		p.bodies[e] = body

		idx := int32(len(p.colliders))
		p.colliders = append(p.colliders, colliderEntry{
			entity: e,
			center: tr.Position,
			radius: col.Radius,
			sensor: col.Sensor,
		})
		p.grid.Insert(idx, tr.Position, col.Radius)
		if col.Radius > p.maxRadius {
			p.maxRadius = col.Radius
		}
	}

	fq := p.flockFilter.Query()
	for fq.Next() {
		stats := fq.Get()
		p.flocks[fq.Entity()] = stats.FlockStats
	}

	p.collectIntersections()
}

// collectIntersections records every sensor/solid overlap once.
func (p *PhysicsWorld) collectIntersections() {
	p.pairs = p.pairs[:0]
	clear(p.seen)

	for _, s := range p.colliders {
		if !s.sensor {
			continue
		}
		p.probe = p.grid.QuerySphere(p.probe[:0], s.center, s.radius+p.maxRadius)
		for _, idx := range p.probe {
			o := p.colliders[idx]
			if o.sensor || o.entity == s.entity {
				continue
			}
			rr := s.radius + o.radius
			if r3.Norm2(r3.Sub(o.center, s.center)) > rr*rr {
				continue
			}
			pair := IntersectionPair{Sensor: s.entity, Other: o.entity}
			if _, dup := p.seen[pair]; dup {
				continue
			}
			p.seen[pair] = struct{}{}
			p.pairs = append(p.pairs, pair)
		}
	}
}

// Intersections returns the sensor overlaps of this tick.
func (p *PhysicsWorld) Intersections() []IntersectionPair {
	return p.pairs
}

// Intersecting reports whether sensor overlaps other this tick.
func (p *PhysicsWorld) Intersecting(sensor, other ecs.Entity) bool {
	_, ok := p.seen[IntersectionPair{Sensor: sensor, Other: other}]
	return ok
}

// Body implements steering.Environment.
func (p *PhysicsWorld) Body(e ecs.Entity) (steering.Body, bool) {
	b, ok := p.bodies[e]
	return b, ok
}

// Flock implements steering.Environment.
func (p *PhysicsWorld) Flock(e ecs.Entity) (steering.FlockStats, bool) {
	s, ok := p.flocks[e]
	return s, ok
}

// Now implements steering.Environment.
func (p *PhysicsWorld) Now() float64 { return p.now }

// ShapeCast implements steering.Environment. Sensors never block a cast.
func (p *PhysicsWorld) ShapeCast(origin r3.Vec, radius float64, dir r3.Vec, maxDist float64, filter steering.CastFilter) (steering.CastHit, bool) {
	dir = geom.NormalizeOrZero(dir)
	if geom.IsZero(dir) || maxDist <= 0 {
		return steering.CastHit{}, false
	}

	end := r3.Add(origin, r3.Scale(maxDist, dir))
	pad := radius + p.maxRadius
	ext := r3.Vec{X: pad, Y: pad, Z: pad}
	lo := r3.Vec{X: min(origin.X, end.X), Y: min(origin.Y, end.Y), Z: min(origin.Z, end.Z)}
	hi := r3.Vec{X: max(origin.X, end.X), Y: max(origin.Y, end.Y), Z: max(origin.Z, end.Z)}

	var buf [64]int32
	candidates, _ := p.grid.QueryBox(buf[:0], r3.Sub(lo, ext), r3.Add(hi, ext))

	best := steering.CastHit{Distance: maxDist}
	found := false
	for _, idx := range candidates {
		c := p.colliders[idx]
		if c.sensor || filter.Excludes(c.entity) {
			continue
		}
		d, hit := geom.SweepSphere(origin, dir, radius, c.center, c.radius)
		if !hit || d > best.Distance {
			continue
		}
		best = steering.CastHit{Entity: c.entity, Distance: d}
		found = true
	}
	return best, found
}
