package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/geom"
)

// PhysicsSystem is the reference rigid-body driver. Crafts with an engine
// follow their EngineInput through a per-axis PD controller bounded by the
// derived acceleration caps and the velocity limits. Bodies without an
// engine drift.
type PhysicsSystem struct {
	maps   *Maps
	filter *ecs.Filter2[components.Transform, components.Velocity]

	prevErr map[ecs.Entity]r3.Vec
	nextErr map[ecs.Entity]r3.Vec
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, maps *Maps) *PhysicsSystem {
	return &PhysicsSystem{
		maps:    maps,
		filter:  ecs.NewFilter2[components.Transform, components.Velocity](w),
		prevErr: make(map[ecs.Entity]r3.Vec),
		nextErr: make(map[ecs.Entity]r3.Vec),
	}
}

// Update advances all bodies by one fixed step.
func (s *PhysicsSystem) Update(w *ecs.World) {
	cfg := config.Cfg().Physics
	dt := cfg.DT

	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		tr, vel := query.Get()

		if s.maps.Engine.Has(e) && s.maps.EngineInput.Has(e) {
			s.drive(e, tr, vel, dt, cfg)
		}

		tr.Position = r3.Add(tr.Position, r3.Scale(dt, vel.Linear))
		if !geom.IsZero(vel.Angular) {
			tr.Rotation = geom.Integrate(tr.Rotation, vel.Angular, dt)
		}
	}

	// Error history only survives for bodies that were driven this tick.
	s.prevErr, s.nextErr = s.nextErr, s.prevErr
	clear(s.nextErr)
}

func (s *PhysicsSystem) drive(e ecs.Entity, tr *components.Transform, vel *components.Velocity, dt float64, cfg config.PhysicsConfig) {
	eng := s.maps.Engine.Get(e)
	if eng.Derived == nil {
		return
	}
	in := s.maps.EngineInput.Get(e)
	rot := tr.Rotation

	accel := geom.ClampAxes(r3.Scale(cfg.LinearKP, in.Linear), eng.Derived.LinearAccel)
	local := geom.InverseRotate(rot, vel.Linear)
	local = r3.Add(local, r3.Scale(dt, accel))
	local = geom.ClampAxes(local, eng.LinearVelocityLimit)
	vel.Linear = geom.Rotate(rot, local)

	errNow := in.Angular
	var deriv r3.Vec
	if prev, ok := s.prevErr[e]; ok && dt > 0 {
		deriv = r3.Scale(1/dt, r3.Sub(errNow, prev))
	}
	s.nextErr[e] = errNow

	alpha := r3.Add(r3.Scale(cfg.AngularKP, errNow), r3.Scale(cfg.AngularKD, deriv))
	alpha = geom.ClampAxes(alpha, eng.Derived.AngularAccel)
	spin := geom.InverseRotate(rot, vel.Angular)
	spin = r3.Add(spin, r3.Scale(dt, alpha))
	spin = geom.ClampAxes(spin, eng.AngularVelocityLimit)
	vel.Angular = geom.Rotate(rot, spin)
}
