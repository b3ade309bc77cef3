package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/geom"
	"github.com/pthm-cable/boidmind/steering"
)

// RoutineJob is the snapshot of one active routine, computed off the world.
// Only the params field matching Kind is filled.
type RoutineJob struct {
	Entity  ecs.Entity
	Kind    steering.RoutineKind
	Craft   steering.Craft
	Desired r3.Vec // previous world acceleration intent
	Input   components.PlayerInput

	Seek      components.SeekParams
	Intercept components.InterceptParams
	Arrive    components.ArriveParams
	Avoid     components.AvoidCollisionParams
	Flock     components.FlyWithFlockParams
	Face      components.FaceParams
	Closure   components.ClosureParams

	Output  steering.Output
	Missing ecs.Entity // target that could not be found
}

type craftSnapshot struct {
	craft   steering.Craft
	desired r3.Vec
	input   components.PlayerInput
	ok      bool
}

// RoutineSystem computes the outputs of all tagged routines. It runs in three
// phases: Collect snapshots routines single-threaded, ComputeRoutines is pure
// and may run on many goroutines over disjoint job ranges, and Apply writes
// the results back.
type RoutineSystem struct {
	maps   *Maps
	stats  *MindStats
	all    *ecs.Filter1[components.Routine]
	active *ecs.Filter2[components.Routine, components.ActiveRoutine]

	Jobs   []RoutineJob
	crafts map[ecs.Entity]craftSnapshot
}

// NewRoutineSystem creates a new routine system.
func NewRoutineSystem(w *ecs.World, maps *Maps, stats *MindStats) *RoutineSystem {
	return &RoutineSystem{
		maps:   maps,
		stats:  stats,
		all:    ecs.NewFilter1[components.Routine](w),
		active: ecs.NewFilter2[components.Routine, components.ActiveRoutine](w),
		Jobs:   make([]RoutineJob, 0, 256),
		crafts: make(map[ecs.Entity]craftSnapshot),
	}
}

// Update collects, computes and applies on the calling goroutine.
func (s *RoutineSystem) Update(w *ecs.World, env steering.Environment) {
	s.Collect(w)
	ComputeRoutines(s.Jobs, env)
	s.Apply()
}

// Collect invalidates last tick's outputs and snapshots every active routine.
func (s *RoutineSystem) Collect(w *ecs.World) []RoutineJob {
	allQuery := s.all.Query()
	for allQuery.Next() {
		allQuery.Get().Valid = false
	}

	s.Jobs = s.Jobs[:0]
	clear(s.crafts)

	query := s.active.Query()
	for query.Next() {
		e := query.Entity()
		rt, _ := query.Get()
		if rt.Kind == steering.KindCompose {
			// Nested composers are evaluated by the composer stage.
			continue
		}
		snap := s.craft(w, rt.Craft)
		if !snap.ok {
			continue
		}

		job := RoutineJob{
			Entity:  e,
			Kind:    rt.Kind,
			Craft:   snap.craft,
			Desired: snap.desired,
			Input:   snap.input,
		}
		switch rt.Kind {
		case steering.KindSeek:
			job.Seek = *s.maps.Seek.Get(e)
		case steering.KindIntercept:
			job.Intercept = *s.maps.Intercept.Get(e)
		case steering.KindArrive:
			job.Arrive = *s.maps.Arrive.Get(e)
		case steering.KindAvoidCollision:
			job.Avoid = *s.maps.Avoid.Get(e)
		case steering.KindFlyWithFlock:
			job.Flock = *s.maps.Flocking.Get(e)
		case steering.KindFace:
			job.Face = *s.maps.Face.Get(e)
		case steering.KindClosure:
			job.Closure = *s.maps.Closure.Get(e)
		}
		s.Jobs = append(s.Jobs, job)
	}
	return s.Jobs
}

func (s *RoutineSystem) craft(w *ecs.World, e ecs.Entity) craftSnapshot {
	if snap, ok := s.crafts[e]; ok {
		return snap
	}
	var snap craftSnapshot
	snap.craft, snap.ok = s.maps.CraftView(w, e)
	if snap.ok {
		if s.maps.Mind.Has(e) {
			snap.desired = s.maps.Mind.Get(e).LastAccel
		}
		if s.maps.PlayerInput.Has(e) {
			snap.input = *s.maps.PlayerInput.Get(e)
		}
	}
	s.crafts[e] = snap
	return snap
}

// Apply writes computed outputs and avoidance state back to the routines.
func (s *RoutineSystem) Apply() {
	for i := range s.Jobs {
		job := &s.Jobs[i]
		rt := s.maps.Routine.Get(job.Entity)
		rt.Output = job.Output
		rt.Valid = true
		s.stats.RoutinesComputed++

		if job.Kind == steering.KindAvoidCollision {
			s.maps.Avoid.Get(job.Entity).State = job.Avoid.State
			if job.Avoid.State.Dodging {
				s.stats.Dodges++
			}
		}
		if job.Missing != (ecs.Entity{}) {
			s.stats.MissingTargets++
			slog.Warn("routine target missing",
				"craft", job.Craft.Entity.ID(),
				"routine", job.Entity.ID(),
				"kind", job.Kind.String(),
				"target", job.Missing.ID(),
			)
		}
	}
}

// ComputeRoutines evaluates jobs against env. Each job is written only by
// the goroutine that owns its index range.
func ComputeRoutines(jobs []RoutineJob, env steering.Environment) {
	for i := range jobs {
		computeRoutine(&jobs[i], env)
	}
}

func computeRoutine(job *RoutineJob, env steering.Environment) {
	c := job.Craft
	switch job.Kind {
	case steering.KindSeek:
		target := job.Seek.Position
		if t := job.Seek.Target; t != (ecs.Entity{}) {
			b, ok := env.Body(t)
			if !ok {
				job.Missing = t
				job.Output = steering.LinearOnly(steering.Direction(r3.Vec{}))
				return
			}
			target = b.Position
		}
		job.Output = steering.Seek(c, target)

	case steering.KindIntercept:
		b, ok := env.Body(job.Intercept.Quarry)
		if !ok {
			job.Missing = job.Intercept.Quarry
			job.Output = steering.LinearOnly(steering.Direction(r3.Vec{}))
			return
		}
		job.Output = steering.Intercept(c, b.Position, b.LinearVelocity, job.Intercept.Speed)

	case steering.KindArrive:
		target := job.Arrive.Position
		params := job.Arrive.Params
		if t := job.Arrive.Target; t != (ecs.Entity{}) {
			b, ok := env.Body(t)
			if !ok {
				job.Missing = t
				job.Output = steering.LinearOnly(steering.Velocity(r3.Vec{}))
				return
			}
			target = b.Position
			params.TargetVelocity = b.LinearVelocity
		}
		job.Output = steering.Arrive(c, target, params)

	case steering.KindAvoidCollision:
		job.Output = steering.AvoidCollision(c, job.Desired, job.Avoid.Params, &job.Avoid.State, env)

	case steering.KindFlyWithFlock:
		stats, ok := env.Flock(job.Flock.Flock)
		if !ok {
			job.Missing = job.Flock.Flock
			job.Output = steering.Both(steering.Direction(r3.Vec{}), steering.Local(r3.Vec{}))
			return
		}
		job.Output = steering.FlyWithFlock(c, stats, job.Flock.Params)

	case steering.KindFace:
		if t := job.Face.Target; t != (ecs.Entity{}) {
			b, ok := env.Body(t)
			if !ok {
				job.Missing = t
				job.Output = steering.AngularOnly(steering.Local(r3.Vec{}))
				return
			}
			job.Output = steering.FaceTarget(c, b.Position)
			return
		}
		job.Output = steering.Face(c, job.Face.Direction)

	case steering.KindClosure:
		if job.Closure.Fn != nil {
			job.Output = job.Closure.Fn(c, env)
		}

	case steering.KindPlayer:
		// Player input is a local fraction of the engine limits.
		job.Output = steering.Both(
			steering.FractionalAcceleration(geom.Rotate(c.Rotation, job.Input.Linear)),
			steering.Local(geom.Mul(job.Input.Angular, geom.Abs(c.Limits.AngularVelocity))),
		)
	}
}
