package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/index"
	"github.com/pthm-cable/boidmind/steering"
)

// Indices are the per-craft kind indices shared by the mind systems.
type Indices struct {
	Routines   *index.ByKind[steering.RoutineKind]
	Strategies *index.ByKind[steering.StrategyKind]
	Weapons    *index.ByKind[components.WeaponClass]
}

// NewIndices creates empty indices.
func NewIndices() *Indices {
	return &Indices{
		Routines:   index.New[steering.RoutineKind](),
		Strategies: index.New[steering.StrategyKind](),
		Weapons:    index.New[components.WeaponClass](),
	}
}

// Maps bundles the component mappers the mind systems share.
type Maps struct {
	Craft       *ecs.Map[components.Craft]
	Transform   *ecs.Map[components.Transform]
	Velocity    *ecs.Map[components.Velocity]
	Collider    *ecs.Map[components.Collider]
	Engine      *ecs.Map[components.EngineConfig]
	EngineInput *ecs.Map[components.EngineInput]
	PlayerInput *ecs.Map[components.PlayerInput]
	Mind        *ecs.Map[components.Mind]

	Routine   *ecs.Map[components.Routine]
	Active    *ecs.Map[components.ActiveRoutine]
	Seek      *ecs.Map[components.SeekParams]
	Intercept *ecs.Map[components.InterceptParams]
	Arrive    *ecs.Map[components.ArriveParams]
	Avoid     *ecs.Map[components.AvoidCollisionParams]
	Flocking  *ecs.Map[components.FlyWithFlockParams]
	Face      *ecs.Map[components.FaceParams]
	Compose   *ecs.Map[components.ComposeParams]
	Closure   *ecs.Map[components.ClosureParams]
	Player    *ecs.Map[components.PlayerParams]

	Strategy *ecs.Map[components.Strategy]
	Attack   *ecs.Map[components.AttackPursueState]
	Circuit  *ecs.Map[components.RunCircuitState]
	Form     *ecs.Map[components.FormState]
	Hold     *ecs.Map[components.HoldState]
	Single   *ecs.Map[components.SingleRoutineState]

	Checkpoint     *ecs.Map[components.Checkpoint]
	Flock          *ecs.Map[components.Flock]
	FlockStats     *ecs.Map[components.FlockStats]
	Formation      *ecs.Map[components.Formation]
	FormationSlots *ecs.Map[components.FormationSlots]
	Weapon         *ecs.Map[components.Weapon]
}

// NewMaps creates all mappers for w.
func NewMaps(w *ecs.World) *Maps {
	return &Maps{
		Craft:       ecs.NewMap[components.Craft](w),
		Transform:   ecs.NewMap[components.Transform](w),
		Velocity:    ecs.NewMap[components.Velocity](w),
		Collider:    ecs.NewMap[components.Collider](w),
		Engine:      ecs.NewMap[components.EngineConfig](w),
		EngineInput: ecs.NewMap[components.EngineInput](w),
		PlayerInput: ecs.NewMap[components.PlayerInput](w),
		Mind:        ecs.NewMap[components.Mind](w),

		Routine:   ecs.NewMap[components.Routine](w),
		Active:    ecs.NewMap[components.ActiveRoutine](w),
		Seek:      ecs.NewMap[components.SeekParams](w),
		Intercept: ecs.NewMap[components.InterceptParams](w),
		Arrive:    ecs.NewMap[components.ArriveParams](w),
		Avoid:     ecs.NewMap[components.AvoidCollisionParams](w),
		Flocking:  ecs.NewMap[components.FlyWithFlockParams](w),
		Face:      ecs.NewMap[components.FaceParams](w),
		Compose:   ecs.NewMap[components.ComposeParams](w),
		Closure:   ecs.NewMap[components.ClosureParams](w),
		Player:    ecs.NewMap[components.PlayerParams](w),

		Strategy: ecs.NewMap[components.Strategy](w),
		Attack:   ecs.NewMap[components.AttackPursueState](w),
		Circuit:  ecs.NewMap[components.RunCircuitState](w),
		Form:     ecs.NewMap[components.FormState](w),
		Hold:     ecs.NewMap[components.HoldState](w),
		Single:   ecs.NewMap[components.SingleRoutineState](w),

		Checkpoint:     ecs.NewMap[components.Checkpoint](w),
		Flock:          ecs.NewMap[components.Flock](w),
		FlockStats:     ecs.NewMap[components.FlockStats](w),
		Formation:      ecs.NewMap[components.Formation](w),
		FormationSlots: ecs.NewMap[components.FormationSlots](w),
		Weapon:         ecs.NewMap[components.Weapon](w),
	}
}

// CraftView builds the steering view of a craft. It reports false when the
// craft has no body. Missing derived engine values are an invariant
// violation; they are logged and the craft gets zero limits.
func (m *Maps) CraftView(w *ecs.World, e ecs.Entity) (steering.Craft, bool) {
	if !w.Alive(e) || !m.Transform.Has(e) {
		return steering.Craft{}, false
	}
	tr := m.Transform.Get(e)
	c := steering.Craft{
		Entity: e,
		Body: steering.Body{
			Position: tr.Position,
			Rotation: tr.Rotation,
		},
	}
	if m.Velocity.Has(e) {
		v := m.Velocity.Get(e)
		c.LinearVelocity = v.Linear
		c.AngularVelocity = v.Angular
	}
	if m.Collider.Has(e) {
		c.Radius = m.Collider.Get(e).Radius
	}
	if m.Engine.Has(e) {
		lim, err := m.Engine.Get(e).Limits()
		if err != nil {
			slog.Error("craft engine invariant violated", "craft", e.ID(), "err", err)
		}
		c.Limits = lim
	}
	return c, true
}

// spawnRoutine creates a routine entity for req with its params component.
// It does not index the routine; use Lifecycle.SpawnRoutine.
func (m *Maps) spawnRoutine(craft, strategy ecs.Entity, req *components.RoutineRequest) ecs.Entity {
	e := m.Routine.NewEntity(&components.Routine{
		Craft:    craft,
		Strategy: strategy,
		Kind:     req.Kind,
	})
	switch req.Kind {
	case steering.KindSeek:
		m.Seek.Add(e, &req.Seek)
	case steering.KindIntercept:
		m.Intercept.Add(e, &req.Intercept)
	case steering.KindArrive:
		m.Arrive.Add(e, &req.Arrive)
	case steering.KindAvoidCollision:
		m.Avoid.Add(e, &req.Avoid)
	case steering.KindFlyWithFlock:
		m.Flocking.Add(e, &req.Flock)
	case steering.KindFace:
		m.Face.Add(e, &req.Face)
	case steering.KindCompose:
		m.Compose.Add(e, &req.Compose)
	case steering.KindClosure:
		m.Closure.Add(e, &req.Closure)
	case steering.KindPlayer:
		m.Player.Add(e, &components.PlayerParams{})
	}
	return e
}
