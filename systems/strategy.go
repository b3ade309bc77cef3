package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/steering"
)

// StrategySystem updates active strategies: it refreshes routine targets,
// decides the composer, and writes it to the craft's mind.
type StrategySystem struct {
	maps   *Maps
	stats  *MindStats
	filter *ecs.Filter1[components.Strategy]
}

// NewStrategySystem creates a new strategy system.
func NewStrategySystem(w *ecs.World, maps *Maps, stats *MindStats) *StrategySystem {
	return &StrategySystem{
		maps:   maps,
		stats:  stats,
		filter: ecs.NewFilter1[components.Strategy](w),
	}
}

// Update runs the strategy system against the current physics snapshot.
func (s *StrategySystem) Update(w *ecs.World, env *PhysicsWorld) {
	cfg := config.Cfg()

	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		st := query.Get()
		if st.Phase != components.PhaseActive || !w.Alive(st.Craft) || !s.maps.Mind.Has(st.Craft) {
			continue
		}

		var comp steering.Composer
		fire := false
		switch st.Kind {
		case steering.StrategyHold:
			comp = steering.AvoidCollisionHelper(st.Routine(0), steering.Weighted(steering.UnitWeight, st.Routine(1)))
		case steering.StrategyForm:
			comp = s.updateForm(w, e, st, cfg)
		case steering.StrategySingleRoutine:
			comp = steering.Single(st.Routine(0))
			if s.maps.Single.Get(e).Avoid {
				comp = steering.AvoidCollisionHelper(st.Routine(1), steering.Weighted(steering.UnitWeight, st.Routine(0)))
			}
		case steering.StrategyRunCircuit:
			comp = s.updateCircuit(w, e, st, env, cfg)
		case steering.StrategyAttackPursue:
			comp, fire = s.updateAttack(w, e, st, env, cfg)
		default:
			slog.Error("unknown strategy kind", "craft", st.Craft.ID(), "kind", st.Kind.String())
			comp = steering.EmptyComposer()
		}

		mind := s.maps.Mind.Get(st.Craft)
		mind.SetComposer(comp)
		mind.FireWeapons = fire
	}
}

// updateForm points the arrive and face routines at the craft's slot.
func (s *StrategySystem) updateForm(w *ecs.World, e ecs.Entity, st *components.Strategy, cfg *config.Config) steering.Composer {
	avoid, arrive, face := st.Routine(0), st.Routine(1), st.Routine(2)
	f := s.maps.Form.Get(e).Formation

	var slot components.Slot
	ok := false
	if w.Alive(f) && s.maps.FormationSlots.Has(f) {
		slot, ok = s.maps.FormationSlots.Get(f).BySlot[st.Craft]
	}
	if !ok {
		// Formation gone or not yet slotted: only keep clear of obstacles.
		return steering.Single(avoid)
	}

	if s.maps.Arrive.Has(arrive) {
		ap := s.maps.Arrive.Get(arrive)
		ap.Position = slot.Position
		ap.Params.TargetVelocity = slot.Velocity
	}
	if s.maps.Face.Has(face) {
		s.maps.Face.Get(face).Direction = slot.Facing
	}

	fc := cfg.Strategy.Formation
	return steering.AvoidCollisionHelper(avoid,
		steering.Weighted(steering.Weight{Linear: fc.ArriveWeight}, arrive),
		steering.Weighted(steering.Weight{Angular: fc.FaceWeight}, face),
	)
}

// updateCircuit advances to the next checkpoint when the craft crossed the
// current one's sensor or came within the arrival distance.
func (s *StrategySystem) updateCircuit(w *ecs.World, e ecs.Entity, st *components.Strategy, env *PhysicsWorld, cfg *config.Config) steering.Composer {
	avoid, arrive := st.Routine(0), st.Routine(1)
	cs := s.maps.Circuit.Get(e)
	n := len(cs.Checkpoints)

	if n > 0 {
		reached := false
		if cs.Next < len(cs.Sensors) && env.Intersecting(cs.Sensors[cs.Next], st.Craft) {
			reached = true
		} else if body, ok := env.Body(st.Craft); ok {
			d := r3.Sub(cs.Checkpoints[cs.Next], body.Position)
			reached = r3.Norm2(d) <= cfg.Derived.CheckpointSq
		}
		if reached {
			cs.Next = (cs.Next + 1) % n
			if cs.Next == 0 {
				cs.Laps++
			}
			s.stats.CheckpointsHit++
			slog.Debug("checkpoint reached", "craft", st.Craft.ID(), "next", cs.Next, "laps", cs.Laps)
		}
		if s.maps.Arrive.Has(arrive) {
			s.maps.Arrive.Get(arrive).Position = cs.Checkpoints[cs.Next]
		}
	}

	aw := cfg.Strategy.Circuit.ArriveWeight
	return steering.AvoidCollisionHelper(avoid, steering.Weighted(steering.Weight{Linear: aw, Angular: aw}, arrive))
}

// updateAttack picks the composer for the pursuit phase and decides fire.
func (s *StrategySystem) updateAttack(w *ecs.World, e ecs.Entity, st *components.Strategy, env *PhysicsWorld, cfg *config.Config) (steering.Composer, bool) {
	avoid, intercept, gunIntercept := st.Routine(0), st.Routine(1), st.Routine(2)
	as := s.maps.Attack.Get(e)

	craft, ok := s.maps.CraftView(w, st.Craft)
	if !ok {
		return steering.Single(avoid), false
	}
	quarry, found := env.Body(as.Quarry)
	phase, fire := steering.Pursue(craft, quarry, found, steering.PursuitParams{
		Range:     cfg.Strategy.Attack.Range,
		PursueCos: cfg.Derived.PursueCos,
		FireCos:   cfg.Derived.FireCos,
	})
	if phase != as.Phase {
		slog.Debug("pursuit phase", "craft", st.Craft.ID(), "from", as.Phase.String(), "to", phase.String())
		as.Phase = phase
	}

	switch phase {
	case steering.PursuitClosing:
		return steering.Single(intercept), false
	case steering.PursuitEngaging:
		return steering.PriorityOverride(avoid, gunIntercept), fire
	case steering.PursuitManeuvering:
		return steering.PriorityOverride(avoid, intercept), false
	}
	return steering.Single(avoid), false
}
