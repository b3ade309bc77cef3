package systems

import (
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/steering"
)

// DirectiveSystem replaces the strategy of every craft whose directive
// changed: the old strategy is torn down and a new one is spawned in the
// provisioning phase.
type DirectiveSystem struct {
	maps      *Maps
	idx       *Indices
	lifecycle *Lifecycle
	stats     *MindStats
	filter    *ecs.Filter2[components.Craft, components.Mind]
	pending   []ecs.Entity
}

// NewDirectiveSystem creates a new directive system.
func NewDirectiveSystem(w *ecs.World, maps *Maps, idx *Indices, lifecycle *Lifecycle, stats *MindStats) *DirectiveSystem {
	return &DirectiveSystem{
		maps:      maps,
		idx:       idx,
		lifecycle: lifecycle,
		stats:     stats,
		filter:    ecs.NewFilter2[components.Craft, components.Mind](w),
	}
}

// Update runs the directive system.
func (s *DirectiveSystem) Update(w *ecs.World) {
	s.pending = s.pending[:0]
	query := s.filter.Query()
	for query.Next() {
		_, mind := query.Get()
		if mind.DirectivePending() {
			s.pending = append(s.pending, query.Entity())
		}
	}

	for _, craft := range s.pending {
		s.apply(w, craft)
	}
}

func (s *DirectiveSystem) apply(w *ecs.World, craft ecs.Entity) {
	mind := s.maps.Mind.Get(craft)
	old := mind.Strategy
	d := mind.Directive
	mind.AppliedRevision = mind.DirectiveRevision

	if old != (ecs.Entity{}) {
		s.lifecycle.TeardownStrategy(w, old)
	}

	plan, ok := s.plan(w, craft, d)
	if !ok {
		mind = s.maps.Mind.Get(craft)
		mind.Strategy = ecs.Entity{}
		mind.FireWeapons = false
		mind.SetComposer(steering.EmptyComposer())
		return
	}

	e := s.maps.Strategy.NewEntity(&components.Strategy{
		Craft:    craft,
		Kind:     plan.kind,
		Phase:    components.PhaseProvisioning,
		Requests: plan.requests,
	})
	switch plan.kind {
	case steering.StrategyHold:
		s.maps.Hold.Add(e, &components.HoldState{Position: d.Position})
	case steering.StrategyForm:
		s.maps.Form.Add(e, &components.FormState{Formation: d.Formation})
		s.maps.Formation.Get(d.Formation).Join(craft)
	case steering.StrategySingleRoutine:
		s.maps.Single.Add(e, &components.SingleRoutineState{Avoid: plan.avoid})
	case steering.StrategyRunCircuit:
		s.maps.Circuit.Add(e, &components.RunCircuitState{Checkpoints: slices.Clone(d.Checkpoints)})
	case steering.StrategyAttackPursue:
		s.maps.Attack.Add(e, &components.AttackPursueState{Quarry: d.Quarry})
	}
	s.idx.Strategies.Insert(craft, e, plan.kind)

	mind = s.maps.Mind.Get(craft)
	mind.Strategy = e
	s.stats.StrategySwitches++
	slog.Debug("strategy switched", "craft", craft.ID(), "directive", d.Kind.String(), "strategy", plan.kind.String())
}

type strategyPlan struct {
	kind     steering.StrategyKind
	requests []components.RoutineRequest
	avoid    bool
}

// plan maps a directive to a strategy kind and its routine requests. It
// reports false for DirectiveNone and for directives whose target is gone.
func (s *DirectiveSystem) plan(w *ecs.World, craft ecs.Entity, d components.Directive) (strategyPlan, bool) {
	cfg := config.Cfg()

	switch d.Kind {
	case components.DirectiveHoldPosition:
		return strategyPlan{
			kind: steering.StrategyHold,
			requests: []components.RoutineRequest{
				avoidRequest(cfg),
				{Kind: steering.KindArrive, Arrive: components.ArriveParams{
					Position: d.Position,
					Params:   arriveParams(cfg, cfg.Steering.Arrive.Tolerance),
				}},
			},
		}, true

	case components.DirectiveJoinFormation:
		if !w.Alive(d.Formation) || !s.maps.Formation.Has(d.Formation) {
			slog.Warn("directive target missing", "craft", craft.ID(), "directive", d.Kind.String())
			return strategyPlan{}, false
		}
		return strategyPlan{
			kind: steering.StrategyForm,
			requests: []components.RoutineRequest{
				avoidRequest(cfg),
				{Kind: steering.KindArrive, Arrive: components.ArriveParams{
					Params: arriveParams(cfg, cfg.Strategy.Formation.Tolerance),
				}},
				{Kind: steering.KindFace},
			},
		}, true

	case components.DirectiveFlyWithFlockCAS:
		if !w.Alive(d.Flock) || !s.maps.Flock.Has(d.Flock) {
			slog.Warn("directive target missing", "craft", craft.ID(), "directive", d.Kind.String())
			return strategyPlan{}, false
		}
		s.maps.Flock.Get(d.Flock).Add(craft)
		fc := cfg.Steering.Flock
		return strategyPlan{
			kind:  steering.StrategySingleRoutine,
			avoid: true,
			requests: []components.RoutineRequest{
				{Kind: steering.KindFlyWithFlock, Flock: components.FlyWithFlockParams{
					Flock:  d.Flock,
					Params: steering.FlockParams{Cohesion: fc.Cohesion, Alignment: fc.Alignment, Separation: fc.Separation},
				}},
				avoidRequest(cfg),
			},
		}, true

	case components.DirectiveRunCircuit:
		if len(d.Checkpoints) == 0 {
			slog.Warn("circuit has no checkpoints", "craft", craft.ID())
			return strategyPlan{}, false
		}
		return strategyPlan{
			kind: steering.StrategyRunCircuit,
			requests: []components.RoutineRequest{
				avoidRequest(cfg),
				{Kind: steering.KindArrive, Arrive: components.ArriveParams{
					Position: d.Checkpoints[0],
					Params:   arriveParams(cfg, cfg.Strategy.Circuit.ArrivalDistance),
				}},
			},
		}, true

	case components.DirectiveAttackPursue:
		if !w.Alive(d.Quarry) {
			slog.Warn("directive target missing", "craft", craft.ID(), "directive", d.Kind.String())
			return strategyPlan{}, false
		}
		return strategyPlan{
			kind: steering.StrategyAttackPursue,
			requests: []components.RoutineRequest{
				avoidRequest(cfg),
				{Kind: steering.KindIntercept, Intercept: components.InterceptParams{Quarry: d.Quarry}},
				{Kind: steering.KindIntercept, Intercept: components.InterceptParams{
					Quarry: d.Quarry,
					Speed:  AverageProjectileSpeed(s.maps, s.idx, craft),
				}},
			},
		}, true

	case components.DirectiveSlaveToPlayerControl:
		return strategyPlan{
			kind:     steering.StrategySingleRoutine,
			requests: []components.RoutineRequest{{Kind: steering.KindPlayer}},
		}, true
	}
	return strategyPlan{}, false
}

func avoidRequest(cfg *config.Config) components.RoutineRequest {
	ac := cfg.Steering.Avoid
	return components.RoutineRequest{
		Kind:   steering.KindAvoidCollision,
		Shared: true,
		Avoid: components.AvoidCollisionParams{Params: steering.AvoidParams{
			PredictionSeconds:  ac.PredictionSeconds,
			SizeMargin:         ac.SizeMargin,
			UpheldDodgeSeconds: ac.UpheldDodgeSeconds,
			Samples:            ac.Samples,
		}},
	}
}

func arriveParams(cfg *config.Config, tolerance float64) steering.ArriveParams {
	return steering.ArriveParams{
		Tolerance:          tolerance,
		DecelerationRadius: cfg.Steering.Arrive.DecelerationRadius,
	}
}
