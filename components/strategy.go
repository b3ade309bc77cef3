package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/steering"
)

// StrategyPhase tracks whether a strategy's routines exist yet.
type StrategyPhase uint8

const (
	PhaseProvisioning StrategyPhase = iota
	PhaseActive
)

// RoutineRequest describes a routine a strategy needs. Shared requests are
// satisfied by an existing craft-owned routine of the same kind when there
// is one. Exactly one params field matching Kind is read.
type RoutineRequest struct {
	Kind   steering.RoutineKind
	Shared bool

	Seek      SeekParams
	Intercept InterceptParams
	Arrive    ArriveParams
	Avoid     AvoidCollisionParams
	Flock     FlyWithFlockParams
	Face      FaceParams
	Compose   ComposeParams
	Closure   ClosureParams
}

// Strategy turns a directive into a composer over routines. Routines is
// aligned with Requests once provisioned; Owned lists the routines and
// sensors the strategy must despawn on teardown.
type Strategy struct {
	Craft    ecs.Entity
	Kind     steering.StrategyKind
	Phase    StrategyPhase
	Requests []RoutineRequest
	Routines []ecs.Entity
	Owned    []ecs.Entity
}

// Routine returns the provisioned routine for request i.
func (s *Strategy) Routine(i int) ecs.Entity {
	if i < 0 || i >= len(s.Routines) {
		return ecs.Entity{}
	}
	return s.Routines[i]
}

// AttackPursueState chases a quarry. Request order: avoid, intercept,
// weapon-speed intercept.
type AttackPursueState struct {
	Quarry ecs.Entity
	Phase  steering.PursuitPhase
}

// RunCircuitState flies a loop of checkpoints. Request order: avoid, arrive.
type RunCircuitState struct {
	Checkpoints []r3.Vec
	Sensors     []ecs.Entity
	Next        int
	Laps        int
}

// FormState holds a formation slot. Request order: avoid, arrive, face.
type FormState struct {
	Formation ecs.Entity
}

// HoldState keeps station. Request order: avoid, arrive.
type HoldState struct {
	Position r3.Vec
}

// SingleRoutineState runs one routine, behind avoidance when Avoid is set.
// Request order: main, then avoid if present.
type SingleRoutineState struct {
	Avoid bool
}
