package steering

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

// StrategyKind identifies the strategy a directive is carried out by.
type StrategyKind uint8

const (
	StrategyHold StrategyKind = iota
	StrategyForm
	StrategySingleRoutine
	StrategyRunCircuit
	StrategyAttackPursue
)

// NumStrategyKinds is the number of strategy kinds.
const NumStrategyKinds = int(StrategyAttackPursue) + 1

func (k StrategyKind) String() string {
	switch k {
	case StrategyHold:
		return "hold"
	case StrategyForm:
		return "form"
	case StrategySingleRoutine:
		return "single_routine"
	case StrategyRunCircuit:
		return "run_circuit"
	case StrategyAttackPursue:
		return "attack_pursue"
	}
	return fmt.Sprintf("strategy(%d)", k)
}

// PursuitPhase is the state of an attack run against a quarry.
type PursuitPhase uint8

const (
	// PursuitLost means the quarry no longer exists.
	PursuitLost PursuitPhase = iota
	// PursuitClosing means the quarry is out of weapons range.
	PursuitClosing
	// PursuitEngaging means the quarry is in range and inside the pursuit cone.
	PursuitEngaging
	// PursuitManeuvering means the quarry is in range but off the nose.
	PursuitManeuvering
)

func (p PursuitPhase) String() string {
	switch p {
	case PursuitLost:
		return "lost"
	case PursuitClosing:
		return "closing"
	case PursuitEngaging:
		return "engaging"
	case PursuitManeuvering:
		return "maneuvering"
	}
	return fmt.Sprintf("pursuit(%d)", p)
}

// PursuitParams tune Pursue. The cone thresholds are cosines.
type PursuitParams struct {
	Range     float64
	PursueCos float64
	FireCos   float64
}

// Pursue classifies the geometry between a craft and its quarry and reports
// whether weapons should fire. Weapons only fire while engaging with the
// quarry inside the fire alignment cone.
func Pursue(c Craft, quarry Body, found bool, p PursuitParams) (PursuitPhase, bool) {
	if !found {
		return PursuitLost, false
	}
	to := r3.Sub(quarry.Position, c.Position)
	if r3.Norm2(to) > p.Range*p.Range {
		return PursuitClosing, false
	}
	align := r3.Dot(geom.ForwardOf(c.Rotation), geom.NormalizeOrZero(to))
	if align <= p.PursueCos {
		return PursuitManeuvering, false
	}
	return PursuitEngaging, align > p.FireCos
}
