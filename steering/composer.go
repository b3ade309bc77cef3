package steering

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// ComposerKind tags the composition policy.
type ComposerKind uint8

const (
	ComposerEmpty ComposerKind = iota
	ComposerSingle
	ComposerWeightSummed
	ComposerPriorityOverride
	ComposerAvoidCollisionHelper
)

func (k ComposerKind) String() string {
	switch k {
	case ComposerEmpty:
		return "empty"
	case ComposerSingle:
		return "single"
	case ComposerWeightSummed:
		return "weight_summed"
	case ComposerPriorityOverride:
		return "priority_override"
	case ComposerAvoidCollisionHelper:
		return "avoid_collision_helper"
	}
	return fmt.Sprintf("composer(%d)", k)
}

// Weight scales the linear and angular channels of one routine independently.
type Weight struct {
	Linear  float64
	Angular float64
}

// UnitWeight passes both channels through unscaled.
var UnitWeight = Weight{Linear: 1, Angular: 1}

// WeightedRoutine is one term of a weighted sum.
type WeightedRoutine struct {
	Weight  Weight
	Routine ecs.Entity
}

// Composer is the policy that merges several routine outputs into one.
//
// Routine holds the passthrough routine for ComposerSingle and the designated
// avoid-collision routine for ComposerAvoidCollisionHelper.
type Composer struct {
	Kind     ComposerKind
	Routine  ecs.Entity
	Weighted []WeightedRoutine
	Priority []ecs.Entity
}

// EmptyComposer produces zero output.
func EmptyComposer() Composer { return Composer{Kind: ComposerEmpty} }

// Single passes one routine through.
func Single(r ecs.Entity) Composer { return Composer{Kind: ComposerSingle, Routine: r} }

// WeightSummed sums the weighted outputs of all routines.
func WeightSummed(ws ...WeightedRoutine) Composer {
	return Composer{Kind: ComposerWeightSummed, Weighted: ws}
}

// PriorityOverride returns the first routine with a significant output.
func PriorityOverride(rs ...ecs.Entity) Composer {
	return Composer{Kind: ComposerPriorityOverride, Priority: rs}
}

// AvoidCollisionHelper lets avoid veto the weighted sum of ws.
func AvoidCollisionHelper(avoid ecs.Entity, ws ...WeightedRoutine) Composer {
	return Composer{Kind: ComposerAvoidCollisionHelper, Routine: avoid, Weighted: ws}
}

// Weighted is shorthand for a WeightedRoutine.
func Weighted(w Weight, r ecs.Entity) WeightedRoutine {
	return WeightedRoutine{Weight: w, Routine: r}
}

// AllRoutines appends every routine the composer references directly.
func (c *Composer) AllRoutines(dst []ecs.Entity) []ecs.Entity {
	switch c.Kind {
	case ComposerSingle:
		if !isNil(c.Routine) {
			dst = append(dst, c.Routine)
		}
	case ComposerWeightSummed:
		for _, w := range c.Weighted {
			dst = append(dst, w.Routine)
		}
	case ComposerPriorityOverride:
		dst = append(dst, c.Priority...)
	case ComposerAvoidCollisionHelper:
		if !isNil(c.Routine) {
			dst = append(dst, c.Routine)
		}
		for _, w := range c.Weighted {
			dst = append(dst, w.Routine)
		}
	}
	return dst
}

// Equal reports whether two composers describe the same policy over the same routines.
func (c *Composer) Equal(o *Composer) bool {
	if c.Kind != o.Kind || c.Routine != o.Routine ||
		len(c.Weighted) != len(o.Weighted) || len(c.Priority) != len(o.Priority) {
		return false
	}
	for i := range c.Weighted {
		if c.Weighted[i] != o.Weighted[i] {
			return false
		}
	}
	for i := range c.Priority {
		if c.Priority[i] != o.Priority[i] {
			return false
		}
	}
	return true
}

func (c Composer) String() string {
	switch c.Kind {
	case ComposerEmpty:
		return "empty"
	case ComposerSingle:
		return "single"
	case ComposerPriorityOverride:
		return fmt.Sprintf("priority_override[%d]", len(c.Priority))
	default:
		return fmt.Sprintf("%s[%d]", c.Kind, len(c.Weighted))
	}
}

// Lookup resolves a routine handle to its converted output for this tick.
// It returns an error wrapping ErrMissingRoutine when the routine is gone.
type Lookup func(ecs.Entity) (Resolved, error)

// Evaluate applies the composition policy. Any lookup failure yields a zero
// result together with the error, so a broken reference never produces a
// partial command.
func (c *Composer) Evaluate(lookup Lookup) (Resolved, error) {
	switch c.Kind {
	case ComposerEmpty:
		return Resolved{}, nil

	case ComposerSingle:
		r, err := lookup(c.Routine)
		if err != nil {
			return Resolved{}, fmt.Errorf("single: %w", err)
		}
		return r, nil

	case ComposerWeightSummed:
		return weightedSum(c.Weighted, lookup)

	case ComposerPriorityOverride:
		for i, e := range c.Priority {
			r, err := lookup(e)
			if err != nil {
				return Resolved{}, fmt.Errorf("priority override entry %d: %w", i, err)
			}
			if r.Significant() {
				return r, nil
			}
		}
		return Resolved{}, nil

	case ComposerAvoidCollisionHelper:
		r, err := lookup(c.Routine)
		if err != nil {
			return Resolved{}, fmt.Errorf("avoid collision: %w", err)
		}
		if r.Significant() {
			return r, nil
		}
		return weightedSum(c.Weighted, lookup)
	}
	return Resolved{}, fmt.Errorf("%w: %d", ErrUnknownComposer, c.Kind)
}

func weightedSum(ws []WeightedRoutine, lookup Lookup) (Resolved, error) {
	var sum Resolved
	for i, w := range ws {
		r, err := lookup(w.Routine)
		if err != nil {
			return Resolved{}, fmt.Errorf("weighted sum term %d: %w", i, err)
		}
		if r.HasLinear && w.Weight.Linear != 0 {
			sum.Linear = r3.Add(sum.Linear, r3.Scale(w.Weight.Linear, r.Linear))
			sum.HasLinear = true
		}
		if r.HasAngular && w.Weight.Angular != 0 {
			sum.Angular = r3.Add(sum.Angular, r3.Scale(w.Weight.Angular, r.Angular))
			sum.HasAngular = true
		}
	}
	return sum, nil
}
