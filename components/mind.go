package components

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/steering"
)

// DirectiveKind is the high-level order a mind carries out.
type DirectiveKind uint8

const (
	DirectiveNone DirectiveKind = iota
	DirectiveHoldPosition
	DirectiveJoinFormation
	DirectiveFlyWithFlockCAS
	DirectiveRunCircuit
	DirectiveAttackPursue
	DirectiveSlaveToPlayerControl
)

var directiveNames = [...]string{
	"none", "hold_position", "join_formation", "fly_with_flock_cas",
	"run_circuit", "attack_pursue", "slave_to_player_control",
}

func (k DirectiveKind) String() string {
	if int(k) < len(directiveNames) {
		return directiveNames[k]
	}
	return fmt.Sprintf("directive(%d)", k)
}

// ParseDirectiveKind maps a directive name to its kind.
func ParseDirectiveKind(s string) (DirectiveKind, error) {
	for i, n := range directiveNames {
		if n == s {
			return DirectiveKind(i), nil
		}
	}
	return DirectiveNone, fmt.Errorf("unknown directive %q", s)
}

// Directive is an order with its payload. Only the fields of Kind are used.
type Directive struct {
	Kind        DirectiveKind
	Position    r3.Vec     // HoldPosition
	Formation   ecs.Entity // JoinFormation
	Flock       ecs.Entity // FlyWithFlockCAS
	Checkpoints []r3.Vec   // RunCircuit
	Quarry      ecs.Entity // AttackPursue
}

// Mind is the decision state of an autonomous craft.
type Mind struct {
	AngularInputMultiplier float64

	Directive         Directive
	DirectiveRevision uint64 // bumped on every directive change
	AppliedRevision   uint64 // revision the current strategy was built for

	Strategy      ecs.Entity // zero when no strategy runs
	Composer      steering.Composer
	ComposerDirty bool
	FireWeapons   bool

	// Command is the composed result of the current tick.
	Command steering.Resolved

	// LastAccel is the previous tick's world acceleration intent, used as
	// the desired heading for collision avoidance.
	LastAccel r3.Vec
}

// NewMind creates a mind that will pick up d on the next directive pass.
func NewMind(d Directive, angularMultiplier float64) Mind {
	return Mind{
		AngularInputMultiplier: angularMultiplier,
		Directive:              d,
		DirectiveRevision:      1,
		Composer:               steering.EmptyComposer(),
	}
}

// SetDirective replaces the directive and bumps the revision.
func (m *Mind) SetDirective(d Directive) {
	m.Directive = d
	m.DirectiveRevision++
}

// DirectivePending reports whether the strategy is stale.
func (m *Mind) DirectivePending() bool {
	return m.DirectiveRevision != m.AppliedRevision
}

// SetComposer installs c, marking the mind dirty when it changed.
func (m *Mind) SetComposer(c steering.Composer) {
	if m.Composer.Equal(&c) {
		return
	}
	m.Composer = c
	m.ComposerDirty = true
}
