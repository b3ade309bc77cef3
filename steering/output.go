// Package steering implements the steering routines of the boid mind and the
// composer that merges their outputs into a single acceleration intent.
//
// Everything in this package is a pure function of its inputs (plus the
// explicit per-routine state it is handed), so routines for independent
// crafts can be evaluated concurrently.
package steering

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrMissingRoutine is returned when a composer references a routine that
	// no longer exists or carries no output this tick.
	ErrMissingRoutine = errors.New("steering: routine missing")
	// ErrNoOutput marks a routine that produced neither a linear nor an angular output.
	ErrNoOutput = errors.New("steering: routine has no output")
	// ErrComposeDepth is returned when nested Compose routines recurse too deep.
	ErrComposeDepth = errors.New("steering: compose nesting too deep")
	// ErrUnknownComposer is returned for a composer with an invalid kind tag.
	ErrUnknownComposer = errors.New("steering: unknown composer kind")
	// ErrEngineNotDerived is returned when engine limits are read before the
	// derived engine values were computed.
	ErrEngineNotDerived = errors.New("steering: engine config not derived")
)

// RoutineKind identifies the algorithm of a steering routine.
type RoutineKind uint8

const (
	KindSeek RoutineKind = iota
	KindIntercept
	KindArrive
	KindAvoidCollision
	KindFlyWithFlock
	KindFace
	KindClosure
	KindPlayer
	KindCompose
)

// NumRoutineKinds is the number of routine kinds.
const NumRoutineKinds = int(KindCompose) + 1

var routineKindNames = [NumRoutineKinds]string{
	"seek", "intercept", "arrive", "avoid_collision", "fly_with_flock",
	"face", "closure", "player", "compose",
}

func (k RoutineKind) String() string {
	if int(k) < len(routineKindNames) {
		return routineKindNames[k]
	}
	return fmt.Sprintf("routine(%d)", k)
}

// LinearKind tags the representation of a linear routine output.
type LinearKind uint8

const (
	// LinearDirection is a desired travel direction; the zero vector means no intent.
	LinearDirection LinearKind = iota
	// LinearFractionalVelocity is a velocity as a fraction of the per-axis limits.
	LinearFractionalVelocity
	// LinearVelocity is a desired world-space velocity.
	LinearVelocity
	// LinearFractionalAcceleration is an acceleration as a fraction of the per-axis caps.
	LinearFractionalAcceleration
	// LinearAcceleration is a world-space acceleration.
	LinearAcceleration
)

func (k LinearKind) String() string {
	switch k {
	case LinearDirection:
		return "direction"
	case LinearFractionalVelocity:
		return "fractional_velocity"
	case LinearVelocity:
		return "velocity"
	case LinearFractionalAcceleration:
		return "fractional_acceleration"
	case LinearAcceleration:
		return "acceleration"
	}
	return fmt.Sprintf("linear(%d)", k)
}

// LinearOutput is a world-space linear intent in one of several representations.
type LinearOutput struct {
	Kind LinearKind
	Vec  r3.Vec
}

// Direction returns a direction output.
func Direction(v r3.Vec) LinearOutput { return LinearOutput{Kind: LinearDirection, Vec: v} }

// FractionalVelocity returns a fractional velocity output.
func FractionalVelocity(v r3.Vec) LinearOutput {
	return LinearOutput{Kind: LinearFractionalVelocity, Vec: v}
}

// Velocity returns a velocity output.
func Velocity(v r3.Vec) LinearOutput { return LinearOutput{Kind: LinearVelocity, Vec: v} }

// FractionalAcceleration returns a fractional acceleration output.
func FractionalAcceleration(v r3.Vec) LinearOutput {
	return LinearOutput{Kind: LinearFractionalAcceleration, Vec: v}
}

// Acceleration returns an acceleration output.
func Acceleration(v r3.Vec) LinearOutput { return LinearOutput{Kind: LinearAcceleration, Vec: v} }

// AngularFrame says which frame an angular output is expressed in.
type AngularFrame uint8

const (
	AngularLocal AngularFrame = iota
	AngularWorld
)

// AngularOutput is a desired angular velocity (or angular velocity error).
type AngularOutput struct {
	Vec   r3.Vec
	Frame AngularFrame
}

// Local returns a craft-local angular output.
func Local(v r3.Vec) AngularOutput { return AngularOutput{Vec: v, Frame: AngularLocal} }

// World returns a world-space angular output.
func World(v r3.Vec) AngularOutput { return AngularOutput{Vec: v, Frame: AngularWorld} }

// Output is the per-tick result slot of a routine.
type Output struct {
	Linear     LinearOutput
	Angular    AngularOutput
	HasLinear  bool
	HasAngular bool
}

// LinearOnly wraps a linear output.
func LinearOnly(l LinearOutput) Output { return Output{Linear: l, HasLinear: true} }

// AngularOnly wraps an angular output.
func AngularOnly(a AngularOutput) Output { return Output{Angular: a, HasAngular: true} }

// Both wraps a linear and an angular output.
func Both(l LinearOutput, a AngularOutput) Output {
	return Output{Linear: l, Angular: a, HasLinear: true, HasAngular: true}
}

// Empty reports whether the output carries neither channel.
func (o Output) Empty() bool { return !o.HasLinear && !o.HasAngular }

func isNil(e ecs.Entity) bool { return e == (ecs.Entity{}) }
