package steering

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

// Epsilon is the squared magnitude above which a resolved channel counts as
// a real intent for priority decisions.
const Epsilon = 1e-6

// Resolved is a routine output converted to the composer's common form:
// Linear is a world-space acceleration, Angular a craft-local angular
// velocity error. Either channel may be absent.
type Resolved struct {
	Linear     r3.Vec
	Angular    r3.Vec
	HasLinear  bool
	HasAngular bool
}

// Significant reports whether any present channel exceeds Epsilon.
func (r Resolved) Significant() bool {
	if r.HasLinear && r3.Norm2(r.Linear) > Epsilon {
		return true
	}
	return r.HasAngular && r3.Norm2(r.Angular) > Epsilon
}

// Resolve converts a raw routine output into a bounded world acceleration and
// a local angular signal. Velocity-type outputs become a proportional
// correction gain × (desired − current).
func Resolve(out Output, c Craft, gain float64) (Resolved, error) {
	if out.Empty() {
		return Resolved{}, ErrNoOutput
	}
	var r Resolved
	if out.HasLinear {
		r.Linear = resolveLinear(out.Linear, c, gain)
		r.HasLinear = true
	}
	if out.HasAngular {
		r.Angular = out.Angular.Vec
		if out.Angular.Frame == AngularWorld {
			r.Angular = geom.InverseRotate(c.Rotation, out.Angular.Vec)
		}
		r.HasAngular = true
	}
	return r, nil
}

func resolveLinear(l LinearOutput, c Craft, gain float64) r3.Vec {
	rot := c.Rotation
	var accel r3.Vec
	switch l.Kind {
	case LinearDirection:
		dir := geom.NormalizeOrZero(l.Vec)
		if geom.IsZero(dir) {
			return r3.Vec{}
		}
		accel = velocityCorrection(r3.Scale(c.Limits.ForwardSpeed(), dir), c, gain)
	case LinearFractionalVelocity:
		local := geom.Mul(geom.InverseRotate(rot, l.Vec), geom.Abs(c.Limits.LinearVelocity))
		accel = velocityCorrection(geom.Rotate(rot, local), c, gain)
	case LinearVelocity:
		accel = velocityCorrection(l.Vec, c, gain)
	case LinearFractionalAcceleration:
		local := geom.Mul(geom.InverseRotate(rot, l.Vec), geom.Abs(c.Limits.LinearAccel))
		accel = geom.Rotate(rot, local)
	case LinearAcceleration:
		accel = l.Vec
	default:
		return r3.Vec{}
	}
	return clampAccel(accel, c)
}

func velocityCorrection(desired r3.Vec, c Craft, gain float64) r3.Vec {
	return r3.Scale(gain, r3.Sub(desired, c.LinearVelocity))
}

// clampAccel bounds a world acceleration by the per-axis caps in the local frame.
func clampAccel(accel r3.Vec, c Craft) r3.Vec {
	local := geom.ClampAxes(geom.InverseRotate(c.Rotation, accel), c.Limits.LinearAccel)
	return geom.Rotate(c.Rotation, local)
}

// Finalize synthesizes the angular channel of a linear-only result by facing
// the thrust direction.
func Finalize(r Resolved, rot quat.Number) Resolved {
	if r.HasLinear && !r.HasAngular {
		r.Angular = LookTo(geom.NormalizeOrZero(geom.InverseRotate(rot, r.Linear)))
		r.HasAngular = true
	}
	return r
}

// EngineInputFor turns a final composer result into craft-local engine inputs.
// The angular input is the scaled angular signal minus the current local
// angular velocity, so it expresses the desired change.
func EngineInputFor(r Resolved, b Body, angularMultiplier float64) (linear, angular r3.Vec) {
	if r.HasLinear {
		linear = geom.InverseRotate(b.Rotation, r.Linear)
	}
	current := geom.InverseRotate(b.Rotation, b.AngularVelocity)
	var signal r3.Vec
	if r.HasAngular {
		signal = r3.Scale(angularMultiplier, r.Angular)
	}
	return linear, r3.Sub(signal, current)
}

// ToOutput wraps a resolved result as an acceleration output, used by Compose
// routines to feed a nested composer result to their parent.
func (r Resolved) ToOutput() Output {
	var o Output
	if r.HasLinear {
		o.Linear = Acceleration(r.Linear)
		o.HasLinear = true
	}
	if r.HasAngular {
		o.Angular = Local(r.Angular)
		o.HasAngular = true
	}
	return o
}
