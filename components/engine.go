package components

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/steering"
)

// EngineConfig describes a craft's thrusters and hard limits. All vectors are
// per local axis. A zero accel limit on an axis means only the thrusters cap it.
type EngineConfig struct {
	Mass                 float64
	ThrusterForce        r3.Vec
	LinearVelocityLimit  r3.Vec
	AngularVelocityLimit r3.Vec
	LinearAccelLimit     r3.Vec
	AngularAccelLimit    r3.Vec
	Dimensions           r3.Vec // bounding box extents

	Derived *EngineDerived
}

// EngineDerived holds values computed from an EngineConfig.
type EngineDerived struct {
	ThrusterTorque  r3.Vec
	MomentOfInertia r3.Vec
	LinearAccel     r3.Vec // effective per-axis caps
	AngularAccel    r3.Vec
	Radius          float64
}

// EngineConfigFromDefaults returns the configured default engine, derived.
func EngineConfigFromDefaults() EngineConfig {
	e := config.Cfg().Engine
	ec := EngineConfig{
		Mass:                 e.Mass,
		ThrusterForce:        vec3(e.ThrusterForce),
		LinearVelocityLimit:  vec3(e.LinearVelocityLimit),
		AngularVelocityLimit: vec3(e.AngularVelocityLimit),
		LinearAccelLimit:     vec3(e.LinearAccelLimit),
		AngularAccelLimit:    vec3(e.AngularAccelLimit),
		Dimensions:           vec3(e.Dimensions),
	}
	ec.Derive()
	return ec
}

func vec3(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// Derive computes torque, inertia, acceleration caps and bounding radius.
// The hull is treated as a solid box with thrusters at its faces.
func (c *EngineConfig) Derive() {
	d := &EngineDerived{}
	w, h, l := c.Dimensions.X, c.Dimensions.Y, c.Dimensions.Z

	// Pitch and yaw thrusters sit at the nose, roll thrusters at the wingtips.
	d.ThrusterTorque = r3.Vec{
		X: c.ThrusterForce.Y * l / 2,
		Y: c.ThrusterForce.X * l / 2,
		Z: c.ThrusterForce.Y * w / 2,
	}
	m := c.Mass / 12
	d.MomentOfInertia = r3.Vec{
		X: m * (h*h + l*l),
		Y: m * (w*w + l*l),
		Z: m * (w*w + h*h),
	}

	if c.Mass > 0 {
		d.LinearAccel = capAxes(r3.Scale(1/c.Mass, c.ThrusterForce), c.LinearAccelLimit)
	}
	d.AngularAccel = capAxes(r3.Vec{
		X: safeDiv(d.ThrusterTorque.X, d.MomentOfInertia.X),
		Y: safeDiv(d.ThrusterTorque.Y, d.MomentOfInertia.Y),
		Z: safeDiv(d.ThrusterTorque.Z, d.MomentOfInertia.Z),
	}, c.AngularAccelLimit)
	d.Radius = r3.Norm(c.Dimensions) / 2

	c.Derived = d
}

// Limits returns the steering limits. It fails if Derive was never run.
func (c *EngineConfig) Limits() (steering.Limits, error) {
	if c.Derived == nil {
		return steering.Limits{}, fmt.Errorf("engine limits: %w", steering.ErrEngineNotDerived)
	}
	return steering.Limits{
		LinearVelocity:  c.LinearVelocityLimit,
		AngularVelocity: c.AngularVelocityLimit,
		LinearAccel:     c.Derived.LinearAccel,
		AngularAccel:    c.Derived.AngularAccel,
	}, nil
}

// capAxes takes the per-axis minimum of v and a non-zero limit.
func capAxes(v, limit r3.Vec) r3.Vec {
	pick := func(a, l float64) float64 {
		a = math.Abs(a)
		if l > 0 && l < a {
			return l
		}
		return a
	}
	return r3.Vec{X: pick(v.X, limit.X), Y: pick(v.Y, limit.Y), Z: pick(v.Z, limit.Z)}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
