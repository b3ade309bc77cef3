package steering

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

func TestResolveLinearKinds(t *testing.T) {
	e := newEntities(1)[0]
	still := testCraft(e, r3.Vec{}, r3.Vec{})
	moving := testCraft(e, r3.Vec{}, r3.Vec{Z: -10})

	tests := []struct {
		name  string
		craft Craft
		out   Output
		gain  float64
		want  r3.Vec
	}{
		// 50 forward speed, gain 0.1 -> 5 forward accel.
		{"direction", still, LinearOnly(Direction(geom.Forward)), 0.1, r3.Vec{Z: -5}},
		{"zero direction", moving, LinearOnly(Direction(r3.Vec{})), 1, r3.Vec{}},
		{"velocity correction", moving, LinearOnly(Velocity(r3.Vec{Z: -20})), 1, r3.Vec{Z: -10}},
		{"velocity clamps per axis", still, LinearOnly(Velocity(r3.Vec{X: 100, Z: -100})), 1, r3.Vec{X: 10, Z: -25}},
		{"braking", moving, LinearOnly(Velocity(r3.Vec{})), 0.5, r3.Vec{Z: 5}},
		{"fractional velocity", still, LinearOnly(FractionalVelocity(r3.Vec{X: 0.5})), 0.5, r3.Vec{X: 5}},
		{"fractional acceleration", still, LinearOnly(FractionalAcceleration(r3.Vec{X: -1, Z: -0.5})), 1, r3.Vec{X: -10, Z: -12.5}},
		{"acceleration", still, LinearOnly(Acceleration(r3.Vec{Y: 3})), 1, r3.Vec{Y: 3}},
		{"acceleration clamped", still, LinearOnly(Acceleration(r3.Vec{Y: 300})), 1, r3.Vec{Y: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.out, tt.craft, tt.gain)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if !got.HasLinear || got.HasAngular {
				t.Fatalf("channels = %v/%v, want linear only", got.HasLinear, got.HasAngular)
			}
			if !vecNear(got.Linear, tt.want, 1e-9) {
				t.Errorf("Resolve = %v, want %v", got.Linear, tt.want)
			}
		})
	}
}

func TestResolveRespectsOrientation(t *testing.T) {
	e := newEntities(1)[0]
	c := testCraft(e, r3.Vec{}, r3.Vec{})
	c.Rotation = geom.FromAxisAngle(geom.Up, math.Pi/2) // forward is now -X

	// World -X is the local forward axis, capped at 25 rather than 10.
	got, err := Resolve(LinearOnly(Acceleration(r3.Vec{X: -100})), c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !vecNear(got.Linear, r3.Vec{X: -25}, 1e-9) {
		t.Errorf("Resolve = %v, want (-25,0,0)", got.Linear)
	}

	got, _ = Resolve(AngularOnly(World(r3.Vec{X: 1})), c, 1)
	// World +X is local +Z after yawing left by 90 degrees.
	if !vecNear(got.Angular, r3.Vec{Z: 1}, 1e-9) {
		t.Errorf("world angular in local frame = %v, want (0,0,1)", got.Angular)
	}
}

func TestResolveNoOutput(t *testing.T) {
	e := newEntities(1)[0]
	_, err := Resolve(Output{}, testCraft(e, r3.Vec{}, r3.Vec{}), 1)
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("Resolve(empty) error = %v, want ErrNoOutput", err)
	}
}

func TestFinalize(t *testing.T) {
	got := Finalize(linear(r3.Vec{X: 4}), geom.Identity)
	if !got.HasAngular {
		t.Fatal("Finalize should synthesize an angular channel")
	}
	if !vecNear(got.Angular, LookTo(geom.Right), 1e-12) {
		t.Errorf("angular = %v, want %v", got.Angular, LookTo(geom.Right))
	}

	both := Resolved{Linear: r3.Vec{X: 4}, Angular: r3.Vec{Z: 9}, HasLinear: true, HasAngular: true}
	if Finalize(both, geom.Identity) != both {
		t.Error("Finalize should leave an explicit angular channel alone")
	}

	if got := Finalize(Resolved{}, geom.Identity); got.HasLinear || got.HasAngular {
		t.Errorf("Finalize(empty) = %+v, want empty", got)
	}
}

func TestEngineInputFor(t *testing.T) {
	b := Body{
		Rotation:        geom.FromAxisAngle(geom.Up, math.Pi/2),
		AngularVelocity: r3.Vec{Y: 0.5},
	}
	r := Resolved{Linear: r3.Vec{X: -3}, Angular: r3.Vec{Y: 1}, HasLinear: true, HasAngular: true}

	lin, ang := EngineInputFor(r, b, 2)
	if !vecNear(lin, r3.Vec{Z: -3}, 1e-9) {
		t.Errorf("linear = %v, want local forward (0,0,-3)", lin)
	}
	// 2*1 - 0.5 about the up axis, which is unchanged by a yaw.
	if !vecNear(ang, r3.Vec{Y: 1.5}, 1e-9) {
		t.Errorf("angular = %v, want (0,1.5,0)", ang)
	}

	_, ang = EngineInputFor(Resolved{}, b, 2)
	if !vecNear(ang, r3.Vec{Y: -0.5}, 1e-9) {
		t.Errorf("angular without intent = %v, want damping (0,-0.5,0)", ang)
	}
}
