package steering

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

var testAvoid = AvoidParams{
	PredictionSeconds:  2,
	SizeMargin:         5,
	UpheldDodgeSeconds: 1,
}

func TestAvoidCollisionClearPath(t *testing.T) {
	es := newEntities(2)
	c := testCraft(es[0], r3.Vec{}, r3.Vec{Z: -10})
	env := &fakeEnv{obstacles: []obstacle{{entity: es[1], center: r3.Vec{X: 50}, radius: 5}}}

	var st AvoidState
	out := AvoidCollision(c, geom.Forward, testAvoid, &st, env)
	if out.Linear.Kind != LinearDirection || !geom.IsZero(out.Linear.Vec) {
		t.Errorf("clear path = %+v, want zero direction", out.Linear)
	}
	if st.Dodging {
		t.Error("should not be dodging on a clear path")
	}
}

func TestAvoidCollisionDodges(t *testing.T) {
	es := newEntities(2)
	c := testCraft(es[0], r3.Vec{}, r3.Vec{Z: -10})
	rock := obstacle{entity: es[1], center: r3.Vec{Z: -20}, radius: 5}
	env := &fakeEnv{obstacles: []obstacle{rock}}

	var st AvoidState
	out := AvoidCollision(c, geom.Forward, testAvoid, &st, env)
	dodge := out.Linear.Vec
	if geom.IsZero(dodge) {
		t.Fatal("expected a dodge direction")
	}
	if !st.Dodging || st.Dodge != dodge {
		t.Errorf("state = %+v, want cached dodge %v", st, dodge)
	}

	horizon := testAvoid.PredictionSeconds*10 + testAvoid.SizeMargin
	if _, hit := env.ShapeCast(c.Position, c.Radius, dodge, horizon, CastFilter{Self: c.Entity}); hit {
		t.Errorf("dodge %v is still obstructed", dodge)
	}
	// The nearest clear sample should still lean forward rather than reverse.
	if r3.Dot(dodge, geom.Forward) < -0.5 {
		t.Errorf("dodge %v turns back too far", dodge)
	}
}

func TestAvoidCollisionExclusions(t *testing.T) {
	es := newEntities(2)
	c := testCraft(es[0], r3.Vec{}, r3.Vec{Z: -10})
	env := &fakeEnv{obstacles: []obstacle{
		{entity: es[1], center: r3.Vec{Z: -20}, radius: 5},
		// The craft's own collider always overlaps it.
		{entity: es[0], center: r3.Vec{}, radius: 1},
	}}

	p := testAvoid
	p.Exclude = []ecs.Entity{es[1]}
	var st AvoidState
	out := AvoidCollision(c, geom.Forward, p, &st, env)
	if !geom.IsZero(out.Linear.Vec) {
		t.Errorf("excluded obstacle still dodged: %v", out.Linear.Vec)
	}
}

func TestAvoidCollisionHysteresis(t *testing.T) {
	es := newEntities(2)
	c := testCraft(es[0], r3.Vec{}, r3.Vec{Z: -10})
	env := &fakeEnv{obstacles: []obstacle{{entity: es[1], center: r3.Vec{Z: -20}, radius: 5}}}

	var st AvoidState
	first := AvoidCollision(c, geom.Forward, testAvoid, &st, env).Linear.Vec
	if geom.IsZero(first) {
		t.Fatal("expected a dodge")
	}

	// The obstacle vanishes but the dodge is upheld.
	env.obstacles = nil
	for _, now := range []float64{0.25, 0.5, 0.99} {
		env.now = now
		got := AvoidCollision(c, geom.Forward, testAvoid, &st, env).Linear.Vec
		if got != first {
			t.Errorf("t=%v: dodge = %v, want upheld %v", now, got, first)
		}
	}

	env.now = 1.01
	got := AvoidCollision(c, geom.Forward, testAvoid, &st, env).Linear.Vec
	if !geom.IsZero(got) {
		t.Errorf("after upheld window dodge = %v, want zero", got)
	}
	if st.Dodging {
		t.Error("dodge state should clear after the upheld window")
	}
}

func TestAvoidCollisionFullyBlocked(t *testing.T) {
	es := newEntities(2)
	c := testCraft(es[0], r3.Vec{}, r3.Vec{Z: -10})
	// A huge sphere the craft is inside of blocks every direction at distance 0.
	env := &fakeEnv{obstacles: []obstacle{{entity: es[1], center: r3.Vec{Z: -3}, radius: 100}}}

	var st AvoidState
	out := AvoidCollision(c, geom.Forward, testAvoid, &st, env)
	if geom.IsZero(out.Linear.Vec) {
		t.Error("fully blocked craft should still get a direction")
	}
}
