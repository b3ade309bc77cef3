package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/steering"
)

// idleCraft spawns a craft without a directive and settles its first tick.
func idleCraft(h *harness) ecs.Entity {
	craft := h.spawnCraft(r3.Vec{}, components.Directive{})
	h.step()
	h.stats.Reset()
	return craft
}

func (h *harness) addRoutine(craft ecs.Entity, req components.RoutineRequest) ecs.Entity {
	return h.life.SpawnRoutine(craft, ecs.Entity{}, &req)
}

func seekAhead() components.RoutineRequest {
	return components.RoutineRequest{
		Kind: steering.KindSeek,
		Seek: components.SeekParams{Position: r3.Vec{Z: -100}},
	}
}

func TestComposerSingleSeek(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	seek := h.addRoutine(craft, seekAhead())
	h.mind(craft).SetComposer(steering.Single(seek))
	h.step()

	cmd := h.mind(craft).Command
	if !cmd.HasLinear || !cmd.HasAngular {
		t.Fatalf("expected both channels after finalize, got %+v", cmd)
	}
	if cmd.Linear.Z >= 0 || math.Abs(cmd.Linear.X) > 1e-9 || math.Abs(cmd.Linear.Y) > 1e-9 {
		t.Errorf("expected thrust straight ahead, got %v", cmd.Linear)
	}
	if h.stats.RoutinesComputed != 1 {
		t.Errorf("expected 1 routine computed, got %d", h.stats.RoutinesComputed)
	}
	in := h.maps.EngineInput.Get(craft)
	if in.Linear.Z >= 0 {
		t.Errorf("expected forward engine input, got %v", in.Linear)
	}
}

func TestComposerAbortsOnMissingRoutine(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	seek := h.addRoutine(craft, seekAhead())
	gone := h.addRoutine(craft, components.RoutineRequest{Kind: steering.KindSeek})
	h.life.DespawnRoutine(h.w, gone)

	h.mind(craft).SetComposer(steering.WeightSummed(
		steering.Weighted(steering.UnitWeight, seek),
		steering.Weighted(steering.UnitWeight, gone),
	))
	h.step()

	if h.stats.ComposerAborts != 1 {
		t.Errorf("expected 1 composer abort, got %d", h.stats.ComposerAborts)
	}
	if h.stats.UntaggedRefs != 1 {
		t.Errorf("expected 1 untagged reference, got %d", h.stats.UntaggedRefs)
	}
	if cmd := h.mind(craft).Command; cmd != (steering.Resolved{}) {
		t.Errorf("aborted composer should yield zero, got %+v", cmd)
	}
	if !h.maps.Active.Has(seek) {
		t.Error("the live term should still be tagged")
	}
}

func TestComposeRoutineNests(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	seek := h.addRoutine(craft, seekAhead())
	nested := h.addRoutine(craft, components.RoutineRequest{
		Kind:    steering.KindCompose,
		Compose: components.ComposeParams{Composer: steering.Single(seek)},
	})
	h.mind(craft).SetComposer(steering.Single(nested))
	h.step()

	if h.stats.ComposerAborts != 0 {
		t.Fatalf("expected no aborts, got %d", h.stats.ComposerAborts)
	}
	if !h.maps.Active.Has(seek) {
		t.Error("routines behind a compose routine should be tagged")
	}
	rt := h.maps.Routine.Get(nested)
	if !rt.Valid || !rt.Output.HasLinear {
		t.Errorf("compose routine should carry its result, got %+v", rt)
	}
	if h.mind(craft).Command.Linear.Z >= 0 {
		t.Errorf("expected thrust straight ahead, got %v", h.mind(craft).Command.Linear)
	}
}

func TestComposeRoutineDepthLimit(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	loop := h.addRoutine(craft, components.RoutineRequest{Kind: steering.KindCompose})
	h.maps.Compose.Get(loop).Composer = steering.Single(loop)
	h.mind(craft).SetComposer(steering.Single(loop))
	h.step()

	if h.stats.ComposerAborts != 1 {
		t.Errorf("expected self-referencing compose to abort, got %d aborts", h.stats.ComposerAborts)
	}
	if cmd := h.mind(craft).Command; cmd != (steering.Resolved{}) {
		t.Errorf("expected zero command, got %+v", cmd)
	}
}

func TestRoutineMissingTargetYieldsZero(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	quarry := h.spawnBody(r3.Vec{Z: -100}, r3.Vec{}, 1)
	intercept := h.addRoutine(craft, components.RoutineRequest{
		Kind:      steering.KindIntercept,
		Intercept: components.InterceptParams{Quarry: quarry},
	})
	h.mind(craft).SetComposer(steering.Single(intercept))
	h.w.RemoveEntity(quarry)
	h.step()

	if h.stats.MissingTargets != 1 {
		t.Errorf("expected 1 missing target, got %d", h.stats.MissingTargets)
	}
	if h.stats.ComposerAborts != 0 {
		t.Errorf("missing target should not abort the composer, got %d", h.stats.ComposerAborts)
	}
	if r3.Norm(h.mind(craft).Command.Linear) > 1e-9 {
		t.Errorf("expected zero thrust, got %v", h.mind(craft).Command.Linear)
	}
}

func TestPlayerRoutine(t *testing.T) {
	h := newHarness()
	craft := h.spawnCraft(r3.Vec{}, components.Directive{Kind: components.DirectiveSlaveToPlayerControl})
	h.maps.PlayerInput.Add(craft, &components.PlayerInput{Linear: r3.Vec{Z: -1}})
	h.step()

	cmd := h.mind(craft).Command
	if cmd.Linear.Z >= 0 {
		t.Errorf("full forward stick should thrust forward, got %v", cmd.Linear)
	}
	limits, err := h.maps.Engine.Get(craft).Limits()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cmd.Linear.Z+limits.LinearAccel.Z) > 1e-9 {
		t.Errorf("expected full forward acceleration %v, got %v", limits.LinearAccel.Z, -cmd.Linear.Z)
	}
}

func TestClosureRoutine(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)

	var seen ecs.Entity
	closure := h.addRoutine(craft, components.RoutineRequest{
		Kind: steering.KindClosure,
		Closure: components.ClosureParams{Fn: func(c steering.Craft, env steering.Environment) steering.Output {
			seen = c.Entity
			return steering.LinearOnly(steering.Acceleration(r3.Vec{Y: 5}))
		}},
	})
	h.mind(craft).SetComposer(steering.Single(closure))
	h.step()

	if seen != craft {
		t.Errorf("expected closure to see craft %v, got %v", craft, seen)
	}
	if got := h.mind(craft).Command.Linear; r3.Norm(r3.Sub(got, r3.Vec{Y: 5})) > 1e-9 {
		t.Errorf("expected acceleration passed through, got %v", got)
	}
}

func TestClosureWithoutOutput(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	closure := h.addRoutine(craft, components.RoutineRequest{
		Kind: steering.KindClosure,
		Closure: components.ClosureParams{Fn: func(steering.Craft, steering.Environment) steering.Output {
			return steering.Output{}
		}},
	})
	h.mind(craft).SetComposer(steering.Single(closure))
	h.step()

	if h.stats.NoOutput != 1 {
		t.Errorf("expected 1 no-output routine, got %d", h.stats.NoOutput)
	}
	if h.stats.ComposerAborts != 0 {
		t.Errorf("no output should not abort the composer, got %d", h.stats.ComposerAborts)
	}
	if cmd := h.mind(craft).Command; cmd != (steering.Resolved{}) {
		t.Errorf("expected zero command, got %+v", cmd)
	}
}

func TestInterceptColliderlessTarget(t *testing.T) {
	h := newHarness()
	craft := idleCraft(h)
	marker := h.maps.Transform.NewEntity(&components.Transform{Position: r3.Vec{Z: -100}})
	intercept := h.addRoutine(craft, components.RoutineRequest{
		Kind:      steering.KindIntercept,
		Intercept: components.InterceptParams{Quarry: marker},
	})
	h.mind(craft).SetComposer(steering.Single(intercept))
	h.step()

	if h.stats.MissingTargets != 0 {
		t.Errorf("expected no missing targets, got %d", h.stats.MissingTargets)
	}
	if h.mind(craft).Command.Linear.Z >= 0 {
		t.Errorf("expected thrust toward the marker, got %v", h.mind(craft).Command.Linear)
	}
}
