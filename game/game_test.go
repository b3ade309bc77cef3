package game

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/scenario"
	"github.com/pthm-cable/boidmind/telemetry"
)

func init() {
	config.MustInit("")
}

const skirmish = `
name: skirmish
seed: 3
obstacles:
  - name: rock
    position: [0, 0, -400]
    radius: 30
crafts:
  - name: hunter
    position: [0, 0, 300]
    weapons: [{class: cannon, cooldown: 0.2}]
    directive: {kind: attack_pursue, quarry: target}
  - name: target
    position: [0, 0, 150]
    directive: {kind: hold_position}
  - name: racer
    position: [200, 0, 0]
    directive:
      kind: run_circuit
      checkpoints: [[200, 0, -150], [350, 0, -150]]
swarms:
  - prefix: guard
    count: 12
    center: [-300, 0, 0]
    spread: 60
    directive: {kind: fly_with_flock_cas, flock: pack}
flocks: [pack]
`

func newSkirmish(t *testing.T, opts Options) (*Game, *scenario.Result) {
	t.Helper()
	f, err := scenario.Parse([]byte(skirmish))
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGame(opts)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	res, err := scenario.Apply(g, f, opts.Seed)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return g, res
}

func entity(t *testing.T, res *scenario.Result, name string) ecs.Entity {
	t.Helper()
	e, ok := res.Craft(name)
	if !ok {
		t.Fatalf("no entity named %s", name)
	}
	return e
}

// ---------- Step ----------

func TestStepBuildsStrategies(t *testing.T) {
	g, res := newSkirmish(t, Options{})
	defer g.Close()

	g.Run(3, nil)

	if g.Tick() != 3 {
		t.Fatalf("expected tick 3, got %d", g.Tick())
	}
	for _, name := range []string{"hunter", "target", "racer", "guard-0"} {
		mind := g.Maps().Mind.Get(entity(t, res, name))
		if mind.DirectivePending() {
			t.Errorf("%s: expected directive applied", name)
		}
		if !g.World().Alive(mind.Strategy) {
			t.Errorf("%s: expected a live strategy", name)
		}
	}
	if g.LastStats().RoutinesComputed == 0 {
		t.Error("expected routines to be computed")
	}
}

func TestRunStops(t *testing.T) {
	g, _ := newSkirmish(t, Options{})
	defer g.Close()

	calls := 0
	g.Run(0, func() bool {
		calls++
		return calls > 5
	})
	if g.Tick() != 5 {
		t.Errorf("expected 5 ticks before stop, got %d", g.Tick())
	}
}

func TestHunterFires(t *testing.T) {
	g, _ := newSkirmish(t, Options{})
	defer g.Close()

	// The target sits dead ahead, so the hunter fires once its strategy runs.
	g.Run(30, nil)
	if g.FireEvents() == 0 {
		t.Error("expected the hunter to fire")
	}
}

func TestSetDirective(t *testing.T) {
	g, res := newSkirmish(t, Options{})
	defer g.Close()
	g.Run(2, nil)

	racer := entity(t, res, "racer")
	if !g.SetDirective(racer, components.Directive{Kind: components.DirectiveSlaveToPlayerControl}) {
		t.Fatal("expected SetDirective to succeed")
	}
	if !g.SetPlayerInput(racer, components.PlayerInput{Linear: r3.Vec{Z: -1}}) {
		t.Fatal("expected the craft to accept player input")
	}
	g.Run(2, nil)

	cmd := g.Maps().Mind.Get(racer).Command
	if !cmd.HasLinear || cmd.Linear.Z >= 0 {
		t.Errorf("expected forward thrust from player input, got %+v", cmd.Linear)
	}

	rock := entity(t, res, "rock")
	if g.SetDirective(rock, components.Directive{}) {
		t.Error("expected SetDirective on a mindless body to fail")
	}
}

// ---------- Lifecycle ----------

func TestQueueDespawn(t *testing.T) {
	g, res := newSkirmish(t, Options{})
	defer g.Close()
	g.Run(5, nil)

	target := entity(t, res, "target")
	rock := entity(t, res, "rock")
	strategy := g.Maps().Mind.Get(target).Strategy

	g.QueueDespawn(target)
	g.QueueDespawn(rock)
	if !g.World().Alive(target) {
		t.Fatal("expected despawn to wait for the next tick")
	}

	g.Run(6, nil)
	if g.World().Alive(target) || g.World().Alive(rock) {
		t.Error("expected queued entities to be removed")
	}
	if g.World().Alive(strategy) {
		t.Error("expected the craft's strategy to be removed with it")
	}
	if g.LastStats().ComposerAborts != 0 {
		t.Errorf("expected no composer aborts after despawn, got %d", g.LastStats().ComposerAborts)
	}
}

// ---------- Parallel ----------

func TestParallelMatchesSerial(t *testing.T) {
	run := func(workers, minBatch int) map[string]r3.Vec {
		g, res := newSkirmish(t, Options{})
		g.parallel = newParallelState(workers, minBatch)
		g.Run(120, nil)
		if err := g.Close(); err != nil {
			t.Fatal(err)
		}
		out := make(map[string]r3.Vec)
		for name, e := range res.Entities {
			if g.Maps().Transform.Has(e) {
				out[name] = g.Maps().Transform.Get(e).Position
			}
		}
		return out
	}

	serial := run(1, 1)
	parallel := run(4, 1)
	for name, want := range serial {
		if got := parallel[name]; got != want {
			t.Errorf("%s: parallel position %v differs from serial %v", name, got, want)
		}
	}
}

func TestParallelStopIsIdempotent(t *testing.T) {
	p := newParallelState(3, 1)
	p.startWorkers()
	p.stopWorkers()
	p.stopWorkers()
	if p.running {
		t.Error("expected workers stopped")
	}
}

// ---------- Telemetry ----------

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	snaps := filepath.Join(dir, "snaps")

	g, _ := newSkirmish(t, Options{
		StatsWindowSec: 0.5,
		OutputDir:      out,
		SnapshotDir:    snaps,
		Scenario:       "skirmish",
		Seed:           9,
	})

	var windows []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) { windows = append(windows, s) })

	ticks := 6 * int(g.collector.WindowDurationTicks())
	g.Run(ticks, nil)
	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if len(windows) != 6 {
		t.Fatalf("expected 6 windows, got %d", len(windows))
	}
	last := windows[len(windows)-1]
	if last.Crafts != 15 {
		t.Errorf("expected 15 crafts, got %d", last.Crafts)
	}
	if last.Strategies != 15 {
		t.Errorf("expected 15 strategies, got %d", last.Strategies)
	}
	if last.RoutinesComputed == 0 || last.ActiveRoutines == 0 {
		t.Errorf("expected routine activity, got %+v", last)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "fire_events.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	data, _ := os.ReadFile(filepath.Join(out, "telemetry.csv"))
	if got := strings.Count(string(data), "\n"); got != 7 {
		t.Errorf("expected header + 6 rows, got %d lines", got)
	}

	snap, err := telemetry.LoadSnapshot(filepath.Join(snaps, "snapshot_"+strconv.Itoa(ticks)+"_final.json"))
	if err != nil {
		t.Fatalf("loading final snapshot: %v", err)
	}
	if snap.Seed != 9 || snap.Scenario != "skirmish" || len(snap.Crafts) != 15 {
		t.Errorf("unexpected snapshot header: seed %d scenario %s crafts %d", snap.Seed, snap.Scenario, len(snap.Crafts))
	}
	for _, c := range snap.Crafts {
		if c.Name == "hunter" && c.Strategy != "attack_pursue" {
			t.Errorf("expected hunter strategy attack_pursue, got %s", c.Strategy)
		}
	}
}
