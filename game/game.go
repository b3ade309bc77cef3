// Package game wires the mind pipeline into a runnable headless simulation.
package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/systems"
	"github.com/pthm-cable/boidmind/telemetry"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	Scenario       string  // name recorded in snapshots
	LogStats       bool    // log window stats via slog
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // CSV output, empty disables
	SnapshotDir    string  // final snapshot, empty disables
	Workers        int     // routine compute workers, 0 = use config
}

// Game holds the world and every pipeline stage.
type Game struct {
	world     *ecs.World
	maps      *systems.Maps
	idx       *systems.Indices
	lifecycle *systems.Lifecycle
	env       *systems.PhysicsWorld
	registry  *systems.SystemRegistry
	stats     systems.MindStats

	flocks       *systems.FlockSystem
	formations   *systems.FormationSystem
	directives   *systems.DirectiveSystem
	provisioning *systems.ProvisioningSystem
	strategy     *systems.StrategySystem
	tagger       *systems.TaggerSystem
	routines     *systems.RoutineSystem
	composer     *systems.ComposerSystem
	engine       *systems.EngineBridgeSystem
	weapons      *systems.WeaponSystem
	physics      *systems.PhysicsSystem

	mindFilter   *ecs.Filter2[components.Mind, components.Velocity]
	activeFilter *ecs.Filter1[components.ActiveRoutine]

	parallel *parallelState

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	metrics       *telemetry.Metrics
	fireLog       telemetry.FireLog
	statsCallback func(telemetry.WindowStats)

	despawnQueue []ecs.Entity

	seed        int64
	scenario    string
	logStats    bool
	snapshotDir string
	tick        int32
	now         float64
}

// NewGame creates a game with an empty world. config.Init must have run.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()
	w := ecs.NewWorld()

	g := &Game{
		world:       w,
		registry:    systems.NewSystemRegistry(),
		seed:        opts.Seed,
		scenario:    opts.Scenario,
		logStats:    opts.LogStats,
		snapshotDir: opts.SnapshotDir,
	}
	g.maps = systems.NewMaps(w)
	g.idx = systems.NewIndices()
	g.lifecycle = systems.NewLifecycle(g.maps, g.idx)
	g.env = systems.NewPhysicsWorld(w, cfg.Physics.GridCellSize)

	g.flocks = systems.NewFlockSystem(w)
	g.formations = systems.NewFormationSystem(w)
	g.directives = systems.NewDirectiveSystem(w, g.maps, g.idx, g.lifecycle, &g.stats)
	g.provisioning = systems.NewProvisioningSystem(w, g.maps, g.idx, g.lifecycle)
	g.strategy = systems.NewStrategySystem(w, g.maps, &g.stats)
	g.tagger = systems.NewTaggerSystem(w, g.maps, g.idx, &g.stats)
	g.routines = systems.NewRoutineSystem(w, g.maps, &g.stats)
	g.composer = systems.NewComposerSystem(w, g.maps, &g.stats)
	g.engine = systems.NewEngineBridgeSystem(w, g.maps)
	g.weapons = systems.NewWeaponSystem(w, g.maps, g.idx, &g.stats)
	g.physics = systems.NewPhysicsSystem(w, g.maps)

	g.mindFilter = ecs.NewFilter2[components.Mind, components.Velocity](w)
	g.activeFilter = ecs.NewFilter1[components.ActiveRoutine](w)

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Parallel.Workers
	}
	g.parallel = newParallelState(workers, cfg.Parallel.MinBatch)

	window := opts.StatsWindowSec
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(window, cfg.Physics.DT)
	g.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	g.metrics = metrics

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		g.output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	slog.Info("game created",
		"seed", opts.Seed,
		"workers", g.parallel.numWorkers,
		"stats_window_ticks", g.collector.WindowDurationTicks(),
		"output_dir", g.output.Dir(),
	)
	return g, nil
}

// Step runs one tick. Structural changes happen only between stages.
func (g *Game) Step() {
	dt := config.Cfg().Physics.DT

	g.perf.StartTick()
	g.stats.Reset()
	g.flushDespawns()

	g.perf.StartPhase(systems.StageGroups)
	g.flocks.Update(g.world)
	g.formations.Update(g.world)

	g.perf.StartPhase(systems.StagePhysicsSnapshot)
	g.env.Update(g.world, g.now)

	g.perf.StartPhase(systems.StageDirectives)
	g.directives.Update(g.world)

	g.perf.StartPhase(systems.StageProvisioning)
	g.provisioning.Update(g.world)

	g.perf.StartPhase(systems.StageStrategy)
	g.strategy.Update(g.world, g.env)

	g.perf.StartPhase(systems.StageTagger)
	g.tagger.Update(g.world)

	g.perf.StartPhase(systems.StageRoutines)
	g.updateRoutines()

	g.perf.StartPhase(systems.StageComposer)
	g.composer.Update(g.world)

	g.perf.StartPhase(systems.StageEngine)
	g.engine.Update(g.world)

	g.perf.StartPhase(systems.StageWeapons)
	g.weapons.Update(g.world, g.now)

	g.perf.StartPhase(systems.StagePhysics)
	g.physics.Update(g.world)

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.fireLog.Append(g.tick, g.weapons.Events())
	g.collector.Record(g.stats)
	g.metrics.Record(g.stats)

	g.tick++
	g.now += dt
	g.flushTelemetry()

	g.perf.EndTick()
}

// Run steps until maxTicks is reached (0 = forever) or stop returns true.
// stop is checked between ticks and may be nil.
func (g *Game) Run(maxTicks int, stop func() bool) {
	for maxTicks <= 0 || int(g.tick) < maxTicks {
		if stop != nil && stop() {
			return
		}
		g.Step()
	}
}

// Close stops the workers, writes pending output and saves the final snapshot.
func (g *Game) Close() error {
	g.stopParallelWorkers()

	var errs []error
	if err := g.output.WriteFireEvents(g.fireLog.Drain()); err != nil {
		errs = append(errs, err)
	}
	if g.snapshotDir != "" {
		if _, err := g.SaveSnapshot(g.snapshotDir, "final"); err != nil {
			errs = append(errs, err)
		}
	}
	if err := g.output.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SetStatsCallback registers fn to receive every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 { return g.tick }

// Now returns the simulation time in seconds.
func (g *Game) Now() float64 { return g.now }

// World returns the ECS world.
func (g *Game) World() *ecs.World { return g.world }

// Maps returns the shared component mappers.
func (g *Game) Maps() *systems.Maps { return g.maps }

// LastStats returns the counters of the most recent tick.
func (g *Game) LastStats() systems.MindStats { return g.stats }

// FireEvents returns the number of weapon activations so far.
func (g *Game) FireEvents() int { return g.fireLog.Total() }
