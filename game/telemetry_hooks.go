package game

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and writes it out.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	pop, speeds := g.samplePopulation()
	g.metrics.SetPopulation(pop)

	stats := g.collector.Flush(g.tick, pop, speeds)
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats(g.registry)
		g.logDirectiveCensus()
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.output.WriteFireEvents(g.fireLog.Drain()); err != nil {
			slog.Error("failed to write fire events", "error", err)
		}
	} else {
		g.fireLog.Drain()
	}
}

// samplePopulation counts live mind entities and collects craft speeds.
func (g *Game) samplePopulation() (telemetry.Population, []float64) {
	var pop telemetry.Population
	var speeds []float64

	query := g.mindFilter.Query()
	for query.Next() {
		_, vel := query.Get()
		pop.Crafts++
		speeds = append(speeds, r3.Norm(vel.Linear))
	}

	active := g.activeFilter.Query()
	for active.Next() {
		pop.ActiveRoutines++
	}

	pop.Strategies = g.idx.Strategies.Len()
	pop.Routines = g.idx.Routines.Len()
	pop.Weapons = g.idx.Weapons.Len()
	return pop, speeds
}

// BuildSnapshot captures every craft's pose and mind.
func (g *Game) BuildSnapshot(label string) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Seed:     g.seed,
		Scenario: g.scenario,
		Label:    label,
		Tick:     g.tick,
		Time:     g.now,
	}

	query := g.mindFilter.Query()
	for query.Next() {
		e := query.Entity()
		mind, vel := query.Get()

		cs := telemetry.CraftState{
			ID:              e.ID(),
			Velocity:        vec(vel.Linear),
			AngularVelocity: vec(vel.Angular),
			Directive:       mind.Directive.Kind.String(),
			Strategy:        "none",
			Composer:        mind.Composer.String(),
			Command:         vec(mind.Command.Linear),
			Weapons:         len(g.idx.Weapons.Items(e, nil)),
			Routines:        len(g.idx.Routines.Items(e, nil)),
		}
		if g.maps.Craft.Has(e) {
			cs.Name = g.maps.Craft.Get(e).Name
		}
		if g.maps.Transform.Has(e) {
			tr := g.maps.Transform.Get(e)
			cs.Position = vec(tr.Position)
			cs.Rotation = [4]float64{tr.Rotation.Real, tr.Rotation.Imag, tr.Rotation.Jmag, tr.Rotation.Kmag}
		}
		if s := mind.Strategy; g.world.Alive(s) && g.maps.Strategy.Has(s) {
			cs.Strategy = g.maps.Strategy.Get(s).Kind.String()
			if g.maps.Attack.Has(s) {
				cs.Phase = g.maps.Attack.Get(s).Phase.String()
			}
		}
		snap.Crafts = append(snap.Crafts, cs)
	}
	return snap
}

// SaveSnapshot writes a snapshot of the current state to dir.
func (g *Game) SaveSnapshot(dir, label string) (string, error) {
	path, err := telemetry.SaveSnapshot(g.BuildSnapshot(label), dir)
	if err != nil {
		return "", fmt.Errorf("saving snapshot at tick %d: %w", g.tick, err)
	}
	slog.Info("snapshot saved", "tick", g.tick, "path", path)
	return path, nil
}

func vec(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
