package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/boidmind/systems"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(systems.StageRoutines)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(systems.StageComposer)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[systems.StageRoutines]; !ok {
		t.Error("expected routines phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[systems.StageComposer]; !ok {
		t.Error("expected composer phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(systems.StageRoutines)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct: map[string]float64{
			systems.StageRoutines: 40,
			systems.StageComposer: 10,
			systems.StagePhysics:  25,
			PhaseTelemetry:        1,
		},
	}

	row := stats.ToCSV(120)

	if row.WindowEnd != 120 {
		t.Errorf("expected window_end 120, got %d", row.WindowEnd)
	}
	if row.AvgTickUS != 2000 {
		t.Errorf("expected avg_tick_us 2000, got %d", row.AvgTickUS)
	}
	if row.RoutinesPct != 40 || row.ComposerPct != 10 || row.PhysicsPct != 25 {
		t.Errorf("unexpected stage columns: %+v", row)
	}
	if row.TelemetryPct != 1 {
		t.Errorf("expected telemetry_pct 1, got %v", row.TelemetryPct)
	}
	if row.StrategyPct != 0 {
		t.Errorf("expected untimed stage to be 0, got %v", row.StrategyPct)
	}
}
