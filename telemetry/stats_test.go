package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/boidmind/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
		{"clamped", []float64{1, 2, 3}, 1.5, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeSpeedStats(t *testing.T) {
	values := []float64{100, 10, 90, 20, 80, 30, 70, 40, 60, 50}
	mean, p10, p50, p90 := ComputeSpeedStats(values)

	if math.Abs(mean-55) > 0.001 {
		t.Errorf("mean = %v, want 55", mean)
	}
	if p10 != 10 {
		t.Errorf("p10 = %v, want 10", p10)
	}
	if p50 != 50 {
		t.Errorf("p50 = %v, want 50", p50)
	}
	if p90 != 90 {
		t.Errorf("p90 = %v, want 90", p90)
	}
	if values[0] != 100 {
		t.Error("input slice should not be sorted in place")
	}
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeSpeedStats([]float64{})

	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 1.0/60)
	if c.WindowDurationTicks() != 60 {
		t.Fatalf("expected 60 ticks per window, got %d", c.WindowDurationTicks())
	}

	for tick := int32(1); tick <= 60; tick++ {
		c.Record(systems.MindStats{RoutinesComputed: 3, ComposerAborts: 1, FireEvents: 2})
		if tick < 60 && c.ShouldFlush(tick) {
			t.Fatalf("flushed early at tick %d", tick)
		}
	}
	if !c.ShouldFlush(60) {
		t.Fatal("expected flush at tick 60")
	}

	stats := c.Flush(60, Population{Crafts: 4, Routines: 12}, []float64{1, 2, 3})
	if stats.RoutinesComputed != 180 || stats.RoutinesPerTick != 3 {
		t.Errorf("routines = %d (%v/tick), want 180 (3/tick)", stats.RoutinesComputed, stats.RoutinesPerTick)
	}
	if stats.ComposerAborts != 60 || stats.FireEvents != 120 {
		t.Errorf("aborts=%d fire=%d, want 60 and 120", stats.ComposerAborts, stats.FireEvents)
	}
	if stats.Crafts != 4 || stats.Routines != 12 {
		t.Errorf("population not carried: %+v", stats)
	}
	if math.Abs(stats.SimTimeSec-1) > 1e-9 {
		t.Errorf("sim time = %v, want 1", stats.SimTimeSec)
	}

	next := c.Flush(120, Population{}, nil)
	if next.WindowStartTick != 60 || next.RoutinesComputed != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}
