package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Crafts         int `csv:"crafts"`
	Strategies     int `csv:"strategies"`
	Routines       int `csv:"routines"`
	ActiveRoutines int `csv:"active_routines"`
	Weapons        int `csv:"weapons"`

	// Mind pipeline during window
	RoutinesComputed int     `csv:"routines_computed"`
	RoutinesPerTick  float64 `csv:"routines_per_tick"`
	MissingTargets   int     `csv:"missing_targets"`
	NoOutput         int     `csv:"no_output"`
	ComposerAborts   int     `csv:"composer_aborts"`
	UntaggedRefs     int     `csv:"untagged_refs"`
	DodgeTicks       int     `csv:"dodge_ticks"` // routine-ticks spent dodging

	// Strategy events during window
	StrategySwitches int `csv:"strategy_switches"`
	CheckpointsHit   int `csv:"checkpoints_hit"`
	FireEvents       int `csv:"fire_events"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
}

// Percentile returns the empirical p-th quantile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpeedStats calculates mean and percentiles from speed values.
func ComputeSpeedStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("crafts", s.Crafts),
		slog.Int("strategies", s.Strategies),
		slog.Int("routines", s.Routines),
		slog.Int("active_routines", s.ActiveRoutines),
		slog.Int("weapons", s.Weapons),
		slog.Int("routines_computed", s.RoutinesComputed),
		slog.Float64("routines_per_tick", s.RoutinesPerTick),
		slog.Int("missing_targets", s.MissingTargets),
		slog.Int("no_output", s.NoOutput),
		slog.Int("composer_aborts", s.ComposerAborts),
		slog.Int("untagged_refs", s.UntaggedRefs),
		slog.Int("dodge_ticks", s.DodgeTicks),
		slog.Int("strategy_switches", s.StrategySwitches),
		slog.Int("checkpoints_hit", s.CheckpointsHit),
		slog.Int("fire_events", s.FireEvents),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
