// Package telemetry provides mind pipeline health tracking, CSV output and snapshots.
package telemetry

import (
	"math"

	"github.com/pthm-cable/boidmind/systems"
)

// Collector accumulates per-tick mind counters within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	routinesComputed int
	missingTargets   int
	noOutput         int
	composerAborts   int
	untaggedRefs     int
	dodgeTicks       int
	strategySwitches int
	checkpointsHit   int
	fireEvents       int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record adds one tick's mind counters to the current window.
func (c *Collector) Record(s systems.MindStats) {
	c.routinesComputed += s.RoutinesComputed
	c.missingTargets += s.MissingTargets
	c.noOutput += s.NoOutput
	c.composerAborts += s.ComposerAborts
	c.untaggedRefs += s.UntaggedRefs
	c.dodgeTicks += s.Dodges
	c.strategySwitches += s.StrategySwitches
	c.checkpointsHit += s.CheckpointsHit
	c.fireEvents += s.FireEvents
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population holds entity counts sampled at window end.
type Population struct {
	Crafts         int
	Strategies     int
	Routines       int
	ActiveRoutines int
	Weapons        int
}

// Flush produces a WindowStats and resets counters for the next window.
// speeds are the craft speeds at window end, used for the distribution.
func (c *Collector) Flush(currentTick int32, pop Population, speeds []float64) WindowStats {
	ticks := currentTick - c.windowStartTick
	var routinesPerTick float64
	if ticks > 0 {
		routinesPerTick = float64(c.routinesComputed) / float64(ticks)
	}

	speedMean, speedP10, speedP50, speedP90 := ComputeSpeedStats(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Crafts:         pop.Crafts,
		Strategies:     pop.Strategies,
		Routines:       pop.Routines,
		ActiveRoutines: pop.ActiveRoutines,
		Weapons:        pop.Weapons,

		RoutinesComputed: c.routinesComputed,
		RoutinesPerTick:  routinesPerTick,
		MissingTargets:   c.missingTargets,
		NoOutput:         c.noOutput,
		ComposerAborts:   c.composerAborts,
		UntaggedRefs:     c.untaggedRefs,
		DodgeTicks:       c.dodgeTicks,
		StrategySwitches: c.strategySwitches,
		CheckpointsHit:   c.checkpointsHit,
		FireEvents:       c.fireEvents,

		SpeedMean: speedMean,
		SpeedP10:  speedP10,
		SpeedP50:  speedP50,
		SpeedP90:  speedP90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.routinesComputed = 0
	c.missingTargets = 0
	c.noOutput = 0
	c.composerAborts = 0
	c.untaggedRefs = 0
	c.dodgeTicks = 0
	c.strategySwitches = 0
	c.checkpointsHit = 0
	c.fireEvents = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
