package main

import (
	"github.com/pthm-cable/boidmind/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
	apply   func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of steering parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Resolution and engine bridge
			{Name: "velocity_gain", Path: "mind.velocity_gain", Min: 0.5, Max: 6.0, Default: 2.0,
				apply: func(c *config.Config, v float64) { c.Mind.VelocityGain = v }},
			{Name: "angular_input_multiplier", Path: "mind.angular_input_multiplier", Min: 0.5, Max: 8.0, Default: 3.0,
				apply: func(c *config.Config, v float64) { c.Mind.AngularInputMultiplier = v }},
			// Avoidance
			{Name: "avoid_prediction", Path: "steering.avoid.prediction_seconds", Min: 0.5, Max: 5.0, Default: 2.0,
				apply: func(c *config.Config, v float64) { c.Steering.Avoid.PredictionSeconds = v }},
			{Name: "avoid_margin", Path: "steering.avoid.size_margin", Min: 0.0, Max: 20.0, Default: 5.0,
				apply: func(c *config.Config, v float64) { c.Steering.Avoid.SizeMargin = v }},
			{Name: "avoid_upheld", Path: "steering.avoid.upheld_dodge_seconds", Min: 0.1, Max: 3.0, Default: 1.0,
				apply: func(c *config.Config, v float64) { c.Steering.Avoid.UpheldDodgeSeconds = v }},
			// Flocking
			{Name: "flock_separation", Path: "steering.flock.separation", Min: 1.0, Max: 30.0, Default: 10.0,
				apply: func(c *config.Config, v float64) { c.Steering.Flock.Separation = v }},
			// Strategies
			{Name: "pursue_cone_deg", Path: "strategy.attack.pursue_cone_deg", Min: 10, Max: 90, Default: 45,
				apply: func(c *config.Config, v float64) { c.Strategy.Attack.PursueConeDeg = v }},
			{Name: "checkpoint_arrival", Path: "strategy.circuit.arrival_distance", Min: 5, Max: 40, Default: 15,
				apply: func(c *config.Config, v float64) { c.Strategy.Circuit.ArrivalDistance = v }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// FromConfig reads the current values of every parameter out of cfg, so a
// tuned config can be refined from where the last run stopped.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Mind.VelocityGain,
		cfg.Mind.AngularInputMultiplier,
		cfg.Steering.Avoid.PredictionSeconds,
		cfg.Steering.Avoid.SizeMargin,
		cfg.Steering.Avoid.UpheldDodgeSeconds,
		cfg.Steering.Flock.Separation,
		cfg.Strategy.Attack.PursueConeDeg,
		cfg.Strategy.Circuit.ArrivalDistance,
	}
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived fields.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		spec.apply(cfg, clamped[i])
	}
	cfg.Refresh()
}
