// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Craft marks a physics-driven vehicle that can carry a mind.
type Craft struct {
	Name string
}

// Transform holds the world pose of a body.
type Transform struct {
	Position r3.Vec
	Rotation quat.Number
}

// Velocity holds world-frame linear and angular velocity.
type Velocity struct {
	Linear  r3.Vec
	Angular r3.Vec
}

// Collider is a bounding sphere. Sensors report intersections but are
// ignored by shape casts.
type Collider struct {
	Radius float64
	Sensor bool
}

// Obstacle marks a static collider (asteroids, stations).
type Obstacle struct{}

// EngineInput is the craft-local command written by the mind and read by the
// physics driver. Linear is an acceleration, Angular an angular velocity
// change.
type EngineInput struct {
	Linear  r3.Vec
	Angular r3.Vec
}

// PlayerInput is the raw control state of a human-flown craft, as fractions
// of the engine limits in the local frame.
type PlayerInput struct {
	Linear  r3.Vec
	Angular r3.Vec
}

// Checkpoint is a sensor volume on a circuit. Owner is the strategy that
// spawned it and Index its position on the circuit.
type Checkpoint struct {
	Owner ecs.Entity
	Index int
}
