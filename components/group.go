package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/steering"
)

// Flock is a group of crafts flying together.
type Flock struct {
	Members []ecs.Entity
}

// Add appends e unless it is already a member.
func (f *Flock) Add(e ecs.Entity) {
	for _, m := range f.Members {
		if m == e {
			return
		}
	}
	f.Members = append(f.Members, e)
}

// Remove drops e from the flock.
func (f *Flock) Remove(e ecs.Entity) bool {
	for i, m := range f.Members {
		if m == e {
			f.Members = append(f.Members[:i], f.Members[i+1:]...)
			return true
		}
	}
	return false
}

// FlockStats are the flock aggregates, recomputed every tick.
type FlockStats struct {
	steering.FlockStats
}

// Formation lays members out in slots around a pivot. The pivot is either a
// body (Pivot) or a fixed point (PivotPosition, PivotRotation).
type Formation struct {
	Pattern       steering.FormationPattern
	Radius        float64
	Spacing       float64
	Pivot         ecs.Entity
	PivotPosition r3.Vec
	PivotRotation quat.Number
	Members       []ecs.Entity
}

// Join adds e as the last member and returns its slot index.
func (f *Formation) Join(e ecs.Entity) int {
	for i, m := range f.Members {
		if m == e {
			return i
		}
	}
	f.Members = append(f.Members, e)
	return len(f.Members) - 1
}

// Leave removes e, shifting later members up one slot.
func (f *Formation) Leave(e ecs.Entity) bool {
	for i, m := range f.Members {
		if m == e {
			f.Members = append(f.Members[:i], f.Members[i+1:]...)
			return true
		}
	}
	return false
}

// Slot is one member's assigned place this tick.
type Slot struct {
	Index    int
	Position r3.Vec
	Velocity r3.Vec
	Facing   r3.Vec
}

// FormationSlots are recomputed every tick from the member list.
type FormationSlots struct {
	BySlot map[ecs.Entity]Slot
}
