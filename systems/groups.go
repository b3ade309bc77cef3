package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/geom"
	"github.com/pthm-cable/boidmind/steering"
)

// FlockSystem prunes dead members and recomputes flock aggregates.
type FlockSystem struct {
	filter *ecs.Filter2[components.Flock, components.FlockStats]
	trMap  *ecs.Map[components.Transform]
	velMap *ecs.Map[components.Velocity]
}

// NewFlockSystem creates a new flock system.
func NewFlockSystem(w *ecs.World) *FlockSystem {
	return &FlockSystem{
		filter: ecs.NewFilter2[components.Flock, components.FlockStats](w),
		trMap:  ecs.NewMap[components.Transform](w),
		velMap: ecs.NewMap[components.Velocity](w),
	}
}

// Update runs the flock system.
func (s *FlockSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		flock, stats := query.Get()

		live := flock.Members[:0]
		for _, m := range flock.Members {
			if w.Alive(m) && s.trMap.Has(m) {
				live = append(live, m)
			}
		}
		flock.Members = live

		st := &stats.FlockStats
		st.Members = append(st.Members[:0], live...)
		st.Positions = st.Positions[:0]
		st.PositionSum = r3.Vec{}
		st.VelocitySum = r3.Vec{}
		for _, m := range live {
			pos := s.trMap.Get(m).Position
			st.Positions = append(st.Positions, pos)
			st.PositionSum = r3.Add(st.PositionSum, pos)
			if s.velMap.Has(m) {
				st.VelocitySum = r3.Add(st.VelocitySum, s.velMap.Get(m).Linear)
			}
		}
		st.Count = len(live)
		st.CenterOfMass = r3.Vec{}
		if st.Count > 0 {
			st.CenterOfMass = r3.Scale(1/float64(st.Count), st.PositionSum)
		}
	}
}

// FormationSystem prunes dead members and assigns slots around the pivot.
type FormationSystem struct {
	filter *ecs.Filter2[components.Formation, components.FormationSlots]
	trMap  *ecs.Map[components.Transform]
	velMap *ecs.Map[components.Velocity]
}

// NewFormationSystem creates a new formation system.
func NewFormationSystem(w *ecs.World) *FormationSystem {
	return &FormationSystem{
		filter: ecs.NewFilter2[components.Formation, components.FormationSlots](w),
		trMap:  ecs.NewMap[components.Transform](w),
		velMap: ecs.NewMap[components.Velocity](w),
	}
}

// Update runs the formation system.
func (s *FormationSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		f, slots := query.Get()

		live := f.Members[:0]
		for _, m := range f.Members {
			if w.Alive(m) {
				live = append(live, m)
			}
		}
		f.Members = live

		pivotPos, pivotRot := f.PivotPosition, f.PivotRotation
		if pivotRot == (quat.Number{}) {
			pivotRot = geom.Identity
		}
		var pivotVel r3.Vec
		if f.Pivot != (ecs.Entity{}) && w.Alive(f.Pivot) && s.trMap.Has(f.Pivot) {
			tr := s.trMap.Get(f.Pivot)
			pivotPos, pivotRot = tr.Position, tr.Rotation
			if s.velMap.Has(f.Pivot) {
				pivotVel = s.velMap.Get(f.Pivot).Linear
			}
			// A pivot that dies leaves the formation holding its last pose.
			f.PivotPosition, f.PivotRotation = pivotPos, pivotRot
		}

		if slots.BySlot == nil {
			slots.BySlot = make(map[ecs.Entity]components.Slot, len(live))
		}
		clear(slots.BySlot)
		facing := geom.ForwardOf(pivotRot)
		for i, m := range live {
			slots.BySlot[m] = components.Slot{
				Index:    i,
				Position: steering.SlotPosition(f.Pattern, i, len(live), f.Radius, f.Spacing, pivotPos, pivotRot),
				Velocity: pivotVel,
				Facing:   facing,
			}
		}
	}
}
