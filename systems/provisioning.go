package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/geom"
	"github.com/pthm-cable/boidmind/steering"
)

// ProvisioningSystem creates the routines requested by new strategies.
// Shared requests reuse a craft-owned routine of the same kind when one
// exists, so avoidance state carries across strategy switches.
type ProvisioningSystem struct {
	maps      *Maps
	idx       *Indices
	lifecycle *Lifecycle
	filter    *ecs.Filter1[components.Strategy]
	pending   []ecs.Entity
}

// NewProvisioningSystem creates a new provisioning system.
func NewProvisioningSystem(w *ecs.World, maps *Maps, idx *Indices, lifecycle *Lifecycle) *ProvisioningSystem {
	return &ProvisioningSystem{
		maps:      maps,
		idx:       idx,
		lifecycle: lifecycle,
		filter:    ecs.NewFilter1[components.Strategy](w),
	}
}

// Update runs the provisioning system.
func (s *ProvisioningSystem) Update(w *ecs.World) {
	s.pending = s.pending[:0]
	query := s.filter.Query()
	for query.Next() {
		if query.Get().Phase == components.PhaseProvisioning {
			s.pending = append(s.pending, query.Entity())
		}
	}

	for _, e := range s.pending {
		s.provision(w, e)
	}
}

func (s *ProvisioningSystem) provision(w *ecs.World, e ecs.Entity) {
	st := s.maps.Strategy.Get(e)
	craft := st.Craft
	if !w.Alive(craft) {
		s.lifecycle.TeardownStrategy(w, e)
		return
	}
	requests := st.Requests

	routines := make([]ecs.Entity, len(requests))
	var owned []ecs.Entity
	for i := range requests {
		req := &requests[i]
		if req.Shared {
			if r, ok := s.sharedRoutine(craft, req.Kind); ok {
				routines[i] = r
				continue
			}
		}
		parent := e
		if req.Shared {
			parent = ecs.Entity{}
		}
		r := s.lifecycle.SpawnRoutine(craft, parent, req)
		routines[i] = r
		if !req.Shared {
			owned = append(owned, r)
		}
	}

	if s.maps.Circuit.Has(e) {
		owned = append(owned, s.spawnCheckpoints(e)...)
	}

	st = s.maps.Strategy.Get(e)
	st.Routines = routines
	st.Owned = append(st.Owned, owned...)
	st.Phase = components.PhaseActive
	slog.Debug("strategy provisioned", "craft", craft.ID(), "strategy", st.Kind.String(), "routines", len(routines))
}

// sharedRoutine finds a craft-owned routine of kind.
func (s *ProvisioningSystem) sharedRoutine(craft ecs.Entity, kind steering.RoutineKind) (ecs.Entity, bool) {
	for _, r := range s.idx.Routines.Lookup(craft, kind) {
		if s.maps.Routine.Get(r).Strategy == (ecs.Entity{}) {
			return r, true
		}
	}
	return ecs.Entity{}, false
}

// spawnCheckpoints creates one sensor sphere per circuit checkpoint.
func (s *ProvisioningSystem) spawnCheckpoints(strategy ecs.Entity) []ecs.Entity {
	radius := config.Cfg().Strategy.Circuit.CheckpointRadius
	cps := s.maps.Circuit.Get(strategy).Checkpoints

	sensors := make([]ecs.Entity, len(cps))
	for i, p := range cps {
		e := s.maps.Checkpoint.NewEntity(&components.Checkpoint{Owner: strategy, Index: i})
		s.maps.Transform.Add(e, &components.Transform{Position: p, Rotation: geom.Identity})
		s.maps.Collider.Add(e, &components.Collider{Radius: radius, Sensor: true})
		sensors[i] = e
	}
	s.maps.Circuit.Get(strategy).Sensors = sensors
	return sensors
}
