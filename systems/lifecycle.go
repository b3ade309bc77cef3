package systems

import (
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/steering"
)

// Lifecycle despawns strategies and crafts together with everything they own.
// All methods make structural changes and must run between pipeline stages.
type Lifecycle struct {
	maps *Maps
	idx  *Indices
}

// NewLifecycle creates a lifecycle helper.
func NewLifecycle(maps *Maps, idx *Indices) *Lifecycle {
	return &Lifecycle{maps: maps, idx: idx}
}

// TeardownStrategy despawns a strategy, its owned routines and sensors, and
// leaves any formation it joined. Craft-owned routines survive.
func (l *Lifecycle) TeardownStrategy(w *ecs.World, e ecs.Entity) {
	if !w.Alive(e) || !l.maps.Strategy.Has(e) {
		l.idx.Strategies.Remove(e)
		return
	}
	st := l.maps.Strategy.Get(e)
	craft := st.Craft
	owned := slices.Clone(st.Owned)

	if st.Kind == steering.StrategyForm && l.maps.Form.Has(e) {
		f := l.maps.Form.Get(e).Formation
		if w.Alive(f) && l.maps.Formation.Has(f) {
			l.maps.Formation.Get(f).Leave(craft)
		}
	}

	for i := range st.Requests {
		req := &st.Requests[i]
		if req.Kind != steering.KindFlyWithFlock {
			continue
		}
		if f := req.Flock.Flock; w.Alive(f) && l.maps.Flock.Has(f) {
			l.maps.Flock.Get(f).Remove(craft)
		}
	}

	for _, o := range owned {
		l.idx.Routines.Remove(o)
		if w.Alive(o) {
			w.RemoveEntity(o)
		}
	}
	l.idx.Strategies.Remove(e)
	w.RemoveEntity(e)

	if w.Alive(craft) && l.maps.Mind.Has(craft) {
		mind := l.maps.Mind.Get(craft)
		if mind.Strategy == e {
			mind.Strategy = ecs.Entity{}
			mind.FireWeapons = false
			mind.SetComposer(steering.EmptyComposer())
		}
	}
}

// DespawnCraft removes a craft with its strategy, routines and weapons.
func (l *Lifecycle) DespawnCraft(w *ecs.World, craft ecs.Entity) {
	for _, s := range l.idx.Strategies.RemoveCraft(craft) {
		l.TeardownStrategy(w, s)
	}
	for _, r := range l.idx.Routines.RemoveCraft(craft) {
		if w.Alive(r) {
			w.RemoveEntity(r)
		}
	}
	for _, wp := range l.idx.Weapons.RemoveCraft(craft) {
		if w.Alive(wp) {
			w.RemoveEntity(wp)
		}
	}
	if w.Alive(craft) {
		w.RemoveEntity(craft)
	}
	slog.Debug("craft despawned", "craft", craft.ID())
}

// SpawnRoutine creates a routine for craft and indexes it under its kind.
// strategy is the owning strategy, or the zero entity for craft-owned routines.
func (l *Lifecycle) SpawnRoutine(craft, strategy ecs.Entity, req *components.RoutineRequest) ecs.Entity {
	r := l.maps.spawnRoutine(craft, strategy, req)
	l.idx.Routines.Insert(craft, r, req.Kind)
	return r
}

// DespawnRoutine removes a routine from the world and its craft's index.
func (l *Lifecycle) DespawnRoutine(w *ecs.World, r ecs.Entity) {
	l.idx.Routines.Remove(r)
	if w.Alive(r) {
		w.RemoveEntity(r)
	}
}

// MountWeapon creates a weapon entity on craft and indexes it.
func (l *Lifecycle) MountWeapon(craft ecs.Entity, wp components.Weapon) ecs.Entity {
	wp.Craft = craft
	e := l.maps.Weapon.NewEntity(&wp)
	l.idx.Weapons.Insert(craft, e, wp.Class)
	return e
}
