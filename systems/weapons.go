package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
)

// FireEvent records one weapon activation.
type FireEvent struct {
	Craft  ecs.Entity
	Weapon ecs.Entity
	Class  components.WeaponClass
	Time   float64
}

// WeaponSystem activates the ready weapons of every mind that wants to fire.
type WeaponSystem struct {
	maps   *Maps
	idx    *Indices
	stats  *MindStats
	filter *ecs.Filter1[components.Mind]

	firing []ecs.Entity
	events []FireEvent
}

// NewWeaponSystem creates a new weapon system.
func NewWeaponSystem(w *ecs.World, maps *Maps, idx *Indices, stats *MindStats) *WeaponSystem {
	return &WeaponSystem{
		maps:   maps,
		idx:    idx,
		stats:  stats,
		filter: ecs.NewFilter1[components.Mind](w),
	}
}

// Update fires weapons at simulation time now. Events from the previous call
// are discarded.
func (s *WeaponSystem) Update(w *ecs.World, now float64) {
	s.events = s.events[:0]
	s.firing = s.firing[:0]

	query := s.filter.Query()
	for query.Next() {
		if query.Get().FireWeapons {
			s.firing = append(s.firing, query.Entity())
		}
	}

	for _, craft := range s.firing {
		for _, we := range s.idx.Weapons.Items(craft, nil) {
			if !w.Alive(we) || !s.maps.Weapon.Has(we) {
				s.idx.Weapons.Remove(we)
				slog.Warn("stale weapon reference", "craft", craft.ID(), "weapon", we.ID())
				continue
			}
			wp := s.maps.Weapon.Get(we)
			if !wp.CanActivate(now) {
				continue
			}
			wp.Activate(now)
			s.events = append(s.events, FireEvent{Craft: craft, Weapon: we, Class: wp.Class, Time: now})
			s.stats.FireEvents++
		}
	}
}

// Events returns the activations of the last update.
func (s *WeaponSystem) Events() []FireEvent {
	return s.events
}

// AverageProjectileSpeed is the mean projectile speed over the craft's
// weapons, 0 when it carries none.
func AverageProjectileSpeed(maps *Maps, idx *Indices, craft ecs.Entity) float64 {
	var sum float64
	n := 0
	for _, we := range idx.Weapons.Items(craft, nil) {
		if !maps.Weapon.Has(we) {
			continue
		}
		sum += maps.Weapon.Get(we).ProjectileSpeed
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
