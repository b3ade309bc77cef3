package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/steering"
)

// TaggerSystem keeps the ActiveRoutine tag in sync with each craft's
// composer. Only crafts whose composer changed are visited; the pass is
// idempotent.
type TaggerSystem struct {
	maps   *Maps
	idx    *Indices
	stats  *MindStats
	filter *ecs.Filter2[components.Craft, components.Mind]

	dirty []ecs.Entity
	want  map[ecs.Entity]struct{}
	items []ecs.Entity
	buf   []ecs.Entity
}

// NewTaggerSystem creates a new tagger system.
func NewTaggerSystem(w *ecs.World, maps *Maps, idx *Indices, stats *MindStats) *TaggerSystem {
	return &TaggerSystem{
		maps:   maps,
		idx:    idx,
		stats:  stats,
		filter: ecs.NewFilter2[components.Craft, components.Mind](w),
		want:   make(map[ecs.Entity]struct{}),
	}
}

// Update runs the tagger system.
func (s *TaggerSystem) Update(w *ecs.World) {
	s.dirty = s.dirty[:0]
	query := s.filter.Query()
	for query.Next() {
		_, mind := query.Get()
		if mind.ComposerDirty {
			s.dirty = append(s.dirty, query.Entity())
		}
	}

	for _, craft := range s.dirty {
		s.retag(w, craft)
	}
}

// Retag recomputes the tags of one craft regardless of the dirty flag.
func (s *TaggerSystem) Retag(w *ecs.World, craft ecs.Entity) {
	s.retag(w, craft)
}

func (s *TaggerSystem) retag(w *ecs.World, craft ecs.Entity) {
	mind := s.maps.Mind.Get(craft)
	clear(s.want)
	s.collect(w, &mind.Composer, 0, config.Cfg().Mind.ComposeMaxDepth)
	mind.ComposerDirty = false

	s.items = s.idx.Routines.Items(craft, s.items[:0])
	for _, r := range s.items {
		if _, ok := s.want[r]; ok {
			delete(s.want, r)
			if !s.maps.Active.Has(r) {
				s.maps.Active.Add(r, &components.ActiveRoutine{})
			}
			continue
		}
		if s.maps.Active.Has(r) {
			s.maps.Active.Remove(r)
		}
	}

	// Whatever is left was never indexed under this craft. The craft's own
	// routines are indexed and tagged; anything else stays untagged.
	for r := range s.want {
		if !s.ownedBy(w, r, craft) {
			s.stats.UntaggedRefs++
			slog.Warn("composer references routine not owned by craft", "craft", craft.ID(), "routine", r.ID())
			continue
		}
		if !s.idx.Routines.Contains(r) {
			s.idx.Routines.Insert(craft, r, s.maps.Routine.Get(r).Kind)
		}
		if !s.maps.Active.Has(r) {
			s.maps.Active.Add(r, &components.ActiveRoutine{})
		}
	}
}

// ownedBy reports whether r is a live routine of craft that no other craft indexes.
func (s *TaggerSystem) ownedBy(w *ecs.World, r, craft ecs.Entity) bool {
	if !w.Alive(r) || !s.maps.Routine.Has(r) || s.maps.Routine.Get(r).Craft != craft {
		return false
	}
	owner, _, ok := s.idx.Routines.Owner(r)
	return !ok || owner == craft
}

// collect adds every routine reachable from c to the wanted set, expanding
// nested Compose routines.
func (s *TaggerSystem) collect(w *ecs.World, c *steering.Composer, depth, maxDepth int) {
	start := len(s.buf)
	s.buf = c.AllRoutines(s.buf)
	refs := s.buf[start:]
	for _, r := range refs {
		if r == (ecs.Entity{}) {
			continue
		}
		s.want[r] = struct{}{}
		if depth >= maxDepth || !w.Alive(r) || !s.maps.Compose.Has(r) {
			continue
		}
		s.collect(w, &s.maps.Compose.Get(r).Composer, depth+1, maxDepth)
	}
	s.buf = s.buf[:start]
}
