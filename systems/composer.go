package systems

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/steering"
)

// ComposerSystem merges each mind's routine outputs into its command for the
// tick. Compose routines are evaluated recursively up to a depth limit.
type ComposerSystem struct {
	maps   *Maps
	stats  *MindStats
	filter *ecs.Filter2[components.Craft, components.Mind]

	w     *ecs.World
	craft steering.Craft
	gain  float64
	depth int
	limit int
}

// NewComposerSystem creates a new composer system.
func NewComposerSystem(w *ecs.World, maps *Maps, stats *MindStats) *ComposerSystem {
	return &ComposerSystem{
		maps:   maps,
		stats:  stats,
		filter: ecs.NewFilter2[components.Craft, components.Mind](w),
	}
}

// Update evaluates every mind's composer.
func (s *ComposerSystem) Update(w *ecs.World) {
	cfg := config.Cfg()
	s.w = w
	s.gain = cfg.Mind.VelocityGain
	s.limit = cfg.Mind.ComposeMaxDepth

	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		_, mind := query.Get()

		craft, ok := s.maps.CraftView(w, e)
		if !ok {
			mind.Command = steering.Resolved{}
			continue
		}
		s.craft = craft
		s.depth = 0

		result, err := mind.Composer.Evaluate(s.lookup)
		if err != nil {
			s.stats.ComposerAborts++
			slog.Error("composer aborted",
				"craft", e.ID(),
				"composer", mind.Composer.String(),
				"error", err,
			)
			result = steering.Resolved{}
		}
		mind.Command = steering.Finalize(result, craft.Rotation)
	}
}

func (s *ComposerSystem) lookup(e ecs.Entity) (steering.Resolved, error) {
	if !s.w.Alive(e) || !s.maps.Routine.Has(e) {
		return steering.Resolved{}, fmt.Errorf("%w: entity %d", steering.ErrMissingRoutine, e.ID())
	}
	rt := s.maps.Routine.Get(e)

	if rt.Kind == steering.KindCompose {
		return s.compose(e, rt)
	}
	if !rt.Valid {
		return steering.Resolved{}, fmt.Errorf("%w: routine %d has no output this tick", steering.ErrMissingRoutine, e.ID())
	}

	r, err := steering.Resolve(rt.Output, s.craft, s.gain)
	if errors.Is(err, steering.ErrNoOutput) {
		s.stats.NoOutput++
		slog.Warn("routine produced no output",
			"craft", s.craft.Entity.ID(),
			"routine", e.ID(),
			"kind", rt.Kind.String(),
		)
		return steering.Resolved{}, nil
	}
	return r, err
}

func (s *ComposerSystem) compose(e ecs.Entity, rt *components.Routine) (steering.Resolved, error) {
	if s.depth >= s.limit {
		return steering.Resolved{}, fmt.Errorf("%w: routine %d", steering.ErrComposeDepth, e.ID())
	}
	if !s.maps.Compose.Has(e) {
		return steering.Resolved{}, fmt.Errorf("%w: compose routine %d has no params", steering.ErrMissingRoutine, e.ID())
	}
	nested := s.maps.Compose.Get(e).Composer

	s.depth++
	r, err := nested.Evaluate(s.lookup)
	s.depth--
	if err != nil {
		return steering.Resolved{}, fmt.Errorf("compose routine %d: %w", e.ID(), err)
	}

	rt.Output = r.ToOutput()
	rt.Valid = true
	return r, nil
}
