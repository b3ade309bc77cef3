package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/steering"
)

// EngineBridgeSystem turns each mind's command into craft-local engine input.
type EngineBridgeSystem struct {
	maps   *Maps
	filter *ecs.Filter2[components.Mind, components.EngineInput]
}

// NewEngineBridgeSystem creates a new engine bridge system.
func NewEngineBridgeSystem(w *ecs.World, maps *Maps) *EngineBridgeSystem {
	return &EngineBridgeSystem{
		maps:   maps,
		filter: ecs.NewFilter2[components.Mind, components.EngineInput](w),
	}
}

// Update writes EngineInput for every mind-driven craft.
func (s *EngineBridgeSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		mind, input := query.Get()

		craft, ok := s.maps.CraftView(w, e)
		if !ok {
			*input = components.EngineInput{}
			continue
		}
		input.Linear, input.Angular = steering.EngineInputFor(mind.Command, craft.Body, mind.AngularInputMultiplier)
		mind.LastAccel = mind.Command.Linear
	}
}
