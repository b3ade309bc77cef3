package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/geom"
)

func init() {
	config.MustInit("")
}

// harness wires the mind pipeline around a fresh world, in stage order.
type harness struct {
	w     *ecs.World
	maps  *Maps
	idx   *Indices
	stats MindStats
	life  *Lifecycle
	env   *PhysicsWorld

	flocks       *FlockSystem
	formations   *FormationSystem
	directives   *DirectiveSystem
	provisioning *ProvisioningSystem
	strategy     *StrategySystem
	tagger       *TaggerSystem
	routines     *RoutineSystem
	composer     *ComposerSystem
	engine       *EngineBridgeSystem
	weapons      *WeaponSystem
	physics      *PhysicsSystem

	now float64
}

func newHarness() *harness {
	w := ecs.NewWorld()
	h := &harness{w: w}
	h.maps = NewMaps(w)
	h.idx = NewIndices()
	h.life = NewLifecycle(h.maps, h.idx)
	h.env = NewPhysicsWorld(w, config.Cfg().Physics.GridCellSize)

	h.flocks = NewFlockSystem(w)
	h.formations = NewFormationSystem(w)
	h.directives = NewDirectiveSystem(w, h.maps, h.idx, h.life, &h.stats)
	h.provisioning = NewProvisioningSystem(w, h.maps, h.idx, h.life)
	h.strategy = NewStrategySystem(w, h.maps, &h.stats)
	h.tagger = NewTaggerSystem(w, h.maps, h.idx, &h.stats)
	h.routines = NewRoutineSystem(w, h.maps, &h.stats)
	h.composer = NewComposerSystem(w, h.maps, &h.stats)
	h.engine = NewEngineBridgeSystem(w, h.maps)
	h.weapons = NewWeaponSystem(w, h.maps, h.idx, &h.stats)
	h.physics = NewPhysicsSystem(w, h.maps)
	return h
}

func (h *harness) step() {
	h.flocks.Update(h.w)
	h.formations.Update(h.w)
	h.env.Update(h.w, h.now)
	h.directives.Update(h.w)
	h.provisioning.Update(h.w)
	h.strategy.Update(h.w, h.env)
	h.tagger.Update(h.w)
	h.routines.Update(h.w, h.env)
	h.composer.Update(h.w)
	h.engine.Update(h.w)
	h.weapons.Update(h.w, h.now)
	h.physics.Update(h.w)
	h.now += config.Cfg().Physics.DT
}

func (h *harness) run(ticks int) {
	for i := 0; i < ticks; i++ {
		h.step()
	}
}

// spawnCraft creates a mind-driven craft at pos facing forward.
func (h *harness) spawnCraft(pos r3.Vec, d components.Directive) ecs.Entity {
	ec := components.EngineConfigFromDefaults()
	e := h.maps.Craft.NewEntity(&components.Craft{Name: "test"})
	h.maps.Transform.Add(e, &components.Transform{Position: pos, Rotation: geom.Identity})
	h.maps.Velocity.Add(e, &components.Velocity{})
	h.maps.Collider.Add(e, &components.Collider{Radius: ec.Derived.Radius})
	h.maps.Engine.Add(e, &ec)
	h.maps.EngineInput.Add(e, &components.EngineInput{})
	mind := components.NewMind(d, config.Cfg().Mind.AngularInputMultiplier)
	h.maps.Mind.Add(e, &mind)
	return e
}

// spawnBody creates a passive collider, optionally drifting.
func (h *harness) spawnBody(pos, vel r3.Vec, radius float64) ecs.Entity {
	e := h.maps.Transform.NewEntity(&components.Transform{Position: pos, Rotation: geom.Identity})
	h.maps.Velocity.Add(e, &components.Velocity{Linear: vel})
	h.maps.Collider.Add(e, &components.Collider{Radius: radius})
	return e
}

func (h *harness) mind(craft ecs.Entity) *components.Mind {
	return h.maps.Mind.Get(craft)
}

func (h *harness) strategyOf(craft ecs.Entity) *components.Strategy {
	return h.maps.Strategy.Get(h.mind(craft).Strategy)
}

func (h *harness) position(e ecs.Entity) r3.Vec {
	return h.maps.Transform.Get(e).Position
}
