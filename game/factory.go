package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/geom"
	"github.com/pthm-cable/boidmind/scenario"
)

var _ scenario.Target = (*Game)(nil)

// SpawnCraft creates a mind-driven craft with no directive. Crafts flagged as
// player-controlled also get a PlayerInput component.
func (g *Game) SpawnCraft(c scenario.CraftSpawn) ecs.Entity {
	ec := c.Engine
	if ec.Derived == nil {
		ec.Derive()
	}
	rot := orIdentity(c.Rotation)

	e := g.maps.Craft.NewEntity(&components.Craft{Name: c.Name})
	g.maps.Transform.Add(e, &components.Transform{Position: c.Position, Rotation: rot})
	g.maps.Velocity.Add(e, &components.Velocity{Linear: c.Velocity})
	g.maps.Collider.Add(e, &components.Collider{Radius: ec.Derived.Radius})
	g.maps.Engine.Add(e, &ec)
	g.maps.EngineInput.Add(e, &components.EngineInput{})
	if c.Player {
		g.maps.PlayerInput.Add(e, &components.PlayerInput{})
	}
	mind := components.NewMind(components.Directive{}, config.Cfg().Mind.AngularInputMultiplier)
	g.maps.Mind.Add(e, &mind)

	slog.Debug("craft spawned", "craft", e.ID(), "name", c.Name, "radius", ec.Derived.Radius)
	return e
}

// SpawnObstacle creates a passive collider, optionally drifting.
func (g *Game) SpawnObstacle(pos, vel r3.Vec, radius float64) ecs.Entity {
	e := g.maps.Transform.NewEntity(&components.Transform{Position: pos, Rotation: geom.Identity})
	g.maps.Velocity.Add(e, &components.Velocity{Linear: vel})
	g.maps.Collider.Add(e, &components.Collider{Radius: radius})
	return e
}

// SpawnFlock creates an empty flock. Crafts join it through their directive.
func (g *Game) SpawnFlock() ecs.Entity {
	e := g.maps.Flock.NewEntity(&components.Flock{})
	g.maps.FlockStats.Add(e, &components.FlockStats{})
	return e
}

// SpawnFormation creates a formation. Members join through their directive.
func (g *Game) SpawnFormation(f components.Formation) ecs.Entity {
	f.PivotRotation = orIdentity(f.PivotRotation)
	f.Members = nil
	e := g.maps.Formation.NewEntity(&f)
	g.maps.FormationSlots.Add(e, &components.FormationSlots{})
	return e
}

// MountWeapon mounts w on craft.
func (g *Game) MountWeapon(craft ecs.Entity, w components.Weapon) ecs.Entity {
	return g.lifecycle.MountWeapon(craft, w)
}

// SetDirective replaces the directive of a craft. The strategy is rebuilt on
// the next tick. It reports false when craft has no mind.
func (g *Game) SetDirective(craft ecs.Entity, d components.Directive) bool {
	if !g.world.Alive(craft) || !g.maps.Mind.Has(craft) {
		return false
	}
	if d.Kind == components.DirectiveSlaveToPlayerControl && !g.maps.PlayerInput.Has(craft) {
		g.maps.PlayerInput.Add(craft, &components.PlayerInput{})
	}
	g.maps.Mind.Get(craft).SetDirective(d)
	slog.Debug("directive set", "craft", craft.ID(), "directive", d.Kind.String())
	return true
}

// SetPlayerInput updates the raw controls of a player-flown craft.
func (g *Game) SetPlayerInput(craft ecs.Entity, in components.PlayerInput) bool {
	if !g.world.Alive(craft) || !g.maps.PlayerInput.Has(craft) {
		return false
	}
	*g.maps.PlayerInput.Get(craft) = in
	return true
}

// orIdentity maps the zero quaternion, which is not a rotation, to Identity.
func orIdentity(q quat.Number) quat.Number {
	if q == (quat.Number{}) {
		return geom.Identity
	}
	return q
}
