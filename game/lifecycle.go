package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
)

// QueueDespawn removes craft with everything it owns at the start of the next
// tick. Obstacles are removed as plain bodies.
func (g *Game) QueueDespawn(e ecs.Entity) {
	g.despawnQueue = append(g.despawnQueue, e)
}

// flushDespawns applies queued despawns. It runs before any stage so that no
// stage sees a half-removed craft.
func (g *Game) flushDespawns() {
	if len(g.despawnQueue) == 0 {
		return
	}
	for _, e := range g.despawnQueue {
		if !g.world.Alive(e) {
			continue
		}
		if g.maps.Mind.Has(e) {
			g.lifecycle.DespawnCraft(g.world, e)
			continue
		}
		g.world.RemoveEntity(e)
		slog.Debug("body despawned", "entity", e.ID())
	}
	g.despawnQueue = g.despawnQueue[:0]
}
