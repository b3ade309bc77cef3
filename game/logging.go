package game

import (
	"log/slog"

	"github.com/pthm-cable/boidmind/components"
)

// logDirectiveCensus logs how many crafts carry each directive, and how many
// are still waiting for their strategy to be built.
func (g *Game) logDirectiveCensus() {
	var counts [components.DirectiveSlaveToPlayerControl + 1]int
	var pending, idle int

	query := g.mindFilter.Query()
	for query.Next() {
		mind, _ := query.Get()
		if int(mind.Directive.Kind) < len(counts) {
			counts[mind.Directive.Kind]++
		}
		if mind.DirectivePending() {
			pending++
		}
		if !mind.Command.Significant() {
			idle++
		}
	}

	attrs := []any{"tick", g.tick, "pending", pending, "idle", idle}
	for k, n := range counts {
		if n > 0 {
			attrs = append(attrs, components.DirectiveKind(k).String(), n)
		}
	}
	slog.Info("directives", attrs...)
}
