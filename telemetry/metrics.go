package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pthm-cable/boidmind/systems"
)

// Metrics mirrors the per-tick mind counters onto OpenTelemetry instruments.
// Without an installed MeterProvider the instruments are no-ops.
type Metrics struct {
	routines  metric.Int64Counter
	faults    metric.Int64Counter
	switches  metric.Int64Counter
	dodges    metric.Int64Counter
	fires     metric.Int64Counter
	crafts    metric.Int64ObservableGauge
	instances metric.Int64ObservableGauge

	mu  sync.RWMutex
	pop Population
}

// NewMetrics registers the mind instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	m := meter()
	mt := &Metrics{}

	var err error
	mt.routines, err = m.Int64Counter(
		"mind.routines.computed",
		metric.WithDescription("Steering routines evaluated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating routines counter: %w", err)
	}

	mt.faults, err = m.Int64Counter(
		"mind.faults",
		metric.WithDescription("Recoverable mind faults by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating faults counter: %w", err)
	}

	mt.switches, err = m.Int64Counter(
		"mind.strategy.switches",
		metric.WithDescription("Strategy teardowns caused by directive changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating switches counter: %w", err)
	}

	mt.dodges, err = m.Int64Counter(
		"mind.avoid.dodges",
		metric.WithDescription("Ticks in which an avoid routine steered away from an obstacle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dodges counter: %w", err)
	}

	mt.fires, err = m.Int64Counter(
		"mind.weapons.fired",
		metric.WithDescription("Weapon activations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fire counter: %w", err)
	}

	mt.crafts, err = m.Int64ObservableGauge(
		"mind.crafts",
		metric.WithDescription("Crafts carrying a mind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating crafts gauge: %w", err)
	}

	mt.instances, err = m.Int64ObservableGauge(
		"mind.instances",
		metric.WithDescription("Live strategy, routine and weapon entities"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating instances gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			mt.mu.RLock()
			defer mt.mu.RUnlock()
			o.ObserveInt64(mt.crafts, int64(mt.pop.Crafts))
			o.ObserveInt64(mt.instances, int64(mt.pop.Strategies),
				metric.WithAttributes(attribute.String("kind", "strategy")))
			o.ObserveInt64(mt.instances, int64(mt.pop.Routines),
				metric.WithAttributes(attribute.String("kind", "routine")))
			o.ObserveInt64(mt.instances, int64(mt.pop.Weapons),
				metric.WithAttributes(attribute.String("kind", "weapon")))
			return nil
		},
		mt.crafts, mt.instances,
	)
	if err != nil {
		return nil, fmt.Errorf("registering gauge callback: %w", err)
	}

	return mt, nil
}

// Record adds one tick's counters.
func (mt *Metrics) Record(s systems.MindStats) {
	if mt == nil {
		return
	}
	ctx := context.Background()
	add := func(c metric.Int64Counter, n int, attrs ...attribute.KeyValue) {
		if n > 0 {
			c.Add(ctx, int64(n), metric.WithAttributes(attrs...))
		}
	}

	add(mt.routines, s.RoutinesComputed)
	add(mt.faults, s.MissingTargets, attribute.String("kind", "missing_target"))
	add(mt.faults, s.NoOutput, attribute.String("kind", "no_output"))
	add(mt.faults, s.ComposerAborts, attribute.String("kind", "composer_abort"))
	add(mt.faults, s.UntaggedRefs, attribute.String("kind", "untagged_ref"))
	add(mt.switches, s.StrategySwitches)
	add(mt.dodges, s.Dodges)
	add(mt.fires, s.FireEvents)
}

// SetPopulation updates the values reported by the gauges.
func (mt *Metrics) SetPopulation(p Population) {
	if mt == nil {
		return
	}
	mt.mu.Lock()
	mt.pop = p
	mt.mu.Unlock()
}
