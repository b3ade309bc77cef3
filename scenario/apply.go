package scenario

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/config"
	"github.com/pthm-cable/boidmind/geom"
	"github.com/pthm-cable/boidmind/steering"
)

// CraftSpawn describes a craft to create.
type CraftSpawn struct {
	Name     string
	Position r3.Vec
	Velocity r3.Vec
	Rotation quat.Number
	Engine   components.EngineConfig
	Player   bool
}

// Target is the simulation a scenario spawns into.
type Target interface {
	SpawnCraft(c CraftSpawn) ecs.Entity
	SpawnObstacle(pos, vel r3.Vec, radius float64) ecs.Entity
	SpawnFlock() ecs.Entity
	SpawnFormation(f components.Formation) ecs.Entity
	MountWeapon(craft ecs.Entity, w components.Weapon) ecs.Entity
	SetDirective(craft ecs.Entity, d components.Directive) bool
}

// Result maps scenario names to spawned entities and remembers the
// directives last issued, so a reload only re-issues what changed.
type Result struct {
	Entities   map[string]ecs.Entity
	directives map[string]DirectiveSpec
	spawnPos   map[string]r3.Vec
}

// Craft returns the entity of a named craft or obstacle.
func (r *Result) Craft(name string) (ecs.Entity, bool) {
	e, ok := r.Entities[name]
	return e, ok
}

// Apply spawns everything in f into t and issues the initial directives.
// seed overrides f.Seed when non-zero.
func Apply(t Target, f *File, seed int64) (*Result, error) {
	if seed == 0 {
		seed = f.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	res := &Result{
		Entities:   make(map[string]ecs.Entity),
		directives: make(map[string]DirectiveSpec),
		spawnPos:   make(map[string]r3.Vec),
	}

	for _, o := range f.Obstacles {
		res.Entities[o.Name] = t.SpawnObstacle(o.Position.R3(), o.Velocity.R3(), o.Radius)
	}

	type pending struct {
		name string
		d    DirectiveSpec
	}
	var orders []pending

	for _, c := range f.Crafts {
		e, err := spawnCraft(t, CraftSpawn{
			Name:     c.Name,
			Position: c.Position.R3(),
			Velocity: c.Velocity.R3(),
			Rotation: facing(c.Facing),
			Player:   c.Player,
		}, c.Engine, c.Weapons)
		if err != nil {
			return nil, fmt.Errorf("craft %q: %w", c.Name, err)
		}
		res.Entities[c.Name] = e
		res.spawnPos[c.Name] = c.Position.R3()
		orders = append(orders, pending{c.Name, c.Directive})
	}

	for _, s := range f.Swarms {
		for i := range s.Count {
			name := swarmName(s.Prefix, i)
			pos := r3.Add(s.Center.R3(), r3.Vec{
				X: (rng.Float64()*2 - 1) * s.Spread,
				Y: (rng.Float64()*2 - 1) * s.Spread,
				Z: (rng.Float64()*2 - 1) * s.Spread,
			})
			e, err := spawnCraft(t, CraftSpawn{Name: name, Position: pos, Rotation: geom.Identity}, s.Engine, s.Weapons)
			if err != nil {
				return nil, fmt.Errorf("swarm craft %q: %w", name, err)
			}
			res.Entities[name] = e
			res.spawnPos[name] = pos
			orders = append(orders, pending{name, s.Directive})
		}
	}

	for _, fl := range f.Flocks {
		res.Entities[fl] = t.SpawnFlock()
	}

	for _, fm := range f.Formations {
		pattern, err := steering.ParsePattern(fm.Pattern)
		if err != nil {
			return nil, fmt.Errorf("formation %q: %w", fm.Name, err)
		}
		formation := components.Formation{
			Pattern:       pattern,
			Radius:        fm.Radius,
			Spacing:       fm.Spacing,
			PivotPosition: fm.Position.R3(),
			PivotRotation: facing(fm.Facing),
		}
		if fm.Pivot != "" {
			formation.Pivot = res.Entities[fm.Pivot]
		}
		res.Entities[fm.Name] = t.SpawnFormation(formation)
	}

	for _, o := range orders {
		if err := res.issue(t, o.name, o.d); err != nil {
			return nil, err
		}
	}

	slog.Info("scenario applied",
		"name", f.Name,
		"seed", seed,
		"crafts", len(orders),
		"obstacles", len(f.Obstacles),
		"flocks", len(f.Flocks),
		"formations", len(f.Formations),
	)
	return res, nil
}

// ApplyDirectives re-issues the directives of f that differ from the last
// ones applied. Crafts unknown to res are skipped; nothing is spawned.
func ApplyDirectives(t Target, res *Result, f *File) (int, error) {
	changed := 0
	reissue := func(name string, d DirectiveSpec) error {
		prev, ok := res.directives[name]
		if !ok {
			slog.Warn("reload names an unknown craft", "craft", name)
			return nil
		}
		if prev.Equal(d) {
			return nil
		}
		if err := res.issue(t, name, d); err != nil {
			return err
		}
		changed++
		return nil
	}

	for _, c := range f.Crafts {
		if err := reissue(c.Name, c.Directive); err != nil {
			return changed, err
		}
	}
	for _, s := range f.Swarms {
		for i := range s.Count {
			if err := reissue(swarmName(s.Prefix, i), s.Directive); err != nil {
				return changed, err
			}
		}
	}
	return changed, nil
}

func (r *Result) issue(t Target, name string, spec DirectiveSpec) error {
	d, err := r.resolve(name, spec)
	if err != nil {
		return fmt.Errorf("craft %q: %w", name, err)
	}
	if !t.SetDirective(r.Entities[name], d) {
		return fmt.Errorf("craft %q: has no mind", name)
	}
	r.directives[name] = spec
	return nil
}

// resolve turns names into entities. Hold without a position holds the spawn point.
func (r *Result) resolve(craft string, spec DirectiveSpec) (components.Directive, error) {
	kind, err := spec.kind()
	if err != nil {
		return components.Directive{}, err
	}
	d := components.Directive{Kind: kind}

	ref := func(name, what string) (ecs.Entity, error) {
		e, ok := r.Entities[name]
		if !ok {
			return ecs.Entity{}, fmt.Errorf("unknown %s %q", what, name)
		}
		return e, nil
	}

	switch kind {
	case components.DirectiveHoldPosition:
		d.Position = r.spawnPos[craft]
		if spec.Position != nil {
			d.Position = spec.Position.R3()
		}
	case components.DirectiveJoinFormation:
		d.Formation, err = ref(spec.Formation, "formation")
	case components.DirectiveFlyWithFlockCAS:
		d.Flock, err = ref(spec.Flock, "flock")
	case components.DirectiveRunCircuit:
		for _, c := range spec.Checkpoints {
			d.Checkpoints = append(d.Checkpoints, c.R3())
		}
	case components.DirectiveAttackPursue:
		d.Quarry, err = ref(spec.Quarry, "quarry")
	}
	return d, err
}

func spawnCraft(t Target, c CraftSpawn, engine *EngineSpec, weapons []WeaponSpec) (ecs.Entity, error) {
	c.Engine = engine.build()
	e := t.SpawnCraft(c)

	cfg := config.Cfg().Weapons
	for _, ws := range weapons {
		class, err := components.ParseWeaponClass(ws.Class)
		if err != nil {
			return e, err
		}
		w := components.Weapon{
			Class:           class,
			Cooldown:        cfg.Cooldown,
			ProjectileSpeed: cfg.ProjectileSpeed,
		}
		if ws.Cooldown > 0 {
			w.Cooldown = ws.Cooldown
		}
		if ws.ProjectileSpeed > 0 {
			w.ProjectileSpeed = ws.ProjectileSpeed
		}
		t.MountWeapon(e, w)
	}
	return e, nil
}

// build overlays the spec on the default engine and derives it.
func (s *EngineSpec) build() components.EngineConfig {
	ec := components.EngineConfigFromDefaults()
	if s == nil {
		return ec
	}
	if s.Mass > 0 {
		ec.Mass = s.Mass
	}
	set := func(dst *r3.Vec, v *Vec3) {
		if v != nil {
			*dst = v.R3()
		}
	}
	set(&ec.ThrusterForce, s.ThrusterForce)
	set(&ec.LinearVelocityLimit, s.LinearVelocityLimit)
	set(&ec.AngularVelocityLimit, s.AngularVelocityLimit)
	set(&ec.LinearAccelLimit, s.LinearAccelLimit)
	set(&ec.AngularAccelLimit, s.AngularAccelLimit)
	set(&ec.Dimensions, s.Dimensions)
	ec.Derive()
	return ec
}

func facing(v *Vec3) quat.Number {
	if v == nil {
		return geom.Identity
	}
	return geom.RotationBetween(geom.Forward, v.R3())
}
