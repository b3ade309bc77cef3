// Package scenario loads YAML scenario files and spawns them into a simulation.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/boidmind/components"
	"github.com/pthm-cable/boidmind/steering"
)

// Vec3 is an [x, y, z] triple in scenario files.
type Vec3 [3]float64

// R3 converts to a gonum vector.
func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// File is a parsed scenario.
type File struct {
	Name       string          `yaml:"name"`
	Seed       int64           `yaml:"seed"`
	Obstacles  []ObstacleSpec  `yaml:"obstacles"`
	Crafts     []CraftSpec     `yaml:"crafts"`
	Swarms     []SwarmSpec     `yaml:"swarms"`
	Flocks     []string        `yaml:"flocks"`
	Formations []FormationSpec `yaml:"formations"`
}

// ObstacleSpec is a static or drifting collider.
type ObstacleSpec struct {
	Name     string  `yaml:"name"`
	Position Vec3    `yaml:"position"`
	Velocity Vec3    `yaml:"velocity"`
	Radius   float64 `yaml:"radius"`
}

// CraftSpec is one named craft.
type CraftSpec struct {
	Name      string        `yaml:"name"`
	Position  Vec3          `yaml:"position"`
	Velocity  Vec3          `yaml:"velocity"`
	Facing    *Vec3         `yaml:"facing"` // nil faces -Z
	Player    bool          `yaml:"player"`
	Engine    *EngineSpec   `yaml:"engine"`
	Weapons   []WeaponSpec  `yaml:"weapons"`
	Directive DirectiveSpec `yaml:"directive"`
}

// SwarmSpec spawns Count crafts scattered uniformly in a cube around Center.
type SwarmSpec struct {
	Prefix    string        `yaml:"prefix"`
	Count     int           `yaml:"count"`
	Center    Vec3          `yaml:"center"`
	Spread    float64       `yaml:"spread"`
	Engine    *EngineSpec   `yaml:"engine"`
	Weapons   []WeaponSpec  `yaml:"weapons"`
	Directive DirectiveSpec `yaml:"directive"`
}

// EngineSpec overrides the configured default engine. Zero fields keep the default.
type EngineSpec struct {
	Mass                 float64 `yaml:"mass"`
	ThrusterForce        *Vec3   `yaml:"thruster_force"`
	LinearVelocityLimit  *Vec3   `yaml:"linear_velocity_limit"`
	AngularVelocityLimit *Vec3   `yaml:"angular_velocity_limit"`
	LinearAccelLimit     *Vec3   `yaml:"linear_accel_limit"`
	AngularAccelLimit    *Vec3   `yaml:"angular_accel_limit"`
	Dimensions           *Vec3   `yaml:"dimensions"`
}

// WeaponSpec mounts one weapon. Zero fields use the configured defaults.
type WeaponSpec struct {
	Class           string  `yaml:"class"`
	Cooldown        float64 `yaml:"cooldown"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
}

// FormationSpec is a formation around a named pivot body or a fixed point.
type FormationSpec struct {
	Name     string  `yaml:"name"`
	Pattern  string  `yaml:"pattern"`
	Radius   float64 `yaml:"radius"`
	Spacing  float64 `yaml:"spacing"`
	Pivot    string  `yaml:"pivot"`
	Position Vec3    `yaml:"position"`
	Facing   *Vec3   `yaml:"facing"`
}

// DirectiveSpec names a directive kind and its payload. References are by name.
type DirectiveSpec struct {
	Kind        string `yaml:"kind"`
	Position    *Vec3  `yaml:"position"`
	Formation   string `yaml:"formation"`
	Flock       string `yaml:"flock"`
	Checkpoints []Vec3 `yaml:"checkpoints"`
	Quarry      string `yaml:"quarry"`
}

// Equal reports whether two directive specs describe the same order.
func (d DirectiveSpec) Equal(o DirectiveSpec) bool {
	samePos := (d.Position == nil) == (o.Position == nil) &&
		(d.Position == nil || *d.Position == *o.Position)
	return d.Kind == o.Kind && samePos && d.Formation == o.Formation &&
		d.Flock == o.Flock && d.Quarry == o.Quarry && slices.Equal(d.Checkpoints, o.Checkpoints)
}

// Load reads and validates a scenario file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates scenario YAML. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	var errs []error
	names := make(map[string]string)
	claim := func(kind, name string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s without a name", kind))
			return
		}
		if prev, ok := names[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q: name already used by a %s", kind, name, prev))
			return
		}
		names[name] = kind
	}

	for _, o := range f.Obstacles {
		claim("obstacle", o.Name)
		if o.Radius <= 0 {
			errs = append(errs, fmt.Errorf("obstacle %q: radius must be positive", o.Name))
		}
	}
	for _, c := range f.Crafts {
		claim("craft", c.Name)
	}
	for _, s := range f.Swarms {
		if s.Count <= 0 {
			errs = append(errs, fmt.Errorf("swarm %q: count must be positive", s.Prefix))
		}
		for i := range s.Count {
			claim("craft", swarmName(s.Prefix, i))
		}
	}
	for _, fl := range f.Flocks {
		claim("flock", fl)
	}
	for _, fm := range f.Formations {
		claim("formation", fm.Name)
		if _, err := steering.ParsePattern(fm.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("formation %q: %w", fm.Name, err))
		}
	}

	for _, fm := range f.Formations {
		if fm.Pivot != "" {
			if k := names[fm.Pivot]; k != "craft" && k != "obstacle" {
				errs = append(errs, fmt.Errorf("formation %q: pivot %q is not a body", fm.Name, fm.Pivot))
			}
		}
	}
	check := func(owner string, d DirectiveSpec, weapons []WeaponSpec) {
		if err := d.check(names); err != nil {
			errs = append(errs, fmt.Errorf("craft %q: %w", owner, err))
		}
		for _, w := range weapons {
			if _, err := components.ParseWeaponClass(w.Class); err != nil {
				errs = append(errs, fmt.Errorf("craft %q: %w", owner, err))
			}
		}
	}
	for _, c := range f.Crafts {
		check(c.Name, c.Directive, c.Weapons)
	}
	for _, s := range f.Swarms {
		check(s.Prefix, s.Directive, s.Weapons)
	}
	return errors.Join(errs...)
}

// check validates the kind and that every reference names the right thing.
func (d DirectiveSpec) check(names map[string]string) error {
	kind, err := d.kind()
	if err != nil {
		return err
	}
	switch kind {
	case components.DirectiveJoinFormation:
		if names[d.Formation] != "formation" {
			return fmt.Errorf("unknown formation %q", d.Formation)
		}
	case components.DirectiveFlyWithFlockCAS:
		if names[d.Flock] != "flock" {
			return fmt.Errorf("unknown flock %q", d.Flock)
		}
	case components.DirectiveRunCircuit:
		if len(d.Checkpoints) == 0 {
			return errors.New("run_circuit needs checkpoints")
		}
	case components.DirectiveAttackPursue:
		if k := names[d.Quarry]; k != "craft" && k != "obstacle" {
			return fmt.Errorf("unknown quarry %q", d.Quarry)
		}
	}
	return nil
}

func (d DirectiveSpec) kind() (components.DirectiveKind, error) {
	if d.Kind == "" {
		return components.DirectiveNone, nil
	}
	return components.ParseDirectiveKind(d.Kind)
}

func swarmName(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}
