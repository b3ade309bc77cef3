// Package config provides configuration loading and access for the mind simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Mind      MindConfig      `yaml:"mind"`
	Steering  SteeringConfig  `yaml:"steering"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Engine    EngineConfig    `yaml:"engine"`
	Weapons   WeaponsConfig   `yaml:"weapons"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Parallel  ParallelConfig  `yaml:"parallel"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"` // Spatial grid cell edge for shape casts
	LinearKP     float64 `yaml:"linear_kp"`      // Reference driver: engine input -> thrust gain
	AngularKP    float64 `yaml:"angular_kp"`     // Reference driver: angular error gain
	AngularKD    float64 `yaml:"angular_kd"`     // Reference driver: angular damping
}

// MindConfig holds per-craft mind defaults.
type MindConfig struct {
	AngularInputMultiplier float64 `yaml:"angular_input_multiplier"`
	VelocityGain           float64 `yaml:"velocity_gain"`     // Velocity-mode correction gain
	ComposeMaxDepth        int     `yaml:"compose_max_depth"` // Nesting limit for Compose routines
}

// SteeringConfig holds routine tuning.
type SteeringConfig struct {
	Arrive ArriveConfig `yaml:"arrive"`
	Avoid  AvoidConfig  `yaml:"avoid"`
	Flock  FlockConfig  `yaml:"flock"`
}

// ArriveConfig holds Arrive parameters.
type ArriveConfig struct {
	Tolerance          float64 `yaml:"tolerance"`
	DecelerationRadius float64 `yaml:"deceleration_radius"` // 0 = derive from engine limits
}

// AvoidConfig holds AvoidCollision parameters.
type AvoidConfig struct {
	PredictionSeconds  float64 `yaml:"prediction_seconds"`
	SizeMargin         float64 `yaml:"size_margin"`
	UpheldDodgeSeconds float64 `yaml:"upheld_dodge_seconds"`
	Samples            int     `yaml:"samples"`
}

// FlockConfig holds FlyWithFlock weights.
type FlockConfig struct {
	Cohesion   float64 `yaml:"cohesion"`
	Alignment  float64 `yaml:"alignment"`
	Separation float64 `yaml:"separation"`
}

// StrategyConfig holds strategy tuning.
type StrategyConfig struct {
	Attack    AttackConfig    `yaml:"attack"`
	Circuit   CircuitConfig   `yaml:"circuit"`
	Formation FormationConfig `yaml:"formation"`
}

// AttackConfig holds AttackPursue parameters.
type AttackConfig struct {
	Range            float64 `yaml:"range"`
	PursueConeDeg    float64 `yaml:"pursue_cone_deg"`    // Half angle that switches to weapon-speed intercept
	FireAlignmentDeg float64 `yaml:"fire_alignment_deg"` // Half angle inside which weapons fire
}

// CircuitConfig holds RunCircuit parameters.
type CircuitConfig struct {
	CheckpointRadius float64 `yaml:"checkpoint_radius"`
	ArrivalDistance  float64 `yaml:"arrival_distance"` // Fallback when no trigger fires
	ArriveWeight     float64 `yaml:"arrive_weight"`
}

// FormationConfig holds Form parameters.
type FormationConfig struct {
	ArriveWeight float64 `yaml:"arrive_weight"`
	FaceWeight   float64 `yaml:"face_weight"`
	Tolerance    float64 `yaml:"tolerance"`
}

// EngineConfig holds default engine parameters for crafts that don't specify them.
type EngineConfig struct {
	Mass                 float64    `yaml:"mass"`
	ThrusterForce        [3]float64 `yaml:"thruster_force"`
	LinearVelocityLimit  [3]float64 `yaml:"linear_velocity_limit"`
	AngularVelocityLimit [3]float64 `yaml:"angular_velocity_limit"`
	LinearAccelLimit     [3]float64 `yaml:"linear_accel_limit"`  // 0 = no extra cap
	AngularAccelLimit    [3]float64 `yaml:"angular_accel_limit"` // 0 = no extra cap
	Dimensions           [3]float64 `yaml:"dimensions"`
}

// WeaponsConfig holds weapon defaults.
type WeaponsConfig struct {
	Cooldown        float64 `yaml:"cooldown"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Workers  int `yaml:"workers"`   // 0 = GOMAXPROCS
	MinBatch int `yaml:"min_batch"` // Routine count below which compute stays single-threaded
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PursueCos        float64 // cos(Strategy.Attack.PursueConeDeg)
	FireCos          float64 // cos(Strategy.Attack.FireAlignmentDeg)
	CheckpointSq     float64 // Strategy.Circuit.ArrivalDistance squared
	StatsWindowTicks int     // Telemetry.StatsWindow / Physics.DT
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Set replaces the global configuration. Used by the tuner, which evaluates
// many parameter sets in one process.
func Set(cfg *Config) {
	global = cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Mind.ComposeMaxDepth <= 0 {
		return fmt.Errorf("mind.compose_max_depth must be positive, got %d", c.Mind.ComposeMaxDepth)
	}
	if c.Engine.Mass <= 0 {
		return fmt.Errorf("engine.mass must be positive, got %v", c.Engine.Mass)
	}
	return nil
}

// Refresh recomputes derived values after fields were changed in place.
func (c *Config) Refresh() {
	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PursueCos = math.Cos(c.Strategy.Attack.PursueConeDeg * math.Pi / 180)
	c.Derived.FireCos = math.Cos(c.Strategy.Attack.FireAlignmentDeg * math.Pi / 180)
	d := c.Strategy.Circuit.ArrivalDistance
	c.Derived.CheckpointSq = d * d

	c.Derived.StatsWindowTicks = int(math.Round(c.Telemetry.StatsWindow / c.Physics.DT))
	if c.Derived.StatsWindowTicks < 1 {
		c.Derived.StatsWindowTicks = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
