package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/steering"
)

// Routine is a steering routine entity. Strategy is zero for routines owned
// by the craft itself, which outlive strategy switches.
type Routine struct {
	Craft    ecs.Entity
	Strategy ecs.Entity
	Kind     steering.RoutineKind

	Output steering.Output
	Valid  bool // Output was computed this tick
}

// ActiveRoutine tags routines referenced by their craft's composer. Only
// tagged routines are computed.
type ActiveRoutine struct{}

// SeekParams steer toward Target, or toward Position when Target is zero.
type SeekParams struct {
	Target   ecs.Entity
	Position r3.Vec
}

// InterceptParams lead Quarry at Speed; zero speed uses the craft's limit.
type InterceptParams struct {
	Quarry ecs.Entity
	Speed  float64
}

// ArriveParams approach Target, or Position when Target is zero.
type ArriveParams struct {
	Target   ecs.Entity
	Position r3.Vec
	Params   steering.ArriveParams
}

// AvoidCollisionParams carry the tuning and the cached dodge.
type AvoidCollisionParams struct {
	Params steering.AvoidParams
	State  steering.AvoidState
}

// FlyWithFlockParams follow the aggregates of Flock.
type FlyWithFlockParams struct {
	Flock  ecs.Entity
	Params steering.FlockParams
}

// FaceParams turn toward Target, or along Direction when Target is zero.
type FaceParams struct {
	Target    ecs.Entity
	Direction r3.Vec
}

// ComposeParams nest a composer as a routine.
type ComposeParams struct {
	Composer steering.Composer
}

// ClosureFunc is a custom routine body. It must be safe to call concurrently
// for different crafts.
type ClosureFunc func(c steering.Craft, env steering.Environment) steering.Output

// ClosureParams wrap a custom routine body.
type ClosureParams struct {
	Fn ClosureFunc
}

// PlayerParams mirror the craft's PlayerInput.
type PlayerParams struct{}
