package steering

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

// DefaultDodgeSamples is the number of candidate dodge directions.
const DefaultDodgeSamples = 30

var defaultDodgeDirs = geom.SphereSamples(DefaultDodgeSamples)

// AvoidParams tune AvoidCollision.
type AvoidParams struct {
	PredictionSeconds  float64
	SizeMargin         float64
	UpheldDodgeSeconds float64
	Exclude            []ecs.Entity
	Samples            int // 0 uses DefaultDodgeSamples
}

// AvoidState is the cached dodge of an AvoidCollision routine.
type AvoidState struct {
	Dodge   r3.Vec
	DodgeAt float64
	Dodging bool
}

type dodgeCandidate struct {
	dir   r3.Vec
	score float64
}

// AvoidCollision casts the craft's bounding sphere along the desired
// acceleration and the current velocity. On a predicted impact it returns the
// unobstructed sample direction closest to the blocked heading and keeps
// returning it for UpheldDodgeSeconds. Without an impact or a held dodge the
// result is a zero direction.
func AvoidCollision(c Craft, desired r3.Vec, p AvoidParams, st *AvoidState, env Environment) Output {
	now := env.Now()
	horizon := p.PredictionSeconds*r3.Norm(c.LinearVelocity) + p.SizeMargin
	filter := CastFilter{Self: c.Entity, Exclude: p.Exclude}

	var heading r3.Vec
	blocked := false
	if horizon > 0 {
		for _, h := range [2]r3.Vec{geom.NormalizeOrZero(desired), geom.NormalizeOrZero(c.LinearVelocity)} {
			if geom.IsZero(h) {
				continue
			}
			if _, hit := env.ShapeCast(c.Position, c.Radius, h, horizon, filter); hit {
				heading = h
				blocked = true
				break
			}
		}
	}

	if blocked {
		dodge := chooseDodge(c, heading, horizon, p, filter, env)
		st.Dodge = dodge
		st.DodgeAt = now
		st.Dodging = true
		return LinearOnly(Direction(dodge))
	}

	if st.Dodging && now-st.DodgeAt < p.UpheldDodgeSeconds {
		return LinearOnly(Direction(st.Dodge))
	}
	st.Dodging = false
	return LinearOnly(Direction(r3.Vec{}))
}

// chooseDodge walks the sample directions from the one closest to heading
// outward and returns the first clear one. When everything is blocked the
// direction with the farthest hit wins.
func chooseDodge(c Craft, heading r3.Vec, horizon float64, p AvoidParams, filter CastFilter, env Environment) r3.Vec {
	dirs := defaultDodgeDirs
	if p.Samples > 0 && p.Samples != DefaultDodgeSamples {
		dirs = geom.SphereSamples(p.Samples)
	}

	candidates := make([]dodgeCandidate, len(dirs))
	for i, d := range dirs {
		candidates[i] = dodgeCandidate{dir: d, score: r3.Dot(d, heading)}
	}
	slices.SortStableFunc(candidates, func(a, b dodgeCandidate) int {
		return cmp.Compare(b.score, a.score)
	})

	best := r3.Scale(-1, heading)
	bestDist := -1.0
	for _, cand := range candidates {
		hit, blocked := env.ShapeCast(c.Position, c.Radius, cand.dir, horizon, filter)
		if !blocked {
			return cand.dir
		}
		if hit.Distance > bestDist {
			bestDist = hit.Distance
			best = cand.dir
		}
	}
	return best
}
