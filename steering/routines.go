package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

// LookTo converts a desired local direction into an angular velocity error:
// forward × dir. Its magnitude grows with the turn error and its direction is
// the turn axis. A direction straight behind turns about the up axis.
func LookTo(local r3.Vec) r3.Vec {
	c := r3.Cross(geom.Forward, local)
	if geom.IsZero(c) && r3.Dot(geom.Forward, local) < 0 {
		return r3.Scale(r3.Norm(local), geom.Up)
	}
	return c
}

// Seek steers straight at target.
func Seek(c Craft, target r3.Vec) Output {
	return LinearOnly(Direction(geom.NormalizeOrZero(r3.Sub(target, c.Position))))
}

// Intercept seeks the point where a target moving at targetVel will be once
// the craft closes the current distance at speed. A non-positive speed uses
// the craft's forward velocity limit.
func Intercept(c Craft, targetPos, targetVel r3.Vec, speed float64) Output {
	if speed <= 0 {
		speed = c.Limits.ForwardSpeed()
	}
	predicted := targetPos
	if speed > 0 {
		dist := r3.Norm(r3.Sub(targetPos, c.Position))
		predicted = r3.Add(targetPos, r3.Scale(dist/speed, targetVel))
	}
	return Seek(c, predicted)
}

// ArriveParams tune Arrive.
type ArriveParams struct {
	// Tolerance is the distance under which the craft counts as arrived.
	Tolerance float64
	// DecelerationRadius is where slowing starts; 0 derives it from the limits.
	DecelerationRadius float64
	// TargetVelocity is added to the approach velocity for moving targets.
	TargetVelocity r3.Vec
}

// DecelerationRadius is the stopping distance from forward top speed at the
// forward acceleration cap.
func DecelerationRadius(l Limits) float64 {
	v := l.ForwardSpeed()
	a := l.ForwardAccel()
	if a <= 0 {
		return 0
	}
	return v * v / (2 * a)
}

// Arrive approaches target and slows down inside the deceleration radius.
// Within the tolerance it returns a zero velocity.
func Arrive(c Craft, target r3.Vec, p ArriveParams) Output {
	to := r3.Sub(target, c.Position)
	dist := r3.Norm(to)
	if dist < p.Tolerance || dist <= 0 {
		return LinearOnly(Velocity(r3.Vec{}))
	}

	maxSpeed := c.Limits.ForwardSpeed()
	radius := p.DecelerationRadius
	if radius <= 0 {
		radius = DecelerationRadius(c.Limits)
	}
	speed := maxSpeed
	if radius > 0 && dist < radius {
		speed = maxSpeed * dist / radius
	}

	desired := r3.Add(r3.Scale(speed/dist, to), p.TargetVelocity)
	return LinearOnly(Velocity(desired))
}

// Face turns the craft toward a world-space direction. Angular only.
func Face(c Craft, worldDir r3.Vec) Output {
	local := geom.InverseRotate(c.Rotation, geom.NormalizeOrZero(worldDir))
	return AngularOnly(Local(LookTo(local)))
}

// FaceTarget turns the craft toward a world-space point.
func FaceTarget(c Craft, target r3.Vec) Output {
	return Face(c, r3.Sub(target, c.Position))
}

// FlockParams weight the three flocking terms.
type FlockParams struct {
	Cohesion   float64
	Alignment  float64
	Separation float64
}

// FlyWithFlock combines cohesion, alignment and separation over the flock,
// excluding the craft itself, and faces the alignment direction.
func FlyWithFlock(c Craft, stats FlockStats, p FlockParams) Output {
	others := stats.Count
	posSum := stats.PositionSum
	velSum := stats.VelocitySum
	for _, m := range stats.Members {
		if m == c.Entity {
			others--
			posSum = r3.Sub(posSum, c.Position)
			velSum = r3.Sub(velSum, c.LinearVelocity)
			break
		}
	}
	if others <= 0 {
		return Both(Direction(r3.Vec{}), Local(r3.Vec{}))
	}

	inv := 1 / float64(others)
	cohesion := geom.NormalizeOrZero(r3.Sub(r3.Scale(inv, posSum), c.Position))
	alignment := geom.NormalizeOrZero(r3.Scale(inv, velSum))

	var separation r3.Vec
	for i, pos := range stats.Positions {
		if i < len(stats.Members) && stats.Members[i] == c.Entity {
			continue
		}
		d := r3.Sub(c.Position, pos)
		d2 := r3.Norm2(d)
		if d2 <= geom.Epsilon {
			continue
		}
		// unit(d) / |d|^2
		separation = r3.Add(separation, r3.Scale(1/(d2*math.Sqrt(d2)), d))
	}

	sum := r3.Add(
		r3.Add(r3.Scale(p.Cohesion, cohesion), r3.Scale(p.Alignment, alignment)),
		r3.Scale(p.Separation, separation),
	)
	facing := LookTo(geom.InverseRotate(c.Rotation, alignment))
	return Both(Direction(geom.NormalizeOrZero(sum)), Local(facing))
}
