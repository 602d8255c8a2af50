package character

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SetFollowTarget arms a follow-target micro-teleportation toward target
// over followTime seconds, with shapeOffset composed into the angular
// displacement as a swing term (spec.md §4.E "Follow target").
func (c *Controller) SetFollowTarget(target mgl64.Vec3, rotation mgl64.Quat, followTime float64, shapeOffset mgl64.Vec3) {
	t := target
	c.followTransform = &t
	c.followRotation = rotation
	c.followTimeRemaining = followTime
	c.followShapeOffset = shapeOffset
}

// ClearFollowTarget disarms any pending follow-target teleportation.
func (c *Controller) ClearFollowTarget() {
	c.followTransform = nil
	c.followTimeRemaining = 0
}

// ApplyFollowTarget advances the armed follow target by dt, teleporting the
// body a bounded linear/angular displacement toward it (spec.md §4.E):
// linear = clamp((target-pos)*dt/followTime, 0.5*radius); angular = axis-
// angle toward the target orientation at angle/followTime per second, with
// the shape-local offset composed in as a swing term.
func (c *Controller) ApplyFollowTarget(body Body, dt float64) {
	if c.followTransform == nil || c.followTimeRemaining <= 0 {
		return
	}

	toTarget := c.followTransform.Sub(body.Position())
	displacement := toTarget.Mul(dt / c.followTimeRemaining)
	maxLinear := 0.5 * c.Radius
	if displacement.Len() > maxLinear {
		displacement = displacement.Mul(maxLinear / displacement.Len())
	}
	body.SetPosition(body.Position().Add(displacement))

	current := body.Rotation()
	delta := c.followRotation.Mul(current.Inverse())
	axis, angle := quatToAxisAngle(delta)
	angularRate := angle / c.followTimeRemaining
	step := mgl64.QuatRotate(angularRate*dt, axis)

	swing := mgl64.Quat{W: 1}
	if c.followShapeOffset.Len() > 1e-9 {
		swing = mgl64.QuatRotate(c.followShapeOffset.Len(), c.followShapeOffset.Normalize())
	}

	body.SetRotation(step.Mul(swing).Mul(current).Normalize())

	c.followTimeRemaining -= dt
	if c.followTimeRemaining <= 0 {
		c.followTransform = nil
	}
}

func quatToAxisAngle(q mgl64.Quat) (mgl64.Vec3, float64) {
	q = q.Normalize()
	if q.W > 1 {
		q.W = 1
	}
	if q.W < -1 {
		q.W = -1
	}
	angle := 2 * math.Acos(q.W)
	s := math.Sqrt(1 - q.W*q.W)
	if s < 1e-6 {
		return mgl64.Vec3{1, 0, 0}, 0
	}
	return q.V.Mul(1 / s), angle
}
