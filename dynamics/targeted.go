package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

const maxCorrectiveLinearSpeed = 10.0 // m/s, spec.md §4.C
const rotationAlignedDot = 0.99999    // skip angular correction above this dot
const targetVelocityBlend = 0.25

// Targeted implements the behavior Tractor, Hold, and FarGrab share
// (spec.md §4.C: "share a common parent with positional_target,
// rotational_target, linear_timescale, angular_timescale, and an optional
// 'other' entity whose pose defines the target frame").
type Targeted struct {
	baseDynamic

	PositionalTarget mgl64.Vec3
	RotationalTarget mgl64.Quat
	LinearTimescale  float64
	AngularTimescale float64

	seeded            bool
	lastPositionTarget mgl64.Vec3
}

// NewTargeted constructs a Tractor/Hold/FarGrab dynamic. kind must be one of
// KindTractor, KindHold, KindFarGrab.
func NewTargeted(kind Kind, id string, owner entity.EntityID, other *entity.EntityID, tag string, posTarget mgl64.Vec3, rotTarget mgl64.Quat, linTimescale, angTimescale float64) *Targeted {
	return &Targeted{
		baseDynamic:      baseDynamic{id: id, owner: owner, other: other, tag: tag, kind: kind},
		PositionalTarget: posTarget,
		RotationalTarget: rotTarget,
		LinearTimescale:  linTimescale,
		AngularTimescale: angTimescale,
	}
}

// UpdateWorker computes a corrective linear velocity (capped) and a
// corrective angular velocity (axis-angle / angular_timescale, skipped when
// well-aligned) and overwrites the body's velocities outright.
func (t *Targeted) UpdateWorker(dt float64, self Body, other Body) {
	target := t.resolveTarget(other)

	if !t.seeded {
		t.lastPositionTarget = self.Position()
		t.seeded = true
	}

	toTarget := target.Sub(self.Position())
	var corrective mgl64.Vec3
	if t.LinearTimescale > 1e-6 {
		corrective = toTarget.Mul(1.0 / t.LinearTimescale)
	}
	estimate := target.Sub(t.lastPositionTarget).Mul(1.0 / maxFloat(dt, 1e-6))
	corrective = corrective.Mul(1 - targetVelocityBlend).Add(estimate.Mul(targetVelocityBlend))
	if speed := corrective.Len(); speed > maxCorrectiveLinearSpeed {
		corrective = corrective.Mul(maxCorrectiveLinearSpeed / speed)
	}
	self.SetLinearVelocity(corrective)
	t.lastPositionTarget = target

	rotTarget := t.resolveRotationTarget(other)
	current := self.Rotation()
	dot := current.Dot(rotTarget)
	if math.Abs(dot) > rotationAlignedDot {
		self.SetAngularVelocity(mgl64.Vec3{})
		return
	}
	delta := rotTarget.Mul(current.Inverse())
	axis, angle := quatToAxisAngle(delta)
	if t.AngularTimescale > 1e-6 {
		self.SetAngularVelocity(axis.Mul(angle / t.AngularTimescale))
	}
}

func (t *Targeted) resolveTarget(other Body) mgl64.Vec3 {
	if other == nil {
		return t.PositionalTarget
	}
	return other.Position().Add(other.Rotation().Rotate(t.PositionalTarget))
}

func (t *Targeted) resolveRotationTarget(other Body) mgl64.Quat {
	if other == nil {
		return t.RotationalTarget
	}
	return other.Rotation().Mul(t.RotationalTarget)
}

func (t *Targeted) Serialize() []byte { return serializeTargeted(t) }

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// quatToAxisAngle converts a quaternion to an axis-angle pair, returning the
// X axis and a zero angle for an (approximately) identity rotation.
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
