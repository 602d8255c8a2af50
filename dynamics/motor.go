package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// Motor slaves angular velocity toward a target, expressed in the other
// entity's frame when one is present (spec.md §4.C: "angular-only").
type Motor struct {
	baseDynamic
	TargetAngularVelocity mgl64.Vec3
	Timescale             float64
}

func NewMotor(id string, owner entity.EntityID, other *entity.EntityID, tag string, target mgl64.Vec3, timescale float64) *Motor {
	return &Motor{
		baseDynamic:           baseDynamic{id: id, owner: owner, other: other, tag: tag, kind: KindMotor},
		TargetAngularVelocity: target,
		Timescale:             timescale,
	}
}

func (m *Motor) UpdateWorker(dt float64, self Body, other Body) {
	target := m.TargetAngularVelocity
	if other != nil {
		target = other.Rotation().Rotate(m.TargetAngularVelocity)
	}
	blend := dt / maxFloat(m.Timescale, 1e-6)
	if blend > 1 {
		blend = 1
	}
	current := self.AngularVelocity()
	self.SetAngularVelocity(current.Add(target.Sub(current).Mul(blend)))
}

func (m *Motor) Serialize() []byte { return serializeMotor(m) }
