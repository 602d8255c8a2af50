package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

const travelOrientedMinSpeed = 0.001 // 1 mm/s, spec.md §4.C

// TravelOriented rotates the body so its local Forward axis aligns with its
// current linear velocity, skipped below travelOrientedMinSpeed.
type TravelOriented struct {
	baseDynamic
	Forward mgl64.Vec3
}

func NewTravelOriented(id string, owner entity.EntityID, tag string, forward mgl64.Vec3) *TravelOriented {
	return &TravelOriented{
		baseDynamic: baseDynamic{id: id, owner: owner, tag: tag, kind: KindTravelOriented},
		Forward:     forward,
	}
}

func (to *TravelOriented) UpdateWorker(dt float64, self Body, _ Body) {
	v := self.LinearVelocity()
	speed := v.Len()
	if speed < travelOrientedMinSpeed {
		return
	}
	travelDir := v.Mul(1 / speed)

	currentForward := self.Rotation().Rotate(to.Forward.Normalize())
	dot := clamp(currentForward.Dot(travelDir), -1, 1)
	if dot > rotationAlignedDot {
		return
	}
	axis := currentForward.Cross(travelDir)
	if axis.Len() < 1e-9 {
		return
	}
	axis = axis.Normalize()
	angle := math.Acos(dot)
	if dt <= 0 {
		return
	}
	self.SetAngularVelocity(axis.Mul(angle / dt))
}

func (to *TravelOriented) Serialize() []byte { return serializeTravelOriented(to) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
