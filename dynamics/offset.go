package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// Offset pulls the body toward a world point at LinearDistance, critically
// damped by LinearTimescale (spec.md §4.C).
type Offset struct {
	baseDynamic

	Point          mgl64.Vec3
	LinearDistance float64
	LinearTimescale float64
}

func NewOffset(id string, owner entity.EntityID, tag string, point mgl64.Vec3, distance, timescale float64) *Offset {
	return &Offset{
		baseDynamic:     baseDynamic{id: id, owner: owner, tag: tag, kind: KindOffset},
		Point:           point,
		LinearDistance:  distance,
		LinearTimescale: timescale,
	}
}

// UpdateWorker blends the parallel velocity component toward the offset
// point using min(dt/timescale, 1.0) (spec.md §4.C).
func (o *Offset) UpdateWorker(dt float64, self Body, _ Body) {
	toPoint := o.Point.Sub(self.Position())
	dist := toPoint.Len()
	if dist < 1e-9 {
		return
	}
	direction := toPoint.Mul(1 / dist)
	errDistance := dist - o.LinearDistance

	blend := dt / maxFloat(o.LinearTimescale, 1e-6)
	if blend > 1.0 {
		blend = 1.0
	}

	current := self.LinearVelocity()
	parallelSpeed := current.Dot(direction)
	targetParallelSpeed := errDistance / maxFloat(o.LinearTimescale, 1e-6)
	newParallelSpeed := parallelSpeed + (targetParallelSpeed-parallelSpeed)*blend

	perpendicular := current.Sub(direction.Mul(parallelSpeed))
	self.SetLinearVelocity(perpendicular.Add(direction.Mul(newParallelSpeed)))
}

func (o *Offset) Serialize() []byte { return serializeOffset(o) }
