package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// Constraint holds the parameters for a persistent backend constraint.
// Pivots/axes/limits are stored verbatim; physengine registers/unregisters
// these with the backend but never alters them per-step (spec.md §4.C).
type Constraint struct {
	baseDynamic

	PivotSelf mgl64.Vec3
	PivotOther mgl64.Vec3
	AxisSelf  mgl64.Vec3
	AxisOther mgl64.Vec3

	// Limits has per-kind meaning: Hinge uses [lower, upper] angle radians;
	// Slider uses [lowerLinear, upperLinear, lowerAngular, upperAngular];
	// ConeTwist uses [swingSpan1, swingSpan2, twistSpan, softness].
	Limits []float64
}

func NewConstraint(kind Kind, id string, owner entity.EntityID, other *entity.EntityID, tag string, pivotSelf, pivotOther, axisSelf, axisOther mgl64.Vec3, limits []float64) *Constraint {
	return &Constraint{
		baseDynamic: baseDynamic{id: id, owner: owner, other: other, tag: tag, kind: kind},
		PivotSelf:   pivotSelf,
		PivotOther:  pivotOther,
		AxisSelf:    axisSelf,
		AxisOther:   axisOther,
		Limits:      limits,
	}
}

// UpdateWorker is a no-op: constraints are registered with the backend once
// and the backend solver enforces them every substep, not this callback.
func (c *Constraint) UpdateWorker(float64, Body, Body) {}

func (c *Constraint) Serialize() []byte { return serializeConstraint(c) }
