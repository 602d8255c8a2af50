// Package physengine implements PhysicsEngine (spec.md §4.F): the world
// that owns backend rigid bodies, steps them in fixed substeps, builds the
// contact map, derives collision events, and infects ownership bids through
// contacts and shared dynamics.
package physengine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/motionstate"
)

// BodyHandle identifies a backend rigid body. The zero value never
// identifies a real body.
type BodyHandle uint64

// Body is the narrow backend rigid-body surface World drives. It satisfies
// motionstate.Body plus the extra bookkeeping (handle, activity, static
// flag, bounding radius) the broad/substep loop needs.
type Body interface {
	motionstate.Body
	Handle() BodyHandle
	IsActive() bool
	IsStatic() bool
	IsKinematic() bool
	BoundingRadius() float64
	SetCCD(motionThreshold, sweptSphereRadius float64)
	SetSleeping(bool)
	UpdateAabb()
}

// trackedBody is everything World keeps per inserted body: the backend
// handle plus the MotionState mediating it and the owning entity id used
// for ownership-infection lookups.
type trackedBody struct {
	body   Body
	ms     *motionstate.MotionState
	entity entity.EntityID
}

// ManifoldContact is one contact point the backend reports for a pair of
// bodies this substep (spec.md §4.F update_contact_map).
type ManifoldContact struct {
	A, B           BodyHandle
	Distance       float64 // negative = penetrating
	Normal         mgl64.Vec3 // points from A to B
	AppliedImpulse float64
	HasSessionUUID bool // true iff this pair's dynamic constraint carries a session uuid
}

// Manifold is the backend's per-substep report: every contact-bearing body
// pair still touching, with at least one side active.
type Manifold struct {
	Contacts []ManifoldContact
}

// Backend is the narrow simulation surface World drives (spec.md §4.F: the
// step-with-substep-callback loop, broad/narrow phase, Aabb refresh). A test
// fake and a real Bullet-equivalent backend both implement it.
type Backend interface {
	InsertBody(b Body)
	RemoveBody(b Body)
	StepSubstep(dt float64) Manifold
	UpdateSingleAabb(b Body)
	SynchronizeMotionStates()
}
