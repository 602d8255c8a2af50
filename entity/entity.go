package entity

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// EntityID is the immutable identity of an Entity.
type EntityID uint64

// MotionType is the backend motion classification derived in
// MotionState.ComputePhysicsMotionType (spec.md §4.D).
type MotionType uint8

const (
	MotionStatic MotionType = iota
	MotionKinematic
	MotionDynamic
)

func (t MotionType) String() string {
	switch t {
	case MotionStatic:
		return "static"
	case MotionKinematic:
		return "kinematic"
	case MotionDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// OwnershipState reflects list membership exclusively (spec.md §3.2 I4):
// LocallyOwned iff present in `owned`, PendingBid iff present in `bids`,
// NotLocallyOwned iff present in neither. simulation.Coordinator sets it,
// except that MotionState.RemoteSimulationOutOfSync sets NotLocallyOwned when
// it voluntarily clears ownership; the Coordinator then drops the entry from
// `owned`.
type OwnershipState uint8

const (
	NotLocallyOwned OwnershipState = iota
	PendingBid
	LocallyOwned
)

// Priority constants from the ownership-bid protocol (spec.md §4.D, §4.G).
const (
	PriorityNone        uint8 = 0
	PriorityVolunteer   uint8 = 2
	PriorityScriptPoke  uint8 = 5
	PriorityScriptGrab  uint8 = 10
	PriorityPersonalSim uint8 = 20
)

// SimulatorID is the session identity of the client currently claiming
// ownership, or the zero UUID when no client claims it.
type SimulatorID uuid.UUID

// NilSimulatorID is the zero-value "no owner" sentinel.
var NilSimulatorID = SimulatorID(uuid.Nil)

func (s SimulatorID) IsNil() bool { return s == NilSimulatorID }

// Entity is the narrow external interface the core uses to read and mutate
// the host's authoritative object. Per spec.md §1/§5, the core never writes
// entity state except through this surface, and never assumes anything about
// how the host synchronizes this object across threads.
type Entity interface {
	ID() EntityID
	ParentID() (EntityID, bool)

	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(mgl64.Quat)
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(mgl64.Vec3)

	Gravity() mgl64.Vec3
	Acceleration() mgl64.Vec3
	SetAcceleration(mgl64.Vec3)

	Mass() float64
	Damping() float64
	AngularDamping() float64
	Restitution() float64
	Friction() float64

	CollisionGroup() CollisionGroup
	CollisionMask() CollisionMask

	ShapeDescriptor() ShapeInfo

	Dynamic() bool
	Locked() bool
	Collisionless() bool

	DynamicsBlob() []byte
	SetDynamicsBlob([]byte)

	SimulatorID() SimulatorID
	SetSimulatorID(SimulatorID)
	SimulationPriority() uint8
	SetSimulationPriority(uint8)

	DirtyFlags() DirtyFlags
	ClearDirtyFlags(DirtyFlags)

	IsMovingRelativeToParent() bool
	ShouldBePhysical() bool
	IsReadyToComputeShape() bool

	HasAvatarAncestor() bool
	HasDynamics() bool
	HasGrabActions() bool

	LastEditedAt() time.Time
}
