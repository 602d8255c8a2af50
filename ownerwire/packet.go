// Package ownerwire builds the structured packets the ownership-bid
// protocol sends over the wire (spec.md §4.J): authoritative update edits
// and priority bids. It stops at the struct — serializing an EntityEdit or
// Bid to bytes and actually transmitting it is a host concern behind the
// UpdateSender interface simulation.Coordinator calls; this package only
// assembles the data that goes in.
package ownerwire

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/motionstate"
)

// AACube is a minimal axis-aligned bounding cube: corner plus edge length.
// Computing and tracking "did this change due to parenting" is an
// avatar-mixer/host concern outside this core's domain, so BuildEntityEdit
// takes the current cube (or nil, if unchanged) as an argument rather than
// deriving it.
type AACube struct {
	Corner mgl64.Vec3
	Scale  float64
}

// EntityEdit is the packet-field list of spec.md §4.J: everything an
// authoritative update packet carries, in struct form.
type EntityEdit struct {
	EntityID   entity.EntityID
	LastEdited time.Time

	Position mgl64.Vec3
	Rotation mgl64.Quat

	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	// Acceleration is only meaningful when AccelerationIsGravity is true
	// (spec.md §4.J: "acceleration (emitted as gravity iff
	// acceleration_nearly_gravity_count ≥ 4)").
	Acceleration          mgl64.Vec3
	AccelerationIsGravity bool

	// DynamicsBlob is nil unless the entity's DynamicData dirty bit is set.
	DynamicsBlob []byte

	// QueryAACube is nil unless the caller supplied one (it changed due to
	// parenting).
	QueryAACube *AACube

	SimulationOwner    entity.SimulatorID
	SimulationPriority uint8
}

// accelerationNearlyGravityFloor is acceleration_nearly_gravity_count's
// transmit threshold (spec.md §4.J).
const accelerationNearlyGravityFloor = 4

// BuildEntityEdit assembles the EntityEdit for ms's current state. queryCube
// is nil unless the caller has a fresh query-AACube to report.
func BuildEntityEdit(ms *motionstate.MotionState, queryCube *AACube) EntityEdit {
	e := ms.Entity

	edit := EntityEdit{
		EntityID:              e.ID(),
		LastEdited:            e.LastEditedAt(),
		Position:              e.Position(),
		Rotation:              e.Rotation(),
		LinearVelocity:        e.LinearVelocity(),
		AngularVelocity:       e.AngularVelocity(),
		AccelerationIsGravity: ms.AccelerationNearlyGravityCount >= accelerationNearlyGravityFloor,
		QueryAACube:           queryCube,
		SimulationOwner:       e.SimulatorID(),
		SimulationPriority:    e.SimulationPriority(),
	}
	if edit.AccelerationIsGravity {
		edit.Acceleration = e.Gravity()
	}
	if e.DirtyFlags().Has(entity.DynamicData) {
		edit.DynamicsBlob = e.DynamicsBlob()
	}
	return edit
}

// Bid is the priority-bid packet of spec.md §4.J/§4.G add_ownership_bid: a
// claim on an entity at a requested priority, good until Expires.
type Bid struct {
	EntityID  entity.EntityID
	Simulator entity.SimulatorID
	Priority  uint8
	Expires   time.Time
}

// BuildBid assembles the priority bid for ms, claimed by simulator, expiring
// at localExpiry (the caller's own clock; the caller is responsible for
// running it through LocalToServer before it goes on the wire).
func BuildBid(ms *motionstate.MotionState, simulator entity.SimulatorID, localExpiry time.Time) Bid {
	return Bid{
		EntityID:  ms.Entity.ID(),
		Simulator: simulator,
		Priority:  ms.OutgoingPriority,
		Expires:   localExpiry,
	}
}
