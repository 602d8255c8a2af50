// Package motionstate implements the per-body adapter between an Entity and
// the physics backend described in spec.md §3.1/§4.D: it owns the shape
// reference and rigid-body handle, translates dirty-flag changes into
// backend mutations, measures acceleration, computes server-divergence, and
// stores the "last-sent"/"last-heard" server-believed state.
package motionstate

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/shapecache"
)

// Kind distinguishes the three MotionState flavors (spec.md §3.1). Only
// GetWorldTransform's KindAvatar branch (angular velocity set from linear
// velocity) differs by kind; its kinematic integration is gated on
// HasAvatarAncestor, not on kind, and everything else in this package is
// shared.
type Kind uint8

const (
	KindEntity Kind = iota
	KindAvatar
	KindDetailed
)

// Activation thresholds from spec.md §4.D handle_easy_changes.
const (
	positionThreshold = 0.005  // m
	alignmentDotFloor  = 0.99990
	linearThreshold    = 0.01 // m/s
	angularThreshold   = 0.03 // rad/s
	gravityThreshold   = 0.1  // m/s^2
)

// Body is the opaque rigid-body handle a MotionState drives. The physengine
// package's backend-facing body implements this; tests use a fake.
type Body interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(mgl64.Quat)
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(mgl64.Vec3)
	Gravity() mgl64.Vec3
	SetGravity(mgl64.Vec3)
	SetMaterial(restitution, friction float64)
	SetMass(float64)
	Activate()
}

// Engine is the narrow callback surface HandleHardAndEasyChanges needs from
// physengine: pulling a body out of the broadphase and reinserting it when a
// HARD flag changed (spec.md §4.D, §6).
type Engine interface {
	Reinsert(*MotionState)
}

// MotionState is the per-body adapter of spec.md §3.1/§4.D.
type MotionState struct {
	kind   Kind
	Entity entity.Entity
	shapes *shapecache.Cache

	shapeRef    shapecache.Handle
	hasShapeRef bool
	body        Body

	Mass   float64
	Offset mgl64.Vec3
	Region entity.Region

	physMotionType entity.MotionType
	lastGravity    mgl64.Vec3
	haveLastGravity bool

	// Server-believed state: what we last told the server (owner) or last
	// heard from the server (non-owner). Valid only once Seeded is true.
	ServerPosition        mgl64.Vec3
	ServerRotation        mgl64.Quat
	ServerVelocity        mgl64.Vec3
	ServerAngularVelocity mgl64.Vec3
	ServerAcceleration    mgl64.Vec3
	ServerActionData      []byte
	LastStep              uint32
	Seeded                bool

	// Measured state (spec.md §3.1).
	LastVelocity                   mgl64.Vec3
	MeasuredAcceleration           mgl64.Vec3
	MeasuredDeltaTime              float64
	LastMeasureStep                uint32
	AccelerationNearlyGravityCount uint8

	// Ownership state (spec.md §3.1, §4.G).
	Ownership          entity.OwnershipState
	OutgoingPriority   uint8
	NextOwnershipBid   time.Time
	LoopsWithoutOwner  uint8
	NumInactiveUpdates uint8
	LastKinematicStep  uint32
}

// New constructs a MotionState bound to ent, using shapes to resolve shape
// descriptors into cache handles.
func New(kind Kind, ent entity.Entity, shapes *shapecache.Cache, body Body) *MotionState {
	return &MotionState{
		kind:   kind,
		Entity: ent,
		shapes: shapes,
		body:   body,
		Mass:   ent.Mass(),
	}
}

func (m *MotionState) Kind() Kind { return m.kind }

// ComputePhysicsMotionType classifies the backend motion type from entity
// state (spec.md §4.D compute_physics_motion_type).
func (m *MotionState) ComputePhysicsMotionType() entity.MotionType {
	return ClassifyMotionType(m.Entity)
}

// ClassifyMotionType is the free-function form of compute_physics_motion_type
// (spec.md §4.D), usable before a MotionState exists — simulation's
// build_objects_to_add needs an entity's motion type to pick a backend body
// shape before it has anywhere to hang a MotionState yet.
func ClassifyMotionType(e entity.Entity) entity.MotionType {
	if e.ShapeDescriptor().Type == entity.ShapeTriangleMesh {
		return entity.MotionStatic
	}
	if e.Locked() && !e.IsMovingRelativeToParent() {
		return entity.MotionStatic
	}
	if !e.Dynamic() && !e.IsMovingRelativeToParent() && !e.HasDynamics() && !e.HasAvatarAncestor() {
		return entity.MotionStatic
	}

	if _, hasParent := e.ParentID(); e.Dynamic() && hasParent {
		return entity.MotionKinematic
	}
	if e.Locked() && e.IsMovingRelativeToParent() {
		return entity.MotionKinematic
	}
	if e.IsMovingRelativeToParent() || e.HasDynamics() || e.HasAvatarAncestor() {
		return entity.MotionKinematic
	}

	return entity.MotionDynamic
}

// SeedShape records the shape cache handle build_objects_to_add already
// resolved for this body, without re-acquiring it through
// HandleHardAndEasyChanges's lazy Shape-swap path (spec.md §4.G
// build_objects_to_add: "create MotionState, assign backend body").
func (m *MotionState) SeedShape(h shapecache.Handle) {
	m.shapeRef = h
	m.hasShapeRef = true
}

// HandleEasyChanges applies every Easy-category dirty bit directly to the
// body, ORing PhysicsActivation into flags when any delta exceeds its
// activation threshold (spec.md §4.D handle_easy_changes).
func (m *MotionState) HandleEasyChanges(flags *entity.DirtyFlags) {
	e := m.Entity
	f := *flags

	if f.Has(entity.Position) {
		newPos := e.Position()
		if m.body.Position().Sub(newPos).Len() > positionThreshold {
			f = f.Set(entity.PhysicsActivation)
		}
		m.body.SetPosition(newPos)
	}
	if f.Has(entity.Rotation) {
		newRot := e.Rotation()
		if math.Abs(m.body.Rotation().Dot(newRot)) < alignmentDotFloor {
			f = f.Set(entity.PhysicsActivation)
		}
		m.body.SetRotation(newRot)
	}
	if f.Has(entity.LinearVelocity) {
		newVel := e.LinearVelocity()
		if m.body.LinearVelocity().Sub(newVel).Len() > linearThreshold {
			f = f.Set(entity.PhysicsActivation)
		}
		m.body.SetLinearVelocity(newVel)
	}
	if f.Has(entity.AngularVelocity) {
		newAngVel := e.AngularVelocity()
		if m.body.AngularVelocity().Sub(newAngVel).Len() > angularThreshold {
			f = f.Set(entity.PhysicsActivation)
		}
		m.body.SetAngularVelocity(newAngVel)
	}
	if f.Has(entity.Material) {
		m.body.SetMaterial(e.Restitution(), e.Friction())
	}
	if f.Has(entity.Mass) {
		m.Mass = e.Mass()
		m.body.SetMass(m.Mass)
	}
	if f.Has(entity.SimulatorId) {
		// SimulatorID lives on the Entity; nothing to push to the backend, but
		// a simulator-id change always resyncs server-believed state.
		m.Seeded = false
	}
	if f.Has(entity.SimulationOwnershipPriority) {
		m.OutgoingPriority = e.SimulationPriority()
	}

	// Gravity has a dirty bit but is not one of the nine Easy flags, so it
	// is not gated on a flag here: it is re-read every call so a
	// script-driven gravity change reactivates the body, per the
	// GRAVITY=0.1 threshold.
	newGravity := e.Gravity()
	if !m.haveLastGravity || m.lastGravity.Sub(newGravity).Len() > gravityThreshold {
		f = f.Set(entity.PhysicsActivation)
		m.body.SetGravity(newGravity)
	}
	m.lastGravity = newGravity
	m.haveLastGravity = true

	if f.Has(entity.PhysicsActivation) {
		m.body.Activate()
	}

	*flags = f
}

// HandleHardAndEasyChanges resolves a Shape-dirty flag (skipping the swap if
// the entity isn't ready to compute its shape yet, or if the new descriptor
// hashes the same as the current one), applies easy changes, and tells
// engine to reinsert this body if any HARD bit survives (spec.md §4.D
// handle_hard_and_easy_changes).
func (m *MotionState) HandleHardAndEasyChanges(flags *entity.DirtyFlags, engine Engine) error {
	f := *flags

	if f.Has(entity.Shape) {
		if !m.Entity.IsReadyToComputeShape() {
			f = f.Clear(entity.Shape)
		} else {
			newInfo := m.Entity.ShapeDescriptor()
			newHash := newInfo.Hash()
			if m.hasShapeRef && m.shapeRef.Hash == newHash {
				f = f.Clear(entity.Shape)
			} else {
				handle, _, err := m.shapes.Get(newInfo)
				if err != nil {
					return err
				}
				if m.hasShapeRef {
					m.shapes.Release(m.shapeRef)
				}
				m.shapeRef = handle
				m.hasShapeRef = true
			}
		}
	}

	m.HandleEasyChanges(&f)

	if f.Any(entity.Hard) {
		engine.Reinsert(m)
	}

	*flags = f
	return nil
}

// ShapeRef returns the current shape cache handle and whether one is set.
func (m *MotionState) ShapeRef() (shapecache.Handle, bool) { return m.shapeRef, m.hasShapeRef }

// MeasureBodyAcceleration estimates instantaneous acceleration from the
// change in damped velocity since the last call, tracking whether it stays
// close to gravity (spec.md §4.D measure_body_acceleration).
func (m *MotionState) MeasureBodyAcceleration(step uint32, dt float64) {
	if dt <= 0 {
		return
	}
	v1 := m.body.LinearVelocity()
	damping := m.Entity.Damping()
	undamped := v1
	if damping > 0 && damping < 1 {
		undamped = v1.Mul(1 / math.Pow(1-damping, dt))
	}
	accel := undamped.Sub(m.LastVelocity).Mul(1 / dt)
	m.MeasuredAcceleration = accel
	m.MeasuredDeltaTime = dt
	m.LastMeasureStep = step
	m.LastVelocity = v1

	gravity := m.Entity.Gravity()
	if accel.Sub(gravity).Len() < 0.1*maxFloat(gravity.Len(), 1e-9) {
		if m.AccelerationNearlyGravityCount < 255 {
			m.AccelerationNearlyGravityCount++
		}
	} else {
		m.AccelerationNearlyGravityCount = 0
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
