package motionstate

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// fakeEntity is a minimal entity.Entity for package tests.
type fakeEntity struct {
	id       entity.EntityID
	parent   *entity.EntityID
	pos      mgl64.Vec3
	rot      mgl64.Quat
	lin      mgl64.Vec3
	ang      mgl64.Vec3
	gravity  mgl64.Vec3
	accel    mgl64.Vec3
	mass     float64
	damping  float64
	angDamp  float64
	restitution float64
	friction float64
	group    entity.CollisionGroup
	mask     entity.CollisionMask
	shape    entity.ShapeInfo
	dynamic  bool
	locked   bool
	collisionless bool
	blob     []byte
	simID    entity.SimulatorID
	simPrio  uint8
	dirty    entity.DirtyFlags
	movingRelParent bool
	shouldBePhysical bool
	readyToComputeShape bool
	hasAvatarAncestor bool
	hasDynamics bool
	hasGrabActions bool
	lastEdited time.Time
}

func (e *fakeEntity) ID() entity.EntityID { return e.id }
func (e *fakeEntity) ParentID() (entity.EntityID, bool) {
	if e.parent == nil {
		return 0, false
	}
	return *e.parent, true
}
func (e *fakeEntity) Position() mgl64.Vec3             { return e.pos }
func (e *fakeEntity) SetPosition(v mgl64.Vec3)         { e.pos = v }
func (e *fakeEntity) Rotation() mgl64.Quat             { return e.rot }
func (e *fakeEntity) SetRotation(q mgl64.Quat)         { e.rot = q }
func (e *fakeEntity) LinearVelocity() mgl64.Vec3       { return e.lin }
func (e *fakeEntity) SetLinearVelocity(v mgl64.Vec3)   { e.lin = v }
func (e *fakeEntity) AngularVelocity() mgl64.Vec3      { return e.ang }
func (e *fakeEntity) SetAngularVelocity(v mgl64.Vec3)  { e.ang = v }
func (e *fakeEntity) Gravity() mgl64.Vec3              { return e.gravity }
func (e *fakeEntity) Acceleration() mgl64.Vec3         { return e.accel }
func (e *fakeEntity) SetAcceleration(v mgl64.Vec3)     { e.accel = v }
func (e *fakeEntity) Mass() float64                    { return e.mass }
func (e *fakeEntity) Damping() float64                 { return e.damping }
func (e *fakeEntity) AngularDamping() float64          { return e.angDamp }
func (e *fakeEntity) Restitution() float64             { return e.restitution }
func (e *fakeEntity) Friction() float64                { return e.friction }
func (e *fakeEntity) CollisionGroup() entity.CollisionGroup { return e.group }
func (e *fakeEntity) CollisionMask() entity.CollisionMask   { return e.mask }
func (e *fakeEntity) ShapeDescriptor() entity.ShapeInfo { return e.shape }
func (e *fakeEntity) Dynamic() bool                    { return e.dynamic }
func (e *fakeEntity) Locked() bool                     { return e.locked }
func (e *fakeEntity) Collisionless() bool              { return e.collisionless }
func (e *fakeEntity) DynamicsBlob() []byte             { return e.blob }
func (e *fakeEntity) SetDynamicsBlob(b []byte)         { e.blob = b }
func (e *fakeEntity) SimulatorID() entity.SimulatorID       { return e.simID }
func (e *fakeEntity) SetSimulatorID(s entity.SimulatorID)   { e.simID = s }
func (e *fakeEntity) SimulationPriority() uint8        { return e.simPrio }
func (e *fakeEntity) SetSimulationPriority(p uint8)    { e.simPrio = p }
func (e *fakeEntity) DirtyFlags() entity.DirtyFlags    { return e.dirty }
func (e *fakeEntity) ClearDirtyFlags(mask entity.DirtyFlags) { e.dirty = e.dirty.Clear(mask) }
func (e *fakeEntity) IsMovingRelativeToParent() bool   { return e.movingRelParent }
func (e *fakeEntity) ShouldBePhysical() bool           { return e.shouldBePhysical }
func (e *fakeEntity) IsReadyToComputeShape() bool      { return e.readyToComputeShape }
func (e *fakeEntity) HasAvatarAncestor() bool          { return e.hasAvatarAncestor }
func (e *fakeEntity) HasDynamics() bool                { return e.hasDynamics }
func (e *fakeEntity) HasGrabActions() bool             { return e.hasGrabActions }
func (e *fakeEntity) LastEditedAt() time.Time          { return e.lastEdited }

// fakeBody is a minimal Body for package tests.
type fakeBody struct {
	pos      mgl64.Vec3
	rot      mgl64.Quat
	lin      mgl64.Vec3
	ang      mgl64.Vec3
	gravity  mgl64.Vec3
	restitution, friction float64
	mass     float64
	activated bool
}

func (b *fakeBody) Position() mgl64.Vec3            { return b.pos }
func (b *fakeBody) SetPosition(v mgl64.Vec3)        { b.pos = v }
func (b *fakeBody) Rotation() mgl64.Quat            { return b.rot }
func (b *fakeBody) SetRotation(q mgl64.Quat)        { b.rot = q }
func (b *fakeBody) LinearVelocity() mgl64.Vec3      { return b.lin }
func (b *fakeBody) SetLinearVelocity(v mgl64.Vec3)  { b.lin = v }
func (b *fakeBody) AngularVelocity() mgl64.Vec3     { return b.ang }
func (b *fakeBody) SetAngularVelocity(v mgl64.Vec3) { b.ang = v }
func (b *fakeBody) Gravity() mgl64.Vec3             { return b.gravity }
func (b *fakeBody) SetGravity(v mgl64.Vec3)         { b.gravity = v }
func (b *fakeBody) SetMaterial(restitution, friction float64) {
	b.restitution, b.friction = restitution, friction
}
func (b *fakeBody) SetMass(m float64) { b.mass = m }
func (b *fakeBody) Activate()         { b.activated = true }
