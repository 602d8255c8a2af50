// Command physdemo is a small, non-networked wiring example that exercises
// one full tick of the coordination core end-to-end: a single box entity is
// submitted to a simulation.Coordinator, admitted to physics, stepped a few
// times, and its bid/update packets are logged as they're built. It stands
// in for the external collaborators spec.md §1 places out of scope (a real
// physics backend, a real transport, a real workload oracle), the way the
// teacher's GameMatch is itself only ever driven by the Nakama runtime, not
// by a main() of its own.
package main

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/wildspark-labs/physcore/dynamics"
	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/ownerwire"
	"github.com/wildspark-labs/physcore/physengine"
	"github.com/wildspark-labs/physcore/physlog"
	"github.com/wildspark-labs/physcore/shapecache"
	"github.com/wildspark-labs/physcore/shapefactory"
	"github.com/wildspark-labs/physcore/simulation"
)

// demoEntity is the minimal mutable entity.Entity a host needs to drive
// physics for one falling box.
type demoEntity struct {
	id               entity.EntityID
	position         mgl64.Vec3
	rotation         mgl64.Quat
	linearVelocity   mgl64.Vec3
	angularVelocity  mgl64.Vec3
	gravity          mgl64.Vec3
	mass             float64
	shape            entity.ShapeInfo
	simulator        entity.SimulatorID
	priority         uint8
	flags            entity.DirtyFlags
	shouldBePhysical bool
	lastEdited       time.Time
}

func (e *demoEntity) ID() entity.EntityID               { return e.id }
func (e *demoEntity) ParentID() (entity.EntityID, bool) { return 0, false }
func (e *demoEntity) Position() mgl64.Vec3              { return e.position }
func (e *demoEntity) SetPosition(p mgl64.Vec3)          { e.position = p }
func (e *demoEntity) Rotation() mgl64.Quat              { return e.rotation }
func (e *demoEntity) SetRotation(r mgl64.Quat)          { e.rotation = r }
func (e *demoEntity) LinearVelocity() mgl64.Vec3        { return e.linearVelocity }
func (e *demoEntity) SetLinearVelocity(v mgl64.Vec3)    { e.linearVelocity = v }
func (e *demoEntity) AngularVelocity() mgl64.Vec3       { return e.angularVelocity }
func (e *demoEntity) SetAngularVelocity(v mgl64.Vec3)   { e.angularVelocity = v }
func (e *demoEntity) Gravity() mgl64.Vec3               { return e.gravity }
func (e *demoEntity) Acceleration() mgl64.Vec3          { return mgl64.Vec3{} }
func (e *demoEntity) SetAcceleration(mgl64.Vec3)        {}
func (e *demoEntity) Mass() float64                     { return e.mass }
func (e *demoEntity) Damping() float64                  { return 0.01 }
func (e *demoEntity) AngularDamping() float64           { return 0.01 }
func (e *demoEntity) Restitution() float64              { return 0.5 }
func (e *demoEntity) Friction() float64                 { return 0.5 }
func (e *demoEntity) CollisionGroup() entity.CollisionGroup { return entity.GroupDefault }
func (e *demoEntity) CollisionMask() entity.CollisionMask   { return 0 }
func (e *demoEntity) ShapeDescriptor() entity.ShapeInfo     { return e.shape }
func (e *demoEntity) Dynamic() bool                         { return true }
func (e *demoEntity) Locked() bool                          { return false }
func (e *demoEntity) Collisionless() bool                   { return false }
func (e *demoEntity) DynamicsBlob() []byte                  { return nil }
func (e *demoEntity) SetDynamicsBlob([]byte)                {}
func (e *demoEntity) SimulatorID() entity.SimulatorID        { return e.simulator }
func (e *demoEntity) SetSimulatorID(s entity.SimulatorID)    { e.simulator = s }
func (e *demoEntity) SimulationPriority() uint8              { return e.priority }
func (e *demoEntity) SetSimulationPriority(p uint8)          { e.priority = p }
func (e *demoEntity) DirtyFlags() entity.DirtyFlags          { return e.flags }
func (e *demoEntity) ClearDirtyFlags(cleared entity.DirtyFlags) { e.flags &^= cleared }
func (e *demoEntity) IsMovingRelativeToParent() bool         { return false }
func (e *demoEntity) ShouldBePhysical() bool                 { return e.shouldBePhysical }
func (e *demoEntity) IsReadyToComputeShape() bool            { return true }
func (e *demoEntity) HasAvatarAncestor() bool                { return false }
func (e *demoEntity) HasDynamics() bool                      { return false }
func (e *demoEntity) HasGrabActions() bool                   { return false }
func (e *demoEntity) LastEditedAt() time.Time                { return e.lastEdited }

// fixedSpace is a WorkloadSpace that always reports R1: this demo has no
// real spatial index, only the one entity it admits.
type fixedSpace struct{}

func (fixedSpace) Region(entity.EntityID) entity.Region { return entity.R1 }

// demoBody is a minimal physengine.Body: enough bookkeeping to satisfy
// motionstate's easy-change application and World's active/static queries,
// no real collision response.
type demoBody struct {
	handle                             physengine.BodyHandle
	position, linVel, angVel, gravity mgl64.Vec3
	rotation                           mgl64.Quat
	active                             bool

	// entity's position (not its rotation) is synced after each substep, standing
	// in for the real backend's MotionState.SetWorldTransform callback
	// (motionstate/kinematic.go), which this trivial backend has no
	// occasion to wrap.
	entity entity.Entity
}

func (b *demoBody) Position() mgl64.Vec3            { return b.position }
func (b *demoBody) SetPosition(p mgl64.Vec3)        { b.position = p }
func (b *demoBody) Rotation() mgl64.Quat            { return b.rotation }
func (b *demoBody) SetRotation(r mgl64.Quat)        { b.rotation = r }
func (b *demoBody) LinearVelocity() mgl64.Vec3      { return b.linVel }
func (b *demoBody) SetLinearVelocity(v mgl64.Vec3)  { b.linVel = v }
func (b *demoBody) AngularVelocity() mgl64.Vec3     { return b.angVel }
func (b *demoBody) SetAngularVelocity(v mgl64.Vec3) { b.angVel = v }
func (b *demoBody) Gravity() mgl64.Vec3             { return b.gravity }
func (b *demoBody) SetGravity(g mgl64.Vec3)         { b.gravity = g }
func (b *demoBody) SetMaterial(float64, float64)    {}
func (b *demoBody) SetMass(float64)                 {}
func (b *demoBody) Activate()                       { b.active = true }
func (b *demoBody) Handle() physengine.BodyHandle   { return b.handle }
func (b *demoBody) IsActive() bool                  { return b.active }
func (b *demoBody) IsStatic() bool                  { return false }
func (b *demoBody) IsKinematic() bool               { return false }
func (b *demoBody) BoundingRadius() float64         { return 1 }
func (b *demoBody) SetCCD(float64, float64)         {}
func (b *demoBody) SetSleeping(s bool)              { b.active = !s }
func (b *demoBody) UpdateAabb()                     {}

// demoBackend steps every inserted body kinematically under gravity, with no
// collision detection: enough to see position integrate across ticks.
type demoBackend struct {
	bodies map[physengine.BodyHandle]*demoBody
}

func newDemoBackend() *demoBackend {
	return &demoBackend{bodies: make(map[physengine.BodyHandle]*demoBody)}
}

func (d *demoBackend) InsertBody(b physengine.Body) {
	db := b.(*demoBody)
	d.bodies[db.handle] = db
}

func (d *demoBackend) RemoveBody(b physengine.Body) { delete(d.bodies, b.Handle()) }

func (d *demoBackend) StepSubstep(dt float64) physengine.Manifold {
	for _, b := range d.bodies {
		if !b.active {
			continue
		}
		b.linVel = b.linVel.Add(b.gravity.Mul(dt))
		b.position = b.position.Add(b.linVel.Mul(dt))
		if b.entity != nil {
			b.entity.SetPosition(b.position)
		}
	}
	return physengine.Manifold{}
}

func (d *demoBackend) UpdateSingleAabb(physengine.Body) {}
func (d *demoBackend) SynchronizeMotionStates()         {}

// demoBodyFactory hands out sequential body handles the way a real backend
// allocates them at construction time, before InsertBody is ever called
// (World.ApplyTransaction reads Body.Handle() to key its own bookkeeping
// before it tells the backend about the body at all).
type demoBodyFactory struct {
	next physengine.BodyHandle
}

func (f *demoBodyFactory) NewBody(ent entity.Entity, shape *shapecache.Shape, motionType entity.MotionType) (physengine.Body, error) {
	f.next++
	return &demoBody{
		handle:   f.next,
		position: ent.Position(),
		rotation: ent.Rotation(),
		gravity:  ent.Gravity(),
		active:   true,
		entity:   ent,
	}, nil
}

// demoTransport logs every packet ownerwire builds instead of putting it on
// a wire (spec.md §1 non-goal: wire codec details are out of scope).
type demoTransport struct{ log *physlog.Logger }

func (t *demoTransport) SendEntityEdit(edit ownerwire.EntityEdit) {
	t.log.Info("entity edit: id=%d pos=%v owner=%v priority=%d", edit.EntityID, edit.Position, edit.SimulationOwner, edit.SimulationPriority)
}

func (t *demoTransport) SendBid(bid ownerwire.Bid) {
	t.log.Info("bid: id=%d simulator=%v priority=%d expires=%v", bid.EntityID, bid.Simulator, bid.Priority, bid.Expires)
}

func main() {
	log := physlog.New()

	shapes := shapecache.New(shapefactory.Factory{}, nil)
	world := physengine.NewWorld(newDemoBackend(), dynamics.NewRegistry(), nil)

	simulator := entity.SimulatorID(uuid.New())
	sender := &ownerwire.Sender{Transport: &demoTransport{log: log}, Simulator: simulator}

	coord := simulation.NewCoordinator(fixedSpace{}, shapes, world, &demoBodyFactory{}, sender, nil)
	coord.SetLocalSimulatorID(simulator)

	box := &demoEntity{
		id:               1,
		position:         mgl64.Vec3{0, 10, 0},
		rotation:          mgl64.Quat{W: 1},
		gravity:           mgl64.Vec3{0, -9.8, 0},
		mass:              1,
		shape:             entity.ShapeInfo{Type: entity.ShapeBox, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
		shouldBePhysical:  true,
		priority:          entity.PriorityVolunteer,
		lastEdited:        time.Now(),
	}
	coord.SubmitChange(box)

	now := time.Now()
	const dt = 1.0 / 60.0
	for i := 0; i < 5; i++ {
		now = now.Add(time.Duration(dt * float64(time.Second)))
		result := coord.Tick(dt, now)
		fmt.Printf("tick %d: substeps=%d events=%d position=%v\n", i, result.SubstepsRun, len(result.Events), box.position)
	}
}
