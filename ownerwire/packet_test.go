package ownerwire

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/motionstate"
	"github.com/wildspark-labs/physcore/shapecache"
)

// fakeEntity is a minimal entity.Entity for ownerwire tests.
type fakeEntity struct {
	id         entity.EntityID
	position   mgl64.Vec3
	rotation   mgl64.Quat
	linVel     mgl64.Vec3
	angVel     mgl64.Vec3
	gravity    mgl64.Vec3
	blob       []byte
	flags      entity.DirtyFlags
	simulator  entity.SimulatorID
	priority   uint8
	lastEdited time.Time
}

func (e *fakeEntity) ID() entity.EntityID               { return e.id }
func (e *fakeEntity) ParentID() (entity.EntityID, bool) { return 0, false }
func (e *fakeEntity) Position() mgl64.Vec3              { return e.position }
func (e *fakeEntity) SetPosition(mgl64.Vec3)            {}
func (e *fakeEntity) Rotation() mgl64.Quat              { return e.rotation }
func (e *fakeEntity) SetRotation(mgl64.Quat)            {}
func (e *fakeEntity) LinearVelocity() mgl64.Vec3        { return e.linVel }
func (e *fakeEntity) SetLinearVelocity(mgl64.Vec3)      {}
func (e *fakeEntity) AngularVelocity() mgl64.Vec3       { return e.angVel }
func (e *fakeEntity) SetAngularVelocity(mgl64.Vec3)     {}
func (e *fakeEntity) Gravity() mgl64.Vec3               { return e.gravity }
func (e *fakeEntity) Acceleration() mgl64.Vec3          { return mgl64.Vec3{} }
func (e *fakeEntity) SetAcceleration(mgl64.Vec3)        {}
func (e *fakeEntity) Mass() float64                     { return 1 }
func (e *fakeEntity) Damping() float64                  { return 0 }
func (e *fakeEntity) AngularDamping() float64           { return 0 }
func (e *fakeEntity) Restitution() float64              { return 0 }
func (e *fakeEntity) Friction() float64                 { return 0 }
func (e *fakeEntity) CollisionGroup() entity.CollisionGroup { return entity.GroupDefault }
func (e *fakeEntity) CollisionMask() entity.CollisionMask   { return 0 }
func (e *fakeEntity) ShapeDescriptor() entity.ShapeInfo     { return entity.ShapeInfo{} }
func (e *fakeEntity) Dynamic() bool                         { return true }
func (e *fakeEntity) Locked() bool                          { return false }
func (e *fakeEntity) Collisionless() bool                   { return false }
func (e *fakeEntity) DynamicsBlob() []byte                  { return e.blob }
func (e *fakeEntity) SetDynamicsBlob([]byte)                {}
func (e *fakeEntity) SimulatorID() entity.SimulatorID        { return e.simulator }
func (e *fakeEntity) SetSimulatorID(entity.SimulatorID)      {}
func (e *fakeEntity) SimulationPriority() uint8              { return e.priority }
func (e *fakeEntity) SetSimulationPriority(uint8)            {}
func (e *fakeEntity) DirtyFlags() entity.DirtyFlags          { return e.flags }
func (e *fakeEntity) ClearDirtyFlags(entity.DirtyFlags)      {}
func (e *fakeEntity) IsMovingRelativeToParent() bool         { return false }
func (e *fakeEntity) ShouldBePhysical() bool                 { return true }
func (e *fakeEntity) IsReadyToComputeShape() bool            { return true }
func (e *fakeEntity) HasAvatarAncestor() bool                { return false }
func (e *fakeEntity) HasDynamics() bool                      { return false }
func (e *fakeEntity) HasGrabActions() bool                   { return false }
func (e *fakeEntity) LastEditedAt() time.Time                { return e.lastEdited }

func newMotionState(e entity.Entity) *motionstate.MotionState {
	return motionstate.New(motionstate.KindEntity, e, (*shapecache.Cache)(nil), nil)
}

func TestBuildEntityEditFieldList(t *testing.T) {
	owner := entity.SimulatorID(uuid.New())
	e := &fakeEntity{
		id:         42,
		position:   mgl64.Vec3{1, 2, 3},
		rotation:   mgl64.Quat{W: 1},
		linVel:     mgl64.Vec3{4, 5, 6},
		angVel:     mgl64.Vec3{0, 0, 1},
		gravity:    mgl64.Vec3{0, -9.8, 0},
		blob:       []byte{1, 2, 3},
		flags:      entity.DynamicData,
		simulator:  owner,
		priority:   entity.PriorityScriptGrab,
		lastEdited: time.Unix(1000, 0),
	}
	ms := newMotionState(e)
	ms.AccelerationNearlyGravityCount = accelerationNearlyGravityFloor

	edit := BuildEntityEdit(ms, nil)

	if edit.EntityID != 42 {
		t.Fatalf("entity id not carried through")
	}
	if !edit.LastEdited.Equal(e.lastEdited) {
		t.Fatalf("last-edited timestamp not carried through")
	}
	if edit.Position != e.position || edit.Rotation != e.rotation {
		t.Fatalf("pose not carried through")
	}
	if edit.LinearVelocity != e.linVel || edit.AngularVelocity != e.angVel {
		t.Fatalf("velocities not carried through")
	}
	if !edit.AccelerationIsGravity || edit.Acceleration != e.gravity {
		t.Fatalf("expected acceleration to be emitted as gravity once count >= floor")
	}
	if string(edit.DynamicsBlob) != string(e.blob) {
		t.Fatalf("expected dynamics blob to be attached when DynamicData is dirty")
	}
	if edit.SimulationOwner != owner || edit.SimulationPriority != e.priority {
		t.Fatalf("simulation owner/priority not carried through")
	}
	if edit.QueryAACube != nil {
		t.Fatalf("expected nil query-AACube when caller supplied none")
	}
}

func TestBuildEntityEditOmitsGravityBelowFloor(t *testing.T) {
	e := &fakeEntity{id: 1, gravity: mgl64.Vec3{0, -9.8, 0}}
	ms := newMotionState(e)
	ms.AccelerationNearlyGravityCount = accelerationNearlyGravityFloor - 1

	edit := BuildEntityEdit(ms, nil)
	if edit.AccelerationIsGravity {
		t.Fatalf("expected acceleration to not be emitted as gravity below the floor")
	}
	if edit.Acceleration != (mgl64.Vec3{}) {
		t.Fatalf("expected zero acceleration when not emitting gravity")
	}
}

func TestBuildEntityEditOmitsDynamicsBlobWhenClean(t *testing.T) {
	e := &fakeEntity{id: 1, blob: []byte{9}}
	ms := newMotionState(e)

	edit := BuildEntityEdit(ms, nil)
	if edit.DynamicsBlob != nil {
		t.Fatalf("expected no dynamics blob when DynamicData is not dirty")
	}
}

func TestBuildEntityEditCarriesSuppliedQueryAACube(t *testing.T) {
	e := &fakeEntity{id: 1}
	ms := newMotionState(e)
	cube := &AACube{Corner: mgl64.Vec3{1, 1, 1}, Scale: 2}

	edit := BuildEntityEdit(ms, cube)
	if edit.QueryAACube != cube {
		t.Fatalf("expected supplied query-AACube to be carried through unchanged")
	}
}

func TestBuildBid(t *testing.T) {
	e := &fakeEntity{id: 7}
	ms := newMotionState(e)
	ms.OutgoingPriority = entity.PriorityVolunteer
	simulator := entity.SimulatorID(uuid.New())
	expiry := time.Unix(100, 0)

	bid := BuildBid(ms, simulator, expiry)
	if bid.EntityID != 7 || bid.Simulator != simulator || bid.Priority != entity.PriorityVolunteer || !bid.Expires.Equal(expiry) {
		t.Fatalf("bid fields not carried through: %+v", bid)
	}
}

func TestSkewRoundTripLawL3(t *testing.T) {
	skew := 3 * time.Second
	local := time.Unix(1000, 0)

	onServer := LocalToServer(local, skew)
	back := ServerToLocal(onServer, skew)
	if !back.Equal(local) {
		t.Fatalf("expected round trip to be identity, got %v want %v", back, local)
	}
}

func TestSkewRoundTripFloorsAtOne(t *testing.T) {
	// A large negative skew drives localToServer below the epoch; the floor
	// clamps it to exactly 1ns rather than letting it go negative.
	skew := -10 * time.Second
	local := time.Unix(5, 0)

	onServer := LocalToServer(local, skew)
	want := time.Unix(0, 0).Add(floorExpiry)
	if !onServer.Equal(want) {
		t.Fatalf("expected floor at 1ns, got %v want %v", onServer, want)
	}

	// Composing back through serverToLocal with the original skew no longer
	// reaches the original local time: the floor broke the round trip, which
	// is exactly the "except when the result would become <=0" clause.
	back := ServerToLocal(onServer, skew)
	if back.Equal(local) {
		t.Fatalf("expected floored round trip to diverge from the original, got exact match")
	}
}
