package safelanding

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// fakeEntity is a minimal entity.Entity for safelanding package tests.
type fakeEntity struct {
	id               entity.EntityID
	shape            entity.ShapeInfo
	collisionless    bool
	shouldBePhysical bool
}

func (e *fakeEntity) ID() entity.EntityID               { return e.id }
func (e *fakeEntity) ParentID() (entity.EntityID, bool) { return 0, false }
func (e *fakeEntity) Position() mgl64.Vec3              { return mgl64.Vec3{} }
func (e *fakeEntity) SetPosition(mgl64.Vec3)            {}
func (e *fakeEntity) Rotation() mgl64.Quat              { return mgl64.Quat{W: 1} }
func (e *fakeEntity) SetRotation(mgl64.Quat)            {}
func (e *fakeEntity) LinearVelocity() mgl64.Vec3        { return mgl64.Vec3{} }
func (e *fakeEntity) SetLinearVelocity(mgl64.Vec3)      {}
func (e *fakeEntity) AngularVelocity() mgl64.Vec3       { return mgl64.Vec3{} }
func (e *fakeEntity) SetAngularVelocity(mgl64.Vec3)     {}
func (e *fakeEntity) Gravity() mgl64.Vec3               { return mgl64.Vec3{} }
func (e *fakeEntity) Acceleration() mgl64.Vec3          { return mgl64.Vec3{} }
func (e *fakeEntity) SetAcceleration(mgl64.Vec3)        {}
func (e *fakeEntity) Mass() float64                     { return 1 }
func (e *fakeEntity) Damping() float64                  { return 0 }
func (e *fakeEntity) AngularDamping() float64           { return 0 }
func (e *fakeEntity) Restitution() float64              { return 0 }
func (e *fakeEntity) Friction() float64                 { return 0 }
func (e *fakeEntity) CollisionGroup() entity.CollisionGroup { return entity.GroupDefault }
func (e *fakeEntity) CollisionMask() entity.CollisionMask   { return 0 }
func (e *fakeEntity) ShapeDescriptor() entity.ShapeInfo     { return e.shape }
func (e *fakeEntity) Dynamic() bool                         { return true }
func (e *fakeEntity) Locked() bool                          { return false }
func (e *fakeEntity) Collisionless() bool                   { return e.collisionless }
func (e *fakeEntity) DynamicsBlob() []byte                  { return nil }
func (e *fakeEntity) SetDynamicsBlob([]byte)                {}
func (e *fakeEntity) SimulatorID() entity.SimulatorID        { return entity.NilSimulatorID }
func (e *fakeEntity) SetSimulatorID(entity.SimulatorID)      {}
func (e *fakeEntity) SimulationPriority() uint8              { return 0 }
func (e *fakeEntity) SetSimulationPriority(uint8)            {}
func (e *fakeEntity) DirtyFlags() entity.DirtyFlags          { return 0 }
func (e *fakeEntity) ClearDirtyFlags(entity.DirtyFlags)      {}
func (e *fakeEntity) IsMovingRelativeToParent() bool         { return false }
func (e *fakeEntity) ShouldBePhysical() bool                 { return e.shouldBePhysical }
func (e *fakeEntity) IsReadyToComputeShape() bool            { return true }
func (e *fakeEntity) HasAvatarAncestor() bool                { return false }
func (e *fakeEntity) HasDynamics() bool                      { return false }
func (e *fakeEntity) HasGrabActions() bool                   { return false }
func (e *fakeEntity) LastEditedAt() time.Time                { return time.Time{} }

// fakeSpace is a WorkloadSpace returning a fixed region.
type fakeSpace struct{ region entity.Region }

func (s *fakeSpace) Region(entity.EntityID) entity.Region { return s.region }

func TestReadyCheckerCollisionlessAlwaysReady(t *testing.T) {
	e := &fakeEntity{collisionless: true}
	r := ReadyChecker{
		Space:       &fakeSpace{region: entity.R1},
		IsPhysical:  func(entity.EntityID) bool { return false },
		ShapeFailed: func(entity.EntityID) bool { return false },
	}
	if !r.IsReady(e) {
		t.Fatalf("expected collisionless entity to be ready")
	}
}

func TestReadyCheckerModelShapeNeedsPhysicsOrFailure(t *testing.T) {
	e := &fakeEntity{shape: entity.ShapeInfo{Type: entity.ShapeConvexHull}, shouldBePhysical: true}
	r := ReadyChecker{
		Space:       &fakeSpace{region: entity.R1},
		IsPhysical:  func(entity.EntityID) bool { return false },
		ShapeFailed: func(entity.EntityID) bool { return false },
	}
	if r.IsReady(e) {
		t.Fatalf("expected not-yet-physical model entity to be not ready")
	}

	r.IsPhysical = func(entity.EntityID) bool { return true }
	if !r.IsReady(e) {
		t.Fatalf("expected entity to be ready once admitted to physics")
	}

	r.IsPhysical = func(entity.EntityID) bool { return false }
	r.ShapeFailed = func(entity.EntityID) bool { return true }
	if !r.IsReady(e) {
		t.Fatalf("expected shape-load-failure to count as ready")
	}
}

func TestReadyCheckerOutOfRegionIsReady(t *testing.T) {
	e := &fakeEntity{shape: entity.ShapeInfo{Type: entity.ShapeConvexHull}, shouldBePhysical: true}
	r := ReadyChecker{
		Space:       &fakeSpace{region: entity.R4},
		IsPhysical:  func(entity.EntityID) bool { return false },
		ShapeFailed: func(entity.EntityID) bool { return false },
	}
	if !r.IsReady(e) {
		t.Fatalf("expected out-of-region entity to be ready (shouldBePhysical false)")
	}
}

// TestScenarioS5SafeLandingRelease reproduces spec scenario S5: 300 tracked
// entities, 297 become physics-ready, 3 have permanently failed shapes, and
// the sequence range is contiguous.
func TestScenarioS5SafeLandingRelease(t *testing.T) {
	tr := New(nil)
	now := time.Unix(0, 0)
	tr.StartTracking(now)

	physical := make(map[entity.EntityID]bool)
	failed := make(map[entity.EntityID]bool)

	for i := entity.EntityID(1); i <= 300; i++ {
		e := &fakeEntity{id: i, shape: entity.ShapeInfo{Type: entity.ShapeConvexHull}, shouldBePhysical: true}
		tr.AddTrackedEntity(e, now.Add(-time.Second))
		if i <= 297 {
			physical[i] = true
		} else {
			failed[i] = true
		}
	}

	// Not-yet-physics-ready at first: real clients take ~2s (well over
	// stabilityCountFloor ticks) to settle, so the stability dampening
	// window must have already closed by the time the tracked set empties.
	notYetPhysical := make(map[entity.EntityID]bool, 297)
	notYetFailed := make(map[entity.EntityID]bool, 3)
	r := ReadyChecker{
		Space:       &fakeSpace{region: entity.R1},
		IsPhysical:  func(id entity.EntityID) bool { return !notYetPhysical[id] && physical[id] },
		ShapeFailed: func(id entity.EntityID) bool { return !notYetFailed[id] && failed[id] },
	}
	for id := range physical {
		notYetPhysical[id] = true
	}
	for id := range failed {
		notYetFailed[id] = true
	}

	tr.FinishSequence(0, 10)
	for n := 0; n < 10; n++ {
		tr.AddToSequence(n)
	}

	var lastErr error
	for i := 0; i < stabilityCountFloor+5; i++ {
		lastErr = tr.UpdateTracking(r, true)
		if i == stabilityCountFloor {
			for id := range notYetPhysical {
				delete(notYetPhysical, id)
			}
			for id := range notYetFailed {
				delete(notYetFailed, id)
			}
		}
	}

	if lastErr != nil {
		t.Fatalf("expected tracking to stop cleanly, got %v", lastErr)
	}
	if tr.IsTracking() {
		t.Fatalf("expected tracking to have stopped")
	}
	if !tr.TrackingIsComplete() {
		t.Fatalf("expected TrackingIsComplete once a sequence range was finished")
	}
	if pct := tr.LoadingProgressPercentage(); pct != 1.0 {
		t.Fatalf("expected loading_progress_percentage == 1.0, got %v", pct)
	}
}

func TestUpdateTrackingReportsSequenceGap(t *testing.T) {
	tr := New(nil)
	now := time.Unix(0, 0)
	tr.StartTracking(now)
	tr.FinishSequence(0, 5)
	tr.AddToSequence(0)
	tr.AddToSequence(1)
	// 2, 3, 4 never observed.

	e := &fakeEntity{id: 1, collisionless: true}
	tr.AddTrackedEntity(e, now.Add(-time.Second))

	r := ReadyChecker{
		Space:       &fakeSpace{region: entity.R1},
		IsPhysical:  func(entity.EntityID) bool { return true },
		ShapeFailed: func(entity.EntityID) bool { return true },
	}

	err := tr.UpdateTracking(r, true)
	if err == nil {
		t.Fatalf("expected a sequence gap error, got nil")
	}
	if !tr.IsTracking() {
		t.Fatalf("expected tracking to still be active while a gap remains")
	}
}
