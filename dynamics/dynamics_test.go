package dynamics

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

type fakeBody struct {
	pos  mgl64.Vec3
	rot  mgl64.Quat
	lin  mgl64.Vec3
	ang  mgl64.Vec3
}

func (b *fakeBody) Position() mgl64.Vec3           { return b.pos }
func (b *fakeBody) Rotation() mgl64.Quat           { return b.rot }
func (b *fakeBody) LinearVelocity() mgl64.Vec3     { return b.lin }
func (b *fakeBody) SetLinearVelocity(v mgl64.Vec3) { b.lin = v }
func (b *fakeBody) AngularVelocity() mgl64.Vec3    { return b.ang }
func (b *fakeBody) SetAngularVelocity(v mgl64.Vec3) { b.ang = v }

func TestDecodeKindAliasesSpringToTractor(t *testing.T) {
	k, ok := DecodeKind("spring")
	if !ok || k != KindTractor {
		t.Fatalf("expected spring to alias to KindTractor, got %v ok=%v", k, ok)
	}
	k, ok = DecodeKind("tractor")
	if !ok || k != KindTractor {
		t.Fatalf("expected tractor to be KindTractor, got %v ok=%v", k, ok)
	}
}

func TestTargetedSerializeRoundTrip(t *testing.T) {
	other := entity.EntityID(7)
	orig := NewTargeted(KindTractor, "d1", entity.EntityID(1), &other, "grab-tag",
		mgl64.Vec3{1, 2, 3}, mgl64.Quat{W: 1, V: mgl64.Vec3{0, 0, 0}}, 0.2, 0.3)
	orig.expiry = time.Unix(1000, 0)

	data := orig.Serialize()
	decoded, err := Decode(KindTractor, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(*Targeted)
	if !ok {
		t.Fatalf("expected *Targeted, got %T", decoded)
	}
	if got.ID() != orig.ID() || got.Tag() != orig.Tag() {
		t.Fatalf("id/tag mismatch: %+v vs %+v", got, orig)
	}
	if got.OwnerEntity() != orig.OwnerEntity() {
		t.Fatalf("owner mismatch")
	}
	gotOther, gotHasOther := got.OtherEntity()
	wantOther, wantHasOther := orig.OtherEntity()
	if gotHasOther != wantHasOther || gotOther != wantOther {
		t.Fatalf("other entity mismatch: %v/%v vs %v/%v", gotOther, gotHasOther, wantOther, wantHasOther)
	}
	if got.PositionalTarget != orig.PositionalTarget {
		t.Fatalf("positional target mismatch: %+v vs %+v", got.PositionalTarget, orig.PositionalTarget)
	}
	if got.LinearTimescale != orig.LinearTimescale || got.AngularTimescale != orig.AngularTimescale {
		t.Fatalf("timescale mismatch")
	}
	if !got.Expiry().Equal(orig.Expiry()) {
		t.Fatalf("expiry mismatch: %v vs %v", got.Expiry(), orig.Expiry())
	}
}

func TestConstraintSerializeRoundTrip(t *testing.T) {
	orig := NewConstraint(KindHinge, "hinge1", entity.EntityID(2), nil, "door",
		mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0},
		[]float64{-1.57, 1.57})

	data := orig.Serialize()
	decoded, err := Decode(KindHinge, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(*Constraint)
	if !ok {
		t.Fatalf("expected *Constraint, got %T", decoded)
	}
	if got.PivotSelf != orig.PivotSelf || got.PivotOther != orig.PivotOther {
		t.Fatalf("pivot mismatch")
	}
	if len(got.Limits) != len(orig.Limits) {
		t.Fatalf("limits length mismatch")
	}
	for i := range got.Limits {
		if got.Limits[i] != orig.Limits[i] {
			t.Fatalf("limit %d mismatch: %v vs %v", i, got.Limits[i], orig.Limits[i])
		}
	}
	if _, hasOther := got.OtherEntity(); hasOther {
		t.Fatalf("expected no other entity")
	}
}

func TestConstraintUpdateWorkerIsNoOp(t *testing.T) {
	c := NewConstraint(KindBallSocket, "bs1", entity.EntityID(1), nil, "", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}, nil)
	self := &fakeBody{lin: mgl64.Vec3{1, 2, 3}, ang: mgl64.Vec3{4, 5, 6}}
	c.UpdateWorker(1.0/90.0, self, nil)
	if self.lin != (mgl64.Vec3{1, 2, 3}) || self.ang != (mgl64.Vec3{4, 5, 6}) {
		t.Fatalf("expected UpdateWorker to be a no-op, body mutated: %+v", self)
	}
}

func TestOffsetUpdateWorkerBlendsTowardTargetDistance(t *testing.T) {
	o := NewOffset("o1", entity.EntityID(1), "", mgl64.Vec3{0, 0, 0}, 1.0, 0.1)
	self := &fakeBody{pos: mgl64.Vec3{5, 0, 0}}
	o.UpdateWorker(1.0/90.0, self, nil)
	if self.lin.Len() == 0 {
		t.Fatalf("expected nonzero corrective velocity pulling toward target distance")
	}
}

func TestTravelOrientedSkipsBelowMinSpeed(t *testing.T) {
	to := NewTravelOriented("t1", entity.EntityID(1), "", mgl64.Vec3{0, 0, 1})
	self := &fakeBody{rot: mgl64.Quat{W: 1}, lin: mgl64.Vec3{0, 0, 0.0001}, ang: mgl64.Vec3{9, 9, 9}}
	to.UpdateWorker(1.0/90.0, self, nil)
	if self.ang != (mgl64.Vec3{9, 9, 9}) {
		t.Fatalf("expected no angular velocity change below min speed, got %+v", self.ang)
	}
}

func TestMotorSerializeRoundTrip(t *testing.T) {
	orig := NewMotor("m1", entity.EntityID(3), nil, "spin", mgl64.Vec3{0, 1, 0}, 0.5)
	decoded, err := Decode(KindMotor, orig.Serialize())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := decoded.(*Motor)
	if got.TargetAngularVelocity != orig.TargetAngularVelocity || got.Timescale != orig.Timescale {
		t.Fatalf("motor round trip mismatch: %+v vs %+v", got, orig)
	}
}

func TestRegistryAddRemoveIndexesByBody(t *testing.T) {
	r := NewRegistry()
	other := entity.EntityID(20)
	d := NewTargeted(KindHold, "hold1", entity.EntityID(10), &other, "", mgl64.Vec3{}, mgl64.Quat{W: 1}, 0.1, 0.1)
	r.Add(d)

	if got, ok := r.GetByID("hold1"); !ok || got.ID() != "hold1" {
		t.Fatalf("expected to find hold1, got %v ok=%v", got, ok)
	}
	if ids := r.ByBody(entity.EntityID(10)); len(ids) != 1 || ids[0] != "hold1" {
		t.Fatalf("expected owner index to contain hold1, got %v", ids)
	}
	if ids := r.ByBody(other); len(ids) != 1 || ids[0] != "hold1" {
		t.Fatalf("expected other-entity index to contain hold1, got %v", ids)
	}

	r.Remove("hold1")
	if _, ok := r.GetByID("hold1"); ok {
		t.Fatalf("expected hold1 to be removed")
	}
	if ids := r.ByBody(entity.EntityID(10)); len(ids) != 0 {
		t.Fatalf("expected owner index to be empty after removal, got %v", ids)
	}
}

func TestRegistryForEachVisitsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Add(NewOffset("a", entity.EntityID(1), "", mgl64.Vec3{}, 1, 1))
	r.Add(NewOffset("b", entity.EntityID(2), "", mgl64.Vec3{}, 1, 1))

	seen := map[string]bool{}
	r.ForEach(func(d Dynamic) { seen[d.ID()] = true })
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected ForEach to visit both entries, got %v", seen)
	}
}

func TestRegistryExpireBeforeRemovesExpired(t *testing.T) {
	r := NewRegistry()
	d := NewOffset("expiring", entity.EntityID(1), "", mgl64.Vec3{}, 1, 1)
	d.expiry = time.Unix(100, 0)
	r.Add(d)

	expired := r.ExpireBefore(time.Unix(200, 0))
	if len(expired) != 1 || expired[0].ID() != "expiring" {
		t.Fatalf("expected expiring to be returned as expired, got %v", expired)
	}
	if r.Len() != 0 {
		t.Fatalf("expected registry to be empty after expiry sweep")
	}
}
