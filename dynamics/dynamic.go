package dynamics

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// Body is the minimal rigid-body pose/velocity surface a Dynamic's
// UpdateWorker needs. physengine's MotionState-backed bodies implement it;
// tests use a plain struct.
type Body interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(mgl64.Vec3)
}

// Dynamic is a user-controllable force or constraint acting on one or two
// entities (spec.md §3.1, §4.C). Implementations are selected by Kind, not
// by language-level inheritance (Design Notes §9).
type Dynamic interface {
	ID() string
	Kind() Kind
	OwnerEntity() entity.EntityID
	OtherEntity() (entity.EntityID, bool)
	Tag() string
	Expiry() time.Time

	IsAction() bool
	IsConstraint() bool

	// LifetimeIsOver reports whether Expiry has been reached as of now.
	LifetimeIsOver(now time.Time) bool

	// UpdateWorker applies this dynamic's per-substep effect. other is nil
	// when the dynamic has no second entity or it could not be resolved
	// this tick. Actions overwrite body velocities outright (spec.md §4.C:
	// "these actions defeat existing velocity rather than accumulating").
	// Constraints are no-ops here; they are registered with the backend once
	// and otherwise left alone.
	UpdateWorker(dt float64, self Body, other Body)

	Serialize() []byte
}

// baseDynamic holds the fields common to every Dynamic variant (spec.md
// §3.1: id, owner weak ref, optional second entity, expiry, tag, blob).
type baseDynamic struct {
	id      string
	owner   entity.EntityID
	other   *entity.EntityID
	expiry  time.Time
	tag     string
	kind    Kind
}

func (b *baseDynamic) ID() string               { return b.id }
func (b *baseDynamic) Kind() Kind                { return b.kind }
func (b *baseDynamic) OwnerEntity() entity.EntityID { return b.owner }
func (b *baseDynamic) Tag() string               { return b.tag }
func (b *baseDynamic) Expiry() time.Time         { return b.expiry }
func (b *baseDynamic) IsAction() bool            { return b.kind.IsAction() }
func (b *baseDynamic) IsConstraint() bool        { return b.kind.IsConstraint() }

func (b *baseDynamic) OtherEntity() (entity.EntityID, bool) {
	if b.other == nil {
		return 0, false
	}
	return *b.other, true
}

func (b *baseDynamic) LifetimeIsOver(now time.Time) bool {
	return !b.expiry.IsZero() && !now.Before(b.expiry)
}
