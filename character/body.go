package character

import "github.com/go-gl/mathgl/mgl64"

// Body is the narrow rigid-body surface the controller drives.
type Body interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(mgl64.Quat)
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(mgl64.Vec3)
}

// RayHit is the result of a single downward floor probe.
type RayHit struct {
	Hit      bool
	Distance float64
	Normal   mgl64.Vec3
}

// FloorProbe casts the downward ray the controller uses to detect ground
// (spec.md §4.E: "cast a ray from body origin - halfHeight*up").
type FloorProbe interface {
	CastRay(origin, direction mgl64.Vec3, maxLength float64) RayHit
}

// Contact is one manifold contact point the controller scans for stuck
// detection and step-up synthesis (spec.md §4.E).
type Contact struct {
	Normal         mgl64.Vec3
	Distance       float64 // negative = penetrating
	AppliedImpulse float64
	Lifetime       int
}
