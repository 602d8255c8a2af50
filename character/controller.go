package character

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// floorCacheLifetime is how long a floor-probe hit is trusted before the
// controller re-casts (spec.md §4.E: "Cache the hit for 500 ms to smooth
// across gaps").
const floorCacheLifetime = 500 * time.Millisecond

// takeoffTimeout is how long Takeoff waits before forcing InAir with a jump
// impulse (spec.md §4.E transition table).
const takeoffTimeout = 250 * time.Millisecond

// hoverGraceWindow is how long InAir waits, after a held/ascending jump
// input, before switching to Hover (spec.md §4.E transition table).
const hoverGraceWindow = 1100 * time.Millisecond

const (
	groundSupportFloorFrac = 0.1  // "floorDistance < 0.1*radius" Ground re-entry band
	airborneFloorFrac      = 0.8  // "floorDistance > 0.8*radius + halfHeight" InAir threshold
	flyingFastSpeed        = 4.0  // m/s horizontal speed past which Hover won't fall back to Ground/InAir
	minHoverDistanceFrac   = 2.0  // "floorDist < minHover", expressed as a multiple of radius
)

// Input is the per-preSimulation snapshot of avatar intent the controller
// reads. The controller never reads avatar pose directly (spec.md §3.2 I7);
// everything it needs arrives through Input and the Body/FloorProbe/Contact
// surfaces.
type Input struct {
	JumpPressed    bool // edge-triggered: true only on the tick of a new press
	JumpHeld       bool
	TargetVelocity mgl64.Vec3 // desired horizontal (+ optional vertical) velocity
	Up             mgl64.Vec3 // currentUp, normalized
}

// Controller is the per-avatar state machine of spec.md §4.E.
type Controller struct {
	Config Config

	Radius     float64
	HalfHeight float64
	JumpSpeed  float64

	state State

	takeoffStart time.Time
	jumpPressAt  time.Time

	cachedHit   RayHit
	cachedAt    time.Time
	haveCache   bool

	isStuck       bool
	stuckNormal   mgl64.Vec3
	pendingStepUp *Contact

	followTransform      *mgl64.Vec3
	followRotation       mgl64.Quat
	followTimeRemaining  float64
	followShapeOffset    mgl64.Vec3
}

// NewController constructs a Controller in the Ground state, or Seated if
// Config.Seated is set (spec.md §6: "seated: force the Seated state").
func NewController(cfg Config, radius, halfHeight, jumpSpeed float64) *Controller {
	c := &Controller{Config: cfg, Radius: radius, HalfHeight: halfHeight, JumpSpeed: jumpSpeed, state: Ground}
	if cfg.Seated {
		c.state = Seated
	}
	return c
}

func (c *Controller) State() State { return c.state }

// IsStuck reports whether the last PreSimulation scan latched a stuck
// condition (spec.md §7 StuckCharacter).
func (c *Controller) IsStuck() bool { return c.isStuck }

// Gravity returns the gravity vector to apply this step: zero in Hover and
// when collisionless, otherwise the backend default along up (spec.md §4.E).
func (c *Controller) Gravity(up mgl64.Vec3, collisionless bool) mgl64.Vec3 {
	if c.state == Hover || (collisionless && c.Config.CollisionlessAllowed) {
		return mgl64.Vec3{}
	}
	return up.Mul(-c.Config.gravityMagnitude())
}

// probeFloor casts (or reuses a cached) downward ray from the body origin.
func (c *Controller) probeFloor(probe FloorProbe, body Body, up mgl64.Vec3, now time.Time) RayHit {
	if c.haveCache && now.Sub(c.cachedAt) < floorCacheLifetime {
		return c.cachedHit
	}
	origin := body.Position().Sub(up.Mul(c.HalfHeight))
	length := c.Radius + airborneFloorFrac*(c.Radius+c.HalfHeight)
	hit := probe.CastRay(origin, up.Mul(-1), length)
	c.cachedHit = hit
	c.cachedAt = now
	c.haveCache = true
	return hit
}

// PreSimulation evaluates the state machine transition table and applies any
// state-entry side effects (jump impulse on Takeoff->InAir). hasSupport
// reports whether a contact manifold currently supports the body.
func (c *Controller) PreSimulation(probe FloorProbe, body Body, in Input, hasSupport bool, now time.Time) {
	if c.state == Seated {
		return
	}

	up := in.Up
	if up == (mgl64.Vec3{}) {
		up = mgl64.Vec3{0, 1, 0}
	}
	hit := c.probeFloor(probe, body, up, now)
	floorDistance := hit.Distance
	if !hit.Hit {
		floorDistance = c.Radius + airborneFloorFrac*(c.Radius+c.HalfHeight) + 1
	}

	if in.JumpPressed {
		c.jumpPressAt = now
	}

	horizSpeed := horizontalComponent(body.LinearVelocity(), up).Len()
	flyingFast := horizSpeed > flyingFastSpeed
	rising := body.LinearVelocity().Dot(up)

	switch c.state {
	case Ground:
		if !hit.Hit && !hasSupport {
			c.state = Hover
			return
		}
		if in.JumpPressed {
			c.state = Takeoff
			c.takeoffStart = now
			return
		}
		if hit.Hit && !hasSupport && floorDistance > airborneFloorFrac*c.Radius+c.HalfHeight {
			c.state = InAir
			return
		}

	case Takeoff:
		if !hit.Hit && !hasSupport {
			c.state = Hover
			return
		}
		if now.Sub(c.takeoffStart) >= takeoffTimeout {
			c.state = InAir
			vel := body.LinearVelocity()
			body.SetLinearVelocity(vel.Sub(up.Mul(vel.Dot(up))).Add(up.Mul(c.JumpSpeed)))
			return
		}

	case InAir:
		if rising <= c.JumpSpeed/2 && (floorDistance < groundSupportFloorFrac*c.Radius || hasSupport) {
			c.state = Ground
			return
		}
		if in.JumpPressed {
			c.state = Hover
			return
		}
		ascendingTarget := in.TargetVelocity.Dot(up) > 0
		if (in.JumpHeld || ascendingTarget) && now.Sub(c.jumpPressAt) > hoverGraceWindow {
			c.state = Hover
			return
		}

	case Hover:
		if !c.Config.FlyingAllowed {
			c.state = InAir
			return
		}
		// The "near floor, losing hover" and "firmly grounded" bands overlap
		// (minHover > the Ground-reentry band), so the firmer Ground check is
		// evaluated first — true support always wins over "approaching the
		// floor" (spec.md §9 Open Questions: transition-table row order is
		// ambiguous at the overlap; resolved in favor of Ground).
		if (floorDistance < groundSupportFloorFrac*c.Radius || hasSupport) && !flyingFast {
			c.state = Ground
			return
		}
		if floorDistance < minHoverDistanceFrac*c.Radius && !in.JumpHeld && !flyingFast {
			c.state = InAir
			return
		}
	}
}

// PostSimulation is the hook the engine calls after each tick's substeps
// have resolved this avatar's body. It does nothing: the controller keeps
// no state that needs updating at that point.
func (c *Controller) PostSimulation() {}

func horizontalComponent(v, up mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(up.Mul(v.Dot(up)))
}
