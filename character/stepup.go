package character

import "github.com/go-gl/mathgl/mgl64"

// skyHookHorizontalFraction and the gravity term below implement spec.md
// §4.E step-up: "synthesize a 'sky-hook' vertical velocity (at most 0.65 x
// horizontal target speed minus 0.5*gravity*stepTime) without altering
// horizontal velocity, and clamp any residual downward velocity to zero".
const skyHookHorizontalFraction = 0.65

// ApplyStepUp synthesizes the sky-hook vertical velocity onto body when
// ScanContacts recorded a contact whose normal opposes the target velocity.
// It is a no-op when step-up is disabled or no such contact was found.
func (c *Controller) ApplyStepUp(body Body, up mgl64.Vec3, targetVelocity mgl64.Vec3, stepTime float64) {
	if !c.Config.StepUpEnabled || c.pendingStepUp == nil {
		return
	}

	horizSpeed := horizontalComponent(targetVelocity, up).Len()
	skyHook := skyHookHorizontalFraction*horizSpeed - 0.5*c.Config.gravityMagnitude()*stepTime
	if skyHook < 0 {
		skyHook = 0
	}

	vel := body.LinearVelocity()
	horizontal := horizontalComponent(vel, up)
	vertical := vel.Dot(up)
	if vertical < skyHook {
		vertical = skyHook
	}
	if vertical < 0 {
		vertical = 0
	}
	body.SetLinearVelocity(horizontal.Add(up.Mul(vertical)))
}
