package character

import "github.com/go-gl/mathgl/mgl64"

// Stuck-detection thresholds (spec.md §4.E: "a contact with distance < -5cm,
// appliedImpulse > 500 N*s, lifetime > 3 steps latches isStuck").
const (
	stuckPenetrationThreshold = -0.05
	stuckImpulseThreshold     = 500.0
	stuckLifetimeThreshold    = 3
)

// ScanContacts updates the stuck latch and, if step-up is enabled, records
// the contact ApplyStepUp uses this step (spec.md §4.E "Stuck detection" /
// "Step-up"): among the contacts whose normal opposes targetVelocity, the
// one whose normal points most nearly up. Contacts are not filtered by
// height; no step-height band is applied.
func (c *Controller) ScanContacts(contacts []Contact, targetVelocity mgl64.Vec3) {
	stillPresent := false
	var bestStepUp Contact
	haveBestStepUp := false

	for _, ct := range contacts {
		if ct.Distance < stuckPenetrationThreshold && ct.AppliedImpulse > stuckImpulseThreshold && ct.Lifetime > stuckLifetimeThreshold {
			c.isStuck = true
			c.stuckNormal = ct.Normal
		}
		if c.isStuck && ct.Normal == c.stuckNormal {
			stillPresent = true
		}

		if c.Config.StepUpEnabled && ct.Normal.Dot(targetVelocity) < 0 {
			if !haveBestStepUp || ct.Normal.Dot(mgl64.Vec3{0, 1, 0}) > bestStepUp.Normal.Dot(mgl64.Vec3{0, 1, 0}) {
				bestStepUp = ct
				haveBestStepUp = true
			}
		}
	}

	// spec.md §5: "stuck latch clears only when the contact normal that
	// caused the latch is no longer present".
	if c.isStuck && !stillPresent {
		c.isStuck = false
	}

	if haveBestStepUp {
		c.pendingStepUp = &bestStepUp
	} else {
		c.pendingStepUp = nil
	}
}
