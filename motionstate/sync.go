package motionstate

import (
	"math"

	"github.com/wildspark-labs/physcore/entity"
)

// numInactiveUpdatesCeiling is the count after which an inactive, owned body
// voluntarily releases ownership instead of continuing to re-announce
// (spec.md §4.D remote_simulation_out_of_sync step 2: "after which ownership
// is voluntarily cleared").
const numInactiveUpdatesCeiling = 20

const (
	positionErrorSq   = 0.002 * 0.002 // (2 mm)^2
	stillSpeedSq      = 0.001 * 0.001 // (1 mm/s)^2
	relativeErrorFrac = 0.05 * 0.05   // 5%^2
	rotationErrorDot  = 0.99999
)

// RemoteSimulationOutOfSync advances the server-believed state by one step
// of dt and decides whether the current body state has diverged enough to
// warrant transmitting an update. It is only meaningful when this client
// owns (or is bidding to own) the simulation; callers must not invoke it
// otherwise (spec.md §4.D remote_simulation_out_of_sync).
func (m *MotionState) RemoteSimulationOutOfSync(step uint32, dt float64, fixedSubstep float64, numSteps int, bodyActive bool) bool {
	e := m.Entity

	if !m.Seeded {
		m.ServerPosition = e.Position()
		m.ServerRotation = e.Rotation()
		m.ServerVelocity = e.LinearVelocity()
		m.ServerAngularVelocity = e.AngularVelocity()
		m.ServerAcceleration = m.MeasuredAcceleration
		m.LastStep = step
		m.Seeded = true
		return false
	}

	linearDamping := e.Damping()
	angularDamping := e.AngularDamping()

	m.ServerPosition = m.ServerPosition.Add(m.ServerVelocity.Mul(dt))
	m.ServerVelocity = m.ServerVelocity.Add(m.ServerAcceleration.Mul(dt))
	m.ServerVelocity = m.ServerVelocity.Mul(math.Pow(1-linearDamping, dt))

	rotationStep := bulletRotationStep(m.ServerAngularVelocity, fixedSubstep)
	rotation := m.ServerRotation
	for i := 0; i < numSteps; i++ {
		rotation = rotationStep.Mul(rotation)
	}
	m.ServerRotation = rotation.Normalize()
	m.ServerAngularVelocity = m.ServerAngularVelocity.Mul(math.Pow(1-angularDamping, dt))

	m.LastStep = step

	if !bodyActive {
		if m.NumInactiveUpdates > numInactiveUpdatesCeiling {
			m.Ownership = entity.NotLocallyOwned
			m.NumInactiveUpdates = 0
			return false
		}
		// The caller (simulation.Coordinator) re-calls this on a flat 0.5 s
		// cadence while the body stays inactive; we only decide that an
		// update is due, not the cadence itself.
		m.NumInactiveUpdates++
		return true
	}
	m.NumInactiveUpdates = 0

	if dynamicDataNeedsTransmit(e) {
		if e.HasGrabActions() {
			m.OutgoingPriority = entity.PriorityScriptGrab
		} else {
			m.OutgoingPriority = entity.PriorityScriptPoke
		}
		return true
	}

	dPos := e.Position().Sub(m.ServerPosition)
	dPosSq := dPos.Dot(dPos)
	speed := e.LinearVelocity().Len()
	speedSq := speed * speed
	if dPosSq > positionErrorSq {
		if speedSq < stillSpeedSq || (speedSq > 0 && dPosSq/speedSq > relativeErrorFrac) {
			return true
		}
	}

	if math.Abs(e.Rotation().Dot(m.ServerRotation)) < rotationErrorDot {
		return true
	}

	return false
}

// dynamicDataNeedsTransmit reports whether the entity carries a pending
// Dynamics-blob change that must go out regardless of pose divergence
// (spec.md §4.D remote_simulation_out_of_sync step 3).
func dynamicDataNeedsTransmit(e entity.Entity) bool {
	return e.DirtyFlags().Has(entity.DynamicData)
}
