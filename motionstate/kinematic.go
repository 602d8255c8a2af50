package motionstate

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// Transform is the pose GetWorldTransform hands back to the backend on
// every substep the backend asks for this body's position.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// stepKinematicMotion advances a kinematic (backend-uncontrolled) entity by
// dt using its current linear/angular velocity, the integrator named by
// spec.md §4.D get_world_transform.
func (m *MotionState) stepKinematicMotion(dt float64) {
	if dt <= 0 {
		return
	}
	e := m.Entity
	newPos := e.Position().Add(e.LinearVelocity().Mul(dt)).Add(e.Acceleration().Mul(0.5 * dt * dt))
	e.SetPosition(newPos)
	e.SetRotation(integrateRotation(e.Rotation(), e.AngularVelocity(), dt))
}

// GetWorldTransform is called by the backend to read this body's current
// pose. For kinematic bodies without an avatar ancestor, this is the
// kinematic integrator: it advances the entity in place before reading its
// pose (spec.md §4.D get_world_transform).
func (m *MotionState) GetWorldTransform(step uint32, fixedSubstep float64, t *Transform) {
	m.physMotionType = m.ComputePhysicsMotionType()

	if m.physMotionType == entity.MotionKinematic && !m.Entity.HasAvatarAncestor() {
		dt := float64(step-m.LastKinematicStep) * fixedSubstep
		m.stepKinematicMotion(dt)
		m.Entity.SetAcceleration(m.Entity.Gravity())
		m.AccelerationNearlyGravityCount = 255
		m.LastKinematicStep = step
	}

	if m.kind == KindAvatar {
		// NOTE: preserves a documented probable bug rather than fixing it —
		// the source sets angular velocity from the entity's linear velocity,
		// not its angular velocity. See spec.md §9 Open Questions.
		m.Entity.SetAngularVelocity(m.Entity.LinearVelocity())
	}

	t.Position = m.Entity.Position()
	t.Rotation = m.Entity.Rotation()
}

// loopsWithoutOwnerThreshold is the step count after which an unowned body
// starts volunteering itself for ownership (spec.md §4.D set_world_transform: "after 50 steps").
const loopsWithoutOwnerThreshold = 50

// SetWorldTransform is called by the backend after a dynamic body's step to
// hand the simulated pose back to the entity (spec.md §4.D set_world_transform).
// It tracks loopsWithoutOwner and escalates outgoingPriority to Volunteer
// once the entity has gone unowned for more than 50 steps and its bid timer
// has elapsed.
func (m *MotionState) SetWorldTransform(t Transform, step uint32, dt float64, now time.Time) {
	m.Entity.SetPosition(t.Position)
	m.Entity.SetRotation(t.Rotation)
	m.MeasureBodyAcceleration(step, dt)

	if m.Entity.SimulatorID().IsNil() {
		if m.LoopsWithoutOwner < 255 {
			m.LoopsWithoutOwner++
		}
		if m.LoopsWithoutOwner > loopsWithoutOwnerThreshold && !now.Before(m.NextOwnershipBid) {
			m.OutgoingPriority = entity.PriorityVolunteer
		}
	} else {
		m.LoopsWithoutOwner = 0
	}
}
