package motionstate

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// bulletRotationStep integrates a quaternion by one step under constant
// angular velocity omega, matching the backend's own small-angle update so
// our server-believed-state prediction in RemoteSimulationOutOfSync agrees
// with it bit-for-bit in the common case (spec.md §4.D remote_simulation_out_of_sync).
func bulletRotationStep(omega mgl64.Vec3, dt float64) mgl64.Quat {
	magnitude := omega.Len()
	s := math.Min(magnitude, math.Pi/(2*dt))

	var axis mgl64.Vec3
	if s >= 1e-3 {
		axis = omega.Mul(math.Sin(s*dt/2) / s)
	} else {
		axis = omega.Mul(dt/2 - dt*dt*dt*s*s/48)
	}
	return mgl64.Quat{W: math.Cos(s * dt / 2), V: axis}
}

// integrateRotation advances rot by one step of bulletRotationStep, left-
// multiplying as the backend does (world-frame angular velocity).
func integrateRotation(rot mgl64.Quat, omega mgl64.Vec3, dt float64) mgl64.Quat {
	if dt <= 0 {
		return rot
	}
	step := bulletRotationStep(omega, dt)
	return step.Mul(rot).Normalize()
}
