// Package errkind holds the typed error outcomes described in spec.md §7.
// These are outcomes, not exceptions: every producer documents the policy
// applied when one occurs, and none of them is allowed to propagate out of
// PhysicsEngine.StepSimulation.
package errkind

import "fmt"

// ShapeUnavailable means an entity wants physics but its shape cannot yet be
// computed. Policy: silently defer, retry next tick.
type ShapeUnavailable struct {
	Reason string
}

func (e *ShapeUnavailable) Error() string { return "shape unavailable: " + e.Reason }

// ShapeBuildFailure means the shape builder rejected the descriptor. Policy:
// do not insert a body; mark the entity shape-failed so SafeLanding counts
// it as ready.
type ShapeBuildFailure struct {
	Reason string
}

func (e *ShapeBuildFailure) Error() string { return "shape build failure: " + e.Reason }

// OwnershipContention means a bid was overridden by a higher-priority
// client. Policy: demote to NotLocallyOwned, clear outgoing priority, resume
// integrating from the received server-believed state.
type OwnershipContention struct {
	LostToPriority uint8
}

func (e *OwnershipContention) Error() string {
	return fmt.Sprintf("ownership contention: outbid by priority %d", e.LostToPriority)
}

// TimeoutExpiredDynamic means a Dynamic's LifetimeIsOver returned true.
// Policy: remove from the registry at factory time if expired during
// deserialization, otherwise remove at the end of the next tick.
type TimeoutExpiredDynamic struct {
	ID string
}

func (e *TimeoutExpiredDynamic) Error() string { return "dynamic lifetime expired: " + e.ID }

// StuckCharacter means a contact manifold latched the character's stuck
// condition (large penetration, large impulse, long lifetime). Policy:
// latch IsStuck; the host avatar system decides whether to warp.
type StuckCharacter struct {
	Penetration float64
	Impulse     float64
	Lifetime    int
}

func (e *StuckCharacter) Error() string {
	return fmt.Sprintf("character stuck: penetration=%.4f impulse=%.1f lifetime=%d", e.Penetration, e.Impulse, e.Lifetime)
}

// PenetrationDegenerate means a manifold had a contact but distance was not
// past the Continue-emission gate. Policy: skip emission, no retry needed.
type PenetrationDegenerate struct {
	Distance float64
}

func (e *PenetrationDegenerate) Error() string {
	return fmt.Sprintf("penetration degenerate: distance=%.6f", e.Distance)
}

// SequenceGap means SafeLanding observed non-contiguous domain sequence
// numbers. Policy: keep waiting until contiguous, or until the host declares
// no missing sequences remain.
type SequenceGap struct {
	FirstSeen, LastSeen uint32
}

func (e *SequenceGap) Error() string {
	return fmt.Sprintf("sequence gap: [%d, %d]", e.FirstSeen, e.LastSeen)
}
