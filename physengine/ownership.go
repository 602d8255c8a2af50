package physengine

import (
	"github.com/wildspark-labs/physcore/dynamics"
	"github.com/wildspark-labs/physcore/entity"
)

// bump raises t's outgoing priority so it is bid next cycle (spec.md §4.F
// do_ownership_infection / §9 "Infection"). It never lowers a priority
// already higher than to.
func bump(ms *motionStateRef, to uint8) {
	if ms.OutgoingPriority < to {
		ms.OutgoingPriority = to
	}
}

// motionStateRef is the minimal view ownership infection needs of a tracked
// body's motion-state: its current priority and whether it is locally
// owned, static, or kinematic.
type motionStateRef struct {
	OutgoingPriority uint8
	Ownership        entity.OwnershipState
	Static           bool
	Kinematic        bool
	IsCharacter      bool
}

func (w *World) refFor(h BodyHandle) (*motionStateRef, bool) {
	tb, ok := w.bodies[h]
	if !ok {
		return nil, false
	}
	ref := &motionStateRef{
		OutgoingPriority: tb.ms.OutgoingPriority,
		Ownership:        tb.ms.Ownership,
		Static:           tb.body.IsStatic(),
		Kinematic:        tb.body.IsKinematic(),
		IsCharacter:      w.characterBody == h,
	}
	return ref, true
}

func (w *World) writeBack(h BodyHandle, ref *motionStateRef) {
	tb, ok := w.bodies[h]
	if !ok {
		return
	}
	tb.ms.OutgoingPriority = ref.OutgoingPriority
}

// doOwnershipInfection implements spec.md §4.F do_ownership_infection: if
// exactly one of {a, b} is locally owned or is the character body, and the
// other is neither static/kinematic nor already locally owned, bump the
// other to PersonalSim priority (matching S4's end-to-end scenario).
func (w *World) doOwnershipInfection(a, b BodyHandle) {
	refA, okA := w.refFor(a)
	refB, okB := w.refFor(b)
	if !okA || !okB {
		return
	}

	aOwns := refA.Ownership == entity.LocallyOwned || refA.IsCharacter
	bOwns := refB.Ownership == entity.LocallyOwned || refB.IsCharacter
	if aOwns == bOwns {
		return
	}

	other, otherHandle := refB, b
	if bOwns {
		other, otherHandle = refA, a
	}

	if other.Static || other.Kinematic || other.Ownership == entity.LocallyOwned {
		return
	}
	before := other.OutgoingPriority
	bump(other, entity.PriorityPersonalSim)
	if other.OutgoingPriority != before {
		w.infectionCount.Inc()
	}
	w.writeBack(otherHandle, other)
}

// doOwnershipInfectionForConstraints walks every Dynamic sharing a body with
// any locally-owned body and bumps all non-static others to
// max(priority, VOLUNTEER)+1 (spec.md §4.F).
func (w *World) doOwnershipInfectionForConstraints(registry *dynamics.Registry) {
	if registry == nil {
		return
	}
	for h, tb := range w.bodies {
		if tb.ms.Ownership != entity.LocallyOwned {
			continue
		}
		for _, dynID := range registry.ByBody(tb.entity) {
			d, ok := registry.GetByID(dynID)
			if !ok {
				continue
			}
			owner := d.OwnerEntity()
			other, hasOther := d.OtherEntity()

			w.bumpEntityIfDynamicPeer(owner, h)
			if hasOther {
				w.bumpEntityIfDynamicPeer(other, h)
			}
		}
	}
}

func (w *World) bumpEntityIfDynamicPeer(peer entity.EntityID, exclude BodyHandle) {
	handle, ok := w.handleByEntity[peer]
	if !ok || handle == exclude {
		return
	}
	ref, ok := w.refFor(handle)
	if !ok || ref.Static || ref.Ownership == entity.LocallyOwned {
		return
	}
	target := ref.OutgoingPriority
	if target < entity.PriorityVolunteer {
		target = entity.PriorityVolunteer
	}
	target++
	if ref.OutgoingPriority < target {
		ref.OutgoingPriority = target
		w.writeBack(handle, ref)
		w.infectionCount.Inc()
	}
}
