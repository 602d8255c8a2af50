package simulation

import (
	"time"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/errkind"
	"github.com/wildspark-labs/physcore/motionstate"
	"github.com/wildspark-labs/physcore/physengine"
	"github.com/wildspark-labs/physcore/workload"
)

// bidExpiry is "0.2 s" (spec.md §4.G add_ownership_bid).
const bidExpiry = 200 * time.Millisecond

// inactiveUpdateInterval is the constant cadence that reproduces spec.md
// §4.G's "repeat at 0.5 × numInactiveUpdates seconds" literally: since an
// update is sent once per tick this function is due, scheduling the next
// one a flat 0.5 s out reproduces the evenly spaced t=0, 0.5, 1.0, ..., 10.0 s
// sequence scenario S6 names, whereas reading the phrase as a per-call
// growing backoff would not (resolved per DESIGN.md).
const inactiveUpdateInterval = 500 * time.Millisecond

// Tick runs one simulation-thread tick in full (spec.md §5 Ordering): drain
// edits, build objects to add, apply accumulated changes, step the engine,
// collect changed motion-states into bidding queues, then send bids/updates.
func (c *Coordinator) Tick(dt float64, now time.Time) physengine.StepResult {
	for _, e := range c.drainEdits() {
		c.changeEntityInternal(e)
	}

	c.buildObjectsToAdd()
	c.applyAccumulatedChanges()

	result := c.world.StepSimulation(dt, now)
	c.step++

	c.collectChangedMotionStates(now)

	c.sendOwnedUpdates(now, dt, result.SubstepsRun)
	c.sendOwnershipBids(now)

	return result
}

// buildObjectsToAdd is spec.md §4.G build_objects_to_add: for each entity
// awaiting physics, try to compute its shape; on success, create a
// MotionState, assign a backend body, and queue it for insertion.
func (c *Coordinator) buildObjectsToAdd() {
	for id, e := range c.toAdd {
		handle, shape, err := c.shapes.Get(e.ShapeDescriptor())
		if err != nil {
			if _, unavailable := err.(*errkind.ShapeUnavailable); unavailable {
				continue // still building or not ready, retry next tick
			}
			// ShapeBuildFailure or any other producer error: stop retrying,
			// but remember it so SafeLanding still counts this entity ready.
			c.shapeFailed[id] = true
			delete(c.toAdd, id)
			delete(c.toAddRegion, id)
			continue
		}
		if shape == nil {
			continue // ShapeType.None: not yet ready to be physical, retry
		}

		motionType := motionstate.ClassifyMotionType(e)
		body, err := c.bodies.NewBody(e, shape, motionType)
		if err != nil {
			c.shapes.Release(handle)
			continue // retry next tick
		}

		ms := motionstate.New(motionstate.KindEntity, e, c.shapes, body)
		ms.SeedShape(handle)
		ms.Region = c.toAddRegion[id]

		entry := &physicalEntry{ms: ms, body: body, region: ms.Region}
		c.physical[id] = entry
		c.pendingAdds = append(c.pendingAdds, physengine.Addition{Entity: id, Motion: ms, Body: body})

		delete(c.toAdd, id)
		delete(c.toAddRegion, id)
	}
}

// applyAccumulatedChanges is spec.md §5 step 2: apply the add/remove
// Transaction, then run every incoming dirty-flag change through the
// engine.
func (c *Coordinator) applyAccumulatedChanges() {
	c.world.ApplyTransaction(physengine.Transaction{
		Adds:    c.pendingAdds,
		Removes: c.pendingRemoves,
	})
	c.pendingAdds = nil
	c.pendingRemoves = nil

	for id, entry := range c.incoming {
		flags := entry.ms.Entity.DirtyFlags()
		if flags != 0 {
			if err := c.world.ProcessChange(entry.ms, &flags); err == nil {
				entry.ms.Entity.ClearDirtyFlags(flags)
			}
		}
		delete(c.incoming, id)
	}
}

// collectChangedMotionStates is spec.md §5 step 4-5: recognize transitions
// into local ownership, queue ownership bids for entities that still want
// one, and drop inactive pending bids that are no longer worth pursuing.
func (c *Coordinator) collectChangedMotionStates(now time.Time) {
	for _, entry := range c.physical {
		if entry.ms.Ownership == entity.PendingBid && !entry.body.IsActive() {
			c.bids = removeEntry(c.bids, entry)
			continue
		}

		if entry.ms.Ownership != entity.LocallyOwned && c.ownsBySimulatorID(entry) {
			c.addOwnership(entry)
			continue
		}

		if entry.ms.Ownership == entity.NotLocallyOwned && c.shouldSendBid(entry) && !containsEntry(c.bids, entry) {
			c.addOwnershipBid(entry, now)
		}
	}
}

func (c *Coordinator) ownsBySimulatorID(entry *physicalEntry) bool {
	sid := entry.ms.Entity.SimulatorID()
	return !sid.IsNil() && sid == c.localSimulatorID
}

// shouldSendBid reports whether entry still wants to be (or remain)
// simulated locally: it has a non-zero desired priority and its region
// still admits physics. spec.md §4.G references should_send_bid without
// defining it further; resolved this way per DESIGN.md.
func (c *Coordinator) shouldSendBid(entry *physicalEntry) bool {
	return entry.ms.OutgoingPriority > entity.PriorityNone && workload.PhysicalAdmission(entry.region, entry.ms.Entity)
}

func (c *Coordinator) addOwnership(entry *physicalEntry) {
	entry.ms.Ownership = entity.LocallyOwned
	c.owned = appendUnique(c.owned, entry)
	c.bids = removeEntry(c.bids, entry)
}

// addOwnershipBid is spec.md §4.G add_ownership_bid.
func (c *Coordinator) addOwnershipBid(entry *physicalEntry, now time.Time) {
	entry.ms.Seeded = false
	if entry.ms.OutgoingPriority < entity.PriorityVolunteer {
		entry.ms.OutgoingPriority = entity.PriorityVolunteer
	}
	entry.ms.Ownership = entity.PendingBid
	c.sender.SendBid(entry.ms)
	c.bidsSent.Inc()
	c.bids = appendUnique(c.bids, entry)
	entry.ms.NextOwnershipBid = now.Add(bidExpiry)
}

// sendOwnershipBids is spec.md §4.G send_ownership_bids.
func (c *Coordinator) sendOwnershipBids(now time.Time) {
	kept := c.bids[:0]
	for _, entry := range c.bids {
		if entry.ms.Ownership == entity.LocallyOwned {
			c.owned = appendUnique(c.owned, entry)
			c.sender.SendOwnedUpdate(entry.ms, c.step)
			c.updatesSent.Inc()
			continue
		}
		if !c.shouldSendBid(entry) {
			continue // dropped silently
		}
		if !now.Before(entry.ms.NextOwnershipBid) {
			c.sender.SendBid(entry.ms)
			c.bidsSent.Inc()
			entry.ms.NextOwnershipBid = now.Add(bidExpiry)
		}
		kept = append(kept, entry)
	}
	c.bids = kept
}

// sendOwnedUpdates is spec.md §4.G send_owned_updates, using
// RemoteSimulationOutOfSync (spec.md §4.D) as the should-send-update
// oracle. Inactive entries are only re-evaluated on the 0.5 s cadence
// scenario S6 names; RemoteSimulationOutOfSync's own NumInactiveUpdates
// bookkeeping voluntarily clears ownership past 20 such updates.
func (c *Coordinator) sendOwnedUpdates(now time.Time, dt float64, substepsRun int) {
	kept := c.owned[:0]
	for _, entry := range c.owned {
		if entry.ms.Ownership != entity.LocallyOwned {
			if c.shouldSendBid(entry) {
				c.bids = appendUnique(c.bids, entry)
			}
			continue
		}

		active := entry.body.IsActive()
		if active {
			if entry.ms.RemoteSimulationOutOfSync(c.step, dt, physengine.FixedSubstep, substepsRun, true) {
				c.sender.SendOwnedUpdate(entry.ms, c.step)
				c.updatesSent.Inc()
			}
			entry.nextInactiveUpdateAt = time.Time{}
			kept = append(kept, entry)
			continue
		}

		if !entry.nextInactiveUpdateAt.IsZero() && now.Before(entry.nextInactiveUpdateAt) {
			kept = append(kept, entry)
			continue
		}

		if entry.ms.RemoteSimulationOutOfSync(c.step, dt, physengine.FixedSubstep, substepsRun, false) {
			c.sender.SendOwnedUpdate(entry.ms, c.step)
			c.updatesSent.Inc()
			entry.nextInactiveUpdateAt = now.Add(inactiveUpdateInterval)
			kept = append(kept, entry)
			continue
		}

		// RemoteSimulationOutOfSync returned false either because this call
		// only seeded the server-believed state (still owned) or because it
		// just voluntarily cleared ownership past the 20-update ceiling.
		if entry.ms.Ownership == entity.LocallyOwned {
			kept = append(kept, entry)
			continue
		}
		c.releases.Inc()
	}
	c.owned = kept
}
