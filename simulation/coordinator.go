// Package simulation implements PhysicalEntitySimulation (spec.md §4.G): the
// outermost coordinator that drains external entity-change notifications,
// builds the add/remove Transaction physengine consumes, and drives the
// ownership-bid/owned-update protocol once per tick. Generalized from the
// teacher's GameMatch.MatchLoop tick structure (game.go: drain inputs → step
// physics → send ACKs) into drain-edits → build Transaction → step → send
// bids/updates, with the teacher's rbOwner/gameObjectsByOwner maps
// generalizing directly into the owned/bids vectors spec.md §4.G names.
package simulation

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/motionstate"
	"github.com/wildspark-labs/physcore/physengine"
	"github.com/wildspark-labs/physcore/shapecache"
	"github.com/wildspark-labs/physcore/workload"
)

// BodyFactory constructs a backend rigid body for an entity once its shape
// has resolved (spec.md §4.G build_objects_to_add: "create MotionState,
// assign backend body").
type BodyFactory interface {
	NewBody(ent entity.Entity, shape *shapecache.Shape, motionType entity.MotionType) (physengine.Body, error)
}

// UpdateSender transmits the wire packets ownerwire builds (spec.md §4.J);
// Coordinator only decides when to call it.
type UpdateSender interface {
	SendBid(ms *motionstate.MotionState)
	SendOwnedUpdate(ms *motionstate.MotionState, step uint32)
	SendRelease(ms *motionstate.MotionState)
}

// physicalEntry is what Coordinator keeps per entity admitted to physics:
// its MotionState plus the backend body BodyFactory produced for it (kept
// alongside rather than re-derived from physengine.World, mirroring the
// teacher's rbOwner reverse-lookup map pattern in game.go).
type physicalEntry struct {
	ms     *motionstate.MotionState
	body   physengine.Body
	region entity.Region

	// nextInactiveUpdateAt gates the 0.5 s inactive-update cadence scenario
	// S6 names; zero means "not currently on an inactive schedule".
	nextInactiveUpdateAt time.Time
}

// Coordinator is PhysicalEntitySimulation (spec.md §4.G).
type Coordinator struct {
	space  entity.WorkloadSpace
	shapes *shapecache.Cache
	world  *physengine.World
	bodies BodyFactory
	sender UpdateSender

	// localSimulatorID is this client's own session identity, compared
	// against Entity.SimulatorID() to recognize ownership already granted
	// by the host without a prior bid (spec.md §4.G change_entity_internal).
	localSimulatorID entity.SimulatorID

	editMu  sync.Mutex
	pending []entity.Entity

	toAdd           map[entity.EntityID]entity.Entity
	toAddRegion     map[entity.EntityID]entity.Region
	incoming        map[entity.EntityID]*physicalEntry
	simpleKinematic map[entity.EntityID]entity.Entity
	shapeFailed     map[entity.EntityID]bool

	physical map[entity.EntityID]*physicalEntry

	pendingAdds    []physengine.Addition
	pendingRemoves []physengine.BodyHandle

	owned []*physicalEntry
	bids  []*physicalEntry

	step uint32

	bidsSent    prometheus.Counter
	updatesSent prometheus.Counter
	releases    prometheus.Counter
}

// NewCoordinator wires a Coordinator over world, resolving shapes through
// shapes, building bodies through bodies, and sending wire packets through
// sender. space classifies each entity's workload region (spec.md §4.K).
func NewCoordinator(space entity.WorkloadSpace, shapes *shapecache.Cache, world *physengine.World, bodies BodyFactory, sender UpdateSender, reg prometheus.Registerer) *Coordinator {
	c := &Coordinator{
		space:           space,
		shapes:          shapes,
		world:           world,
		bodies:          bodies,
		sender:          sender,
		toAdd:           make(map[entity.EntityID]entity.Entity),
		toAddRegion:     make(map[entity.EntityID]entity.Region),
		incoming:        make(map[entity.EntityID]*physicalEntry),
		simpleKinematic: make(map[entity.EntityID]entity.Entity),
		shapeFailed:     make(map[entity.EntityID]bool),
		physical:        make(map[entity.EntityID]*physicalEntry),
		bidsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_simulation_bids_sent_total",
			Help: "Ownership bid packets sent.",
		}),
		updatesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_simulation_owned_updates_sent_total",
			Help: "Authoritative owned-entity update packets sent.",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_simulation_ownership_releases_total",
			Help: "Ownership releases, voluntary or on should-be-physical loss.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.bidsSent, c.updatesSent, c.releases)
	}
	return c
}

// SetLocalSimulatorID records which session identity this Coordinator is
// simulating on behalf of.
func (c *Coordinator) SetLocalSimulatorID(id entity.SimulatorID) {
	c.localSimulatorID = id
}

// SubmitChange enqueues an external entity-change notification. Safe to call
// from any thread (spec.md §5: "external edits arrive from other threads
// through a mutex-protected queue inside PhysicalEntitySimulation").
func (c *Coordinator) SubmitChange(e entity.Entity) {
	c.editMu.Lock()
	c.pending = append(c.pending, e)
	c.editMu.Unlock()
}

// IsPhysical reports whether id currently has a MotionState in the physics
// simulation, for SafeLanding's readiness check (spec.md §4.H).
func (c *Coordinator) IsPhysical(id entity.EntityID) bool {
	_, ok := c.physical[id]
	return ok
}

// ShapeFailed reports whether id's shape permanently failed to build
// (spec.md §4.H: "a recorded shape-load-failure flag" counts as ready).
func (c *Coordinator) ShapeFailed(id entity.EntityID) bool {
	return c.shapeFailed[id]
}

func (c *Coordinator) drainEdits() []entity.Entity {
	c.editMu.Lock()
	edits := c.pending
	c.pending = nil
	c.editMu.Unlock()
	return edits
}

// changeEntityInternal is spec.md §4.G change_entity_internal.
func (c *Coordinator) changeEntityInternal(e entity.Entity) {
	region := c.space.Region(e.ID())
	shouldBePhysical := workload.PhysicalAdmission(region, e)
	canBeKinematic := workload.SimpleKinematicAdmission(region, e)

	entry, hasEntry := c.physical[e.ID()]

	switch {
	case hasEntry && !shouldBePhysical:
		if entry.ms.Ownership == entity.LocallyOwned {
			entry.body.SetSleeping(true)
			c.sender.SendRelease(entry.ms)
			c.releases.Inc()
			entry.ms.Ownership = entity.NotLocallyOwned
			entry.ms.OutgoingPriority = 0
			entry.ms.NextOwnershipBid = time.Time{}
			c.owned = removeEntry(c.owned, entry)
			c.bids = removeEntry(c.bids, entry)
		}
		delete(c.incoming, e.ID())
		delete(c.physical, e.ID())
		c.pendingRemoves = append(c.pendingRemoves, entry.body.Handle())
		if canBeKinematic {
			c.simpleKinematic[e.ID()] = e
		} else {
			delete(c.simpleKinematic, e.ID())
		}

	case shouldBePhysical && !hasEntry:
		c.toAdd[e.ID()] = e
		c.toAddRegion[e.ID()] = region

	default:
		if hasEntry {
			entry.region = region
			c.incoming[e.ID()] = entry
		}
	}
}
