// Package safelanding implements the physics-readiness load barrier of
// spec.md §4.H: holds full physics off during initial domain load until
// every entity seen before tracking started is either physics-ready or has
// given up trying, and the server's domain-sequence range has been fully
// observed. Grounded on original_source/interface/src/octree/SafeLanding.cpp
// (SafeLanding::startTracking/addTrackedEntity/updateTracking/
// loadingProgressPercentage), generalized from that file's Qt
// signal/slot wiring into plain method calls a host driver invokes once per
// tick, the way the teacher's PhysicsEngine and ScriptEngine are driven.
package safelanding

import (
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/errkind"
)

const stabilityCountFloor = 15

// invalidSequence mirrors SafeLanding's INVALID_SEQUENCE sentinel: no
// finishSequence call has landed yet.
const invalidSequence = -1

// ReadyChecker is is_entity_physics_ready (spec.md §4.H): collisionless
// entities are always ready; model entities needing downloaded collision
// geometry (compound/hull/mesh shapes) are ready only once they are not
// physical in their current region, they are already in the simulation, or
// their shape permanently failed to build. Whether the shape has finished
// loading is not checked separately.
type ReadyChecker struct {
	Space       entity.WorkloadSpace
	IsPhysical  func(entity.EntityID) bool
	ShapeFailed func(entity.EntityID) bool
}

// needsDownloadedCollision is the downloadedCollisionTypes set from
// SafeLanding::isEntityPhysicsReady (ConvexHull/Compound/TriangleMesh stand
// in for compound/simple-compound/static-mesh/simple-hull; this entity
// model has no simple-hull/simple-compound distinction).
func needsDownloadedCollision(t entity.ShapeType) bool {
	switch t {
	case entity.ShapeConvexHull, entity.ShapeCompound, entity.ShapeTriangleMesh:
		return true
	default:
		return false
	}
}

// IsReady implements is_entity_physics_ready.
func (r ReadyChecker) IsReady(e entity.Entity) bool {
	if e.Collisionless() {
		return true
	}
	if !needsDownloadedCollision(e.ShapeDescriptor().Type) {
		return true
	}
	region := r.Space.Region(e.ID())
	shouldBePhysical := region < entity.R3 && e.ShouldBePhysical()
	return !shouldBePhysical || r.IsPhysical(e.ID()) || r.ShapeFailed(e.ID())
}

// Tracker is SafeLanding: the barrier object a host constructs once per
// domain connection and drives from its own load-event callbacks.
type Tracker struct {
	log runtime.Logger

	tracking bool
	startTime time.Time

	tracked map[entity.EntityID]entity.Entity

	maxTrackedCount int
	stabilityCount  int

	initialStart, initialEnd int
	sequenceNumbers          map[int]struct{}
}

// New constructs a Tracker. log may be nil.
func New(log runtime.Logger) *Tracker {
	return &Tracker{
		log:             log,
		tracked:         make(map[entity.EntityID]entity.Entity),
		sequenceNumbers: make(map[int]struct{}),
		initialStart:    invalidSequence,
		initialEnd:      invalidSequence,
	}
}

// StartTracking begins a new load barrier, discarding any prior tracking
// state (spec.md §4.H start_tracking).
func (t *Tracker) StartTracking(now time.Time) {
	t.tracking = true
	t.startTime = now
	t.tracked = make(map[entity.EntityID]entity.Entity)
	t.maxTrackedCount = 0
	t.stabilityCount = 0
	t.initialStart = invalidSequence
	t.initialEnd = invalidSequence
	t.sequenceNumbers = make(map[int]struct{})
}

// IsTracking reports whether a load barrier is currently active.
func (t *Tracker) IsTracking() bool { return t.tracking }

// AddTrackedEntity records e if tracking is active and e existed before
// tracking started (spec.md §4.H: "on each entity add seen before a
// start_time"). createdAt is the host's record of when e was created;
// this package has no opinion on how a host derives it.
func (t *Tracker) AddTrackedEntity(e entity.Entity, createdAt time.Time) {
	if !t.tracking || createdAt.After(t.startTime) {
		return
	}
	t.tracked[e.ID()] = e

	if n := len(t.tracked); n > t.maxTrackedCount {
		t.maxTrackedCount = n
		t.stabilityCount = 0
	}
}

// DeleteTrackedEntity drops id from the tracked set regardless of tracking
// state, mirroring SafeLanding::deleteTrackedEntity's unconditional erase.
func (t *Tracker) DeleteTrackedEntity(id entity.EntityID) {
	delete(t.tracked, id)
}

// FinishSequence records the domain's advertised [first, last) sequence
// range (spec.md §4.H finish_sequence).
func (t *Tracker) FinishSequence(first, last int) {
	if !t.tracking {
		return
	}
	t.initialStart = first
	t.initialEnd = last
}

// AddToSequence records that sequence number n has been observed (spec.md
// §4.H add_to_sequence).
func (t *Tracker) AddToSequence(n int) {
	if !t.tracking {
		return
	}
	t.sequenceNumbers[n] = struct{}{}
}

// UpdateTracking is update_tracking: drops every tracked entity that ready
// now reports physics-ready, then, once the tracked set is empty, checks
// whether the sequence range is satisfied and stops tracking if so. It
// returns an *errkind.SequenceGap describing the still-missing range when
// the tracked set has emptied but the sequence range hasn't (policy: keep
// waiting), and nil otherwise — including the common case of still having
// tracked entities left.
func (t *Tracker) UpdateTracking(ready ReadyChecker, missingSequenceNumbers bool) error {
	if !t.tracking {
		return nil
	}

	for id, e := range t.tracked {
		if ready.IsReady(e) {
			delete(t.tracked, id)
		}
	}

	t.stabilityCount++

	if len(t.tracked) != 0 {
		return nil
	}
	if t.initialStart == invalidSequence {
		return nil
	}

	sequenceSize := t.initialEnd - t.initialStart
	if sequenceSize < 0 {
		sequenceSize += sequenceModulo
	}

	_, haveStart := t.sequenceNumbers[t.initialStart]
	_, haveEnd := t.sequenceNumbers[t.initialEnd-1]

	if sequenceSize == 0 || (haveStart && haveEnd && (!missingSequenceNumbers || t.contiguous())) {
		t.StopTracking()
		return nil
	}
	return &errkind.SequenceGap{FirstSeen: uint32(t.initialStart), LastSeen: uint32(t.initialEnd)}
}

// contiguous reports whether every sequence number in [initialStart,
// initialEnd) has been observed.
func (t *Tracker) contiguous() bool {
	for n := t.initialStart; n != t.initialEnd; n = wrapIncrement(n) {
		if _, ok := t.sequenceNumbers[n]; !ok {
			return false
		}
	}
	return true
}

// StopTracking ends the barrier (spec.md §4.H stop_tracking).
func (t *Tracker) StopTracking() {
	t.tracking = false
	if t.log != nil {
		t.log.Debug("safelanding: tracking complete, %d sequence numbers observed", len(t.sequenceNumbers))
	}
}

// TrackingIsComplete mirrors SafeLanding::trackingIsComplete: the barrier
// ran to completion (as opposed to never having been started).
func (t *Tracker) TrackingIsComplete() bool {
	return !t.tracking && t.initialStart != invalidSequence
}

// LoadingProgressPercentage is loading_progress_percentage (spec.md §4.H):
// fraction of the tracked-entity peak that has since cleared, dampened to
// 20% of its true value until the tracked set has held steady (no new peak)
// for at least stabilityCountFloor consecutive updates.
func (t *Tracker) LoadingProgressPercentage() float64 {
	if t.maxTrackedCount == 0 {
		return 0
	}
	pct := float64(t.maxTrackedCount-len(t.tracked)) / float64(t.maxTrackedCount)
	if t.stabilityCount < stabilityCountFloor {
		pct *= 0.20
	}
	return pct
}
