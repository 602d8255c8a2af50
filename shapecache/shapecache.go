// Package shapecache implements the hash-keyed, ref-counted pool of
// immutable collision Shapes described in spec.md §4.A. Shapes are never
// freed synchronously: releasing the last reference enqueues the key on a
// fixed-size garbage ring, and a slot is only actually collected if the
// refcount is still zero when that slot is reused.
//
// Get must only be called from the simulation thread (spec.md §5). Mesh
// builds run on worker goroutines and deliver results onto a buffered
// channel that Drain empties on the simulation thread, mirroring the
// cross-thread "work-submit channel" the teacher's polygonRegistry pattern
// approximated with a plain map plus periodic CleanupPolygonRegistry sweep
// (physics_engine.go), generalized here into a real refcounted cache.
package shapecache

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/errkind"
)

const garbageRingCapacity = 256
const orphanExpiry = 1 * time.Second

// Shape is the immutable collision geometry produced by shapefactory.Build.
// Once built it is never mutated; the cache only manages its refcount.
type Shape struct {
	Info     entity.ShapeInfo
	Hash     uint64
	Geometry any // opaque backend-specific geometry, produced by shapefactory
}

// Handle is returned by Get; it is the caller's reference to a cached Shape.
type Handle struct {
	Hash uint64
}

type entryState uint8

const (
	stateReady entryState = iota
	statePendingBuild
)

type entry struct {
	shape    *Shape
	refcount int
	state    entryState
	builtAt  time.Time
}

// Builder builds the backend geometry for a ShapeInfo. Mesh-type builds may
// be slow; the cache dispatches those onto Submit so they run off the
// simulation thread.
type Builder interface {
	Build(info entity.ShapeInfo) (any, error)
	IsMeshType(info entity.ShapeInfo) bool
}

// Cache is the ShapeCache of spec.md §4.A.
type Cache struct {
	mu      sync.Mutex // guards entries/garbageRing bookkeeping done off the sim thread by Drain results only
	entries map[uint64]*entry
	orphans map[uint64]time.Time

	garbageRing [garbageRingCapacity]uint64
	ringNext    int

	builder Builder
	built   chan builtMessage

	hits   prometheus.Counter
	misses prometheus.Counter
	orphan prometheus.Gauge
}

type builtMessage struct {
	info  entity.ShapeInfo
	shape any
	err   error
}

// New constructs an empty Cache backed by builder for async mesh builds.
func New(builder Builder, reg prometheus.Registerer) *Cache {
	c := &Cache{
		entries: make(map[uint64]*entry),
		orphans: make(map[uint64]time.Time),
		builder: builder,
		built:   make(chan builtMessage, 64),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_shapecache_hits_total",
			Help: "ShapeCache.Get calls resolved from an already-built entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_shapecache_misses_total",
			Help: "ShapeCache.Get calls that triggered a build.",
		}),
		orphan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "physcore_shapecache_orphans",
			Help: "Shapes built but not yet referenced or collected.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.hits, c.misses, c.orphan)
	}
	return c
}

// Get returns a handle to the cached Shape for info, bumping its refcount.
// It returns an *errkind.ShapeUnavailable for mesh shapes still building
// (spec.md §4.A), an *errkind.ShapeBuildFailure when the builder rejects
// info, and a nil Shape with a nil error for ShapeType.None descriptors.
func (c *Cache) Get(info entity.ShapeInfo) (Handle, *Shape, error) {
	if info.Type == entity.ShapeNone {
		return Handle{}, nil, nil
	}
	h := info.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[h]; ok {
		switch e.state {
		case stateReady:
			e.refcount++
			if e.refcount == 1 {
				delete(c.orphans, h)
				c.orphan.Set(float64(len(c.orphans)))
			}
			c.hits.Inc()
			return Handle{Hash: h}, e.shape, nil
		case statePendingBuild:
			return Handle{Hash: h}, nil, &errkind.ShapeUnavailable{Reason: "mesh still building"}
		}
	}

	c.misses.Inc()

	if c.builder.IsMeshType(info) {
		c.entries[h] = &entry{state: statePendingBuild}
		c.submitBuild(info)
		return Handle{Hash: h}, nil, &errkind.ShapeUnavailable{Reason: "mesh build queued"}
	}

	geometry, err := c.builder.Build(info)
	if err != nil {
		return Handle{}, nil, &errkind.ShapeBuildFailure{Reason: err.Error()}
	}
	shape := &Shape{Info: info, Hash: h, Geometry: geometry}
	c.entries[h] = &entry{shape: shape, refcount: 1, state: stateReady}
	return Handle{Hash: h}, shape, nil
}

func (c *Cache) submitBuild(info entity.ShapeInfo) {
	go func() {
		geometry, err := c.builder.Build(info)
		c.built <- builtMessage{info: info, shape: geometry, err: err}
	}()
}

// Drain delivers any completed async mesh builds onto the simulation
// thread. It must be called once per tick, never mid-substep (spec.md §5:
// "shape-build completions that arrive during a step are not consumed until
// the start of the next tick"). It consumes at most max completions per
// call and returns as soon as none is waiting.
func (c *Cache) Drain(max int) {
	for i := 0; i < max; i++ {
		select {
		case msg := <-c.built:
			c.acceptBuilt(msg)
		default:
			return
		}
	}
}

func (c *Cache) acceptBuilt(msg builtMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := msg.info.Hash()
	if msg.err != nil {
		delete(c.entries, h)
		return
	}
	shape := &Shape{Info: msg.info, Hash: h, Geometry: msg.shape}
	c.entries[h] = &entry{shape: shape, refcount: 0, state: stateReady}
	c.orphans[h] = time.Now()
	c.orphan.Set(float64(len(c.orphans)))
}

// Release decrements the refcount for handle; on reaching zero the key is
// enqueued onto the garbage ring rather than freed immediately (spec.md
// invariant 1 in §3.2). Returns true iff the refcount reached zero.
func (c *Cache) Release(handle Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[handle.Hash]
	if !ok || e.refcount == 0 {
		return false
	}
	e.refcount--
	if e.refcount > 0 {
		return false
	}
	c.enqueueGarbage(handle.Hash)
	return true
}

func (c *Cache) enqueueGarbage(key uint64) {
	displaced := c.garbageRing[c.ringNext]
	c.garbageRing[c.ringNext] = key
	c.ringNext = (c.ringNext + 1) % garbageRingCapacity
	if displaced != 0 {
		c.collectIfZero(displaced)
	}
}

func (c *Cache) collectIfZero(key uint64) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.state == stateReady && e.refcount == 0 {
		delete(c.entries, key)
	}
}

// CollectGarbage deletes every ring entry whose refcount is still zero and
// clears the ring. Orphans past their expiry are moved onto the ring first.
func (c *Cache) CollectGarbage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, at := range c.orphans {
		if now.Sub(at) >= orphanExpiry {
			delete(c.orphans, key)
			c.enqueueGarbageLocked(key)
		}
	}
	c.orphan.Set(float64(len(c.orphans)))

	for _, key := range c.garbageRing {
		c.collectIfZero(key)
	}
	c.garbageRing = [garbageRingCapacity]uint64{}
	c.ringNext = 0
}

func (c *Cache) enqueueGarbageLocked(key uint64) {
	displaced := c.garbageRing[c.ringNext]
	c.garbageRing[c.ringNext] = key
	c.ringNext = (c.ringNext + 1) % garbageRingCapacity
	if displaced != 0 {
		c.collectIfZero(displaced)
	}
}

// Refcount returns the current refcount for a cached key, for tests.
func (c *Cache) Refcount(key uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.refcount
	}
	return 0
}
