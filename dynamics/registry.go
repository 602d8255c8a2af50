package dynamics

import (
	"sync"
	"time"

	"github.com/wildspark-labs/physcore/entity"
)

// Registry holds every live Dynamic and indexes them by owning entity so
// physengine can look up "all dynamics touching this body" in O(1) during
// ownership infection (spec.md §4.C, §4.J: a Dynamic's owner and other
// entity both infect ownership bids).
//
// The mutex is only held around Add/Remove/bookkeeping; ForEach takes a
// snapshot of the slice under lock and then invokes the callback unlocked,
// so a callback calling back into Add/Remove does not deadlock.
type Registry struct {
	mu        sync.Mutex
	byID      map[string]Dynamic
	byBody    map[entity.EntityID][]string
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]Dynamic),
		byBody: make(map[entity.EntityID][]string),
	}
}

// Add inserts d, indexing it under its owner and (if present) other entity.
// Re-adding an id replaces the previous entry and its index rows.
func (r *Registry) Add(d Dynamic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[d.ID()]; ok {
		r.unindexLocked(existing)
	}
	r.byID[d.ID()] = d
	r.indexLocked(d)
}

func (r *Registry) indexLocked(d Dynamic) {
	r.byBody[d.OwnerEntity()] = append(r.byBody[d.OwnerEntity()], d.ID())
	if other, ok := d.OtherEntity(); ok {
		r.byBody[other] = append(r.byBody[other], d.ID())
	}
}

func (r *Registry) unindexLocked(d Dynamic) {
	r.removeFromBody(d.OwnerEntity(), d.ID())
	if other, ok := d.OtherEntity(); ok {
		r.removeFromBody(other, d.ID())
	}
}

func (r *Registry) removeFromBody(id entity.EntityID, dynamicID string) {
	ids := r.byBody[id]
	for i, existing := range ids {
		if existing == dynamicID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.byBody, id)
	} else {
		r.byBody[id] = ids
	}
}

// Remove deletes the dynamic with the given id, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return
	}
	r.unindexLocked(d)
	delete(r.byID, id)
}

// GetByID returns the dynamic with the given id, or false if absent.
func (r *Registry) GetByID(id string) (Dynamic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	return d, ok
}

// ByBody returns the ids of every dynamic that touches the given entity,
// either as owner or as the other entity (spec.md §4.J ownership infection).
func (r *Registry) ByBody(id entity.EntityID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byBody[id]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// ForEach invokes fn for every dynamic present at the time of the call, in
// unspecified order. Dynamics added or removed during the call are not
// visited.
func (r *Registry) ForEach(fn func(Dynamic)) {
	r.mu.Lock()
	snapshot := make([]Dynamic, 0, len(r.byID))
	for _, d := range r.byID {
		snapshot = append(snapshot, d)
	}
	r.mu.Unlock()

	for _, d := range snapshot {
		fn(d)
	}
}

// ExpireBefore removes and returns every dynamic whose LifetimeIsOver(now)
// holds (spec.md §4.C: "actions/constraints with an elapsed expiry are
// dropped at the start of the tick they expire in").
func (r *Registry) ExpireBefore(now time.Time) []Dynamic {
	r.mu.Lock()
	var expired []Dynamic
	for id, d := range r.byID {
		if d.LifetimeIsOver(now) {
			expired = append(expired, d)
			delete(r.byID, id)
		}
	}
	for _, d := range expired {
		r.unindexLocked(d)
	}
	r.mu.Unlock()
	return expired
}

// Len reports the number of live dynamics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
