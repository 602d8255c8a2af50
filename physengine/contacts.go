package physengine

import "github.com/go-gl/mathgl/mgl64"

// contactKey identifies a body pair regardless of manifold side order.
type contactKey struct {
	a, b BodyHandle
}

func keyFor(a, b BodyHandle) contactKey {
	if a <= b {
		return contactKey{a, b}
	}
	return contactKey{b, a}
}

// ContactInfo is the per-pair bookkeeping update_contact_map maintains
// (spec.md §4.F): the step each contact was last seen, and whether a Start
// event has already been emitted for the current touch.
type ContactInfo struct {
	A, B             BodyHandle
	LastStep         uint32
	Initialized      bool
	LastContinueStep uint32
	Penetration      mgl64.Vec3
	Distance         float64
}

// EventType tags a derived collision event (spec.md §4.F get_collision_events).
type EventType uint8

const (
	EventStart EventType = iota
	EventContinue
	EventEnd
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventContinue:
		return "continue"
	default:
		return "end"
	}
}

// CollisionEvent is one emitted collision, idA always the non-null/owned
// side per spec.md §4.F: "Always put a non-null side first as idA".
type CollisionEvent struct {
	Type        EventType
	IDA, IDB    BodyHandle
	Penetration mgl64.Vec3
}

// continueSubstepGap is "at least 9 substeps since the last Continue for
// this pair" (spec.md §4.F).
const continueSubstepGap = 9

// continueDistanceThreshold is "-2 mm" (spec.md §4.F).
const continueDistanceThreshold = -0.002

// contactMap tracks ContactInfo per body pair across substeps and ticks.
type contactMap struct {
	pairs map[contactKey]*ContactInfo
}

func newContactMap() *contactMap {
	return &contactMap{pairs: make(map[contactKey]*ContactInfo)}
}

// upsert records or refreshes a contact seen this substep (spec.md §4.F
// update_contact_map). The Start/Continue/End classification itself happens
// later, in collectEvents, which walks the whole map once per tick.
func (m *contactMap) upsert(c ManifoldContact, step uint32) *ContactInfo {
	k := keyFor(c.A, c.B)
	info, ok := m.pairs[k]
	if !ok {
		info = &ContactInfo{A: c.A, B: c.B}
		m.pairs[k] = info
	}
	info.LastStep = step
	info.Distance = c.Distance
	info.Penetration = c.Normal.Mul(-c.Distance)
	return info
}

// collectEvents derives this tick's collision events over the whole map and
// removes pairs that fell out of touch (spec.md §4.F get_collision_events):
// End for any pair whose LastStep fell behind currentStep; else Start on
// first sight; else Continue once deep enough and far enough past the last
// Continue emission. isLocallyOwned reports whether the given body
// participates in locally owned simulation (directly owned, or the local
// character body); only pairs touching a locally-owned side are emitted.
func (m *contactMap) collectEvents(currentStep uint32, isLocallyOwned func(BodyHandle) bool) []CollisionEvent {
	var events []CollisionEvent
	for k, info := range m.pairs {
		if info.LastStep < currentStep {
			events = append(events, emit(info, EventEnd, isLocallyOwned)...)
			delete(m.pairs, k)
			continue
		}
		if !info.Initialized {
			info.Initialized = true
			info.LastContinueStep = currentStep
			events = append(events, emit(info, EventStart, isLocallyOwned)...)
			continue
		}
		if info.Distance < continueDistanceThreshold && currentStep-info.LastContinueStep >= continueSubstepGap {
			info.LastContinueStep = currentStep
			events = append(events, emit(info, EventContinue, isLocallyOwned)...)
		}
	}
	return events
}

func emit(info *ContactInfo, t EventType, isLocallyOwned func(BodyHandle) bool) []CollisionEvent {
	if isLocallyOwned != nil && !isLocallyOwned(info.A) && !isLocallyOwned(info.B) {
		return nil
	}
	idA, idB := info.A, info.B
	penetration := info.Penetration
	if isLocallyOwned != nil && !isLocallyOwned(idA) {
		idA, idB = idB, idA
		penetration = penetration.Mul(-1)
	}
	return []CollisionEvent{{Type: t, IDA: idA, IDB: idB, Penetration: penetration}}
}
