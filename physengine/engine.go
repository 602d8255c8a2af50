package physengine

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wildspark-labs/physcore/character"
	"github.com/wildspark-labs/physcore/dynamics"
	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/motionstate"
)

// upAxis is the canonical up axis used when deriving character input that
// this world doesn't otherwise source (spec.md §4.E "currentUp"); a host
// wiring a real avatar supplies Input.Up itself through a richer driver
// loop, this is the fallback for a bare physics-only tick.
var upAxis = mgl64.Vec3{0, 1, 0}

// FixedSubstep and MaxSubsteps are exported so simulation can reconstruct
// how many substeps a tick actually ran (spec.md §4.D
// remote_simulation_out_of_sync needs "numSteps" to repeat its rotation
// integration the same number of times StepSimulation did).
const (
	FixedSubstep = 1.0 / 90.0
	MaxSubsteps  = 6

	fixedSubstep = FixedSubstep
	maxSubsteps  = MaxSubsteps
)

// Addition is a body ready to be inserted into the world (spec.md §4.G
// build_objects_to_add hands these to PhysicsEngine).
type Addition struct {
	Entity entity.EntityID
	Motion *motionstate.MotionState
	Body   Body
}

// Transaction is the add/remove batch StepSimulation's caller applies before
// stepping (spec.md §4.F table: "processes a Transaction of add/remove/
// change motion-states").
type Transaction struct {
	Adds    []Addition
	Removes []BodyHandle
}

// World is PhysicsEngine (spec.md §4.F): it owns the backend, the contact
// map, and the active-static-body Aabb bookkeeping, and drives the fixed
// substep loop with its per-substep callback. Generalized from the teacher's
// PhysicsEngine.UpdatePhysics broad+narrow phase loop (physics_engine.go),
// replacing its flat O(n^2) 2D sweep with a persistent contact-map keyed by
// body pair and a real backend substep callback.
type World struct {
	backend Backend
	dynReg  *dynamics.Registry

	bodies         map[BodyHandle]*trackedBody
	handleByEntity map[entity.EntityID]BodyHandle

	contacts *contactMap
	step     uint32

	activeStaticBodies map[BodyHandle]struct{}

	character      *character.Controller
	characterBody  BodyHandle
	characterProbe character.FloorProbe
	characterDirty bool
	hasCharacter   bool

	contactCount   prometheus.Counter
	infectionCount prometheus.Counter
}

// NewWorld constructs an empty World driving backend, with dynReg consulted
// for constraint-based ownership infection (spec.md §4.C: "an internal
// dynamics_by_body map... used for constraint-based ownership infection").
func NewWorld(backend Backend, dynReg *dynamics.Registry, reg prometheus.Registerer) *World {
	w := &World{
		backend:            backend,
		dynReg:             dynReg,
		bodies:             make(map[BodyHandle]*trackedBody),
		handleByEntity:     make(map[entity.EntityID]BodyHandle),
		contacts:           newContactMap(),
		activeStaticBodies: make(map[BodyHandle]struct{}),
		contactCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_physengine_contacts_total",
			Help: "Contact-map upserts processed across all substeps.",
		}),
		infectionCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "physcore_physengine_ownership_infections_total",
			Help: "Ownership bumps applied by contact or constraint infection.",
		}),
	}
	if reg != nil {
		reg.MustRegister(w.contactCount, w.infectionCount)
	}
	return w
}

// SetCharacter wires an avatar's controller into the world's pre/post
// simulation hooks (spec.md §4.F step 2/4).
func (w *World) SetCharacter(c *character.Controller, body BodyHandle, probe character.FloorProbe) {
	w.character = c
	w.characterBody = body
	w.characterProbe = probe
	w.hasCharacter = true
}

// MarkCharacterDirty flags the character body for remove/re-add next
// StepSimulation (spec.md §4.F step 2).
func (w *World) MarkCharacterDirty() { w.characterDirty = true }

// ApplyTransaction processes removes then adds (spec.md §5 tick ordering:
// "process removes → process adds"), and refreshes the Aabb of any body
// marked active-static by an intervening easy change.
func (w *World) ApplyTransaction(tx Transaction) {
	for _, h := range tx.Removes {
		tb, ok := w.bodies[h]
		if !ok {
			continue
		}
		w.backend.RemoveBody(tb.body)
		delete(w.bodies, h)
		delete(w.handleByEntity, tb.entity)
		delete(w.activeStaticBodies, h)
	}
	for _, a := range tx.Adds {
		h := a.Body.Handle()
		w.bodies[h] = &trackedBody{body: a.Body, ms: a.Motion, entity: a.Entity}
		w.handleByEntity[a.Entity] = h
		w.backend.InsertBody(a.Body)
	}
	for h := range w.activeStaticBodies {
		if tb, ok := w.bodies[h]; ok {
			w.backend.UpdateSingleAabb(tb.body)
		}
	}
}

// Reinsert implements motionstate.Engine: pull ms's body from the broadphase
// and reinsert it, because a HARD dirty flag changed its collision-group
// membership (spec.md §4.D, §9 "Dirty-flag set applied to EASY/HARD
// partitions").
func (w *World) Reinsert(ms *motionstate.MotionState) {
	for h, tb := range w.bodies {
		if tb.ms == ms {
			w.backend.RemoveBody(tb.body)
			w.backend.InsertBody(tb.body)
			_ = h
			return
		}
	}
}

// ProcessChange applies flags to ms's body via HandleHardAndEasyChanges and,
// if ms's body is static and the change touched pose, marks it active for
// Aabb refresh (spec.md §4.F "Active-static bookkeeping").
func (w *World) ProcessChange(ms *motionstate.MotionState, flags *entity.DirtyFlags) error {
	var tb *trackedBody
	for _, candidate := range w.bodies {
		if candidate.ms == ms {
			tb = candidate
			break
		}
	}
	touchedPose := flags.Has(entity.Position) || flags.Has(entity.Rotation)

	if err := ms.HandleHardAndEasyChanges(flags, w); err != nil {
		return err
	}

	if tb != nil && tb.body.IsStatic() && touchedPose {
		w.activeStaticBodies[tb.body.Handle()] = struct{}{}
	}
	return nil
}

// StepResult is what one StepSimulation call produces: the tick's derived
// collision events plus how many fixed substeps actually ran (the caller
// needs the latter to replay RemoteSimulationOutOfSync's rotation
// integration the same number of times, spec.md §4.D).
type StepResult struct {
	Events      []CollisionEvent
	SubstepsRun int
}

// StepSimulation runs one physics tick (spec.md §4.F step_simulation):
// CCD config, character controller pre-simulation, N fixed substeps with a
// per-substep contact-map/ownership-infection callback, and character
// controller post-simulation.
func (w *World) StepSimulation(dt float64, now time.Time) StepResult {
	for _, tb := range w.bodies {
		r := tb.body.BoundingRadius()
		tb.body.SetCCD(0.5*r, r)
	}

	if w.hasCharacter {
		if w.characterDirty {
			if tb, ok := w.bodies[w.characterBody]; ok {
				w.backend.RemoveBody(tb.body)
				w.backend.InsertBody(tb.body)
			}
			w.characterDirty = false
		}
		if tb, ok := w.bodies[w.characterBody]; ok {
			hasSupport := w.hasGroundContact(w.characterBody)
			w.character.PreSimulation(w.characterProbe, tb.body, character.Input{
				Up: upAxis,
			}, hasSupport, now)
		}
	}

	substeps := maxSubsteps
	remaining := dt
	ran := 0
	for i := 0; i < substeps && remaining > 0; i++ {
		step := fixedSubstep
		if remaining < step {
			step = remaining
		}
		remaining -= step
		ran++

		manifold := w.backend.StepSubstep(step)
		w.step++
		for _, c := range manifold.Contacts {
			w.contacts.upsert(c, w.step)
			w.contactCount.Inc()
			if c.HasSessionUUID {
				w.doOwnershipInfection(c.A, c.B)
			}
		}
		w.doOwnershipInfectionForConstraints(w.dynReg)
	}

	events := w.contacts.collectEvents(w.step, w.isLocallyOwnedOrCharacter)

	w.backend.SynchronizeMotionStates()
	for h := range w.activeStaticBodies {
		if tb, ok := w.bodies[h]; ok {
			tb.body.SetSleeping(true)
		}
	}
	w.activeStaticBodies = make(map[BodyHandle]struct{})

	if w.hasCharacter {
		w.character.PostSimulation()
	}

	return StepResult{Events: events, SubstepsRun: ran}
}

func (w *World) hasGroundContact(h BodyHandle) bool {
	for k, info := range w.contacts.pairs {
		if (k.a == h || k.b == h) && info.LastStep == w.step {
			return true
		}
	}
	return false
}

func (w *World) isLocallyOwnedOrCharacter(h BodyHandle) bool {
	if w.hasCharacter && h == w.characterBody {
		return true
	}
	tb, ok := w.bodies[h]
	return ok && tb.ms.Ownership == entity.LocallyOwned
}
