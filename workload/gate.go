// Package workload implements the region-gating policy of spec.md §4.K:
// given a per-entity Region classification from the external workload
// oracle (entity.WorkloadSpace), decide whether that entity is admitted to
// full physics, to the simple-kinematic pass, or neither. Grounded on the
// teacher's GameMatch tick loop deciding per-object whether an update is
// "in range" before touching it (game.go), generalized into the two
// region-threshold predicates spec.md names explicitly.
package workload

import "github.com/wildspark-labs/physcore/entity"

// PhysicalAdmission is spec.md §4.K's physical-admission rule: an entity is
// admitted to full rigid-body physics only inside R1/R2 and only when it
// wants to be physical.
func PhysicalAdmission(region entity.Region, e entity.Entity) bool {
	return region < entity.R3 && e.ShouldBePhysical()
}

// SimpleKinematicAdmission is spec.md §4.K's simple-kinematic-admission
// rule: entities moving relative to a parent stay kinematically integrated
// one region further out than full physics reaches.
func SimpleKinematicAdmission(region entity.Region, e entity.Entity) bool {
	return region <= entity.R3 && e.IsMovingRelativeToParent()
}
