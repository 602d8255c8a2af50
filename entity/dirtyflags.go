package entity

// DirtyFlags is a fixed 16-bit field of pending-change bits on an Entity.
// The HARD/EASY split mirrors spec.md §6: HARD bits force a MotionState to
// be pulled out of the broadphase and reinserted because they change
// collision-group membership or backend motion type; EASY bits are applied
// in place.
type DirtyFlags uint16

const (
	Position DirtyFlags = 1 << iota
	Rotation
	LinearVelocity
	AngularVelocity
	Gravity
	Mass
	Material
	Shape
	CollisionGroup
	MotionType
	SimulatorId
	SimulationOwnershipPriority
	PhysicsActivation
	Transform
	Velocities
	DynamicData
)

// Hard is the set of flags that require removing and re-adding the body to
// the broadphase (spec.md §6).
const Hard = MotionType | Shape | CollisionGroup

// Easy is the nine flags MotionState.HandleEasyChanges applies (spec.md §4.D).
// Gravity, Transform, Velocities and DynamicData are in neither Easy nor Hard.
const Easy = Position | Rotation | LinearVelocity | AngularVelocity |
	Material | Mass | SimulatorId | SimulationOwnershipPriority | PhysicsActivation

// Has reports whether all bits in mask are set in f.
func (f DirtyFlags) Has(mask DirtyFlags) bool { return f&mask == mask }

// Any reports whether any bit in mask is set in f.
func (f DirtyFlags) Any(mask DirtyFlags) bool { return f&mask != 0 }

// Set returns f with mask bits set.
func (f DirtyFlags) Set(mask DirtyFlags) DirtyFlags { return f | mask }

// Clear returns f with mask bits cleared.
func (f DirtyFlags) Clear(mask DirtyFlags) DirtyFlags { return f &^ mask }
