package dynamics

// Kind tags the variant of a Dynamic (spec.md §3.1, Design Notes §9). Go
// has no inheritance; Kind drives a dispatch table instead of a type
// hierarchy.
type Kind uint8

const (
	KindOffset Kind = iota
	KindTractor
	KindTravelOriented
	KindHold
	KindFarGrab
	KindHinge
	KindSlider
	KindBallSocket
	KindConeTwist
	KindMotor
)

func (k Kind) String() string {
	switch k {
	case KindOffset:
		return "offset"
	case KindTractor:
		return "tractor"
	case KindTravelOriented:
		return "travel-oriented"
	case KindHold:
		return "hold"
	case KindFarGrab:
		return "far-grab"
	case KindHinge:
		return "hinge"
	case KindSlider:
		return "slider"
	case KindBallSocket:
		return "ball-socket"
	case KindConeTwist:
		return "cone-twist"
	case KindMotor:
		return "motor"
	default:
		return "unknown"
	}
}

// DecodeKind maps a wire tag to a Kind. "spring" is a deprecated alias for
// "tractor" (spec.md §9 Open Questions: "treat both as aliases for Tractor
// on read").
func DecodeKind(wireTag string) (Kind, bool) {
	switch wireTag {
	case "offset":
		return KindOffset, true
	case "tractor", "spring":
		return KindTractor, true
	case "travel-oriented":
		return KindTravelOriented, true
	case "hold":
		return KindHold, true
	case "far-grab":
		return KindFarGrab, true
	case "hinge":
		return KindHinge, true
	case "slider":
		return KindSlider, true
	case "ball-socket":
		return KindBallSocket, true
	case "cone-twist":
		return KindConeTwist, true
	case "motor":
		return KindMotor, true
	default:
		return 0, false
	}
}

// IsAction reports whether k runs as a per-substep corrective-velocity
// callback rather than a persistent backend constraint.
func (k Kind) IsAction() bool {
	switch k {
	case KindOffset, KindTractor, KindTravelOriented, KindHold, KindFarGrab, KindMotor:
		return true
	default:
		return false
	}
}

// IsConstraint is the complement of IsAction.
func (k Kind) IsConstraint() bool { return !k.IsAction() }
