package safelanding

// sequenceModulo mirrors SafeLanding::SEQUENCE_MODULO: one past the maximum
// value of the domain's packet sequence counter (a wrapping uint16 in the
// original), so arithmetic across a wraparound stays correct.
const sequenceModulo = 1 << 16

// wrapIncrement advances a sequence number by one, wrapping at
// sequenceModulo the way the domain's packet counter does. Plays the role
// SafeLanding::lessThanWraparound<T> plays for its ordered std::set walk;
// this package keeps the observed set in a plain map and walks the
// expected range directly instead.
func wrapIncrement(n int) int {
	return (n + 1) % sequenceModulo
}
