package ownerwire

import "time"

// floorExpiry is the "floor of 1" spec.md §4.J names: a translated expiry
// timestamp never reaches or crosses the epoch, since zero means "already
// expired" to every consumer on the other side of the wire.
const floorExpiry = 1 * time.Nanosecond

// LocalToServer translates a locally-timestamped expiry into the server's
// clock: t + skew, floored at 1ns (spec.md §4.J, law L3). skew is
// server-minus-local, the same value NTP-style round-trip estimation
// produces.
func LocalToServer(t time.Time, skew time.Duration) time.Time {
	return floorAtOne(t.Add(skew))
}

// ServerToLocal is LocalToServer's inverse: t − skew, floored at 1ns.
// Composing the two is the identity except where the floor kicks in
// (spec.md §4.J law L3: "localToServer ∘ serverToLocal = id except when the
// result would become ≤0, in which case the mapped value is exactly 1").
func ServerToLocal(t time.Time, skew time.Duration) time.Time {
	return floorAtOne(t.Add(-skew))
}

func floorAtOne(t time.Time) time.Time {
	epoch := time.Unix(0, 0)
	if !t.After(epoch) {
		return epoch.Add(floorExpiry)
	}
	return t
}
