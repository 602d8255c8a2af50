package ownerwire

import (
	"time"

	"github.com/wildspark-labs/physcore/entity"
	"github.com/wildspark-labs/physcore/motionstate"
)

// Transport is the host's outgoing-packet surface: given a built EntityEdit
// or Bid, put it on the wire. Encoding to bytes and the network write are
// out of scope here (spec.md §1 non-goal: "wire codec details of the
// outgoing edit packet").
type Transport interface {
	SendEntityEdit(EntityEdit)
	SendBid(Bid)
}

// Sender implements simulation.UpdateSender by structural typing: it builds
// the packets ownerwire knows how to build and hands them to a Transport,
// leaving simulation.Coordinator with no import of this package at all.
type Sender struct {
	Transport Transport
	Simulator entity.SimulatorID
	Skew      time.Duration
}

// SendBid builds and forwards a priority bid for ms, translating its local
// expiry through LocalToServer before handing it to the transport.
func (s *Sender) SendBid(ms *motionstate.MotionState) {
	localExpiry := ms.NextOwnershipBid
	bid := BuildBid(ms, s.Simulator, localExpiry)
	bid.Expires = LocalToServer(bid.Expires, s.Skew)
	s.Transport.SendBid(bid)
}

// SendOwnedUpdate builds and forwards an authoritative update for ms. step
// is accepted to satisfy simulation.UpdateSender's signature; the packet
// itself carries no step number (spec.md §4.J's field list has none).
func (s *Sender) SendOwnedUpdate(ms *motionstate.MotionState, step uint32) {
	s.Transport.SendEntityEdit(BuildEntityEdit(ms, nil))
}

// SendRelease forwards a release the same way an owned update goes out,
// but with SimulationOwner set to NilSimulatorID and SimulationPriority set
// to zero, whatever the entity still holds when simulation.Coordinator calls
// it (spec.md §4.G change_entity_internal).
func (s *Sender) SendRelease(ms *motionstate.MotionState) {
	edit := BuildEntityEdit(ms, nil)
	edit.SimulationOwner = entity.NilSimulatorID
	edit.SimulationPriority = 0
	s.Transport.SendEntityEdit(edit)
}
