package ownerwire

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wildspark-labs/physcore/entity"
)

type fakeTransport struct {
	edits []EntityEdit
	bids  []Bid
}

func (f *fakeTransport) SendEntityEdit(e EntityEdit) { f.edits = append(f.edits, e) }
func (f *fakeTransport) SendBid(b Bid)                { f.bids = append(f.bids, b) }

func TestSenderSendBidTranslatesExpiryThroughSkew(t *testing.T) {
	transport := &fakeTransport{}
	simulator := entity.SimulatorID(uuid.New())
	sender := &Sender{Transport: transport, Simulator: simulator, Skew: 2 * time.Second}

	e := &fakeEntity{id: 1}
	ms := newMotionState(e)
	ms.OutgoingPriority = entity.PriorityVolunteer
	ms.NextOwnershipBid = time.Unix(500, 0)

	sender.SendBid(ms)

	if len(transport.bids) != 1 {
		t.Fatalf("expected exactly one bid sent, got %d", len(transport.bids))
	}
	got := transport.bids[0]
	if got.EntityID != 1 || got.Simulator != simulator {
		t.Fatalf("bid identity wrong: %+v", got)
	}
	want := time.Unix(502, 0)
	if !got.Expires.Equal(want) {
		t.Fatalf("expected skew-corrected expiry %v, got %v", want, got.Expires)
	}
}

func TestSenderSendOwnedUpdateForwardsEdit(t *testing.T) {
	transport := &fakeTransport{}
	sender := &Sender{Transport: transport}

	e := &fakeEntity{id: 9}
	ms := newMotionState(e)

	sender.SendOwnedUpdate(ms, 3)

	if len(transport.edits) != 1 || transport.edits[0].EntityID != 9 {
		t.Fatalf("expected one edit forwarded for entity 9, got %+v", transport.edits)
	}
}

func TestSenderSendReleaseForwardsEdit(t *testing.T) {
	transport := &fakeTransport{}
	sender := &Sender{Transport: transport}

	e := &fakeEntity{id: 4}
	ms := newMotionState(e)

	sender.SendRelease(ms)

	if len(transport.edits) != 1 || transport.edits[0].EntityID != 4 {
		t.Fatalf("expected one edit forwarded for entity 4, got %+v", transport.edits)
	}
}
