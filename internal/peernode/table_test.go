package peernode

import "testing"

func TestAddInitiatorThenAddResponderRejectsDuplicateRemoteID(t *testing.T) {
	table := NewTable()
	if err := table.AddInitiator(NewInitiatorNode("bob", "sess-1")); err != nil {
		t.Fatalf("add initiator: %v", err)
	}
	if err := table.AddResponder(NewResponderNode("bob", "sess-2", "go", "0.1.0")); err != ErrAlreadyPresent {
		t.Fatalf("expected ErrAlreadyPresent, got %v", err)
	}
}

func TestGetReturnsFromEitherTable(t *testing.T) {
	table := NewTable()
	initiator := NewInitiatorNode("bob", "sess-1")
	responder := NewResponderNode("carl", "sess-2", "go", "0.1.0")
	_ = table.AddInitiator(initiator)
	_ = table.AddResponder(responder)

	got, ok := table.Get("bob")
	if !ok || got != initiator {
		t.Fatalf("expected to find initiator bob")
	}
	got, ok = table.Get("carl")
	if !ok || got != responder {
		t.Fatalf("expected to find responder carl")
	}
	if _, ok := table.Get("dave"); ok {
		t.Fatalf("expected dave to be absent")
	}
}

func TestRemoveDeletesFromWhicheverTableHoldsIt(t *testing.T) {
	table := NewTable()
	_ = table.AddInitiator(NewInitiatorNode("bob", "sess-1"))
	_ = table.AddResponder(NewResponderNode("carl", "sess-2", "go", "0.1.0"))

	table.Remove("bob")
	table.Remove("carl")

	if table.Has("bob") || table.Has("carl") {
		t.Fatalf("expected both entries removed")
	}
}

func TestAllConnectedFiltersByState(t *testing.T) {
	table := NewTable()
	connected := NewInitiatorNode("bob", "sess-1")
	connected.State = StateConnected
	negotiating := NewResponderNode("carl", "sess-2", "go", "0.1.0")
	negotiating.State = StateDescriptionsExchange

	_ = table.AddInitiator(connected)
	_ = table.AddResponder(negotiating)

	got := table.AllConnected()
	if len(got) != 1 || got[0] != connected {
		t.Fatalf("expected only the connected node, got %v", got)
	}
}

func TestInitiatorsNotConnectedExcludesConnectedAndResponders(t *testing.T) {
	table := NewTable()
	notConnected := NewInitiatorNode("bob", "sess-1")
	connected := NewInitiatorNode("carl", "sess-2")
	connected.State = StateConnected
	responder := NewResponderNode("dave", "sess-3", "go", "0.1.0")

	_ = table.AddInitiator(notConnected)
	_ = table.AddInitiator(connected)
	_ = table.AddResponder(responder)

	got := table.InitiatorsNotConnected()
	if len(got) != 1 || got[0] != notConnected {
		t.Fatalf("expected only the not-connected initiator, got %v", got)
	}
}

func TestNotConnectedSpansBothRoles(t *testing.T) {
	table := NewTable()
	initiatorPending := NewInitiatorNode("bob", "sess-1")
	responderPending := NewResponderNode("carl", "sess-2", "go", "0.1.0")
	connected := NewInitiatorNode("dave", "sess-3")
	connected.State = StateConnected

	_ = table.AddInitiator(initiatorPending)
	_ = table.AddResponder(responderPending)
	_ = table.AddInitiator(connected)

	got := table.NotConnected()
	if len(got) != 2 {
		t.Fatalf("expected 2 not-connected nodes across both roles, got %d", len(got))
	}
}
