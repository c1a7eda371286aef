package peernode

import (
	"testing"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
)

func TestNextMsgIDIncrementsFromZero(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	if got := n.NextMsgID(); got != 0 {
		t.Fatalf("expected first id 0, got %d", got)
	}
	if got := n.NextMsgID(); got != 1 {
		t.Fatalf("expected second id 1, got %d", got)
	}
}

func TestSessionMatches(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	if !n.SessionMatches("sess-1") {
		t.Fatalf("expected session to match")
	}
	if n.SessionMatches("sess-2") {
		t.Fatalf("expected session mismatch to be rejected")
	}
}

func TestQueueOrSendOutgoingICEQueuesDuringDescriptionsExchange(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	n.State = StateDescriptionsExchange

	if ready := n.QueueOrSendOutgoingICE(candidate("c1")); ready {
		t.Fatalf("expected candidate to be queued, not ready")
	}
	if ready := n.QueueOrSendOutgoingICE(candidate("c2")); ready {
		t.Fatalf("expected second candidate to be queued too")
	}

	drained := n.DrainSuspendedOutgoingICE()
	if len(drained) != 2 || drained[0].SDP != "c1" || drained[1].SDP != "c2" {
		t.Fatalf("unexpected drained candidates: %+v", drained)
	}
	if len(n.DrainSuspendedOutgoingICE()) != 0 {
		t.Fatalf("expected drain to empty the queue")
	}
}

func TestQueueOrSendOutgoingICEReadyDuringCandidatesExchange(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	n.State = StateICECandidatesExchange

	if ready := n.QueueOrSendOutgoingICE(candidate("c1")); !ready {
		t.Fatalf("expected candidate to be immediately ready")
	}
	if len(n.SuspendedOutgoingICE) != 0 {
		t.Fatalf("expected nothing queued once ready")
	}
}

func TestQueueOrSendOutgoingICEDiscardedInOtherStates(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	n.State = StateCreated

	if ready := n.QueueOrSendOutgoingICE(candidate("c1")); ready {
		t.Fatalf("expected candidate to be discarded, not ready")
	}
	if len(n.SuspendedOutgoingICE) != 0 {
		t.Fatalf("expected nothing queued in CREATED state")
	}
}

func TestQueueOrApplyIncomingICESymmetry(t *testing.T) {
	n := NewResponderNode("bob", "sess-1", "go", "0.1.0")
	n.State = StateDescriptionsExchange
	if ready := n.QueueOrApplyIncomingICE(candidate("c1")); ready {
		t.Fatalf("expected queue during descriptions exchange")
	}

	n.State = StateICECandidatesExchange
	if ready := n.QueueOrApplyIncomingICE(candidate("c2")); !ready {
		t.Fatalf("expected ready during candidates exchange")
	}

	drained := n.DrainSuspendedIncomingICE()
	if len(drained) != 1 || drained[0].SDP != "c1" {
		t.Fatalf("unexpected drained incoming candidates: %+v", drained)
	}
}

func TestForceCloseNegotiatingFiresOnConnectionFailedOnce(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	n.State = StateDescriptionsExchange

	var failures []FailureReason
	var disconnections int
	var closedCount int
	n.OnConnectionFailed = func(reason FailureReason) { failures = append(failures, reason) }
	n.OnDisconnection = func(string) { disconnections++ }
	n.OnClosed = func() { closedCount++ }

	n.ForceClose(StateTimeout, FailureConnectionTimeout)
	n.ForceClose(StateTimeout, FailureNegotiationError) // idempotent: must be a no-op

	if len(failures) != 1 || failures[0] != FailureConnectionTimeout {
		t.Fatalf("expected exactly one CONNECTION_TIMEOUT failure, got %v", failures)
	}
	if disconnections != 0 {
		t.Fatalf("did not expect OnDisconnection to fire for a never-connected node")
	}
	if closedCount != 1 {
		t.Fatalf("expected OnClosed to fire exactly once, got %d", closedCount)
	}
	if n.State != StateTimeout {
		t.Fatalf("expected state TIMEOUT, got %v", n.State)
	}
}

func TestForceCloseConnectedFiresOnDisconnectionNotOnConnectionFailed(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	n.TransitionToConnected()

	var failures int
	var disconnectedWith string
	n.OnConnectionFailed = func(FailureReason) { failures++ }
	n.OnDisconnection = func(remoteID string) { disconnectedWith = remoteID }

	n.ForceClose(StateDisconnected, "")

	if failures != 0 {
		t.Fatalf("did not expect OnConnectionFailed for a connected node")
	}
	if disconnectedWith != "bob" {
		t.Fatalf("expected OnDisconnection with remote id bob, got %q", disconnectedWith)
	}
}

func TestTransitionToConnectedFiresSuccessCallback(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	var succeeded *Node
	n.OnConnectionSuccess = func(got *Node) { succeeded = got }

	n.TransitionToConnected()

	if n.State != StateConnected {
		t.Fatalf("expected CONNECTED state")
	}
	if succeeded != n {
		t.Fatalf("expected OnConnectionSuccess to receive this node")
	}
}

func TestOnMessageDispatch(t *testing.T) {
	n := NewInitiatorNode("bob", "sess-1")
	var got []byte
	n.OnMessage("chat", func(payload []byte) { got = payload })

	n.dispatchMessage("chat", []byte("hi"))
	if string(got) != "hi" {
		t.Fatalf("expected dispatched payload 'hi', got %q", got)
	}

	n.dispatchMessage("other", []byte("ignored"))
	if string(got) != "hi" {
		t.Fatalf("expected no dispatch for unregistered channel")
	}
}

func candidate(sdp string) signalcodec.CandidateWire {
	return signalcodec.CandidateWire{SDP: sdp}
}
