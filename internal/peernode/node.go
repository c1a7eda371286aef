// Package peernode implements §4.F: the per-pair state machine shared by
// initiator and responder roles, plus the table that owns all live Node
// records. Every Node and the table itself are mutated exclusively by the
// event-loop worker (internal/eventloop) — nothing here takes its own lock
// for state-machine fields, mirroring the single-threaded-cooperative model
// of §5.
package peernode

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/framing"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// Role distinguishes which side of a pairing a Node represents (§3).
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// State is the Node's position in the §4.F state machine.
type State int

const (
	StateCreated State = iota
	StateDescriptionsExchange
	StateICECandidatesExchange
	StateConnected
	StateDisconnected
	StateTimeout
	StateNegotiationError
)

func (s State) negotiating() bool {
	return s == StateCreated || s == StateDescriptionsExchange || s == StateICECandidatesExchange
}

func (s State) terminal() bool {
	return s == StateDisconnected || s == StateTimeout || s == StateNegotiationError
}

// FailureReason enumerates why a Node's negotiation did not reach CONNECTED
// (§7's P2P-connect error kinds, restricted to the per-Node subset).
type FailureReason string

const (
	FailureConnectionTimeout                FailureReason = "CONNECTION_TIMEOUT"
	FailureNegotiationError                 FailureReason = "CONNECTION_NEGOTIATION_ERROR"
	FailureRefusedByRemote                  FailureReason = "CONNECTION_REFUSED_BY_REMOTE_NODE"
	FailureIncomingNotAllowed               FailureReason = "CONNECTIONS_NOT_ALLOWED_ON_REMOTE_NODE"
	FailureRemoteNotConnected               FailureReason = "REMOTE_NODE_NOT_CONNECTED_TO_BROKER"
	FailureClosedByUserForcefully           FailureReason = "CONNECTION_ATTEMPT_CLOSED_BY_USER_FORCEFULLY"
	FailureLocalNotConnected                FailureReason = "LOCAL_NODE_NOT_CONNECTED_TO_BROKER"
	FailureSelfTarget                       FailureReason = "TRIED_TO_CONNECT_TO_SELF"
	FailureAlreadyConnected                 FailureReason = "ALREADY_CONNECTED_TO_REMOTE_NODE"
	FailureBrokerDisconnected               FailureReason = "LOCAL_NODE_NOT_CONNECTED_TO_BROKER"
)

// Node is one record of the Node table (§3): one per remote peer,
// parameterized by Role.
type Node struct {
	RemoteID       string
	SessionID      string
	RemotePlatform string
	RemoteVersion  string
	Role           Role
	State          State

	PC                provider.PeerConnection
	DC                provider.DataChannel
	ConnectionTimeout provider.Cancelable

	// nextOutgoingMsgID is touched off the event-loop worker (SendMsg is
	// called directly from user goroutines, per §5), so it's an atomic
	// counter rather than a plain field like the rest of this struct.
	nextOutgoingMsgID atomic.Int32
	Reassembler       *framing.Reassembler
	Sender            *framing.Sender

	SuspendedOutgoingICE []signalcodec.CandidateWire
	SuspendedIncomingICE []signalcodec.CandidateWire

	// OnConnectionSuccess/OnConnectionFailed fire at most once each, and never
	// both. Initiator Nodes set both (§4.G); responder Nodes set only
	// OnConnectionSuccess (internal/router) and leave OnConnectionFailed nil.
	OnConnectionSuccess func(n *Node)
	OnConnectionFailed  func(reason FailureReason)

	// OnDisconnection fires at most once, only after CONNECTED is reached
	// (§8 property 2), for either role.
	OnDisconnection func(remoteID string)

	messagesMu sync.RWMutex
	onMessage  map[string]func(payload []byte)

	// OnClosed fires once, at the end of ForceClose, regardless of branch —
	// whoever adds this Node to a Table (internal/attempt, internal/router)
	// wires it to remove the record, since a Node holds no reference to the
	// Table it lives in.
	OnClosed func()

	closed bool
}

// NewInitiatorNode constructs a CREATED-state Node for the initiator role.
func NewInitiatorNode(remoteID, sessionID string) *Node {
	return &Node{
		RemoteID:  remoteID,
		SessionID: sessionID,
		Role:      RoleInitiator,
		State:     StateCreated,
		onMessage: make(map[string]func([]byte)),
	}
}

// NewResponderNode constructs a CREATED-state Node for the responder role.
func NewResponderNode(remoteID, sessionID, platform, version string) *Node {
	return &Node{
		RemoteID:       remoteID,
		SessionID:      sessionID,
		RemotePlatform: platform,
		RemoteVersion:  version,
		Role:           RoleResponder,
		State:          StateCreated,
		onMessage:      make(map[string]func([]byte)),
	}
}

// SessionMatches reports whether a received message's session id belongs to
// this Node (§3, §4.F: "Session-id check precedes all per-pair event
// handling").
func (n *Node) SessionMatches(sessionID string) bool {
	return n.SessionID == sessionID
}

// NextMsgID returns the next outgoing msg id and advances the counter (§3).
// Safe to call concurrently from any goroutine.
func (n *Node) NextMsgID() int32 {
	return n.nextOutgoingMsgID.Add(1) - 1
}

// OnMessage registers the callback for a data-channel message channel.
// Safe to call from any goroutine (user-facing NodeHandle API).
func (n *Node) OnMessage(channel string, fn func(payload []byte)) {
	n.messagesMu.Lock()
	defer n.messagesMu.Unlock()
	n.onMessage[channel] = fn
}

func (n *Node) dispatchMessage(channel string, payload []byte) {
	n.messagesMu.RLock()
	fn := n.onMessage[channel]
	n.messagesMu.RUnlock()
	if fn != nil {
		fn(payload)
	}
}

// AttachDataChannel wires the reassembler and sender once the data channel
// exists, and is shared by both the "I created it" (initiator) and "I
// received it via OnDataChannel" (responder) paths.
func (n *Node) AttachDataChannel(dc provider.DataChannel, timer provider.Timer, multipartTimeoutMs int) {
	n.DC = dc
	n.Reassembler = framing.NewReassembler(timer, time.Duration(multipartTimeoutMs)*time.Millisecond, n.dispatchMessage)
	n.Sender = framing.NewSender(dc)
}

// QueueOrSendOutgoingICE queues a local candidate while still in
// DESCRIPTIONS_EXCHANGE, or reports it ready to send immediately once in
// ICE_CANDIDATES_EXCHANGE (§4.F). Any other state discards it.
func (n *Node) QueueOrSendOutgoingICE(c signalcodec.CandidateWire) (readyToSend bool) {
	switch n.State {
	case StateDescriptionsExchange:
		n.SuspendedOutgoingICE = append(n.SuspendedOutgoingICE, c)
		return false
	case StateICECandidatesExchange:
		return true
	default:
		return false
	}
}

// DrainSuspendedOutgoingICE empties and returns the queued outgoing
// candidates, to be flushed once ICE_CANDIDATES_EXCHANGE begins (§4.F).
func (n *Node) DrainSuspendedOutgoingICE() []signalcodec.CandidateWire {
	out := n.SuspendedOutgoingICE
	n.SuspendedOutgoingICE = nil
	return out
}

// QueueOrApplyIncomingICE queues an inbound candidate while still in
// DESCRIPTIONS_EXCHANGE, or reports it ready to apply immediately once in
// ICE_CANDIDATES_EXCHANGE. Any other state discards it.
func (n *Node) QueueOrApplyIncomingICE(c signalcodec.CandidateWire) (readyToApply bool) {
	switch n.State {
	case StateDescriptionsExchange:
		n.SuspendedIncomingICE = append(n.SuspendedIncomingICE, c)
		return false
	case StateICECandidatesExchange:
		return true
	default:
		return false
	}
}

// DrainSuspendedIncomingICE empties and returns the queued inbound candidates.
func (n *Node) DrainSuspendedIncomingICE() []signalcodec.CandidateWire {
	out := n.SuspendedIncomingICE
	n.SuspendedIncomingICE = nil
	return out
}

// ForceClose is the idempotent terminal transition (§4.F). It closes the
// data channel and peer connection as needed, and invokes exactly one of
// {negotiation-closure, connected-closure} — here realized as
// OnConnectionFailed (if still negotiating) or OnDisconnection (if it had
// reached CONNECTED) — never both, and never more than once.
func (n *Node) ForceClose(newState State, reason FailureReason) {
	if n.closed {
		return
	}
	n.closed = true

	wasConnected := n.State == StateConnected
	wasNegotiating := n.State.negotiating()

	if n.ConnectionTimeout != nil {
		n.ConnectionTimeout.Cancel()
	}

	if n.DC != nil {
		switch n.DC.State() {
		case provider.DataChannelStateConnecting, provider.DataChannelStateOpen:
			_ = n.DC.Close()
		}
	}
	if n.PC != nil {
		switch n.PC.ConnectionState() {
		case provider.ConnectionStateNew, provider.ConnectionStateConnecting, provider.ConnectionStateConnected:
			_ = n.PC.Close()
		}
	}

	n.State = newState

	if wasConnected {
		util.Stats.AddNodeClosed()
	}

	switch {
	case wasNegotiating && n.OnConnectionFailed != nil:
		n.OnConnectionFailed(reason)
	case wasConnected && n.OnDisconnection != nil:
		n.OnDisconnection(n.RemoteID)
	}

	if n.OnClosed != nil {
		n.OnClosed()
	}
}

// TransitionToConnected marks the Node CONNECTED, cancels its timeout, and
// fires the success callback if present (§4.F, §8 property 2).
func (n *Node) TransitionToConnected() {
	if n.ConnectionTimeout != nil {
		n.ConnectionTimeout.Cancel()
		n.ConnectionTimeout = nil
	}
	n.State = StateConnected
	util.Stats.AddNodeConnected()
	if n.OnConnectionSuccess != nil {
		n.OnConnectionSuccess(n)
	}
}

