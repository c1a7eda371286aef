// Package broker implements §4.H: the broker connection lifecycle —
// authenticated connect, involuntary-disconnect classification, bounded
// reconnection, and graceful voluntary disconnect. It also implements
// peernode.Signaler (signaler.go), turning the abstract per-pair signaling
// calls into socket emits against the Broker.
package broker

// Event names are this node's own socket sub-protocol (§4.B/§4.D: the wire
// type names are an implementation choice, the semantics are fixed).
const (
	EventAuthenticated     = "AUTHENTICATED"
	EventConnectionAttempt = "CONNECTION_ATTEMPT"
	EventConnectionAccept  = "CONNECTION_ACCEPTANCE"
	EventConnectionRefuse  = "CONNECTION_REFUSAL"
	EventIncomingDisabled  = "INCOMING_CONNECTIONS_NOT_ALLOWED"
	EventICEFromInitiator  = "ICE_CANDIDATES_EXCHANGE_I_TO_R"
	EventICEFromResponder  = "ICE_CANDIDATES_EXCHANGE_R_TO_I"
	EventSocketMsgExchange = "SOCKET_MSG_EXCHANGE"
	EventAreNodesConnected = "ARE_NODES_CONNECTED_TO_BROKER"
)
