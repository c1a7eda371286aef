package crolangp2p

// DirectMsgCallback handles an inbound broker-relayed message on one
// channel (§4.J send_socket_msg's receiving side).
type DirectMsgCallback func(from string, msg string)

// IncomingCallbacks is the user callback surface registered via
// AllowIncoming (§4.F responder accept flow, §4.J allow_incoming).
type IncomingCallbacks struct {
	// OnConnectionAttempt is the ONLY callback invoked synchronously on the
	// event loop (§4.F): it must not block. Returning false refuses the
	// pairing.
	OnConnectionAttempt func(id, platform, version string) bool
	OnConnectionSuccess func(node *NodeHandle)
	OnDisconnection     func(id string)
}

// BrokerCallbacks is the user callback surface for broker-lifecycle events
// (§4.H, §4.J).
type BrokerCallbacks struct {
	OnReconnectionAttempt      func(attempt int)
	OnSuccessfullyReconnected  func()
	OnInvoluntaryDisconnection func(cause InvoluntaryDisconnectionCause)
}

// ConnectCallbacks is the per-target callback pair supplied to
// ConnectToMultipleAsync/ConnectToSingleAsync (§4.G, §4.J).
type ConnectCallbacks struct {
	OnConnectionSuccess func(node *NodeHandle)
	OnConnectionFailed  func(remoteID string, err *P2PConnectError)
}
