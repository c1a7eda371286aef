// Package provider defines the abstract collaborator contracts (§4.B):
// the signaling Socket, the WebRTC PeerConnection/DataChannel factory, and
// small timing/executor helpers. One production implementation of the
// Socket and the peer-connection contracts exists (internal/providerws,
// internal/providerrtc); the only in-memory test double is the fake
// DataChannel in internal/framing's tests. Everything above this package
// talks only to these interfaces, never to gorilla/websocket or pion/webrtc
// directly.
package provider

import "context"

// AckStatus is the normalized result of an ack-bearing socket emit (§4.B, §6.2).
// Any token outside {OK, the enumerated error tokens} normalizes to Error.
type AckStatus string

const (
	AckOK    AckStatus = "OK"
	AckError AckStatus = "ERROR"
)

// AckResponse is what an emit's ack callback receives: a normalized status
// plus the raw payload (if any) for callers that need a typed sub-result
// (e.g. the connectivity query's per-id map).
type AckResponse struct {
	Status  AckStatus
	Token   string // specific enumerated error token, if any (e.g. "client_already_connected")
	Payload []byte // raw JSON payload of the single ack argument, if present
}

// Socket is the abstract bidirectional event+ack signaling transport (§4.B).
// One production implementation exists (internal/providerws, over
// gorilla/websocket).
type Socket interface {
	Connect(ctx context.Context) error
	Disconnect()
	// Emit sends an event with a JSON payload. If ack is non-nil, it is
	// invoked exactly once with the normalized ack response (or a
	// synthesized AckError response if the socket disconnects first).
	Emit(event string, payload []byte, ack func(AckResponse))
	// On registers a handler for an inbound event. The handler receives
	// the raw JSON payload; at most one handler is active per event name.
	On(event string, handler func(payload []byte))
	// OnDisconnect registers the handler invoked exactly once when the
	// socket ends for any reason other than a caller-initiated Disconnect
	// (§4.H involuntary disconnection). err is nil if the remote end closed
	// cleanly; a broker-supplied close reason, if any, arrives as message.
	OnDisconnect(handler func(message string, err error))
	Connected() bool
}

// ConnectionState mirrors the WebRTC PeerConnection's coarse connection
// state machine (§4.B).
type ConnectionState int

const (
	ConnectionStateNew ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	ConnectionStateClosed
)

// DataChannelState mirrors the WebRTC DataChannel's state machine (§4.B).
type DataChannelState int

const (
	DataChannelStateConnecting DataChannelState = iota
	DataChannelStateOpen
	DataChannelStateClosing
	DataChannelStateClosed
)

// SessionDescription is the SDP offer/answer/pr-answer/rollback pair
// exchanged during signaling (§6.1).
type SessionDescription struct {
	Type string // "offer" | "answer" | "pr-answer" | "rollback"
	SDP  string
}

// ICECandidate is a trickled ICE candidate (§6.1).
type ICECandidate struct {
	SDP           string
	SDPMid        string
	SDPMLineIndex int
	ServerURL     string
}

// RTCConfig is the negotiated ICE/bundle/rtcp-mux policy received from the
// Broker at authenticate time (§6.6).
type RTCConfig struct {
	ICEServers        []ICEServer
	ICETransportPolicy string // ALL | RELAY | NO_HOST | NONE
	BundlePolicy       string // BALANCED | MAX_COMPAT | MAX_BUNDLE
	RTCPMuxPolicy      string // REQUIRE | NEGOTIATE
}

// ICEServer is one entry of RTCConfig.ICEServers.
type ICEServer struct {
	URLs     []string
	Username string
	Password string
}

// PeerConnectionFactory creates peer connections (§4.B).
type PeerConnectionFactory interface {
	Create(
		config RTCConfig,
		onICECandidate func(*ICECandidate),
		onConnectionStateChange func(ConnectionState),
		onDataChannel func(DataChannel),
	) (PeerConnection, error)
}

// PeerConnection is the abstract WebRTC peer connection (§4.B).
type PeerConnection interface {
	CreateDataChannel() (DataChannel, error)
	CreateOffer(ok func(SessionDescription), err func(error))
	CreateAnswer(ok func(SessionDescription), err func(error))
	SetLocalDescription(d SessionDescription, ok func(), err func(error))
	SetRemoteDescription(d SessionDescription, ok func(), err func(error))
	AddICECandidate(c ICECandidate) error
	ConnectionState() ConnectionState
	Close() error
}

// DataChannel is the abstract WebRTC data channel (§4.B).
type DataChannel interface {
	State() DataChannelState
	RegisterObserver(onState func(DataChannelState), onMessage func([]byte))
	Send(data []byte) error
	BufferedAmount() uint64
	// SetBufferedAmountLowThreshold arms OnBufferedAmountLow to fire once
	// BufferedAmount drops to or below threshold. Backs the preferred
	// condition-variable backpressure path (§9); callers that need the
	// 1ms-busy-wait fallback may ignore this and poll BufferedAmount instead.
	SetBufferedAmountLowThreshold(threshold uint64)
	OnBufferedAmountLow(fn func())
	Close() error
}

// Cancelable is returned by Timer.ScheduleOnce; calling Cancel before the
// delay elapses prevents the callback from firing.
type Cancelable interface {
	Cancel()
}

// Timer schedules one-shot delayed callbacks (§4.B). Backs per-Node
// connection timeouts and multipart reassembly timeouts.
type Timer interface {
	ScheduleOnce(delayMs int, callback func()) Cancelable
}

// Executor dispatches user-visible callbacks off the event-loop worker
// (§4.B, §5): "I/O callbacks ... MUST post an Event... User-visible
// callbacks are dispatched via a separate executor."
type Executor interface {
	Run(fn func())
}
