// Package state holds the §4.C shared, process-wide broker-session
// container: local identity, socket handle, RTC configuration, the
// reconnection-attempt counter, and the direct-message and incoming
// callbacks. The node tables live in internal/peernode. All fields are only
// ever read or mutated on the event-loop worker; nothing here takes its own
// lock, by the same discipline the teacher's internal/app.Client enforces
// around its TCP connection table.
package state

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// DirectMsgCallbacks is the per-channel relay-message callback surface
// supplied at connect time (§4.H: "socket is created with query
// {id, version, runtime, optional auth data}").
type DirectMsgCallbacks map[string]func(from string, msg string)

// IncomingCallbacks is the user callback surface for inbound pairing
// attempts (§4.F responder accept flow), registered via allow_incoming.
type IncomingCallbacks struct {
	OnConnectionAttempt func(id, platform, version string) bool
	OnConnectionSuccess func(handle any)
	OnDisconnection     func(id string)
}

// Store is the shared broker-session state (§4.C). Lifecycle:
// empty → initialized on broker connect → flushed on disconnect. Flush does
// NOT clear connected Nodes (those are tracked elsewhere, in the peernode
// tables owned by the event loop, and outlive a Flush).
type Store struct {
	LocalID  string
	BrokerURL string

	Socket    provider.Socket
	RTCConfig provider.RTCConfig

	ReconnectionAttempts int

	DirectMsgCallbacks DirectMsgCallbacks
	Incoming           *IncomingCallbacks
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Init populates the store on a successful broker authentication.
func (s *Store) Init(localID, brokerURL string, socket provider.Socket, rtcConfig provider.RTCConfig) {
	s.LocalID = localID
	s.BrokerURL = brokerURL
	s.Socket = socket
	s.RTCConfig = rtcConfig
	s.ReconnectionAttempts = 0
	s.DirectMsgCallbacks = make(DirectMsgCallbacks)
}

// Flush clears everything except connected Nodes (§4.C): reconnection
// attempts, direct-relay callbacks, local identity (to the empty sentinel),
// socket, RTC config, and incoming-callbacks.
func (s *Store) Flush() {
	s.LocalID = ""
	s.BrokerURL = ""
	s.Socket = nil
	s.RTCConfig = provider.RTCConfig{}
	s.ReconnectionAttempts = 0
	s.DirectMsgCallbacks = nil
	s.Incoming = nil
}

// Connected reports whether the store currently represents an authenticated
// broker session.
func (s *Store) Connected() bool {
	return s.Socket != nil && s.LocalID != ""
}
