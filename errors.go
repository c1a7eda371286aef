package crolangp2p

import (
	"fmt"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/broker"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
)

// ConnectErrorKind enumerates §7's "Broker connect" error domain.
type ConnectErrorKind string

const (
	ConnectUnknownError                 ConnectErrorKind = "UNKNOWN_ERROR"
	ConnectSocketError                  ConnectErrorKind = "SOCKET_ERROR"
	ConnectClientAlreadyConnected       ConnectErrorKind = "CLIENT_WITH_SAME_ID_ALREADY_CONNECTED"
	ConnectUnauthorized                 ConnectErrorKind = "UNAUTHORIZED"
	ConnectErrorParsingRTCConfiguration ConnectErrorKind = "ERROR_PARSING_RTC_CONFIGURATION"
)

// ConnectError is returned by ConnectToBroker on a failed connect/authenticate.
type ConnectError struct {
	Kind ConnectErrorKind
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("crolangp2p: connect to broker failed: %s", e.Kind)
}

func connectErrorFromCause(cause broker.ConnectCause) *ConnectError {
	if cause == "" {
		return nil
	}
	kind := ConnectUnknownError
	switch cause {
	case broker.ConnectSocketError:
		kind = ConnectSocketError
	case broker.ConnectClientAlreadyConnected:
		kind = ConnectClientAlreadyConnected
	case broker.ConnectUnauthorized:
		kind = ConnectUnauthorized
	case broker.ConnectErrorParsingRTCConfig:
		kind = ConnectErrorParsingRTCConfiguration
	}
	return &ConnectError{Kind: kind}
}

// InvoluntaryDisconnectionCause enumerates §7's "Broker involuntary" domain,
// delivered to OnInvoluntaryDisconnection.
type InvoluntaryDisconnectionCause string

const (
	InvoluntaryMaxReconnectionAttemptsExceeded InvoluntaryDisconnectionCause = "MAX_RECONNECTION_ATTEMPTS_EXCEEDED"
	InvoluntaryUnauthorized                    InvoluntaryDisconnectionCause = "UNAUTHORIZED"
	InvoluntaryClientAlreadyConnected          InvoluntaryDisconnectionCause = "CLIENT_WITH_SAME_ID_ALREADY_CONNECTED"
	InvoluntaryConnectionError                 InvoluntaryDisconnectionCause = "CONNECTION_ERROR"
	InvoluntaryUnknownError                    InvoluntaryDisconnectionCause = "UNKNOWN_ERROR"
)

func toInvoluntaryCause(c broker.InvoluntaryCause) InvoluntaryDisconnectionCause {
	switch c {
	case broker.InvoluntaryMaxReconnectsExceeded:
		return InvoluntaryMaxReconnectionAttemptsExceeded
	case broker.InvoluntaryUnauthorized:
		return InvoluntaryUnauthorized
	case broker.InvoluntaryClientAlreadyConnected:
		return InvoluntaryClientAlreadyConnected
	case broker.InvoluntaryConnectionError:
		return InvoluntaryConnectionError
	default:
		return InvoluntaryUnknownError
	}
}

// RemoteConnectivityErrorKind enumerates §7's "Remote connectivity check" domain.
type RemoteConnectivityErrorKind string

const (
	RemoteConnectivityNotConnectedToBroker RemoteConnectivityErrorKind = "NOT_CONNECTED_TO_BROKER"
	RemoteConnectivityUnknownError         RemoteConnectivityErrorKind = "UNKNOWN_ERROR"
)

type RemoteConnectivityError struct {
	Kind RemoteConnectivityErrorKind
}

func (e *RemoteConnectivityError) Error() string {
	return fmt.Sprintf("crolangp2p: remote connectivity check failed: %s", e.Kind)
}

// SocketMsgErrorKind enumerates §7's "Send via broker relay" domain.
type SocketMsgErrorKind string

const (
	SocketMsgNotConnectedToBroker SocketMsgErrorKind = "NOT_CONNECTED_TO_BROKER"
	SocketMsgEmptyChannel         SocketMsgErrorKind = "EMPTY_CHANNEL"
	SocketMsgEmptyID              SocketMsgErrorKind = "EMPTY_ID"
	SocketMsgSelfTarget           SocketMsgErrorKind = "TRIED_TO_SEND_MSG_TO_SELF"
	SocketMsgGenericError         SocketMsgErrorKind = "ERROR"
)

type SocketMsgError struct {
	Kind SocketMsgErrorKind
}

func (e *SocketMsgError) Error() string {
	return fmt.Sprintf("crolangp2p: send socket msg failed: %s", e.Kind)
}

// P2PConnectErrorKind enumerates §7's "P2P connect" domain — the async
// counterpart of peernode.FailureReason, surfaced at the facade boundary.
type P2PConnectErrorKind string

const (
	P2PLocalNotConnectedToBroker        P2PConnectErrorKind = "LOCAL_NODE_NOT_CONNECTED_TO_BROKER"
	P2PTriedToConnectToSelf             P2PConnectErrorKind = "TRIED_TO_CONNECT_TO_SELF"
	P2PAlreadyConnectedToRemoteNode     P2PConnectErrorKind = "ALREADY_CONNECTED_TO_REMOTE_NODE"
	P2PConnectionAttemptClosedForcefully P2PConnectErrorKind = "CONNECTION_ATTEMPT_CLOSED_BY_USER_FORCEFULLY"
	P2PConnectionTimeout                P2PConnectErrorKind = "CONNECTION_TIMEOUT"
	P2PRemoteNotConnectedToBroker       P2PConnectErrorKind = "REMOTE_NODE_NOT_CONNECTED_TO_BROKER"
	P2PConnectionNegotiationError       P2PConnectErrorKind = "CONNECTION_NEGOTIATION_ERROR"
	P2PConnectionRefusedByRemoteNode    P2PConnectErrorKind = "CONNECTION_REFUSED_BY_REMOTE_NODE"
	P2PConnectionsNotAllowedOnRemote    P2PConnectErrorKind = "CONNECTIONS_NOT_ALLOWED_ON_REMOTE_NODE"
)

type P2PConnectError struct {
	RemoteID string
	Kind     P2PConnectErrorKind
}

func (e *P2PConnectError) Error() string {
	return fmt.Sprintf("crolangp2p: connect to %q failed: %s", e.RemoteID, e.Kind)
}

func p2pErrorFromFailureReason(remoteID string, reason peernode.FailureReason) *P2PConnectError {
	kind := P2PConnectionNegotiationError
	switch reason {
	case peernode.FailureConnectionTimeout:
		kind = P2PConnectionTimeout
	case peernode.FailureRefusedByRemote:
		kind = P2PConnectionRefusedByRemoteNode
	case peernode.FailureIncomingNotAllowed:
		kind = P2PConnectionsNotAllowedOnRemote
	case peernode.FailureRemoteNotConnected:
		kind = P2PRemoteNotConnectedToBroker
	case peernode.FailureClosedByUserForcefully:
		kind = P2PConnectionAttemptClosedForcefully
	case peernode.FailureLocalNotConnected, peernode.FailureBrokerDisconnected:
		kind = P2PLocalNotConnectedToBroker
	case peernode.FailureSelfTarget:
		kind = P2PTriedToConnectToSelf
	case peernode.FailureAlreadyConnected:
		kind = P2PAlreadyConnectedToRemoteNode
	}
	return &P2PConnectError{RemoteID: remoteID, Kind: kind}
}

// IncomingToggleErrorKind enumerates §7's "Incoming toggle" domain.
type IncomingToggleErrorKind string

const (
	IncomingNotConnectedToBroker      IncomingToggleErrorKind = "NOT_CONNECTED_TO_BROKER"
	IncomingAlreadyAllowed            IncomingToggleErrorKind = "INCOMING_CONNECTIONS_ALREADY_ALLOWED"
)

type IncomingToggleError struct {
	Kind IncomingToggleErrorKind
}

func (e *IncomingToggleError) Error() string {
	return fmt.Sprintf("crolangp2p: allow_incoming failed: %s", e.Kind)
}

var (
	// ErrNotConnectedToBroker describes the missing-broker-session
	// precondition. The facade operations do not return it: they report that
	// case through their own typed errors (RemoteConnectivityError,
	// SocketMsgError, IncomingToggleError) with a NOT_CONNECTED_TO_BROKER kind.
	ErrNotConnectedToBroker = fmt.Errorf("crolangp2p: not connected to broker")
)
