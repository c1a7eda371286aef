package broker

// ConnectCause classifies why a connect attempt did not reach AUTHENTICATED
// (§4.H's classifier table).
type ConnectCause string

const (
	ConnectUnknownError               ConnectCause = "UNKNOWN_ERROR"
	ConnectSocketError                ConnectCause = "SOCKET_ERROR"
	ConnectUnauthorized               ConnectCause = "UNAUTHORIZED"
	ConnectClientAlreadyConnected     ConnectCause = "CLIENT_WITH_SAME_ID_ALREADY_CONNECTED"
	ConnectErrorParsingRTCConfig      ConnectCause = "ERROR_PARSING_RTC_CONFIGURATION"
)

// classifyConnectError applies §4.H's classifier table to a transport-level
// connect failure (no AUTHENTICATED was ever received).
func classifyConnectError(brokerMessage string, transportErr error) ConnectCause {
	switch brokerMessage {
	case "authentication failed":
		return ConnectUnauthorized
	case "client already connected":
		return ConnectClientAlreadyConnected
	}
	if transportErr != nil {
		return ConnectSocketError
	}
	return ConnectUnknownError
}

// InvoluntaryCause is what on_involuntary_disconnection receives (§4.H,
// §7's "Broker involuntary" error kinds).
type InvoluntaryCause string

const (
	InvoluntaryUnauthorized               InvoluntaryCause = "UNAUTHORIZED"
	InvoluntaryClientAlreadyConnected     InvoluntaryCause = "CLIENT_WITH_SAME_ID_ALREADY_CONNECTED"
	InvoluntaryConnectionError            InvoluntaryCause = "CONNECTION_ERROR"
	InvoluntaryMaxReconnectsExceeded      InvoluntaryCause = "MAX_RECONNECTION_ATTEMPTS_EXCEEDED"
	InvoluntaryUnknownError               InvoluntaryCause = "UNKNOWN_ERROR"
)

// toInvoluntaryCause maps a ConnectCause (re-observed during a reconnect
// attempt, or as the terminal reason reconnection gave up) onto the
// involuntary-disconnection vocabulary (§4.H mapping table).
func toInvoluntaryCause(c ConnectCause, exhausted bool) InvoluntaryCause {
	switch {
	case exhausted:
		return InvoluntaryMaxReconnectsExceeded
	case c == ConnectUnauthorized:
		return InvoluntaryUnauthorized
	case c == ConnectClientAlreadyConnected:
		return InvoluntaryClientAlreadyConnected
	case c == ConnectSocketError:
		return InvoluntaryConnectionError
	default:
		return InvoluntaryUnknownError
	}
}
