package signalcodec

import "encoding/json"

// ConnectionAttempt is the checked CONNECTION_ATTEMPT message (I→R, via
// broker): an offer starting a pairing (§4.D).
type ConnectionAttempt struct {
	DirectMessageEnvelope
	Offer SessionDescriptionWire
}

type rawConnectionAttempt struct {
	rawEnvelope
	SessionDescription *SessionDescriptionWire `json:"sessionDescription"`
}

// ParseConnectionAttempt parses and checks a CONNECTION_ATTEMPT payload.
func ParseConnectionAttempt(data []byte) (ConnectionAttempt, error) {
	var raw rawConnectionAttempt
	if err := unmarshalRaw(data, &raw); err != nil {
		return ConnectionAttempt{}, ErrMalformedEnvelope
	}
	env, err := raw.rawEnvelope.checked()
	if err != nil {
		return ConnectionAttempt{}, err
	}
	offer, err := raw.SessionDescription.checked()
	if err != nil {
		return ConnectionAttempt{}, err
	}
	return ConnectionAttempt{DirectMessageEnvelope: env, Offer: offer}, nil
}

// ConnectionAcceptance is the checked CONNECTION_ACCEPTANCE message (R→I):
// the answer accepting a pairing (§4.D).
type ConnectionAcceptance struct {
	DirectMessageEnvelope
	Answer SessionDescriptionWire
}

type rawConnectionAcceptance struct {
	rawEnvelope
	SessionDescription *SessionDescriptionWire `json:"sessionDescription"`
}

// ParseConnectionAcceptance parses and checks a CONNECTION_ACCEPTANCE payload.
func ParseConnectionAcceptance(data []byte) (ConnectionAcceptance, error) {
	var raw rawConnectionAcceptance
	if err := unmarshalRaw(data, &raw); err != nil {
		return ConnectionAcceptance{}, ErrMalformedEnvelope
	}
	env, err := raw.rawEnvelope.checked()
	if err != nil {
		return ConnectionAcceptance{}, err
	}
	answer, err := raw.SessionDescription.checked()
	if err != nil {
		return ConnectionAcceptance{}, err
	}
	return ConnectionAcceptance{DirectMessageEnvelope: env, Answer: answer}, nil
}

// ConnectionRefusal is the checked CONNECTION_REFUSAL message (R→I): the
// responder's user callback rejected the attempt (§4.D). No extra fields.
type ConnectionRefusal struct {
	DirectMessageEnvelope
}

// ParseConnectionRefusal parses and checks a CONNECTION_REFUSAL payload.
func ParseConnectionRefusal(data []byte) (ConnectionRefusal, error) {
	var raw rawEnvelope
	if err := unmarshalRaw(data, &raw); err != nil {
		return ConnectionRefusal{}, ErrMalformedEnvelope
	}
	env, err := raw.checked()
	if err != nil {
		return ConnectionRefusal{}, err
	}
	return ConnectionRefusal{DirectMessageEnvelope: env}, nil
}

// IncomingNotAllowed is the checked INCOMING_CONNECTIONS_NOT_ALLOWED message
// (R→I): the responder disallows inbound pairings (§4.D). No extra fields.
type IncomingNotAllowed struct {
	DirectMessageEnvelope
}

// ParseIncomingNotAllowed parses and checks an INCOMING_CONNECTIONS_NOT_ALLOWED payload.
func ParseIncomingNotAllowed(data []byte) (IncomingNotAllowed, error) {
	var raw rawEnvelope
	if err := unmarshalRaw(data, &raw); err != nil {
		return IncomingNotAllowed{}, ErrMalformedEnvelope
	}
	env, err := raw.checked()
	if err != nil {
		return IncomingNotAllowed{}, err
	}
	return IncomingNotAllowed{DirectMessageEnvelope: env}, nil
}

// ICECandidateExchange is the checked shape shared by both trickle-ICE
// directions (I→R and R→I); the router handles both socket events with one
// handler and finds the Node by `from`, without distinguishing direction (§4.D).
type ICECandidateExchange struct {
	DirectMessageEnvelope
	Candidate CandidateWire
}

type rawICECandidateExchange struct {
	rawEnvelope
	Candidate *CandidateWire `json:"candidate"`
}

// ParseICECandidateExchange parses and checks either direction of trickled ICE.
func ParseICECandidateExchange(data []byte) (ICECandidateExchange, error) {
	var raw rawICECandidateExchange
	if err := unmarshalRaw(data, &raw); err != nil {
		return ICECandidateExchange{}, ErrMalformedEnvelope
	}
	env, err := raw.rawEnvelope.checked()
	if err != nil {
		return ICECandidateExchange{}, err
	}
	candidate, err := raw.Candidate.checked()
	if err != nil {
		return ICECandidateExchange{}, err
	}
	return ICECandidateExchange{DirectMessageEnvelope: env, Candidate: candidate}, nil
}

// SocketMsgExchange is the checked SOCKET_MSG_EXCHANGE relay message:
// `from, to, channel, msg` only — no platform/version/sessionId (§6.1).
type SocketMsgExchange struct {
	From    string
	To      string
	Channel string
	Msg     string
}

type rawSocketMsgExchange struct {
	From    *string `json:"from"`
	To      *string `json:"to"`
	Channel *string `json:"channel"`
	Msg     *string `json:"msg"`
}

// ParseSocketMsgExchange parses and checks a SOCKET_MSG_EXCHANGE payload.
func ParseSocketMsgExchange(data []byte) (SocketMsgExchange, error) {
	var raw rawSocketMsgExchange
	if err := unmarshalRaw(data, &raw); err != nil {
		return SocketMsgExchange{}, ErrMalformedEnvelope
	}
	if raw.From == nil || raw.To == nil || raw.Channel == nil || raw.Msg == nil {
		return SocketMsgExchange{}, ErrMalformedEnvelope
	}
	return SocketMsgExchange{From: *raw.From, To: *raw.To, Channel: *raw.Channel, Msg: *raw.Msg}, nil
}

// EncodeSocketMsgExchange serializes an outbound relay message.
func EncodeSocketMsgExchange(m SocketMsgExchange) ([]byte, error) {
	return json.Marshal(rawSocketMsgExchange{From: &m.From, To: &m.To, Channel: &m.Channel, Msg: &m.Msg})
}

// AreNodesConnectedRequest is the ARE_NODES_CONNECTED_TO_BROKER ack request
// body (§6.1): `{ ids: [id…] }`.
type AreNodesConnectedRequest struct {
	IDs []string `json:"ids"`
}

// AreNodesConnectedResult is one entry of the ack response's `results` array.
type AreNodesConnectedResult struct {
	ID        string `json:"id"`
	Connected bool   `json:"connected"`
}

// AreNodesConnectedResponse is the ack response body: `{ results: […] }`.
type AreNodesConnectedResponse struct {
	Results []AreNodesConnectedResult `json:"results"`
}

// ParseAreNodesConnectedResponse parses the broker's ack payload for a
// connectivity query.
func ParseAreNodesConnectedResponse(data []byte) (AreNodesConnectedResponse, error) {
	var resp AreNodesConnectedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return AreNodesConnectedResponse{}, ErrMalformedEnvelope
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// Outbound encoders — mirror the Parse* functions but in the write direction.
// ---------------------------------------------------------------------------

func EncodeConnectionAttempt(env DirectMessageEnvelope, offer SessionDescriptionWire) ([]byte, error) {
	return json.Marshal(struct {
		PlatformFrom       string                 `json:"platformFrom"`
		VersionFrom        string                 `json:"versionFrom"`
		From               string                 `json:"from"`
		To                 string                 `json:"to"`
		SessionID          string                 `json:"sessionId"`
		SessionDescription SessionDescriptionWire `json:"sessionDescription"`
	}{env.PlatformFrom, env.VersionFrom, env.From, env.To, env.SessionID, offer})
}

func EncodeConnectionAcceptance(env DirectMessageEnvelope, answer SessionDescriptionWire) ([]byte, error) {
	return json.Marshal(struct {
		PlatformFrom       string                 `json:"platformFrom"`
		VersionFrom        string                 `json:"versionFrom"`
		From               string                 `json:"from"`
		To                 string                 `json:"to"`
		SessionID          string                 `json:"sessionId"`
		SessionDescription SessionDescriptionWire `json:"sessionDescription"`
	}{env.PlatformFrom, env.VersionFrom, env.From, env.To, env.SessionID, answer})
}

func EncodeBareEnvelope(env DirectMessageEnvelope) ([]byte, error) {
	return json.Marshal(struct {
		PlatformFrom string `json:"platformFrom"`
		VersionFrom  string `json:"versionFrom"`
		From         string `json:"from"`
		To           string `json:"to"`
		SessionID    string `json:"sessionId"`
	}{env.PlatformFrom, env.VersionFrom, env.From, env.To, env.SessionID})
}

func EncodeICECandidateExchange(env DirectMessageEnvelope, candidate CandidateWire) ([]byte, error) {
	return json.Marshal(struct {
		PlatformFrom string        `json:"platformFrom"`
		VersionFrom  string        `json:"versionFrom"`
		From         string        `json:"from"`
		To           string        `json:"to"`
		SessionID    string        `json:"sessionId"`
		Candidate    CandidateWire `json:"candidate"`
	}{env.PlatformFrom, env.VersionFrom, env.From, env.To, env.SessionID, candidate})
}

func EncodeAreNodesConnectedRequest(ids []string) ([]byte, error) {
	return json.Marshal(AreNodesConnectedRequest{IDs: ids})
}
