// Package signalcodec implements the §4.D message codec: JSON "direct
// message" envelopes for signaling, and the CBOR data-channel frame format
// (§6.3). Every inbound message follows the "parsable→checked" pattern: an
// Unmarshal into a permissive struct with pointer fields, followed by a
// checked() call that rejects anything missing a required field. Adapted in
// spirit from the teacher's internal/protocol package (there: a fixed binary
// header; here: JSON envelopes plus a CBOR frame, per §4.D/§6.1/§6.3).
package signalcodec

import (
	"encoding/json"
	"errors"
)

// ErrMalformedEnvelope is returned when a direct message is missing one of
// the required envelope fields (§4.D: "malformed messages... MUST be
// dropped with a debug log").
var ErrMalformedEnvelope = errors.New("signalcodec: malformed envelope")

// DirectMessageEnvelope is the common header carried by every per-pair
// signaling message (§4.D, §6.1).
type DirectMessageEnvelope struct {
	PlatformFrom string
	VersionFrom  string
	From         string
	To           string
	SessionID    string
}

// rawEnvelope is the permissive JSON shape: every field optional, so a
// missing field surfaces as a validation error instead of a silent zero
// value indistinguishable from an explicit empty string.
type rawEnvelope struct {
	PlatformFrom *string `json:"platformFrom"`
	VersionFrom  *string `json:"versionFrom"`
	From         *string `json:"from"`
	To           *string `json:"to"`
	SessionID    *string `json:"sessionId"`
}

func (r rawEnvelope) checked() (DirectMessageEnvelope, error) {
	if r.PlatformFrom == nil || r.VersionFrom == nil || r.From == nil || r.To == nil || r.SessionID == nil {
		return DirectMessageEnvelope{}, ErrMalformedEnvelope
	}
	return DirectMessageEnvelope{
		PlatformFrom: *r.PlatformFrom,
		VersionFrom:  *r.VersionFrom,
		From:         *r.From,
		To:           *r.To,
		SessionID:    *r.SessionID,
	}, nil
}

// SessionDescriptionWire is the SDP payload carried by CONNECTION_ATTEMPT
// and CONNECTION_ACCEPTANCE (§6.1).
type SessionDescriptionWire struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

func (s *SessionDescriptionWire) checked() (SessionDescriptionWire, error) {
	if s == nil || s.Type == "" || s.SDP == "" {
		return SessionDescriptionWire{}, ErrMalformedEnvelope
	}
	return *s, nil
}

// CandidateWire is a trickled ICE candidate (§6.1).
type CandidateWire struct {
	SDP           string `json:"sdp"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex int    `json:"sdpMLineIndex"`
	ServerURL     string `json:"serverUrl,omitempty"`
}

func (c *CandidateWire) checked() (CandidateWire, error) {
	if c == nil || c.SDP == "" {
		return CandidateWire{}, ErrMalformedEnvelope
	}
	return *c, nil
}

// unmarshalRaw is a small helper shared by every per-kind Parse function.
func unmarshalRaw(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
