package peernode

import "github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"

// Signaler is the per-pair signaling emission surface a Node negotiates
// through (§4.D, §4.I). It is implemented by internal/broker, which owns
// the actual Socket and knows how to encode/route each message kind; this
// keeps peernode free of any dependency on the broker or router packages.
type Signaler interface {
	SendConnectionAttempt(env signalcodec.DirectMessageEnvelope, offer signalcodec.SessionDescriptionWire, ack func(ok bool, token string))
	SendConnectionAcceptance(env signalcodec.DirectMessageEnvelope, answer signalcodec.SessionDescriptionWire, ack func(ok bool, token string))
	SendConnectionRefusal(env signalcodec.DirectMessageEnvelope)
	SendIncomingNotAllowed(env signalcodec.DirectMessageEnvelope)
	// SendICECandidate emits a trickled candidate. asInitiator selects which
	// of the two direction-specific wire events carries it (§4.D:
	// ICE_CANDIDATES_EXCHANGE_I_TO_R vs _R_TO_I).
	SendICECandidate(env signalcodec.DirectMessageEnvelope, candidate signalcodec.CandidateWire, asInitiator bool, ack func(ok bool, token string))
}
