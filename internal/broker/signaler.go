package broker

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/state"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// signaler implements peernode.Signaler against a live broker socket (§4.I:
// "Ack-bearing emits... convert the ack payload to one of
// {OK, ERROR, explicit token}").
type signaler struct {
	store *state.Store
}

func newSignaler(store *state.Store) *signaler {
	return &signaler{store: store}
}

func normalizeAck(resp provider.AckResponse) (ok bool, token string) {
	if resp.Status == provider.AckOK {
		return true, ""
	}
	return false, resp.Token
}

func (s *signaler) emit(event string, payload []byte, err error, ack func(ok bool, token string)) {
	if err != nil {
		util.LogError("broker: encode %s: %v", event, err)
		if ack != nil {
			ack(false, "")
		}
		return
	}
	if s.store.Socket == nil {
		if ack != nil {
			ack(false, "socket_disconnected")
		}
		return
	}
	var ackFn func(provider.AckResponse)
	if ack != nil {
		ackFn = func(resp provider.AckResponse) {
			ok, token := normalizeAck(resp)
			ack(ok, token)
		}
	}
	s.store.Socket.Emit(event, payload, ackFn)
}

func (s *signaler) SendConnectionAttempt(env signalcodec.DirectMessageEnvelope, offer signalcodec.SessionDescriptionWire, ack func(ok bool, token string)) {
	data, err := signalcodec.EncodeConnectionAttempt(env, offer)
	s.emit(EventConnectionAttempt, data, err, ack)
}

func (s *signaler) SendConnectionAcceptance(env signalcodec.DirectMessageEnvelope, answer signalcodec.SessionDescriptionWire, ack func(ok bool, token string)) {
	data, err := signalcodec.EncodeConnectionAcceptance(env, answer)
	s.emit(EventConnectionAccept, data, err, ack)
}

func (s *signaler) SendConnectionRefusal(env signalcodec.DirectMessageEnvelope) {
	data, err := signalcodec.EncodeBareEnvelope(env)
	s.emit(EventConnectionRefuse, data, err, nil)
}

func (s *signaler) SendIncomingNotAllowed(env signalcodec.DirectMessageEnvelope) {
	data, err := signalcodec.EncodeBareEnvelope(env)
	s.emit(EventIncomingDisabled, data, err, nil)
}

func (s *signaler) SendICECandidate(env signalcodec.DirectMessageEnvelope, candidate signalcodec.CandidateWire, asInitiator bool, ack func(ok bool, token string)) {
	event := EventICEFromResponder
	if asInitiator {
		event = EventICEFromInitiator
	}
	data, err := signalcodec.EncodeICECandidateExchange(env, candidate)
	s.emit(event, data, err, ack)
}
