package peernode

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// Deps bundles everything a Node needs to drive its side of the §4.F state
// machine: the collaborators it's built from (§4.B) and the local identity
// it presents on the wire (§6.1).
type Deps struct {
	PCFactory provider.PeerConnectionFactory
	RTCConfig provider.RTCConfig
	Timer     provider.Timer
	Signaler  Signaler
	Executor  provider.Executor

	LocalID  string
	Platform string
	Version  string

	ConnectionTimeoutMs int
	MultipartTimeoutMs  int

	// Post schedules fn onto the event loop. Every provider callback
	// (PeerConnection/DataChannel I/O) reaches the Node only through Post,
	// per §4.A/§5: "I/O callbacks... MUST post an Event into the loop
	// rather than mutate state directly."
	Post func(fn func())
}

func (n *Node) envelope(d Deps) signalcodec.DirectMessageEnvelope {
	return signalcodec.DirectMessageEnvelope{
		PlatformFrom: d.Platform,
		VersionFrom:  d.Version,
		From:         d.LocalID,
		To:           n.RemoteID,
		SessionID:    n.SessionID,
	}
}

// StartAsInitiator begins CREATED→DESCRIPTIONS_EXCHANGE for an initiator
// Node: create the peer connection and an ordered data channel (the
// responder receives it in-band via OnDataChannel), create+set the local
// offer, then send CONNECTION_ATTEMPT (§4.F).
func (n *Node) StartAsInitiator(d Deps) {
	n.ConnectionTimeout = d.Timer.ScheduleOnce(d.ConnectionTimeoutMs, func() {
		d.Post(func() {
			if n.State.negotiating() {
				n.ForceClose(StateTimeout, FailureConnectionTimeout)
			}
		})
	})

	pc, err := d.PCFactory.Create(d.RTCConfig, n.onLocalICE(d), n.onPCStateChange(d), n.onRemoteDataChannel(d))
	if err != nil {
		util.LogError("peernode: create peer connection for %s: %v", n.RemoteID, err)
		n.ForceClose(StateNegotiationError, FailureNegotiationError)
		return
	}
	n.PC = pc

	dc, err := pc.CreateDataChannel()
	if err != nil {
		util.LogError("peernode: create data channel for %s: %v", n.RemoteID, err)
		n.ForceClose(StateNegotiationError, FailureNegotiationError)
		return
	}
	n.AttachDataChannel(dc, d.Timer, d.MultipartTimeoutMs)
	n.registerDataChannelObserver(d)

	pc.CreateOffer(func(offer provider.SessionDescription) {
		d.Post(func() {
			if n.closed {
				return
			}
			pc.SetLocalDescription(offer, func() {
				d.Post(func() {
					if n.closed {
						return
					}
					n.State = StateDescriptionsExchange
					n.sendConnectionAttempt(d, offer)
				})
			}, func(err error) {
				d.Post(func() { n.failNegotiation("set local description (offer)", err) })
			})
		})
	}, func(err error) {
		d.Post(func() { n.failNegotiation("create offer", err) })
	})
}

func (n *Node) sendConnectionAttempt(d Deps, offer provider.SessionDescription) {
	wire := signalcodec.SessionDescriptionWire{Type: offer.Type, SDP: offer.SDP}
	d.Signaler.SendConnectionAttempt(n.envelope(d), wire, func(ok bool, token string) {
		d.Post(func() {
			if n.closed || ok {
				return
			}
			if token == "remote_not_connected" {
				n.ForceClose(StateNegotiationError, FailureRemoteNotConnected)
				return
			}
			n.ForceClose(StateNegotiationError, FailureNegotiationError)
		})
	})
}

// AcceptAsResponder drives CREATED→DESCRIPTIONS_EXCHANGE for a responder
// Node that has already passed the user's on_connection_attempt callback
// (§4.F responder accept flow): apply the remote offer, create+set the
// local answer, then send CONNECTION_ACCEPTANCE.
func (n *Node) AcceptAsResponder(d Deps, offer signalcodec.SessionDescriptionWire) {
	n.ConnectionTimeout = d.Timer.ScheduleOnce(d.ConnectionTimeoutMs, func() {
		d.Post(func() {
			if n.State.negotiating() {
				n.ForceClose(StateTimeout, FailureConnectionTimeout)
			}
		})
	})

	pc, err := d.PCFactory.Create(d.RTCConfig, n.onLocalICE(d), n.onPCStateChange(d), n.onRemoteDataChannel(d))
	if err != nil {
		util.LogError("peernode: create peer connection for %s: %v", n.RemoteID, err)
		n.ForceClose(StateNegotiationError, FailureNegotiationError)
		return
	}
	n.PC = pc

	pc.SetRemoteDescription(provider.SessionDescription{Type: offer.Type, SDP: offer.SDP}, func() {
		d.Post(func() {
			if n.closed {
				return
			}
			n.State = StateDescriptionsExchange
			pc.CreateAnswer(func(answer provider.SessionDescription) {
				d.Post(func() {
					if n.closed {
						return
					}
					pc.SetLocalDescription(answer, func() {
						d.Post(func() {
							if n.closed {
								return
							}
							d.Signaler.SendConnectionAcceptance(n.envelope(d), signalcodec.SessionDescriptionWire{Type: answer.Type, SDP: answer.SDP}, func(ok bool, token string) {
								d.Post(func() {
									if n.closed || ok {
										return
									}
									n.ForceClose(StateNegotiationError, FailureNegotiationError)
								})
							})
							n.enterICEExchange(d)
						})
					}, func(err error) {
						d.Post(func() { n.failNegotiation("set local description (answer)", err) })
					})
				})
			}, func(err error) {
				d.Post(func() { n.failNegotiation("create answer", err) })
			})
		})
	}, func(err error) {
		d.Post(func() { n.failNegotiation("set remote description (offer)", err) })
	})
}

// ApplyRemoteAnswer is the initiator-side continuation of CONNECTION_ACCEPTANCE.
func (n *Node) ApplyRemoteAnswer(d Deps, answer signalcodec.SessionDescriptionWire) {
	if n.closed || n.State != StateDescriptionsExchange {
		return
	}
	n.PC.SetRemoteDescription(provider.SessionDescription{Type: answer.Type, SDP: answer.SDP}, func() {
		d.Post(func() {
			if n.closed {
				return
			}
			n.enterICEExchange(d)
		})
	}, func(err error) {
		d.Post(func() { n.failNegotiation("set remote description (answer)", err) })
	})
}

func (n *Node) enterICEExchange(d Deps) {
	n.State = StateICECandidatesExchange
	for _, c := range n.DrainSuspendedOutgoingICE() {
		n.emitICE(d, c)
	}
	for _, c := range n.DrainSuspendedIncomingICE() {
		n.applyICE(c)
	}
}

// ApplyRemoteICE handles an inbound trickled candidate for this Node,
// queueing it if still exchanging descriptions (§4.F).
func (n *Node) ApplyRemoteICE(c signalcodec.CandidateWire) {
	if n.QueueOrApplyIncomingICE(c) {
		n.applyICE(c)
	}
}

func (n *Node) applyICE(c signalcodec.CandidateWire) {
	if n.PC == nil {
		return
	}
	if err := n.PC.AddICECandidate(provider.ICECandidate{SDP: c.SDP, SDPMid: c.SDPMid, SDPMLineIndex: c.SDPMLineIndex}); err != nil {
		util.LogError("peernode: add ice candidate for %s: %v", n.RemoteID, err)
	}
}

func (n *Node) emitICE(d Deps, c signalcodec.CandidateWire) {
	d.Signaler.SendICECandidate(n.envelope(d), c, n.Role == RoleInitiator, func(ok bool, token string) {
		if !ok {
			util.LogDebug("peernode: ice candidate emit for %s not acknowledged (token=%s)", n.RemoteID, token)
		}
	})
}

func (n *Node) onLocalICE(d Deps) func(*provider.ICECandidate) {
	return func(c *provider.ICECandidate) {
		if c == nil {
			return
		}
		d.Post(func() {
			if n.closed {
				return
			}
			wire := signalcodec.CandidateWire{SDP: c.SDP, SDPMid: c.SDPMid, SDPMLineIndex: c.SDPMLineIndex, ServerURL: c.ServerURL}
			if n.QueueOrSendOutgoingICE(wire) {
				n.emitICE(d, wire)
			}
		})
	}
}

func (n *Node) onPCStateChange(d Deps) func(provider.ConnectionState) {
	return func(s provider.ConnectionState) {
		d.Post(func() {
			if n.closed {
				return
			}
			switch s {
			case provider.ConnectionStateDisconnected, provider.ConnectionStateFailed:
				if n.State.negotiating() {
					n.ForceClose(StateNegotiationError, FailureNegotiationError)
				} else if n.State == StateConnected {
					n.ForceClose(StateDisconnected, "")
				}
			}
		})
	}
}

func (n *Node) onRemoteDataChannel(d Deps) func(provider.DataChannel) {
	return func(dc provider.DataChannel) {
		d.Post(func() {
			if n.closed || n.DC != nil {
				return
			}
			n.AttachDataChannel(dc, d.Timer, d.MultipartTimeoutMs)
			n.registerDataChannelObserver(d)
		})
	}
}

func (n *Node) registerDataChannelObserver(d Deps) {
	n.DC.RegisterObserver(func(s provider.DataChannelState) {
		d.Post(func() {
			if n.closed {
				return
			}
			switch s {
			case provider.DataChannelStateOpen:
				n.TransitionToConnected()
			case provider.DataChannelStateClosed:
				if n.State.negotiating() {
					n.ForceClose(StateNegotiationError, FailureNegotiationError)
				} else if n.State == StateConnected {
					n.ForceClose(StateDisconnected, "")
				}
			}
		})
	}, func(payload []byte) {
		d.Post(func() {
			if n.closed || n.Reassembler == nil {
				return
			}
			frame, err := signalcodec.DecodeFrame(payload)
			if err != nil {
				util.LogError("peernode: decode frame from %s: %v", n.RemoteID, err)
				return
			}
			n.Reassembler.Accept(frame)
		})
	})
}

func (n *Node) failNegotiation(step string, err error) {
	if n.closed {
		return
	}
	util.LogError("peernode: %s failed for %s: %v", step, n.RemoteID, err)
	n.ForceClose(StateNegotiationError, FailureNegotiationError)
}
