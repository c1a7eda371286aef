// Package providerrtc implements provider.PeerConnectionFactory,
// provider.PeerConnection, and provider.DataChannel over pion/webrtc/v4 —
// the concrete half of the §4.B peer-connection contract left abstract by
// the spec. Adapted from the teacher's internal/transport and
// internal/webrtc packages.
package providerrtc

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// Factory is the production provider.PeerConnectionFactory.
type Factory struct{}

// NewFactory returns the pion-backed peer connection factory.
func NewFactory() *Factory { return &Factory{} }

func (Factory) Create(
	cfg provider.RTCConfig,
	onICECandidate func(*provider.ICECandidate),
	onConnectionStateChange func(provider.ConnectionState),
	onDataChannel func(provider.DataChannel),
) (provider.PeerConnection, error) {
	config := toWebrtcConfiguration(cfg)

	pc, err := webrtc.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("pion: new peer connection: %w", err)
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			onICECandidate(nil)
			return
		}
		j := c.ToJSON()
		candidate := &provider.ICECandidate{SDP: j.Candidate}
		if j.SDPMid != nil {
			candidate.SDPMid = *j.SDPMid
		}
		if j.SDPMLineIndex != nil {
			candidate.SDPMLineIndex = int(*j.SDPMLineIndex)
		}
		onICECandidate(candidate)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		onConnectionStateChange(toProviderConnectionState(state))
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		onDataChannel(newDataChannel(dc))
	})

	return &peerConnection{pc: pc}, nil
}

// peerConnection adapts *webrtc.PeerConnection to provider.PeerConnection.
// pion's signaling operations are synchronous; the ok/err-callback shape of
// provider.PeerConnection is satisfied by invoking the matching callback
// immediately, which is a valid (degenerate) realization of the
// asynchronous contract described in §4.B.
type peerConnection struct {
	pc *webrtc.PeerConnection
}

func (p *peerConnection) CreateDataChannel() (provider.DataChannel, error) {
	ordered := true
	dc, err := p.pc.CreateDataChannel("crolang-p2p", &webrtc.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, fmt.Errorf("pion: create data channel: %w", err)
	}
	return newDataChannel(dc), nil
}

func (p *peerConnection) CreateOffer(ok func(provider.SessionDescription), err func(error)) {
	offer, e := p.pc.CreateOffer(nil)
	if e != nil {
		err(fmt.Errorf("pion: create offer: %w", e))
		return
	}
	ok(provider.SessionDescription{Type: "offer", SDP: offer.SDP})
}

func (p *peerConnection) CreateAnswer(ok func(provider.SessionDescription), err func(error)) {
	answer, e := p.pc.CreateAnswer(nil)
	if e != nil {
		err(fmt.Errorf("pion: create answer: %w", e))
		return
	}
	ok(provider.SessionDescription{Type: "answer", SDP: answer.SDP})
}

func (p *peerConnection) SetLocalDescription(d provider.SessionDescription, ok func(), err func(error)) {
	sdp, e := toWebrtcSessionDescription(d)
	if e != nil {
		err(e)
		return
	}
	if e := p.pc.SetLocalDescription(sdp); e != nil {
		err(fmt.Errorf("pion: set local description: %w", e))
		return
	}
	ok()
}

func (p *peerConnection) SetRemoteDescription(d provider.SessionDescription, ok func(), err func(error)) {
	sdp, e := toWebrtcSessionDescription(d)
	if e != nil {
		err(e)
		return
	}
	if e := p.pc.SetRemoteDescription(sdp); e != nil {
		err(fmt.Errorf("pion: set remote description: %w", e))
		return
	}
	ok()
}

func (p *peerConnection) AddICECandidate(c provider.ICECandidate) error {
	mLineIndex := uint16(c.SDPMLineIndex)
	init := webrtc.ICECandidateInit{
		Candidate:     c.SDP,
		SDPMid:        &c.SDPMid,
		SDPMLineIndex: &mLineIndex,
	}
	if err := p.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("pion: add ice candidate: %w", err)
	}
	return nil
}

func (p *peerConnection) ConnectionState() provider.ConnectionState {
	return toProviderConnectionState(p.pc.ConnectionState())
}

func (p *peerConnection) Close() error {
	return p.pc.Close()
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func toWebrtcConfiguration(cfg provider.RTCConfig) webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		servers = append(servers, webrtc.ICEServer{
			URLs:     s.URLs,
			Username: s.Username,
			Credential: s.Password,
		})
	}

	config := webrtc.Configuration{ICEServers: servers}

	switch cfg.ICETransportPolicy {
	case "RELAY":
		config.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	case "ALL", "":
		config.ICETransportPolicy = webrtc.ICETransportPolicyAll
		// NO_HOST and NONE have no pion equivalent; pion only distinguishes
		// All vs Relay at the transport-policy layer. They are accepted at
		// the signalcodec validation layer but fold into All here.
	default:
		config.ICETransportPolicy = webrtc.ICETransportPolicyAll
	}

	switch cfg.BundlePolicy {
	case "MAX_COMPAT":
		config.BundlePolicy = webrtc.BundlePolicyMaxCompat
	case "MAX_BUNDLE":
		config.BundlePolicy = webrtc.BundlePolicyMaxBundle
	default:
		config.BundlePolicy = webrtc.BundlePolicyBalanced
	}

	switch cfg.RTCPMuxPolicy {
	case "NEGOTIATE":
		config.RTCPMuxPolicy = webrtc.RTCPMuxPolicyNegotiate
	default:
		config.RTCPMuxPolicy = webrtc.RTCPMuxPolicyRequire
	}

	return config
}

func toWebrtcSessionDescription(d provider.SessionDescription) (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch d.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	case "pr-answer":
		t = webrtc.SDPTypePranswer
	case "rollback":
		t = webrtc.SDPTypeRollback
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unknown session description type: %q", d.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: d.SDP}, nil
}

func toProviderConnectionState(s webrtc.PeerConnectionState) provider.ConnectionState {
	switch s {
	case webrtc.PeerConnectionStateNew:
		return provider.ConnectionStateNew
	case webrtc.PeerConnectionStateConnecting:
		return provider.ConnectionStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return provider.ConnectionStateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return provider.ConnectionStateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return provider.ConnectionStateFailed
	case webrtc.PeerConnectionStateClosed:
		return provider.ConnectionStateClosed
	default:
		return provider.ConnectionStateNew
	}
}
