// Package router implements §4.I: per-event socket handlers that parse each
// inbound signaling message, validate it, and drive the per-pair Node state
// machine (internal/peernode) or the direct-relay/connectivity-query
// surfaces. Every handler posts onto the event loop before touching shared
// state (§5: "I/O callbacks... MUST post an Event into the loop").
package router

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/broker"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/eventloop"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/state"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// Router wires a freshly dialed socket to the Node table and the store's
// user-callback surface. One Router is built once and reused across every
// reconnect; Attach is what broker.New's registerHandlers hook calls on each
// newly created socket.
type Router struct {
	loop     *eventloop.Loop
	store    *state.Store
	table    *peernode.Table
	executor provider.Executor
	deps     func() peernode.Deps
}

// New builds a Router. deps is called once per negotiation to produce the
// peernode.Deps a responder Node is driven with; it's a func rather than a
// plain value because Deps.RTCConfig is only known once the broker has
// authenticated (it's read fresh from the store on every call).
func New(loop *eventloop.Loop, store *state.Store, table *peernode.Table, executor provider.Executor, deps func() peernode.Deps) *Router {
	return &Router{loop: loop, store: store, table: table, executor: executor, deps: deps}
}

// Attach registers every per-event handler on socket and wires its
// involuntary-disconnect signal to onSocketClosed (typically
// (*broker.Broker).HandleSocketClosed), posted onto the loop.
func (r *Router) Attach(socket provider.Socket, onSocketClosed func(message string, err error)) {
	socket.On(broker.EventConnectionAttempt, r.post(r.handleConnectionAttempt))
	socket.On(broker.EventConnectionAccept, r.post(r.handleConnectionAccept))
	socket.On(broker.EventConnectionRefuse, r.post(r.handleConnectionRefuse))
	socket.On(broker.EventIncomingDisabled, r.post(r.handleIncomingDisabled))
	socket.On(broker.EventICEFromInitiator, r.post(r.handleICE))
	socket.On(broker.EventICEFromResponder, r.post(r.handleICE))
	socket.On(broker.EventSocketMsgExchange, r.post(r.handleSocketMsgExchange))

	socket.OnDisconnect(func(message string, err error) {
		r.loop.Post(func() { onSocketClosed(message, err) })
	})
}

// post wraps a handler so every socket-event callback (arriving on whatever
// goroutine the socket's read loop runs on) is re-dispatched onto the event
// loop before it touches Node/store state.
func (r *Router) post(handler func(payload []byte)) func([]byte) {
	return func(payload []byte) {
		r.loop.Post(func() { handler(payload) })
	}
}

func (r *Router) replyEnvelope(to, sessionID string) signalcodec.DirectMessageEnvelope {
	d := r.deps()
	return signalcodec.DirectMessageEnvelope{
		PlatformFrom: d.Platform,
		VersionFrom:  d.Version,
		From:         d.LocalID,
		To:           to,
		SessionID:    sessionID,
	}
}

// handleConnectionAttempt implements the responder accept flow (§4.F):
// refuse if incoming is disallowed, drop if already paired, otherwise run
// the user's on_connection_attempt synchronously on the loop and proceed or
// refuse based on its verdict.
func (r *Router) handleConnectionAttempt(payload []byte) {
	msg, err := signalcodec.ParseConnectionAttempt(payload)
	if err != nil {
		util.LogDebug("router: malformed connection attempt dropped: %v", err)
		return
	}

	d := r.deps()
	signaler := d.Signaler

	if r.store.Incoming == nil {
		signaler.SendIncomingNotAllowed(r.replyEnvelope(msg.From, msg.SessionID))
		return
	}

	if r.table.Has(msg.From) {
		util.LogDebug("router: connection attempt from already-paired id %q dropped", msg.From)
		return
	}

	allowed := r.store.Incoming.OnConnectionAttempt(msg.From, msg.PlatformFrom, msg.VersionFrom)
	if !allowed {
		signaler.SendConnectionRefusal(r.replyEnvelope(msg.From, msg.SessionID))
		return
	}

	n := peernode.NewResponderNode(msg.From, msg.SessionID, msg.PlatformFrom, msg.VersionFrom)
	incoming := r.store.Incoming
	n.OnConnectionSuccess = func(n *peernode.Node) {
		if incoming.OnConnectionSuccess != nil {
			r.executor.Run(func() { incoming.OnConnectionSuccess(n) })
		}
	}
	n.OnDisconnection = func(remoteID string) {
		if incoming.OnDisconnection != nil {
			r.executor.Run(func() { incoming.OnDisconnection(remoteID) })
		}
	}
	n.OnClosed = func() { r.table.Remove(n.RemoteID) }

	if err := r.table.AddResponder(n); err != nil {
		util.LogDebug("router: connection attempt from %q lost race with existing record", msg.From)
		return
	}

	n.AcceptAsResponder(d, msg.Offer)
}

func (r *Router) handleConnectionAccept(payload []byte) {
	msg, err := signalcodec.ParseConnectionAcceptance(payload)
	if err != nil {
		util.LogDebug("router: malformed connection acceptance dropped: %v", err)
		return
	}
	n, ok := r.table.Get(msg.From)
	if !ok || !n.SessionMatches(msg.SessionID) {
		util.LogDebug("router: connection acceptance for unknown or stale session from %q dropped", msg.From)
		return
	}
	n.ApplyRemoteAnswer(r.deps(), msg.Answer)
}

func (r *Router) handleConnectionRefuse(payload []byte) {
	msg, err := signalcodec.ParseConnectionRefusal(payload)
	if err != nil {
		util.LogDebug("router: malformed connection refusal dropped: %v", err)
		return
	}
	n, ok := r.table.Get(msg.From)
	if !ok || !n.SessionMatches(msg.SessionID) {
		return
	}
	n.ForceClose(peernode.StateNegotiationError, peernode.FailureRefusedByRemote)
}

func (r *Router) handleIncomingDisabled(payload []byte) {
	msg, err := signalcodec.ParseIncomingNotAllowed(payload)
	if err != nil {
		util.LogDebug("router: malformed incoming-disabled notice dropped: %v", err)
		return
	}
	n, ok := r.table.Get(msg.From)
	if !ok || !n.SessionMatches(msg.SessionID) {
		return
	}
	n.ForceClose(peernode.StateNegotiationError, peernode.FailureIncomingNotAllowed)
}

// handleICE serves both trickle-ICE directions; the router doesn't need to
// distinguish them, since each candidate targets the Node found by `from`
// regardless of which side sent it.
func (r *Router) handleICE(payload []byte) {
	msg, err := signalcodec.ParseICECandidateExchange(payload)
	if err != nil {
		util.LogDebug("router: malformed ice candidate dropped: %v", err)
		return
	}
	n, ok := r.table.Get(msg.From)
	if !ok || !n.SessionMatches(msg.SessionID) {
		util.LogDebug("router: ice candidate for unknown or stale session from %q dropped", msg.From)
		return
	}
	n.ApplyRemoteICE(msg.Candidate)
}

// handleSocketMsgExchange dispatches an inbound direct-relay message
// (§4.J send_socket_msg's receiving side) through the executor, never the
// loop worker, since the per-channel callback is user code.
func (r *Router) handleSocketMsgExchange(payload []byte) {
	msg, err := signalcodec.ParseSocketMsgExchange(payload)
	if err != nil {
		util.LogDebug("router: malformed socket msg exchange dropped: %v", err)
		return
	}
	cb, ok := r.store.DirectMsgCallbacks[msg.Channel]
	if !ok || cb == nil {
		util.LogDebug("router: socket msg on unregistered channel %q dropped", msg.Channel)
		return
	}
	r.executor.Run(func() { cb(msg.From, msg.Msg) })
}
