package crolangp2p

import (
	"context"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/eventloop"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
)

// NodeHandle is the immutable external view of a CONNECTED peernode.Node
// (§4.J get_connected/get_all_connected): callers exchange messages and
// register disconnect/message callbacks through it but cannot reach into
// the event-loop-owned state machine directly. Every mutation of the
// underlying Node's state-machine fields is posted through loop, the same
// *eventloop.Loop that owns it (internal/peernode/node.go: "mutated
// exclusively by the event-loop worker") — never applied straight from the
// caller's goroutine.
type NodeHandle struct {
	n    *peernode.Node
	loop *eventloop.Loop
}

func newNodeHandle(n *peernode.Node, loop *eventloop.Loop) *NodeHandle {
	return &NodeHandle{n: n, loop: loop}
}

// ID is the remote Node's identity.
func (h *NodeHandle) ID() string { return h.n.RemoteID }

// Platform is the remote Node's informational platform tag (§6.4). It is
// recorded only on the responder side, from the initiator's
// CONNECTION_ATTEMPT; an initiator-side handle always reports "".
func (h *NodeHandle) Platform() string { return h.n.RemotePlatform }

// Version is the remote Node's informational version tag, recorded the same
// way as Platform (empty on an initiator-side handle).
func (h *NodeHandle) Version() string { return h.n.RemoteVersion }

// SendMsg splits payload into ordered frames and sends them over the data
// channel, blocking the caller (never the event loop) while backpressure is
// applied (§4.E). ctx bounds how long the caller will wait for the channel
// to drain.
func (h *NodeHandle) SendMsg(ctx context.Context, channel string, payload []byte) error {
	msgID := h.n.NextMsgID()
	return h.n.Sender.SendPayload(ctx, msgID, channel, payload)
}

// OnMessage registers the callback invoked (via the executor) for inbound
// messages on channel. Safe to call from any goroutine.
func (h *NodeHandle) OnMessage(channel string, fn func(payload []byte)) {
	h.n.OnMessage(channel, fn)
}

// OnDisconnection registers the callback fired at most once, after this
// Node reaches CONNECTED and its pairing later ends (§8 property 2). Chains
// onto any callback already wired to the Node (e.g. the responder-side
// dispatch set up by the router) instead of replacing it. The assignment
// itself is posted onto the event loop, so it never races a loop-driven
// read or mutation of the same field.
func (h *NodeHandle) OnDisconnection(fn func()) {
	h.loop.PostAndWait(func() {
		prev := h.n.OnDisconnection
		h.n.OnDisconnection = func(remoteID string) {
			if prev != nil {
				prev(remoteID)
			}
			fn()
		}
	})
}

// Close force-closes the pairing (idempotent). Posted onto the event loop
// so it can't race a loop-driven close path (connection timeout, router
// disconnect handling, broker flush) for the same Node.
func (h *NodeHandle) Close() {
	h.loop.PostAndWait(func() {
		h.n.ForceClose(peernode.StateDisconnected, peernode.FailureClosedByUserForcefully)
	})
}
