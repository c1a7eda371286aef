// Package crolangp2p is the public facade (§4.J): a peer-to-peer connection
// client that uses a Broker for discovery/signaling and establishes direct
// WebRTC data-channel connections with other Nodes. Every operation either
// returns a result/error synchronously or reports outcomes via callbacks
// dispatched on the executor — nothing here ever blocks the internal event
// loop.
package crolangp2p

import (
	"context"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/attempt"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/broker"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/eventloop"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/providerrtc"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/providerws"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/router"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/state"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// libVersion is reported to the Broker and to remote Nodes as versionFrom
// (§6.1, §6.4).
const libVersion = "0.1.0"

// Client is a single Node. It owns one event loop, one Node table, and one
// broker session; every exported method is safe to call concurrently.
type Client struct {
	cfg Config

	loop      *eventloop.Loop
	store     *state.Store
	table     *peernode.Table
	timer     provider.Timer
	executor  provider.Executor
	pcFactory provider.PeerConnectionFactory

	router *router.Router
	brk    *broker.Broker
}

// New constructs a Client. It does not connect to any broker until
// ConnectToBroker is called.
func New(opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logEnableBase {
		util.EnableBase()
	}
	if cfg.logEnableDebug {
		util.EnableDebug()
	}

	c := &Client{
		cfg:       cfg,
		loop:      eventloop.New(),
		store:     state.New(),
		table:     peernode.NewTable(),
		timer:     util.NewSystemTimer(),
		executor:  util.NewPoolExecutor(),
		pcFactory: providerrtc.NewFactory(),
	}

	c.router = router.New(c.loop, c.store, c.table, c.executor, c.negotiateDeps)

	newSocket := func(url string) provider.Socket { return providerws.NewSocket(url) }

	var b *broker.Broker
	b = broker.New(c.loop, c.store, c.table, c.timer, c.executor, newSocket,
		func(s provider.Socket) { c.router.Attach(s, b.HandleSocketClosed) },
		cfg.brokerSettings(), broker.Callbacks{})
	c.brk = b

	return c
}

// negotiateDeps builds the peernode.Deps a negotiation is driven with. It's
// read fresh on every call (from the router, on the event loop) since
// RTCConfig and LocalID only become valid once authenticated.
func (c *Client) negotiateDeps() peernode.Deps {
	return peernode.Deps{
		PCFactory:           c.pcFactory,
		RTCConfig:           c.store.RTCConfig,
		Timer:               c.timer,
		Signaler:            c.brk.Signaler(),
		Executor:            c.executor,
		LocalID:             c.store.LocalID,
		Platform:            c.cfg.runtime,
		Version:             libVersion,
		ConnectionTimeoutMs: c.cfg.p2pConnectionTimeoutMs,
		MultipartTimeoutMs:  c.cfg.multipartMsgTimeoutMs,
		Post:                c.loop.Post,
	}
}

// ConnectToBroker dials and authenticates against the Broker at addr,
// blocking until AUTHENTICATED or a classified connect error (§4.J
// connect_to_broker). directMsgCallbacks registers the per-channel relay
// handlers active for this session; callbacks covers the broker-lifecycle
// events.
func (c *Client) ConnectToBroker(
	ctx context.Context,
	addr, nodeID string,
	authData string,
	directMsgCallbacks map[string]DirectMsgCallback,
	callbacks BrokerCallbacks,
) error {
	c.brk.SetCallbacks(broker.Callbacks{
		OnReconnectionAttempt:      callbacks.OnReconnectionAttempt,
		OnSuccessfullyReconnected:  callbacks.OnSuccessfullyReconnected,
		OnInvoluntaryDisconnection: func(cause broker.InvoluntaryCause) {
			if callbacks.OnInvoluntaryDisconnection != nil {
				callbacks.OnInvoluntaryDisconnection(toInvoluntaryCause(cause))
			}
		},
	})

	identity := broker.Identity{ID: nodeID, Version: libVersion, Runtime: c.cfg.runtime, AuthData: authData}
	if err := c.brk.Connect(ctx, addr, identity); err != nil {
		return connectErrorFromCause(c.brk.ConnectErrorCause())
	}

	c.loop.PostAndWait(func() {
		for channel, fn := range directMsgCallbacks {
			fn := fn
			c.store.DirectMsgCallbacks[channel] = func(from, msg string) { fn(from, msg) }
		}
	})

	return nil
}

// DisconnectFromBroker voluntarily disconnects (idempotent, blocks until
// complete; §4.J disconnect_from_broker).
func (c *Client) DisconnectFromBroker() {
	c.brk.Disconnect()
}

// IsLocalConnected reports whether this Client currently has an
// authenticated broker session (§4.J is_local_connected).
func (c *Client) IsLocalConnected() bool {
	return c.brk.IsConnected()
}

// IsRemoteConnected asks the Broker whether id currently has an
// authenticated session (§4.J is_remote_connected).
func (c *Client) IsRemoteConnected(ctx context.Context, id string) (bool, error) {
	results, err := c.AreRemotesConnected(ctx, []string{id})
	if err != nil {
		return false, err
	}
	return results[id], nil
}

// AreRemotesConnected asks the Broker which of ids are currently connected
// (§4.J are_remotes_connected).
func (c *Client) AreRemotesConnected(ctx context.Context, ids []string) (map[string]bool, error) {
	if !c.IsLocalConnected() {
		return nil, &RemoteConnectivityError{Kind: RemoteConnectivityNotConnectedToBroker}
	}

	data, err := signalcodec.EncodeAreNodesConnectedRequest(ids)
	if err != nil {
		return nil, &RemoteConnectivityError{Kind: RemoteConnectivityUnknownError}
	}

	type result struct {
		out map[string]bool
		err error
	}
	resCh := make(chan result, 1)

	c.loop.Post(func() {
		socket := c.store.Socket
		if socket == nil {
			resCh <- result{err: &RemoteConnectivityError{Kind: RemoteConnectivityNotConnectedToBroker}}
			return
		}
		socket.Emit(broker.EventAreNodesConnected, data, func(ack provider.AckResponse) {
			if ack.Status != provider.AckOK {
				resCh <- result{err: &RemoteConnectivityError{Kind: RemoteConnectivityUnknownError}}
				return
			}
			resp, err := signalcodec.ParseAreNodesConnectedResponse(ack.Payload)
			if err != nil {
				resCh <- result{err: &RemoteConnectivityError{Kind: RemoteConnectivityUnknownError}}
				return
			}
			out := make(map[string]bool, len(resp.Results))
			for _, r := range resp.Results {
				out[r.ID] = r.Connected
			}
			resCh <- result{out: out}
		})
	})

	select {
	case res := <-resCh:
		return res.out, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendSocketMsg relays msg to id's direct-relay channel through the Broker
// (§4.J send_socket_msg); it does not require a data-channel pairing.
func (c *Client) SendSocketMsg(ctx context.Context, id, channel, msg string) error {
	if !c.IsLocalConnected() {
		return &SocketMsgError{Kind: SocketMsgNotConnectedToBroker}
	}
	if channel == "" {
		return &SocketMsgError{Kind: SocketMsgEmptyChannel}
	}
	if id == "" {
		return &SocketMsgError{Kind: SocketMsgEmptyID}
	}
	if id == c.store.LocalID {
		return &SocketMsgError{Kind: SocketMsgSelfTarget}
	}

	data, err := signalcodec.EncodeSocketMsgExchange(signalcodec.SocketMsgExchange{
		From: c.store.LocalID, To: id, Channel: channel, Msg: msg,
	})
	if err != nil {
		return &SocketMsgError{Kind: SocketMsgGenericError}
	}

	errCh := make(chan error, 1)
	c.loop.Post(func() {
		socket := c.store.Socket
		if socket == nil {
			errCh <- &SocketMsgError{Kind: SocketMsgNotConnectedToBroker}
			return
		}
		socket.Emit(broker.EventSocketMsgExchange, data, func(ack provider.AckResponse) {
			if ack.Status != provider.AckOK {
				errCh <- &SocketMsgError{Kind: SocketMsgGenericError}
				return
			}
			errCh <- nil
		})
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AllowIncoming enables inbound pairing requests (§4.J allow_incoming).
func (c *Client) AllowIncoming(callbacks IncomingCallbacks) error {
	if !c.IsLocalConnected() {
		return &IncomingToggleError{Kind: IncomingNotConnectedToBroker}
	}

	errCh := make(chan error, 1)
	c.loop.Post(func() {
		if c.store.Incoming != nil {
			errCh <- &IncomingToggleError{Kind: IncomingAlreadyAllowed}
			return
		}
		c.store.Incoming = &state.IncomingCallbacks{
			OnConnectionAttempt: callbacks.OnConnectionAttempt,
			OnConnectionSuccess: func(handle any) {
				if n, ok := handle.(*peernode.Node); ok && callbacks.OnConnectionSuccess != nil {
					callbacks.OnConnectionSuccess(newNodeHandle(n, c.loop))
				}
			},
			OnDisconnection: callbacks.OnDisconnection,
		}
		errCh <- nil
	})
	return <-errCh
}

// StopIncoming disables inbound pairing requests (§4.J stop_incoming).
func (c *Client) StopIncoming() {
	c.loop.PostAndWait(func() { c.store.Incoming = nil })
}

// GetAllConnected returns a snapshot of every CONNECTED Node (§4.J
// get_all_connected).
func (c *Client) GetAllConnected() map[string]*NodeHandle {
	out := make(map[string]*NodeHandle)
	c.loop.PostAndWait(func() {
		for _, n := range c.table.AllConnected() {
			out[n.RemoteID] = newNodeHandle(n, c.loop)
		}
	})
	return out
}

// GetConnected returns the CONNECTED Node for id, if any (§4.J get_connected).
func (c *Client) GetConnected(id string) (*NodeHandle, bool) {
	var handle *NodeHandle
	c.loop.PostAndWait(func() {
		n, ok := c.table.Get(id)
		if ok && n.State == peernode.StateConnected {
			handle = newNodeHandle(n, c.loop)
		}
	})
	return handle, handle != nil
}

// ConnectResult is one target's outcome from a connect_to_multiple batch
// (§4.G): exactly one of Node/Err is set.
type ConnectResult struct {
	Node *NodeHandle
	Err  *P2PConnectError
}

// ConnectionAttempt is the handle returned by the async connect_to_multiple
// variants (§4.G): it supports cancelling every not-yet-CONNECTED target in
// the batch.
type ConnectionAttempt struct {
	h *attempt.Handle
	c *Client
}

// ForceConclusion marks every unresolved target in the batch DISCONNECTED
// and reports it as closed-by-user-forcefully (§4.G force_conclusion).
func (a *ConnectionAttempt) ForceConclusion() {
	a.c.loop.PostAndWait(func() {
		a.h.ForceConclusion(a.c.table.Get)
	})
}

func (c *Client) connectToMultiple(targets map[string]ConnectCallbacks, onConcluded func(map[string]ConnectResult)) *attempt.Handle {
	attemptTargets := make(map[string]attempt.TargetCallbacks, len(targets))
	for id, cb := range targets {
		id, cb := id, cb
		attemptTargets[id] = attempt.TargetCallbacks{
			OnConnectionSuccess: func(n *peernode.Node) {
				if cb.OnConnectionSuccess != nil {
					cb.OnConnectionSuccess(newNodeHandle(n, c.loop))
				}
			},
			OnConnectionFailed: func(reason peernode.FailureReason) {
				if cb.OnConnectionFailed != nil {
					cb.OnConnectionFailed(id, p2pErrorFromFailureReason(id, reason))
				}
			},
		}
	}

	var handle *attempt.Handle
	c.loop.PostAndWait(func() {
		handle = attempt.ConnectToMultiple(
			attemptTargets,
			c.table,
			c.store.LocalID,
			c.IsLocalConnected(),
			util.NewSessionID,
			c.negotiateDeps(),
			func(results map[string]attempt.Outcome) {
				if onConcluded == nil {
					return
				}
				out := make(map[string]ConnectResult, len(results))
				for id, outcome := range results {
					if outcome.Node != nil {
						out[id] = ConnectResult{Node: newNodeHandle(outcome.Node, c.loop)}
					} else {
						out[id] = ConnectResult{Err: p2pErrorFromFailureReason(id, outcome.Failure)}
					}
				}
				onConcluded(out)
			},
		)
	})
	return handle
}

// ConnectToMultipleAsync dials every target concurrently and reports each
// outcome through its own ConnectCallbacks as it resolves (§4.G, §4.J).
func (c *Client) ConnectToMultipleAsync(targets map[string]ConnectCallbacks) *ConnectionAttempt {
	h := c.connectToMultiple(targets, nil)
	return &ConnectionAttempt{h: h, c: c}
}

// ConnectToMultipleSync blocks until every target in the batch has resolved
// and returns the aggregate result map (§4.G "Synchronous variants").
func (c *Client) ConnectToMultipleSync(targets []string) map[string]ConnectResult {
	cbTargets := make(map[string]ConnectCallbacks, len(targets))
	for _, id := range targets {
		cbTargets[id] = ConnectCallbacks{}
	}
	h := c.connectToMultiple(cbTargets, nil)
	results := h.Wait()
	out := make(map[string]ConnectResult, len(results))
	for id, outcome := range results {
		if outcome.Node != nil {
			out[id] = ConnectResult{Node: newNodeHandle(outcome.Node, c.loop)}
		} else {
			out[id] = ConnectResult{Err: p2pErrorFromFailureReason(id, outcome.Failure)}
		}
	}
	return out
}

// ConnectToSingleAsync is ConnectToMultipleAsync for exactly one target.
func (c *Client) ConnectToSingleAsync(remoteID string, callbacks ConnectCallbacks) *ConnectionAttempt {
	return c.ConnectToMultipleAsync(map[string]ConnectCallbacks{remoteID: callbacks})
}

// ConnectToSingleSync is ConnectToMultipleSync for exactly one target.
func (c *Client) ConnectToSingleSync(remoteID string) ConnectResult {
	return c.ConnectToMultipleSync([]string{remoteID})[remoteID]
}
