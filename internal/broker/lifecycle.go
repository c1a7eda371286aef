package broker

import (
	"context"
	"fmt"
	"net/url"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/eventloop"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/state"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// Callbacks is the user-visible broker-lifecycle callback surface (§4.H, §4.J).
type Callbacks struct {
	OnReconnectionAttempt     func(attempt int)
	OnSuccessfullyReconnected func()
	OnInvoluntaryDisconnection func(cause InvoluntaryCause)
}

// Settings is the reconnection policy (§6.5).
type Settings struct {
	Reconnection            bool
	MaxReconnectionAttempts int // 0 means unbounded
	ReconnectionDeltaMs     int
}

// Identity is what this node presents to the Broker at connect time (§6.4).
type Identity struct {
	ID       string
	Version  string
	Runtime  string
	AuthData string
}

// Broker owns the signaling socket's lifecycle: connect/authenticate,
// involuntary-disconnect classification, bounded reconnection, and
// voluntary disconnect (§4.H). It also satisfies peernode.Signaler.
type Broker struct {
	loop     *eventloop.Loop
	store    *state.Store
	table    *peernode.Table
	timer    provider.Timer
	executor provider.Executor

	newSocket func(url string) provider.Socket
	registerHandlers func(s provider.Socket)

	settings  Settings
	callbacks Callbacks

	url      string
	identity Identity

	voluntaryDisconnect bool
	connectLatch        *util.Latch
	connectErr          error
	connectCause        ConnectCause

	reconnectAttempts int

	signaler *signaler
}

// New constructs a Broker. registerHandlers installs the router's per-event
// socket handlers (internal/router) onto a freshly created socket — broker
// doesn't know about routing, only about connect/reconnect mechanics.
func New(
	loop *eventloop.Loop,
	store *state.Store,
	table *peernode.Table,
	timer provider.Timer,
	executor provider.Executor,
	newSocket func(url string) provider.Socket,
	registerHandlers func(s provider.Socket),
	settings Settings,
	callbacks Callbacks,
) *Broker {
	b := &Broker{
		loop:             loop,
		store:            store,
		table:            table,
		timer:            timer,
		executor:         executor,
		newSocket:        newSocket,
		registerHandlers: registerHandlers,
		settings:         settings,
		callbacks:        callbacks,
		signaler:         newSignaler(store),
	}
	return b
}

func (b *Broker) runCallback(fn func()) {
	if b.executor != nil {
		b.executor.Run(fn)
	} else {
		fn()
	}
}

// Signaler exposes the broker's peernode.Signaler implementation.
func (b *Broker) Signaler() peernode.Signaler { return b.signaler }

// SetCallbacks replaces the broker-lifecycle callback surface. Safe to call
// before every Connect, since the facade gathers these per connect_to_broker
// call rather than at construction time (§4.J).
func (b *Broker) SetCallbacks(c Callbacks) { b.callbacks = c }

// Connect dials and authenticates against the Broker, blocking the caller
// until AUTHENTICATED or a connect error is classified (§4.H, §4.J
// connect_to_broker). Must be invoked off the event-loop worker.
func (b *Broker) Connect(ctx context.Context, url string, identity Identity) error {
	b.url = url
	b.identity = identity
	b.reconnectAttempts = 0
	b.voluntaryDisconnect = false

	latch := util.NewLatch()
	b.connectLatch = latch
	b.connectErr = nil
	b.connectCause = ""

	b.loop.Post(func() {
		b.dial(ctx)
	})

	latch.Wait()
	return b.connectErr
}

// ConnectErrorCause returns the classified cause of the most recent failed
// Connect call, or "" if it succeeded. Only meaningful right after Connect
// returns a non-nil error.
func (b *Broker) ConnectErrorCause() ConnectCause {
	return b.connectCause
}

func (b *Broker) dial(ctx context.Context) {
	socket := b.newSocket(connectURL(b.url, b.identity))
	b.registerHandlers(socket)

	socket.On(EventAuthenticated, func(payload []byte) {
		b.loop.Post(func() { b.onAuthenticated(socket, payload) })
	})

	if err := socket.Connect(ctx); err != nil {
		if b.connectLatch == nil {
			// A reconnection dial failed: count it like any other involuntary
			// disconnection so the reconnect policy keeps running.
			b.HandleSocketClosed("", err)
			return
		}
		b.finishConnect(classifyConnectError("", err))
		return
	}

	b.store.Socket = socket
}

// connectURL embeds the node's identity as query parameters on the dial
// URL, mirroring the teacher's documented pattern of passing auth material
// (its PIN) as a query parameter on the dialed URL (§4.H, §6.4: "Socket
// connect query parameters: id, version, runtime, optional data"). If
// baseURL fails to parse, the identity is dropped and the bare URL is
// returned — dialing then fails downstream with a classifiable socket error
// rather than panicking here.
func connectURL(baseURL string, identity Identity) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	q.Set("id", identity.ID)
	q.Set("version", identity.Version)
	q.Set("runtime", identity.Runtime)
	if identity.AuthData != "" {
		q.Set("data", identity.AuthData)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (b *Broker) onAuthenticated(socket provider.Socket, payload []byte) {
	rtcConfig, err := signalcodec.ParseRTCConfig(payload)
	if err != nil {
		util.LogError("broker: malformed rtc configuration: %v", err)
		socket.Disconnect()
		b.finishConnect(ConnectErrorParsingRTCConfig)
		return
	}

	b.store.Init(b.identity.ID, b.url, socket, rtcConfig)

	if b.reconnectAttempts > 0 && b.callbacks.OnSuccessfullyReconnected != nil {
		b.runCallback(b.callbacks.OnSuccessfullyReconnected)
	}
	b.reconnectAttempts = 0

	b.finishConnect("")
}

func (b *Broker) finishConnect(cause ConnectCause) {
	if b.connectLatch == nil {
		return
	}
	if cause != "" {
		b.connectErr = fmt.Errorf("broker: connect failed: %s", cause)
		b.connectCause = cause
	}
	latch := b.connectLatch
	b.connectLatch = nil
	latch.Release()
}

// HandleSocketClosed is invoked by the router when the socket reports
// disconnect/connect_error (§4.H involuntary disconnection). It runs on the
// event-loop worker.
func (b *Broker) HandleSocketClosed(brokerMessage string, transportErr error) {
	if b.voluntaryDisconnect {
		return
	}

	cause := classifyConnectError(brokerMessage, transportErr)

	if b.connectLatch != nil {
		// Closed before AUTHENTICATED: report the cause to the waiting Connect.
		b.finishConnect(cause)
		return
	}

	exhausted := b.settings.MaxReconnectionAttempts > 0 && b.reconnectAttempts >= b.settings.MaxReconnectionAttempts
	if b.settings.Reconnection && cause == ConnectSocketError && !exhausted {
		b.reconnectAttempts++
		util.Stats.AddReconnectAttempt()
		if b.callbacks.OnReconnectionAttempt != nil {
			attempt := b.reconnectAttempts
			b.runCallback(func() { b.callbacks.OnReconnectionAttempt(attempt) })
		}
		b.timer.ScheduleOnce(b.settings.ReconnectionDeltaMs, func() {
			b.loop.Post(func() { b.dial(context.Background()) })
		})
		return
	}

	finalExhausted := b.settings.Reconnection && cause == ConnectSocketError && exhausted
	involuntaryCause := toInvoluntaryCause(cause, finalExhausted)

	b.store.Flush()
	if b.callbacks.OnInvoluntaryDisconnection != nil {
		b.runCallback(func() { b.callbacks.OnInvoluntaryDisconnection(involuntaryCause) })
	}
}

// Disconnect voluntarily disconnects from the Broker (§4.H, §4.J
// disconnect_from_broker). Idempotent; blocks until complete. Must be
// invoked off the event-loop worker.
func (b *Broker) Disconnect() {
	latch := util.NewLatch()

	b.loop.Post(func() {
		if b.voluntaryDisconnect || b.store.Socket == nil {
			latch.Release()
			return
		}
		b.voluntaryDisconnect = true

		for _, n := range b.table.NotConnected() {
			n.ForceClose(peernode.StateDisconnected, peernode.FailureBrokerDisconnected)
		}

		b.store.Socket.Disconnect()
		b.store.Flush()
		latch.Release()
	})

	latch.Wait()
}

// IsConnected reports whether the broker session is currently authenticated.
func (b *Broker) IsConnected() bool {
	return b.store.Connected()
}
