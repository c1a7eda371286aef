// Package providerws implements provider.Socket over gorilla/websocket: the
// concrete half of the abstract event+ack signaling transport (§4.B) used to
// talk to the Broker. Adapted from the teacher's internal/signaling package
// (client-dial half only — the teacher's PIN-protected WS server has no
// counterpart here, since the Broker is always external and this node is
// always the dialing side).
package providerws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// envelope is the wire frame for every message exchanged with the Broker:
// a named event carrying opaque JSON data, optionally correlated to an ack.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID uint64          `json:"ackId,omitempty"`
}

// ackEnvelope is what the Broker sends back in reply to an AckID-bearing
// envelope.
type ackEnvelope struct {
	AckID   uint64          `json:"ackId"`
	Status  string          `json:"status"`
	Token   string          `json:"token,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const ackEventName = "__ack__"

// Socket is the production provider.Socket, backed by a single
// gorilla/websocket connection dialed to the Broker's signaling endpoint.
type Socket struct {
	url string

	mu           sync.Mutex
	conn         *websocket.Conn
	handlers     map[string]func([]byte)
	acks         map[uint64]func(provider.AckResponse)
	nextAck      atomic.Uint64
	onDisconnect func(message string, err error)

	closeOnce sync.Once
	done      chan struct{}
}

// NewSocket returns a Socket dialing url once Connect is called.
func NewSocket(url string) *Socket {
	return &Socket{
		url:      url,
		handlers: make(map[string]func([]byte)),
		acks:     make(map[uint64]func(provider.AckResponse)),
		done:     make(chan struct{}),
	}
}

func (s *Socket) Connect(ctx context.Context) error {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("providerws: dial broker: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)

	return nil
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	defer s.failAllPending()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			util.LogDebug("providerws: read loop ended: %v", err)
			s.reportDisconnect(err)
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			util.LogWarning("providerws: malformed frame dropped: %v", err)
			continue
		}

		if env.Event == ackEventName {
			var ack ackEnvelope
			if err := json.Unmarshal(env.Data, &ack); err != nil {
				util.LogWarning("providerws: malformed ack dropped: %v", err)
				continue
			}
			s.resolveAck(ack)
			continue
		}

		s.mu.Lock()
		handler := s.handlers[env.Event]
		s.mu.Unlock()

		if handler == nil {
			util.LogDebug("providerws: no handler registered for event %q", env.Event)
			continue
		}

		handler(env.Data)
	}
}

func (s *Socket) resolveAck(ack ackEnvelope) {
	s.mu.Lock()
	cb, ok := s.acks[ack.AckID]
	if ok {
		delete(s.acks, ack.AckID)
	}
	s.mu.Unlock()

	if !ok || cb == nil {
		return
	}

	status := provider.AckError
	if ack.Status == string(provider.AckOK) {
		status = provider.AckOK
	}

	cb(provider.AckResponse{Status: status, Token: ack.Token, Payload: ack.Payload})
}

// reportDisconnect fires the OnDisconnect handler when the read loop ended
// for a reason other than a caller-initiated Disconnect (§4.H).
func (s *Socket) reportDisconnect(err error) {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	handler := s.onDisconnect
	s.mu.Unlock()

	message := ""
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		message = closeErr.Text
	}

	if handler != nil {
		handler(message, err)
	}
}

func (s *Socket) failAllPending() {
	s.mu.Lock()
	pending := s.acks
	s.acks = make(map[uint64]func(provider.AckResponse))
	s.mu.Unlock()

	for _, cb := range pending {
		cb(provider.AckResponse{Status: provider.AckError, Token: "socket_disconnected"})
	}
}

func (s *Socket) Disconnect() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
}

func (s *Socket) Emit(event string, payload []byte, ack func(provider.AckResponse)) {
	env := envelope{Event: event, Data: payload}

	if ack != nil {
		id := s.nextAck.Add(1)
		env.AckID = id
		s.mu.Lock()
		s.acks[id] = ack
		s.mu.Unlock()
	}

	data, err := json.Marshal(env)
	if err != nil {
		util.LogError("providerws: failed to marshal envelope for %q: %v", event, err)
		return
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		if ack != nil {
			ack(provider.AckResponse{Status: provider.AckError, Token: "socket_disconnected"})
		}
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		util.LogWarning("providerws: write failed for event %q: %v", event, err)
		if ack != nil {
			s.mu.Lock()
			delete(s.acks, env.AckID)
			s.mu.Unlock()
			ack(provider.AckResponse{Status: provider.AckError, Token: "socket_disconnected"})
		}
	}
}

func (s *Socket) On(event string, handler func(payload []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = handler
}

func (s *Socket) OnDisconnect(handler func(message string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = handler
}

func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
		return s.conn != nil
	}
}

var _ provider.Socket = (*Socket)(nil)
