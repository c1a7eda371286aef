package framing

import (
	"sync"
	"time"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// buffer is one in-flight multipart reassembly (§3: incoming_multipart[k]).
type buffer struct {
	channel      string
	msgType      signalcodec.MsgType
	total        int
	nextExpected int
	parts        [][]byte
	cancel       provider.Cancelable
}

// DeliverFunc receives a fully reassembled USER_MSG payload on its channel.
type DeliverFunc func(channel string, payload []byte)

// Reassembler reconstructs multipart frames for one Node's inbound data
// channel, enforcing the strict in-order policy decided for this
// implementation (§4.E, §9): a part arriving out of the expected order
// discards the whole in-flight message rather than being buffered for
// reordering, since the underlying data channel is itself ordered.
type Reassembler struct {
	mu      sync.Mutex
	buffers map[int32]*buffer
	timer   provider.Timer
	timeout time.Duration
	deliver DeliverFunc
}

// NewReassembler creates a Reassembler that discards an incomplete buffer
// after timeout has elapsed since its first part arrived.
func NewReassembler(timer provider.Timer, timeout time.Duration, deliver DeliverFunc) *Reassembler {
	return &Reassembler{
		buffers: make(map[int32]*buffer),
		timer:   timer,
		timeout: timeout,
		deliver: deliver,
	}
}

// Accept processes one inbound frame (§4.E).
func (r *Reassembler) Accept(f signalcodec.Frame) {
	util.Stats.AddFrameReceived()

	if f.Total <= 0 {
		util.LogError("framing: dropping frame with non-positive total (msgId=%d)", f.MsgID)
		return
	}

	if f.Total == 1 {
		r.deliverFrame(f.MsgType, f.Channel, f.Payload)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.buffers[f.MsgID]

	if !exists {
		if f.Part != 0 {
			util.LogError("framing: dropping out-of-order frame for unknown msgId=%d (part=%d)", f.MsgID, f.Part)
			return
		}

		b = &buffer{
			channel: f.Channel,
			msgType: f.MsgType,
			total:   f.Total,
			parts:   make([][]byte, f.Total),
		}
		msgID := f.MsgID
		b.cancel = r.timer.ScheduleOnce(int(r.timeout.Milliseconds()), func() {
			r.expire(msgID)
		})
		r.buffers[f.MsgID] = b
	}

	if f.Part != b.nextExpected {
		util.LogError("framing: out-of-order part for msgId=%d (expected %d, got %d); discarding", f.MsgID, b.nextExpected, f.Part)
		b.cancel.Cancel()
		delete(r.buffers, f.MsgID)
		util.Stats.AddMultipartDiscard()
		return
	}

	b.parts[f.Part] = f.Payload
	b.nextExpected++

	if b.nextExpected == b.total {
		b.cancel.Cancel()
		delete(r.buffers, f.MsgID)
		payload := concat(b.parts)
		r.deliverFrame(b.msgType, b.channel, payload)
	}
}

func (r *Reassembler) expire(msgID int32) {
	r.mu.Lock()
	b, exists := r.buffers[msgID]
	if exists {
		delete(r.buffers, msgID)
	}
	r.mu.Unlock()

	if !exists {
		return
	}
	util.LogError("framing: multipart reassembly timed out for msgId=%d", msgID)
	util.Stats.AddMultipartDiscard()
}

func (r *Reassembler) deliverFrame(msgType signalcodec.MsgType, channel string, payload []byte) {
	if msgType != signalcodec.MsgTypeUser {
		util.LogDebug("framing: dropping frame with unrecognized msgType=%d on channel %q", msgType, channel)
		return
	}
	r.deliver(channel, payload)
}

func concat(parts [][]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
