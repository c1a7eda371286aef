// Package framing implements §4.E: the outbound chunk splitter, the
// inbound timeout-bounded strict-in-order reassembler, and the outbound
// backpressure helper. Grounded on the teacher's internal/transport/sender.go
// (buffered-amount backpressure) and internal/adapter/reassembler.go
// (heap-based reordering, superseded here by the strict in-order policy: the
// Node's data channel is a single *ordered* channel, so
// out-of-order parts indicate a protocol violation rather than expected
// SCTP reordering).
package framing

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
)

// PayloadChunkBytes is the internal chunking constant (§6.5, §9: "treat as
// internal constant unless exposed explicitly by configuration").
const PayloadChunkBytes = 15000

// Split partitions payload into frames of at most chunkBytes each, per
// §4.E. An empty payload produces exactly one frame (part=0, total=1).
func Split(channel string, msgID int32, payload []byte, chunkBytes int) []signalcodec.Frame {
	if chunkBytes <= 0 {
		chunkBytes = PayloadChunkBytes
	}

	if len(payload) == 0 {
		return []signalcodec.Frame{{
			MsgType: signalcodec.MsgTypeUser,
			MsgID:   msgID,
			Channel: channel,
			Payload: []byte{},
			Part:    0,
			Total:   1,
		}}
	}

	total := (len(payload) + chunkBytes - 1) / chunkBytes
	frames := make([]signalcodec.Frame, 0, total)
	for part := 0; part < total; part++ {
		start := part * chunkBytes
		end := start + chunkBytes
		if end > len(payload) {
			end = len(payload)
		}
		frames = append(frames, signalcodec.Frame{
			MsgType: signalcodec.MsgTypeUser,
			MsgID:   msgID,
			Channel: channel,
			Payload: payload[start:end],
			Part:    part,
			Total:   total,
		})
	}
	return frames
}
