package framing

import (
	"context"
	"fmt"
	"time"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// MaxBufferedAmount is the internal backpressure watermark (§6.5, §9).
const MaxBufferedAmount = 512 * 1024

// Sender writes frames to a single data channel, applying outbound
// backpressure against MaxBufferedAmount (§4.E, §5). It prefers the
// condition-variable signal from OnBufferedAmountLow and falls back to a
// bounded 1 ms poll, per the teacher's internal/transport/sender.go pattern
// and §9's explicit guidance.
type Sender struct {
	dc  provider.DataChannel
	low chan struct{}
}

// NewSender wires the buffered-amount-low callback and returns a ready Sender.
func NewSender(dc provider.DataChannel) *Sender {
	s := &Sender{dc: dc, low: make(chan struct{}, 1)}
	dc.SetBufferedAmountLowThreshold(MaxBufferedAmount)
	dc.OnBufferedAmountLow(func() {
		select {
		case s.low <- struct{}{}:
		default:
		}
	})
	return s
}

// SendPayload splits payload into frames and sends them, in ascending part
// order, over the data channel (§4.E). It blocks the calling goroutine
// (never the event-loop worker) while backpressure is applied.
func (s *Sender) SendPayload(ctx context.Context, msgID int32, channel string, payload []byte) error {
	for _, frame := range Split(channel, msgID, payload, PayloadChunkBytes) {
		if err := s.sendFrame(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) sendFrame(ctx context.Context, frame signalcodec.Frame) error {
	if err := s.awaitDrain(ctx); err != nil {
		return err
	}

	data, err := signalcodec.EncodeFrame(frame)
	if err != nil {
		return fmt.Errorf("framing: encode frame: %w", err)
	}

	if err := s.dc.Send(data); err != nil {
		return fmt.Errorf("framing: send frame: %w", err)
	}
	util.Stats.AddFrameSent()
	return nil
}

func (s *Sender) awaitDrain(ctx context.Context) error {
	for s.dc.BufferedAmount() > MaxBufferedAmount {
		select {
		case <-s.low:
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
