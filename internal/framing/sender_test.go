package framing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// fakeDataChannel is an in-memory provider.DataChannel for exercising the
// Sender's backpressure logic without a real WebRTC stack.
type fakeDataChannel struct {
	mu        sync.Mutex
	buffered  uint64
	threshold uint64
	onLow     func()
	sent      [][]byte
}

func (f *fakeDataChannel) State() provider.DataChannelState { return provider.DataChannelStateOpen }
func (f *fakeDataChannel) RegisterObserver(func(provider.DataChannelState), func([]byte)) {}

func (f *fakeDataChannel) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeDataChannel) BufferedAmount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffered
}

func (f *fakeDataChannel) SetBufferedAmountLowThreshold(threshold uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = threshold
}

func (f *fakeDataChannel) OnBufferedAmountLow(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLow = fn
}

func (f *fakeDataChannel) Close() error { return nil }

func (f *fakeDataChannel) setBuffered(v uint64) {
	f.mu.Lock()
	low := f.onLow
	wasAbove := f.buffered > f.threshold
	f.buffered = v
	nowAtOrBelow := v <= f.threshold
	f.mu.Unlock()
	if wasAbove && nowAtOrBelow && low != nil {
		low()
	}
}

var _ provider.DataChannel = (*fakeDataChannel)(nil)

func TestSenderSendsUnderBufferedThreshold(t *testing.T) {
	dc := &fakeDataChannel{}
	s := NewSender(dc)

	if err := s.SendPayload(context.Background(), 1, "chat", []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(dc.sent) != 1 {
		t.Fatalf("expected 1 frame sent, got %d", len(dc.sent))
	}
}

func TestSenderWaitsForBufferedAmountLow(t *testing.T) {
	dc := &fakeDataChannel{}
	s := NewSender(dc)
	dc.setBuffered(MaxBufferedAmount + 1)

	done := make(chan error, 1)
	go func() {
		done <- s.SendPayload(context.Background(), 1, "chat", []byte("hello"))
	}()

	select {
	case <-done:
		t.Fatalf("send returned before buffer drained")
	case <-time.After(20 * time.Millisecond):
	}

	dc.setBuffered(0)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("send: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("send never unblocked after buffer drained")
	}
}

func TestSenderRespectsContextCancellation(t *testing.T) {
	dc := &fakeDataChannel{}
	s := NewSender(dc)
	dc.setBuffered(MaxBufferedAmount + 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.SendPayload(ctx, 1, "chat", []byte("hello"))
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected context cancellation error")
		}
	case <-time.After(time.Second):
		t.Fatalf("send never returned after cancellation")
	}
}
