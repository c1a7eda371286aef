package providerrtc

import (
	"github.com/pion/webrtc/v4"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// dataChannel adapts *webrtc.DataChannel to provider.DataChannel. Grounded
// on the teacher's internal/webrtc/channel.go wrapper and the buffered-amount
// backpressure idiom of internal/transport/sender.go.
type dataChannel struct {
	dc *webrtc.DataChannel
}

func newDataChannel(dc *webrtc.DataChannel) *dataChannel {
	return &dataChannel{dc: dc}
}

func (d *dataChannel) State() provider.DataChannelState {
	switch d.dc.ReadyState() {
	case webrtc.DataChannelStateConnecting:
		return provider.DataChannelStateConnecting
	case webrtc.DataChannelStateOpen:
		return provider.DataChannelStateOpen
	case webrtc.DataChannelStateClosing:
		return provider.DataChannelStateClosing
	case webrtc.DataChannelStateClosed:
		return provider.DataChannelStateClosed
	default:
		return provider.DataChannelStateConnecting
	}
}

func (d *dataChannel) RegisterObserver(onState func(provider.DataChannelState), onMessage func([]byte)) {
	d.dc.OnOpen(func() { onState(provider.DataChannelStateOpen) })
	d.dc.OnClose(func() { onState(provider.DataChannelStateClosed) })
	d.dc.OnError(func(error) { onState(provider.DataChannelStateClosed) })
	d.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		onMessage(msg.Data)
	})
}

func (d *dataChannel) Send(data []byte) error {
	return d.dc.Send(data)
}

func (d *dataChannel) BufferedAmount() uint64 {
	return uint64(d.dc.BufferedAmount())
}

func (d *dataChannel) SetBufferedAmountLowThreshold(threshold uint64) {
	d.dc.SetBufferedAmountLowThreshold(threshold)
}

func (d *dataChannel) OnBufferedAmountLow(fn func()) {
	d.dc.OnBufferedAmountLow(fn)
}

func (d *dataChannel) Close() error {
	return d.dc.Close()
}
