package signalcodec

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{MsgType: MsgTypeUser, MsgID: 7, Channel: "chat", Payload: []byte("hello"), Part: 0, Total: 1}
	data, err := EncodeFrame(f)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MsgID != f.MsgID || got.Channel != f.Channel || !bytes.Equal(got.Payload, f.Payload) || got.Part != f.Part || got.Total != f.Total {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFrameRoundTripEmptyPayload(t *testing.T) {
	f := Frame{MsgType: MsgTypeUser, MsgID: 1, Channel: "chat", Payload: []byte{}, Part: 0, Total: 1}
	data, err := EncodeFrame(f)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode of empty-payload frame must succeed: %v", err)
	}
	if len(got.Payload) != 0 {
		t.Fatalf("expected empty payload, got %v", got.Payload)
	}
}

func TestDecodeFrameRejectsMissingField(t *testing.T) {
	data, err := cborEncMode.Marshal(map[string]any{
		"msgType": 0, "msgId": 1, "channel": "chat", "payload": []byte("x"),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := DecodeFrame(data); err != ErrIncompleteFrame {
		t.Fatalf("expected ErrIncompleteFrame, got %v", err)
	}
}
