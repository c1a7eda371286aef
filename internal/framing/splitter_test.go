package framing

import (
	"bytes"
	"testing"
)

func TestSplitEmptyPayloadProducesOneFrame(t *testing.T) {
	frames := Split("chat", 1, nil, 10)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Total != 1 || frames[0].Part != 0 || len(frames[0].Payload) != 0 {
		t.Fatalf("unexpected empty-payload frame: %+v", frames[0])
	}
}

func TestSplitChunksPayload(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 25)
	frames := Split("chat", 1, payload, 10)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if f.Part != i || f.Total != 3 || f.MsgID != 1 || f.Channel != "chat" {
			t.Fatalf("frame %d malformed: %+v", i, f)
		}
	}
	reassembled := append(append(append([]byte{}, frames[0].Payload...), frames[1].Payload...), frames[2].Payload...)
	if !bytes.Equal(reassembled, payload) {
		t.Fatalf("chunks don't reassemble to original payload")
	}
}

func TestSplitExactMultipleOfChunkSize(t *testing.T) {
	payload := bytes.Repeat([]byte("b"), 20)
	frames := Split("chat", 1, payload, 10)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
}
