package framing

import (
	"bytes"
	"testing"
	"time"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/signalcodec"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

func collectDeliveries() (DeliverFunc, func() []string) {
	var got []string
	return func(channel string, payload []byte) {
		got = append(got, channel+":"+string(payload))
	}, func() []string { return got }
}

func TestReassemblerSinglePartDeliversImmediately(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), time.Minute, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 1, Channel: "chat", Payload: []byte("hi"), Part: 0, Total: 1})

	if got := results(); len(got) != 1 || got[0] != "chat:hi" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestReassemblerInOrderMultipartDelivers(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), time.Minute, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 5, Channel: "chat", Payload: []byte("he"), Part: 0, Total: 2})
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 5, Channel: "chat", Payload: []byte("llo"), Part: 1, Total: 2})

	if got := results(); len(got) != 1 || got[0] != "chat:hello" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestReassemblerOutOfOrderPartDiscardsBuffer(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), time.Minute, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 9, Channel: "chat", Payload: []byte("a"), Part: 0, Total: 3})
	// Part 2 arrives before part 1: discard the whole in-flight buffer.
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 9, Channel: "chat", Payload: []byte("c"), Part: 2, Total: 3})
	// The buffer is gone; part 1 now looks out-of-order too (expected 0) and is dropped.
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 9, Channel: "chat", Payload: []byte("b"), Part: 1, Total: 3})

	if got := results(); len(got) != 0 {
		t.Fatalf("expected no delivery after out-of-order discard, got %v", got)
	}
}

func TestReassemblerDropsNonPositiveTotal(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), time.Minute, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 1, Channel: "chat", Payload: []byte("x"), Part: 0, Total: 0})

	if got := results(); len(got) != 0 {
		t.Fatalf("expected no delivery for non-positive total, got %v", got)
	}
}

func TestReassemblerTimeoutDiscardsIncompleteBuffer(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), 10*time.Millisecond, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 2, Channel: "chat", Payload: []byte("a"), Part: 0, Total: 2})

	time.Sleep(50 * time.Millisecond)

	// A late-arriving continuation must be treated as unknown (buffer expired).
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 2, Channel: "chat", Payload: []byte("b"), Part: 1, Total: 2})

	if got := results(); len(got) != 0 {
		t.Fatalf("expected no delivery after timeout discard, got %v", got)
	}
}

func TestReassemblerDropsUnrecognizedMsgType(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), time.Minute, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgType(99), MsgID: 1, Channel: "chat", Payload: []byte("x"), Part: 0, Total: 1})

	if got := results(); len(got) != 0 {
		t.Fatalf("expected no delivery for unrecognized msgType, got %v", got)
	}
}

func TestReassemblerInterleavedMessagesDoNotCollide(t *testing.T) {
	deliver, results := collectDeliveries()
	r := NewReassembler(util.NewSystemTimer(), time.Minute, deliver)

	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 1, Channel: "a", Payload: []byte("1"), Part: 0, Total: 2})
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 2, Channel: "b", Payload: []byte("2"), Part: 0, Total: 2})
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 1, Channel: "a", Payload: []byte("1b"), Part: 1, Total: 2})
	r.Accept(signalcodec.Frame{MsgType: signalcodec.MsgTypeUser, MsgID: 2, Channel: "b", Payload: []byte("2b"), Part: 1, Total: 2})

	got := results()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %v", got)
	}
	if !bytes.Contains([]byte(got[0]+got[1]), []byte("a:11b")) || !bytes.Contains([]byte(got[0]+got[1]), []byte("b:22b")) {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}
