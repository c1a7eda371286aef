package signalcodec

import "testing"

func testEnvelope() DirectMessageEnvelope {
	return DirectMessageEnvelope{
		PlatformFrom: "go",
		VersionFrom:  "0.1.0",
		From:         "alice",
		To:           "bob",
		SessionID:    "sess-1",
	}
}

func TestConnectionAttemptRoundTrip(t *testing.T) {
	offer := SessionDescriptionWire{Type: "offer", SDP: "v=0"}
	data, err := EncodeConnectionAttempt(testEnvelope(), offer)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := ParseConnectionAttempt(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.DirectMessageEnvelope != testEnvelope() || got.Offer != offer {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestConnectionAttemptMissingFieldRejected(t *testing.T) {
	if _, err := ParseConnectionAttempt([]byte(`{"from":"alice"}`)); err != ErrMalformedEnvelope {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestConnectionAttemptMissingOfferRejected(t *testing.T) {
	data, _ := EncodeBareEnvelope(testEnvelope())
	if _, err := ParseConnectionAttempt(data); err != ErrMalformedEnvelope {
		t.Fatalf("expected ErrMalformedEnvelope for missing offer, got %v", err)
	}
}

func TestConnectionAcceptanceRoundTrip(t *testing.T) {
	answer := SessionDescriptionWire{Type: "answer", SDP: "v=0"}
	data, err := EncodeConnectionAcceptance(testEnvelope(), answer)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseConnectionAcceptance(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Answer != answer {
		t.Fatalf("answer mismatch: %+v", got.Answer)
	}
}

func TestConnectionRefusalRoundTrip(t *testing.T) {
	data, err := EncodeBareEnvelope(testEnvelope())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseConnectionRefusal(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.DirectMessageEnvelope != testEnvelope() {
		t.Fatalf("envelope mismatch: %+v", got)
	}
}

func TestICECandidateExchangeRoundTrip(t *testing.T) {
	candidate := CandidateWire{SDP: "candidate:1", SDPMid: "0", SDPMLineIndex: 0}
	data, err := EncodeICECandidateExchange(testEnvelope(), candidate)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseICECandidateExchange(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Candidate != candidate {
		t.Fatalf("candidate mismatch: %+v", got.Candidate)
	}
}

func TestSocketMsgExchangeRoundTrip(t *testing.T) {
	msg := SocketMsgExchange{From: "alice", To: "bob", Channel: "chat", Msg: "hello"}
	data, err := EncodeSocketMsgExchange(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseSocketMsgExchange(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != msg {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSocketMsgExchangeMissingFieldRejected(t *testing.T) {
	if _, err := ParseSocketMsgExchange([]byte(`{"from":"alice","to":"bob"}`)); err != ErrMalformedEnvelope {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestAreNodesConnectedResponseParse(t *testing.T) {
	data := []byte(`{"results":[{"id":"bob","connected":true},{"id":"carl","connected":false}]}`)
	resp, err := ParseAreNodesConnectedResponse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != "bob" || !resp.Results[0].Connected || resp.Results[1].Connected {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestAreNodesConnectedRequestEncode(t *testing.T) {
	data, err := EncodeAreNodesConnectedRequest([]string{"bob", "carl"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `{"ids":["bob","carl"]}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
