package signalcodec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MsgType is the reserved-enum message kind carried by every Frame (§3,
// §9): only MsgTypeUser is accepted on receive; anything else is logged and
// dropped by the framing layer, never routed.
type MsgType int

const (
	MsgTypeUser MsgType = 0
)

// Frame is the data-channel payload (§3, §6.3): a CBOR-encoded map with
// fields {msgType, msgId, channel, payload, part, total}.
type Frame struct {
	MsgType MsgType `cbor:"msgType"`
	MsgID   int32   `cbor:"msgId"`
	Channel string  `cbor:"channel"`
	Payload []byte  `cbor:"payload"`
	Part    int     `cbor:"part"`
	Total   int     `cbor:"total"`
}

// ErrIncompleteFrame is returned by DecodeFrame when required fields are
// absent from the decoded CBOR map.
var ErrIncompleteFrame = errors.New("signalcodec: frame missing required field")

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("signalcodec: invalid cbor encoding options: %v", err))
	}
	return mode
}()

// EncodeFrame serializes a Frame to CBOR bytes (§6.3).
func EncodeFrame(f Frame) ([]byte, error) {
	data, err := cborEncMode.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("signalcodec: encode frame: %w", err)
	}
	return data, nil
}

// rawFrame mirrors Frame but with pointer fields, so DecodeFrame can detect
// a field that was never present in the CBOR map (as opposed to present
// with its zero value) — the "parsable→checked" pattern applied to §6.3's
// required-field set.
type rawFrame struct {
	MsgType *MsgType `cbor:"msgType"`
	MsgID   *int32   `cbor:"msgId"`
	Channel *string  `cbor:"channel"`
	Payload []byte   `cbor:"payload"`
	Part    *int     `cbor:"part"`
	Total   *int     `cbor:"total"`
}

// DecodeFrame deserializes CBOR bytes into a Frame, rejecting any frame
// missing one of {msgType, msgId, channel, payload, part, total} (§8.6).
// A present-but-empty payload is valid (the empty-payload edge case, §4.E).
func DecodeFrame(data []byte) (Frame, error) {
	var raw rawFrame
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return Frame{}, fmt.Errorf("signalcodec: decode frame: %w", err)
	}
	if raw.MsgType == nil || raw.MsgID == nil || raw.Channel == nil || raw.Payload == nil || raw.Part == nil || raw.Total == nil {
		return Frame{}, ErrIncompleteFrame
	}
	return Frame{
		MsgType: *raw.MsgType,
		MsgID:   *raw.MsgID,
		Channel: *raw.Channel,
		Payload: raw.Payload,
		Part:    *raw.Part,
		Total:   *raw.Total,
	}, nil
}
