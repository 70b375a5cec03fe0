package state

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// Record discriminators prefixed to msgpack encoded records.
const (
	recordAccount  byte = 0xA1
	recordTreasury byte = 0xA2
	recordPool     byte = 0xA3
)

var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.Canonical = true
	return h
}()

func encodeRecord(tag byte, v interface{}) ([]byte, error) {
	// The encoder resets its output slice, so the tag is prepended afterwards.
	var body []byte
	if err := codec.NewEncoderBytes(&body, msgpackHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode record %#x: %w", tag, err)
	}
	return append([]byte{tag}, body...), nil
}

func decodeRecord(tag byte, data []byte, v interface{}) error {
	if len(data) < 2 {
		return fmt.Errorf("record %#x: %w", tag, ErrShortRecord)
	}
	if data[0] != tag {
		return fmt.Errorf("record %#x: unexpected tag %#x: %w", tag, data[0], ErrRecordTag)
	}
	if err := codec.NewDecoderBytes(data[1:], msgpackHandle).Decode(v); err != nil {
		return fmt.Errorf("decode record %#x: %w", tag, err)
	}
	return nil
}
