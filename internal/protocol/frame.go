package protocol

import (
	"encoding/binary"
	"fmt"
)

// DecodeError reports a frame whose body could not be decoded. The frame has
// already been consumed, so the stream stays usable.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %d byte frame: %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FrameDecoder extracts messages from a byte stream that may split or
// coalesce frames arbitrarily.
type FrameDecoder struct {
	codec *Codec
	buf   []byte
}

func NewFrameDecoder(codec *Codec) *FrameDecoder {
	if codec == nil {
		codec = NewCodec()
	}
	return &FrameDecoder{codec: codec}
}

func (d *FrameDecoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes waiting for a complete frame.
func (d *FrameDecoder) Buffered() int {
	return len(d.buf)
}

// Next returns the next complete message. ok is false when more bytes are
// needed. A *DecodeError means one frame was dropped and Next may be called
// again; ErrFrameTooLarge leaves the stream unrecoverable.
func (d *FrameDecoder) Next() (msg Message, ok bool, err error) {
	if len(d.buf) < LengthPrefixSize {
		return nil, false, nil
	}

	length := binary.BigEndian.Uint32(d.buf)
	if length > MaxFrameSize {
		return nil, false, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	end := LengthPrefixSize + int(length)
	if len(d.buf) < end {
		return nil, false, nil
	}

	body := d.buf[LengthPrefixSize:end]
	msg, err = d.codec.Unmarshal(body)

	rest := copy(d.buf, d.buf[end:])
	d.buf = d.buf[:rest]

	if err != nil {
		return nil, false, &DecodeError{Size: int(length), Err: err}
	}
	return msg, true, nil
}
