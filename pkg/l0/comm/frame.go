package comm

import (
	"bytes"
	"io"
	"math"
)

// Frame is a command frame as sent by the host.
type Frame struct {
	Cmd     byte
	Payload []byte
}

// Encode encodes a frame with the layout.
func (l Layout) Encode(f *Frame) ([]byte, error) {
	if len(f.Payload) > math.MaxUint16 {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, 0, l.Overhead()+len(f.Payload))
	b = append(b, l.Header...)
	b = append(b, f.Cmd)
	b = appendUint16(b, uint16(len(f.Payload)))
	b = appendUint16(b, Fletcher16(f.Payload))
	b = append(b, f.Payload...)
	return append(b, l.Tail...), nil
}

// EncodeData encodes a payload for the blocking receive path:
// header, length, checksum and payload only.
func (l Layout) EncodeData(p []byte) ([]byte, error) {
	if len(p) > math.MaxUint16 {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, 0, len(l.Header)+4+len(p))
	b = append(b, l.Header...)
	b = appendUint16(b, uint16(len(p)))
	b = appendUint16(b, Fletcher16(p))
	return append(b, p...), nil
}

// Bytes returns encoded bytes for sending with DefaultLayout.
func (f *Frame) Bytes() ([]byte, error) {
	return DefaultLayout.Encode(f)
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, bytes.NewReader(b))
	return n, err
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}
