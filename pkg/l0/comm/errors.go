package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates no byte is available from the source.
	ErrNotReady = errors.New("not ready")
	// ErrPayloadTooLarge indicates a payload can't be carried by a frame
	// or doesn't fit the receiving buffer.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrInvalidLayout indicates a frame layout without header or tail.
	ErrInvalidLayout = errors.New("invalid frame layout")
	// ErrNoResponse indicates the peer closed the link before answering.
	ErrNoResponse = errors.New("no response")
)

// ResponseError wraps a non-OK response code from the firmware.
type ResponseError struct {
	Code Code
}

// Error implements error.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("response %s: %s", e.Code, e.Code.Description())
}

// IsTransportError indicates the firmware rejected the link state
// rather than the frame content.
func (e *ResponseError) IsTransportError() bool {
	switch e.Code {
	case CodeDataOverrun, CodeFrameError, CodeParityError, CodeBufferOverflow:
		return true
	}
	return false
}
