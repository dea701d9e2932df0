package comm

import (
	"context"
	"io"
	"runtime"
	"time"
)

// LineStatus reports transport-level errors of the link.
type LineStatus uint8

// Line errors.
const (
	LineOK             LineStatus = 0
	LineOverrun        LineStatus = 0x01
	LineFrameError     LineStatus = 0x02
	LineParityError    LineStatus = 0x04
	LineBufferOverflow LineStatus = 0x08
)

// Failed indicates any error is reported.
func (s LineStatus) Failed() bool {
	return s != LineOK
}

// String implements fmt.Stringer.
func (s LineStatus) String() string {
	switch {
	case s == LineOK:
		return "ok"
	case s&LineOverrun != 0:
		return "overrun"
	case s&LineBufferOverflow != 0:
		return "buffer-overflow"
	case s&LineFrameError != 0:
		return "frame-error"
	default:
		return "parity-error"
	}
}

// Availability is the answer of a byte source to "what's there to read".
// Either Line reports an error, or Count bytes are ready (possibly none).
type Availability struct {
	Count int
	Line  LineStatus
}

// NoData indicates nothing is available and no error is reported.
func (a Availability) NoData() bool {
	return a.Count <= 0 && !a.Line.Failed()
}

// ByteSource is the receive side of a link.
type ByteSource interface {
	// Available reports buffered bytes or a latched line error.
	// A reported error is cleared.
	Available() Availability
	// NextByte reads one buffered byte without waiting, together with
	// the line status sampled when it was received.
	NextByte() (b byte, line LineStatus, ok bool)
}

// Link is a ByteSource accepting responses.
type Link interface {
	ByteSource
	io.Writer
}

// Waiter decides how to wait until a byte is available.
type Waiter interface {
	Wait(ctx context.Context, src ByteSource) error
}

// TryReady never waits.
type TryReady struct{}

// Wait implements Waiter.
func (TryReady) Wait(ctx context.Context, src ByteSource) error {
	if src.Available().Count > 0 {
		return nil
	}
	return ErrNotReady
}

// BlockUntilReady spins until a byte is available.
// Only a canceled context stops it, so with a background context a
// stalled peer blocks the caller forever.
type BlockUntilReady struct{}

// Wait implements Waiter.
func (BlockUntilReady) Wait(ctx context.Context, src ByteSource) error {
	for src.Available().Count <= 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// BoundedWait spins like BlockUntilReady for at most Timeout per byte.
type BoundedWait struct {
	Timeout time.Duration
}

// Wait implements Waiter.
func (w BoundedWait) Wait(ctx context.Context, src ByteSource) error {
	if w.Timeout <= 0 {
		return BlockUntilReady{}.Wait(ctx, src)
	}
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	return BlockUntilReady{}.Wait(ctx, src)
}
