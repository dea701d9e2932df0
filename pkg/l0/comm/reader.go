package comm

import (
	"context"
	"fmt"
)

// ReadStatus is the outcome of reading one frame synchronously.
type ReadStatus uint8

// Read outcomes, compatible with the firmware.
const (
	ReadOK            ReadStatus = 0
	ReadGarbage       ReadStatus = 1
	ReadChecksumError ReadStatus = 2
)

// String implements fmt.Stringer.
func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadGarbage:
		return "garbage"
	case ReadChecksumError:
		return "checksum-error"
	}
	return fmt.Sprintf("read-status(%d)", byte(s))
}

// Reader reads exactly one frame at a time, waiting for every byte.
// The blocking layout has no command byte and no tail:
//
//	[header] [length u16 BE] [checksum u16 BE] [payload]
type Reader struct {
	Link   Link
	Header []byte
	// Wait defaults to BlockUntilReady.
	Wait Waiter
	// Errors counts garbage, checksum and line errors.
	Errors ErrorCounter
	// Observer is notified of every response written.
	Observer Observer

	responder Responder
}

// NewReader creates a Reader answering with bare response codes.
func NewReader(link Link) *Reader {
	return &Reader{
		Link:      link,
		Header:    DefaultLayout.Header,
		Wait:      BlockUntilReady{},
		responder: Responder{W: link},
	}
}

// SetMarker changes the start marker of responses.
func (r *Reader) SetMarker(marker []byte) {
	r.responder.Marker = marker
}

// ReadFrame reads one frame into dst.
//
// The first header mismatch is answered with CodeGarbage and aborts
// without resynchronizing. Payload byte i is stored at dst[i%len(dst)],
// so a length beyond the capacity wraps and overwrites earlier bytes;
// the checksum is computed over the bytes in dst. On success the decoded
// length is returned, 0 otherwise. An error is returned if waiting was
// interrupted or a response couldn't be written.
func (r *Reader) ReadFrame(ctx context.Context, dst []byte) (int, ReadStatus, error) {
	header := r.Header
	if len(header) == 0 {
		header = DefaultLayout.Header
	}
	for _, expected := range header {
		b, err := r.readByte(ctx)
		if err != nil {
			return 0, ReadGarbage, err
		}
		if b != expected {
			r.countError()
			return 0, ReadGarbage, r.respond(CodeGarbage)
		}
	}

	size, err := r.read16(ctx)
	if err != nil {
		return 0, ReadGarbage, err
	}
	checksum, err := r.read16(ctx)
	if err != nil {
		return 0, ReadGarbage, err
	}

	written := len(dst)
	if int(size) < written {
		written = int(size)
	}
	for i := 0; i < int(size); i++ {
		b, err := r.readByte(ctx)
		if err != nil {
			return 0, ReadChecksumError, err
		}
		if len(dst) > 0 {
			dst[i%len(dst)] = b
		}
	}

	if Fletcher16(dst[:written]) != checksum {
		r.countError()
		return 0, ReadChecksumError, r.respond(CodeChecksumError)
	}
	return int(size), ReadOK, r.respond(CodeOK)
}

func (r *Reader) read16(ctx context.Context) (uint16, error) {
	hi, err := r.readByte(ctx)
	if err != nil {
		return 0, err
	}
	lo, err := r.readByte(ctx)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (r *Reader) readByte(ctx context.Context) (byte, error) {
	wait := r.Wait
	if wait == nil {
		wait = BlockUntilReady{}
	}
	for {
		if err := wait.Wait(ctx, r.Link); err != nil {
			return 0, err
		}
		b, line, ok := r.Link.NextByte()
		if !ok {
			continue
		}
		if code, failed := readLineCode(line); failed {
			r.countError()
			if err := r.respond(code); err != nil {
				return b, err
			}
		}
		return b, nil
	}
}

func (r *Reader) respond(code Code) error {
	if r.responder.W == nil {
		r.responder.W = r.Link
	}
	err := r.responder.Respond(code)
	if err == nil && r.Observer != nil {
		r.Observer.Observe(PollResult{Response: code, Responded: true})
	}
	return err
}

func (r *Reader) countError() {
	if r.Errors != nil {
		r.Errors.Inc()
	}
}

// readLineCode samples the hardware status of one byte: overrun wins
// over parity, which wins over frame errors.
func readLineCode(s LineStatus) (Code, bool) {
	switch {
	case s&LineOverrun != 0:
		return CodeDataOverrun, true
	case s&LineParityError != 0:
		return CodeParityError, true
	case s&LineFrameError != 0:
		return CodeFrameError, true
	}
	return Code{}, false
}
