package comm

import "fmt"

// DefaultCapacity is the payload capacity of a frame buffer.
const DefaultCapacity = 512

// Status is the outcome of parsing into a frame buffer.
type Status uint8

// Status values, compatible with the firmware flags.
const (
	StatusReset         Status = 0x01
	StatusChecksumError Status = 0x02
	StatusUnfinished    Status = 0x04
	StatusVerified      Status = 0x08
	StatusDone          Status = 0x10
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusReset:
		return "reset"
	case StatusChecksumError:
		return "checksum-error"
	case StatusUnfinished:
		return "unfinished"
	case StatusVerified:
		return "verified"
	case StatusDone:
		return "done"
	}
	return fmt.Sprintf("status(%#x)", byte(s))
}

// Buffer holds one in-progress or completed frame.
type Buffer struct {
	Status   Status
	Cmd      byte
	Size     uint16
	Checksum uint16

	state  State
	pos    int // offset within the current window
	cursor int // offset within the current frame
	data   []byte
}

// NewBuffer creates a Buffer with fixed payload capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{Status: StatusUnfinished, data: make([]byte, capacity)}
}

// Capacity returns the payload capacity.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Payload returns the captured payload bytes.
func (b *Buffer) Payload() []byte {
	if n := int(b.Size); n < len(b.data) {
		return b.data[:n]
	}
	return b.data
}

// Cursor returns the byte offset within the frame being parsed.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// State returns the window being parsed.
func (b *Buffer) State() State {
	return b.state
}

// HeaderProgress returns the number of header bytes matched so far.
func (b *Buffer) HeaderProgress() int {
	if b.state == StateHeader {
		return b.pos
	}
	return -1
}

// Oversized indicates the decoded length exceeds the capacity.
func (b *Buffer) Oversized() bool {
	return int(b.Size) > len(b.data)
}

func (b *Buffer) rewind() {
	b.state, b.pos, b.cursor = StateHeader, 0, 0
}

func (b *Buffer) store(c byte) {
	if b.pos < len(b.data) {
		b.data[b.pos] = c
	}
}
