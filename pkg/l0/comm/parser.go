package comm

// Parser advances frame buffers over batches of available bytes.
// The zero value uses DefaultLayout.
type Parser struct {
	Layout Layout
}

// NewParser creates a Parser with the given layout.
func NewParser(layout Layout) (*Parser, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Parser{Layout: layout}, nil
}

func (p *Parser) layout() Layout {
	if len(p.Layout.Header) == 0 || len(p.Layout.Tail) == 0 {
		return DefaultLayout
	}
	return p.Layout
}

// Push consumes up to available bytes from src into buf.
//
// Parsing stops right after a frame is completed, leaving the remaining
// bytes in src for the next call. A completed frame is verified before
// returning, so the result is one of StatusVerified, StatusChecksumError,
// StatusReset (mismatch, no header byte matched since) or StatusUnfinished.
func (p *Parser) Push(buf *Buffer, src ByteSource, available int) Status {
	layout := p.layout()
	for n := 0; n < available; n++ {
		c, _, ok := src.NextByte()
		if !ok {
			break
		}
		if p.parseByte(layout, buf, c) {
			break
		}
	}
	if buf.Status == StatusDone {
		p.verify(buf)
	}
	return buf.Status
}

// parseByte consumes one byte and reports whether the frame is complete.
func (p *Parser) parseByte(layout Layout, buf *Buffer, c byte) bool {
	buf.cursor++
	switch buf.state {
	case StateHeader:
		if c != layout.Header[buf.pos] {
			return p.resync(buf)
		}
		buf.Status = StatusUnfinished
	case StateCmd:
		buf.Cmd = c
	case StateLenHi:
		buf.Size = uint16(c) << 8
	case StateLenLo:
		buf.Size |= uint16(c)
	case StateCsHi:
		buf.Checksum = uint16(c) << 8
	case StateCsLo:
		buf.Checksum |= uint16(c)
	case StatePayload:
		buf.store(c)
	case StateTail:
		if c != layout.Tail[buf.pos] {
			return p.resync(buf)
		}
	}
	buf.pos++
	for buf.pos >= layout.width(buf.state, buf.Size) {
		if buf.state == StateTail {
			return p.frameDone(buf)
		}
		buf.state, buf.pos = nextState[buf.state], 0
	}
	return false
}

func (p *Parser) resync(buf *Buffer) bool {
	buf.Status = StatusReset
	buf.rewind()
	return false
}

func (p *Parser) frameDone(buf *Buffer) bool {
	buf.Status = StatusDone
	buf.rewind()
	return true
}

func (p *Parser) verify(buf *Buffer) {
	if buf.Oversized() || Fletcher16(buf.Payload()) != buf.Checksum {
		buf.Status = StatusChecksumError
	} else {
		buf.Status = StatusVerified
	}
}
