package comm

import "sync/atomic"

// DoubleBuffer owns two frame buffers, one "active" (written by the
// parser) and one "ready" (read by the consumer).
//
// There's no acknowledgment from the consumer: a ready buffer is reused
// as the active one on the next Swap and is overwritten by the frame
// after that, whether or not it has been read.
type DoubleBuffer struct {
	bufs [2]*Buffer
	gen  uint32
}

// NewDoubleBuffer allocates both buffers with the same capacity.
func NewDoubleBuffer(capacity int) *DoubleBuffer {
	return &DoubleBuffer{bufs: [2]*Buffer{NewBuffer(capacity), NewBuffer(capacity)}}
}

// Active returns the buffer owned by the parser.
func (d *DoubleBuffer) Active() *Buffer {
	return d.bufs[atomic.LoadUint32(&d.gen)&1]
}

// Ready returns the buffer owned by the consumer.
func (d *DoubleBuffer) Ready() *Buffer {
	return d.bufs[(atomic.LoadUint32(&d.gen)+1)&1]
}

// Swap exchanges the roles and returns the newly ready buffer.
// The exchange is a single atomic increment.
func (d *DoubleBuffer) Swap() *Buffer {
	gen := atomic.AddUint32(&d.gen, 1)
	return d.bufs[(gen+1)&1]
}

// Swaps returns the number of exchanges so far.
func (d *DoubleBuffer) Swaps() uint32 {
	return atomic.LoadUint32(&d.gen)
}
