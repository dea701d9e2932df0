package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
)

// DefaultFIFOSize is the default receive buffer size in bytes.
const DefaultFIFOSize = 64

type fifoEntry struct {
	b    byte
	line LineStatus
}

// FIFO is a bounded receive buffer implementing Link.
// Bytes arrive from the wrapped reader (see Run) or Receive, and are
// consumed by NextByte. Writes go straight to the wrapped writer.
type FIFO struct {
	ReadWriter io.ReadWriter

	entries []fifoEntry
	head    int
	count   int
	latched LineStatus
	pending LineStatus
	lock    sync.Mutex
	wlock   sync.Mutex
}

// NewFIFO creates a FIFO holding at most size bytes.
func NewFIFO(rw io.ReadWriter, size int) *FIFO {
	if size <= 0 {
		size = DefaultFIFOSize
	}
	return &FIFO{ReadWriter: rw, entries: make([]fifoEntry, size)}
}

// Size returns the capacity in bytes.
func (f *FIFO) Size() int {
	return len(f.entries)
}

// Len returns the number of buffered bytes.
func (f *FIFO) Len() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.count
}

// Available implements ByteSource.
func (f *FIFO) Available() Availability {
	f.lock.Lock()
	defer f.lock.Unlock()
	a := Availability{Count: f.count, Line: f.latched}
	f.latched = LineOK
	return a
}

// NextByte implements ByteSource.
func (f *FIFO) NextByte() (byte, LineStatus, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.count == 0 {
		return 0, LineOK, false
	}
	e := f.entries[f.head]
	f.head = (f.head + 1) % len(f.entries)
	f.count--
	return e.b, e.line, true
}

// Receive appends received bytes. Bytes not fitting are dropped and
// LineBufferOverflow is latched. It returns the number of bytes kept.
func (f *FIFO) Receive(p ...byte) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	for n, b := range p {
		if f.count >= len(f.entries) {
			f.latched |= LineBufferOverflow
			glog.Warningf("receive buffer overflow, dropped %d bytes", len(p)-n)
			return n
		}
		f.entries[(f.head+f.count)%len(f.entries)] = fifoEntry{b: b, line: f.pending}
		f.pending = LineOK
		f.count++
	}
	return len(p)
}

// Flag latches a line error, reported by the next Available and
// attached to the next received byte.
func (f *FIFO) Flag(line LineStatus) {
	f.lock.Lock()
	f.latched |= line
	f.pending |= line
	f.lock.Unlock()
}

// Write implements io.Writer.
func (f *FIFO) Write(p []byte) (int, error) {
	f.wlock.Lock()
	defer f.wlock.Unlock()
	return f.ReadWriter.Write(p)
}

// Run pumps the wrapped reader into the buffer until ctx is done or
// reading fails. On cancellation the ReadWriter is closed if it is an
// io.Closer and Run returns once the pending Read does. Any other
// ReadWriter keeps its pending Read, and the goroutine doing it, until
// that Read returns.
func (f *FIFO) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, len(f.entries))
		for {
			n, err := f.ReadWriter.Read(buf)
			if n > 0 {
				f.Receive(buf[:n]...)
			}
			if err != nil {
				errCh <- err
				return
			}
			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}
		}
	}()
	select {
	case <-ctx.Done():
		if closer, ok := f.ReadWriter.(io.Closer); ok {
			closer.Close()
			<-errCh
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
