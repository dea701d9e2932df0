package comm

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// Client sends frames from the host and interprets the responses.
type Client struct {
	Layout Layout
	Marker []byte
	// Capacity is the payload capacity of the firmware, 0 for no check.
	Capacity int

	w    io.Writer
	r    *bufio.Reader
	lock sync.Mutex
}

// NewClient creates a client over the link to the firmware.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		Layout:   DefaultLayout,
		Marker:   DefaultMarker,
		Capacity: DefaultCapacity,
		w:        rw,
		r:        bufio.NewReader(rw),
	}
}

// Send sends a frame to the polled receive path and waits for the
// response. A non-OK response is returned as *ResponseError.
func (c *Client) Send(f *Frame) error {
	if err := c.checkSize(len(f.Payload)); err != nil {
		return err
	}
	b, err := c.Layout.Encode(f)
	if err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, err = c.w.Write(b); err != nil {
		return err
	}
	for {
		if err = c.skipMarker(); err != nil {
			return err
		}
		code, err := c.readCode()
		if err != nil {
			return err
		}
		// still arriving on the firmware side, the final answer follows.
		if code != CodeUnfinished {
			return codeErr(code)
		}
	}
}

// WriteData sends a payload to the blocking receive path and waits for
// the bare response code.
func (c *Client) WriteData(p []byte) error {
	if err := c.checkSize(len(p)); err != nil {
		return err
	}
	b, err := c.Layout.EncodeData(p)
	if err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, err = c.w.Write(b); err != nil {
		return err
	}
	code, err := c.readCode()
	if err != nil {
		return err
	}
	return codeErr(code)
}

func (c *Client) checkSize(n int) error {
	if c.Capacity > 0 && n > c.Capacity {
		return ErrPayloadTooLarge
	}
	return nil
}

// skipMarker discards input up to and including the marker.
func (c *Client) skipMarker() error {
	if len(c.Marker) == 0 {
		return nil
	}
	window := make([]byte, 0, len(c.Marker))
	for !bytes.Equal(window, c.Marker) {
		b, err := c.r.ReadByte()
		if err != nil {
			return noResponse(err)
		}
		if len(window) == len(c.Marker) {
			window = append(window[:0], window[1:]...)
		}
		window = append(window, b)
	}
	return nil
}

func (c *Client) readCode() (code Code, err error) {
	if _, err = io.ReadFull(c.r, code[:]); err != nil {
		err = noResponse(err)
	}
	return
}

func codeErr(code Code) error {
	if code == CodeOK {
		return nil
	}
	return &ResponseError{Code: code}
}

func noResponse(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrNoResponse
	}
	return err
}
