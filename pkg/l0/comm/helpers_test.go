package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type testRW struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (rw *testRW) Read(p []byte) (int, error) {
	return rw.in.Read(p)
}

func (rw *testRW) Write(p []byte) (int, error) {
	return rw.out.Write(p)
}

type testLink struct {
	*FIFO
	rw *testRW
}

func newTestLink(size int) *testLink {
	rw := &testRW{}
	return &testLink{FIFO: NewFIFO(rw, size), rw: rw}
}

func (l *testLink) sent() string {
	s := l.rw.out.String()
	l.rw.out.Reset()
	return s
}

func mustEncode(t *testing.T, cmd byte, payload ...byte) []byte {
	b, err := DefaultLayout.Encode(&Frame{Cmd: cmd, Payload: payload})
	require.NoError(t, err)
	return b
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
