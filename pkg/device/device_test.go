package device

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/uartlink/pkg/framework"
	"github.com/robotalks/uartlink/pkg/l0/comm"
)

type loopback struct {
	in, out bytes.Buffer
}

func (l *loopback) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.out.Write(p) }

type failingLink struct{}

func (failingLink) Read(p []byte) (int, error)  { return 0, io.EOF }
func (failingLink) Write(p []byte) (int, error) { return 0, errors.New("write failed") }

func encode(t *testing.T, cmd byte, payload ...byte) []byte {
	b, err := (&comm.Frame{Cmd: cmd, Payload: payload}).Bytes()
	require.NoError(t, err)
	return b
}

func TestDevice(t *testing.T) {
	rw := &loopback{}
	link := comm.NewFIFO(rw, 256)
	strip := NewStrip(2)
	dev := NewDevice(comm.NewDispatcher(link, 64), strip.Register(&Mux{}))
	var handled []byte
	var failures int
	dev.OnHandled = func(cmd byte, err error) {
		handled = append(handled, cmd)
		if err != nil {
			failures++
		}
	}
	loop := fx.NewLoop().Add(dev)

	link.Receive(encode(t, CmdMood, 1, 2, 3)...)
	link.Receive(encode(t, CmdSnake, 0)...)
	link.Receive(encode(t, 99)...)

	loop.RunOnce(context.Background())
	require.Equal(t, []Color{{1, 2, 3}, {1, 2, 3}}, strip.LEDs())
	require.Equal(t, "ANSOK", rw.out.String())

	loop.RunOnce(context.Background())
	loop.RunOnce(context.Background())
	require.Equal(t, []byte{CmdMood, CmdSnake, 99}, handled)
	require.Equal(t, 2, failures)
	require.Equal(t, "ANSOKANSOKANSOK", rw.out.String())
	require.Equal(t, []Color{{1, 2, 3}, {1, 2, 3}}, strip.LEDs())
}

func TestDevicePollLimit(t *testing.T) {
	link := comm.NewFIFO(&loopback{}, 256)
	d := comm.NewDispatcher(link, 64)
	d.Threshold = 100
	dev := NewDevice(d, &Mux{})
	dev.PollsPerIteration = 3
	loop := fx.NewLoop().Add(dev)

	frame := encode(t, CmdOff)
	// one byte per poll, the frame can't complete within one iteration.
	for _, b := range frame[:3] {
		link.Receive(b)
		loop.RunOnce(context.Background())
	}
	require.Equal(t, 3, d.Unfinished())
}

func TestReceiver(t *testing.T) {
	rw := &loopback{}
	link := comm.NewFIFO(rw, 256)
	strip := NewStrip(2)
	r := comm.NewReader(link)
	got := make(chan []byte, 1)
	mux := strip.Register(&Mux{}).HandleFunc(CmdSlave, func(payload []byte) error {
		got <- append([]byte(nil), payload...)
		return strip.Slave(payload)
	})
	recv := NewReceiver(r, mux, CmdSlave, 6)

	payload := []byte{1, 2, 3, 4, 5, 6}
	data, err := comm.DefaultLayout.EncodeData(payload)
	require.NoError(t, err)
	link.Receive([]byte("xx")...)
	link.Receive(data...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- recv.Run(ctx) }()

	require.Equal(t, payload, <-got)
	cancel()
	require.True(t, errors.Is(<-errCh, context.Canceled))
	require.Equal(t, []Color{{1, 2, 3}, {4, 5, 6}}, strip.LEDs())
}

func TestDeviceResponseWriteError(t *testing.T) {
	link := comm.NewFIFO(failingLink{}, 256)
	strip := NewStrip(2)
	dev := NewDevice(comm.NewDispatcher(link, 64), strip.Register(&Mux{}))
	var handled []byte
	dev.OnHandled = func(cmd byte, err error) {
		require.NoError(t, err)
		handled = append(handled, cmd)
	}
	loop := fx.NewLoop().Add(dev)

	link.Receive(encode(t, CmdMood, 4, 5, 6)...)
	loop.RunOnce(context.Background())
	require.Equal(t, []byte{CmdMood}, handled)
	require.Equal(t, []Color{{4, 5, 6}, {4, 5, 6}}, strip.LEDs())

	link.Receive(encode(t, CmdOff)...)
	loop.RunOnce(context.Background())
	require.Equal(t, []byte{CmdMood, CmdOff}, handled)
	require.Equal(t, []Color{{}, {}}, strip.LEDs())
}

func TestReceiverResponseWriteError(t *testing.T) {
	link := comm.NewFIFO(failingLink{}, 256)
	strip := NewStrip(2)
	got := make(chan []byte, 2)
	mux := strip.Register(&Mux{}).HandleFunc(CmdSlave, func(payload []byte) error {
		got <- append([]byte(nil), payload...)
		return strip.Slave(payload)
	})
	recv := NewReceiver(comm.NewReader(link), mux, CmdSlave, 6)

	for _, payload := range [][]byte{{1, 2, 3, 4, 5, 6}, {6, 5, 4, 3, 2, 1}} {
		data, err := comm.DefaultLayout.EncodeData(payload)
		require.NoError(t, err)
		link.Receive(data...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- recv.Run(ctx) }()

	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, <-got)
	require.Equal(t, []byte{6, 5, 4, 3, 2, 1}, <-got)
	cancel()
	require.True(t, errors.Is(<-errCh, context.Canceled))
	require.Equal(t, []Color{{6, 5, 4}, {3, 2, 1}}, strip.LEDs())
}

func TestReceiverBoundedWait(t *testing.T) {
	rw := &loopback{}
	link := comm.NewFIFO(rw, 256)
	r := comm.NewReader(link)
	r.Wait = comm.BoundedWait{Timeout: time.Millisecond}
	got := make(chan []byte, 1)
	mux := (&Mux{}).HandleFunc(CmdSlave, func(payload []byte) error {
		got <- append([]byte(nil), payload...)
		return nil
	})
	recv := NewReceiver(r, mux, CmdSlave, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- recv.Run(ctx) }()

	// the receiver keeps reading after byte waits time out.
	time.Sleep(20 * time.Millisecond)
	data, err := comm.DefaultLayout.EncodeData([]byte{7, 8, 9})
	require.NoError(t, err)
	link.Receive(data...)

	require.Equal(t, []byte{7, 8, 9}, <-got)
	cancel()
	require.True(t, errors.Is(<-errCh, context.Canceled))
}
