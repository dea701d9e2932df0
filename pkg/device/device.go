package device

import (
	"context"
	"errors"

	"github.com/golang/glog"

	fx "github.com/robotalks/uartlink/pkg/framework"
	"github.com/robotalks/uartlink/pkg/l0/comm"
)

// DefaultPollsPerIteration is how many polling cycles Device runs in
// one loop iteration when no frame completes.
const DefaultPollsPerIteration = 4

// FrameMessage carries a ready buffer from the sense stage to the
// actuate stage of the same iteration.
type FrameMessage struct {
	Buffer *comm.Buffer
}

// Device polls the dispatcher and hands verified frames to the handler.
// It runs as a controller at the sense stage (polling) and the actuate
// stage (handling), so a ready buffer is consumed before the next poll.
type Device struct {
	Dispatcher *comm.Dispatcher
	Handler    Handler
	// PollsPerIteration bounds polling cycles per iteration. Polling
	// stops early once a frame is ready.
	PollsPerIteration int
	// OnHandled is called after each handled frame, if set.
	OnHandled func(cmd byte, err error)
}

// NewDevice creates a Device.
func NewDevice(d *comm.Dispatcher, h Handler) *Device {
	return &Device{Dispatcher: d, Handler: h, PollsPerIteration: DefaultPollsPerIteration}
}

// AddToLoop implements fx.LoopAdder.
func (d *Device) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.StageSense, d)
	loop.AddController(fx.StageActuate, d)
}

// Control implements fx.Controller.
func (d *Device) Control(cc fx.ControlContext) error {
	switch cc.Stage() {
	case fx.StageSense:
		return d.poll(cc)
	case fx.StageActuate:
		cc.ProcessMessages(func(msg fx.Message) bool {
			fm, ok := msg.(*FrameMessage)
			if ok {
				d.handle(fm.Buffer.Cmd, fm.Buffer.Payload())
			}
			return ok
		})
	}
	return nil
}

func (d *Device) poll(cc fx.ControlContext) error {
	n := d.PollsPerIteration
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		// a verified frame is handed off even if answering it failed.
		buf, err := d.Dispatcher.Poll()
		if buf != nil {
			cc.Emit(&FrameMessage{Buffer: buf})
		}
		if err != nil || buf != nil {
			return err
		}
	}
	return nil
}

func (d *Device) handle(cmd byte, payload []byte) {
	err := d.Handler.HandleCommand(cmd, payload)
	if err != nil {
		glog.Warningf("frame dropped: %v", err)
	} else {
		glog.V(4).Infof("frame handled: %s %d bytes", CmdName(cmd), len(payload))
	}
	if fn := d.OnHandled; fn != nil {
		fn(cmd, err)
	}
}

// Receiver drives the blocking receive path: every payload read is
// handed to the handler under a fixed command code.
type Receiver struct {
	Reader  *comm.Reader
	Handler Handler
	Cmd     byte

	buf []byte
}

// NewReceiver creates a Receiver with a payload buffer of capacity bytes.
func NewReceiver(r *comm.Reader, h Handler, cmd byte, capacity int) *Receiver {
	return &Receiver{Reader: r, Handler: h, Cmd: cmd, buf: make([]byte, capacity)}
}

// Run implements fx.Runnable. It stops only when ctx is done: failed
// responses and bytes timing out under a bounded Waiter are logged and
// the next frame is read.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		n, status, err := r.Reader.ReadFrame(ctx, r.buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
			glog.V(4).Infof("blocking read: %v", err)
			continue
		default:
			glog.Warningf("response: %v", err)
		}
		if status != comm.ReadOK {
			glog.V(4).Infof("blocking read: %s", status)
			continue
		}
		if n > len(r.buf) {
			n = len(r.buf)
		}
		if err := r.Handler.HandleCommand(r.Cmd, r.buf[:n]); err != nil {
			glog.Warningf("frame dropped: %v", err)
		}
	}
}
