package env

import (
	"fmt"
	"io"
	"log"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robotalks/uartlink/pkg/device"
	fx "github.com/robotalks/uartlink/pkg/framework"
	"github.com/robotalks/uartlink/pkg/l0/comm"
	"github.com/robotalks/uartlink/pkg/l0/link"
	"github.com/robotalks/uartlink/pkg/telemetry"
	"github.com/robotalks/uartlink/pkg/telemetry/mqtt"
)

// Env is a wired device: link, transport, LED strip and telemetry.
type Env struct {
	Config *Config

	Link       io.ReadWriteCloser
	FIFO       *comm.FIFO
	Dispatcher *comm.Dispatcher
	Reader     *comm.Reader
	Strip      *device.Strip
	Mux        *device.Mux
	Device     *device.Device
	Receiver   *device.Receiver

	Registry  *prometheus.Registry
	Metrics   *telemetry.Metrics
	Queue     *mqtt.Queue
	Publisher *telemetry.Publisher
}

// NewEnv opens the link and creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rw, err := link.Open(c.Port, c.Baud)
	if err != nil {
		return nil, err
	}
	env, err := c.NewEnvWith(rw)
	if err != nil {
		rw.Close()
		return nil, err
	}
	return env, nil
}

// NewEnvWith creates Env over an opened link.
func (c *Config) NewEnvWith(rw io.ReadWriteCloser) (*Env, error) {
	if c.ID == "" {
		c.ID = MachineID()
	}
	e := &Env{
		Config:   c,
		Link:     rw,
		FIFO:     comm.NewFIFO(rw, c.FIFOSize),
		Strip:    device.NewStrip(c.LEDs),
		Mux:      &device.Mux{},
		Registry: prometheus.NewRegistry(),
		Metrics:  telemetry.NewMetrics(c.ID),
	}
	e.Strip.Register(e.Mux)
	e.Metrics.MustRegister(e.Registry)
	observers := comm.Observers{e.Metrics}

	if c.MQTTURL != "" {
		opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTURL)
		if err != nil {
			return nil, fmt.Errorf("invalid MQTT URL: %w", err)
		}
		if opts.ClientID == "" {
			opts.SetClientID("uartlink-" + c.ID)
		}
		e.Queue = mqtt.NewQueue(opts, prefix)
		e.Publisher = &telemetry.Publisher{Queue: e.Queue, Device: c.ID}
		observers = append(observers, e.Publisher)
	}

	switch c.Mode {
	case ModeBlocking:
		e.Reader = comm.NewReader(e.FIFO)
		if c.ReadTimeout > 0 {
			e.Reader.Wait = comm.BoundedWait{Timeout: c.ReadTimeout}
		}
		e.Reader.Errors = e.Metrics.Errors
		e.Reader.Observer = observers
		e.Receiver = device.NewReceiver(e.Reader, e.Mux, device.CmdSlave, c.Capacity)
	default:
		e.Dispatcher = comm.NewDispatcher(e.FIFO, c.Capacity)
		e.Dispatcher.Threshold = c.Threshold
		e.Dispatcher.Errors = e.Metrics.Errors
		e.Dispatcher.Observer = observers
		e.Device = device.NewDevice(e.Dispatcher, e.Mux)
		e.Device.OnHandled = func(cmd byte, err error) {
			e.Metrics.CommandHandled(device.CmdName(cmd), err)
		}
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop implements fx.LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if e.Config.PollInterval > 0 {
		loop.Interval = e.Config.PollInterval
	}
	loop.AddRunnable(fx.NamedRun("link", e.FIFO))
	if e.Device != nil {
		loop.Add(e.Device)
	}
	if e.Receiver != nil {
		loop.AddRunnable(fx.NamedRun("receiver", e.Receiver))
	}
	if e.Queue != nil {
		loop.AddRunnable(e.Queue)
	}
	if addr := e.Config.MetricsAddr; addr != "" {
		loop.AddRunnable(&telemetry.Server{Addr: addr, Gatherer: e.Registry})
	}
	glog.Infof("device %s on %s, %s mode, %d LEDs", e.Config.ID, e.Config.Port, e.Config.Mode, e.Strip.Len())
}

// Close closes the link.
func (e *Env) Close() error {
	return e.Link.Close()
}
