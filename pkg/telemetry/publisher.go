package telemetry

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/uartlink/pkg/l0/comm"
)

// EventsTopic is the topic under the device id carrying events.
const EventsTopic = "events"

// Publishing is satisfied by mqtt.Queue.
type Publishing interface {
	Pub(topic string, payload []byte) paho.Token
}

// Publisher publishes an Event for every response sent to the host.
type Publisher struct {
	Queue  Publishing
	Device string
	// Payloads includes frame payloads in events.
	Payloads bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Topic returns the topic events are published to.
func (p *Publisher) Topic() string {
	return p.Device + "/" + EventsTopic
}

// Observe implements comm.Observer.
func (p *Publisher) Observe(r comm.PollResult) {
	if !r.Responded {
		return
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ev := NewEvent(p.Device, r, now())
	if !p.Payloads {
		ev.Payload = nil
	}
	b, err := ev.Encode()
	if err != nil {
		glog.Warningf("encode event: %v", err)
		return
	}
	// fire and forget.
	p.Queue.Pub(p.Topic(), b)
}
