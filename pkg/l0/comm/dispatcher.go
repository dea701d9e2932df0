package comm

import (
	"github.com/golang/glog"
)

// DefaultThreshold is the number of consecutive polls ending with an
// unfinished frame tolerated before it is reported.
const DefaultThreshold = 20

// ErrorCounter counts transport and protocol errors.
type ErrorCounter interface {
	Inc()
}

// Count is a plain ErrorCounter.
type Count uint32

// Inc implements ErrorCounter.
func (c *Count) Inc() {
	*c++
}

// PollResult describes what one polling cycle did.
type PollResult struct {
	Available Availability
	// Status is set when the parser ran.
	Status Status
	// Response is the code sent, if Responded.
	Response  Code
	Responded bool
	// Frame is the newly ready buffer on a verified frame.
	Frame *Buffer
}

// Observer is notified after every polling cycle that received something
// and, by Reader, after every response written.
type Observer interface {
	Observe(PollResult)
}

// ObserveFunc is func type of Observer.
type ObserveFunc func(PollResult)

// Observe implements Observer.
func (f ObserveFunc) Observe(r PollResult) {
	f(r)
}

// Observers fans a result out to multiple observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(r PollResult) {
	for _, observer := range o {
		observer.Observe(r)
	}
}

// Dispatcher drives the non-blocking receive path.
type Dispatcher struct {
	Link      Link
	Parser    Parser
	Buffers   *DoubleBuffer
	Threshold int
	Errors    ErrorCounter
	Observer  Observer

	responder  Responder
	unfinished int
}

// NewDispatcher creates a Dispatcher with defaults.
func NewDispatcher(link Link, capacity int) *Dispatcher {
	return &Dispatcher{
		Link:      link,
		Parser:    Parser{Layout: DefaultLayout},
		Buffers:   NewDoubleBuffer(capacity),
		Threshold: DefaultThreshold,
		Errors:    new(Count),
		responder: Responder{W: link, Marker: DefaultMarker},
	}
}

// SetMarker changes the start marker of responses.
func (d *Dispatcher) SetMarker(marker []byte) {
	d.responder.Marker = marker
}

// Unfinished returns the current debounce count.
func (d *Dispatcher) Unfinished() int {
	return d.unfinished
}

// Poll runs one polling cycle. It returns the ready buffer when a frame
// has been verified, nil otherwise. An error is only returned if a
// response couldn't be written.
func (d *Dispatcher) Poll() (*Buffer, error) {
	avail := d.Link.Available()
	if avail.NoData() {
		return nil, nil
	}
	pr := PollResult{Available: avail}
	if code, failed := LineCode(avail.Line); failed {
		d.countError()
		glog.V(4).Infof("line error: %s", avail.Line)
		return nil, d.respond(&pr, code)
	}
	if avail.Count <= 0 {
		return nil, nil
	}

	pr.Status = d.Parser.Push(d.Buffers.Active(), d.Link, avail.Count)
	glog.V(4).Infof("pushed %d bytes: %s", avail.Count, pr.Status)
	switch pr.Status {
	case StatusUnfinished:
		if d.unfinished++; d.unfinished <= d.Threshold {
			d.notify(pr)
			return nil, nil
		}
		d.unfinished = 0
	case StatusChecksumError, StatusReset:
		d.countError()
	}
	code, ok := StatusCode(pr.Status)
	if !ok {
		d.notify(pr)
		return nil, nil
	}
	if pr.Status == StatusVerified {
		pr.Frame = d.Buffers.Swap()
	}
	err := d.respond(&pr, code)
	return pr.Frame, err
}

func (d *Dispatcher) respond(pr *PollResult, code Code) error {
	if d.responder.W == nil {
		d.responder.W = d.Link
	}
	err := d.responder.Respond(code)
	if err == nil {
		pr.Response, pr.Responded = code, true
	}
	d.notify(*pr)
	return err
}

func (d *Dispatcher) countError() {
	if d.Errors != nil {
		d.Errors.Inc()
	}
}

func (d *Dispatcher) notify(pr PollResult) {
	if o := d.Observer; o != nil {
		o.Observe(pr)
	}
}
