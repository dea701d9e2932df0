package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is anything exchanged between controllers in one iteration.
type Message interface{}

// Controller defines the abstract controlling logic.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext provides the context of current control iteration.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Stage gets the stage being run.
	Stage() Stage
	// Emit adds messages visible to the following stages of this
	// iteration.
	Emit(msgs ...Message)
	// ProcessMessages calls fn for each pending message, in order.
	// Messages for which fn returns true are taken and not seen
	// by later controllers.
	ProcessMessages(fn func(Message) bool)

	LoopControl
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration immediately.
	TriggerNext()
}

// Stage orders controllers within one iteration.
type Stage int

// Stages, run in this order.
const (
	StageSense Stage = iota
	StageControl
	StageActuate
	StagePostProc

	StageCount int = iota
)

var stageNames = [StageCount]string{"sense", "control", "actuate", "postproc"}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if s >= 0 && int(s) < StageCount {
		return stageNames[s]
	}
	return "invalid"
}
