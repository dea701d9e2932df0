package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the iteration interval when Loop.Interval is not set.
const DefaultInterval = 10 * time.Millisecond

// Loop runs controllers periodically, stage by stage.
type Loop struct {
	Interval time.Duration

	stages  [StageCount][]Controller
	runners []Runnable

	posted   []Message
	lock     sync.Mutex
	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx      context.Context
	time     time.Time
	stage    Stage
	messages []Message
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a stage. Controllers also
// implementing Runnable are started with the loop.
func (l *Loop) AddController(stage Stage, ctls ...Controller) *Loop {
	l.stages[stage] = append(l.stages[stage], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Wait() }()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errCh != nil {
				<-errCh
			}
			return ctx.Err()
		case err := <-errCh:
			// a runner quit before the loop was asked to.
			if err != nil {
				return err
			}
			errCh = nil
		case <-ticker.C:
			l.RunOnce(ctx)
		case <-l.wakeUp():
			l.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single iteration through all stages.
func (l *Loop) RunOnce(ctx context.Context) {
	iter := &loopIteration{Loop: l, ctx: ctx, time: time.Now()}
	l.lock.Lock()
	iter.messages, l.posted = l.posted, nil
	l.lock.Unlock()
	for s := 0; s < StageCount; s++ {
		iter.stage = Stage(s)
		for _, ctl := range l.stages[s] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error at %s: %v", iter.stage, err)
			}
		}
	}
	if n := len(iter.messages); n > 0 {
		glog.V(4).Infof("%d messages not taken", n)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.posted = append(l.posted, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

func (l *Loop) wakeUp() chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	return l.wakeUpCh
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Stage() Stage {
	return t.stage
}

func (t *loopIteration) Emit(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

func (t *loopIteration) ProcessMessages(fn func(Message) bool) {
	msgs := t.messages
	t.messages = nil
	var remains []Message
	for _, msg := range msgs {
		if !fn(msg) {
			remains = append(remains, msg)
		}
	}
	t.messages = append(remains, t.messages...)
}
