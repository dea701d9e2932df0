package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Runner.Wait when a second stop signal
// arrives before all runnables stopped.
var ErrForcedExit = errors.New("forced exit")

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

func runnableName(r Runnable, index int) string {
	if named, ok := r.(Named); ok {
		return named.Name()
	}
	return strconv.Itoa(index)
}

// Runner supervises the runnables of a daemon sharing one lifetime:
// the first of them failing, Stop, or a stop signal cancels all of
// them. Closers registered with OnStop are closed right after that,
// which unblocks runnables stuck in I/O.
type Runner struct {
	Context context.Context
	Runners []Runnable

	cancel   context.CancelFunc
	closers  []io.Closer
	stopOnce sync.Once
	errCh    chan error
	exitCh   chan struct{}
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner stopped when ctx is done.
func NewRunnerWith(ctx context.Context) *Runner {
	r := &Runner{
		errCh:  make(chan error, 1),
		exitCh: make(chan struct{}),
	}
	r.Context, r.cancel = context.WithCancel(ctx)
	go func() {
		<-r.Context.Done()
		r.Stop()
	}()
	return r
}

// OnStop registers closers closed once the runner stops.
// It must be called before Go.
func (r *Runner) OnStop(closers ...io.Closer) *Runner {
	r.closers = append(r.closers, closers...)
	return r
}

// Stop cancels all runnables and closes the registered closers.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		for _, c := range r.closers {
			if err := c.Close(); err != nil {
				glog.Warningf("close on stop: %v", err)
			}
		}
	})
}

// HandleSignals stops the runner on Ctrl-C or SIGTERM. A second signal
// makes Wait return ErrForcedExit without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		r.Stop()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns Runnables sharing the runner's lifetime.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := runnableName(runner, len(r.Runners))
		r.Runners = append(r.Runners, runner)
		go func(runner Runnable, name string) {
			glog.V(4).Infof("Runner[%s] started", name)
			err := runner.Run(r.Context)
			if err != nil && !errors.Is(err, context.Canceled) {
				glog.Errorf("Runner[%s] failed, stopping: %v", name, err)
				r.Stop()
			} else {
				glog.V(4).Infof("Runner[%s] stopped", name)
			}
			r.errCh <- err
		}(runner, name)
	}
	return r
}

// Wait waits until all Runnables stop and aggregates their errors.
// context.Canceled is not considered an error. The runner is always
// stopped when Wait returns.
func (r *Runner) Wait() error {
	defer r.Stop()
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.errCh:
			if !errors.Is(err, context.Canceled) {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}
