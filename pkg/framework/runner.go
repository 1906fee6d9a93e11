package framework

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait when stop is requested twice.
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

// NameOf returns the name of a Named runnable, or fallback.
func NameOf(runnable Runnable, fallback string) string {
	if named, ok := runnable.(Named); ok {
		return named.Name()
	}
	return fallback
}

type task struct {
	name     string
	runnable Runnable
	err      error
}

// Runner supervises a set of Runnables sharing one context.
// The first Runnable failing stops all the others.
type Runner struct {
	ctx    context.Context
	cancel func()
	tasks  []*task
	doneCh chan *task
	exitCh chan struct{}
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner derived from ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	r := &Runner{
		doneCh: make(chan *task),
		exitCh: make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	return r
}

// Context is canceled when the runner stops.
func (r *Runner) Context() context.Context {
	return r.ctx
}

// HandleSignals stops the runner on Ctrl-C or SIGTERM. A second signal
// makes Wait return ErrForcedExit without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		r.cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Stop cancels the context of all Runnables.
func (r *Runner) Stop() {
	r.cancel()
}

// Go starts Runnables.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		t := &task{
			name:     NameOf(runnable, "#"+strconv.Itoa(len(r.tasks))),
			runnable: runnable,
		}
		r.tasks = append(r.tasks, t)
		go r.run(t)
	}
	return r
}

// Serve starts an HTTPServer on addr.
func (r *Runner) Serve(name, addr string, handler http.Handler) *Runner {
	return r.Go(NewHTTPServer(name, addr, handler))
}

func (r *Runner) run(t *task) {
	glog.V(4).Infof("%s: started", t.name)
	t.err = t.runnable.Run(r.ctx)
	switch {
	case t.err == nil || errors.Is(t.err, context.Canceled):
		t.err = nil
		glog.V(4).Infof("%s: stopped", t.name)
	default:
		glog.Errorf("%s: %v", t.name, t.err)
		r.cancel()
	}
	r.doneCh <- t
}

// Wait waits until all Runnables stop. It returns nil if all stopped
// cleanly, the error itself if one failed, or an *AggregatedError.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.tasks {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case t := <-r.doneCh:
			errs.Add(t.err)
		}
	}
	return errs.Aggregate()
}
