package framework

import (
	"context"
	"io"
)

// RunWithContextCancel runs fn which doesn't accept a context.
// onCancel is called only when ctx is done first, and is expected to
// unblock fn. The result is context.Canceled in that case.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	resCh := make(chan error, 1)
	go func() {
		resCh <- fn()
	}()
	select {
	case err := <-resCh:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
	}
	<-resCh
	return context.Canceled
}

// RunWithContext is simplified form with no cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser closes closer exactly once, on cancel or after fn
// returns, e.g. to unblock a Read.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	closed := false
	err := RunWithContextCancel(ctx, func() {
		closed = true
		closer.Close()
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
