package ibus

import (
	"context"
	"io"
	"os"
	"sync"
	"time"
)

// MessageHandler is called when a message is decoded.
type MessageHandler interface {
	HandleMessage(context.Context, Message)
}

// HandleMessageFunc is func type of MessageHandler.
type HandleMessageFunc func(context.Context, Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg Message) {
	f(ctx, msg)
}

// SignalState indicates whether valid frames are being received.
type SignalState int

const (
	// SignalLost means no valid frame is received within the timeout.
	SignalLost SignalState = iota
	// SignalActive means valid frames are being received.
	SignalActive
)

// IsActive indicates valid frames are being received.
func (s SignalState) IsActive() bool {
	return s == SignalActive
}

// String implements fmt.Stringer.
func (s SignalState) String() string {
	if s.IsActive() {
		return "active"
	}
	return "lost"
}

// SignalNotifier is called when the signal state changed.
type SignalNotifier interface {
	SignalChanged(context.Context, SignalState)
}

// SignalChangedFunc is func type of SignalNotifier.
type SignalChangedFunc func(context.Context, SignalState)

// SignalChanged implements SignalNotifier.
func (f SignalChangedFunc) SignalChanged(ctx context.Context, state SignalState) {
	f(ctx, state)
}

// DefaultTimeout is the default Receiver timeout.
const DefaultTimeout = 100 * time.Millisecond

// Receiver reads an iBus stream and dispatches decoded messages.
type Receiver struct {
	Reader   io.Reader
	Handler  MessageHandler
	Notifier SignalNotifier
	// Timeout applies to both a partial frame (dropped when not completed
	// in time) and the signal (lost when no valid frame arrives in time).
	Timeout time.Duration
	// ReadTimeout is set to true if Reader already supports timeout with
	// Read. A read returning no data (with io.EOF or a timeout error) is
	// not treated as an error in this mode.
	ReadTimeout bool

	parser Parser
	signal SignalState
	lock   sync.RWMutex

	frameTimer  <-chan time.Time
	signalTimer <-chan time.Time
}

// NewReceiver creates a Receiver.
func NewReceiver(r io.Reader) *Receiver {
	return &Receiver{
		Reader:  r,
		Timeout: DefaultTimeout,
	}
}

// Signal gets the signal state.
func (r *Receiver) Signal() SignalState {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.signal
}

// Stats gets the parser counters.
func (r *Receiver) Stats() Stats {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.parser.Stats()
}

// Run reads and decodes the stream until ctx is done or the Reader fails.
func (r *Receiver) Run(ctx context.Context) error {
	if r.ReadTimeout {
		buf := make([]byte, 1)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.frameTimer:
				r.frameExpired()
			case <-r.signalTimer:
				r.signalExpired(ctx)
			default:
				n, err := r.Reader.Read(buf)
				if n > 0 {
					r.feed(ctx, buf[0])
				} else if err != nil && err != io.EOF && !os.IsTimeout(err) {
					return err
				}
			}
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			r.feed(ctx, b)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-r.frameTimer:
			r.frameExpired()
		case <-r.signalTimer:
			r.signalExpired(ctx)
		}
	}
}

func (r *Receiver) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, FrameSize)
	for {
		n, err := r.Reader.Read(buf)
		for _, b := range buf[:n] {
			select {
			case byteCh <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (r *Receiver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

func (r *Receiver) feed(ctx context.Context, b byte) {
	r.lock.Lock()
	prev := r.parser.State()
	msg, ok := r.parser.Feed(b)
	state := r.parser.State()
	r.lock.Unlock()

	if prev == StateSeeking && state == StateCollecting {
		r.frameTimer = time.After(r.timeout())
	}
	if !ok {
		return
	}
	r.frameTimer = nil
	r.signalTimer = time.After(r.timeout())
	r.setSignal(ctx, SignalActive)
	if h := r.Handler; h != nil {
		h.HandleMessage(ctx, msg)
	}
}

func (r *Receiver) frameExpired() {
	r.frameTimer = nil
	r.lock.Lock()
	r.parser.Reset()
	r.lock.Unlock()
}

func (r *Receiver) signalExpired(ctx context.Context) {
	r.signalTimer = nil
	r.setSignal(ctx, SignalLost)
}

func (r *Receiver) setSignal(ctx context.Context, state SignalState) {
	var notifier SignalNotifier
	r.lock.Lock()
	if r.signal != state {
		r.signal = state
		notifier = r.Notifier
	}
	r.lock.Unlock()
	if notifier != nil {
		notifier.SignalChanged(ctx, state)
	}
}
