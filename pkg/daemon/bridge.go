// Package daemon bridges decoded iBus messages to event sinks.
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	"github.com/robotalks/ibus.go/pkg/env"
	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/metrics"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

// DefaultQueueSize is the number of channel events buffered for sinks.
const DefaultQueueSize = 64

// StatsSource provides the receiver state reported by RCStatus.
type StatsSource = metrics.StatsSource

// Bridge converts receiver callbacks to events and sends them to Sink
// from Run, so a slow sink never blocks decoding. Channel events are
// dropped when the queue is full. RCStatus is sent when the signal
// changes and every StatusInterval. Source and Sink are required, the
// zero value of the other fields is usable.
type Bridge struct {
	Source         StatsSource
	Sink           Sink
	Device         string
	StatusInterval time.Duration
	// Limiter throttles RCChannels events, nil for unlimited.
	Limiter *rate.Limiter
	// Metrics is optional.
	Metrics *metrics.Receiver

	frames   uint64
	once     sync.Once
	eventCh  chan msgs.Message
	statusCh chan struct{}
}

// NewBridge creates a Bridge.
func NewBridge(src StatsSource, sink Sink) *Bridge {
	b := &Bridge{Source: src, Sink: sink}
	b.init()
	return b
}

func (b *Bridge) init() {
	b.once.Do(func() {
		b.eventCh = make(chan msgs.Message, DefaultQueueSize)
		b.statusCh = make(chan struct{}, 1)
	})
}

// New creates a Bridge from conf and installs it as the handler and
// notifier of rx.
func New(conf *env.Config, rx *ibus.Receiver, sink Sink) *Bridge {
	b := NewBridge(rx, sink)
	b.Device = conf.Serial.Device
	b.StatusInterval = conf.StatusInterval
	if conf.PublishRate > 0 {
		burst := int(conf.PublishRate)
		if burst < 1 {
			burst = 1
		}
		b.Limiter = rate.NewLimiter(rate.Limit(conf.PublishRate), burst)
	}
	rx.Handler, rx.Notifier = b, b
	return b
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "bridge"
}

// HandleMessage implements ibus.MessageHandler.
func (b *Bridge) HandleMessage(ctx context.Context, msg ibus.Message) {
	// only called from the receiver loop.
	b.init()
	b.frames++
	if b.Metrics != nil {
		b.Metrics.ObserveMessage(msg)
	}
	if b.Limiter != nil && !b.Limiter.Allow() {
		return
	}
	select {
	case b.eventCh <- msgs.NewRCChannels(msg, b.frames):
	default:
		glog.V(1).Infof("event queue full, frame %d dropped", b.frames)
	}
}

// SignalChanged implements ibus.SignalNotifier.
func (b *Bridge) SignalChanged(ctx context.Context, state ibus.SignalState) {
	glog.Infof("signal %s", state)
	b.init()
	b.requestStatus()
}

// Run sends queued events until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	b.init()
	var tick <-chan time.Time
	if b.StatusInterval > 0 {
		ticker := time.NewTicker(b.StatusInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	b.sendStatus(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-b.eventCh:
			b.send(ctx, msg)
		case <-b.statusCh:
			b.sendStatus(ctx)
		case <-tick:
			b.sendStatus(ctx)
		}
	}
}

func (b *Bridge) requestStatus() {
	select {
	case b.statusCh <- struct{}{}:
	default:
	}
}

func (b *Bridge) sendStatus(ctx context.Context) {
	b.send(ctx, msgs.NewRCStatus(b.Source.Signal(), b.Source.Stats(), b.Device))
}

func (b *Bridge) send(ctx context.Context, msg msgs.Message) {
	if err := b.Sink.SendEvent(ctx, msg); err != nil {
		glog.V(2).Infof("send event %08x error: %v", msg.TypeID(), err)
	}
}
