package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/robotalks/ibus.go/pkg/env"
	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/metrics"
	"github.com/robotalks/ibus.go/pkg/msgs"
	"github.com/robotalks/ibus.go/pkg/serial"
)

type fakeSource struct {
	lock   sync.Mutex
	stats  ibus.Stats
	signal ibus.SignalState
}

func (s *fakeSource) Stats() ibus.Stats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stats
}

func (s *fakeSource) Signal() ibus.SignalState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.signal
}

func (s *fakeSource) set(signal ibus.SignalState, frames uint64) {
	s.lock.Lock()
	s.signal, s.stats.Frames = signal, frames
	s.lock.Unlock()
}

type chanSink chan msgs.Message

func (s chanSink) SendEvent(ctx context.Context, msg msgs.Message) error {
	s <- msg
	return nil
}

func (s chanSink) expect(t *testing.T) msgs.Message {
	select {
	case msg := <-s:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expect event timeout")
	}
	return nil
}

func message(channels ...uint16) (msg ibus.Message) {
	copy(msg.Channels[:], channels)
	return
}

func startBridge(t *testing.T, b *Bridge) func() {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()
	return func() {
		cancel()
		require.Equal(t, context.Canceled, <-errCh)
	}
}

func TestBridgeEvents(t *testing.T) {
	src, sink := &fakeSource{}, make(chanSink, 16)
	b := NewBridge(src, sink)
	b.Device = "/dev/ttyUSB0"
	defer startBridge(t, b)()

	require.Equal(t, &msgs.RCStatus{Device: "/dev/ttyUSB0"}, sink.expect(t))

	ctx := context.Background()
	b.HandleMessage(ctx, message(1000, 2000))
	b.HandleMessage(ctx, message(1500))
	ch := sink.expect(t).(*msgs.RCChannels)
	require.Equal(t, uint64(1), ch.Frame)
	require.Equal(t, message(1000, 2000), ch.Message())
	ch = sink.expect(t).(*msgs.RCChannels)
	require.Equal(t, uint64(2), ch.Frame)
	require.Equal(t, message(1500), ch.Message())

	src.set(ibus.SignalActive, 2)
	b.SignalChanged(ctx, ibus.SignalActive)
	require.Equal(t, &msgs.RCStatus{Active: true, Frames: 2, Device: "/dev/ttyUSB0"}, sink.expect(t))
}

func TestBridgeStatusInterval(t *testing.T) {
	src, sink := &fakeSource{}, make(chanSink, 16)
	b := NewBridge(src, sink)
	b.StatusInterval = 10 * time.Millisecond
	defer startBridge(t, b)()
	for i := 0; i < 3; i++ {
		_, ok := sink.expect(t).(*msgs.RCStatus)
		require.True(t, ok)
	}
}

func TestBridgeLimiter(t *testing.T) {
	b := NewBridge(&fakeSource{}, make(chanSink))
	b.Limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	for i := 0; i < 5; i++ {
		b.HandleMessage(context.Background(), message(uint16(i)))
	}
	require.Len(t, b.eventCh, 1)
	require.Equal(t, uint64(5), b.frames)
}

func TestBridgeQueueFull(t *testing.T) {
	b := NewBridge(&fakeSource{}, make(chanSink))
	for i := 0; i < DefaultQueueSize+10; i++ {
		b.HandleMessage(context.Background(), message())
	}
	require.Len(t, b.eventCh, DefaultQueueSize)
	first := (<-b.eventCh).(*msgs.RCChannels)
	require.Equal(t, uint64(1), first.Frame)
}

func TestBridgeMetrics(t *testing.T) {
	src := &fakeSource{}
	b := NewBridge(src, make(chanSink, 1))
	b.Metrics = metrics.NewReceiver(prometheus.NewRegistry(), src)
	b.HandleMessage(context.Background(), message(1234))
	require.Equal(t, float64(1234), testutil.ToFloat64(b.Metrics.Channels.WithLabelValues("0")))
}

func TestNew(t *testing.T) {
	conf := env.NewConfig()
	conf.Serial = *serial.DefaultConfig("-")
	conf.PublishRate = 0.5
	rx := ibus.NewReceiver(nil)
	b := New(conf, rx, make(chanSink))
	require.Same(t, b, rx.Handler)
	require.Same(t, b, rx.Notifier)
	require.Equal(t, "-", b.Device)
	require.NotNil(t, b.Limiter)
	require.Equal(t, 1, b.Limiter.Burst())

	conf.PublishRate = 0
	require.Nil(t, New(conf, rx, make(chanSink)).Limiter)
}

func TestBridgeZeroValue(t *testing.T) {
	src, sink := &fakeSource{}, make(chanSink, 16)
	b := &Bridge{Source: src, Sink: sink}
	b.HandleMessage(context.Background(), message(1000))
	defer startBridge(t, b)()

	_, ok := sink.expect(t).(*msgs.RCStatus)
	require.True(t, ok)
	ch := sink.expect(t).(*msgs.RCChannels)
	require.Equal(t, uint64(1), ch.Frame)
}
