package daemon

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/ibus.go/pkg/framework"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

// Sink receives events from the Bridge.
type Sink interface {
	SendEvent(context.Context, msgs.Message) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(context.Context, msgs.Message) error

// SendEvent implements Sink.
func (f SinkFunc) SendEvent(ctx context.Context, msg msgs.Message) error {
	return f(ctx, msg)
}

// SinkMux sends events to all sinks. A sink starting or stopping to fail
// is logged once per change.
type SinkMux struct {
	Sinks []Sink
	// OnError is called with the name of the failed sink.
	OnError func(name string, err error)

	lock    sync.Mutex
	failing map[string]bool
}

// Add adds sinks.
func (m *SinkMux) Add(sinks ...Sink) *SinkMux {
	m.Sinks = append(m.Sinks, sinks...)
	return m
}

// SendEvent implements Sink. All sinks are tried and errors aggregated.
func (m *SinkMux) SendEvent(ctx context.Context, msg msgs.Message) error {
	var errs framework.AggregatedError
	for n, sink := range m.Sinks {
		name := sinkName(n, sink)
		err := sink.SendEvent(ctx, msg)
		m.setFailing(name, err)
		if err != nil {
			if m.OnError != nil {
				m.OnError(name, err)
			}
			errs.Add(fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs.Aggregate()
}

// Failing indicates the last event sent to the named sink failed.
func (m *SinkMux) Failing(name string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.failing[name]
}

func (m *SinkMux) setFailing(name string, err error) {
	failing := err != nil
	m.lock.Lock()
	changed := m.failing[name] != failing
	if changed {
		if m.failing == nil {
			m.failing = make(map[string]bool)
		}
		m.failing[name] = failing
	}
	m.lock.Unlock()
	switch {
	case changed && failing:
		glog.Warningf("%s: send event error: %v", name, err)
	case changed:
		glog.Infof("%s: send event recovered", name)
	}
}

func sinkName(n int, sink Sink) string {
	if named, ok := sink.(framework.Named); ok {
		return named.Name()
	}
	return "sink" + strconv.Itoa(n)
}
