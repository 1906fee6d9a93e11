package sh

import (
	"sync"

	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

// Conn tracks events of a connected receiver.
type Conn struct {
	Ref mqtt.Ref

	subs []*mqtt.Subscription

	lock     sync.RWMutex
	status   *msgs.RCStatus
	channels *msgs.RCChannels
	watchers map[chan *msgs.RCChannels]struct{}
	statusCh chan struct{}
}

func newConn(ref mqtt.Ref) *Conn {
	return &Conn{
		Ref:      ref,
		watchers: make(map[chan *msgs.RCChannels]struct{}),
		statusCh: make(chan struct{}),
	}
}

// Status returns the latest status, nil if not received yet.
func (c *Conn) Status() *msgs.RCStatus {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.status
}

// StatusReady is closed when the first status arrives.
func (c *Conn) StatusReady() <-chan struct{} {
	return c.statusCh
}

// Channels returns the latest channel values, nil if not received yet.
func (c *Conn) Channels() *msgs.RCChannels {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.channels
}

// Watch receives channel events until the returned func is called.
// Events are skipped if ch is not ready.
func (c *Conn) Watch(ch chan *msgs.RCChannels) (stop func()) {
	c.lock.Lock()
	c.watchers[ch] = struct{}{}
	c.lock.Unlock()
	return func() {
		c.lock.Lock()
		delete(c.watchers, ch)
		c.lock.Unlock()
	}
}

func (c *Conn) update(msg msgs.Message) {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch m := msg.(type) {
	case *msgs.RCStatus:
		if c.status == nil {
			close(c.statusCh)
		}
		c.status = m
	case *msgs.RCChannels:
		c.channels = m
		for ch := range c.watchers {
			select {
			case ch <- m:
			default:
			}
		}
	}
}

func (c *Conn) close() {
	for _, sub := range c.subs {
		sub.Close()
	}
	c.subs = nil
}
