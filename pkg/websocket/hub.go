package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/ibus.go/pkg/msgs"
)

// DefaultQueueSize is the number of packets buffered per client.
const DefaultQueueSize = 16

// Hub broadcasts events to connected websocket clients.
// A client not keeping up with the queue is disconnected.
type Hub struct {
	QueueSize int

	lock    sync.RWMutex
	clients map[*client]struct{}
	seq     uint32
}

type client struct {
	rw     *ReadWriter
	addr   string
	sendCh chan []byte
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		QueueSize: DefaultQueueSize,
		clients:   make(map[*client]struct{}),
	}
}

// Name implements framework.Named.
func (h *Hub) Name() string {
	return "websocket"
}

// Handler returns the http.Handler accepting clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// SendEvent broadcasts msg to all clients.
func (h *Hub) SendEvent(ctx context.Context, msg msgs.Message) error {
	data, err := msgs.Encode(msg, atomic.AddUint32(&h.seq, 1))
	if err != nil {
		return err
	}
	var slow []*client
	h.lock.RLock()
	for c := range h.clients {
		select {
		case c.sendCh <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.lock.RUnlock()
	for _, c := range slow {
		glog.Warningf("websocket %s: too slow, disconnect", c.addr)
		h.drop(c)
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.lock.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.lock.Unlock()
	for c := range clients {
		close(c.sendCh)
	}
	return nil
}

func (h *Hub) queueSize() int {
	if h.QueueSize > 0 {
		return h.QueueSize
	}
	return DefaultQueueSize
}

func (h *Hub) add(c *client) {
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
}

func (h *Hub) drop(c *client) {
	h.lock.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.lock.Unlock()
	if ok {
		close(c.sendCh)
	}
}

func (h *Hub) serve(conn *websocket.Conn) {
	addr := conn.Request().RemoteAddr
	c := &client{rw: New(conn), addr: addr, sendCh: make(chan []byte, h.queueSize())}
	glog.Infof("websocket %s: connected", addr)
	h.add(c)
	defer func() {
		h.drop(c)
		glog.Infof("websocket %s: disconnected", addr)
	}()

	// Incoming packets are ignored, reading only detects disconnection.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, err := c.rw.ReadPacket(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case pkt, ok := <-c.sendCh:
			if !ok {
				return
			}
			if err := c.rw.WritePacket(pkt); err != nil {
				glog.V(2).Infof("websocket %s: write error: %v", addr, err)
				return
			}
		case <-readDone:
			return
		}
	}
}
