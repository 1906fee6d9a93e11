package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/ibus.go/pkg/msgs"
)

func dial(t *testing.T, srv *httptest.Server) *ReadWriter {
	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", "http://localhost/")
	require.NoError(t, err)
	return New(conn)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	c1, c2 := dial(t, srv), dial(t, srv)
	defer c2.Close()
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 5*time.Millisecond)

	sent := &msgs.RCChannels{Channels: []uint32{1000, 1500, 2000}, Frame: 7}
	require.NoError(t, hub.SendEvent(context.Background(), sent))
	for _, c := range []*ReadWriter{c1, c2} {
		pkt, err := c.ReadPacket()
		require.NoError(t, err)
		msg, typed, err := msgs.Decode(pkt)
		require.NoError(t, err)
		require.Equal(t, uint32(1), typed.Sequence)
		require.Equal(t, sent, msg)
	}

	c1.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Close())
	_, err := c2.ReadPacket()
	require.Error(t, err)
	require.Equal(t, 0, hub.Len())
}

func TestHubDropSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &client{addr: "slow", sendCh: make(chan []byte, 1)}
	hub.add(slow)
	ctx := context.Background()
	require.NoError(t, hub.SendEvent(ctx, &msgs.RCStatus{Active: true}))
	require.Equal(t, 1, hub.Len())
	require.NoError(t, hub.SendEvent(ctx, &msgs.RCStatus{}))
	require.Equal(t, 0, hub.Len())

	_, ok := <-slow.sendCh
	require.True(t, ok)
	_, ok = <-slow.sendCh
	require.False(t, ok)
}

func TestHubSendWithoutClients(t *testing.T) {
	hub := NewHub()
	require.NoError(t, hub.SendEvent(context.Background(), &msgs.RCStatus{}))
}
