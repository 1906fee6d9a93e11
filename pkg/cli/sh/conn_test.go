package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

func TestConnUpdate(t *testing.T) {
	conn := newConn(mqtt.Ref{Type: "ibus", ID: "rx1"})
	require.Nil(t, conn.Status())
	require.Nil(t, conn.Channels())
	select {
	case <-conn.StatusReady():
		t.Fatal("status ready before any status")
	default:
	}

	st := &msgs.RCStatus{Active: true}
	conn.update(st)
	<-conn.StatusReady()
	require.Same(t, st, conn.Status())
	conn.update(&msgs.RCStatus{})
	require.False(t, conn.Status().Active)

	ch := make(chan *msgs.RCChannels, 1)
	stop := conn.Watch(ch)
	m1, m2 := &msgs.RCChannels{Frame: 1}, &msgs.RCChannels{Frame: 2}
	conn.update(m1)
	// skipped as ch is full
	conn.update(m2)
	require.Same(t, m1, <-ch)
	require.Same(t, m2, conn.Channels())

	stop()
	conn.update(m1)
	require.Len(t, ch, 0)
}
