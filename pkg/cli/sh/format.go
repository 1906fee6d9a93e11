package sh

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

// BarWidth is the width of a channel bar, excluding brackets.
const BarWidth = 21

// FormatInfo prints Info into friendly string for display.
func FormatInfo(info mqtt.Info) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	if info.Meta.Device != "" {
		fmt.Fprintf(&w, " (%s)", info.Meta.Device)
	}
	return w.String()
}

// FormatStatus prints RCStatus.
func FormatStatus(st *msgs.RCStatus) string {
	signal := ibus.SignalLost
	if st.Active {
		signal = ibus.SignalActive
	}
	return fmt.Sprintf("signal %s, frames %d, dropped %d, discarded %d bytes, device %s",
		signal, st.Frames, st.Dropped, st.Discarded, st.Device)
}

// FormatBar draws a normalized value in [-1, 1] as a bar centered at 0.
func FormatBar(v float64) string {
	last := BarWidth - 1
	pos := int(math.Round((v + 1) / 2 * float64(last)))
	if pos < 0 {
		pos = 0
	} else if pos > last {
		pos = last
	}
	bar := []byte(strings.Repeat("-", BarWidth))
	bar[last/2] = '|'
	bar[pos] = '#'
	return "[" + string(bar) + "]"
}

// FormatChannels prints channel values with bars, one channel a line,
// numbered from 0 like Message.Channel.
func FormatChannels(m *msgs.RCChannels, r ibus.ChannelRange) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "frame %d\n", m.Frame)
	for n, v := range m.Channels {
		fmt.Fprintf(&w, "%2d %5d %s\n", n, v, FormatBar(float64(r.Normalize(uint16(v)))))
	}
	return w.String()
}
