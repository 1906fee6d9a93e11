package sh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

func TestFormatBar(t *testing.T) {
	testCases := []struct {
		v   float64
		bar string
	}{
		{-1, "[#---------|----------]"},
		{-2, "[#---------|----------]"},
		{0, "[----------#----------]"},
		{0.5, "[----------|----#-----]"},
		{1, "[----------|---------#]"},
		{3, "[----------|---------#]"},
	}
	for _, tc := range testCases {
		require.Equalf(t, tc.bar, FormatBar(tc.v), "%v", tc.v)
		require.Len(t, FormatBar(tc.v), BarWidth+2)
	}
}

func TestFormatChannels(t *testing.T) {
	out := FormatChannels(&msgs.RCChannels{Channels: []uint32{1000, 1500, 2000}, Frame: 3}, ibus.DefaultChannelRange)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Equal(t, []string{
		"frame 3",
		" 0  1000 [#---------|----------]",
		" 1  1500 [----------#----------]",
		" 2  2000 [----------|---------#]",
	}, lines)
}

func TestFormatInfo(t *testing.T) {
	ref := mqtt.Ref{Type: "ibus", ID: "rx1"}
	require.Equal(t, "ibus/rx1", FormatInfo(mqtt.Info{Ref: ref}))
	require.Equal(t, "ibus/rx1: FS-iA6B (/dev/ttyUSB0)", FormatInfo(mqtt.Info{
		Ref:  ref,
		Meta: mqtt.Meta{Description: "FS-iA6B", Device: "/dev/ttyUSB0"},
	}))
}

func TestFormatStatus(t *testing.T) {
	require.Equal(t, "signal active, frames 10, dropped 1, discarded 2 bytes, device -",
		FormatStatus(&msgs.RCStatus{Active: true, Frames: 10, Dropped: 1, Discarded: 2, Device: "-"}))
	require.Equal(t, "signal lost, frames 0, dropped 0, discarded 0 bytes, device ",
		FormatStatus(&msgs.RCStatus{}))
}
