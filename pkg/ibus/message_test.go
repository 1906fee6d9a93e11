package ibus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ibus.go/internal/ibustest"
)

func TestChecksum(t *testing.T) {
	require.Equal(t, uint16(0xf3da), Checksum(ibustest.ReferenceFrame))
	require.Equal(t, uint16(0xffff), Checksum(make([]byte, FrameSize)))
	// bytes after ChecksumOffset are ignored
	frame := make([]byte, FrameSize)
	frame[30], frame[31] = 0xff, 0xff
	require.Equal(t, uint16(0xffff), Checksum(frame))
	require.Equal(t, uint16(0xffff-0x20), Checksum([]byte{SyncByte}))
}

func TestChecksumMaxPayload(t *testing.T) {
	frame := make([]byte, FrameSize)
	for n := range frame {
		frame[n] = 0xff
	}
	require.Equal(t, uint16(0xffff-30*0xff), Checksum(frame))

	var p Parser
	var msgs []Message
	stream := ibustest.Seal(append([]byte{SyncByte, CommandChannels}, frame[2:]...))
	for _, b := range stream {
		if msg, ok := p.Feed(b); ok {
			msgs = append(msgs, msg)
		}
	}
	require.Len(t, msgs, 1)
	for c := 0; c < NumChannels; c++ {
		require.Equal(t, uint16(0xffff), msgs[0].Channel(c))
	}
}

func TestDecodeMessage(t *testing.T) {
	var frame [FrameSize]byte
	for n := range frame {
		frame[n] = byte(n)
	}
	msg := DecodeMessage(&frame)
	require.Equal(t, uint16(0x0302), msg.Channel(0))
	require.Equal(t, uint16(0x0504), msg.Channel(1))
	require.Equal(t, uint16(0x1d1c), msg.Channel(13))

	copy(frame[:], ibustest.ReferenceFrame)
	require.Equal(t, ibustest.ReferenceChannels, DecodeMessage(&frame).Channels)
}

func TestMessageChannelOutOfRange(t *testing.T) {
	msg := Message{Channels: ibustest.ReferenceChannels}
	require.Equal(t, uint16(0), msg.Channel(-1))
	require.Equal(t, uint16(0), msg.Channel(NumChannels))
	require.Equal(t, uint16(1499), msg.Channel(0))
}

func TestFrameBuilderMatchesReference(t *testing.T) {
	require.Equal(t, ibustest.ReferenceFrame, ibustest.Frame(ibustest.ReferenceChannels[:]...))
}
