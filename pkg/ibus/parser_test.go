package ibus

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ibus.go/internal/ibustest"
)

type parserTestSequence struct {
	in    []byte
	state State
	index int
	msg   *Message
}

type parserTestSequenceBuilder struct {
	seq []parserTestSequence
}

func parserTestSequences() *parserTestSequenceBuilder {
	return &parserTestSequenceBuilder{}
}

func (b *parserTestSequenceBuilder) on(state State, index int, in ...byte) *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{in: in, state: state, index: index})
	return b
}

func (b *parserTestSequenceBuilder) onSeeking(in ...byte) *parserTestSequenceBuilder {
	return b.on(StateSeeking, 0, in...)
}

func (b *parserTestSequenceBuilder) onCollecting(index int, in ...byte) *parserTestSequenceBuilder {
	return b.on(StateCollecting, index, in...)
}

func (b *parserTestSequenceBuilder) message(channels ...uint16) *parserTestSequenceBuilder {
	var msg Message
	copy(msg.Channels[:], channels)
	b.seq[len(b.seq)-1].msg = &msg
	return b
}

func (b *parserTestSequenceBuilder) build() []parserTestSequence {
	return b.seq
}

func TestParser(t *testing.T) {
	ref := ibustest.ReferenceFrame
	refChannels := ibustest.ReferenceChannels[:]
	bad := append([]byte{}, ref...)
	bad[5] ^= 0x10

	testCases := []struct {
		name string
		seq  []parserTestSequence
	}{
		{
			name: "reference frame",
			seq: parserTestSequences().
				onSeeking(ref...).message(refChannels...).
				build(),
		},
		{
			name: "skip garbage before sync",
			seq: parserTestSequences().
				onSeeking(0x00, 0xff, 0x40, 0xdc, 0x05).
				onCollecting(1, SyncByte).
				onCollecting(31, ref[1:31]...).
				onSeeking(ref[31]).message(refChannels...).
				build(),
		},
		{
			name: "start mid frame",
			seq: parserTestSequences().
				onSeeking(ref[24:]...).
				onSeeking(ref...).message(refChannels...).
				build(),
		},
		{
			name: "drop bad checksum and resync",
			seq: parserTestSequences().
				onCollecting(31, bad[:31]...).
				onSeeking(bad[31]).
				onSeeking(ref...).message(refChannels...).
				build(),
		},
		{
			name: "sync byte in payload",
			seq: parserTestSequences().
				onCollecting(3, SyncByte, CommandChannels, SyncByte).
				onSeeking(ibustest.Frame(0x2020, 0x2020)[3:]...).message(0x2020, 0x2020).
				build(),
		},
		{
			name: "back to back frames",
			seq: parserTestSequences().
				onSeeking(ibustest.Frame(1000, 2000)...).message(1000, 2000).
				onSeeking(ibustest.Frame(1500)...).message(1500).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			for n, s := range tc.seq {
				var msgs []Message
				for _, b := range s.in {
					if msg, ok := p.Feed(b); ok {
						msgs = append(msgs, msg)
					}
				}
				require.Equalf(t, s.state, p.State(), "seq[%d] state", n)
				require.Equalf(t, s.index, p.Index(), "seq[%d] index", n)
				if s.msg == nil {
					require.Emptyf(t, msgs, "seq[%d] unexpected message", n)
				} else {
					require.Lenf(t, msgs, 1, "seq[%d] messages", n)
					require.Equalf(t, *s.msg, msgs[0], "seq[%d] message", n)
				}
			}
		})
	}
}

func TestParserEmitsOnLastByte(t *testing.T) {
	p := NewParser()
	for n, b := range ibustest.ReferenceFrame {
		msg, ok := p.Feed(b)
		if n < FrameSize-1 {
			require.Falsef(t, ok, "byte[%d] emitted", n)
			continue
		}
		require.True(t, ok)
		require.Equal(t, ibustest.ReferenceChannels, msg.Channels)
	}
}

func TestParserSyncDetection(t *testing.T) {
	p := NewParser()
	for b := 0; b < 256; b++ {
		if byte(b) == SyncByte {
			continue
		}
		_, ok := p.Feed(byte(b))
		require.False(t, ok)
		require.Equal(t, StateSeeking, p.State())
		require.Equal(t, 0, p.Index())
	}
	_, ok := p.Feed(SyncByte)
	require.False(t, ok)
	require.Equal(t, StateCollecting, p.State())
	require.Equal(t, 1, p.Index())
	require.Equal(t, uint64(255), p.Stats().Discarded)
}

func TestParserRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		var channels [NumChannels]uint16
		for n := range channels {
			channels[n] = uint16(rnd.Intn(0x10000))
		}
		channels[i%NumChannels] = 0xffff
		var p Parser
		var msgs []Message
		for _, b := range ibustest.Frame(channels[:]...) {
			if msg, ok := p.Feed(b); ok {
				msgs = append(msgs, msg)
			}
		}
		require.Len(t, msgs, 1)
		require.Equal(t, channels, msgs[0].Channels)
	}
}

func TestParserRejectsBitFlips(t *testing.T) {
	for pos := 0; pos < ChecksumOffset; pos++ {
		for bit := uint(0); bit < 8; bit++ {
			t.Run(fmt.Sprintf("byte%d-bit%d", pos, bit), func(t *testing.T) {
				frame := append([]byte{}, ibustest.ReferenceFrame...)
				frame[pos] ^= 1 << bit
				var p Parser
				for _, b := range frame {
					_, ok := p.Feed(b)
					require.False(t, ok)
				}
				// recovers on the next valid frame
				var got []Message
				for _, b := range ibustest.ReferenceFrame {
					if msg, ok := p.Feed(b); ok {
						got = append(got, msg)
					}
				}
				require.Len(t, got, 1)
				require.Equal(t, ibustest.ReferenceChannels, got[0].Channels)
			})
		}
	}
}

func TestParserOnlySyncBytes(t *testing.T) {
	var p Parser
	for i := 0; i < FrameSize*10; i++ {
		_, ok := p.Feed(SyncByte)
		require.False(t, ok)
		if k := i % FrameSize; k == FrameSize-1 {
			require.Equal(t, StateSeeking, p.State())
			require.Equal(t, 0, p.Index())
		} else {
			require.Equal(t, StateCollecting, p.State())
			require.Equal(t, k+1, p.Index())
		}
	}
	require.Equal(t, Stats{Dropped: 10}, p.Stats())
}

func TestParserAllByteValues(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	var p Parser
	for i := 0; i < 100000; i++ {
		p.Feed(byte(rnd.Intn(256)))
		if p.State() == StateSeeking {
			require.Equal(t, 0, p.Index())
		} else {
			require.True(t, p.Index() > 0 && p.Index() < FrameSize)
		}
	}
}

func TestParserReset(t *testing.T) {
	var p Parser
	for _, b := range ibustest.ReferenceFrame[:20] {
		p.Feed(b)
	}
	require.Equal(t, StateCollecting, p.State())
	p.Reset()
	require.Equal(t, StateSeeking, p.State())
	require.Equal(t, 0, p.Index())
	// the rest of the stale frame is discarded
	for _, b := range ibustest.ReferenceFrame[20:] {
		_, ok := p.Feed(b)
		require.False(t, ok)
	}
	for _, b := range ibustest.ReferenceFrame {
		p.Feed(b)
	}
	require.Equal(t, uint64(1), p.Stats().Frames)
}

func TestParserStats(t *testing.T) {
	var p Parser
	stream := ibustest.Concat(
		[]byte{0x01, 0x02},
		ibustest.ReferenceFrame,
		ibustest.ReferenceFrame[:31], []byte{0x00},
		ibustest.Frame(1500),
	)
	for _, b := range stream {
		p.Feed(b)
	}
	require.Equal(t, Stats{Frames: 2, Dropped: 1, Discarded: 2}, p.Stats())
}
