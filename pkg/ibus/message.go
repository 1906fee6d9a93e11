package ibus

import "encoding/binary"

// Wire format constants.
const (
	// SyncByte starts every frame.
	SyncByte byte = 0x20
	// CommandChannels is the command byte of channel data frames.
	CommandChannels byte = 0x40
	// FrameSize is the total size of a frame.
	FrameSize = 32
	// NumChannels is the number of channels carried in a frame.
	NumChannels = 14
	// ChecksumOffset is where the checksum starts, also the number of
	// bytes covered by the checksum.
	ChecksumOffset = FrameSize - 2
)

// Message is a decoded channel data frame.
type Message struct {
	Channels [NumChannels]uint16
}

// Channel returns the value of channel i, or 0 if i is out of range.
func (m Message) Channel(i int) uint16 {
	if i < 0 || i >= NumChannels {
		return 0
	}
	return m.Channels[i]
}

// Checksum calculates the checksum over at most the first ChecksumOffset
// bytes of frame.
func Checksum(frame []byte) uint16 {
	if len(frame) > ChecksumOffset {
		frame = frame[:ChecksumOffset]
	}
	sum := uint16(0xffff)
	for _, b := range frame {
		sum -= uint16(b)
	}
	return sum
}

// DecodeMessage extracts channel values from a complete frame.
// The frame is not validated.
func DecodeMessage(frame *[FrameSize]byte) (m Message) {
	for c := range m.Channels {
		m.Channels[c] = binary.LittleEndian.Uint16(frame[2*(c+1):])
	}
	return
}

func frameChecksum(frame *[FrameSize]byte) uint16 {
	return binary.LittleEndian.Uint16(frame[ChecksumOffset:])
}
