// Package ibustest builds iBus byte streams for tests.
package ibustest

// ReferenceFrame is a frame captured from a FlySky FS-iA6B receiver.
var ReferenceFrame = []byte{
	0x20, 0x40,
	0xDB, 0x05, 0xDC, 0x05, 0x54, 0x05, 0xDC, 0x05, 0xE8, 0x03, 0xD0, 0x07, 0xD2,
	0x05, 0xE8, 0x03, 0xDC, 0x05, 0xDC, 0x05, 0xDC, 0x05, 0xDC, 0x05, 0xDC, 0x05,
	0xDC, 0x05,
	0xDA, 0xF3,
}

// ReferenceChannels are the channel values carried by ReferenceFrame.
var ReferenceChannels = [14]uint16{
	1499, 1500, 1364, 1500, 1000, 2000, 1490, 1000, 1500, 1500, 1500, 1500, 1500, 1500,
}

// Frame builds a valid channel data frame. Channels not given are 0,
// extra channels are ignored.
func Frame(channels ...uint16) []byte {
	frame := make([]byte, 32)
	frame[0], frame[1] = 0x20, 0x40
	for n := 0; n < 14 && n < len(channels); n++ {
		frame[2+2*n] = byte(channels[n])
		frame[3+2*n] = byte(channels[n] >> 8)
	}
	return Seal(frame)
}

// Seal rewrites the checksum of frame in place and returns it.
func Seal(frame []byte) []byte {
	sum := 0xffff
	for _, b := range frame[:30] {
		sum -= int(b)
	}
	frame[30], frame[31] = byte(sum), byte(sum>>8)
	return frame
}

// Concat joins byte slices into one stream.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
