package ibus

// ChannelRange describes the span of a channel value, usually
// servo pulse width in microseconds.
type ChannelRange struct {
	Min uint16
	Mid uint16
	Max uint16
}

// DefaultChannelRange is the range used by most transmitters.
var DefaultChannelRange = ChannelRange{Min: 1000, Mid: 1500, Max: 2000}

// Normalize maps v into [-1, 1], with Mid at 0.
func (r ChannelRange) Normalize(v uint16) float32 {
	switch {
	case v >= r.Max:
		return 1
	case v <= r.Min:
		return -1
	case v >= r.Mid:
		return float32(v-r.Mid) / float32(r.Max-r.Mid)
	default:
		return -float32(r.Mid-v) / float32(r.Mid-r.Min)
	}
}

// Normalized maps all channels with Normalize.
func (m Message) Normalized(r ChannelRange) (vals [NumChannels]float32) {
	for n, v := range m.Channels {
		vals[n] = r.Normalize(v)
	}
	return
}
