package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/ibus.go/pkg/ibus"
)

// RCChannels is an Event message carrying channel values of a frame.
type RCChannels struct {
	Channels []uint32 `protobuf:"varint,1,rep,packed,name=channels,proto3" json:"channels,omitempty"`
	Frame    uint64   `protobuf:"varint,2,opt,name=frame,proto3" json:"frame,omitempty"`
}

// NewRCChannels creates RCChannels from a decoded message.
func NewRCChannels(msg ibus.Message, frame uint64) *RCChannels {
	m := &RCChannels{
		Channels: make([]uint32, len(msg.Channels)),
		Frame:    frame,
	}
	for n, v := range msg.Channels {
		m.Channels[n] = uint32(v)
	}
	return m
}

// Message converts back to ibus.Message. Missing channels are 0.
func (m *RCChannels) Message() (msg ibus.Message) {
	for n := 0; n < len(m.Channels) && n < ibus.NumChannels; n++ {
		msg.Channels[n] = uint16(m.Channels[n])
	}
	return
}

// NewMessage implements Message.
func (m *RCChannels) NewMessage() Message { return &RCChannels{} }

// TypeID implements Message.
func (m *RCChannels) TypeID() uint32 { return RCChannelsTypeID }

// Serializable implements Message.
func (m *RCChannels) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RCChannels) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RCChannels) Reset() { *m = RCChannels{} }

// String implements proto.Message.
func (m *RCChannels) String() string { return proto.CompactTextString(m) }

// RCStatus is an Event message reflecting receiver status.
type RCStatus struct {
	Active    bool   `protobuf:"varint,1,opt,name=active,proto3" json:"active,omitempty"`
	Frames    uint64 `protobuf:"varint,2,opt,name=frames,proto3" json:"frames,omitempty"`
	Dropped   uint64 `protobuf:"varint,3,opt,name=dropped,proto3" json:"dropped,omitempty"`
	Discarded uint64 `protobuf:"varint,4,opt,name=discarded,proto3" json:"discarded,omitempty"`
	Device    string `protobuf:"bytes,5,opt,name=device,proto3" json:"device,omitempty"`
}

// NewRCStatus creates RCStatus.
func NewRCStatus(signal ibus.SignalState, stats ibus.Stats, device string) *RCStatus {
	return &RCStatus{
		Active:    signal.IsActive(),
		Frames:    stats.Frames,
		Dropped:   stats.Dropped,
		Discarded: stats.Discarded,
		Device:    device,
	}
}

// NewMessage implements Message.
func (m *RCStatus) NewMessage() Message { return &RCStatus{} }

// TypeID implements Message.
func (m *RCStatus) TypeID() uint32 { return RCStatusTypeID }

// Serializable implements Message.
func (m *RCStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RCStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RCStatus) Reset() { *m = RCStatus{} }

// String implements proto.Message.
func (m *RCStatus) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupRC     uint32 = 0x00030000
	GroupCustom uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	RCChannelsTypeID uint32 = GroupRC | TypeIDKindEvent | 0x0000
	RCStatusTypeID   uint32 = GroupRC | TypeIDKindEvent | 0x0001
)
