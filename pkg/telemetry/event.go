package telemetry

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/uartlink/pkg/l0/comm"
)

// Event describes one polling cycle which answered the host.
type Event struct {
	Device    string `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Timestamp int64  `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Status    uint32 `protobuf:"varint,3,opt,name=status,proto3" json:"status,omitempty"`
	Response  string `protobuf:"bytes,4,opt,name=response,proto3" json:"response,omitempty"`
	Available int32  `protobuf:"varint,5,opt,name=available,proto3" json:"available,omitempty"`
	Line      uint32 `protobuf:"varint,6,opt,name=line,proto3" json:"line,omitempty"`
	Cmd       uint32 `protobuf:"varint,7,opt,name=cmd,proto3" json:"cmd,omitempty"`
	Payload   []byte `protobuf:"bytes,8,opt,name=payload,proto3" json:"payload,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *Event) Reset() { *m = Event{} }

// String implements proto.Message.
func (m *Event) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Event) ProtoMessage() {}

// NewEvent creates an Event from a poll result. The payload of a
// verified frame is copied.
func NewEvent(device string, r comm.PollResult, at time.Time) *Event {
	ev := &Event{
		Device:    device,
		Timestamp: at.UnixNano(),
		Status:    uint32(r.Status),
		Available: int32(r.Available.Count),
		Line:      uint32(r.Available.Line),
	}
	if r.Responded {
		ev.Response = r.Response.String()
	}
	if r.Frame != nil {
		ev.Cmd = uint32(r.Frame.Cmd)
		ev.Payload = append([]byte(nil), r.Frame.Payload()...)
	}
	return ev
}

// Time returns the timestamp.
func (m *Event) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Encode encodes the event in protobuf wire format.
func (m *Event) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeEvent decodes an event from protobuf wire format.
func DecodeEvent(b []byte) (*Event, error) {
	ev := &Event{}
	if err := proto.Unmarshal(b, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
