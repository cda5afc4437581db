package transport

import "github.com/gogo/protobuf/proto"

// The wire messages below are plain tagged Go structs marshaled with
// gogo/protobuf's reflection-based proto.Marshal/Unmarshal (already a
// teacher dependency) rather than protoc-generated code, since no
// .proto/protoc toolchain is assumed to be available; see DESIGN.md.

// hostAnnounceMsg is sent by every process to rank 0 during election.
type hostAnnounceMsg struct {
	Hostname string `protobuf:"bytes,1,opt,name=hostname,proto3" json:"hostname,omitempty"`
}

func (m *hostAnnounceMsg) Reset()         { *m = hostAnnounceMsg{} }
func (m *hostAnnounceMsg) String() string { return proto.CompactTextString(m) }
func (*hostAnnounceMsg) ProtoMessage()    {}

// hostRosterMsg is rank 0's reply: this process's rank and the full
// hostname roster in rank order.
type hostRosterMsg struct {
	Rank      int32    `protobuf:"varint,1,opt,name=rank,proto3" json:"rank,omitempty"`
	HostNames []string `protobuf:"bytes,2,rep,name=host_names,json=hostNames,proto3" json:"host_names,omitempty"`
}

func (m *hostRosterMsg) Reset()         { *m = hostRosterMsg{} }
func (m *hostRosterMsg) String() string { return proto.CompactTextString(m) }
func (*hostRosterMsg) ProtoMessage()    {}

// assignmentMsg is the wire form of Assignment.
type assignmentMsg struct {
	Base    int32   `protobuf:"varint,1,opt,name=base,proto3" json:"base,omitempty"`
	Offsets []int64 `protobuf:"varint,2,rep,packed,name=offsets,proto3" json:"offsets,omitempty"`
	Counts  []int32 `protobuf:"varint,3,rep,packed,name=counts,proto3" json:"counts,omitempty"`
}

func (m *assignmentMsg) Reset()         { *m = assignmentMsg{} }
func (m *assignmentMsg) String() string { return proto.CompactTextString(m) }
func (*assignmentMsg) ProtoMessage()    {}

func toWireAssignment(a Assignment) *assignmentMsg {
	counts := make([]int32, len(a.Counts))
	for i, c := range a.Counts {
		counts[i] = int32(c)
	}
	return &assignmentMsg{Base: int32(a.Base), Offsets: append([]int64{}, a.Offsets...), Counts: counts}
}

func fromWireAssignment(m *assignmentMsg) Assignment {
	counts := make([]int, len(m.Counts))
	for i, c := range m.Counts {
		counts[i] = int(c)
	}
	return Assignment{Base: int(m.Base), Offsets: append([]int64{}, m.Offsets...), Counts: counts}
}

// doneMsg signals WaitAllDone completion from a non-zero rank.
type doneMsg struct {
	Rank int32 `protobuf:"varint,1,opt,name=rank,proto3" json:"rank,omitempty"`
}

func (m *doneMsg) Reset()         { *m = doneMsg{} }
func (m *doneMsg) String() string { return proto.CompactTextString(m) }
func (*doneMsg) ProtoMessage()    {}
