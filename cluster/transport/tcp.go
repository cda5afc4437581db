package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

// TCP is a rank-0-as-server Transport: rank 0 listens and every other
// rank dials in, matching spec.md §9's instruction to "keep that
// protocol contract at the boundary" while swapping the source's
// message-passing library for something this repo can stand up in a
// test without a real cluster scheduler.
type TCP struct {
	rank  int
	ln    net.Listener // rank 0 only
	peers []net.Conn   // rank 0 only: peers[i] is the connection to rank i+1
	conn  net.Conn     // non-zero rank only: the connection to rank 0
}

// ListenTCP is called by rank 0. worldSize is the total process count;
// ListenTCP blocks until worldSize-1 peers have connected.
func ListenTCP(addr string, worldSize int) (*TCP, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "transport: listen")
	}
	t := &TCP{rank: 0, ln: ln}
	for i := 0; i < worldSize-1; i++ {
		conn, err := ln.Accept()
		if err != nil {
			return nil, errors.Wrap(err, "transport: accept")
		}
		t.peers = append(t.peers, conn)
	}
	return t, nil
}

// DialTCP is called by every non-zero rank to connect to rank 0's
// ListenTCP address.
func DialTCP(addr string) (*TCP, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "transport: dial")
	}
	return &TCP{rank: -1, conn: conn}, nil // rank is unknown until BroadcastHostName
}

func writeMsg(w io.Writer, m proto.Message) error {
	data, err := proto.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "transport: marshal")
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "transport: write length")
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "transport: write body")
}

func readMsg(r io.Reader, m proto.Message) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return errors.Wrap(err, "transport: read length")
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return errors.Wrap(err, "transport: read body")
	}
	return errors.Wrap(proto.Unmarshal(data, m), "transport: unmarshal")
}

func (t *TCP) BroadcastHostName(ctx context.Context, hostname string) (int, []string, error) {
	if t.rank == 0 {
		roster := make([]string, len(t.peers)+1)
		roster[0] = hostname
		for i, conn := range t.peers {
			var m hostAnnounceMsg
			if err := readMsg(conn, &m); err != nil {
				return 0, nil, err
			}
			roster[i+1] = m.Hostname
		}
		for i, conn := range t.peers {
			if err := writeMsg(conn, &hostRosterMsg{Rank: int32(i + 1), HostNames: roster}); err != nil {
				return 0, nil, err
			}
		}
		return 0, roster, nil
	}

	if err := writeMsg(t.conn, &hostAnnounceMsg{Hostname: hostname}); err != nil {
		return 0, nil, err
	}
	var reply hostRosterMsg
	if err := readMsg(t.conn, &reply); err != nil {
		return 0, nil, err
	}
	t.rank = int(reply.Rank)
	return t.rank, reply.HostNames, nil
}

func (t *TCP) RecvAssignment(ctx context.Context) (Assignment, error) {
	var m assignmentMsg
	if err := readMsg(t.conn, &m); err != nil {
		return Assignment{}, err
	}
	return fromWireAssignment(&m), nil
}

func (t *TCP) SendOffsets(ctx context.Context, rank int, a Assignment) error {
	if t.rank != 0 {
		return errors.New("transport: SendOffsets must be called by rank 0")
	}
	return writeMsg(t.peers[rank-1], toWireAssignment(a))
}

func (t *TCP) WaitAllDone(ctx context.Context) error {
	if t.rank != 0 {
		return writeMsg(t.conn, &doneMsg{Rank: int32(t.rank)})
	}
	for _, conn := range t.peers {
		var m doneMsg
		if err := readMsg(conn, &m); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the listener (rank 0) or connection (other ranks).
func (t *TCP) Close() error {
	if t.ln != nil {
		return t.ln.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
