package transport

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// InProcessGroup is the shared rendezvous point for a set of InProcess
// transports standing in for a cluster of N processes running as
// goroutines in one binary — used by the coordinator's own tests and, as
// a group of size 1, by plain single-process runs.
type InProcessGroup struct {
	mu          sync.Mutex
	cond        *sync.Cond
	size        int
	nextRank    int            // next rank to hand out from NewInProcess
	hostnames   map[int]string // rank -> hostname, filled as each joins
	roster      []string       // computed once all have joined
	assignments map[int]Assignment
	assigned    map[int]bool
	doneCount   int
}

// NewInProcessGroup creates a rendezvous for exactly size participants.
func NewInProcessGroup(size int) *InProcessGroup {
	g := &InProcessGroup{
		size:        size,
		hostnames:   map[int]string{},
		assignments: map[int]Assignment{},
		assigned:    map[int]bool{},
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// InProcess is one participant's view of an InProcessGroup.
type InProcess struct {
	group *InProcessGroup
	rank  int
}

// NewInProcess joins group, claiming the next unused rank in call order.
// Rank assignment happens here, synchronously, rather than in
// BroadcastHostName, so callers can rely on rank == construction order
// even though BroadcastHostName itself may run later and concurrently.
func NewInProcess(group *InProcessGroup) *InProcess {
	group.mu.Lock()
	rank := group.nextRank
	group.nextRank++
	group.mu.Unlock()
	return &InProcess{group: group, rank: rank}
}

func (t *InProcess) BroadcastHostName(ctx context.Context, hostname string) (int, []string, error) {
	g := t.group
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hostnames[t.rank] = hostname
	g.cond.Broadcast()
	for len(g.hostnames) < g.size {
		g.cond.Wait()
	}
	if g.roster == nil {
		g.roster = make([]string, g.size)
		for r, h := range g.hostnames {
			g.roster[r] = h
		}
	}
	return t.rank, append([]string{}, g.roster...), nil
}

func (t *InProcess) RecvAssignment(ctx context.Context) (Assignment, error) {
	g := t.group
	g.mu.Lock()
	defer g.mu.Unlock()
	for !g.assigned[t.rank] {
		g.cond.Wait()
	}
	return g.assignments[t.rank], nil
}

func (t *InProcess) SendOffsets(ctx context.Context, rank int, a Assignment) error {
	if t.rank != 0 {
		return errors.New("SendOffsets must be called by rank 0")
	}
	g := t.group
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assignments[rank] = a
	g.assigned[rank] = true
	g.cond.Broadcast()
	return nil
}

func (t *InProcess) WaitAllDone(ctx context.Context) error {
	g := t.group
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.rank != 0 {
		g.doneCount++
		g.cond.Broadcast()
		return nil
	}
	for g.doneCount < g.size-1 {
		g.cond.Wait()
	}
	return nil
}
