// Package transport factors the ClusterCoordinator's inter-process
// communication behind a small abstraction (spec.md §9 "Cluster
// coordination": "factor its internal use behind a small transport
// abstraction with operations {broadcast_host_name, recv_assignments,
// send_offsets, wait_all_done}"), so the coordinator's election and
// partitioning logic can be tested without a real cluster.
package transport

import "context"

// Assignment is what rank 0 sends a host-leader: the shard-naming base
// index and the starting byte offset plus query count for each worker on
// that leader's host (spec.md §4.4 "Query partitioning").
type Assignment struct {
	Base    int
	Offsets []int64
	Counts  []int
}

// Transport is the boundary the ClusterCoordinator talks through. Every
// method blocks until its step of the protocol completes across the
// whole group.
type Transport interface {
	// BroadcastHostName announces this process's hostname to rank 0 and
	// returns this process's rank plus every process's hostname in rank
	// order (spec.md §4.4 "Election and grouping").
	BroadcastHostName(ctx context.Context, hostname string) (rank int, hostNames []string, err error)

	// RecvAssignment blocks until rank 0 has computed and sent this
	// process's Assignment. Non-leader processes never call this; once
	// they learn they are not their host's leader they signal WaitAllDone
	// and exit.
	RecvAssignment(ctx context.Context) (Assignment, error)

	// SendOffsets is called only by rank 0, once per host-leader, to
	// deliver that leader's Assignment.
	SendOffsets(ctx context.Context, rank int, a Assignment) error

	// WaitAllDone blocks, on rank 0, until every other rank has signalled
	// (host-leaders once their alignment is finished, non-leaders right
	// after election); on every other rank it signals completion and
	// returns immediately.
	WaitAllDone(ctx context.Context) error
}
