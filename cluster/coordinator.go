// Package cluster implements the ClusterCoordinator of spec.md §4.4: host
// election, query-file partitioning across host-leaders, and the final
// shard-concatenation merge.
package cluster

import (
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/tilealign/tilealign/cluster/transport"
	"github.com/tilealign/tilealign/seqio"
	"github.com/tilealign/tilealign/tlerr"
)

// PollConfig bounds the rank-0 shard-existence poll (spec.md §9 "Open
// questions... implementers should consider a bounded retry with
// explicit failure escalation", resolving the source's unbounded retry).
type PollConfig struct {
	Interval time.Duration
	Deadline time.Duration
}

// DefaultPollConfig matches spec.md §4.4's "sleep briefly and retry"
// description with an explicit ceiling the source never had.
var DefaultPollConfig = PollConfig{Interval: 50 * time.Millisecond, Deadline: 5 * time.Minute}

// Coordinator runs one process's share of spec.md §4.4.
type Coordinator struct {
	Transport transport.Transport
	Hostname  string
	QueryPath string
	OutBase   string // the final output path, e.g. "OUT"
	Poll      PollConfig
}

// LeaderAssignment is what Run returns to a host-leader: the shard base
// index and this leader's own worker offsets/counts, ready to hand to
// worker.Pool.
type LeaderAssignment struct {
	IsLeader bool
	Base     int
	Offsets  []int64
	Counts   []int
	// ShardPaths holds OUT.tmp.(base+i) for i in range(len(Offsets)) — the
	// shards this leader's own workers will write. The prefix is the
	// literal "OUT.tmp." in the working directory whatever OutBase is;
	// only the merged output takes OutBase's name.
	ShardPaths []string
	// TotalShards is the total worker count across the whole cluster,
	// meaningful only for rank 0 (Base==0): it is what rank 0 must pass to
	// Merge once every leader's workers have finished.
	TotalShards int
}

// Join runs election (spec.md "Election and grouping"): every process
// announces its hostname; rank 0 groups by host and computes, for each
// host, the lowest rank as leader and the per-host peer count as that
// leader's thread count. Non-leaders return IsLeader=false and must exit
// after cooperative teardown; Join itself performs the teardown by
// signalling rank 0 through WaitAllDone (there is nothing more for a
// non-leader to do).
func (c *Coordinator) Join(ctx context.Context) (LeaderAssignment, error) {
	rank, hostNames, err := c.Transport.BroadcastHostName(ctx, c.Hostname)
	if err != nil {
		return LeaderAssignment{}, errors.Wrap(err, "cluster: election")
	}

	isLeader, base, threads := deriveLeadership(rank, hostNames)
	if !isLeader {
		if err := c.Transport.WaitAllDone(ctx); err != nil {
			return LeaderAssignment{}, errors.Wrap(err, "cluster: non-leader teardown")
		}
		return LeaderAssignment{IsLeader: false}, nil
	}

	if rank == 0 {
		return c.partitionAsRank0(ctx, hostNames, base, threads)
	}
	a, err := c.Transport.RecvAssignment(ctx)
	if err != nil {
		return LeaderAssignment{}, errors.Wrap(err, "cluster: recv assignment")
	}
	return toLeaderAssignment(a), nil
}

// deriveLeadership implements "rank 0 groups processes by host and
// designates the lowest-ranked process in each host as that host's
// leader... Each leader is told the number of peer processes on its
// host, which becomes its threads count, and a base index used to name
// output shards" (spec.md §4.4). base is the sum of peer counts of every
// host whose lowest rank is smaller than this leader's rank, so shard
// indices across all leaders are contiguous and non-overlapping.
func deriveLeadership(rank int, hostNames []string) (isLeader bool, base, threads int) {
	firstRankOfHost := map[string]int{}
	peersPerHost := map[string]int{}
	for r, h := range hostNames {
		peersPerHost[h]++
		if _, ok := firstRankOfHost[h]; !ok || r < firstRankOfHost[h] {
			firstRankOfHost[h] = r
		}
	}
	myHost := hostNames[rank]
	if firstRankOfHost[myHost] != rank {
		return false, 0, 0
	}
	// base = total peer count of every host whose leader rank is lower.
	for h, leaderRank := range firstRankOfHost {
		if leaderRank < rank {
			base += peersPerHost[h]
		}
	}
	return true, base, peersPerHost[myHost]
}

// partitionAsRank0 implements spec.md §4.4 "Query partitioning": count
// total queries, compute per-worker count, re-scan for shard-start
// offsets aligned to FASTA record boundaries, and send each host-leader
// its slice of offsets/counts.
func (c *Coordinator) partitionAsRank0(ctx context.Context, hostNames []string, myBase, myThreads int) (LeaderAssignment, error) {
	f, err := os.Open(c.QueryPath)
	if err != nil {
		return LeaderAssignment{}, tlerr.NewIO("opening query file for partitioning", err)
	}
	defer f.Close()
	offsets, err := seqio.RecordOffsets(f)
	if err != nil {
		return LeaderAssignment{}, tlerr.NewFormat("scanning query file record boundaries: %v", err)
	}
	total := len(offsets)

	leaders := leaderOrder(hostNames)
	numWorkers := 0
	for _, l := range leaders {
		numWorkers += l.threads
	}
	if numWorkers == 0 {
		return LeaderAssignment{}, tlerr.NewConfig("cluster: no worker processes announced")
	}
	per := ceilDiv(total, numWorkers)

	// Slice offsets into contiguous runs of `per` records per worker,
	// across the whole cluster in rank order, then hand each leader its
	// own contiguous sub-slice.
	var allOffsets []int64
	var allCounts []int
	for start := 0; start < total; start += per {
		count := per
		if start+count > total {
			count = total - start
		}
		allOffsets = append(allOffsets, offsets[start])
		allCounts = append(allCounts, count)
	}
	for len(allOffsets) < numWorkers {
		// Fewer records than worker slots: remaining workers get an empty
		// range starting at end-of-file.
		allOffsets = append(allOffsets, fileSize(c.QueryPath))
		allCounts = append(allCounts, 0)
	}

	var mine LeaderAssignment
	idx := 0
	for _, l := range leaders {
		a := transport.Assignment{Base: idx, Offsets: allOffsets[idx : idx+l.threads], Counts: allCounts[idx : idx+l.threads]}
		if l.rank == 0 {
			mine = toLeaderAssignment(a)
			mine.IsLeader = true
			mine.TotalShards = numWorkers
		} else {
			if err := c.Transport.SendOffsets(ctx, l.rank, a); err != nil {
				return LeaderAssignment{}, errors.Wrap(err, "cluster: send offsets")
			}
		}
		idx += l.threads
	}
	log.Printf("cluster: partitioned %d queries across %d workers on %d hosts, per=%d", total, numWorkers, len(leaders), per)
	return mine, nil
}

type leaderInfo struct {
	rank, threads int
}

func leaderOrder(hostNames []string) []leaderInfo {
	firstRankOfHost := map[string]int{}
	peersPerHost := map[string]int{}
	for r, h := range hostNames {
		peersPerHost[h]++
		if _, ok := firstRankOfHost[h]; !ok || r < firstRankOfHost[h] {
			firstRankOfHost[h] = r
		}
	}
	var leaders []leaderInfo
	for h, r := range firstRankOfHost {
		leaders = append(leaders, leaderInfo{rank: r, threads: peersPerHost[h]})
	}
	// Sort by rank so shard base indices come out contiguous and
	// deterministic.
	for i := 1; i < len(leaders); i++ {
		for j := i; j > 0 && leaders[j].rank < leaders[j-1].rank; j-- {
			leaders[j], leaders[j-1] = leaders[j-1], leaders[j]
		}
	}
	return leaders
}

func toLeaderAssignment(a transport.Assignment) LeaderAssignment {
	paths := make([]string, len(a.Offsets))
	for i := range paths {
		paths[i] = shardTmpName(a.Base + i)
	}
	return LeaderAssignment{Base: a.Base, Offsets: a.Offsets, Counts: a.Counts, ShardPaths: paths}
}

// shardTmpName names shard i with the fixed prefix "OUT.tmp.", relative
// to the working directory and independent of Coordinator.OutBase.
func shardTmpName(i int) string { return "OUT.tmp." + strconv.Itoa(i) }

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// Merge implements spec.md §4.4 "Output layout"/"Merge synchronization":
// rename shard 0 to the final output, rename every other shard to
// OUT.i, then append each in rank order and delete it. Only rank 0
// calls Merge; it first calls WaitAllDone so every leader's shards are
// guaranteed to exist once the poll below starts succeeding.
func (c *Coordinator) Merge(ctx context.Context, numShards int) error {
	if err := c.Transport.WaitAllDone(ctx); err != nil {
		return errors.Wrap(err, "cluster: wait all done")
	}
	if numShards == 0 {
		return nil
	}
	if err := c.pollForShard(shardTmpName(0)); err != nil {
		return err
	}
	if err := os.Rename(shardTmpName(0), c.OutBase); err != nil {
		return tlerr.NewIO("renaming shard 0 to final output", err)
	}

	out, err := os.OpenFile(c.OutBase, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return tlerr.NewIO("reopening final output for append", err)
	}
	defer out.Close()

	for i := 1; i < numShards; i++ {
		tmp := shardTmpName(i)
		if err := c.pollForShard(tmp); err != nil {
			return err
		}
		finalShardPath := c.OutBase + "." + strconv.Itoa(i)
		if err := os.Rename(tmp, finalShardPath); err != nil {
			return tlerr.NewIO("renaming shard", err)
		}
		if err := appendFile(out, finalShardPath); err != nil {
			return err
		}
		if err := os.Remove(finalShardPath); err != nil {
			return tlerr.NewIO("removing merged shard", err)
		}
	}
	log.Printf("cluster: merged %d shards into %s", numShards, c.OutBase)
	return nil
}

func appendFile(dst *os.File, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return tlerr.NewIO("opening shard for merge", err)
	}
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return tlerr.NewIO("appending shard to final output", err)
	}
	return nil
}

// pollForShard implements the bounded-retry resolution of spec.md §9's
// open question about the source's unbounded shard-wait.
func (c *Coordinator) pollForShard(path string) error {
	poll := c.Poll
	if poll.Interval == 0 {
		poll = DefaultPollConfig
	}
	deadline := time.Now().Add(poll.Deadline)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return tlerr.NewIO("waiting for shard "+path, errors.New("deadline exceeded"))
		}
		time.Sleep(poll.Interval)
	}
}
