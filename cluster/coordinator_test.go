package cluster

import (
	"context"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilealign/tilealign/cluster/transport"
)

func writeQueryFile(t *testing.T, n int) string {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(">r")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("\nACGT\n")
	}
	f, err := ioutil.TempFile("", "tilealign-cluster-*.fa")
	require.NoError(t, err)
	_, err = f.WriteString(sb.String())
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestJoinPartitionsQueriesAcrossSingleHostWorkers(t *testing.T) {
	queryPath := writeQueryFile(t, 1000)
	group := transport.NewInProcessGroup(2)

	var wg sync.WaitGroup
	results := make([]LeaderAssignment, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			co := &Coordinator{Transport: transport.NewInProcess(group), Hostname: "h1", QueryPath: queryPath, OutBase: "OUT"}
			results[i], errs[i] = co.Join(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
	}
	// Both ranks are on the same host, so only rank 0 (the lowest rank)
	// is the leader; the other process's Join must report non-leader.
	leaderCount := 0
	var leaderResult LeaderAssignment
	for _, r := range results {
		if r.IsLeader {
			leaderCount++
			leaderResult = r
		}
	}
	assert.Equal(t, 1, leaderCount)
	total := 0
	for _, c := range leaderResult.Counts {
		total += c
	}
	assert.Equal(t, 1000, total)
}

func TestJoinElectsOneLeaderPerHost(t *testing.T) {
	group := transport.NewInProcessGroup(3)
	hosts := []string{"hostA", "hostA", "hostB"}
	queryPath := writeQueryFile(t, 9)

	var wg sync.WaitGroup
	results := make([]LeaderAssignment, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			co := &Coordinator{Transport: transport.NewInProcess(group), Hostname: hosts[i], QueryPath: queryPath, OutBase: "OUT"}
			results[i], _ = co.Join(context.Background())
		}(i)
	}
	wg.Wait()

	leaders := 0
	for _, r := range results {
		if r.IsLeader {
			leaders++
		}
	}
	assert.Equal(t, 2, leaders)
}

func TestMergeConcatenatesShardsByteExact(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWD) })

	require.NoError(t, ioutil.WriteFile("OUT.tmp.0", []byte("shard0\n"), 0644))
	require.NoError(t, ioutil.WriteFile("OUT.tmp.1", []byte("shard1\n"), 0644))

	group := transport.NewInProcessGroup(1)
	co := &Coordinator{Transport: transport.NewInProcess(group), OutBase: "OUT"}
	require.NoError(t, co.Merge(context.Background(), 2))

	data, err := ioutil.ReadFile("OUT")
	require.NoError(t, err)
	assert.Equal(t, "shard0\nshard1\n", string(data))
}
