// Command tilealign is the seed-and-extend sequence aligner of spec.md:
// it loads a target database, builds (or loads) a TileIndex over it,
// then runs a pool of workers that each align their own slice of the
// query file and write results to their own output shard.
//
// In a multi-process run, RUNNER -n N is expected to set
// TILEALIGN_RANK/TILEALIGN_WORLD_SIZE (and, for rank>0,
// TILEALIGN_RANK0_ADDR) in every process's environment; a plain
// single-process invocation needs none of these and runs as a
// one-process, one-host cluster of size 1 (spec.md §4.4's election and
// partitioning degenerate correctly at N=1).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"

	"github.com/tilealign/tilealign/align"
	"github.com/tilealign/tilealign/cliopts"
	"github.com/tilealign/tilealign/cluster"
	"github.com/tilealign/tilealign/cluster/transport"
	"github.com/tilealign/tilealign/maskindex"
	"github.com/tilealign/tilealign/outfmt"
	"github.com/tilealign/tilealign/seqio"
	"github.com/tilealign/tilealign/tileindex"
	"github.com/tilealign/tilealign/tlerr"
	"github.com/tilealign/tilealign/worker"
)

func main() {
	o, err := cliopts.Parse(os.Args[1:])
	if err != nil {
		fail(err)
	}
	ctx := vcontext.Background()
	if err := run(ctx, o); err != nil {
		fail(err)
	}
}

// fail reports err and exits with a code selected from the tlerr
// taxonomy (spec.md §7 "every fatal condition is one of a small set of
// named categories"), rather than a single catch-all exit status.
func fail(err error) {
	var cfgErr *tlerr.ConfigError
	var ioErr *tlerr.IOError
	var fmtErr *tlerr.FormatError
	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprintln(os.Stderr, "tilealign:", err)
		os.Exit(2)
	case errors.As(err, &ioErr):
		fmt.Fprintln(os.Stderr, "tilealign:", err)
		os.Exit(3)
	case errors.As(err, &fmtErr):
		fmt.Fprintln(os.Stderr, "tilealign:", err)
		os.Exit(4)
	default:
		fmt.Fprintln(os.Stderr, "tilealign:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o *cliopts.Options) error {
	targets, err := loadDatabase(ctx, o)
	if err != nil {
		return err
	}

	mask, err := buildMask(ctx, o, targets)
	if err != nil {
		return err
	}

	idx := tileindex.New(targets, o.TileIndexParams(), mask)

	if o.MakeOOC != "" {
		return writeOOC(ctx, o, idx)
	}
	if o.OOC != "" {
		tiles, err := loadOOC(ctx, o)
		if err != nil {
			return err
		}
		idx.LoadOOC(tiles)
	}

	tr, hostname, err := buildTransport()
	if err != nil {
		return err
	}

	co := &cluster.Coordinator{Transport: tr, Hostname: hostname, QueryPath: o.Query, OutBase: o.Output}
	assignment, err := co.Join(ctx)
	if err != nil {
		return errors.Wrap(err, "joining cluster")
	}
	if !assignment.IsLeader {
		return nil
	}

	if err := runWorkers(o, idx, targets, mask, assignment); err != nil {
		return err
	}

	// Rank 0 is always its host's leader with shard base 0 (it is always
	// the lowest rank on its own host); every other leader has base > 0.
	// Only rank 0 drives the final merge (spec.md §4.4 "Merge
	// synchronization"), using the cluster-wide worker count it alone
	// learned while partitioning; every other leader signals rank 0
	// through WaitAllDone once its own shards are written.
	if assignment.Base == 0 {
		if err := co.Merge(ctx, assignment.TotalShards); err != nil {
			return err
		}
	} else if err := co.Transport.WaitAllDone(ctx); err != nil {
		return errors.Wrap(err, "signalling alignment done")
	}
	return nil
}

func loadDatabase(ctx context.Context, o *cliopts.Options) ([]*seqio.Sequence, error) {
	f, err := file.Open(ctx, o.Database)
	if err != nil {
		return nil, tlerr.NewIO("opening target database", err)
	}
	defer f.Close(ctx)
	r, err := seqio.MaybeDecompress(f.Reader(ctx), o.Database)
	if err != nil {
		return nil, tlerr.NewIO("decompressing target database", err)
	}
	targetType := seqio.DNA
	if o.TargetType == "prot" || o.TargetType == "dnax" {
		targetType = seqio.Protein
	}
	targets, err := seqio.ReadAll(r, targetType)
	if err != nil {
		return nil, tlerr.NewFormat("reading target database %q: %v", o.Database, err)
	}
	if o.TargetType == "dnax" {
		targets = expandTranslatedTargets(targets)
	}
	log.Printf("tilealign: loaded %d target sequences from %s", len(targets), o.Database)
	return targets, nil
}

// expandTranslatedTargets replaces each DNA target with its six
// single-frame protein translations, each becoming its own target
// record named "<name>:<frame>" (spec.md's -t=dnax: "translate the
// target... in all six frames" and our own decision, recorded in
// DESIGN.md, to key translated-target output rows by frame-qualified
// name rather than by a shared nucleotide coordinate space).
func expandTranslatedTargets(targets []*seqio.Sequence) []*seqio.Sequence {
	var out []*seqio.Sequence
	labels := [6]string{"+1", "+2", "+3", "-1", "-2", "-3"}
	for _, t := range targets {
		frames := align.TranslateSixFrames(t.Bases)
		for i, bases := range frames {
			if len(bases) == 0 {
				continue
			}
			out = append(out, &seqio.Sequence{
				Name:  t.Name + ":" + labels[i],
				Type:  seqio.Protein,
				Bases: bases,
			})
		}
	}
	return out
}

func buildMask(ctx context.Context, o *cliopts.Options, targets []*seqio.Sequence) (*maskindex.Index, error) {
	switch o.Mask {
	case "":
		return nil, nil
	case "lower", "upper":
		for _, t := range targets {
			t.MaskFromCase(o.Mask)
		}
		seqs := make([]maskindex.Sequencer, len(targets))
		for i, t := range targets {
			seqs[i] = t
		}
		return maskindex.BuildFromSequenceMasks(seqs), nil
	case "out":
		return loadRepeatMaskerOut(ctx, o.Database+".out", targets)
	default:
		return loadRepeatMaskerOut(ctx, o.Mask, targets)
	}
}

func loadRepeatMaskerOut(ctx context.Context, path string, targets []*seqio.Sequence) (*maskindex.Index, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, tlerr.NewIO("opening repeat mask file", err)
	}
	defer f.Close(ctx)
	seqIDs := make(map[string]int, len(targets))
	for i, t := range targets {
		seqIDs[t.Name] = i
	}
	return maskindex.BuildFromRepeatMaskerOut(f.Reader(ctx), seqIDs)
}

func writeOOC(ctx context.Context, o *cliopts.Options, idx *tileindex.Index) error {
	f, err := file.Create(ctx, o.MakeOOC)
	if err != nil {
		return tlerr.NewIO("creating ooc file", err)
	}
	defer f.Close(ctx)
	tiles := idx.OverrepresentedTiles()
	if err := tileindex.WriteOOC(f.Writer(ctx), o.TileSize, tiles); err != nil {
		return err
	}
	log.Printf("tilealign: wrote %d over-represented tiles to %s", len(tiles), o.MakeOOC)
	return nil
}

func loadOOC(ctx context.Context, o *cliopts.Options) ([]tileindex.Tile, error) {
	f, err := file.Open(ctx, o.OOC)
	if err != nil {
		return nil, tlerr.NewIO("opening ooc file", err)
	}
	defer f.Close(ctx)
	data, err := io.ReadAll(f.Reader(ctx))
	if err != nil {
		return nil, tlerr.NewIO("reading ooc file", err)
	}
	return tileindex.ReadOOC(data, o.TileSize)
}

// buildTransport selects an InProcess (size 1, the default for a plain
// single-process invocation) or TCP transport based on environment
// variables RUNNER sets for a multi-process launch (spec.md §4.4
// "Election and grouping" assumes some such launcher already exists;
// this tool only needs a Transport, not the launcher itself).
func buildTransport() (transport.Transport, string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	worldSize := 1
	if v := os.Getenv("TILEALIGN_WORLD_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "", tlerr.NewConfig("invalid TILEALIGN_WORLD_SIZE=%q", v)
		}
		worldSize = n
	}
	if worldSize <= 1 {
		return transport.NewInProcess(transport.NewInProcessGroup(1)), hostname, nil
	}

	addr := os.Getenv("TILEALIGN_RANK0_ADDR")
	if addr == "" {
		return nil, "", tlerr.NewConfig("TILEALIGN_WORLD_SIZE=%d requires TILEALIGN_RANK0_ADDR", worldSize)
	}
	rank, err := strconv.Atoi(os.Getenv("TILEALIGN_RANK"))
	if err != nil {
		return nil, "", tlerr.NewConfig("invalid or missing TILEALIGN_RANK")
	}
	if rank == 0 {
		tr, err := transport.ListenTCP(addr, worldSize)
		return tr, hostname, errors.Wrap(err, "listening for peers")
	}
	tr, err := transport.DialTCP(addr)
	return tr, hostname, errors.Wrap(err, "dialing rank 0")
}

func runWorkers(o *cliopts.Options, idx *tileindex.Index, targets []*seqio.Sequence, mask *maskindex.Index, a cluster.LeaderAssignment) error {
	queryType := queryTypeOf(o.QueryType)
	params := o.AlignParams()

	tasks := make([]worker.Task, len(a.Offsets))
	for i := range a.Offsets {
		sink, err := os.Create(a.ShardPaths[i])
		if err != nil {
			return tlerr.NewIO("creating worker output shard", err)
		}
		fmtr, err := outfmt.New(o.Out, sink, o.NoHead)
		if err != nil {
			sink.Close()
			return err
		}
		tasks[i] = worker.Task{
			QueryPath: o.Query,
			QueryType: queryType,
			Offset:    a.Offsets[i],
			Count:     a.Counts[i],
			Index:     idx,
			Targets:   targets,
			Mask:      mask,
			Params:    params,
			Sink:      sink,
			Formatter: fmtr,
		}
	}
	log.Printf("tilealign: running %d workers", len(tasks))
	return worker.NewPool(tasks).Run()
}

// queryTypeOf maps -q's value to the residue alphabet seqio.Reader tags
// each query with. "dnax"/"rnax" read as plain DNA/RNA: the translated-
// search behavior itself is driven entirely by align.Params.
// QueryTranslated (set by cliopts.AlignParams), not by a distinct seqio
// Type, so an RNA-backed translated query still gets MapUToT applied in
// Aligner.prepare.
func queryTypeOf(s string) seqio.Type {
	switch s {
	case "rna", "rnax":
		return seqio.RNA
	case "prot":
		return seqio.Protein
	default:
		return seqio.DNA
	}
}
