package tileindex

import (
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/log"
	"github.com/tilealign/tilealign/maskindex"
	"github.com/tilealign/tilealign/seqio"
)

const nShards = 256

// Occurrence is one (targetSeqId, offset) hit recorded for a tile value
// (spec.md §3 "Tile").
type Occurrence struct {
	SeqID int32
	Pos   int32
}

// Params configures TileIndex construction (spec.md §4.1).
type Params struct {
	TileSize  int
	StepSize  int
	RepMatch  int
	OneOff    bool
	IsProtein bool
	// MinRepDivergence gates which masked positions still suppress
	// seeding (-minRepDivergence).
	MinRepDivergence float64
}

func (p Params) effectiveStep() int {
	if p.StepSize <= 0 {
		return p.TileSize
	}
	return p.StepSize
}

// shard holds the tile→occurrences table for one hash bucket. Unlike the
// teacher's kmer_index.go, which hand-lays the table out in mmap'd memory
// behind unsafe.Pointer to shave allocator/GC overhead for a
// many-billion-kmer gene index, targets here are orders of magnitude
// smaller and the plain-map representation keeps the construction and
// lookup code auditable; see DESIGN.md.
type shard struct {
	table map[Tile][]Occurrence
}

// Index is the immutable, shared-read k-mer index over one target
// (spec.md §4.1 "TileIndex"). All exported methods are safe for
// concurrent use by every worker thread without external locking.
type Index struct {
	params     Params
	shards     [nShards]shard
	overrep    map[Tile]bool // tiles suppressed because count>RepMatch or ooc-listed
	oocPending map[Tile]bool // not populated; -makeOoc uses OverrepresentedTiles
	mask       *maskindex.Index
}

func shardFor(t Tile) int {
	return int(farm.Hash64WithSeed(nil, uint64(t)) & (nShards - 1))
}

// New builds a TileIndex over targets. mask may be nil if no repeat-mask
// file was supplied (spec.md -mask).
func New(targets []*seqio.Sequence, params Params, mask *maskindex.Index) *Index {
	idx := &Index{params: params, mask: mask, overrep: map[Tile]bool{}}
	for s := range idx.shards {
		idx.shards[s].table = map[Tile][]Occurrence{}
	}
	step := params.effectiveStep()
	for seqID, seq := range targets {
		km := NewKmerizer(seq.Bases, params.TileSize, step, params.IsProtein)
		for km.Scan() {
			tile, pos := km.Get()
			if tile == InvalidTile {
				continue
			}
			if mask != nil && mask.AnyMasked(seqID, pos, pos+params.TileSize, params.MinRepDivergence) {
				continue
			}
			sh := &idx.shards[shardFor(tile)]
			sh.table[tile] = append(sh.table[tile], Occurrence{SeqID: int32(seqID), Pos: int32(pos)})
		}
	}
	idx.finalize()
	log.Printf("tileindex: built index over %d sequences, tileSize=%d, step=%d, %d over-represented tiles suppressed",
		len(targets), params.TileSize, step, len(idx.overrep))
	return idx
}

// finalize sorts every occurrence list and marks/clears over-represented
// tiles per spec.md's invariant ("any tile whose occurrence count exceeds
// repMatch is either discarded or added to ooc").
func (idx *Index) finalize() {
	for s := range idx.shards {
		for tile, occs := range idx.shards[s].table {
			sort.Slice(occs, func(i, j int) bool {
				if occs[i].SeqID != occs[j].SeqID {
					return occs[i].SeqID < occs[j].SeqID
				}
				return occs[i].Pos < occs[j].Pos
			})
			idx.shards[s].table[tile] = occs
			if idx.params.RepMatch > 0 && len(occs) > idx.params.RepMatch {
				idx.overrep[tile] = true
				delete(idx.shards[s].table, tile)
			}
		}
	}
}

// LoadOOC marks every tile in tiles as over-represented, implementing
// spec.md's -ooc=PATH ("Load over-represented tile list from file").
// Must be called before any Lookup.
func (idx *Index) LoadOOC(tiles []Tile) {
	for _, t := range tiles {
		idx.overrep[t] = true
		for s := range idx.shards {
			delete(idx.shards[s].table, t)
		}
	}
}

// OverrepresentedTiles returns every tile whose occurrence count exceeded
// RepMatch, for -makeOoc=PATH to persist (spec.md "ooc construction
// mode"). The order is by numeric tile value, so the written file is
// deterministic.
func (idx *Index) OverrepresentedTiles() []Tile {
	out := make([]Tile, 0, len(idx.overrep))
	for t := range idx.overrep {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the occurrences for tile, plus (when OneOff is set) the
// occurrences of every tile differing from it at exactly one position.
// Over-represented tiles (exact or one-off) contribute no occurrences
// (spec.md "Over-represented tiles yield no seeds during lookup").
func (idx *Index) Lookup(tile Tile) []Occurrence {
	if tile == InvalidTile {
		return nil
	}
	var out []Occurrence
	out = idx.appendLookup(out, tile)
	if idx.params.OneOff {
		for _, variant := range idx.oneOffVariants(tile) {
			out = idx.appendLookup(out, variant)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeqID != out[j].SeqID {
			return out[i].SeqID < out[j].SeqID
		}
		return out[i].Pos < out[j].Pos
	})
	return dedupOccurrences(out)
}

func (idx *Index) appendLookup(out []Occurrence, tile Tile) []Occurrence {
	if idx.overrep[tile] {
		return out
	}
	sh := &idx.shards[shardFor(tile)]
	return append(out, sh.table[tile]...)
}

// oneOffVariants enumerates every tile differing from tile at exactly one
// position, in ascending numeric order (spec.md "tie-break by lexical
// value of the tile to make lookups deterministic").
func (idx *Index) oneOffVariants(tile Tile) []Tile {
	bits, _ := bitsFor(idx.params.IsProtein)
	alphaSize := AlphabetSize(idx.params.IsProtein)
	var variants []Tile
	for pos := 0; pos < idx.params.TileSize; pos++ {
		shift := bits * uint(pos)
		original := (tile >> shift) & ((1 << bits) - 1)
		for c := Tile(0); int(c) < alphaSize; c++ {
			if c == original {
				continue
			}
			variant := (tile &^ (((Tile(1) << bits) - 1) << shift)) | (c << shift)
			variants = append(variants, variant)
		}
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
	return variants
}

func dedupOccurrences(occs []Occurrence) []Occurrence {
	if len(occs) == 0 {
		return occs
	}
	n := 1
	for i := 1; i < len(occs); i++ {
		if occs[i] != occs[n-1] {
			occs[n] = occs[i]
			n++
		}
	}
	return occs[:n]
}

// Params returns the parameters this index was built with.
func (idx *Index) Params() Params { return idx.params }
