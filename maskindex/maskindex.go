// Package maskindex is the repeat-mask interval index consulted during
// TileIndex construction and Aligner seeding (spec.md §4.1 §4.2, option
// -mask=FILE). It stores RepeatMasker-style [start,end) intervals per
// target sequence in a left-leaning red-black tree and answers "is position p
// masked" queries.
//
// Grounded on github.com/biogo/store/llrb (already a teacher dependency,
// used the same way — Comparable keys plus Floor lookups — in
// encoding/bampair/shard_info.go and cmd/bio-bam-sort/sorter/sort.go).
package maskindex

import "github.com/biogo/store/llrb"

// interval is one masked [Start, End) range on a given sequence, used as
// an llrb.Comparable key ordered by (seqID, Start).
type interval struct {
	seqID      int
	start, end int
	// divergence is the RepeatMasker % divergence column, consulted by
	// -minRepDivergence to selectively unmask highly-diverged repeats.
	divergence float64
}

func (k interval) Compare(c llrb.Comparable) int {
	o := c.(interval)
	if diff := k.seqID - o.seqID; diff != 0 {
		return diff
	}
	return k.start - o.start
}

// Index is an immutable-after-Build repeat-mask interval index over one
// target database. It is read-shared by every worker exactly like
// TileIndex (spec.md §5 "Shared resources").
//
// Repeat tracks are ordinarily non-overlapping on one sequence, so a
// single Floor lookup (find the nearest interval starting at or before
// pos, then check it still covers pos) is enough; it is the same
// "predecessor lookup" idiom cmd/bio-bam-sort/sorter/sort.go uses to find
// the shard containing a coordinate.
type Index struct {
	tree llrb.Tree
}

// Builder accumulates intervals before a single Build() call produces an
// immutable Index, mirroring TileIndex's construct-once-then-share
// lifecycle (spec.md §3 "Lifecycles").
type Builder struct {
	idx Index
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Add records one masked interval [start, end) on sequence seqID.
func (b *Builder) Add(seqID, start, end int, divergencePct float64) {
	if end <= start {
		return
	}
	b.idx.tree.Insert(interval{seqID: seqID, start: start, end: end, divergence: divergencePct})
}

// Build finalizes the index. The returned Index must not be mutated
// further; all lookups are thread-safe reads of the underlying llrb.Tree.
func (b *Builder) Build() *Index {
	return &b.idx
}

// IsMasked reports whether position pos on seqID falls inside a recorded
// repeat interval whose divergence is below minDivergencePct. A repeat at
// least that diverged is unmasked (spec.md -minRepDivergence "Unmask
// repeats at least this divergent"). A minDivergencePct of 0 or less
// unmasks nothing: every recorded repeat stays masked.
func (idx *Index) IsMasked(seqID, pos int, minDivergencePct float64) bool {
	if idx == nil {
		return false
	}
	c := idx.tree.Floor(interval{seqID: seqID, start: pos, end: pos})
	if c == nil {
		return false
	}
	iv := c.(interval)
	if iv.seqID != seqID || iv.start > pos || pos >= iv.end {
		return false
	}
	return minDivergencePct <= 0 || iv.divergence < minDivergencePct
}

// AnyMasked reports whether any position in [start,end) on seqID is
// masked, the check the Aligner's seeding stage uses to skip a whole tile
// window (spec.md §4.2 "Skip windows whose query side overlaps a masked
// region").
func (idx *Index) AnyMasked(seqID, start, end int, minDivergencePct float64) bool {
	for p := start; p < end; p++ {
		if idx.IsMasked(seqID, p, minDivergencePct) {
			return true
		}
	}
	return false
}
