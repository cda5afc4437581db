package align

import (
	"github.com/tilealign/tilealign/maskindex"
	"github.com/tilealign/tilealign/tileindex"
)

// Seed is one exact (or one-off) tile hit between a query window and a
// target occurrence (spec.md §4.2 stage 2 "Emit (queryPos, targetSeqId,
// targetPos) seeds").
type Seed struct {
	QueryPos    int
	TargetSeqID int32
	TargetPos   int32
}

// findSeeds slides a tileSize window across query at step 1 (spec.md:
// "step 1" is fixed regardless of the index's own stepSize, which only
// governs how the target was indexed) and looks each window up in idx,
// skipping windows whose query side overlaps a masked region.
func findSeeds(query []byte, idx *tileindex.Index, qMask *maskindex.Index, tileSize int, isProtein bool, minRepDivergence float64) []Seed {
	var seeds []Seed
	if len(query) < tileSize {
		return nil
	}
	for pos := 0; pos+tileSize <= len(query); pos++ {
		if qMask != nil && qMask.AnyMasked(0, pos, pos+tileSize, minRepDivergence) {
			continue
		}
		tile := tileindex.EncodeWindow(query, pos, tileSize, isProtein)
		if tile == tileindex.InvalidTile {
			continue
		}
		for _, occ := range idx.Lookup(tile) {
			seeds = append(seeds, Seed{QueryPos: pos, TargetSeqID: occ.SeqID, TargetPos: occ.Pos})
		}
	}
	return seeds
}
