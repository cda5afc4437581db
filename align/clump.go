package align

import (
	"sort"

	"blainsmith.com/go/seahash"
)

// Clump is a colinear cluster of seeds on nearby diagonals between one
// query and one target sequence (spec.md §3 "Clump").
type Clump struct {
	TargetSeqID int32
	Seeds       []Seed
	QMin, QMax  int
	TMin, TMax  int32
}

// diagonal is targetPos - queryPos; seeds on the same or a nearby
// diagonal are candidates for the same gapped alignment.
func diagonal(s Seed) int64 { return int64(s.TargetPos) - int64(s.QueryPos) }

func diagonalBucketKey(bucket int64) uint64 {
	var b [8]byte
	u := uint64(bucket)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
	return seahash.Sum64(b[:])
}

// clumpSeeds groups seeds by targetSeqID and nearby diagonal, discarding
// clumps with fewer than minMatch seeds (spec.md §4.2 stage 3
// "Clumping").
//
// Seeds are first coarsely bucketed by diagonal/maxGap, keyed by a
// seahash of the bucket index (blainsmith.com/go/seahash, a direct
// teacher dependency) rather than the raw int64 bucket, so that
// processing order is stable across runs without depending on Go's
// randomized map iteration order landing on the bucket's numeric
// magnitude or sign — the alignment output must come out in the same
// order for the same input regardless of runtime map seeding. A
// bucket's immediate neighbors are always merged back in before
// chaining so a clump straddling a bucket boundary is never split.
func clumpSeeds(seeds []Seed, minMatch, maxGap int) []Clump {
	if maxGap < 1 {
		maxGap = 1
	}
	byTarget := map[int32][]Seed{}
	for _, s := range seeds {
		byTarget[s.TargetSeqID] = append(byTarget[s.TargetSeqID], s)
	}

	targetSeqIDs := make([]int32, 0, len(byTarget))
	for targetSeqID := range byTarget {
		targetSeqIDs = append(targetSeqIDs, targetSeqID)
	}
	sort.Slice(targetSeqIDs, func(i, j int) bool { return targetSeqIDs[i] < targetSeqIDs[j] })

	var clumps []Clump
	for _, targetSeqID := range targetSeqIDs {
		group := byTarget[targetSeqID]
		buckets := map[int64][]Seed{}
		for _, s := range group {
			bucket := diagonal(s) / int64(maxGap)
			buckets[bucket] = append(buckets[bucket], s)
		}
		bucketKeys := make([]int64, 0, len(buckets))
		for bucket := range buckets {
			bucketKeys = append(bucketKeys, bucket)
		}
		sort.Slice(bucketKeys, func(i, j int) bool {
			ki, kj := diagonalBucketKey(bucketKeys[i]), diagonalBucketKey(bucketKeys[j])
			if ki != kj {
				return ki < kj
			}
			return bucketKeys[i] < bucketKeys[j]
		})
		var perTarget []Clump
		for _, bucket := range bucketKeys {
			merged := append([]Seed{}, buckets[bucket-1]...)
			merged = append(merged, buckets[bucket]...)
			merged = append(merged, buckets[bucket+1]...)
			perTarget = append(perTarget, chainDiagonal(targetSeqID, merged, minMatch, maxGap)...)
		}
		clumps = append(clumps, dedupClumps(perTarget)...)
	}
	return clumps
}

// chainDiagonal sorts candidate seeds by (diagonal, queryPos) and splits
// them into runs in which consecutive seeds differ in diagonal by at most
// maxGap and query position never decreases — the "colinear... bounded
// diagonal drift" rule of spec.md §3 "Clump". The query/target distance
// between consecutive seeds is not bounded.
func chainDiagonal(targetSeqID int32, seeds []Seed, minMatch, maxGap int) []Clump {
	if len(seeds) == 0 {
		return nil
	}
	sort.Slice(seeds, func(i, j int) bool {
		if diagonal(seeds[i]) != diagonal(seeds[j]) {
			return diagonal(seeds[i]) < diagonal(seeds[j])
		}
		return seeds[i].QueryPos < seeds[j].QueryPos
	})

	var clumps []Clump
	var cur []Seed
	for _, s := range seeds {
		if len(cur) > 0 {
			last := cur[len(cur)-1]
			if abs64(diagonal(s)-diagonal(last)) > int64(maxGap) || s.QueryPos < last.QueryPos {
				clumps = append(clumps, finishClump(targetSeqID, cur, minMatch)...)
				cur = nil
			}
		}
		cur = append(cur, s)
	}
	clumps = append(clumps, finishClump(targetSeqID, cur, minMatch)...)
	return clumps
}

func finishClump(targetSeqID int32, seeds []Seed, minMatch int) []Clump {
	if len(seeds) < minMatch {
		return nil
	}
	c := Clump{TargetSeqID: targetSeqID, Seeds: append([]Seed{}, seeds...)}
	c.QMin, c.QMax = seeds[0].QueryPos, seeds[0].QueryPos
	c.TMin, c.TMax = seeds[0].TargetPos, seeds[0].TargetPos
	for _, s := range seeds[1:] {
		if s.QueryPos < c.QMin {
			c.QMin = s.QueryPos
		}
		if s.QueryPos > c.QMax {
			c.QMax = s.QueryPos
		}
		if s.TargetPos < c.TMin {
			c.TMin = s.TargetPos
		}
		if s.TargetPos > c.TMax {
			c.TMax = s.TargetPos
		}
	}
	return []Clump{c}
}

// dedupClumps removes clumps that are exact duplicates (same target,
// same span), which can arise because neighboring diagonal buckets
// overlap by one bucket on each side.
func dedupClumps(clumps []Clump) []Clump {
	type key struct {
		seqID      int32
		qmin, qmax int
		tmin, tmax int32
	}
	seen := map[key]bool{}
	out := clumps[:0]
	for _, c := range clumps {
		k := key{c.TargetSeqID, c.QMin, c.QMax, c.TMin, c.TMax}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
