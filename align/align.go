package align

import (
	"sort"

	"github.com/grailbio/base/log"

	"github.com/tilealign/tilealign/maskindex"
	"github.com/tilealign/tilealign/seqio"
	"github.com/tilealign/tilealign/tileindex"
	"github.com/tilealign/tilealign/tlerr"
)

// Aligner runs the seed-and-extend pipeline of spec.md §4.2 for one
// TileIndex against a stream of queries. One Aligner is built per worker
// and holds no mutable state beyond what a single AlignQuery call needs,
// so many workers can share one Aligner's *tileindex.Index concurrently
// (spec.md §4.3 "the TileIndex is read-only and shared").
type Aligner struct {
	index   *tileindex.Index
	targets []*seqio.Sequence
	qMask   *maskindex.Index
	params  Params
}

// NewAligner constructs an Aligner. targets must be the same slice (by
// index) the TileIndex was built from, so clump.TargetSeqID indexes
// directly into it.
func NewAligner(index *tileindex.Index, targets []*seqio.Sequence, qMask *maskindex.Index, params Params) *Aligner {
	return &Aligner{index: index, targets: targets, qMask: qMask, params: params}
}

// strandQuery is one oriented, possibly-translated view of a query that
// gets seeded and extended independently.
type strandQuery struct {
	bases       []byte
	forward     bool
	translated  bool
	// origOffset is left 0 by strandViews for every view, so alignment
	// coordinates are reported in each view's own coordinate space (the
	// reverse-complemented or translated bases), not mapped back to the
	// original query's forward strand.
	origOffset int
	frame      Frame
}

// AlignQuery runs Preparation, Seeding, Clumping, Extension, Scoring and
// filtering for one query sequence, returning every Alignment that
// passes params.MinScore/MinIdentity (spec.md §4.2).
func (a *Aligner) AlignQuery(query *seqio.Sequence) ([]Alignment, error) {
	if a.params.FastMap && query.Len() > MaxSinglePieceSize {
		return nil, tlerr.NewConfig("fastMap: query %q exceeds maxSinglePieceSize (%d > %d)",
			query.Name, query.Len(), MaxSinglePieceSize)
	}

	prepared := a.prepare(query)
	if prepared == nil {
		return nil, nil
	}
	if prepared.Len() > WarnQuerySize {
		log.Printf("align: query %q is %d bases, above the %d warning threshold", query.Name, prepared.Len(), WarnQuerySize)
	}

	var alignments []Alignment
	for _, sq := range a.strandViews(prepared) {
		alignments = append(alignments, a.alignStrand(sq)...)
	}
	return alignments, nil
}

// prepare applies spec.md §4.2 stage 1 ("Preparation") in place on a copy
// of query so the caller's sequence is never mutated.
func (a *Aligner) prepare(query *seqio.Sequence) *seqio.Sequence {
	prepared := &seqio.Sequence{Name: query.Name, Type: query.Type, Bases: append([]byte{}, query.Bases...)}
	prepared.NormalizeCase(a.params.QMask)
	if prepared.Type == seqio.RNA {
		prepared.MapUToT()
	}
	if a.params.TrimT {
		prepared.TrimPolyT()
	}
	if !a.params.NoTrimA {
		prepared.TrimPolyA()
	}
	if prepared.IsAmbiguousOnly() {
		return nil
	}
	return prepared
}

// strandViews builds the set of oriented/translated byte sequences that
// must each be independently seeded against the index, per spec.md's
// "Translated path" and forward/reverse strand handling.
func (a *Aligner) strandViews(query *seqio.Sequence) []strandQuery {
	if a.params.QueryTranslated {
		var views []strandQuery
		for _, f := range allFrames {
			protein := translateFrame(query.Bases, f)
			if len(protein) == 0 {
				continue
			}
			views = append(views, strandQuery{bases: protein, forward: f.Forward, translated: true, frame: f})
		}
		return views
	}
	if a.params.IsProtein {
		return []strandQuery{{bases: query.Bases, forward: true}}
	}

	views := []strandQuery{{bases: query.Bases, forward: true}}
	rc := query.ReverseComplement()
	views = append(views, strandQuery{bases: rc.Bases, forward: false})
	return views
}

// alignStrand runs Seeding → Clumping → Extension → Scoring for one
// oriented view of the query.
func (a *Aligner) alignStrand(sq strandQuery) []Alignment {
	tileSize := a.index.Params().TileSize
	isProteinAlphabet := a.params.IsProtein || sq.translated
	seeds := findSeeds(sq.bases, a.index, a.qMask, tileSize, isProteinAlphabet, a.params.MinRepDivergence)
	if len(seeds) == 0 {
		return nil
	}
	clumps := clumpSeeds(seeds, a.params.MinMatch, a.params.MaxGap)

	var out []Alignment
	for _, c := range clumps {
		target := a.targets[c.TargetSeqID]
		aln, ok := a.extendClump(sq, c, target, tileSize)
		if ok {
			out = append(out, aln)
		}
	}
	return bridgeIntrons(out, a.params)
}

// extendClump runs the banded extension (or, in fastMap mode, a direct
// ungapped block from the clump's own span) over one clump and scores
// the result.
func (a *Aligner) extendClump(sq strandQuery, c Clump, target *seqio.Sequence, tileSize int) (Alignment, bool) {
	qLo, qHi := windowBounds(c.QMin, c.QMax+tileSize, len(sq.bases), a.params.MaxGap)
	tLo, tHi := windowBounds(int(c.TMin), int(c.TMax)+tileSize, target.Len(), a.params.MaxGap)
	// Clamping at a sequence edge can leave one side with less slack than
	// the other; keep the smaller slack on both sides of each end so the
	// clamp alone never forces the global DP to open a gap.
	lead := c.QMin - qLo
	if l := int(c.TMin) - tLo; l < lead {
		lead = l
	}
	trail := qHi - (c.QMax + tileSize)
	if tr := tHi - (int(c.TMax) + tileSize); tr < trail {
		trail = tr
	}
	qLo, tLo = c.QMin-lead, int(c.TMin)-lead
	qHi, tHi = c.QMax+tileSize+trail, int(c.TMax)+tileSize+trail

	var res extendResult
	if a.params.FastMap {
		res = fastMapResult(sq.bases[qLo:qHi], target.Bases[tLo:tHi], a.params)
	} else {
		res = bandedExtend(sq.bases[qLo:qHi], target.Bases[tLo:tHi], a.params)
	}
	if len(res.blocks) == 0 {
		return Alignment{}, false
	}
	for i := range res.blocks {
		res.blocks[i].QStart += qLo
		res.blocks[i].TStart += tLo
	}

	score, ident := scoreExtend(res, a.params)
	if !passesFilter(score, ident, a.params) {
		return Alignment{}, false
	}

	first, last := res.blocks[0], res.blocks[len(res.blocks)-1]
	aln := Alignment{
		TargetSeqID:  c.TargetSeqID,
		QueryStart:   first.QStart,
		QueryEnd:     last.QStart + last.Length,
		TargetStart:  int32(first.TStart),
		TargetEnd:    int32(last.TStart + last.Length),
		QueryStrand:  sq.forward,
		Translated:   sq.translated,
		QueryFrame:   sq.frame,
		Blocks:       res.blocks,
		Matches:      res.matches,
		Mismatches:   res.mismatches,
		QGapBases:    res.qGapBases,
		TGapBases:    res.tGapBases,
		GapOpens:     res.gapOpens,
		Score:        score,
		PercentIdent: ident,
	}
	return aln, true
}

// fastMapResult skips dynamic-programming extension entirely and reports
// the extension window it is given (the clump's seed span plus slack) as
// one ungapped block, assuming (per spec.md
// "-fastMap... for near-exact matches") that the match is exact enough
// not to need gapped extension.
func fastMapResult(query, target []byte, p Params) extendResult {
	n := len(query)
	if len(target) < n {
		n = len(target)
	}
	var r extendResult
	for i := 0; i < n; i++ {
		if equalResidue(query[i], target[i], p.ExtendThroughN) {
			r.matches++
		} else {
			r.mismatches++
		}
	}
	if n > 0 {
		r.blocks = []Block{{QStart: 0, TStart: 0, Length: n}}
	}
	return r
}

// windowBounds expands [lo,hi) by slack on each side, clamped to
// [0,length), the "banded" restriction applied before bandedExtend runs
// its DP (spec.md §4.2 stage 4).
func windowBounds(lo, hi, length, slack int) (int, int) {
	lo -= slack
	hi += slack
	if lo < 0 {
		lo = 0
	}
	if hi > length {
		hi = length
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// bridgeIntrons implements spec.md §2's "optional splice-aware linking":
// two alignments against the same target, on the same strand/frame, that
// are contiguous on the query side but separated by a large gap on the
// target side (bigger than the banded DP's own maxGap window but no
// bigger than maxIntron) are joined into one alignment with that gap
// recorded directly as a single gap-open, rather than ever widening
// bandedExtend's dense DP window to cover it. This keeps maxIntron a
// cheap O(n log n) linking decision independent of the band bandedExtend
// actually searches (see windowBounds callers in extendClump).
func bridgeIntrons(alns []Alignment, p Params) []Alignment {
	if p.FastMap || p.MaxIntron <= 0 || len(alns) < 2 {
		return alns
	}
	sort.Slice(alns, func(i, j int) bool {
		if alns[i].TargetSeqID != alns[j].TargetSeqID {
			return alns[i].TargetSeqID < alns[j].TargetSeqID
		}
		return alns[i].QueryStart < alns[j].QueryStart
	})

	out := alns[:0]
	cur := alns[0]
	for _, next := range alns[1:] {
		if merged, ok := tryBridge(cur, next, p); ok {
			cur = merged
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// tryBridge merges b into a when they look like two exons of the same
// spliced alignment: same target/strand/frame, query-contiguous within
// maxGap, and a target gap strictly bigger than maxGap (otherwise
// extendClump's own banded window would already have linked them) but no
// bigger than maxIntron.
func tryBridge(a, b Alignment, p Params) (Alignment, bool) {
	if a.TargetSeqID != b.TargetSeqID || a.QueryStrand != b.QueryStrand || a.Translated != b.Translated {
		return Alignment{}, false
	}
	if a.Translated && a.QueryFrame != b.QueryFrame {
		return Alignment{}, false
	}
	qGap := b.QueryStart - a.QueryEnd
	tGap := int(b.TargetStart) - int(a.TargetEnd)
	if qGap < 0 || qGap > p.MaxGap {
		return Alignment{}, false
	}
	if tGap <= p.MaxGap || tGap > p.MaxIntron {
		return Alignment{}, false
	}

	merged := a
	merged.QueryEnd = b.QueryEnd
	merged.TargetEnd = b.TargetEnd
	merged.Blocks = append(append([]Block{}, a.Blocks...), b.Blocks...)
	merged.Matches += b.Matches
	merged.Mismatches += b.Mismatches
	merged.QGapBases += b.QGapBases + qGap
	merged.TGapBases += b.TGapBases + tGap
	merged.GapOpens += b.GapOpens + 1

	score, ident := scoreExtend(extendResult{
		matches:    merged.Matches,
		mismatches: merged.Mismatches,
		qGapBases:  merged.QGapBases,
		tGapBases:  merged.TGapBases,
		gapOpens:   merged.GapOpens,
	}, p)
	if !passesFilter(score, ident, p) {
		return Alignment{}, false
	}
	merged.Score = score
	merged.PercentIdent = ident
	return merged, true
}
