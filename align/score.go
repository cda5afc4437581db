package align

// Alignment is the scored, filtered output of one Aligner run over one
// clump (spec.md §3 "Alignment").
type Alignment struct {
	QuerySeqID   int32
	TargetSeqID  int32
	QueryStart   int
	QueryEnd     int
	TargetStart  int32
	TargetEnd    int32
	QueryStrand  bool // true = forward
	Translated   bool
	QueryFrame   Frame // meaningful only when Translated
	Blocks       []Block
	Matches      int
	Mismatches   int
	QGapBases    int
	TGapBases    int
	GapOpens     int
	Score        int
	PercentIdent float64
}

// scoreExtend converts a raw extendResult into an Alignment's scoring
// fields: score = matches - mismatches - Σgap_penalty, with affine gap
// cost gapOpen + gapExtend*len (spec.md §4.2 stage 7 "Scoring").
func scoreExtend(r extendResult, p Params) (score int, percentIdent float64) {
	score = r.matches*p.MatchScore - r.mismatches*p.MismatchPenalty
	score -= r.gapOpens * p.GapOpen
	score -= (r.qGapBases + r.tGapBases) * p.GapExtend
	total := r.matches + r.mismatches
	if total == 0 {
		return score, 0
	}
	percentIdent = 100 * float64(r.matches) / float64(total)
	return score, percentIdent
}

// passesFilter applies spec.md §4.2 stage 7's minScore/minIdentity
// thresholds.
func passesFilter(score int, percentIdent float64, p Params) bool {
	return score >= p.MinScore && percentIdent >= p.MinIdentity
}
