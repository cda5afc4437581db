package align

// Block is one ungapped matching run within an Alignment (spec.md §3
// "Alignment... blocks (matching runs)").
type Block struct {
	QStart, TStart, Length int
}

// extendResult carries everything Score/Identity computation (score.go)
// needs out of one banded extension.
type extendResult struct {
	blocks              []Block
	matches, mismatches int
	qGapBases, tGapBases int
	gapOpens            int
}

const negInf = -1 << 30

// bandedExtend runs an affine-gap Needleman-Wunsch DP over query[qLo:qHi)
// against target[tLo:tHi), seeded by a clump's seed chain (spec.md §4.2
// stage 4 "Extension... run banded dynamic-programming extension outward
// from the seed chain").
//
// This is the teacher's Levenshtein traceback (util/distance.go) promoted
// from a fixed-cost edit distance to an affine-gap scoring DP: the same
// "compute a cell from its diagonal/up/left neighbors, remember which
// operation produced the minimum" structure, generalized to (a) maximize
// a score instead of minimizing a distance, and (b) track three matrices
// (match/insert/delete) instead of one so a gap open costs more than a
// gap extend.
//
// The region is bounded by the clump's own span plus maxGap slack on
// each side, so in practice this DP runs over a small window, not the
// whole sequences — the "banded" restriction spec.md calls for, achieved
// by pre-selecting a small band rather than skipping cells of a
// full-sequence matrix.
func bandedExtend(query, target []byte, p Params) extendResult {
	qn, tn := len(query), len(target)
	if qn == 0 || tn == 0 {
		return extendResult{}
	}

	// M[i][j]: best score aligning query[:i] to target[:j] ending in a
	// match/mismatch. X[i][j]: ending in a query gap (insertion in
	// target). Y[i][j]: ending in a target gap (deletion from target).
	rows, cols := qn+1, tn+1
	newMat := func() [][]int {
		m := make([][]int, rows)
		for i := range m {
			m[i] = make([]int, cols)
		}
		return m
	}
	M, X, Y := newMat(), newMat(), newMat()
	for i := 1; i < rows; i++ {
		M[i][0] = negInf
		X[i][0] = negInf
		Y[i][0] = -p.GapOpen - p.GapExtend*i
	}
	for j := 1; j < cols; j++ {
		M[0][j] = negInf
		Y[0][j] = negInf
		X[0][j] = -p.GapOpen - p.GapExtend*j
	}

	score := func(a, b byte) int {
		if equalResidue(a, b, p.ExtendThroughN) {
			return p.MatchScore
		}
		return -p.MismatchPenalty
	}
	maxOf := func(xs ...int) int {
		m := xs[0]
		for _, x := range xs[1:] {
			if x > m {
				m = x
			}
		}
		return m
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			diag := maxOf(M[i-1][j-1], X[i-1][j-1], Y[i-1][j-1]) + score(query[i-1], target[j-1])
			M[i][j] = diag
			X[i][j] = maxOf(M[i][j-1]-p.GapOpen-p.GapExtend, X[i][j-1]-p.GapExtend)
			Y[i][j] = maxOf(M[i-1][j]-p.GapOpen-p.GapExtend, Y[i-1][j]-p.GapExtend)
		}
	}

	return traceback(query, target, M, X, Y, p)
}

// state identifies which of the three DP matrices a traceback step is in.
type state int

const (
	stateMatch state = iota
	stateQGap
	stateTGap
)

func traceback(query, target []byte, M, X, Y [][]int, p Params) extendResult {
	i, j := len(query), len(target)
	cur := bestState(M, X, Y, i, j)

	var res extendResult
	// blockEnd/blockLen accumulate a run of consecutive match/mismatch
	// columns into one Block, in reverse (traceback runs end-to-start).
	blockQEnd, blockTEnd, blockLen := -1, -1, 0
	flushBlock := func() {
		if blockLen > 0 {
			res.blocks = append(res.blocks, Block{QStart: blockQEnd - blockLen + 1, TStart: blockTEnd - blockLen + 1, Length: blockLen})
		}
		blockLen = 0
	}

	lastWasGap := false
	for i > 0 || j > 0 {
		switch cur {
		case stateMatch:
			if i == 0 || j == 0 {
				cur = pickGapState(i, j)
				continue
			}
			if blockLen == 0 {
				blockQEnd, blockTEnd = i-1, j-1
			}
			blockLen++
			if equalResidue(query[i-1], target[j-1], p.ExtendThroughN) {
				res.matches++
			} else {
				res.mismatches++
			}
			i--
			j--
			lastWasGap = false
			cur = bestState(M, X, Y, i, j)
		case stateQGap: // gap in query: consume a target residue.
			flushBlock()
			if !lastWasGap {
				res.gapOpens++
			}
			res.qGapBases++
			// X[i][j] was built from M[i][j-1]-open or X[i][j-1]-extend;
			// figure out which one actually produced it before moving.
			cameFromOpen := j == 0 || X[i][j] == M[i][j-1]-p.GapOpen-p.GapExtend
			j--
			lastWasGap = true
			if cameFromOpen {
				cur = stateMatch
			} else {
				cur = stateQGap
			}
		case stateTGap: // gap in target: consume a query residue.
			flushBlock()
			if !lastWasGap {
				res.gapOpens++
			}
			res.tGapBases++
			cameFromOpen := i == 0 || Y[i][j] == M[i-1][j]-p.GapOpen-p.GapExtend
			i--
			lastWasGap = true
			if cameFromOpen {
				cur = stateMatch
			} else {
				cur = stateTGap
			}
		}
	}
	flushBlock()
	// Blocks were appended in reverse traceback order; restore forward
	// order for callers (score.go, outfmt).
	for l, r := 0, len(res.blocks)-1; l < r; l, r = l+1, r-1 {
		res.blocks[l], res.blocks[r] = res.blocks[r], res.blocks[l]
	}
	return res
}

// bestState picks whichever of the three matrices holds the best score at
// (i,j), the state the traceback should currently be in.
func bestState(M, X, Y [][]int, i, j int) state {
	switch {
	case X[i][j] >= M[i][j] && X[i][j] >= Y[i][j]:
		return stateQGap
	case Y[i][j] >= M[i][j] && Y[i][j] >= X[i][j]:
		return stateTGap
	default:
		return stateMatch
	}
}

// pickGapState is used only once i or j has hit zero, where the remaining
// prefix must be consumed entirely as gap.
func pickGapState(i, j int) state {
	if j > 0 {
		return stateQGap
	}
	return stateTGap
}

func equalResidue(a, b byte, extendThroughN bool) bool {
	ua, ub := upper(a), upper(b)
	if extendThroughN && (ua == 'N' || ub == 'N') {
		return true
	}
	return ua == ub
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
