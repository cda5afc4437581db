// Package align implements the Aligner of spec.md §4.2: the seed-and-extend
// engine that turns tile hits against one TileIndex into scored gapped
// local alignments for one query.
package align

// Params is the immutable, process-wide alignment configuration threaded
// explicitly into every constructor (spec.md §9 "Global configuration":
// "Route them through an immutable Params value... global mutation
// disappears").
type Params struct {
	MinMatch    int
	MinScore    int
	MinIdentity float64
	MaxGap      int
	MaxIntron   int

	OneOff         bool
	ExtendThroughN bool
	FastMap        bool
	Fine           bool

	TrimT     bool
	NoTrimA   bool
	TrimHardA bool
	QMask     string // "upper", "lower", or ""

	IsProtein        bool
	TargetTranslated bool
	QueryTranslated  bool

	MinRepDivergence float64

	// Scoring (spec.md §4.2 stage 7): score = matches - mismatches -
	// Σgap_penalty, with affine gap cost gapOpen + gapExtend*len.
	MatchScore      int
	MismatchPenalty int
	GapOpen         int
	GapExtend       int
}

// DefaultDNAParams matches spec.md §6's DNA defaults (tileSize 11 is a
// TileIndex parameter, not an Aligner one; see tileindex.Params).
var DefaultDNAParams = Params{
	MinMatch:        2,
	MinScore:        30,
	MinIdentity:     90,
	MaxGap:          2,
	MaxIntron:       750000,
	MatchScore:      1,
	MismatchPenalty: 1,
	GapOpen:         400,
	GapExtend:       30,
}

// DefaultProteinParams matches spec.md §6's protein defaults.
var DefaultProteinParams = Params{
	MinMatch:        2,
	MinScore:        30,
	MinIdentity:     25,
	MaxGap:          2,
	MatchScore:      1,
	MismatchPenalty: 1,
	GapOpen:         400,
	GapExtend:       30,
	IsProtein:       true,
}

// MaxSinglePieceSize is the fixed query-size ceiling fastMap enforces
// (spec.md §4.2 "fastMap... rejects queries above a fixed size", §8
// scenario 5 "MAXSINGLEPIECESIZE").
const MaxSinglePieceSize = 5000

// WarnQuerySize is the query length above which the Aligner logs a
// diagnostic but still proceeds (spec.md §4.2 "Edge cases").
const WarnQuerySize = 500000
