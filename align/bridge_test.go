package align

import "testing"

func bridgeTestParams() Params {
	return Params{
		MaxGap:      2,
		MaxIntron:   100,
		MatchScore:  1,
		MismatchPenalty: 1,
		GapOpen:     1,
		GapExtend:   0,
	}
}

func exon(targetStart, targetEnd, queryStart, queryEnd, matches int32) Alignment {
	return Alignment{
		TargetSeqID: 0,
		QueryStart:  int(queryStart),
		QueryEnd:    int(queryEnd),
		TargetStart: targetStart,
		TargetEnd:   targetEnd,
		QueryStrand: true,
		Matches:     int(matches),
		Score:       int(matches),
	}
}

func TestBridgeIntronsMergesColinearExonsAcrossIntron(t *testing.T) {
	p := bridgeTestParams()
	a := exon(0, 20, 0, 20, 20)
	b := exon(70, 90, 20, 40, 20) // tGap = 70-20 = 50, within (MaxGap, MaxIntron]

	out := bridgeIntrons([]Alignment{a, b}, p)
	if len(out) != 1 {
		t.Fatalf("expected exons to merge into one alignment, got %d: %+v", len(out), out)
	}
	merged := out[0]
	if merged.QueryStart != 0 || merged.QueryEnd != 40 {
		t.Fatalf("merged query span wrong: got [%d,%d)", merged.QueryStart, merged.QueryEnd)
	}
	if merged.TargetStart != 0 || merged.TargetEnd != 90 {
		t.Fatalf("merged target span wrong: got [%d,%d)", merged.TargetStart, merged.TargetEnd)
	}
	if merged.GapOpens != 1 {
		t.Fatalf("expected one gap-open recorded for the bridged intron, got %d", merged.GapOpens)
	}
	if merged.TGapBases != 50 {
		t.Fatalf("expected the 50-base intron recorded as TGapBases, got %d", merged.TGapBases)
	}
	if merged.Matches != 40 {
		t.Fatalf("expected matches to sum across both exons, got %d", merged.Matches)
	}
}

func TestBridgeIntronsLeavesGapBeyondMaxIntronUnmerged(t *testing.T) {
	p := bridgeTestParams()
	a := exon(0, 20, 0, 20, 20)
	b := exon(500, 520, 20, 40, 20) // tGap = 480 > MaxIntron

	out := bridgeIntrons([]Alignment{a, b}, p)
	if len(out) != 2 {
		t.Fatalf("expected exons beyond maxIntron to stay separate, got %d: %+v", len(out), out)
	}
}

func TestBridgeIntronsSkipsFastMap(t *testing.T) {
	p := bridgeTestParams()
	p.FastMap = true
	a := exon(0, 20, 0, 20, 20)
	b := exon(70, 90, 20, 40, 20)

	out := bridgeIntrons([]Alignment{a, b}, p)
	if len(out) != 2 {
		t.Fatalf("expected fastMap to disable intron bridging, got %d: %+v", len(out), out)
	}
}

func TestBridgeIntronsRejectsStrandMismatch(t *testing.T) {
	p := bridgeTestParams()
	a := exon(0, 20, 0, 20, 20)
	b := exon(70, 90, 20, 40, 20)
	b.QueryStrand = false

	out := bridgeIntrons([]Alignment{a, b}, p)
	if len(out) != 2 {
		t.Fatalf("expected opposite-strand exons to stay separate, got %d: %+v", len(out), out)
	}
}
