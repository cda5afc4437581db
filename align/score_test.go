package align

import "testing"

func TestScoreExtendAllMatches(t *testing.T) {
	p := DefaultDNAParams
	r := extendResult{matches: 10}
	score, pct := scoreExtend(r, p)
	if score != 10 {
		t.Fatalf("score=%d, want 10", score)
	}
	if pct != 100 {
		t.Fatalf("pct=%v, want 100", pct)
	}
}

func TestScoreExtendPenalizesGapOpenAndExtend(t *testing.T) {
	p := DefaultDNAParams
	r := extendResult{matches: 20, gapOpens: 1, qGapBases: 3}
	score, _ := scoreExtend(r, p)
	want := 20*p.MatchScore - p.GapOpen - 3*p.GapExtend
	if score != want {
		t.Fatalf("score=%d, want %d", score, want)
	}
}

func TestScoreExtendZeroAlignedBasesIsZeroPercent(t *testing.T) {
	_, pct := scoreExtend(extendResult{}, DefaultDNAParams)
	if pct != 0 {
		t.Fatalf("pct=%v, want 0", pct)
	}
}

func TestPassesFilter(t *testing.T) {
	p := DefaultDNAParams
	p.MinScore = 30
	p.MinIdentity = 90
	if !passesFilter(30, 90, p) {
		t.Fatal("boundary score/identity should pass")
	}
	if passesFilter(29, 90, p) {
		t.Fatal("below minScore should fail")
	}
	if passesFilter(30, 89.9, p) {
		t.Fatal("below minIdentity should fail")
	}
}
