package align

import (
	"testing"

	"github.com/tilealign/tilealign/seqio"
	"github.com/tilealign/tilealign/tileindex"
)

func buildTestIndex(t *testing.T, targetBases string) (*tileindex.Index, []*seqio.Sequence) {
	t.Helper()
	targets := []*seqio.Sequence{{Name: "chr1", Type: seqio.DNA, Bases: []byte(targetBases)}}
	idx := tileindex.New(targets, tileindex.Params{TileSize: 6, StepSize: 1}, nil)
	return idx, targets
}

func TestAlignQueryFindsExactForwardMatch(t *testing.T) {
	target := "GGGGGACGTACGTACGTGGGGG"
	idx, targets := buildTestIndex(t, target)

	p := DefaultDNAParams
	p.MinMatch = 1
	p.MinScore = 5
	aligner := NewAligner(idx, targets, nil, p)

	query := &seqio.Sequence{Name: "q1", Type: seqio.DNA, Bases: []byte("ACGTACGTACGT")}
	alignments, err := aligner.AlignQuery(query)
	if err != nil {
		t.Fatalf("AlignQuery: %v", err)
	}
	found := false
	for _, a := range alignments {
		if a.QueryStrand && a.Matches >= 12 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a forward-strand alignment with >=12 matches, got %+v", alignments)
	}
}

func TestAlignQueryFindsReverseComplementMatch(t *testing.T) {
	target := "GGGGGACGTACGTACGTGGGGG"
	idx, targets := buildTestIndex(t, target)

	p := DefaultDNAParams
	p.MinMatch = 1
	p.MinScore = 5
	aligner := NewAligner(idx, targets, nil, p)

	// Reverse complement of ACGTACGTACGT is ACGTACGTACGT (palindromic),
	// so use a non-palindromic probe instead.
	probe := "AAACCCGGGTTG"
	rc := (&seqio.Sequence{Type: seqio.DNA, Bases: []byte(probe)}).ReverseComplement()
	target2 := "TTTTT" + probe + "TTTTT"
	idx2, targets2 := buildTestIndex(t, target2)
	aligner2 := NewAligner(idx2, targets2, nil, p)

	query := &seqio.Sequence{Name: "q2", Type: seqio.DNA, Bases: rc.Bases}
	alignments, err := aligner2.AlignQuery(query)
	if err != nil {
		t.Fatalf("AlignQuery: %v", err)
	}
	found := false
	for _, a := range alignments {
		if !a.QueryStrand {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a reverse-strand alignment, got %+v", alignments)
	}
}

func TestAlignQueryRejectsAmbiguousOnlyQuery(t *testing.T) {
	idx, targets := buildTestIndex(t, "ACGTACGTACGTACGTACGT")
	aligner := NewAligner(idx, targets, nil, DefaultDNAParams)

	query := &seqio.Sequence{Name: "allN", Type: seqio.DNA, Bases: []byte("NNNNNNNNNN")}
	alignments, err := aligner.AlignQuery(query)
	if err != nil {
		t.Fatalf("AlignQuery: %v", err)
	}
	if alignments != nil {
		t.Fatalf("expected no alignments for an all-N query, got %+v", alignments)
	}
}

func TestAlignQueryFastMapRejectsOversizedQuery(t *testing.T) {
	idx, targets := buildTestIndex(t, "ACGTACGTACGTACGTACGT")
	p := DefaultDNAParams
	p.FastMap = true
	aligner := NewAligner(idx, targets, nil, p)

	big := make([]byte, MaxSinglePieceSize+1)
	for i := range big {
		big[i] = 'A'
	}
	query := &seqio.Sequence{Name: "big", Type: seqio.DNA, Bases: big}
	_, err := aligner.AlignQuery(query)
	if err == nil {
		t.Fatal("expected an error for an oversized fastMap query")
	}
}
