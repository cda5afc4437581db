package outfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/tilealign/tilealign/align"
	"github.com/tilealign/tilealign/seqio"
)

// pslFormatter emits the default tab-separated alignment table (spec.md
// §6 "-out=psl... the default is a tab-separated alignment table with one
// alignment per line"), modeled on the classic PSL column layout.
type pslFormatter struct {
	w      io.Writer
	noHead bool
}

func (f *pslFormatter) WriteHeader() error {
	if f.noHead {
		return nil
	}
	header := "match\tmismatch\trepmatch\tNs\tQgapCount\tQgapBases\tTgapCount\tTgapBases\tstrand\t" +
		"QName\tQSize\tQStart\tQEnd\tTName\tTSize\tTStart\tTEnd\tblockCount\tblockSizes\tqStarts\ttStarts\n"
	_, err := io.WriteString(f.w, header)
	return err
}

func (f *pslFormatter) WriteAlignment(query, target *seqio.Sequence, aln align.Alignment) error {
	var blockSizes, qStarts, tStarts strings.Builder
	for _, b := range aln.Blocks {
		fmt.Fprintf(&blockSizes, "%d,", b.Length)
		fmt.Fprintf(&qStarts, "%d,", b.QStart)
		fmt.Fprintf(&tStarts, "%d,", b.TStart)
	}
	_, err := fmt.Fprintf(f.w, "%d\t%d\t0\t0\t%d\t%d\t%d\t%d\t%s\t%s\t%d\t%d\t%d\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
		aln.Matches, aln.Mismatches,
		boolToInt(aln.QGapBases > 0), aln.QGapBases, boolToInt(aln.TGapBases > 0), aln.TGapBases,
		strand(aln.QueryStrand),
		query.Name, query.Len(), aln.QueryStart, aln.QueryEnd,
		target.Name, target.Len(), aln.TargetStart, aln.TargetEnd,
		len(aln.Blocks), blockSizes.String(), qStarts.String(), tStarts.String())
	return err
}

func (f *pslFormatter) FlushQuery() error { return nil }

func (f *pslFormatter) WriteFooter() error { return nil }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
