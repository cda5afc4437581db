package outfmt

import (
	"fmt"
	"io"

	"github.com/tilealign/tilealign/align"
	"github.com/tilealign/tilealign/seqio"
)

// blast8Formatter emits the BLAST tabular ("outfmt 6/-m8") layout named
// blast8 in spec.md §6's -out= option table.
type blast8Formatter struct {
	w      io.Writer
	noHead bool
}

func (f *blast8Formatter) WriteHeader() error {
	if f.noHead {
		return nil
	}
	_, err := io.WriteString(f.w, "# qseqid\tsseqid\tpident\tlength\tmismatch\tgapopen\tqstart\tqend\tsstart\tsend\tqframe\n")
	return err
}

func (f *blast8Formatter) WriteAlignment(query, target *seqio.Sequence, aln align.Alignment) error {
	alnLen := aln.Matches + aln.Mismatches + aln.QGapBases + aln.TGapBases
	_, err := fmt.Fprintf(f.w, "%s\t%s\t%.2f\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
		query.Name, target.Name, aln.PercentIdent, alnLen, aln.Mismatches, aln.GapOpens,
		aln.QueryStart+1, aln.QueryEnd, aln.TargetStart+1, aln.TargetEnd, qframe(aln))
	return err
}

// qframe reports the originating query reading frame in BLAST's own
// convention (1..3 forward, -1..-3 reverse), or 0 for an untranslated
// query (spec.md §4.2 stage 6 "Report which... queryFrame... each
// alignment came from").
func qframe(aln align.Alignment) int {
	if !aln.Translated {
		return 0
	}
	n := aln.QueryFrame.Offset + 1
	if !aln.QueryFrame.Forward {
		n = -n
	}
	return n
}

func (f *blast8Formatter) FlushQuery() error { return nil }

func (f *blast8Formatter) WriteFooter() error { return nil }
