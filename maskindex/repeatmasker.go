package maskindex

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/tilealign/tilealign/tlerr"
)

// BuildFromRepeatMaskerOut reads a RepeatMasker .out report and returns
// an Index over it, resolving spec.md §6's -mask=out option ("consult a
// RepeatMasker-style .out report for the target database" is the
// natural reading of BLAT's -mask=out, left unspecified at the byte
// level by spec.md itself).
//
// The .out format is whitespace-delimited with a fixed three-line
// header; the columns this parser consults are %divergence (column 2),
// query sequence name (column 5), and query begin/end (columns 6-7,
// 1-based inclusive), matching the RepeatMasker documentation's column
// layout. seqIDs maps a target Sequence.Name to its index in the
// TileIndex's target list.
func BuildFromRepeatMaskerOut(r io.Reader, seqIDs map[string]int) (*Index, error) {
	b := NewBuilder()
	sc := bufio.NewScanner(r)
	lineNo := 0
	headerLinesSeen := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		// The three-line header ("SW score...", "score div. del...", a
		// blank-ish dashed separator) doesn't parse as a repeat record;
		// until three such lines have been seen, skip any non-empty line
		// whose first field isn't numeric.
		if headerLinesSeen < 3 {
			if _, err := strconv.Atoi(fields[0]); err != nil {
				headerLinesSeen++
				continue
			}
		}
		if len(fields) < 7 {
			return nil, tlerr.NewFormat("repeatmasker .out line %d: expected at least 7 fields, got %d", lineNo, len(fields))
		}
		divergence, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, tlerr.NewFormat("repeatmasker .out line %d: bad %%divergence %q: %v", lineNo, fields[1], err)
		}
		seqName := fields[4]
		seqID, ok := seqIDs[seqName]
		if !ok {
			// A repeat record against a sequence not in this database;
			// ignore it rather than fail the whole mask load.
			continue
		}
		begin, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, tlerr.NewFormat("repeatmasker .out line %d: bad begin %q: %v", lineNo, fields[5], err)
		}
		end, err := strconv.Atoi(fields[6])
		if err != nil {
			return nil, tlerr.NewFormat("repeatmasker .out line %d: bad end %q: %v", lineNo, fields[6], err)
		}
		// .out coordinates are 1-based inclusive; Index intervals are
		// 0-based half-open.
		b.Add(seqID, begin-1, end, divergence)
	}
	if err := sc.Err(); err != nil {
		return nil, tlerr.NewIO("reading repeatmasker .out file", err)
	}
	return b.Build(), nil
}

// BuildFromSequenceMasks builds an Index directly from each target's
// case-derived Mask bitmap (spec.md -mask=lower / -mask=upper), run-length
// encoding each contiguous masked span into one interval. Divergence is
// recorded as 0 so -minRepDivergence never un-masks a case-derived span.
func BuildFromSequenceMasks(targets []Sequencer) *Index {
	b := NewBuilder()
	for seqID, seq := range targets {
		n := seq.Len()
		start := -1
		for i := 0; i <= n; i++ {
			masked := i < n && seq.MaskedAt(i)
			if masked && start < 0 {
				start = i
			} else if !masked && start >= 0 {
				b.Add(seqID, start, i, 0)
				start = -1
			}
		}
	}
	return b.Build()
}

// Sequencer is the minimal view of seqio.Sequence BuildFromSequenceMasks
// needs, kept local to avoid an import cycle (seqio has no reason to
// depend on maskindex).
type Sequencer interface {
	Len() int
	MaskedAt(i int) bool
}
