package maskindex

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
)

const sampleOut = `   SW   perc perc perc  query              position in query           matching       repeat
score   div. del. ins.  sequence           begin  end          (left)   repeat         class/family
   -----------------------------------------------------------------------------------------------
   381  12.0  0.0  0.0  chr1                  1    50 (950) +  AluSx          SINE/Alu
   250   3.5  0.0  0.0  chr1                100   140 (860) +  L1             LINE/L1
   400   8.1  0.0  0.0  chr2                  5    25 (475) +  AluY           SINE/Alu
`

func TestBuildFromRepeatMaskerOutMasksReportedSpans(t *testing.T) {
	seqIDs := map[string]int{"chr1": 0, "chr2": 1}
	idx, err := BuildFromRepeatMaskerOut(strings.NewReader(sampleOut), seqIDs)
	assert.NoError(t, err)

	assert.EQ(t, idx.IsMasked(0, 10, 0), true)
	assert.EQ(t, idx.IsMasked(0, 60, 0), false)
	assert.EQ(t, idx.IsMasked(0, 120, 0), true)
	assert.EQ(t, idx.IsMasked(1, 10, 0), true)
}

func TestBuildFromRepeatMaskerOutIgnoresUnknownSequence(t *testing.T) {
	seqIDs := map[string]int{"chr1": 0}
	idx, err := BuildFromRepeatMaskerOut(strings.NewReader(sampleOut), seqIDs)
	assert.NoError(t, err)

	// chr2's record is silently dropped; chr1's own records are unaffected.
	assert.EQ(t, idx.IsMasked(0, 10, 0), true)
}

func TestBuildFromRepeatMaskerOutRespectsMinDivergence(t *testing.T) {
	seqIDs := map[string]int{"chr1": 0}
	idx, err := BuildFromRepeatMaskerOut(strings.NewReader(sampleOut), seqIDs)
	assert.NoError(t, err)

	// chr1's first interval is 12.0% diverged: a 5% threshold unmasks it,
	// a 20% threshold leaves it masked.
	assert.EQ(t, idx.IsMasked(0, 10, 20), true)
	assert.EQ(t, idx.IsMasked(0, 10, 5), false)
}

func TestBuildFromRepeatMaskerOutRejectsShortLine(t *testing.T) {
	_, err := BuildFromRepeatMaskerOut(strings.NewReader("1 2 3\n"), map[string]int{})
	if err == nil {
		t.Fatal("expected a FormatError for a line with too few fields")
	}
}

type fakeSequencer struct {
	n      int
	masked map[int]bool
}

func (f fakeSequencer) Len() int            { return f.n }
func (f fakeSequencer) MaskedAt(i int) bool { return f.masked[i] }

func TestBuildFromSequenceMasksRunLengthEncodes(t *testing.T) {
	seq := fakeSequencer{n: 10, masked: map[int]bool{2: true, 3: true, 4: true, 7: true}}
	idx := BuildFromSequenceMasks([]Sequencer{seq})

	assert.EQ(t, idx.IsMasked(0, 1, 0), false)
	assert.EQ(t, idx.IsMasked(0, 3, 0), true)
	assert.EQ(t, idx.IsMasked(0, 5, 0), false)
	assert.EQ(t, idx.IsMasked(0, 7, 0), true)
}
