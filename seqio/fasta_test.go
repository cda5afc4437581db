package seqio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderScansRecordsInOrder(t *testing.T) {
	data := ">seq1 comment is ignored\nACGT\nACGT\n>seq2\nTTTT\n"
	seqs, err := ReadAll(strings.NewReader(data), DNA)
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, "seq1", seqs[0].Name)
	assert.Equal(t, "ACGTACGT", string(seqs[0].Bases))
	assert.Equal(t, "seq2", seqs[1].Name)
	assert.Equal(t, "TTTT", string(seqs[1].Bases))
}

func TestRecordOffsetsMatchHeaderPositions(t *testing.T) {
	data := ">a\nACGT\n>bb\nTTTT\nTTTT\n>ccc\nGG\n"
	offsets, err := RecordOffsets(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, offsets, 3)
	for _, off := range offsets {
		assert.Equal(t, byte('>'), data[off])
	}
}

func TestReverseComplementRoundTrips(t *testing.T) {
	s := &Sequence{Type: DNA, Bases: []byte("ACGTacgt")}
	rc := s.ReverseComplement().ReverseComplement()
	assert.Equal(t, string(s.Bases), string(rc.Bases))
}

func TestIsAmbiguousOnly(t *testing.T) {
	assert.True(t, (&Sequence{Type: DNA, Bases: []byte("NNNN")}).IsAmbiguousOnly())
	assert.False(t, (&Sequence{Type: DNA, Bases: []byte("NNAN")}).IsAmbiguousOnly())
	assert.True(t, (&Sequence{Type: Protein, Bases: []byte("XXX")}).IsAmbiguousOnly())
}

func TestMapUToT(t *testing.T) {
	s := &Sequence{Type: RNA, Bases: []byte("ACGUacgu")}
	s.MapUToT()
	assert.Equal(t, "ACGTacgt", string(s.Bases))
}

func TestTrimPolyTAndPolyA(t *testing.T) {
	s := &Sequence{Type: DNA, Bases: []byte("TTTACGTAAAA")}
	s.TrimPolyT()
	s.TrimPolyA()
	assert.Equal(t, "ACGT", string(s.Bases))
}
