package outfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilealign/tilealign/align"
	"github.com/tilealign/tilealign/seqio"
)

func sampleAlignment() align.Alignment {
	return align.Alignment{
		TargetSeqID: 0,
		QueryStart:  0, QueryEnd: 8,
		TargetStart: 0, TargetEnd: 8,
		QueryStrand: true,
		Blocks:      []align.Block{{QStart: 0, TStart: 0, Length: 8}},
		Matches:     8, Score: 8, PercentIdent: 100,
	}
}

func TestNewRejectsUnsupportedFormat(t *testing.T) {
	_, err := New("maf", &bytes.Buffer{}, false)
	assert.Error(t, err)
}

func TestPSLWritesHeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("psl", &buf, false)
	require.NoError(t, err)
	require.NoError(t, f.WriteHeader())

	q := &seqio.Sequence{Name: "q1", Bases: []byte("ACGTACGT")}
	tgt := &seqio.Sequence{Name: "t1", Bases: []byte("ACGTACGTACGTACGT")}
	require.NoError(t, f.WriteAlignment(q, tgt, sampleAlignment()))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "q1")
	assert.Contains(t, lines[1], "t1")
}

func TestPSLNoHeadSuppressesHeader(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("psl", &buf, true)
	require.NoError(t, err)
	require.NoError(t, f.WriteHeader())
	assert.Empty(t, buf.String())
}

func TestBlast8Row(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("blast8", &buf, true)
	require.NoError(t, err)
	q := &seqio.Sequence{Name: "q1", Bases: []byte("ACGTACGT")}
	tgt := &seqio.Sequence{Name: "t1", Bases: []byte("ACGTACGTACGTACGT")}
	require.NoError(t, f.WriteAlignment(q, tgt, sampleAlignment()))
	out := buf.String()
	assert.Contains(t, out, "100.00")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "\t0"), "untranslated alignment should report qframe 0, got %q", out)
}

func TestBlast8RowReportsQueryFrame(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("blast8", &buf, true)
	require.NoError(t, err)
	q := &seqio.Sequence{Name: "q1", Bases: []byte("ACGTACGT")}
	tgt := &seqio.Sequence{Name: "t1", Bases: []byte("ACGTACGTACGTACGT")}

	aln := sampleAlignment()
	aln.Translated = true
	aln.QueryFrame = align.Frame{Forward: false, Offset: 1}
	require.NoError(t, f.WriteAlignment(q, tgt, aln))
	assert.True(t, strings.HasSuffix(strings.TrimRight(buf.String(), "\n"), "\t-2"))
}
