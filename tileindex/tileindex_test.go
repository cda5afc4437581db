package tileindex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilealign/tilealign/seqio"
)

func mustTargets(t *testing.T, fasta string) []*seqio.Sequence {
	t.Helper()
	seqs, err := seqio.ReadAll(strings.NewReader(fasta), seqio.DNA)
	require.NoError(t, err)
	return seqs
}

func TestLookupFindsExactOccurrences(t *testing.T) {
	targets := mustTargets(t, ">t1\nACGTACGTACGTACGT\n")
	idx := New(targets, Params{TileSize: 8, StepSize: 1, RepMatch: 0}, nil)

	tile := EncodeWindow([]byte("ACGTACGT"), 0, 8, false)
	occs := idx.Lookup(tile)
	require.NotEmpty(t, occs)
	var positions []int32
	for _, o := range occs {
		positions = append(positions, o.Pos)
	}
	assert.Contains(t, positions, int32(0))
	assert.Contains(t, positions, int32(8))
}

func TestRepMatchZeroMeansNoSuppression(t *testing.T) {
	// The same 8-mer repeated many times must still be looked-up when
	// RepMatch==0 (spec.md §8 "repMatch = 0 is treated as no suppression").
	targets := mustTargets(t, ">t1\n"+strings.Repeat("ACGTACGT", 50)+"\n")
	idx := New(targets, Params{TileSize: 8, StepSize: 8, RepMatch: 0}, nil)
	tile := EncodeWindow([]byte("ACGTACGT"), 0, 8, false)
	assert.Len(t, idx.Lookup(tile), 50)
}

func TestOverrepresentedTileYieldsNoSeeds(t *testing.T) {
	targets := mustTargets(t, ">t1\n"+strings.Repeat("ACGTACGT", 50)+"\n")
	idx := New(targets, Params{TileSize: 8, StepSize: 8, RepMatch: 10}, nil)
	tile := EncodeWindow([]byte("ACGTACGT"), 0, 8, false)
	assert.Empty(t, idx.Lookup(tile))
	assert.Contains(t, idx.OverrepresentedTiles(), tile)
}

func TestStepSizeDividingTileSizeDoesNotDuplicateSeeds(t *testing.T) {
	targets := mustTargets(t, ">t1\nACGTACGTACGT\n")
	idx := New(targets, Params{TileSize: 4, StepSize: 2, RepMatch: 0}, nil)
	tile := EncodeWindow([]byte("ACGT"), 0, 4, false)
	occs := idx.Lookup(tile)
	seen := map[int32]bool{}
	for _, o := range occs {
		assert.False(t, seen[o.Pos], "duplicate occurrence at pos %d", o.Pos)
		seen[o.Pos] = true
	}
}

func TestOneOffFindsSingleMismatchTiles(t *testing.T) {
	targets := mustTargets(t, ">t1\nACGTACGT\n")
	idx := New(targets, Params{TileSize: 8, StepSize: 8, RepMatch: 0, OneOff: true}, nil)
	// Query tile differs from the target's only tile at one position.
	queryTile := EncodeWindow([]byte("ACGTACGA"), 0, 8, false) // last base T->A
	occs := idx.Lookup(queryTile)
	require.Len(t, occs, 1)
	assert.Equal(t, int32(0), occs[0].Pos)
}

func TestOOCRoundTrip(t *testing.T) {
	targets := mustTargets(t, ">t1\n"+strings.Repeat("ACGTACGTACG", 5000)+"\n")
	idx := New(targets, Params{TileSize: 11, StepSize: 11, RepMatch: 1024}, nil)
	tiles := idx.OverrepresentedTiles()
	require.NotEmpty(t, tiles)

	var buf bytes.Buffer
	require.NoError(t, WriteOOC(&buf, 11, tiles))

	read, err := ReadOOC(buf.Bytes(), 11)
	require.NoError(t, err)
	assert.Equal(t, tiles, read)
}

func TestReadOOCRejectsTileSizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOOC(&buf, 11, []Tile{1, 2, 3}))
	_, err := ReadOOC(buf.Bytes(), 5)
	assert.Error(t, err)
}

func TestReadOOCRejectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOOC(&buf, 11, []Tile{1, 2, 3}))
	corrupted := buf.Bytes()
	corrupted[20] ^= 0xff
	_, err := ReadOOC(corrupted, 11)
	assert.Error(t, err)
}

func TestMakeOocThenFilterIsIdempotent(t *testing.T) {
	fasta := ">t1\n" + strings.Repeat("ACGTACGTACG", 5000) + "CCCCCCCCCCCCCCCCCCCCC\n"
	targets := mustTargets(t, fasta)
	params := Params{TileSize: 11, StepSize: 11, RepMatch: 1024}

	built := New(targets, params, nil)
	tiles := built.OverrepresentedTiles()

	fresh := New(targets, Params{TileSize: 11, StepSize: 11, RepMatch: 0}, nil)
	fresh.LoadOOC(tiles)

	probe := EncodeWindow([]byte("ACGTACGTACG"), 0, 11, false)
	assert.Empty(t, fresh.Lookup(probe))
	assert.Empty(t, built.Lookup(probe))
}
