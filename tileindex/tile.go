// Package tileindex implements the TileIndex of spec.md §4.1: an
// immutable, shared-read k-mer ("tile") index over a target database,
// including the over-represented-tile ("ooc") suppression mechanism.
//
// The rolling tile encoding below is grounded on the teacher's kmerizer
// (fusion/kmer.go): a fixed-width integer built up by shifting in one
// residue's bit code at a time, with a sentinel value for any window that
// contains an out-of-alphabet residue. We generalize it from the
// teacher's DNA-only 2-bit code to also cover protein's 20-letter
// alphabet, and drop the teacher's reverse-complement co-computation
// (spec.md handles strand by re-scanning the reverse-complemented query,
// not by tracking both encodings per window).
package tileindex

// Tile is a compact encoding of a fixed-length window of residues.
type Tile uint64

// InvalidTile is returned for any window touching an ambiguous residue.
const InvalidTile = Tile(1<<63 - 1)

const dnaBits = 2     // log2(4): A,C,G,T
const proteinBits = 5 // log2(32) >= log2(22): amino acids + a few codes to spare

var dnaCode, proteinCode [256]int8

func init() {
	for i := range dnaCode {
		dnaCode[i] = -1
		proteinCode[i] = -1
	}
	for i, b := range []byte("ACGT") {
		dnaCode[b] = int8(i)
		dnaCode[b+'a'-'A'] = int8(i)
	}
	for i, b := range []byte("ACDEFGHIKLMNPQRSTVWY") {
		proteinCode[b] = int8(i)
		proteinCode[b+'a'-'A'] = int8(i)
	}
}

func bitsFor(isProtein bool) (uint, *[256]int8) {
	if isProtein {
		return proteinBits, &proteinCode
	}
	return dnaBits, &dnaCode
}

// Kmerizer slides a fixed-width window across a sequence and produces one
// Tile value per position, advancing by step each call to Scan (spec.md
// §4.1 "stepSize"). It follows the kmerizer of fusion/kmer.go,
// generalized to an arbitrary per-residue bit width and step size, but
// encodes each window afresh instead of rolling the previous value.
type Kmerizer struct {
	bases     []byte
	tileSize  int
	step      int
	bits      uint
	code      *[256]int8
	mask      Tile
	pos       int
	cur       Tile
	curPos    int
	haveFirst bool
}

// NewKmerizer returns a Kmerizer over bases with the given tileSize,
// step, and alphabet (isProtein selects the 20-letter protein code,
// otherwise the 4-letter DNA code).
func NewKmerizer(bases []byte, tileSize, step int, isProtein bool) *Kmerizer {
	bits, code := bitsFor(isProtein)
	return &Kmerizer{
		bases:    bases,
		tileSize: tileSize,
		step:     step,
		bits:     bits,
		code:     code,
		mask:     ^(Tile(0) << (bits * uint(tileSize))),
	}
}

// Scan advances to the next window at a multiple of step and reports
// whether one was found before the sequence ended. Get returns the tile
// value and position; a window containing an ambiguous residue yields
// InvalidTile, which lookups must skip (spec.md "no ambiguous symbols").
func (k *Kmerizer) Scan() bool {
	if k.pos+k.tileSize > len(k.bases) {
		return false
	}
	k.curPos = k.pos
	k.cur = k.encodeAt(k.pos)
	k.pos += k.step
	return true
}

func (k *Kmerizer) encodeAt(pos int) Tile {
	var t Tile
	for i := 0; i < k.tileSize; i++ {
		c := k.code[k.bases[pos+i]]
		if c < 0 {
			return InvalidTile
		}
		t = (t << k.bits) | Tile(c)
	}
	return t & k.mask
}

// Get returns the tile produced by the last successful Scan and its
// starting position.
func (k *Kmerizer) Get() (Tile, int) { return k.cur, k.curPos }

// EncodeWindow encodes bases[pos:pos+tileSize] directly, used by the
// Aligner's seeding stage to derive the tile value of each query window.
func EncodeWindow(bases []byte, pos, tileSize int, isProtein bool) Tile {
	bits, code := bitsFor(isProtein)
	var t Tile
	for i := 0; i < tileSize; i++ {
		c := code[bases[pos+i]]
		if c < 0 {
			return InvalidTile
		}
		t = (t << bits) | Tile(c)
	}
	return t
}

// AlphabetSize returns the number of distinct residue codes for the given
// alphabet, used to enumerate oneOff substitutions.
func AlphabetSize(isProtein bool) int {
	if isProtein {
		return 20
	}
	return 4
}
