package align

// standardCode maps a 3-base codon (uppercase, T not U) to its one-letter
// amino acid, '*' for stop. Grounded on the standard genetic code table;
// own encoding, not lifted from any example repo's translation table.
var standardCode = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// Frame is one of the six reading frames a translated DNA/RNA sequence
// is scanned in (spec.md §4.2 "Translated path": "translate the target
// (or query) in all six frames").
type Frame struct {
	Forward bool
	Offset  int // 0, 1, or 2
}

var allFrames = [6]Frame{
	{Forward: true, Offset: 0}, {Forward: true, Offset: 1}, {Forward: true, Offset: 2},
	{Forward: false, Offset: 0}, {Forward: false, Offset: 1}, {Forward: false, Offset: 2},
}

// translateFrame produces the protein translation of bases read in the
// given frame, stopping at the first stop codon the way BLAT-style
// translated search does (a stop codon ends the open reading frame). Only
// the first ORF of each frame is returned; residues after the first stop
// codon are not translated or aligned.
func translateFrame(bases []byte, f Frame) []byte {
	src := bases
	if !f.Forward {
		src = reverseComplementBytes(bases)
	}
	if f.Offset >= len(src) {
		return nil
	}
	src = src[f.Offset:]

	out := make([]byte, 0, len(src)/3)
	for i := 0; i+3 <= len(src); i += 3 {
		codon := upperCodon(src[i : i+3])
		aa, ok := standardCode[codon]
		if !ok {
			aa = 'X'
		}
		if aa == '*' {
			break
		}
		out = append(out, aa)
	}
	return out
}

// TranslateSixFrames returns the six reading-frame translations of bases,
// in the same forward/reverse, offset 0/1/2 order as allFrames. Exported
// for cmd/tilealign, which needs it to expand a -t=dnax target database
// into per-frame protein pseudo-sequences before TileIndex construction
// (the query side does the equivalent expansion internally in
// strandViews).
func TranslateSixFrames(bases []byte) [6][]byte {
	var out [6][]byte
	for i, f := range allFrames {
		out[i] = translateFrame(bases, f)
	}
	return out
}

func upperCodon(c []byte) string {
	var b [3]byte
	for i, ch := range c {
		b[i] = upper(ch)
		if b[i] == 'U' {
			b[i] = 'T'
		}
	}
	return string(b[:])
}

var complementTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'U': 'A', 'N': 'N'}
	for a, b := range pairs {
		t[a] = b
		t[a+('a'-'A')] = b + ('a' - 'A')
	}
	return t
}()

func reverseComplementBytes(bases []byte) []byte {
	out := make([]byte, len(bases))
	n := len(bases)
	for i, b := range bases {
		out[n-1-i] = complementTable[b]
	}
	return out
}
