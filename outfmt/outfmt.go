// Package outfmt implements the output-format interface spec.md §6/§9
// describes: "replace the function-pointer-in-struct output object with
// an interface exposing {write_header, write_alignment, flush_query,
// write_footer}". Each -out= value gets one concrete Formatter.
package outfmt

import (
	"io"

	"github.com/tilealign/tilealign/align"
	"github.com/tilealign/tilealign/seqio"
	"github.com/tilealign/tilealign/tlerr"
)

// Formatter is bound to an io.Writer (a worker's output shard) at
// construction and called once per query in file order (spec.md §4.3
// "writes results to its sink").
type Formatter interface {
	WriteHeader() error
	WriteAlignment(query, target *seqio.Sequence, aln align.Alignment) error
	FlushQuery() error
	WriteFooter() error
}

// New builds the Formatter named by -out=. Only psl (the default) and
// blast8 are implemented; every other name in spec.md's enumerated
// option table (pslx, axt, maf, sim4, wublast, blast, blast9) is
// unsupported and New returns a non-nil error rather than silently
// falling back, matching spec.md §7's configuration-error taxonomy.
func New(name string, w io.Writer, noHead bool) (Formatter, error) {
	switch name {
	case "", "psl":
		return &pslFormatter{w: w, noHead: noHead}, nil
	case "blast8":
		return &blast8Formatter{w: w, noHead: noHead}, nil
	default:
		return nil, errUnsupportedFormat(name)
	}
}

type unsupportedFormatError struct{ name string }

func (e unsupportedFormatError) Error() string { return "outfmt: unsupported -out format " + e.name }

func errUnsupportedFormat(name string) error {
	return tlerr.NewConfig("%s", unsupportedFormatError{name}.Error())
}

func strand(forward bool) string {
	if forward {
		return "+"
	}
	return "-"
}
