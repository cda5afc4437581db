// Package cliopts parses and validates the command-line options of
// spec.md §6 into the immutable parameter values the rest of the tool
// consumes, the way cmd/bio-fusion/main.go in the teacher builds a flags
// struct with the standard flag package and threads it explicitly into
// its constructors (spec.md §9 "Global configuration").
package cliopts

import (
	"flag"

	"github.com/tilealign/tilealign/align"
	"github.com/tilealign/tilealign/tileindex"
	"github.com/tilealign/tilealign/tlerr"
)

// Options holds every flag in spec.md §6's option table plus the three
// positional arguments (database, query, output).
type Options struct {
	Database string
	Query    string
	Output   string

	TargetType string // dna|prot|dnax
	QueryType  string // dna|rna|prot|dnax|rnax
	Prot       bool

	OOC     string
	MakeOOC string

	TileSize int
	StepSize int
	OneOff   bool

	MinMatch    int
	MinScore    int
	MinIdentity float64
	MaxGap      int
	MaxIntron   int
	RepMatch    int

	Mask             string // lower|upper|out|FILE
	QMask            string // lower|upper
	Repeats          string
	MinRepDivergence float64

	TrimT     bool
	NoTrimA   bool
	TrimHardA bool

	FastMap        bool
	Fine           bool
	ExtendThroughN bool

	Out    string
	NoHead bool
	Dots   int

	Threads int
}

// defaultsForProtein gives the tileSize/minIdentity defaults, which depend
// on -prot/-t, applied in
// Parse after the flag set resolves sequence types (spec.md §6 defaults
// "11 DNA / 5 protein" and "90 DNA / 25 protein").
func defaultsForProtein(isProtein bool) (tileSize int, minIdentity float64) {
	if isProtein {
		return 5, 25
	}
	return 11, 90
}

// Parse builds a flag.FlagSet matching spec.md §6's table and parses
// args (typically os.Args[1:]). Flags may appear before, between or
// after the three positional arguments, so spec.md's "RUNNER -n N TOOL
// database query [options] output" invocation shape parses as written.
func Parse(args []string) (*Options, error) {
	fs := flag.NewFlagSet("tilealign", flag.ContinueOnError)
	o := &Options{}

	fs.StringVar(&o.TargetType, "t", "dna", "target sequence type: dna|prot|dnax")
	fs.StringVar(&o.QueryType, "q", "dna", "query sequence type: dna|rna|prot|dnax|rnax")
	fs.BoolVar(&o.Prot, "prot", false, "shorthand for -t=prot -q=prot")
	fs.StringVar(&o.OOC, "ooc", "", "load over-represented tile list from file")
	fs.StringVar(&o.MakeOOC, "makeOoc", "", "build ooc from target then exit")
	fs.IntVar(&o.TileSize, "tileSize", 0, "k-mer length (default 11 DNA / 5 protein)")
	fs.IntVar(&o.StepSize, "stepSize", 0, "index stride (default = tileSize)")
	fs.BoolVar(&o.OneOff, "oneOff", false, "permit one mismatch in tile lookup")
	fs.IntVar(&o.MinMatch, "minMatch", 2, "min seeds per clump")
	fs.IntVar(&o.MinScore, "minScore", 30, "min alignment score")
	fs.Float64Var(&o.MinIdentity, "minIdentity", 0, "min percent identity (default 90 DNA / 25 protein)")
	fs.IntVar(&o.MaxGap, "maxGap", 2, "max gap between seeds in a clump")
	fs.IntVar(&o.MaxIntron, "maxIntron", 750000, "max intron span")
	fs.IntVar(&o.RepMatch, "repMatch", 0, "over-representation threshold")
	fs.StringVar(&o.Mask, "mask", "", "target repeat mask source: lower|upper|out|FILE")
	fs.StringVar(&o.QMask, "qMask", "", "query mask source: lower|upper")
	fs.StringVar(&o.Repeats, "repeats", "", "report repeat overlaps separately")
	fs.Float64Var(&o.MinRepDivergence, "minRepDivergence", 0, "unmask repeats at least this divergent (%)")
	fs.BoolVar(&o.TrimT, "trimT", false, "trim leading poly-T of query")
	fs.BoolVar(&o.NoTrimA, "noTrimA", false, "don't trim trailing poly-A of query")
	fs.BoolVar(&o.TrimHardA, "trimHardA", false, "also shrink reported query size")
	fs.BoolVar(&o.FastMap, "fastMap", false, "strict-fast DNA/DNA mode")
	fs.BoolVar(&o.Fine, "fine", false, "extra small-exon detection")
	fs.BoolVar(&o.ExtendThroughN, "extendThroughN", false, "extension may cross ambiguous runs")
	fs.StringVar(&o.Out, "out", "psl", "output format: psl|pslx|axt|maf|sim4|wublast|blast|blast8|blast9")
	fs.BoolVar(&o.NoHead, "noHead", false, "omit output header")
	fs.IntVar(&o.Dots, "dots", 0, "progress dots every N queries")
	fs.IntVar(&o.Threads, "threads", 1, "worker threads in this process")

	var rest []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		rest = append(rest, args[0])
		args = args[1:]
	}
	if o.Prot {
		o.TargetType, o.QueryType = "prot", "prot"
	}

	isProtein := o.TargetType == "prot"
	defTile, defIdent := defaultsForProtein(isProtein)
	if o.TileSize == 0 {
		o.TileSize = defTile
	}
	if o.MinIdentity == 0 {
		o.MinIdentity = defIdent
	}

	if len(rest) != 3 {
		return nil, tlerr.NewConfig("expected 3 positional arguments (database query output), got %d", len(rest))
	}
	o.Database, o.Query, o.Output = rest[0], rest[1], rest[2]

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate checks the configuration-error conditions spec.md §7 names
// explicitly: incompatible type combinations, out-of-range numeric
// options, conflicting mask/repeats, and output-vs-threads compatibility.
func (o *Options) Validate() error {
	switch o.TargetType {
	case "dna", "prot", "dnax":
	default:
		return tlerr.NewConfig("invalid -t=%s", o.TargetType)
	}
	switch o.QueryType {
	case "dna", "rna", "prot", "dnax", "rnax":
	default:
		return tlerr.NewConfig("invalid -q=%s", o.QueryType)
	}
	targetIsProtein := o.TargetType == "prot"
	queryIsProtein := o.QueryType == "prot"
	if targetIsProtein != queryIsProtein && o.QueryType != "dnax" && o.QueryType != "rnax" && o.TargetType != "dnax" {
		return tlerr.NewConfig("incompatible -t=%s -q=%s: protein must be paired with protein or translated DNA", o.TargetType, o.QueryType)
	}
	if o.MinMatch < 1 {
		return tlerr.NewConfig("minMatch must be >= 1, got %d", o.MinMatch)
	}
	if o.MaxGap > 100 {
		return tlerr.NewConfig("maxGap must be <= 100, got %d", o.MaxGap)
	}
	if o.Output == "" || o.Output == "stdin" {
		if o.Threads > 1 {
			return tlerr.NewConfig("output %q is invalid with threads > 1", o.Output)
		}
	}
	if o.Mask != "" && o.Repeats != "" && o.Mask != o.Repeats {
		return tlerr.NewConfig("-mask=%s conflicts with -repeats=%s", o.Mask, o.Repeats)
	}
	if o.FastMap && o.MaxIntron != 0 && o.MaxIntron != 750000 {
		return tlerr.NewConfig("-fastMap is incompatible with a non-default -maxIntron")
	}
	return nil
}

// AlignParams converts the parsed options into the immutable align.Params
// value (spec.md §9 "Route them through an immutable Params value").
func (o *Options) AlignParams() align.Params {
	isProtein := o.TargetType == "prot"
	base := align.DefaultDNAParams
	if isProtein {
		base = align.DefaultProteinParams
	}
	base.MinMatch = o.MinMatch
	base.MinScore = o.MinScore
	base.MinIdentity = o.MinIdentity
	base.MaxGap = o.MaxGap
	base.MaxIntron = o.MaxIntron
	base.OneOff = o.OneOff
	base.ExtendThroughN = o.ExtendThroughN
	base.FastMap = o.FastMap
	base.Fine = o.Fine
	base.TrimT = o.TrimT
	base.NoTrimA = o.NoTrimA
	base.TrimHardA = o.TrimHardA
	base.QMask = o.QMask
	base.IsProtein = isProtein
	base.TargetTranslated = o.TargetType == "dnax"
	base.QueryTranslated = o.QueryType == "dnax" || o.QueryType == "rnax"
	base.MinRepDivergence = o.MinRepDivergence
	return base
}

// TileIndexParams converts the parsed options into tileindex.Params.
func (o *Options) TileIndexParams() tileindex.Params {
	return tileindex.Params{
		TileSize:         o.TileSize,
		StepSize:         o.StepSize,
		RepMatch:         o.RepMatch,
		OneOff:           o.OneOff,
		IsProtein:        o.TargetType == "prot" || o.TargetType == "dnax",
		MinRepDivergence: o.MinRepDivergence,
	}
}
