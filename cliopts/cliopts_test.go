package cliopts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesProteinDefaults(t *testing.T) {
	o, err := Parse([]string{"-prot", "db.fa", "q.fa", "out.psl"})
	require.NoError(t, err)
	assert.Equal(t, 5, o.TileSize)
	assert.Equal(t, 25.0, o.MinIdentity)
	assert.Equal(t, "db.fa", o.Database)
	assert.Equal(t, "out.psl", o.Output)
}

func TestParseAppliesDNADefaults(t *testing.T) {
	o, err := Parse([]string{"db.fa", "q.fa", "out.psl"})
	require.NoError(t, err)
	assert.Equal(t, 11, o.TileSize)
	assert.Equal(t, 90.0, o.MinIdentity)
}

func TestParseRejectsWrongArgCount(t *testing.T) {
	_, err := Parse([]string{"db.fa", "q.fa"})
	assert.Error(t, err)
}

func TestValidateRejectsMinMatchBelowOne(t *testing.T) {
	o := &Options{TargetType: "dna", QueryType: "dna", MinMatch: 0, Output: "out.psl"}
	assert.Error(t, o.Validate())
}

func TestValidateRejectsConflictingMaskRepeats(t *testing.T) {
	o := &Options{TargetType: "dna", QueryType: "dna", MinMatch: 1, Mask: "lower", Repeats: "upper", Output: "out.psl"}
	assert.Error(t, o.Validate())
}

func TestValidateRejectsStdinOutputWithThreads(t *testing.T) {
	o := &Options{TargetType: "dna", QueryType: "dna", MinMatch: 1, Output: "stdin", Threads: 4}
	assert.Error(t, o.Validate())
}

func TestValidateRejectsOutputlessThreadedRun(t *testing.T) {
	o := &Options{TargetType: "dna", QueryType: "dna", MinMatch: 1, Output: "", Threads: 2}
	assert.Error(t, o.Validate())
}

func TestValidateAcceptsProteinQueryAgainstTranslatedTarget(t *testing.T) {
	o := &Options{TargetType: "dnax", QueryType: "prot", MinMatch: 1, Output: "out.psl"}
	assert.NoError(t, o.Validate())
}
