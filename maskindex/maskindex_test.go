package maskindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMaskedRespectsDivergenceThreshold(t *testing.T) {
	b := NewBuilder()
	b.Add(0, 10, 20, 5.0)
	b.Add(0, 50, 60, 25.0)
	idx := b.Build()

	assert.True(t, idx.IsMasked(0, 15, 0))
	assert.False(t, idx.IsMasked(0, 25, 0))
	// minRepDivergence=10 should unmask the high-divergence interval (25.0)
	// but leave the low-divergence one (5.0) masked.
	assert.True(t, idx.IsMasked(0, 15, 10))
	assert.False(t, idx.IsMasked(0, 55, 10))
}

func TestIsMaskedPerSequence(t *testing.T) {
	b := NewBuilder()
	b.Add(0, 10, 20, 5.0)
	idx := b.Build()
	assert.False(t, idx.IsMasked(1, 15, 0))
}

func TestNilIndexNeverMasks(t *testing.T) {
	var idx *Index
	assert.False(t, idx.IsMasked(0, 0, 0))
}
