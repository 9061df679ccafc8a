package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowestEvidence(t *testing.T) {
	seq := []float64{-0.5, -3, -1, -7, -2, -0.25, -4, -1.5, -6, -0.75}

	// ceil(0.2*10) = 2
	assert.Equal(t, []int{3, 8}, LowestEvidence(seq))

	// ceil(0.2*6) = 2
	assert.Equal(t, []int{1, 4}, LowestEvidence([]float64{-1, -5, -1, -1, -4, -1}))

	assert.Equal(t, []int{0}, LowestEvidence([]float64{-2}))
	assert.Empty(t, LowestEvidence(nil))
}

func TestLowestEvidenceTiesPreferLowerIndex(t *testing.T) {
	seq := []float64{-1, -2, -1, -2, -2, -1, -2, -1, -1, -1, -1}

	// ceil(0.2*11) = 3 of the four -2 values
	assert.Equal(t, []int{1, 3, 4}, LowestEvidence(seq))

	flat := []float64{-1, -1, -1, -1, -1}
	assert.Equal(t, []int{0}, LowestEvidence(flat))
}

func TestLowestEvidenceIsIndependentOfScoringK(t *testing.T) {
	seq := make([]float64, 100)
	for i := range seq {
		seq[i] = -float64(i)
	}

	evidence := LowestEvidence(seq)
	assert.Len(t, evidence, 20)
	assert.Equal(t, 80, evidence[0])
	assert.Equal(t, 99, evidence[19])
}

func TestLowestN(t *testing.T) {
	seq := []float64{-3, -1, -2}
	assert.Equal(t, []int{0, 2}, LowestN(seq, 2))
	assert.Equal(t, []int{0, 1, 2}, LowestN(seq, 10))
	assert.Empty(t, LowestN(seq, 0))
	assert.Empty(t, LowestN(seq, -1))
}
