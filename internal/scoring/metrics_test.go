package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.9}
	labels := []int{1, 1, 1, 0, 0}

	c, err := Evaluate(scores, labels, 0.65)
	require.NoError(t, err)

	assert.Equal(t, 3, c.TruePositives)
	assert.Equal(t, 1, c.FalsePositives)
	assert.Equal(t, 1, c.TrueNegatives)
	assert.Equal(t, 0, c.FalseNegatives)
	assert.InDelta(t, 0.75, c.Precision, 1e-12)
	assert.InDelta(t, 1.0, c.Recall, 1e-12)
	assert.InDelta(t, 6.0/7.0, c.F1, 1e-12)
}

func TestEvaluateNothingFlagged(t *testing.T) {
	c, err := Evaluate([]float64{-1, -2}, []int{1, 0}, -10)
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.Precision)
	assert.Equal(t, 0.0, c.Recall)
	assert.Equal(t, 0.0, c.F1)
	assert.Equal(t, 1, c.FalseNegatives)
	assert.Equal(t, 1, c.TrueNegatives)
}

func TestEvaluateInvalid(t *testing.T) {
	_, err := Evaluate([]float64{1}, []int{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Evaluate([]float64{1}, []int{2}, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		labels []int
		want   float64
	}{
		{
			name:   "members score lower",
			scores: []float64{0.1, 0.2, 0.3, 0.4, 0.9},
			labels: []int{1, 1, 1, 0, 0},
			want:   0,
		},
		{
			name:   "members score higher",
			scores: []float64{-5, -4, -1, -0.5},
			labels: []int{0, 0, 1, 1},
			want:   1,
		},
		{
			name:   "all tied",
			scores: []float64{-1, -1, -1, -1},
			labels: []int{0, 1, 0, 1},
			want:   0.5,
		},
		{
			name:   "one swapped pair",
			scores: []float64{1, 2, 3, 4},
			labels: []int{0, 1, 0, 1},
			want:   0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.scores, tt.labels)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestROCNeedsBothClasses(t *testing.T) {
	_, err := ROC([]float64{1, 2}, []int{1, 1})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = AUC([]float64{1, 2}, []int{0, 0})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestROCDoesNotMutateInput(t *testing.T) {
	scores := []float64{3, 1, 2}
	labels := []int{1, 0, 1}

	curve, err := ROC(scores, labels)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 1, 2}, scores)
	assert.Equal(t, []int{1, 0, 1}, labels)
	assert.Equal(t, len(curve.FPR), len(curve.TPR))
	assert.Equal(t, 0.0, curve.FPR[0])
	assert.Equal(t, 1.0, curve.FPR[len(curve.FPR)-1])
}
