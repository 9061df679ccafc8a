package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFlagged(t *testing.T) {
	assert.True(t, IsFlagged(-3, -2))
	assert.True(t, IsFlagged(-2, -2))
	assert.False(t, IsFlagged(-1, -2))
}

func TestCalibrateThreshold(t *testing.T) {
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.9}
	labels := []int{1, 1, 1, 0, 0}

	threshold, tpr, err := CalibrateThreshold(scores, labels, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.65, threshold, 1e-12)
	assert.Equal(t, 1.0, tpr)
}

func TestCalibrateThresholdPartialRecall(t *testing.T) {
	scores := []float64{-3, -1, -0.5, -4, -2, -6, -5}
	labels := []int{1, 1, 1, 0, 0, 0, 0}

	// negatives sorted: -6 -5 -4 -2, 75th percentile -> h = 2.25 -> -4 + 0.25*2 = -3.5
	threshold, tpr, err := CalibrateThreshold(scores, labels, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, -3.5, threshold, 1e-12)
	assert.InDelta(t, 0.0, tpr, 1e-12)

	threshold, tpr, err = CalibrateThreshold(scores, labels, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, -2.3, threshold, 1e-9)
	assert.InDelta(t, 1.0/3, tpr, 1e-12)
}

func TestCalibrateThresholdNoPositives(t *testing.T) {
	threshold, tpr, err := CalibrateThreshold([]float64{-1, -2, -3}, []int{0, 0, 0}, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, threshold, 1e-12)
	assert.Equal(t, 0.0, tpr)
}

func TestCalibrateThresholdErrors(t *testing.T) {
	_, _, err := CalibrateThreshold([]float64{0.1, 0.2}, []int{1, 1}, 0.05)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, _, err = CalibrateThreshold(nil, nil, 0.05)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, _, err = CalibrateThreshold([]float64{0.1}, []int{0, 1}, 0.05)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, _, err = CalibrateThreshold([]float64{0.1, 0.2}, []int{0, 2}, 0.05)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	for _, fpr := range []float64{0, 1, -0.1, 1.5} {
		_, _, err = CalibrateThreshold([]float64{0.1, 0.2}, []int{0, 1}, fpr)
		assert.ErrorIs(t, err, ErrInvalidParameter, "fpr=%v", fpr)
	}
}
