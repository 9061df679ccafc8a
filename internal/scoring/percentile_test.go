package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	x := []float64{4, 1, 3, 2}

	assert.Equal(t, 1.0, Percentile(x, 0))
	assert.Equal(t, 4.0, Percentile(x, 1))
	assert.InDelta(t, 1.75, Percentile(x, 0.25), 1e-12)
	assert.InDelta(t, 2.5, Percentile(x, 0.5), 1e-12)
	assert.InDelta(t, 3.25, Percentile(x, 0.75), 1e-12)

	assert.Equal(t, 7.0, Percentile([]float64{7}, 0.3))
	assert.True(t, math.IsNaN(Percentile(nil, 0.5)))

	// input untouched
	assert.Equal(t, []float64{4, 1, 3, 2}, x)
}

func TestPercentileOfTwo(t *testing.T) {
	assert.InDelta(t, 0.65, Percentile([]float64{0.9, 0.4}, 0.5), 1e-12)
	assert.InDelta(t, 0.875, Percentile([]float64{0.4, 0.9}, 0.95), 1e-12)
}
