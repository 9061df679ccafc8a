package scoring

import (
	"math"
	"slices"
)

// Percentile returns the p-quantile (p in [0, 1]) of x, linearly interpolating
// between the closest ranks of the sorted values. NaN is returned for an empty x.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	sorted := slices.Clone(x)
	slices.Sort(sorted)

	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	p = math.Max(0, math.Min(1, p))
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}

	return lerp(sorted[lo], sorted[lo+1], h-float64(lo))
}

// lerp interpolates from the nearer endpoint so that t == 0 and t == 1 return
// the endpoints exactly.
func lerp(a, b, t float64) float64 {
	if t == 0 {
		return a
	}
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}
