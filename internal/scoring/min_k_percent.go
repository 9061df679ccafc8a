package scoring

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ResolveFraction converts a k value into a fraction of the sequence length.
// Values above 1 are percentages, anything else is taken as a fraction.
func ResolveFraction(kPercent float64) (float64, error) {
	frac := kPercent
	if kPercent > 1 {
		frac = kPercent / 100.0
	}
	if !(frac > 0) {
		return 0, fmt.Errorf("%w: k percent must be > 0, got %v", ErrInvalidParameter, kPercent)
	}
	return frac, nil
}

// KCount returns clamp(ceil(n*frac), 1, n). The upper clamp happens in float
// space so a huge frac cannot overflow int.
func KCount(n int, frac float64) int {
	kf := math.Ceil(float64(n) * frac)
	if kf >= float64(n) {
		return n
	}
	return max(1, int(kf))
}

// MinKPercent returns the mean of the k lowest log-probabilities in seq.
// An empty seq yields -Inf, the sentinel for "no evidence".
func MinKPercent(seq []float64, kPercent float64) (float64, error) {
	n := len(seq)
	if n == 0 {
		return math.Inf(-1), nil
	}

	frac, err := ResolveFraction(kPercent)
	if err != nil {
		return 0, err
	}
	k := KCount(n, frac)

	bottom := slices.Clone(seq)
	slices.Sort(bottom)

	return floats.Sum(bottom[:k]) / float64(k), nil
}
