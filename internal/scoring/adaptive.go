package scoring

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Adaptive scores seq using an outlier test instead of a fixed k.
//
// The score is the sum of the outlier log-probabilities divided by the full
// sequence length. When the test finds no outliers the score falls back to
// MinKPercent(seq, FallbackKPercent) and the evidence is empty.
func Adaptive(seq []float64, method Method) (float64, []int, error) {
	score, idx, _, err := adaptiveScore(seq, method)
	return score, idx, err
}

func adaptiveScore(seq []float64, method Method) (score float64, idx []int, fallback bool, err error) {
	switch m := method.(type) {
	case ZScore:
		if len(seq) == 0 {
			break
		}
		mu, sigma := stat.PopMeanStdDev(seq, nil)
		if sigma == 0 {
			return mu, []int{}, false, nil
		}
		idx = zscoreOutliers(seq, mu, sigma, m.Thresh)
	case IQR:
		if len(seq) == 0 {
			break
		}
		bounds := IQRBounds(seq, m.Alpha)
		idx, _ = floats.Find(nil, func(v float64) bool { return v <= bounds.Threshold }, seq, -1)
	case nil:
		return 0, nil, false, fmt.Errorf("%w: method is required", ErrInvalidParameter)
	default:
		return 0, nil, false, fmt.Errorf("%w: unsupported method %q", ErrInvalidParameter, method.Name())
	}

	if len(idx) == 0 {
		score, err = MinKPercent(seq, FallbackKPercent)
		if err != nil {
			return 0, nil, false, err
		}
		return score, []int{}, true, nil
	}

	var sum float64
	for _, i := range idx {
		sum += seq[i]
	}
	return sum / float64(len(seq)), idx, false, nil
}

func zscoreOutliers(seq []float64, mu, sigma, thresh float64) []int {
	cut := -math.Abs(thresh)
	idx := make([]int, 0)
	for i, v := range seq {
		if (v-mu)/sigma <= cut {
			idx = append(idx, i)
		}
	}
	return idx
}

// IQRBounds computes the quartiles of seq and the low-tail cut-off q1 - alpha*iqr.
// An empty seq yields NaN for every field.
func IQRBounds(seq []float64, alpha float64) IQRStats {
	if len(seq) == 0 {
		nan := math.NaN()
		return IQRStats{Q1: nan, Q3: nan, IQR: nan, Threshold: nan}
	}

	sorted := slices.Clone(seq)
	slices.Sort(sorted)

	q1 := percentileSorted(sorted, 0.25)
	q3 := percentileSorted(sorted, 0.75)
	iqr := q3 - q1

	return IQRStats{
		Q1:        q1,
		Q3:        q3,
		IQR:       iqr,
		Threshold: q1 - alpha*iqr,
	}
}
