package scoring

import (
	"cmp"
	"math"
	"slices"
)

// LowestEvidence returns, in ascending position order, the indices of the
// ceil(EvidenceFraction*n) lowest values in seq. Equal values keep their
// input order, so the lower index wins a tie at the boundary.
func LowestEvidence(seq []float64) []int {
	return LowestN(seq, int(math.Ceil(EvidenceFraction*float64(len(seq)))))
}

// LowestN returns the ascending positions of the k lowest values in seq.
func LowestN(seq []float64, k int) []int {
	k = max(0, min(k, len(seq)))
	if k == 0 {
		return []int{}
	}

	order := make([]int, len(seq))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(seq[a], seq[b])
	})

	idx := slices.Clone(order[:k])
	slices.Sort(idx)
	return idx
}
