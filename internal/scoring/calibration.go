package scoring

import "fmt"

// IsFlagged reports whether score falls on the positive side of threshold.
func IsFlagged(score, threshold float64) bool {
	return score <= threshold
}

// CalibrateThreshold picks the threshold at the (1 - targetFPR) percentile of
// the negative (label 0) scores and reports the true positive rate it achieves
// on the label 1 scores. With no positives the rate is 0.
func CalibrateThreshold(scores []float64, labels []int, targetFPR float64) (threshold, tpr float64, err error) {
	if err := validateBatch(scores, labels); err != nil {
		return 0, 0, err
	}
	if !(targetFPR > 0 && targetFPR < 1) {
		return 0, 0, fmt.Errorf("%w: target fpr must be in (0, 1), got %v", ErrInvalidParameter, targetFPR)
	}

	negatives := make([]float64, 0, len(scores))
	for i, s := range scores {
		if labels[i] == 0 {
			negatives = append(negatives, s)
		}
	}
	if len(negatives) == 0 {
		return 0, 0, fmt.Errorf("%w: no negative examples to calibrate on", ErrInsufficientData)
	}

	threshold = Percentile(negatives, 1-targetFPR)

	var positives, hits int
	for i, s := range scores {
		if labels[i] != 1 {
			continue
		}
		positives++
		if IsFlagged(s, threshold) {
			hits++
		}
	}

	return threshold, float64(hits) / float64(max(1, positives)), nil
}

func validateBatch(scores []float64, labels []int) error {
	if len(scores) != len(labels) {
		return fmt.Errorf("%w: %d scores but %d labels", ErrInvalidParameter, len(scores), len(labels))
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return fmt.Errorf("%w: label at %d must be 0 or 1, got %d", ErrInvalidParameter, i, l)
		}
	}
	return nil
}
