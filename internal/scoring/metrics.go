package scoring

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Confusion summarises flagged predictions against ground-truth labels.
type Confusion struct {
	TruePositives  int     `json:"tp"`
	FalsePositives int     `json:"fp"`
	TrueNegatives  int     `json:"tn"`
	FalseNegatives int     `json:"fn"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// Evaluate classifies every score with IsFlagged and compares the predictions
// to labels. Undefined ratios are reported as 0.
func Evaluate(scores []float64, labels []int, threshold float64) (Confusion, error) {
	if err := validateBatch(scores, labels); err != nil {
		return Confusion{}, err
	}

	var c Confusion
	for i, s := range scores {
		flagged := IsFlagged(s, threshold)
		switch {
		case flagged && labels[i] == 1:
			c.TruePositives++
		case flagged:
			c.FalsePositives++
		case labels[i] == 1:
			c.FalseNegatives++
		default:
			c.TrueNegatives++
		}
	}

	c.Precision = ratio(c.TruePositives, c.TruePositives+c.FalsePositives)
	c.Recall = ratio(c.TruePositives, c.TruePositives+c.FalseNegatives)
	if c.Precision+c.Recall > 0 {
		c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
	}
	return c, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ROCCurve is a receiver operating characteristic curve ordered by increasing FPR.
type ROCCurve struct {
	FPR        []float64 `json:"fpr"`
	TPR        []float64 `json:"tpr"`
	Thresholds []float64 `json:"-"`
}

// ROC builds the curve obtained by treating higher scores as label 1.
func ROC(scores []float64, labels []int) (ROCCurve, error) {
	if err := validateBatch(scores, labels); err != nil {
		return ROCCurve{}, err
	}

	y := slices.Clone(scores)
	classes := make([]bool, len(labels))
	var positives int
	for i, l := range labels {
		classes[i] = l == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return ROCCurve{}, fmt.Errorf("%w: roc needs both positive and negative examples", ErrInsufficientData)
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)

	return ROCCurve{FPR: fpr, TPR: tpr, Thresholds: thresh}, nil
}

// AUC is the area under the curve.
func (c ROCCurve) AUC() float64 {
	if len(c.FPR) < 2 {
		return 0
	}
	return integrate.Trapezoidal(c.FPR, c.TPR)
}

// AUC returns the ROC AUC of scores against labels, higher scores ranking as label 1.
func AUC(scores []float64, labels []int) (float64, error) {
	curve, err := ROC(scores, labels)
	if err != nil {
		return 0, err
	}
	return curve.AUC(), nil
}
