package detector

import (
	"math"

	"github.com/tensorplex-labs/cognisight/internal/scoring"
	"github.com/tensorplex-labs/cognisight/internal/store"
)

// RunRecord converts an evaluation into a storable run. KPercent is NaN for
// adaptive methods, which do not use it.
func (d *Detector) RunRecord(eval Evaluation) *store.Run {
	run := &store.Run{
		Model:       d.provider.Model(),
		Method:      scoring.MethodMinK,
		MethodParam: math.NaN(),
		KPercent:    d.scorer.KPercent,
		TargetFPR:   eval.TargetFPR,
		Samples:     len(eval.Scores) + len(eval.Failures),
		Failures:    len(eval.Failures),
		Threshold:   eval.Threshold,
		TPR:         eval.TPR,
		Precision:   eval.Confusion.Precision,
		Recall:      eval.Confusion.Recall,
		F1:          eval.Confusion.F1,
		AUC:         eval.AUC,
		Scores:      eval.Scores,
		Labels:      eval.Labels,
	}

	switch m := d.scorer.Method.(type) {
	case scoring.ZScore:
		run.Method, run.MethodParam, run.KPercent = m.Name(), m.Thresh, math.NaN()
	case scoring.IQR:
		run.Method, run.MethodParam, run.KPercent = m.Name(), m.Alpha, math.NaN()
	}
	return run
}
