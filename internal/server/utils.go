package server

import (
	"math"

	"github.com/tensorplex-labs/cognisight/internal/detector"
	"github.com/tensorplex-labs/cognisight/internal/scoring"
	"github.com/tensorplex-labs/cognisight/internal/store"
)

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finiteSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}

func ToScoreResponse(res scoring.Result) ScoreResponse {
	evidence := res.Evidence
	if evidence == nil {
		evidence = []int{}
	}
	return ScoreResponse{
		Score:    finite(res.Score),
		Evidence: evidence,
		Method:   res.Method,
		Fallback: res.Fallback,
	}
}

func ToChunkResponse(res scoring.ChunkResult) ChunkResponse {
	return ChunkResponse{
		MaxScore: finite(res.MaxScore),
		Scores:   finiteSlice(res.Scores),
		Indices:  res.Indices,
	}
}

func ToEvaluateResponse(runID string, eval detector.Evaluation) EvaluateResponse {
	return EvaluateResponse{
		RunID:     runID,
		Indices:   eval.Indices,
		Scores:    finiteSlice(eval.Scores),
		Labels:    eval.Labels,
		Failures:  eval.Failures,
		TargetFPR: eval.TargetFPR,
		Threshold: finite(eval.Threshold),
		TPR:       eval.TPR,
		Confusion: eval.Confusion,
		AUC:       finite(eval.AUC),
	}
}

func ToRunResponse(run store.Run, withScores bool) RunResponse {
	resp := RunResponse{
		ID:          run.ID,
		CreatedAt:   run.CreatedAt.Unix(),
		Model:       run.Model,
		Method:      run.Method,
		MethodParam: finite(run.MethodParam),
		KPercent:    finite(run.KPercent),
		TargetFPR:   finite(run.TargetFPR),
		Samples:     run.Samples,
		Failures:    run.Failures,
		Threshold:   finite(run.Threshold),
		TPR:         finite(run.TPR),
		Precision:   finite(run.Precision),
		Recall:      finite(run.Recall),
		F1:          finite(run.F1),
		AUC:         finite(run.AUC),
	}
	if withScores {
		resp.Scores = finiteSlice(run.Scores)
		resp.Labels = run.Labels
	}
	return resp
}
