package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/scoring"
)

func (s *Server) health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:   "ok",
		Detector: s.detector != nil,
		Store:    s.runs != nil,
	}
	if s.detector != nil {
		resp.Model = s.detector.Model()
	}
	return c.JSON(createResponse(resp, nil))
}

// ScorerFor builds the scorer a score request asks for. An empty or "mink"
// method selects the min-k path.
func ScorerFor(req ScoreRequest) (*scoring.Scorer, error) {
	opts := []scoring.ScorerOption{scoring.WithLogger(log.Logger)}
	if req.KPercent != nil {
		opts = append(opts, scoring.WithKPercent(*req.KPercent))
	}

	name := strings.ToLower(strings.TrimSpace(req.Method))
	if name != "" && name != scoring.MethodMinK {
		method, err := scoring.ParseMethod(name, req.Param)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scoring.WithMethod(method))
	}
	return scoring.NewScorer(opts...), nil
}

func (s *Server) score(c *fiber.Ctx, req ScoreRequest) (ScoreResponse, error) {
	scorer, err := ScorerFor(req)
	if err != nil {
		return ScoreResponse{}, err
	}
	res, err := scorer.Score(req.LogProbs)
	if err != nil {
		return ScoreResponse{}, err
	}
	return ToScoreResponse(res), nil
}

func (s *Server) analyze(c *fiber.Ctx, req TextRequest) (AnalyzeResponse, error) {
	if s.detector == nil {
		return AnalyzeResponse{}, fmt.Errorf("%w: no log-prob provider configured", ErrUnavailable)
	}

	analysis, err := s.detector.Analyze(c.UserContext(), req.Text)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	resp := AnalyzeResponse{
		Tokens:   analysis.Tokens,
		LogProbs: analysis.LogProbs,
		Result:   ToScoreResponse(analysis.Result),
	}
	if analysis.Chunks != nil {
		chunks := ToChunkResponse(*analysis.Chunks)
		resp.Chunks = &chunks
	}
	return resp, nil
}

func (s *Server) chunked(c *fiber.Ctx, req TextRequest) (ChunkResponse, error) {
	if s.detector == nil {
		return ChunkResponse{}, fmt.Errorf("%w: no log-prob provider configured", ErrUnavailable)
	}

	res, err := s.detector.Chunked(c.UserContext(), req.Text)
	if err != nil {
		return ChunkResponse{}, err
	}
	return ToChunkResponse(res), nil
}

func (s *Server) calibrate(c *fiber.Ctx, req CalibrateRequest) (CalibrateResponse, error) {
	return Calibrate(req)
}

// Calibrate finds the threshold for req.TargetFPR and reports metrics at it.
// AUC is null when only one class is present.
func Calibrate(req CalibrateRequest) (CalibrateResponse, error) {
	thr, tpr, err := scoring.CalibrateThreshold(req.Scores, req.Labels, req.TargetFPR)
	if err != nil {
		return CalibrateResponse{}, err
	}

	confusion, err := scoring.Evaluate(req.Scores, req.Labels, thr)
	if err != nil {
		return CalibrateResponse{}, err
	}

	resp := CalibrateResponse{
		Threshold: finite(thr),
		TPR:       tpr,
		Confusion: confusion,
	}
	if auc, err := scoring.AUC(req.Scores, req.Labels); err == nil {
		resp.AUC = finite(auc)
	} else if !errors.Is(err, scoring.ErrInsufficientData) {
		return CalibrateResponse{}, err
	}
	return resp, nil
}

func (s *Server) evaluate(c *fiber.Ctx, req EvaluateRequest) (EvaluateResponse, error) {
	if s.detector == nil {
		return EvaluateResponse{}, fmt.Errorf("%w: no log-prob provider configured", ErrUnavailable)
	}
	if req.Persist && s.runs == nil {
		return EvaluateResponse{}, fmt.Errorf("%w: no run store configured", ErrUnavailable)
	}

	fpr := req.TargetFPR
	if fpr == 0 {
		fpr = s.targetFPR
	}

	eval, err := s.detector.Evaluate(c.UserContext(), req.Samples, fpr)
	if err != nil {
		return EvaluateResponse{}, err
	}

	var runID string
	if req.Persist {
		run := s.detector.RunRecord(eval)
		if err := s.runs.SaveRun(c.UserContext(), run); err != nil {
			return EvaluateResponse{}, err
		}
		runID = run.ID
		log.Info().Str("run_id", runID).Msg("evaluation run saved")
	}

	return ToEvaluateResponse(runID, eval), nil
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	if s.runs == nil {
		return fmt.Errorf("%w: no run store configured", ErrUnavailable)
	}

	limit := c.QueryInt("limit", DefaultRunsLimit)
	runs, err := s.runs.ListRuns(c.UserContext(), limit)
	if err != nil {
		return err
	}

	out := make([]RunResponse, len(runs))
	for i, run := range runs {
		out[i] = ToRunResponse(run, false)
	}
	return c.JSON(createResponse(out, nil))
}

func (s *Server) getRun(c *fiber.Ctx) error {
	if s.runs == nil {
		return fmt.Errorf("%w: no run store configured", ErrUnavailable)
	}

	run, err := s.runs.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(createResponse(ToRunResponse(run, true), nil))
}
