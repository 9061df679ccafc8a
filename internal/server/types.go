package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/dataset"
	"github.com/tensorplex-labs/cognisight/internal/detector"
	"github.com/tensorplex-labs/cognisight/internal/scoring"
	"github.com/tensorplex-labs/cognisight/internal/store"
)

const (
	APIKeyHeader string = "x-api-key"

	DefaultBodyLimit = 4 * 1024 * 1024 // 4MB
	DefaultRunsLimit = 50
)

// RunStore is the persistence the server needs for evaluation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *store.Run) error
	GetRun(ctx context.Context, id string) (store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Server exposes scoring over HTTP. Routes that need a model answer 503
// when no detector is configured, run routes likewise without a store.
type Server struct {
	App       *fiber.App
	config    *config.ServerEnvConfig
	detector  *detector.Detector
	runs      RunStore
	targetFPR float64
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// RouterHandler is a generic handler function type
type RouterHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// JSON cannot carry infinities or NaN, so every float that can be non-finite
// is a pointer and serialises as null.

// ScoreRequest leaves Param and KPercent nil to use the defaults. An explicit
// zero is passed through and validated like any other value.
type ScoreRequest struct {
	LogProbs []float64 `json:"log_probs"`
	Method   string    `json:"method,omitempty"`
	Param    *float64  `json:"param,omitempty"`
	KPercent *float64  `json:"k_percent,omitempty"`
}

type ScoreResponse struct {
	Score    *float64 `json:"score"`
	Evidence []int    `json:"evidence"`
	Method   string   `json:"method"`
	Fallback bool     `json:"fallback"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type ChunkResponse struct {
	MaxScore *float64   `json:"max_score"`
	Scores   []*float64 `json:"chunk_scores"`
	Indices  []int      `json:"chunk_indices"`
}

type AnalyzeResponse struct {
	Tokens   []string       `json:"tokens"`
	LogProbs []float64      `json:"log_probs"`
	Result   ScoreResponse  `json:"result"`
	Chunks   *ChunkResponse `json:"chunks,omitempty"`
}

type CalibrateRequest struct {
	Scores    []float64 `json:"scores"`
	Labels    []int     `json:"labels"`
	TargetFPR float64   `json:"target_fpr"`
}

type CalibrateResponse struct {
	Threshold *float64          `json:"threshold"`
	TPR       float64           `json:"tpr"`
	Confusion scoring.Confusion `json:"confusion"`
	AUC       *float64          `json:"auc"`
}

type EvaluateRequest struct {
	Samples   []dataset.Sample `json:"samples"`
	TargetFPR float64          `json:"target_fpr,omitempty"`
	Persist   bool             `json:"persist,omitempty"`
}

type EvaluateResponse struct {
	RunID     string                   `json:"run_id,omitempty"`
	Indices   []int                    `json:"indices"`
	Scores    []*float64               `json:"scores"`
	Labels    []int                    `json:"labels"`
	Failures  []detector.SampleFailure `json:"failures"`
	TargetFPR float64                  `json:"target_fpr"`
	Threshold *float64                 `json:"threshold"`
	TPR       float64                  `json:"tpr"`
	Confusion scoring.Confusion        `json:"confusion"`
	AUC       *float64                 `json:"auc"`
}

type RunResponse struct {
	ID          string     `json:"id"`
	CreatedAt   int64      `json:"created_at"`
	Model       string     `json:"model"`
	Method      string     `json:"method"`
	MethodParam *float64   `json:"method_param"`
	KPercent    *float64   `json:"k_percent"`
	TargetFPR   *float64   `json:"target_fpr"`
	Samples     int        `json:"samples"`
	Failures    int        `json:"failures"`
	Threshold   *float64   `json:"threshold"`
	TPR         *float64   `json:"tpr"`
	Precision   *float64   `json:"precision"`
	Recall      *float64   `json:"recall"`
	F1          *float64   `json:"f1"`
	AUC         *float64   `json:"auc"`
	Scores      []*float64 `json:"scores,omitempty"`
	Labels      []int      `json:"labels,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Detector bool   `json:"detector"`
	Store    bool   `json:"store"`
}
