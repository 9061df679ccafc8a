// Package detector runs membership scoring end to end: it fetches token
// log-probabilities from a provider, scores them and calibrates thresholds
// over labeled datasets.
package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/dataset"
	"github.com/tensorplex-labs/cognisight/internal/logprob"
	"github.com/tensorplex-labs/cognisight/internal/scoring"
)

const (
	DefaultChunkSize = 50
	progressEvery    = 50
)

type Detector struct {
	provider    logprob.Provider
	scorer      *scoring.Scorer
	chunkSize   int
	concurrency int
	workers     int
}

type Option func(*Detector)

func WithScorer(s *scoring.Scorer) Option {
	return func(d *Detector) {
		if s != nil {
			d.scorer = s
		}
	}
}

func WithChunkSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithChunkConcurrency bounds concurrent chunk re-scoring within one text.
func WithChunkConcurrency(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithWorkers bounds how many samples Evaluate scores at once.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

func New(provider logprob.Provider, opts ...Option) (*Detector, error) {
	if provider == nil {
		return nil, fmt.Errorf("log-prob provider cannot be nil")
	}

	d := &Detector{
		provider:    provider,
		scorer:      scoring.NewScorer(),
		chunkSize:   DefaultChunkSize,
		concurrency: 1,
		workers:     1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewFromConfig builds a detector from the environment configuration. An
// empty method selects the min-k path.
func NewFromConfig(provider logprob.Provider, cfg config.DetectorEnvConfig) (*Detector, error) {
	if _, err := scoring.ResolveFraction(cfg.KPercent); err != nil {
		return nil, err
	}

	scorerOpts := []scoring.ScorerOption{
		scoring.WithKPercent(cfg.KPercent),
		scoring.WithLogger(log.Logger),
	}
	if cfg.Method != "" {
		param := cfg.MethodParam()
		method, err := scoring.ParseMethod(cfg.Method, &param)
		if err != nil {
			return nil, err
		}
		scorerOpts = append(scorerOpts, scoring.WithMethod(method))
	}

	return New(provider,
		WithScorer(scoring.NewScorer(scorerOpts...)),
		WithChunkSize(cfg.ChunkSize),
		WithChunkConcurrency(cfg.ChunkConcurrency),
		WithWorkers(cfg.Workers),
	)
}

func (d *Detector) Scorer() *scoring.Scorer {
	return d.scorer
}

func (d *Detector) Model() string {
	return d.provider.Model()
}

// Analysis is the scored view of one text. Chunks is set when the text spans
// more than one chunk.
type Analysis struct {
	Tokens   []string             `json:"tokens"`
	LogProbs []float64            `json:"log_probs"`
	Result   scoring.Result       `json:"result"`
	Chunks   *scoring.ChunkResult `json:"chunks,omitempty"`
}

func (d *Detector) Analyze(ctx context.Context, text string) (Analysis, error) {
	lp, err := d.provider.TokenLogProbs(ctx, text)
	if err != nil {
		return Analysis{}, err
	}

	res, err := d.scorer.Score(lp.LogProbs)
	if err != nil {
		return Analysis{}, err
	}

	analysis := Analysis{
		Tokens:   lp.Tokens,
		LogProbs: lp.LogProbs,
		Result:   res,
	}

	if len(lp.Tokens) > d.chunkSize {
		chunks, err := d.chunked(ctx, lp)
		if err != nil {
			return Analysis{}, err
		}
		analysis.Chunks = &chunks
	}

	return analysis, nil
}

// Score returns only the scoring result for text.
func (d *Detector) Score(ctx context.Context, text string) (scoring.Result, error) {
	lp, err := d.provider.TokenLogProbs(ctx, text)
	if err != nil {
		return scoring.Result{}, err
	}
	return d.scorer.Score(lp.LogProbs)
}

// Chunked tokenizes text once and re-scores every chunk of it in isolation.
func (d *Detector) Chunked(ctx context.Context, text string) (scoring.ChunkResult, error) {
	lp, err := d.provider.TokenLogProbs(ctx, text)
	if err != nil {
		return scoring.ChunkResult{}, err
	}
	return d.chunked(ctx, lp)
}

func (d *Detector) chunked(ctx context.Context, lp logprob.Result) (scoring.ChunkResult, error) {
	tokens, fn := logprob.ChunkFunc(d.provider, lp)
	return scoring.ChunkedScore(ctx, tokens, d.chunkSize, fn, scoring.WithConcurrency(d.concurrency))
}

// SampleFailure records a sample that could not be scored.
type SampleFailure struct {
	Index int    `json:"index"`
	Err   string `json:"error"`
}

// Evaluation holds labeled scores and the threshold calibrated over them.
// Indices maps each score back to its sample. AUC is NaN when only one
// class was scored.
type Evaluation struct {
	Indices   []int             `json:"indices"`
	Scores    []float64         `json:"scores"`
	Labels    []int             `json:"labels"`
	Failures  []SampleFailure   `json:"failures"`
	TargetFPR float64           `json:"target_fpr"`
	Threshold float64           `json:"threshold"`
	TPR       float64           `json:"tpr"`
	Confusion scoring.Confusion `json:"confusion"`
	AUC       float64           `json:"auc"`
}

// Evaluate scores every sample, calibrates a threshold for targetFPR on the
// samples that scored successfully and reports metrics at that threshold.
func (d *Detector) Evaluate(ctx context.Context, samples []dataset.Sample, targetFPR float64) (Evaluation, error) {
	scores := make([]float64, len(samples))
	errs := make([]error, len(samples))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	log.Info().Int("samples", len(samples)).Str("model", d.provider.Model()).Msg("evaluating samples")

	for i, sample := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := d.Score(gctx, sample.Text)
			if err != nil {
				errs[i] = err
			} else {
				scores[i] = res.Score
			}
			if n := done.Add(1); n%progressEvery == 0 {
				log.Info().Int64("processed", n).Int("total", len(samples)).Msg("evaluation progress")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, err
	}
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{
		Indices:   []int{},
		Scores:    []float64{},
		Labels:    []int{},
		Failures:  []SampleFailure{},
		TargetFPR: targetFPR,
	}
	for i, err := range errs {
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("sample failed to score")
			eval.Failures = append(eval.Failures, SampleFailure{Index: i, Err: err.Error()})
			continue
		}
		eval.Indices = append(eval.Indices, i)
		eval.Scores = append(eval.Scores, scores[i])
		eval.Labels = append(eval.Labels, samples[i].Label)
	}

	thr, tpr, err := scoring.CalibrateThreshold(eval.Scores, eval.Labels, targetFPR)
	if err != nil {
		return eval, fmt.Errorf("calibrate: %w", err)
	}
	eval.Threshold, eval.TPR = thr, tpr

	eval.Confusion, err = scoring.Evaluate(eval.Scores, eval.Labels, thr)
	if err != nil {
		return eval, err
	}

	eval.AUC, err = scoring.AUC(eval.Scores, eval.Labels)
	if errors.Is(err, scoring.ErrInsufficientData) {
		eval.AUC = math.NaN()
	} else if err != nil {
		return eval, err
	}

	log.Info().
		Float64("target_fpr", targetFPR).
		Float64("threshold", thr).
		Float64("tpr", tpr).
		Float64("precision", eval.Confusion.Precision).
		Float64("recall", eval.Confusion.Recall).
		Float64("f1", eval.Confusion.F1).
		Int("failures", len(eval.Failures)).
		Msg("evaluation complete")

	return eval, nil
}
