package scoring

import (
	"github.com/rs/zerolog"
)

// Scorer bundles a scoring configuration with an optional diagnostics logger.
// The zero logger discards everything.
type Scorer struct {
	Method   Method
	KPercent float64
	logger   zerolog.Logger
}

type ScorerOption func(*Scorer)

// WithMethod selects an adaptive outlier method. A nil method keeps the min-k path.
func WithMethod(method Method) ScorerOption {
	return func(s *Scorer) {
		s.Method = method
	}
}

func WithKPercent(kPercent float64) ScorerOption {
	return func(s *Scorer) {
		s.KPercent = kPercent
	}
}

// WithLogger receives per-call diagnostics at debug level.
func WithLogger(logger zerolog.Logger) ScorerOption {
	return func(s *Scorer) {
		s.logger = logger
	}
}

func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		KPercent: DefaultKPercent,
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the membership score of seq and the evidence behind it.
func (s *Scorer) Score(seq []float64) (Result, error) {
	if s.Method != nil {
		return s.adaptive(seq)
	}

	score, err := MinKPercent(seq, s.KPercent)
	if err != nil {
		return Result{}, err
	}

	evidence := LowestEvidence(seq)
	s.logger.Debug().
		Int("n", len(seq)).
		Float64("k_percent", s.KPercent).
		Int("k", kForLog(len(seq), s.KPercent)).
		Float64("score", score).
		Ints("evidence", evidence).
		Msg("min-k score")

	return Result{
		Score:    score,
		Evidence: evidence,
		Method:   MethodMinK,
	}, nil
}

func (s *Scorer) adaptive(seq []float64) (Result, error) {
	score, evidence, fallback, err := adaptiveScore(seq, s.Method)
	if err != nil {
		return Result{}, err
	}

	s.logger.Debug().
		Str("method", s.Method.Name()).
		Int("n", len(seq)).
		Int("outliers", len(evidence)).
		Bool("fallback", fallback).
		Float64("score", score).
		Msg("adaptive score")

	return Result{
		Score:    score,
		Evidence: evidence,
		Method:   s.Method.Name(),
		Fallback: fallback,
	}, nil
}

func kForLog(n int, kPercent float64) int {
	frac, err := ResolveFraction(kPercent)
	if err != nil || n == 0 {
		return 0
	}
	return KCount(n, frac)
}
