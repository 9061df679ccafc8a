package scoring

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// ChunkLogProbFunc returns the log-probabilities for one chunk of tokens,
// computed on that chunk in isolation.
type ChunkLogProbFunc[T any] func(ctx context.Context, chunk []T) ([]float64, error)

// ChunkResult is the text-level aggregate of per-chunk scores.
type ChunkResult struct {
	MaxScore float64   `json:"max_score"`
	Scores   []float64 `json:"chunk_scores"`
	Indices  []int     `json:"chunk_indices"`
}

type chunkConfig struct {
	concurrency int
}

type ChunkOption func(*chunkConfig)

// WithConcurrency bounds how many chunks are scored at once.
func WithConcurrency(n int) ChunkOption {
	return func(c *chunkConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Chunks splits tokens into contiguous pieces of at most size elements.
func Chunks[T any](tokens []T, size int) [][]T {
	chunks := make([][]T, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		chunks = append(chunks, tokens[start:end])
	}
	return chunks
}

// ChunkedScore splits tokens into chunks of chunkSize, scores every chunk with
// MinKPercent(ChunkKPercent) over the log-probabilities fn returns for it and
// reports the maximum chunk score. With no tokens MaxScore is -Inf.
func ChunkedScore[T any](ctx context.Context, tokens []T, chunkSize int, fn ChunkLogProbFunc[T], opts ...ChunkOption) (ChunkResult, error) {
	if chunkSize <= 0 {
		return ChunkResult{}, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidParameter, chunkSize)
	}
	if fn == nil {
		return ChunkResult{}, fmt.Errorf("%w: chunk log-prob func is required", ErrInvalidParameter)
	}

	cfg := chunkConfig{concurrency: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	chunks := Chunks(tokens, chunkSize)
	scores := make([]float64, len(chunks))
	indices := make([]int, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i, chunk := range chunks {
		indices[i] = i
		g.Go(func() error {
			lps, err := fn(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			score, err := MinKPercent(lps, ChunkKPercent)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ChunkResult{}, err
	}

	maxScore := math.Inf(-1)
	if len(scores) > 0 {
		maxScore = floats.Max(scores)
	}

	return ChunkResult{
		MaxScore: maxScore,
		Scores:   scores,
		Indices:  indices,
	}, nil
}
