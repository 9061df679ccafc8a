package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/dataset"
	"github.com/tensorplex-labs/cognisight/internal/detector"
	"github.com/tensorplex-labs/cognisight/internal/logprob"
	"github.com/tensorplex-labs/cognisight/internal/server"
	"github.com/tensorplex-labs/cognisight/internal/store"
)

type lengthProvider struct{}

func (lengthProvider) Model() string { return "length" }

// each word scores minus its length
func (lengthProvider) TokenLogProbs(_ context.Context, text string) (logprob.Result, error) {
	words := strings.Fields(text)
	res := logprob.Result{Tokens: words, LogProbs: make([]float64, len(words))}
	for i, w := range words {
		res.LogProbs[i] = -float64(len(w))
	}
	return res, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	d, err := detector.New(lengthProvider{}, detector.WithChunkSize(3))
	require.NoError(t, err)

	srv := server.NewServer(&config.ServerEnvConfig{APIKey: "k"}, server.WithDetector(d), server.WithStore(st))
	ts := httptest.NewServer(adaptor.FiberApp(srv.App))
	t.Cleanup(ts.Close)
	return ts
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	c, err := NewClient(&ClientConfig{BaseURL: "http://localhost"})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 30*time.Second, c.config.Timeout)
}

func TestClientRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	for _, compressed := range []bool{false, true} {
		c, err := NewClient(&ClientConfig{BaseURL: ts.URL, APIKey: "k", ZstdCompression: compressed})
		require.NoError(t, err)
		defer c.Close()

		ctx := context.Background()

		health, err := c.Health(ctx)
		require.NoError(t, err)
		assert.Equal(t, "length", health.Model)

		score, err := c.Score(ctx, server.ScoreRequest{LogProbs: []float64{-1, -2, -3, -4}})
		require.NoError(t, err)
		require.NotNil(t, score.Score)
		assert.Equal(t, -3.5, *score.Score)

		analysis, err := c.Analyze(ctx, "a bb ccc dddd")
		require.NoError(t, err)
		assert.Equal(t, []float64{-1, -2, -3, -4}, analysis.LogProbs)
		require.NotNil(t, analysis.Chunks)

		chunks, err := c.Chunked(ctx, "a bb ccc dddd")
		require.NoError(t, err)
		assert.Len(t, chunks.Scores, 2)

		cal, err := c.Calibrate(ctx, server.CalibrateRequest{
			Scores:    []float64{0.1, 0.2, 0.3, 0.4, 0.9},
			Labels:    []int{1, 1, 1, 0, 0},
			TargetFPR: 0.5,
		})
		require.NoError(t, err)
		require.NotNil(t, cal.Threshold)
		assert.InDelta(t, 0.65, *cal.Threshold, 1e-12)

		eval, err := c.Evaluate(ctx, server.EvaluateRequest{
			Samples: []dataset.Sample{
				{Text: "a b", Label: 0},
				{Text: "longword", Label: 1},
			},
			TargetFPR: 0.5,
			Persist:   true,
		})
		require.NoError(t, err)
		require.NotEmpty(t, eval.RunID)

		run, err := c.GetRun(ctx, eval.RunID)
		require.NoError(t, err)
		assert.Equal(t, eval.RunID, run.ID)

		runs, err := c.ListRuns(ctx, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, runs)
	}
}

func TestClientErrors(t *testing.T) {
	ts := newTestServer(t)

	c, err := NewClient(&ClientConfig{BaseURL: ts.URL, APIKey: "k"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Score(context.Background(), server.ScoreRequest{LogProbs: []float64{-1}, Method: "nope"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = c.GetRun(context.Background(), "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	unauthorized, err := NewClient(&ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	defer unauthorized.Close()

	_, err = unauthorized.Score(context.Background(), server.ScoreRequest{LogProbs: []float64{-1}})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
