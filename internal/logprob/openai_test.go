package logprob

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/cognisight/internal/config"
)

func openAIConfig(url string) *config.ProviderEnvConfig {
	return &config.ProviderEnvConfig{
		OpenAIURL:     url,
		OpenAIAPIKey:  "sk-test",
		Model:         "davinci-002",
		ClientTimeout: 5 * time.Second,
	}
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	_, err := NewOpenAIClient(nil)
	assert.Error(t, err)

	_, err = NewOpenAIClient(&config.ProviderEnvConfig{OpenAIURL: "http://localhost"})
	assert.Error(t, err)
}

func TestOpenAITokenLogProbs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req["echo"] != true || req["max_tokens"] != float64(0) || req["logprobs"] != float64(0) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"logprobs":{"tokens":["The"," cat"," sat"],"token_logprobs":[null,-4.5,-2.25]}}]}`))
	}))
	defer ts.Close()

	client, err := NewOpenAIClient(openAIConfig(ts.URL + "/"))
	require.NoError(t, err)

	res, err := client.TokenLogProbs(context.Background(), "The cat sat")
	require.NoError(t, err)
	assert.Equal(t, []string{" cat", " sat"}, res.Tokens)
	assert.Equal(t, []float64{-4.5, -2.25}, res.LogProbs)
	assert.Empty(t, res.TokenIDs)
}

func TestOpenAITokenLogProbs_ClientError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer ts.Close()

	client, err := NewOpenAIClient(openAIConfig(ts.URL))
	require.NoError(t, err)

	_, err = client.TokenLogProbs(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestFromCompletion(t *testing.T) {
	a, b := -1.0, -2.0

	res, err := fromCompletion([]string{"x", "y"}, []*float64{&a, &b})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2}, res.LogProbs)

	res, err = fromCompletion([]string{}, []*float64{})
	require.NoError(t, err)
	assert.Empty(t, res.LogProbs)

	_, err = fromCompletion([]string{"x", "y"}, []*float64{&a, nil})
	assert.Error(t, err)

	_, err = fromCompletion([]string{"x"}, []*float64{&a, &b})
	assert.Error(t, err)
}
