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

func sidecarConfig(url string) *config.ProviderEnvConfig {
	return &config.ProviderEnvConfig{
		SidecarURL:    url,
		Model:         "gpt2",
		ClientTimeout: 5 * time.Second,
	}
}

func TestNewSidecarClient_NilConfig(t *testing.T) {
	_, err := NewSidecarClient(nil)
	assert.Error(t, err)

	_, err = NewSidecarClient(&config.ProviderEnvConfig{})
	assert.Error(t, err)
}

func TestSidecarTokenLogProbs_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token-log-probs" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req TokenLogProbsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text != "Hello world" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenLogProbsResponse{
			Success:  true,
			Tokens:   []string{"Hello", " world"},
			TokenIDs: []int{15496, 995},
			LogProbs: []float64{-0.5, -3.25},
		})
	}))
	defer ts.Close()

	client, err := NewSidecarClient(sidecarConfig(ts.URL))
	require.NoError(t, err)
	assert.Equal(t, "gpt2", client.Model())

	res, err := client.TokenLogProbs(context.Background(), "Hello world")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world"}, res.Tokens)
	assert.Equal(t, []int{15496, 995}, res.TokenIDs)
	assert.Equal(t, []float64{-0.5, -3.25}, res.LogProbs)
}

func TestSidecarTokenLogProbs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"success":false}`))
			},
		},
		{
			name: "success false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"success":false,"error":"model not loaded"}`))
			},
		},
		{
			name: "length mismatch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"success":true,"tokens":["a","b"],"log_probs":[-1]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client, err := NewSidecarClient(sidecarConfig(ts.URL))
			require.NoError(t, err)

			_, err = client.TokenLogProbs(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestSidecarDecode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/decode" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req DecodeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(DecodeResponse{Success: true, Text: "decoded:" + string(rune('0'+len(req.TokenIDs)))})
	}))
	defer ts.Close()

	client, err := NewSidecarClient(sidecarConfig(ts.URL))
	require.NoError(t, err)

	text, err := client.Decode(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "decoded:3", text)
}
