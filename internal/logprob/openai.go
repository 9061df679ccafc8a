package logprob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/config"
)

// OpenAIClient scores text with the legacy completions endpoint by echoing
// the prompt and generating nothing.
type OpenAIClient struct {
	httpClient *retryablehttp.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewOpenAIClient(cfg *config.ProviderEnvConfig) (*OpenAIClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.HTTPClient.Timeout = cfg.ClientTimeout
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 20 * time.Second
	client.Logger = nil

	log.Info().
		Str("base_url", cfg.OpenAIURL).
		Str("model", cfg.Model).
		Int("retry_max", client.RetryMax).
		Str("timeout", client.HTTPClient.Timeout.String()).
		Msg("openai client initialized successfully")

	return &OpenAIClient{
		httpClient: client,
		baseURL:    strings.TrimRight(cfg.OpenAIURL, "/"),
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.Model,
	}, nil
}

func (o *OpenAIClient) Model() string {
	return o.model
}

func (o *OpenAIClient) TokenLogProbs(ctx context.Context, text string) (Result, error) {
	body, err := sonic.Marshal(completionRequest{
		Model:     o.model,
		Prompt:    text,
		MaxTokens: 0,
		Echo:      true,
		Logprobs:  0,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := o.baseURL + "/completions"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("HTTP request failed")
		return Result{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Str("body", string(respBody)).Msg("completions non-2xx")
		return Result{}, fmt.Errorf("completions status %d: %s", resp.StatusCode, string(respBody))
	}

	var out completionResponse
	if err := sonic.Unmarshal(respBody, &out); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal completions response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Result{}, fmt.Errorf("completions response has no choices")
	}

	return fromCompletion(out.Choices[0].Logprobs.Tokens, out.Choices[0].Logprobs.TokenLogprobs)
}

// fromCompletion drops the first position when the API reports no
// log-probability for it, which it does for the first token of every prompt.
func fromCompletion(tokens []string, lps []*float64) (Result, error) {
	if len(tokens) != len(lps) {
		return Result{}, fmt.Errorf("completions returned %d tokens and %d log probs", len(tokens), len(lps))
	}
	if len(lps) > 0 && lps[0] == nil {
		tokens, lps = tokens[1:], lps[1:]
	}

	values := make([]float64, len(lps))
	for i, lp := range lps {
		if lp == nil {
			return Result{}, fmt.Errorf("completions returned null log prob at position %d", i)
		}
		values[i] = *lp
	}

	return Result{
		Tokens:   tokens,
		LogProbs: values,
	}, nil
}
