package logprob

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/config"
)

// SidecarClient talks to a model server that owns the tokenizer and weights.
type SidecarClient struct {
	cfg    *config.ProviderEnvConfig
	client *resty.Client
}

func NewSidecarClient(cfg *config.ProviderEnvConfig) (*SidecarClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.SidecarURL == "" {
		return nil, fmt.Errorf("sidecar url is required")
	}

	client := resty.New().
		SetBaseURL(cfg.SidecarURL).
		SetTimeout(cfg.ClientTimeout).
		SetRetryCount(cfg.RetryMax).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &SidecarClient{
		cfg:    cfg,
		client: client,
	}, nil
}

func (s *SidecarClient) Model() string {
	return s.cfg.Model
}

func (s *SidecarClient) TokenLogProbs(ctx context.Context, text string) (Result, error) {
	var out TokenLogProbsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(TokenLogProbsRequest{Text: text}).
		SetResult(&out).
		Post("/token-log-probs")
	if err != nil {
		log.Error().Err(err).Msg("token-log-probs request failed")
		return Result{}, fmt.Errorf("token log probs: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("token-log-probs non-2xx")
		return Result{}, fmt.Errorf("token-log-probs status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return Result{}, fmt.Errorf("token-log-probs api returned success=false: %s", out.Error)
	}
	if len(out.Tokens) != len(out.LogProbs) {
		return Result{}, fmt.Errorf("token-log-probs returned %d tokens and %d log probs", len(out.Tokens), len(out.LogProbs))
	}

	log.Trace().Int("tokens", len(out.Tokens)).Msg("token-log-probs ok")

	return Result{
		Tokens:   out.Tokens,
		TokenIDs: out.TokenIDs,
		LogProbs: out.LogProbs,
	}, nil
}

func (s *SidecarClient) Decode(ctx context.Context, ids []int) (string, error) {
	var out DecodeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(DecodeRequest{TokenIDs: ids}).
		SetResult(&out).
		Post("/decode")
	if err != nil {
		log.Error().Err(err).Msg("decode request failed")
		return "", fmt.Errorf("decode: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("decode non-2xx")
		return "", fmt.Errorf("decode status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return "", fmt.Errorf("decode api returned success=false: %s", out.Error)
	}
	return out.Text, nil
}
