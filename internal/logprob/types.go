// Package logprob fetches per-token log-probabilities for a text from a
// language model backend.
package logprob

import (
	"context"
)

// Provider returns the tokens of text and the log-probability the model
// assigns to each of them.
type Provider interface {
	TokenLogProbs(ctx context.Context, text string) (Result, error)
	Model() string
}

// Decoder turns token ids back into text with the provider's tokenizer.
type Decoder interface {
	Decode(ctx context.Context, ids []int) (string, error)
}

type Result struct {
	Tokens   []string  `json:"tokens"`
	TokenIDs []int     `json:"token_ids,omitempty"`
	LogProbs []float64 `json:"log_probs"`
}

// Token is one position of a Result.
type Token struct {
	ID   int
	Text string
}

func (r Result) HasIDs() bool {
	return len(r.TokenIDs) > 0 && len(r.TokenIDs) == len(r.Tokens)
}

// TokenList zips tokens and ids. ID is -1 when the provider returned none.
func (r Result) TokenList() []Token {
	out := make([]Token, len(r.Tokens))
	for i, t := range r.Tokens {
		out[i] = Token{ID: -1, Text: t}
		if r.HasIDs() {
			out[i].ID = r.TokenIDs[i]
		}
	}
	return out
}

// TokenLogProbsResponse is the sidecar reply for /token-log-probs.
type TokenLogProbsResponse struct {
	Success  bool      `json:"success"`
	Tokens   []string  `json:"tokens"`
	TokenIDs []int     `json:"token_ids"`
	LogProbs []float64 `json:"log_probs"`
	Error    string    `json:"error,omitempty"`
}

type TokenLogProbsRequest struct {
	Text string `json:"text"`
}

type DecodeRequest struct {
	TokenIDs []int `json:"token_ids"`
}

type DecodeResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
	Echo      bool   `json:"echo"`
	Logprobs  int    `json:"logprobs"`
}

type completionResponse struct {
	Choices []struct {
		Logprobs struct {
			Tokens        []string   `json:"tokens"`
			TokenLogprobs []*float64 `json:"token_logprobs"`
		} `json:"logprobs"`
	} `json:"choices"`
}
