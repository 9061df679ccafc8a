package logprob

import (
	"context"
	"fmt"
	"strings"

	"github.com/tensorplex-labs/cognisight/internal/scoring"
)

// ChunkFunc returns the tokens of res and a function that re-scores a chunk
// of them in isolation. Chunks are turned back into text with the provider's
// Decoder when res carries token ids, otherwise the token strings are joined.
func ChunkFunc(provider Provider, res Result) ([]Token, scoring.ChunkLogProbFunc[Token]) {
	decoder, canDecode := provider.(Decoder)
	useIDs := canDecode && res.HasIDs()

	fn := func(ctx context.Context, chunk []Token) ([]float64, error) {
		text, err := chunkText(ctx, decoder, useIDs, chunk)
		if err != nil {
			return nil, err
		}
		out, err := provider.TokenLogProbs(ctx, text)
		if err != nil {
			return nil, err
		}
		return out.LogProbs, nil
	}

	return res.TokenList(), fn
}

func chunkText(ctx context.Context, decoder Decoder, useIDs bool, chunk []Token) (string, error) {
	if !useIDs {
		var b strings.Builder
		for _, t := range chunk {
			b.WriteString(t.Text)
		}
		return b.String(), nil
	}

	ids := make([]int, len(chunk))
	for i, t := range chunk {
		ids[i] = t.ID
	}
	text, err := decoder.Decode(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("decode chunk: %w", err)
	}
	return text, nil
}
