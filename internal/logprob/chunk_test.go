package logprob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *stubProvider) Model() string { return "stub" }

func (s *stubProvider) TokenLogProbs(_ context.Context, text string) (Result, error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{Tokens: []string{text}, LogProbs: []float64{-float64(len(text))}}, nil
}

type stubDecoder struct {
	stubProvider
}

func (s *stubDecoder) Decode(_ context.Context, ids []int) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ","), nil
}

func TestResultTokenList(t *testing.T) {
	res := Result{Tokens: []string{"a", "b"}, TokenIDs: []int{7, 8}}
	assert.Equal(t, []Token{{ID: 7, Text: "a"}, {ID: 8, Text: "b"}}, res.TokenList())

	res.TokenIDs = nil
	assert.Equal(t, []Token{{ID: -1, Text: "a"}, {ID: -1, Text: "b"}}, res.TokenList())
}

func TestChunkFuncJoinsTokens(t *testing.T) {
	p := &stubProvider{}
	tokens, fn := ChunkFunc(p, Result{Tokens: []string{"Hel", "lo", " there"}, TokenIDs: []int{1, 2, 3}})
	require.Len(t, tokens, 3)

	lps, err := fn(context.Background(), tokens[:2])
	require.NoError(t, err)
	assert.Equal(t, []float64{-5}, lps)
	assert.Equal(t, []string{"Hello"}, p.texts)
}

func TestChunkFuncDecodesIDs(t *testing.T) {
	p := &stubDecoder{}
	tokens, fn := ChunkFunc(p, Result{Tokens: []string{"a", "b", "c"}, TokenIDs: []int{10, 20, 30}})

	_, err := fn(context.Background(), tokens[1:])
	require.NoError(t, err)
	assert.Equal(t, []string{"20,30"}, p.texts)
}

func TestChunkFuncDecoderWithoutIDs(t *testing.T) {
	p := &stubDecoder{}
	tokens, fn := ChunkFunc(p, Result{Tokens: []string{"a", "b"}})

	_, err := fn(context.Background(), tokens)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab"}, p.texts)
}

func TestChunkFuncProviderError(t *testing.T) {
	boom := errors.New("boom")
	p := &stubProvider{err: boom}
	tokens, fn := ChunkFunc(p, Result{Tokens: []string{"a"}})

	_, err := fn(context.Background(), tokens)
	assert.ErrorIs(t, err, boom)
}
