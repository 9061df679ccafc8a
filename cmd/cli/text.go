package main

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tensorplex-labs/cognisight/internal/cache"
	"github.com/tensorplex-labs/cognisight/internal/detector"
	"github.com/tensorplex-labs/cognisight/internal/logprob"
	"github.com/tensorplex-labs/cognisight/internal/server"
)

var (
	analyzeCmd = &cli.Command{
		Name:      "analyze",
		Usage:     "Fetch log-probabilities for a text and score it",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			fileFlag,
		},
		Action: cmdAnalyze,
	}

	chunkedCmd = &cli.Command{
		Name:      "chunked",
		Usage:     "Score a long text chunk by chunk and report the maximum",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			fileFlag,
		},
		Action: cmdChunked,
	}
)

// newDetector wires the configured provider, behind the cache when enabled.
func newDetector(ctx context.Context) (*detector.Detector, func(), error) {
	provider, err := logprob.NewProvider(&cfg.Provider)
	if err != nil {
		return nil, nil, err
	}
	provider, closeCache := cache.Wrap(ctx, provider, &cfg.Redis)

	d, err := detector.NewFromConfig(provider, cfg.Detector)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return d, closeCache, nil
}

func textArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Present() {
		return strings.Join(cmd.Args().Slice(), " "), nil
	}
	raw, err := readInput(cmd.String(fileFlag.Name))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}

func cmdAnalyze(ctx context.Context, cmd *cli.Command) error {
	text, err := textArg(cmd)
	if err != nil {
		return err
	}

	d, closeFn, err := newDetector(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	analysis, err := d.Analyze(ctx, text)
	if err != nil {
		return err
	}

	resp := server.AnalyzeResponse{
		Tokens:   analysis.Tokens,
		LogProbs: analysis.LogProbs,
		Result:   server.ToScoreResponse(analysis.Result),
	}
	if analysis.Chunks != nil {
		chunks := server.ToChunkResponse(*analysis.Chunks)
		resp.Chunks = &chunks
	}
	return printJSON(resp)
}

func cmdChunked(ctx context.Context, cmd *cli.Command) error {
	text, err := textArg(cmd)
	if err != nil {
		return err
	}

	d, closeFn, err := newDetector(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := d.Chunked(ctx, text)
	if err != nil {
		return err
	}
	return printJSON(server.ToChunkResponse(res))
}
