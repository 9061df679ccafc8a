package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v3"

	"github.com/tensorplex-labs/cognisight/internal/scoring"
	"github.com/tensorplex-labs/cognisight/internal/server"
)

var (
	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Input JSON file, - for stdin",
		Value: "-",
	}

	methodFlag = &cli.StringFlag{
		Name:  "method",
		Usage: "Scoring method [mink, zscore, iqr]",
		Value: scoring.MethodMinK,
	}

	paramFlag = &cli.FloatFlag{
		Name:  "param",
		Usage: "Method parameter: z threshold or IQR alpha (defaults per method when unset)",
	}

	kPercentFlag = &cli.FloatFlag{
		Name:  "k-percent",
		Usage: "Fraction (<= 1) or percentage (> 1) of lowest tokens averaged by mink",
		Value: scoring.DefaultKPercent,
	}

	scoreCmd = &cli.Command{
		Name:  "score",
		Usage: "Score a JSON array of token log-probabilities",
		Flags: []cli.Flag{
			fileFlag,
			methodFlag,
			paramFlag,
			kPercentFlag,
		},
		Action: cmdScore,
	}
)

func cmdScore(ctx context.Context, cmd *cli.Command) error {
	raw, err := readInput(cmd.String(fileFlag.Name))
	if err != nil {
		return err
	}

	lps, err := parseLogProbs(raw)
	if err != nil {
		return err
	}

	scorer, err := server.ScorerFor(scoreRequest(cmd))
	if err != nil {
		return err
	}

	res, err := scorer.Score(lps)
	if err != nil {
		return err
	}
	return printJSON(server.ToScoreResponse(res))
}

// scoreRequest maps the scoring flags onto a request. Unset flags stay nil so
// an explicit 0 is told apart from "use the default".
func scoreRequest(cmd *cli.Command) server.ScoreRequest {
	req := server.ScoreRequest{Method: cmd.String(methodFlag.Name)}
	if cmd.IsSet(paramFlag.Name) {
		param := cmd.Float(paramFlag.Name)
		req.Param = &param
	}
	if cmd.IsSet(kPercentFlag.Name) {
		kPercent := cmd.Float(kPercentFlag.Name)
		req.KPercent = &kPercent
	}
	return req
}

// parseLogProbs accepts a bare array or an object with a log_probs field.
func parseLogProbs(raw []byte) ([]float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var lps []float64
		if err := sonic.UnmarshalString(trimmed, &lps); err != nil {
			return nil, fmt.Errorf("decoding log probs: %w", err)
		}
		return lps, nil
	}

	var req server.ScoreRequest
	if err := sonic.UnmarshalString(trimmed, &req); err != nil {
		return nil, fmt.Errorf("decoding log probs: %w", err)
	}
	return req.LogProbs, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return raw, nil
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}
