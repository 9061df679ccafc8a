package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tensorplex-labs/cognisight/internal/dataset"
	"github.com/tensorplex-labs/cognisight/internal/server"
	"github.com/tensorplex-labs/cognisight/internal/store"
)

var (
	fprFlag = &cli.FloatFlag{
		Name:  "fpr",
		Usage: "Target false positive rate (defaults to TARGET_FPR)",
	}

	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of samples or runs (0 for all)",
	}

	persistFlag = &cli.BoolFlag{
		Name:  "persist",
		Usage: "Save the run to the store",
		Value: true,
	}

	calibrateCmd = &cli.Command{
		Name:  "calibrate",
		Usage: "Calibrate a threshold from a JSON file of scores and labels",
		Flags: []cli.Flag{
			fileFlag,
			fprFlag,
		},
		Action: cmdCalibrate,
	}

	evaluateCmd = &cli.Command{
		Name:      "evaluate",
		Usage:     "Score a labeled JSONL dataset and calibrate a threshold on it",
		ArgsUsage: "<dataset.jsonl[.zst]>",
		Flags: []cli.Flag{
			fprFlag,
			limitFlag,
			persistFlag,
		},
		Action: cmdEvaluate,
	}

	runsCmd = &cli.Command{
		Name:      "runs",
		Usage:     "List saved evaluation runs, or show one by id",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			limitFlag,
		},
		Action: cmdRuns,
	}
)

func targetFPR(cmd *cli.Command) float64 {
	if fpr := cmd.Float(fprFlag.Name); fpr != 0 {
		return fpr
	}
	return cfg.Detector.TargetFPR
}

func cmdCalibrate(_ context.Context, cmd *cli.Command) error {
	raw, err := readInput(cmd.String(fileFlag.Name))
	if err != nil {
		return err
	}

	var req server.CalibrateRequest
	if err := sonic.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("decoding scores: %w", err)
	}

	if req.TargetFPR == 0 || cmd.IsSet(fprFlag.Name) {
		req.TargetFPR = targetFPR(cmd)
	}
	resp, err := server.Calibrate(req)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdEvaluate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("dataset path is required")
	}

	samples, err := dataset.ReadFile(path, dataset.WithLimit(cmd.Int(limitFlag.Name)))
	if err != nil {
		return err
	}

	d, closeFn, err := newDetector(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	eval, err := d.Evaluate(ctx, samples, targetFPR(cmd))
	if err != nil {
		return err
	}

	var runID string
	if cmd.Bool(persistFlag.Name) {
		runs, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer runs.Close()

		run := d.RunRecord(eval)
		if err := runs.SaveRun(ctx, run); err != nil {
			return err
		}
		runID = run.ID
		log.Info().Str("run_id", runID).Str("store", cfg.Store.Path).Msg("evaluation run saved")
	}

	return printJSON(server.ToEvaluateResponse(runID, eval))
}

func cmdRuns(ctx context.Context, cmd *cli.Command) error {
	runs, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer runs.Close()

	if id := cmd.Args().First(); id != "" {
		run, err := runs.GetRun(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(server.ToRunResponse(run, true))
	}

	list, err := runs.ListRuns(ctx, cmd.Int(limitFlag.Name))
	if err != nil {
		return err
	}
	out := make([]server.RunResponse, len(list))
	for i, run := range list {
		out[i] = server.ToRunResponse(run, false)
	}
	return printJSON(out)
}
