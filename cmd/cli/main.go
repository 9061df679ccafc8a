package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/utils/logger"
)

var (
	name    = "cognisight"
	version = "v0.0.1-default"
	commit  = ""

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	cfg *config.AppConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:   "Score texts for training-data membership from token log-probabilities",
		Flags: []cli.Flag{
			debugFlag,
		},
		Commands: []*cli.Command{
			scoreCmd,
			analyzeCmd,
			chunkedCmd,
			calibrateCmd,
			evaluateCmd,
			runsCmd,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			loaded, err := config.LoadConfig(ctx)
			if err != nil {
				return ctx, fmt.Errorf("loading configuration: %w", err)
			}
			cfg = loaded

			level := cfg.Detector.LogLevel
			if cmd.Bool(debugFlag.Name) {
				level = "debug"
			}
			logger.InitWithWriter(os.Stderr, cfg.Detector.Environment, level)
			return ctx, nil
		},
	}
}
