package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/studyplan/internal/cli"
	"github.com/okian/studyplan/internal/config"
	"github.com/okian/studyplan/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Flag defaults follow the service configuration (file and env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 2
	}

	opts, err := cli.ParseFlags(args, cfg.Defaults.Request(), os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 2
	}

	if err := logger.InitWith(os.Stderr, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 2
	}
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	if err := cli.Run(ctx, opts, os.Stdout, logger.Named("studyplan")); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
