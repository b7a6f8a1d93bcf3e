package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "lessonctl"})

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "lessonctl",
		Usage:    "Operate the lesson service: migrations, login and reports",
		Version:  version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("command failed", "err", err)
	}
}
