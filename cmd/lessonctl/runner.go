package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/vmx-pso/lesson-service/internal/client"
)

// Runner holds what the command actions share.
type Runner struct {
	logger    *log.Logger
	output    io.Writer
	newClient func(baseURL string) *client.Client
}

type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		logger:    opts.Logger,
		output:    opts.Output,
		newClient: client.New,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range []func(*Runner) *cli.Command{
		migrateCommand, loginCommand, songsCommand, statsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// apiClient builds a client for the --api URL carrying the --token bearer token.
func (r *Runner) apiClient(cmd *cli.Command) *client.Client {
	c := r.newClient(cmd.String("api"))
	c.SetToken(cmd.String("token"))
	return c
}

func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := fmt.Fprintln(r.output, string(output)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func apiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api",
			Usage:   "Base URL of the lesson service",
			Value:   "http://localhost:4000",
			Sources: cli.EnvVars("LESSONS_API_URL"),
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "Bearer token from `lessonctl login`",
			Sources: cli.EnvVars("LESSONS_TOKEN"),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}
}
