// Package main provides the agentor operator CLI for ad-hoc runs and log
// inspection against a persistence backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agentorhq/agentor/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "agentor",
		Usage:                 "Run agents and inspect audit logs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Run a single agent request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant-id",
						Usage:    "Tenant to run against",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "agent-type",
						Usage:    "Agent type to run",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "goal",
						Usage:    "Goal for the run",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Run mode (simulate, plan, auto)",
						Value: "simulate",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return runAgent(ctx, command)
				},
			},
			{
				Name:    "logs",
				Aliases: []string{"l"},
				Usage:   "Print a tenant's recent audit log entries",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant-id",
						Usage:    "Tenant to inspect",
						Required: true,
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return printLogs(ctx, command)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
