package main

import (
	"context"
	"os"
	"strings"

	"github.com/agentorhq/agentor/pkg/auth"
	"github.com/agentorhq/agentor/pkg/cmd"
	"github.com/agentorhq/agentor/pkg/log"
	"github.com/agentorhq/agentor/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "agentor-api",
		Usage:                 "Run agents and manage policies",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for distributed workflow locking (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "platform-admins",
				Usage:   "Comma-separated caller IDs granted access to every tenant",
				Sources: cli.EnvVars("PLATFORM_ADMINS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Agentor API")

			if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
				_, err := otelhelper.NewTracer(ctx, "agentor-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracing", "error", err)
				}
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locks := cmd.NewLockManager(command.String("redis-url"), logger)

			authorizer := auth.NewStaticAuthorizer()
			for _, callerID := range strings.Split(command.String("platform-admins"), ",") {
				if callerID = strings.TrimSpace(callerID); callerID != "" {
					authorizer.GrantPlatformAdmin(callerID)
				}
			}

			api := NewAPI(logger, persistence, eventBus, locks, authorizer)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
