// Package main provides the Agentor scheduler: it runs agents on cron
// schedules loaded from a YAML file.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentorhq/agentor/pkg/cmd"
	"github.com/agentorhq/agentor/pkg/decision"
	"github.com/agentorhq/agentor/pkg/eventbus"
	"github.com/agentorhq/agentor/pkg/events"
	"github.com/agentorhq/agentor/pkg/log"
	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/orchestrator"
	"github.com/agentorhq/agentor/pkg/policy"
	"github.com/agentorhq/agentor/pkg/schedule"
	"github.com/agentorhq/agentor/pkg/workflow"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "agentor-scheduler",
		Usage:                 "Run agents on recurring schedules",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "schedules-file",
				Usage:   "Path to the YAML file with schedule definitions",
				Value:   "./schedules.yaml",
				Sources: cli.EnvVars("SCHEDULES_FILE"),
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("scheduler")
	logger.InfoContext(ctx, "Initializing Agentor scheduler")

	schedules, err := schedule.Load(command.String("schedules-file"))
	if err != nil {
		return err
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

	memories := memory.NewStore(persistence.MemoryRepository(), logger)
	evaluator := policy.NewEngine(logger)
	decisions := decision.NewEngine(
		memories,
		persistence.PolicyRepository(),
		persistence.LogRepository(),
		evaluator,
		logger,
	)
	registry := cmd.NewRegistry(logger, memories, persistence.PolicyRepository())
	workflows := workflow.NewEngine(
		persistence.WorkflowRepository(),
		persistence.LogRepository(),
		registry,
		cmd.NewLockManager(command.String("redis-url"), logger),
		eventBus,
		logger,
	)
	orch := orchestrator.NewOrchestrator(
		persistence.TaskRepository(),
		decisions,
		memories,
		workflows,
		eventBus,
		logger,
	)

	err = subscribeRunEvents(ctx, eventBus, logger)
	if err != nil {
		return err
	}

	runner := cron.New()

	for _, entry := range schedules.Schedules {
		_, err := runner.AddFunc(entry.Cron, runEntry(ctx, logger, orch, entry))
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Registered schedule",
			"cron", entry.Cron,
			"tenant_id", entry.TenantID,
			"agent_type", entry.AgentType,
		)
	}

	runner.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.InfoContext(ctx, "Shutting down scheduler")
	<-runner.Stop().Done()

	return nil
}

// subscribeRunEvents logs run outcomes off the event bus, so the scheduler's
// log also reflects runs triggered by other processes sharing the bus.
func subscribeRunEvents(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	err := bus.Handle(events.RunCompletedEvent, func(ctx context.Context, event any) error {
		run, ok := event.(*events.RunCompleted)
		if !ok {
			return nil
		}

		logger.InfoContext(ctx, "Run completed",
			"tenant_id", run.TenantID,
			"agent_type", run.AgentType,
			"task_id", run.TaskID,
			"mode", run.Mode,
			"executed", run.Executed,
		)

		return nil
	})
	if err != nil {
		return err
	}

	err = bus.Handle(events.RunFailedEvent, func(ctx context.Context, event any) error {
		run, ok := event.(*events.RunFailed)
		if !ok {
			return nil
		}

		logger.ErrorContext(ctx, "Run failed",
			"tenant_id", run.TenantID,
			"agent_type", run.AgentType,
			"task_id", run.TaskID,
			"error", run.Error,
		)

		return nil
	})
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}

func runEntry(ctx context.Context, logger *slog.Logger, orch *orchestrator.Orchestrator, entry schedule.Entry) func() {
	return func() {
		_, err := orch.RunAgent(ctx, orchestrator.RunRequest{
			TenantID:  entry.TenantID,
			AgentType: entry.AgentType,
			Goal:      entry.Goal,
			Input:     entry.Input,
			Mode:      models.RunMode(entry.Mode),
		})
		if err != nil {
			logger.ErrorContext(ctx, "Scheduled run failed",
				"tenant_id", entry.TenantID,
				"agent_type", entry.AgentType,
				"error", err,
			)
		}
	}
}
