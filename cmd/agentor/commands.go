package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/agentorhq/agentor/pkg/channels/gochannel"
	"github.com/agentorhq/agentor/pkg/cmd"
	"github.com/agentorhq/agentor/pkg/decision"
	"github.com/agentorhq/agentor/pkg/eventbus"
	"github.com/agentorhq/agentor/pkg/lock"
	"github.com/agentorhq/agentor/pkg/log"
	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/orchestrator"
	"github.com/agentorhq/agentor/pkg/policy"
	"github.com/agentorhq/agentor/pkg/services"
	"github.com/agentorhq/agentor/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func runAgent(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("cli")

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

	defer func() {
		_ = persistence.Close(ctx)
	}()

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create event channel: %w", err)
	}

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer func() {
		_ = bus.Close()
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
		lock.NewMemoryManager(),
		bus,
		logger,
	)
	orch := orchestrator.NewOrchestrator(
		persistence.TaskRepository(),
		decisions,
		memories,
		workflows,
		bus,
		logger,
	)

	result, err := orch.RunAgent(ctx, orchestrator.RunRequest{
		TenantID:  command.String("tenant-id"),
		AgentType: command.String("agent-type"),
		Goal:      command.String("goal"),
		Mode:      models.RunMode(command.String("mode")),
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

func printLogs(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("cli")

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

	defer func() {
		_ = persistence.Close(ctx)
	}()

	audit := services.NewAudit(persistence)

	entries, err := audit.Logs(ctx, command.String("tenant-id"))
	if err != nil {
		return err
	}

	return printJSON(entries)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
