// Package testutil provides shared fixtures for engine and handler tests.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/agentorhq/agentor/pkg/channels/gochannel"
	"github.com/agentorhq/agentor/pkg/cmd"
	"github.com/agentorhq/agentor/pkg/decision"
	"github.com/agentorhq/agentor/pkg/eventbus"
	"github.com/agentorhq/agentor/pkg/lock"
	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/orchestrator"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/persistence/file"
	"github.com/agentorhq/agentor/pkg/policy"
	"github.com/agentorhq/agentor/pkg/registry"
	"github.com/agentorhq/agentor/pkg/workflow"
	"github.com/stretchr/testify/require"
)

// Stack wires the full engine chain over file persistence and an in-process
// event channel.
type Stack struct {
	Persistence  persistence.Persistence
	Memories     *memory.Store
	Decisions    *decision.Engine
	Workflows    *workflow.Engine
	Registry     *registry.Registry
	Orchestrator *orchestrator.Orchestrator
	EventBus     eventbus.EventBus
	Logger       *slog.Logger
}

// NewStack builds a Stack rooted in a fresh temp directory.
func NewStack(t *testing.T) *Stack {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	p := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	memories := memory.NewStore(p.MemoryRepository(), logger)
	evaluator := policy.NewEngine(logger)
	decisions := decision.NewEngine(memories, p.PolicyRepository(), p.LogRepository(), evaluator, logger)
	reg := cmd.NewRegistry(logger, memories, p.PolicyRepository())
	workflows := workflow.NewEngine(p.WorkflowRepository(), p.LogRepository(), reg, lock.NewMemoryManager(), bus, logger)
	orch := orchestrator.NewOrchestrator(p.TaskRepository(), decisions, memories, workflows, bus, logger)

	return &Stack{
		Persistence:  p,
		Memories:     memories,
		Decisions:    decisions,
		Workflows:    workflows,
		Registry:     reg,
		Orchestrator: orch,
		EventBus:     bus,
		Logger:       logger,
	}
}

// SavePolicy persists a policy built from the given pieces and returns it.
func SavePolicy(t *testing.T, p persistence.Persistence, tenantID, agentType, name string, conditions []models.Condition, actions []models.ActionSpec) *models.Policy {
	t.Helper()

	pol := &models.Policy{
		TenantID:   tenantID,
		AgentType:  agentType,
		Name:       name,
		Active:     true,
		Conditions: conditions,
		Actions:    actions,
	}

	require.NoError(t, p.PolicyRepository().Save(t.Context(), pol))

	return pol
}
