// Package main provides the Agentor API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/agentorhq/agentor/pkg/auth"
	"github.com/agentorhq/agentor/pkg/cmd"
	"github.com/agentorhq/agentor/pkg/decision"
	"github.com/agentorhq/agentor/pkg/eventbus"
	"github.com/agentorhq/agentor/pkg/lock"
	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/orchestrator"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/policy"
	"github.com/agentorhq/agentor/pkg/services"
	"github.com/agentorhq/agentor/pkg/web"
	"github.com/agentorhq/agentor/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	locks       lock.Manager
	authorizer  auth.Authorizer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	locks lock.Manager,
	authorizer auth.Authorizer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		locks:       locks,
		authorizer:  authorizer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	memories := memory.NewStore(a.persistence.MemoryRepository(), a.logger)
	evaluator := policy.NewEngine(a.logger)
	decisions := decision.NewEngine(
		memories,
		a.persistence.PolicyRepository(),
		a.persistence.LogRepository(),
		evaluator,
		a.logger,
	)
	registry := cmd.NewRegistry(a.logger, memories, a.persistence.PolicyRepository())
	workflows := workflow.NewEngine(
		a.persistence.WorkflowRepository(),
		a.persistence.LogRepository(),
		registry,
		a.locks,
		a.eventBus,
		a.logger,
	)
	orch := orchestrator.NewOrchestrator(
		a.persistence.TaskRepository(),
		decisions,
		memories,
		workflows,
		a.eventBus,
		a.logger,
	)

	policyService := services.NewPolicy(a.persistence)
	auditService := services.NewAudit(a.persistence)

	handlers := web.NewAPIHandlers(orch, policyService, auditService, a.authorizer, a.validate, a.persistence)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Agentor API")
	})

	app.Post("/agents/run", handlers.RunAgent)
	app.Get("/logs", handlers.GetLogs)
	app.Get("/tasks/:id", handlers.GetTask)
	app.Get("/workflows/:id", handlers.GetWorkflow)

	p := app.Group("/policies")
	p.Get("/", handlers.ListPolicies)
	p.Post("/", handlers.CreatePolicy)
	p.Get("/:id", handlers.GetPolicy)
	p.Patch("/:id", handlers.UpdatePolicy)
	p.Delete("/:id", handlers.DeletePolicy)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
