// Package web provides HTTP handlers and REST API endpoints for agent orchestration.
package web

import (
	"net/http"
	"time"

	"github.com/agentorhq/agentor/pkg/auth"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/orchestrator"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CallerIDHeader carries the already-authenticated caller identity. The
// deployment's ingress is responsible for validating it before it reaches us.
const CallerIDHeader = "X-Caller-ID"

type APIHandlers struct {
	orchestrator  *orchestrator.Orchestrator
	policyService *services.Policy
	auditService  *services.Audit
	authorizer    auth.Authorizer
	validator     *validator.Validate
	persistence   persistence.Persistence
}

func NewAPIHandlers(
	orch *orchestrator.Orchestrator,
	policyService *services.Policy,
	auditService *services.Audit,
	authorizer auth.Authorizer,
	validator *validator.Validate,
	persistence persistence.Persistence,
) *APIHandlers {
	return &APIHandlers{
		orchestrator:  orch,
		policyService: policyService,
		auditService:  auditService,
		authorizer:    authorizer,
		validator:     validator,
		persistence:   persistence,
	}
}

// authorize resolves the caller identity header and checks tenant access.
func (h *APIHandlers) authorize(c fiber.Ctx, tenantID string) error {
	callerID := c.Get(CallerIDHeader)
	if callerID == "" {
		return auth.ErrPermissionDenied
	}

	return h.authorizer.Authorize(c.Context(), callerID, tenantID)
}

func (h *APIHandlers) RunAgent(c fiber.Ctx) error {
	var req RunAgentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.authorize(c, req.TenantID); err != nil {
		return permissionDenied(c)
	}

	result, err := h.orchestrator.RunAgent(c.Context(), orchestrator.RunRequest{
		TenantID:  req.TenantID,
		AgentType: req.AgentType,
		Goal:      req.Goal,
		Input:     req.Input,
		Mode:      models.RunMode(req.Mode),
	})
	if err != nil {
		if orchestrator.IsValidationError(err) {
			return badRequest(c, err.Error())
		}

		return internalError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetLogs(c fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		return badRequest(c, "tenant_id query parameter is required")
	}

	if err := h.authorize(c, tenantID); err != nil {
		return permissionDenied(c)
	}

	logs, err := h.auditService.Logs(c.Context(), tenantID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Task ID is required")
	}

	task, err := h.auditService.Task(c.Context(), id)
	if err != nil {
		if persistence.IsTaskNotFound(err) {
			return notFound(c, "Task not found")
		}

		return internalError(c, err)
	}

	if err := h.authorize(c, task.TenantID); err != nil {
		return permissionDenied(c)
	}

	return c.JSON(task)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.auditService.Workflow(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if err := h.authorize(c, workflow.TenantID); err != nil {
		return permissionDenied(c)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) ListPolicies(c fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		return badRequest(c, "tenant_id query parameter is required")
	}

	if err := h.authorize(c, tenantID); err != nil {
		return permissionDenied(c)
	}

	policies, err := h.policyService.ListByTenant(c.Context(), tenantID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"policies": policies,
		"count":    len(policies),
	})
}

func (h *APIHandlers) GetPolicy(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Policy ID is required")
	}

	policy, err := h.policyService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsPolicyNotFound(err) {
			return notFound(c, "Policy not found")
		}

		return internalError(c, err)
	}

	if err := h.authorize(c, policy.TenantID); err != nil {
		return permissionDenied(c)
	}

	return c.JSON(policy)
}

func (h *APIHandlers) CreatePolicy(c fiber.Ctx) error {
	var req CreatePolicyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.authorize(c, req.TenantID); err != nil {
		return permissionDenied(c)
	}

	policy := &models.Policy{
		TenantID:   req.TenantID,
		AgentType:  req.AgentType,
		Name:       req.Name,
		Conditions: req.Conditions,
		Actions:    req.Actions,
		Priority:   req.Priority,
		Active:     req.Active,
	}

	created, err := h.policyService.Create(c.Context(), policy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePolicy(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Policy ID is required")
	}

	var req UpdatePolicyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.policyService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsPolicyNotFound(err) {
			return notFound(c, "Policy not found")
		}

		return internalError(c, err)
	}

	if err := h.authorize(c, existing.TenantID); err != nil {
		return permissionDenied(c)
	}

	// Apply partial updates; tenant and agent type are immutable.
	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Conditions != nil {
		existing.Conditions = req.Conditions
	}

	if req.Actions != nil {
		existing.Actions = req.Actions
	}

	if req.Priority != nil {
		existing.Priority = *req.Priority
	}

	if req.Active != nil {
		existing.Active = *req.Active
	}

	updated, err := h.policyService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePolicy(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Policy ID is required")
	}

	policy, err := h.policyService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsPolicyNotFound(err) {
			return notFound(c, "Policy not found")
		}

		return internalError(c, err)
	}

	if err := h.authorize(c, policy.TenantID); err != nil {
		return permissionDenied(c)
	}

	if err := h.policyService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Agentor API is healthy"
	httpStatus := http.StatusOK

	if err != nil {
		status = "unhealthy"
		message = "Agentor API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
