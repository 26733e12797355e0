package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aferraz/driveline/pkg/engine"
	"github.com/aferraz/driveline/pkg/locks"
	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/aferraz/driveline/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ResourceIDHeader carries the watched resource id on storage-provider push
// notifications.
const ResourceIDHeader = "X-Goog-Resource-Id"

type APIHandlers struct {
	logger            *slog.Logger
	automationService *services.Automation
	executionService  *services.Execution
	dispatcher        *engine.Dispatcher
	engine            *engine.Engine
	runGuard          locks.RunGuard
	validator         *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	automationService *services.Automation,
	executionService *services.Execution,
	dispatcher *engine.Dispatcher,
	e *engine.Engine,
	runGuard locks.RunGuard,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:            logger,
		automationService: automationService,
		executionService:  executionService,
		dispatcher:        dispatcher,
		engine:            e,
		runGuard:          runGuard,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.automationService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Driveline API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Driveline API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// HandleDriveActivity is the trigger ingress. The watched resource id arrives
// in the push notification header; every published automation of the owning
// account runs, and the response summarizes each run plus the remaining
// balance. Mixed outcomes are still HTTP 200.
func (h *APIHandlers) HandleDriveActivity(c fiber.Ctx) error {
	resourceID := c.Get(ResourceIDHeader)
	if resourceID == "" {
		resourceID = c.Query("resource_id")
	}

	if resourceID == "" {
		return badRequest(c, "Resource ID is required")
	}

	summary, err := h.dispatcher.HandleChangeEvent(c.Context(), resourceID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

// HandleResume is the scheduler callback. flow_id names the automation;
// current_index is advisory only, the persisted remaining-path decides what
// actually runs. The cron service fires every minute until the job is
// disabled, so duplicate deliveries are expected and answered as no-ops.
func (h *APIHandlers) HandleResume(c fiber.Ctx) error {
	automationID := c.Query("flow_id")
	if automationID == "" {
		return badRequest(c, "flow_id is required")
	}

	if indexStr := c.Query("current_index"); indexStr != "" {
		if index, err := strconv.Atoi(indexStr); err == nil {
			h.logger.InfoContext(c.Context(), "Resume callback received",
				"automation_id", automationID, "current_index", index)
		}
	}

	acquired, err := h.runGuard.Acquire(c.Context(), automationID)
	if err != nil {
		return internalError(c, err)
	}

	if !acquired {
		return c.JSON(ResumeResponse{
			AutomationID: automationID,
			Message:      "resume already in progress",
		})
	}

	defer func() {
		releaseErr := h.runGuard.Release(c.Context(), automationID)
		if releaseErr != nil {
			h.logger.WarnContext(c.Context(), "Failed to release run guard",
				"automation_id", automationID, "error", releaseErr)
		}
	}()

	record, err := h.engine.Resume(c.Context(), automationID)
	if err != nil {
		if persistence.IsAutomationNotFound(err) {
			return notFound(c, "Automation not found")
		}

		return internalError(c, err)
	}

	if record == nil {
		return c.JSON(ResumeResponse{
			AutomationID: automationID,
			Message:      "no delay pending",
		})
	}

	return c.JSON(ResumeResponse{
		AutomationID: automationID,
		ExecutionID:  record.ID,
		Status:       string(record.Status),
		Results:      record.Results,
	})
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	accountID := c.Query("account_id")

	automations, err := h.automationService.List(c.Context(), accountID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"total_count": len(automations),
	})
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	automation, err := h.automationService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	var req CreateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	automation := &models.Automation{
		AccountID: req.AccountID,
		Name:      req.Name,
	}

	err := h.automationService.Create(c.Context(), automation)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(automation)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	err := h.automationService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateGraph replaces the automation's editor graph. The body is the raw
// graph document; it is schema-checked before anything is stored.
func (h *APIHandlers) UpdateGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	var document map[string]any
	if err := c.Bind().JSON(&document); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	automation, err := h.automationService.UpdateGraph(c.Context(), id, document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) UpdateConfigs(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	var req UpdateConfigsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	automation, err := h.automationService.UpdateConfigs(c.Context(), id, req.Discord, req.Slack, req.Notion)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) PublishAutomation(c fiber.Ctx) error {
	return h.setPublished(c, true)
}

func (h *APIHandlers) UnpublishAutomation(c fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *APIHandlers) setPublished(c fiber.Ctx, published bool) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	err := h.automationService.SetPublished(c.Context(), id, published)
	if err != nil {
		return handleServiceError(c, err)
	}

	automation, err := h.automationService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

// GetAutomationExecutions lists the execution history of one automation. The
// account filter comes from the automation itself.
func (h *APIHandlers) GetAutomationExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	automation, err := h.automationService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	req, err := h.parseListExecutionsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	req.AccountID = automation.AccountID
	req.AutomationID = automation.ID

	result, err := h.executionService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	req, err := h.parseListExecutionsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.executionService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// parseListExecutionsRequest parses and validates query parameters for listing executions.
func (h *APIHandlers) parseListExecutionsRequest(c fiber.Ctx) (*services.ListExecutionsRequest, error) {
	req := &services.ListExecutionsRequest{
		AccountID:    c.Query("account_id"),
		AutomationID: c.Query("automation_id"),
		Status:       c.Query("status"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	return req, nil
}

func (h *APIHandlers) GetExecutionStats(c fiber.Ctx) error {
	stats, err := h.executionService.Stats(c.Context(), c.Query("account_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stats)
}

func (h *APIHandlers) GetRecentExecutions(c fiber.Ctx) error {
	days := 0

	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil {
			return badRequest(c, "Invalid days parameter")
		}

		days = parsed
	}

	records, err := h.executionService.Recent(c.Context(), c.Query("account_id"), days)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  records,
		"total_count": len(records),
	})
}
