// Package main provides the Driveline API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aferraz/driveline/pkg/engine"
	"github.com/aferraz/driveline/pkg/eventbus"
	"github.com/aferraz/driveline/pkg/locks"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/aferraz/driveline/pkg/registry"
	"github.com/aferraz/driveline/pkg/scheduler"
	"github.com/aferraz/driveline/pkg/services"
	"github.com/aferraz/driveline/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	runGuard    locks.RunGuard
	scheduler   scheduler.Scheduler
	tracer      trace.Tracer
	validate    *validator.Validate
}

// NewAPI wires the server. A nil scheduler falls back to the in-process
// one-shot scheduler, which suits development without an external cron
// service.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	runGuard locks.RunGuard,
	sched scheduler.Scheduler,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		runGuard:    runGuard,
		scheduler:   sched,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	var eng *engine.Engine

	sched := a.scheduler
	if sched == nil {
		sched = scheduler.NewLocal(a.logger, func(ctx context.Context, automationID string) error {
			_, err := eng.Resume(ctx, automationID)

			return err
		})
	}

	eng = engine.NewEngine(a.logger, a.persistence, a.registry, sched, a.eventBus, a.tracer)
	dispatcher := engine.NewDispatcher(a.logger, a.persistence, eng)

	handlers := web.NewAPIHandlers(
		a.logger,
		services.NewAutomation(a.persistence),
		services.NewExecution(a.persistence),
		dispatcher,
		eng,
		a.runGuard,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Driveline API")
	})

	app.Post("/triggers/drive-activity", handlers.HandleDriveActivity)
	app.Get("/cron/resume", handlers.HandleResume)

	m := app.Group("/automations")
	m.Get("/", handlers.GetAutomations)
	m.Post("/", handlers.CreateAutomation)
	m.Get("/:id", handlers.GetAutomation)
	m.Delete("/:id", handlers.DeleteAutomation)
	m.Put("/:id/graph", handlers.UpdateGraph)
	m.Patch("/:id/configs", handlers.UpdateConfigs)
	m.Post("/:id/publish", handlers.PublishAutomation)
	m.Post("/:id/unpublish", handlers.UnpublishAutomation)
	m.Get("/:id/executions", handlers.GetAutomationExecutions)

	e := app.Group("/executions")
	e.Get("/", handlers.GetExecutions)
	e.Get("/stats", handlers.GetExecutionStats)
	e.Get("/recent", handlers.GetRecentExecutions)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
