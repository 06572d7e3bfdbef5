// Package main provides the Orgflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/orgflowhq/orgflow/pkg/eventbus"
	"github.com/orgflowhq/orgflow/pkg/persistence"
	"github.com/orgflowhq/orgflow/pkg/rendercache"
	"github.com/orgflowhq/orgflow/pkg/services"
	"github.com/orgflowhq/orgflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	cache       *rendercache.Cache
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	cache *rendercache.Cache,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		cache:       cache,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	processService := services.NewProcess(a.persistence, a.eventBus, a.logger)
	directoryService := services.NewDirectory(a.persistence, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(processService, directoryService, a.validate, a.persistence, a.cache)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Orgflow API")
	})

	org := app.Group("/organizations/:orgID")

	org.Get("/processes", handlers.GetProcesses)
	org.Post("/processes", handlers.CreateProcess)
	org.Post("/processes/import", handlers.ImportProcess)
	org.Get("/processes/:id", handlers.GetProcess)
	org.Put("/processes/:id", handlers.UpdateProcess)
	org.Delete("/processes/:id", handlers.DeleteProcess)
	org.Get("/processes/:id/diagram", handlers.GetDiagram)
	org.Get("/processes/:id/layout", handlers.GetLayout)

	org.Get("/departments", handlers.GetDepartments)
	org.Post("/departments", handlers.CreateDepartment)
	org.Get("/departments/:departmentID/roles", handlers.GetRoles)
	org.Post("/departments/:departmentID/roles", handlers.CreateRole)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
