// Package web provides HTTP handlers and REST API endpoints for process and
// directory management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/orgflowhq/orgflow/pkg/diagram"
	"github.com/orgflowhq/orgflow/pkg/persistence"
	"github.com/orgflowhq/orgflow/pkg/rendercache"
	"github.com/orgflowhq/orgflow/pkg/services"
)

// ActorHeader carries the acting user's identifier. Authentication happens
// upstream; the API trusts the header and only enforces organization access.
const ActorHeader = "X-Actor-ID"

type APIHandlers struct {
	processService   *services.Process
	directoryService *services.Directory
	validator        *validator.Validate
	persistence      persistence.Persistence
	cache            *rendercache.Cache
}

// NewAPIHandlers wires the handler set. The render cache may be nil; diagram
// requests then always recompile.
func NewAPIHandlers(
	processService *services.Process,
	directoryService *services.Directory,
	validator *validator.Validate,
	persistence persistence.Persistence,
	cache *rendercache.Cache,
) *APIHandlers {
	return &APIHandlers{
		processService:   processService,
		directoryService: directoryService,
		validator:        validator,
		persistence:      persistence,
		cache:            cache,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetProcesses(c fiber.Ctx) error {
	organizationID := c.Params("orgID")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	result, err := h.processService.List(c.Context(), organizationID, actor(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	responses := make([]ProcessResponse, 0, len(result))
	for _, process := range result {
		responses = append(responses, TransformProcessResponse(process))
	}

	return c.JSON(responses)
}

func (h *APIHandlers) GetProcess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	process, err := h.processService.Fetch(c.Context(), id, actor(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformProcessResponse(process))
}

func (h *APIHandlers) CreateProcess(c fiber.Ctx) error {
	return h.saveProcess(c, "")
}

func (h *APIHandlers) UpdateProcess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	return h.saveProcess(c, id)
}

// saveProcess runs one whole-record save: an empty processID creates, a set
// one replaces.
func (h *APIHandlers) saveProcess(c fiber.Ctx, processID string) error {
	organizationID := c.Params("orgID")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	var req SaveProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	process, err := h.processService.Save(c.Context(), services.SaveRequest{
		OrganizationID: organizationID,
		ActorID:        actor(c),
		ProcessID:      processID,
		Title:          req.Title,
		Steps:          req.StepModels(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusOK
	if processID == "" {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(TransformProcessResponse(process))
}

// ImportProcess accepts an exported process document, validates it against
// the document schema and saves it as a new process.
func (h *APIHandlers) ImportProcess(c fiber.Ctx) error {
	organizationID := c.Params("orgID")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	body := c.Body()
	if err := validateProcessDocument(body); err != nil {
		return badRequest(c, err.Error())
	}

	var req SaveProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	process, err := h.processService.Save(c.Context(), services.SaveRequest{
		OrganizationID: organizationID,
		ActorID:        actor(c),
		Title:          req.Title,
		Steps:          req.StepModels(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformProcessResponse(process))
}

func (h *APIHandlers) DeleteProcess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	if err := h.processService.Delete(c.Context(), id, actor(c)); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetDiagram returns the compiled flowchart definition as plain text.
// Definitions are cached per process revision and option set.
func (h *APIHandlers) GetDiagram(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	opts, err := parseDiagramOptions(c)
	if err != nil {
		return badRequest(c, "Invalid diagram options: "+err.Error())
	}

	process, err := h.processService.Fetch(c.Context(), id, actor(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	key := ""

	if h.cache != nil {
		key = rendercache.Key(process.ID, process.UpdatedAt, opts)

		if cached := h.cache.Get(c.Context(), key); cached != "" {
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

			return c.SendString(cached)
		}
	}

	definition, err := h.processService.Definition(c.Context(), process, opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	if h.cache != nil {
		h.cache.Set(c.Context(), key, definition)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.SendString(definition)
}

// GetLayout returns positioned-node geometry for the custom renderer.
func (h *APIHandlers) GetLayout(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	opts, err := parseDiagramOptions(c)
	if err != nil {
		return badRequest(c, "Invalid diagram options: "+err.Error())
	}

	layout, err := h.processService.Layout(c.Context(), id, actor(c), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(layout)
}

func (h *APIHandlers) GetDepartments(c fiber.Ctx) error {
	organizationID := c.Params("orgID")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	departments, err := h.directoryService.ListDepartments(c.Context(), organizationID, actor(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(departments)
}

func (h *APIHandlers) CreateDepartment(c fiber.Ctx) error {
	organizationID := c.Params("orgID")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	var req CreateDepartmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	department, err := h.directoryService.CreateDepartment(c.Context(), organizationID, actor(c), req.Name, req.Color)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(department)
}

func (h *APIHandlers) GetRoles(c fiber.Ctx) error {
	organizationID := c.Params("orgID")
	departmentID := c.Params("departmentID")

	if organizationID == "" || departmentID == "" {
		return badRequest(c, "Organization ID and department ID are required")
	}

	roles, err := h.directoryService.ListRoles(c.Context(), organizationID, departmentID, actor(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(roles)
}

func (h *APIHandlers) CreateRole(c fiber.Ctx) error {
	organizationID := c.Params("orgID")
	departmentID := c.Params("departmentID")

	if organizationID == "" || departmentID == "" {
		return badRequest(c, "Organization ID and department ID are required")
	}

	var req CreateRoleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	role, err := h.directoryService.CreateRole(c.Context(), organizationID, departmentID, actor(c), req.Name, req.Color)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// parseDiagramOptions reads the diagram toggles from query parameters. All
// default to false.
func parseDiagramOptions(c fiber.Ctx) (diagram.Options, error) {
	opts := diagram.Options{}

	flags := map[string]*bool{
		"group":       &opts.GroupByDepartment,
		"departments": &opts.ShowDepartments,
		"roles":       &opts.ShowRoles,
		"colors":      &opts.Colors,
	}

	for name, target := range flags {
		raw := c.Query(name)
		if raw == "" {
			continue
		}

		value, err := strconv.ParseBool(raw)
		if err != nil {
			return diagram.Options{}, err
		}

		*target = value
	}

	return opts, nil
}

func actor(c fiber.Ctx) string {
	return c.Get(ActorHeader)
}
