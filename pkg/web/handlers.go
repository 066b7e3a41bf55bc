package web

import (
	"net/http"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/schema"
	"github.com/dukex/flowcanvas/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	authService     *services.Auth
	validation      *services.Validator
	validator       *validator.Validate
	registry        *schema.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	authService *services.Auth,
	validation *services.Validator,
	validator *validator.Validate,
	registry *schema.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		authService:     authService,
		validation:      validation,
		validator:       validator,
		registry:        registry,
	}
}

// Routes mounts every endpoint of the service on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Group("/verify", h.RequireUser).Get("/", h.Verify)

	w := router.Group("/workflows", h.RequireUser)
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/validate", h.ValidateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)

	router.Get("/components", h.GetComponents)
	router.Get("/components/:kind/schema", h.GetComponentSchema)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) Register(c fiber.Ctx) error {
	var credentials models.Credentials
	if err := c.Bind().JSON(&credentials); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	resp, err := h.authService.Register(c.Context(), credentials)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *APIHandlers) Login(c fiber.Ctx) error {
	var credentials models.Credentials
	if err := c.Bind().JSON(&credentials); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	resp, err := h.authService.Login(c.Context(), credentials)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) Verify(c fiber.Ctx) error {
	return c.JSON(models.VerifyResponse{Valid: true, User: CurrentUser(c)})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), CurrentUser(c).ID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), CurrentUser(c).ID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Workflow name is required")
	}

	created, err := h.workflowService.Create(c.Context(), CurrentUser(c).ID, req.Workflow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var patch models.WorkflowPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(patch); err != nil {
		return badRequest(c, "Workflow name cannot be empty")
	}

	updated, err := h.workflowService.Update(c.Context(), CurrentUser(c).ID, id, patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), CurrentUser(c).ID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var graph models.Graph
	if err := c.Bind().JSON(&graph); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return c.JSON(h.validation.Validate(c.Context(), graph))
}

// GetComponents lists the registered component kinds with their field tables.
func (h *APIHandlers) GetComponents(c fiber.Ctx) error {
	kinds := h.registry.Kinds()
	out := make([]fiber.Map, 0, len(kinds))

	for _, kind := range kinds {
		out = append(out, fiber.Map{
			"kind":   kind,
			"label":  h.registry.Label(kind),
			"fields": h.registry.Fields(kind, h.registry.Defaults(kind)),
		})
	}

	return c.JSON(out)
}

func (h *APIHandlers) GetComponentSchema(c fiber.Ctx) error {
	kind := models.ComponentKind(c.Params("kind"))

	if _, ok := h.registry.Definition(kind); !ok {
		return notFound(c, "Component kind not found")
	}

	return c.JSON(h.registry.JSONSchema(kind))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowcanvas API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Flowcanvas API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"components": len(h.registry.Kinds()),
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
