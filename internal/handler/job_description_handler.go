package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/internal/utils"
)

// JobDescriptionHandler wires job description routes.
type JobDescriptionHandler struct {
	service   service.JobDescriptionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewJobDescriptionHandler constructs the handler.
func NewJobDescriptionHandler(service service.JobDescriptionService, validator *validator.Validate, logger zerolog.Logger) *JobDescriptionHandler {
	return &JobDescriptionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "job_description_handler").Logger(),
	}
}

// Register attaches job description endpoints to the router group.
func (h *JobDescriptionHandler) Register(router fiber.Router) {
	router.Post("/generate", h.generate)
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *JobDescriptionHandler) generate(c *fiber.Ctx) error {
	var payload dto.GenerateJobDescriptionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	jd, err := h.service.Generate(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "job description generated", jd)
}

func (h *JobDescriptionHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateJobDescriptionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	jd, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "job description stored", jd)
}

func (h *JobDescriptionHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c), actorFromContext(c))
	if err != nil {
		return internalError(c, h.logger, err)
	}

	return utils.OK(c, items, "job descriptions retrieved", fiber.Map{"count": len(items)})
}

func (h *JobDescriptionHandler) get(c *fiber.Ctx) error {
	jd, err := h.service.Get(requestContext(c), actorFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "job description retrieved", jd)
}
