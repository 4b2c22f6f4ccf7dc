package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/internal/utils"
)

// AdminHandler manages persistent principals and credential housekeeping.
type AdminHandler struct {
	service   service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service service.AuthService, validator *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin endpoints to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Post("/users", h.createUser)
	router.Post("/credentials/cleanup", h.cleanupCredentials)
}

func (h *AdminHandler) createUser(c *fiber.Ctx) error {
	var payload dto.CreateUserRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.CreateUser(requestContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Str("user_id", user.ID).
		Str("created_by", userIDFromContext(c)).
		Msg("persistent user created")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *AdminHandler) cleanupCredentials(c *fiber.Ctx) error {
	resp, err := h.service.CleanupExpiredCredentials(requestContext(c))
	if err != nil {
		return internalError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "expired credentials removed", resp)
}
