package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/internal/utils"
)

// SpeechHandler exposes transcription and read-aloud endpoints.
type SpeechHandler struct {
	service   service.SpeechService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSpeechHandler constructs the handler.
func NewSpeechHandler(service service.SpeechService, validator *validator.Validate, logger zerolog.Logger) *SpeechHandler {
	return &SpeechHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "speech_handler").Logger(),
	}
}

// Register attaches speech endpoints to the router group.
func (h *SpeechHandler) Register(router fiber.Router) {
	router.Get("/health", middleware.WithAuth(h.health, middleware.AuthOptions{RequireUser: true}))
	router.Post("/transcribe", middleware.WithAuth(h.transcribe, middleware.AuthOptions{Role: middleware.AuthRoleCandidate}))
	router.Post("/synthesize", middleware.WithAuth(h.synthesize, middleware.AuthOptions{Role: middleware.AuthRoleRecruiter}))
}

func (h *SpeechHandler) health(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "speech provider status", h.service.Health())
}

func (h *SpeechHandler) transcribe(c *fiber.Ctx) error {
	header, err := c.FormFile("audio")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "audio file required")
	}

	data, err := readFormFile(header)
	if err != nil {
		return internalError(c, h.logger, err)
	}

	resp, err := h.service.Transcribe(requestContext(c), header.Filename, data)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "audio transcribed", resp)
}

func (h *SpeechHandler) synthesize(c *fiber.Ctx) error {
	var payload dto.SynthesizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	audio, err := h.service.Synthesize(requestContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="question.mp3"`)
	return c.Status(fiber.StatusOK).Send(audio)
}
