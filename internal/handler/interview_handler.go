package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/internal/utils"
)

const feedPingInterval = 30 * time.Second

// InterviewHandler wires interview lifecycle routes and the recruiter event feed.
type InterviewHandler struct {
	service   service.InterviewService
	feed      service.InterviewFeed
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewInterviewHandler constructs the handler. feed may be nil, which disables the websocket.
func NewInterviewHandler(service service.InterviewService, feed service.InterviewFeed, validator *validator.Validate, logger zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		service:   service,
		feed:      feed,
		validator: validator,
		logger:    logger.With().Str("component", "interview_handler").Logger(),
	}
}

// Register attaches interview endpoints to the router group.
func (h *InterviewHandler) Register(router fiber.Router) {
	recruiter := middleware.AuthOptions{Role: middleware.AuthRoleRecruiter}
	candidate := middleware.AuthOptions{Role: middleware.AuthRoleCandidate}

	router.Post("", middleware.WithAuth(h.assign, recruiter))
	router.Get("/results", middleware.WithAuth(h.results, recruiter))
	router.Get("/mine", middleware.WithAuth(h.mine, candidate))

	if h.feed != nil {
		router.Use("/feed/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				c.Locals("request_ctx", requestContext(c))
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		router.Get("/feed/ws", middleware.WithAuth(websocket.New(h.streamFeed), recruiter))
	}

	router.Post("/:id/start", middleware.WithAuth(h.start, candidate))
	router.Post("/:id/answer", middleware.WithAuth(h.answer, candidate))
	router.Get("/:id/status", middleware.WithAuth(h.status, middleware.AuthOptions{RequireUser: true}))
	router.Get("/:id/summary", middleware.WithAuth(h.summary, recruiter))
	router.Post("/:id/cancel", middleware.WithAuth(h.cancel, recruiter))
}

func (h *InterviewHandler) assign(c *fiber.Ctx) error {
	var payload dto.AssignInterviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Assign(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interview assigned", resp)
}

func (h *InterviewHandler) results(c *fiber.Ctx) error {
	results, err := h.service.Results(requestContext(c), actorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.OK(c, results, "interview results retrieved", fiber.Map{"count": len(results)})
}

func (h *InterviewHandler) mine(c *fiber.Ctx) error {
	interviews, err := h.service.ListMine(requestContext(c), actorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interviews retrieved", interviews)
}

func (h *InterviewHandler) start(c *fiber.Ctx) error {
	resp, err := h.service.Start(requestContext(c), actorFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interview started", resp)
}

func (h *InterviewHandler) answer(c *fiber.Ctx) error {
	var payload dto.SubmitAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.SubmitAnswer(requestContext(c), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	message := "answer recorded"
	if resp.Summary != nil {
		message = "interview completed"
	}
	return utils.SendSuccess(c, message, resp)
}

func (h *InterviewHandler) status(c *fiber.Ctx) error {
	resp, err := h.service.Status(requestContext(c), actorFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interview status", resp)
}

func (h *InterviewHandler) summary(c *fiber.Ctx) error {
	resp, err := h.service.Summary(requestContext(c), actorFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interview summary", resp)
}

func (h *InterviewHandler) cancel(c *fiber.Ctx) error {
	resp, err := h.service.Cancel(requestContext(c), actorFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interview cancelled", resp)
}

func (h *InterviewHandler) streamFeed(conn *websocket.Conn) {
	recruiterID := websocketUserID(conn)
	if recruiterID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	logger := h.logger.With().Str("recruiter_id", recruiterID).Logger()
	if ctx, ok := conn.Locals("request_ctx").(context.Context); ok {
		if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
			logger = logger.With().Str("correlation_id", correlation).Logger()
		}
	}

	events, cleanup := h.feed.Subscribe(recruiterID)
	defer cleanup()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info().Msg("interview feed connected")
	defer logger.Info().Msg("interview feed disconnected")

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Warn().Err(err).Msg("failed to write interview event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func websocketUserID(conn *websocket.Conn) string {
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v)
		case fmt.Stringer:
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}
