package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseFormInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.FormValue(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func userIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case string:
			return strings.TrimSpace(id)
		case fmt.Stringer:
			return strings.TrimSpace(id.String())
		}
	}
	return ""
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return strings.ToLower(strings.TrimSpace(role))
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	interviewID, _ := c.Locals("interview_id").(string)
	return service.Actor{
		ID:          userIDFromContext(c),
		Role:        userRoleFromContext(c),
		InterviewID: interviewID,
	}
}

// requestContext carries the correlation id into service calls.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// writeServiceError maps service errors onto HTTP responses. It returns false
// when the error is unknown and should be reported as an internal error.
func writeServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) (bool, error) {
	var (
		validationErrors validator.ValidationErrors
		stateErr         *service.InterviewStateError
		upstreamErr      *service.UpstreamError
	)

	switch {
	case errors.As(err, &validationErrors):
		return true, utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrors))
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrNoRankableResumes):
		return true, utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return true, utils.Fail(c, fiber.StatusUnauthorized, "invalid username or password", fiber.Map{"reason": "invalid_credentials"})
	case errors.Is(err, service.ErrCredentialExpired):
		return true, utils.Fail(c, fiber.StatusUnauthorized, "account expired", fiber.Map{"reason": "account_expired"})
	case errors.Is(err, service.ErrCredentialAttempted):
		return true, utils.Fail(c, fiber.StatusUnauthorized, "interview already attempted", fiber.Map{"reason": "interview_attempted"})
	case errors.Is(err, service.ErrForbidden):
		return true, utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrJobDescriptionNotFound),
		errors.Is(err, service.ErrResumeNotFound),
		errors.Is(err, service.ErrInterviewNotFound):
		return true, utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &stateErr):
		return true, utils.Fail(c, fiber.StatusConflict, stateErr.Error(), fiber.Map{"status": string(stateErr.Current)})
	case errors.Is(err, service.ErrConcurrentModification), errors.Is(err, service.ErrUserExists):
		return true, utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &upstreamErr):
		requestLogger(logger, c).Error().Err(err).Str("operation", upstreamErr.Operation).Msg("upstream failure")
		return true, utils.SendError(c, fiber.StatusBadGateway, "upstream service unavailable")
	case errors.Is(err, service.ErrSpeechUnavailable):
		return true, utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return false, nil
	}
}

func validationDetails(errs validator.ValidationErrors) fiber.Map {
	fields := make(fiber.Map, len(errs))
	for _, fieldErr := range errs {
		fields[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return fiber.Map{"fields": fields}
}

func internalError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	requestLogger(logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func handleServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if handled, writeErr := writeServiceError(c, logger, err); handled {
		return writeErr
	}
	return internalError(c, logger, err)
}
