package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/service"
	"github.com/noah-isme/induction-api/internal/utils"
)

const invalidCredentialsMessage = "Invalid email or password"

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(id), nil
}

func sessionFromContext(c *fiber.Ctx) middleware.Session {
	session, _ := middleware.GetSession(c)
	return session
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	session := sessionFromContext(c)
	return service.ActivityActor{
		ID:   session.UserID,
		Role: session.Role,
	}
}

// requestContext returns the request context carrying the session and correlation id.
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

// sendServiceError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported with the generic fallback message.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, invalidCredentialsMessage)
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrQuizExists),
		errors.Is(err, service.ErrDocumentExists),
		errors.Is(err, service.ErrDuplicateSubmission):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrFileRequired),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrInvalidSlug),
		errors.Is(err, service.ErrInvalidAnswerKey),
		errors.Is(err, service.ErrInvalidAnswers),
		errors.Is(err, service.ErrInvalidDocumentName):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("route", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

// publishProgress pushes a fresh progress event for userID. Feed failures never fail the request.
func publishProgress(c *fiber.Ctx, feed service.ProgressFeed, logger zerolog.Logger, userID uint) {
	if feed == nil || userID == 0 {
		return
	}
	if _, err := feed.Publish(requestContext(c), userID); err != nil {
		requestLogger(logger, c).Warn().Err(err).Uint("user_id", userID).Msg("failed to publish progress event")
	}
}

// publishRecompute tells dashboards that every user's progress moved.
func publishRecompute(c *fiber.Ctx, feed service.ProgressFeed, reason string) {
	if feed == nil {
		return
	}
	feed.PublishRecompute(requestContext(c), reason)
}
