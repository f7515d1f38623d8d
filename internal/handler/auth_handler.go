package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/service"
	"github.com/noah-isme/induction-api/internal/utils"
)

// AuthHandler exposes login, account management and per-user progress endpoints.
type AuthHandler struct {
	auth       service.AuthService
	users      service.UserService
	readStatus service.ReadStatusService
	progress   service.ProgressService
	feed       service.ProgressFeed
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewAuthHandler constructs the handler. feed may be nil.
func NewAuthHandler(auth service.AuthService, users service.UserService, readStatus service.ReadStatusService, progress service.ProgressService, feed service.ProgressFeed, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		users:      users,
		readStatus: readStatus,
		progress:   progress,
		feed:       feed,
		validator:  validate,
		logger:     logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds the /auth routes. protected verifies the bearer token and
// loginLimiter throttles login attempts.
func (h *AuthHandler) Register(router fiber.Router, protected, loginLimiter fiber.Handler) {
	adminOnly := middleware.AuthOptions{AdminOnly: true}
	owner := middleware.AuthOptions{OwnerParam: "userId"}

	router.Post("/login", loginLimiter, h.login)

	router.Get("/me", protected, middleware.WithAuth(h.me, middleware.AuthOptions{}))
	router.Post("/logout", protected, middleware.WithAuth(h.logout, middleware.AuthOptions{}))
	router.Get("/get-progress/:userId", protected, middleware.WithAuth(h.getProgress, owner))
	router.Post("/save-progress", protected, middleware.WithAuth(h.saveProgress, middleware.AuthOptions{}))
	router.Get("/progress-percent/:userId", protected, middleware.WithAuth(h.progressPercent, owner))

	router.Post("/register", protected, middleware.WithAuth(h.register, adminOnly))
	router.Get("/users", protected, middleware.WithAuth(h.listUsers, adminOnly))
	router.Get("/users-progress", protected, middleware.WithAuth(h.usersProgress, adminOnly))
	router.Patch("/users/:id/role", protected, middleware.WithAuth(h.updateRole, adminOnly))
	router.Delete("/users/:id", protected, middleware.WithAuth(h.deleteUser, adminOnly))
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.auth.Login(requestContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to login")
	}

	requestLogger(h.logger, c).Info().Uint("user_id", response.User.ID).Msg("user logged in")
	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.auth.Me(requestContext(c), sessionFromContext(c).UserID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load user")
	}
	return utils.SendSuccess(c, "current user", user)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	session := sessionFromContext(c)
	if err := h.auth.Logout(requestContext(c), session.TokenID, session.ExpiresAt); err != nil {
		return sendServiceError(c, h.logger, err, "failed to logout")
	}
	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) getProgress(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	statuses, err := h.readStatus.GetReadStatus(requestContext(c), userID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load read status")
	}
	return utils.SendSuccess(c, "read status", statuses)
}

func (h *AuthHandler) saveProgress(c *fiber.Ctx) error {
	var payload dto.SaveProgressRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if !sessionFromContext(c).CanAccessUser(payload.UserID) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	if err := h.readStatus.SetReadStatus(requestContext(c), payload.UserID, payload.ReadDocuments); err != nil {
		return sendServiceError(c, h.logger, err, "failed to save progress")
	}

	publishProgress(c, h.feed, h.logger, payload.UserID)
	return utils.SendSuccess(c, "progress saved", nil)
}

func (h *AuthHandler) progressPercent(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.progress.Calculate(requestContext(c), userID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to calculate progress")
	}
	return utils.SendSuccess(c, "progress", report)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.Register(requestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to register user")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *AuthHandler) listUsers(c *fiber.Ctx) error {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list users")
	}
	return utils.SendSuccess(c, "users", users)
}

func (h *AuthHandler) usersProgress(c *fiber.Ctx) error {
	users, err := h.progress.CalculateAll(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to calculate progress")
	}
	return utils.SendSuccess(c, "users progress", users)
}

func (h *AuthHandler) updateRole(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateRoleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.UpdateRole(requestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update role")
	}
	return utils.SendSuccess(c, "role updated", user)
}

func (h *AuthHandler) deleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.users.Delete(requestContext(c), activityActorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete user")
	}
	publishRecompute(c, h.feed, models.ActionUserDeleted)
	return utils.SendSuccess(c, "user deleted", nil)
}
