package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/induction-api/internal/config"
	"github.com/noah-isme/induction-api/internal/handler"
	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	DocumentHandler     *handler.DocumentHandler
	QuizHandler         *handler.QuizHandler
	ExportHandler       *handler.ExportHandler
	ActivityHandler     *handler.ActivityHandler
	ProgressFeedHandler *handler.ProgressFeedHandler
	HealthChecks        map[string]handler.Pinger
	JWTMiddleware       fiber.Handler
	OptionalJWT         fiber.Handler
	LoginLimiter        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	app.Get("/metrics", observability.MetricsHandler())

	passThrough := func(c *fiber.Ctx) error { return c.Next() }

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = passThrough
	}
	optional := deps.OptionalJWT
	if optional == nil {
		optional = passThrough
	}
	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = passThrough
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(app.Group("/auth"), jwtMiddleware, loginLimiter)
	}

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.Register(app.Group("/documents"), jwtMiddleware)
	}

	if deps.QuizHandler != nil {
		deps.QuizHandler.Register(app.Group("/quiz"), optional, jwtMiddleware)
	}

	admin := []fiber.Handler{jwtMiddleware, middleware.RequireAdmin()}

	if deps.ExportHandler != nil {
		deps.ExportHandler.Register(app.Group("/export", admin...))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(app.Group("/admin/activity", admin...))
	}

	if deps.ProgressFeedHandler != nil {
		deps.ProgressFeedHandler.Register(app.Group("/ws", admin...))
	}
}
