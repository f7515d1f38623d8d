package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/service"
)

const usersCSVFilename = "user_progress.csv"

// ExportHandler serves admin report downloads.
type ExportHandler struct {
	service service.ExportService
	logger  zerolog.Logger
}

// NewExportHandler constructs the handler.
func NewExportHandler(service service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// Register attaches export routes to an admin-only router group.
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("/users-csv", h.usersCSV)
}

func (h *ExportHandler) usersCSV(c *fiber.Ctx) error {
	data, err := h.service.UsersCSV(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to export users")
	}

	c.Attachment(usersCSVFilename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(data)
}
