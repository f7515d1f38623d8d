package handler

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/service"
	"github.com/noah-isme/induction-api/internal/utils"
)

// FileLocator resolves a stored document name to a path on local disk.
type FileLocator interface {
	Path(name string) (string, error)
}

// DocumentHandler exposes the document registry.
type DocumentHandler struct {
	service service.DocumentService
	files   FileLocator
	feed    service.ProgressFeed
	logger  zerolog.Logger
}

// NewDocumentHandler constructs the handler. files is nil when documents are
// stored remotely; the file route then answers 404.
func NewDocumentHandler(service service.DocumentService, files FileLocator, feed service.ProgressFeed, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		files:   files,
		feed:    feed,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register binds the /documents routes.
func (h *DocumentHandler) Register(router fiber.Router, protected fiber.Handler) {
	adminOnly := middleware.AuthOptions{AdminOnly: true}

	router.Get("", h.list)
	router.Get("/files/:filename", h.serveFile)
	router.Post("/upload", protected, middleware.WithAuth(h.upload, adminOnly))
	router.Post("/upload-multiple", protected, middleware.WithAuth(h.uploadMultiple, adminOnly))
	router.Delete("/:id", protected, middleware.WithAuth(h.delete, adminOnly))
}

func (h *DocumentHandler) list(c *fiber.Ctx) error {
	documents, err := h.service.List(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list documents")
	}
	return utils.SendSuccess(c, "documents", documents)
}

func (h *DocumentHandler) serveFile(c *fiber.Ctx) error {
	if h.files == nil {
		return utils.SendError(c, fiber.StatusNotFound, "document not found")
	}

	path, err := h.files.Path(c.Params("filename"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid filename")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return utils.SendError(c, fiber.StatusNotFound, "document not found")
		}
		return sendServiceError(c, h.logger, err, "failed to open document")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "inline")
	return c.SendFile(path)
}

func (h *DocumentHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	document, err := h.service.Upload(requestContext(c), activityActorFromContext(c), c.FormValue("title"), file)
	if err != nil {
		return sendServiceError(c, h.logger, err, "upload failed")
	}
	publishRecompute(c, h.feed, models.ActionDocumentUploaded)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document uploaded", document)
}

func (h *DocumentHandler) uploadMultiple(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form required")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one file is required")
	}

	result, err := h.service.UploadMultiple(requestContext(c), activityActorFromContext(c), files, form.Value["titles"])
	if err != nil {
		return sendServiceError(c, h.logger, err, "upload failed")
	}

	status := fiber.StatusCreated
	if len(result.Uploaded) == 0 {
		status = fiber.StatusOK
	} else {
		publishRecompute(c, h.feed, models.ActionDocumentUploaded)
	}
	return utils.SendSuccessWithStatus(c, status, "documents processed", result)
}

func (h *DocumentHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), activityActorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete document")
	}
	publishRecompute(c, h.feed, models.ActionDocumentDeleted)
	return utils.SendSuccess(c, "document deleted", nil)
}
