package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/observability"
	"github.com/noah-isme/induction-api/internal/repository"
)

const (
	pdfMimeType = "application/pdf"
	// storedNameAttempts bounds how many fresh names are tried when one is taken.
	storedNameAttempts = 3
)

// FileStorage abstracts where document files live.
type FileStorage interface {
	Save(ctx context.Context, name string, reader io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// DocumentService manages the registry of required reading documents.
type DocumentService interface {
	List(ctx context.Context) ([]dto.DocumentResponse, error)
	Upload(ctx context.Context, actor ActivityActor, title string, file *multipart.FileHeader) (dto.DocumentResponse, error)
	UploadMultiple(ctx context.Context, actor ActivityActor, files []*multipart.FileHeader, titles []string) (dto.MultiUploadResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

type documentService struct {
	repo      repository.DocumentRepository
	storage   FileStorage
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	maxSize   int64
	tracer    trace.Tracer
	now       func() time.Time
	nameToken func() string
}

// NewDocumentService constructs the document registry service.
func NewDocumentService(repo repository.DocumentRepository, storage FileStorage, activity ActivityRecorder, maxSizeMB int, logger zerolog.Logger) DocumentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	return &documentService{
		repo:      repo,
		storage:   storage,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "document_service").Logger(),
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		tracer:    otel.Tracer("github.com/noah-isme/induction-api/internal/service/document"),
		now:       time.Now,
		nameToken: shortToken,
	}
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (s *documentService) List(ctx context.Context) ([]dto.DocumentResponse, error) {
	documents, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		responses = append(responses, dto.NewDocumentResponse(document))
	}
	return responses, nil
}

func (s *documentService) Upload(ctx context.Context, actor ActivityActor, title string, file *multipart.FileHeader) (dto.DocumentResponse, error) {
	title = cleanText(s.sanitizer, title)
	if title == "" {
		return dto.DocumentResponse{}, ErrTitleRequired
	}
	return s.store(ctx, actor, title, file)
}

func (s *documentService) UploadMultiple(ctx context.Context, actor ActivityActor, files []*multipart.FileHeader, titles []string) (dto.MultiUploadResponse, error) {
	if len(files) == 0 {
		return dto.MultiUploadResponse{}, ErrFileRequired
	}

	result := dto.MultiUploadResponse{
		Uploaded: make([]dto.DocumentResponse, 0, len(files)),
		Failed:   []dto.UploadFailure{},
	}
	for i, file := range files {
		title := ""
		if i < len(titles) {
			title = cleanText(s.sanitizer, titles[i])
		}
		if title == "" && file != nil {
			title = cleanText(s.sanitizer, strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename)))
		}
		if title == "" {
			title = "Untitled document"
		}

		document, err := s.store(ctx, actor, title, file)
		if err != nil {
			name := ""
			if file != nil {
				name = file.Filename
			}
			result.Failed = append(result.Failed, dto.UploadFailure{Filename: name, Error: s.uploadFailureMessage(err, name)})
			continue
		}
		result.Uploaded = append(result.Uploaded, document)
	}
	return result, nil
}

// uploadFailureMessage keeps client-facing errors to the known upload rejections.
func (s *documentService) uploadFailureMessage(err error, name string) string {
	for _, known := range []error{ErrFileRequired, ErrFileTooLarge, ErrUnsupportedFileType, ErrDocumentExists} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	s.logger.Error().Err(err).Str("file", name).Msg("document upload failed")
	return "failed to store document"
}

func (s *documentService) store(ctx context.Context, actor ActivityActor, title string, file *multipart.FileHeader) (dto.DocumentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "document.upload")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file == nil {
		span.SetStatus(codes.Error, "file missing")
		return dto.DocumentResponse{}, ErrFileRequired
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.DocumentUploads().WithLabelValues("too_large").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.DocumentResponse{}, ErrFileTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.DocumentResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return dto.DocumentResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.DocumentUploads().WithLabelValues("too_large").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.DocumentResponse{}, ErrFileTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !detected.Is(pdfMimeType) {
		observability.DocumentUploads().WithLabelValues("unsupported_type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return dto.DocumentResponse{}, ErrUnsupportedFileType
	}

	checksum := sha256.Sum256(buf.Bytes())
	filename, url, err := s.saveUnderFreshName(ctx, sanitizeFileName(file.Filename), buf.Bytes())
	if err != nil {
		observability.DocumentUploads().WithLabelValues("storage_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.DocumentResponse{}, err
	}
	span.SetAttributes(attribute.String("upload.stored_name", filename))

	document := models.Document{
		Title:     title,
		Filename:  filename,
		URL:       url,
		MimeType:  pdfMimeType,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}
	if actor.ID != 0 {
		uploader := actor.ID
		document.UploadedBy = &uploader
	}

	if err := s.repo.Create(ctx, &document); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another row claimed the name after it was checked; its object may be the one just written.
			s.logger.Warn().Str("file", filename).Msg("stored name claimed concurrently, leaving object in place")
			return dto.DocumentResponse{}, ErrDocumentExists
		}
		if deleteErr := s.storage.Delete(ctx, filename); deleteErr != nil {
			s.logger.Warn().Err(deleteErr).Str("file", filename).Msg("failed to clean up stored file")
		}
		return dto.DocumentResponse{}, err
	}

	observability.DocumentUploads().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionDocumentUploaded, models.EntityDocument, &document.ID, map[string]interface{}{
		"filename": document.Filename,
		"title":    document.Title,
	})
	return dto.NewDocumentResponse(document), nil
}

// saveUnderFreshName stores data as <millis>-<token>-<base>, picking a new token
// while the name is already registered or the storage refuses to overwrite it.
func (s *documentService) saveUnderFreshName(ctx context.Context, base string, data []byte) (string, string, error) {
	for attempt := 0; attempt < storedNameAttempts; attempt++ {
		name := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), s.nameToken(), base)

		_, err := s.repo.GetByFilename(ctx, name)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return "", "", err
		}

		url, err := s.storage.Save(ctx, name, bytes.NewReader(data))
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		return name, url, nil
	}
	return "", "", ErrDocumentExists
}

// Delete removes the document from the registry. Removing the stored file is
// best effort; read records that mention it stay but no longer count.
func (s *documentService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	document, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	if err := s.storage.Delete(ctx, document.Filename); err != nil {
		s.logger.Warn().Err(err).Str("file", document.Filename).Msg("failed to delete stored document")
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionDocumentDeleted, models.EntityDocument, &id, map[string]interface{}{
		"filename": document.Filename,
	})
	return nil
}

// sanitizeFileName lowercases name and keeps only [a-z0-9_-], always with a .pdf extension.
func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "document"
	}
	return base + ".pdf"
}
