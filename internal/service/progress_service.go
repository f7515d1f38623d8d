package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/observability"
	"github.com/noah-isme/induction-api/internal/repository"
)

// ProgressService derives induction completion percentages.
type ProgressService interface {
	Calculate(ctx context.Context, userID uint) (dto.ProgressResponse, error)
	CalculateAll(ctx context.Context) ([]dto.UserProgressResponse, error)
}

type progressService struct {
	users       repository.UserRepository
	documents   repository.DocumentRepository
	readStatus  repository.ReadStatusRepository
	quizzes     repository.QuizRepository
	submissions repository.QuizSubmissionRepository
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewProgressService builds the progress calculator.
func NewProgressService(users repository.UserRepository, documents repository.DocumentRepository, readStatus repository.ReadStatusRepository, quizzes repository.QuizRepository, submissions repository.QuizSubmissionRepository, logger zerolog.Logger) ProgressService {
	return &progressService{
		users:       users,
		documents:   documents,
		readStatus:  readStatus,
		quizzes:     quizzes,
		submissions: submissions,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/induction-api/internal/service/progress"),
	}
}

func (s *progressService) Calculate(ctx context.Context, userID uint) (dto.ProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.calculate", trace.WithAttributes(attribute.Int("progress.user_id", int(userID))))
	defer span.End()

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrUserNotFound
		}
		return dto.ProgressResponse{}, err
	}

	documents, err := s.documents.List(ctx)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	records, err := s.readStatus.ListByUser(ctx, userID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	approved := true
	submissions, err := s.submissions.List(ctx, repository.QuizSubmissionFilter{UserID: &userID, Approved: &approved})
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	report := computeProgress(documents, readMap(records), quizzes, approvedQuizIDs(submissions))
	report.UserID = userID

	observability.ProgressComputations().Inc()
	span.SetAttributes(attribute.Int("progress.percent", report.Progress))
	return report, nil
}

func (s *progressService) CalculateAll(ctx context.Context) ([]dto.UserProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.calculate_all")
	defer span.End()

	users, _, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	documents, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.readStatus.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	approved := true
	submissions, err := s.submissions.List(ctx, repository.QuizSubmissionFilter{Approved: &approved})
	if err != nil {
		return nil, err
	}

	recordsByUser := make(map[uint][]models.ReadRecord)
	for _, record := range records {
		recordsByUser[record.UserID] = append(recordsByUser[record.UserID], record)
	}
	submissionsByUser := make(map[uint][]models.QuizSubmission)
	for _, submission := range submissions {
		submissionsByUser[submission.UserID] = append(submissionsByUser[submission.UserID], submission)
	}

	results := make([]dto.UserProgressResponse, 0, len(users))
	for _, user := range users {
		report := computeProgress(documents, readMap(recordsByUser[user.ID]), quizzes, approvedQuizIDs(submissionsByUser[user.ID]))
		results = append(results, dto.UserProgressResponse{
			UserResponse:   dto.NewUserResponse(user),
			Progress:       report.Progress,
			CompletedItems: report.CompletedItems,
			TotalItems:     report.TotalItems,
		})
	}

	observability.ProgressComputations().Add(float64(len(users)))
	span.SetAttributes(attribute.Int("progress.users", len(users)))
	return results, nil
}

// computeProgress combines read documents and approved quizzes into a percentage.
// Only filenames present in the document registry count as read, so stale
// records for deleted documents are ignored.
func computeProgress(documents []models.Document, read map[string]bool, quizzes []models.Quiz, approved map[uint]bool) dto.ProgressResponse {
	report := dto.ProgressResponse{
		Documents: make(map[string]bool, len(documents)),
		Quizzes:   make(map[string]bool, len(quizzes)),
	}

	for _, document := range documents {
		isRead := read[document.Filename]
		report.Documents[document.Filename] = isRead
		if isRead {
			report.ReadCount++
		}
	}
	for _, quiz := range quizzes {
		passed := approved[quiz.ID]
		report.Quizzes[quiz.Slug] = passed
		if passed {
			report.ApprovedQuizzes++
		}
	}

	report.TotalDocuments = len(documents)
	report.TotalQuizzes = len(quizzes)
	report.CompletedItems = report.ReadCount + report.ApprovedQuizzes
	report.TotalItems = report.TotalDocuments + report.TotalQuizzes
	report.Progress = percent(report.CompletedItems, report.TotalItems)
	return report
}

// percent returns completed/total as an integer percentage rounded half up
// and clamped to [0, 100]. A zero total yields 0.
func percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (completed*200 + total) / (total * 2)
}

func readMap(records []models.ReadRecord) map[string]bool {
	read := make(map[string]bool, len(records))
	for _, record := range records {
		if record.IsRead {
			read[record.DocumentName] = true
		}
	}
	return read
}

func approvedQuizIDs(submissions []models.QuizSubmission) map[uint]bool {
	approved := make(map[uint]bool, len(submissions))
	for _, submission := range submissions {
		if submission.Approved {
			approved[submission.QuizID] = true
		}
	}
	return approved
}
