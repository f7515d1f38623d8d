package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/observability"
	"github.com/noah-isme/induction-api/internal/repository"
)

// QuizSubmissionService handles the submit → approve lifecycle of quiz answers.
type QuizSubmissionService interface {
	Submit(ctx context.Context, userID uint, slug string, answers json.RawMessage) (dto.SubmissionResponse, error)
	Status(ctx context.Context, userID uint, slug string) (dto.QuizStatusResponse, error)
	StatusAll(ctx context.Context, userID uint) (map[string]dto.QuizStatusResponse, error)
	List(ctx context.Context, slug string) ([]dto.SubmissionResponse, error)
	SetApproval(ctx context.Context, actor ActivityActor, id uint, approved bool) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error)
}

type quizSubmissionService struct {
	submissions repository.QuizSubmissionRepository
	quizzes     repository.QuizRepository
	activity    ActivityRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewQuizSubmissionService constructs the submission service.
func NewQuizSubmissionService(submissions repository.QuizSubmissionRepository, quizzes repository.QuizRepository, activity ActivityRecorder, logger zerolog.Logger) QuizSubmissionService {
	return &quizSubmissionService{
		submissions: submissions,
		quizzes:     quizzes,
		activity:    activity,
		logger:      logger.With().Str("component", "quiz_submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/induction-api/internal/service/quiz_submission"),
		now:         time.Now,
	}
}

func (s *quizSubmissionService) Submit(ctx context.Context, userID uint, slug string, answers json.RawMessage) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz_submission.submit", trace.WithAttributes(
		attribute.Int("submission.user_id", int(userID)),
		attribute.String("submission.quiz", slug),
	))
	defer span.End()

	quiz, err := s.quizBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	parsed, err := parseAnswers(answers)
	if err != nil {
		observability.QuizSubmissions().WithLabelValues(quiz.Slug, "invalid").Inc()
		span.SetStatus(codes.Error, "invalid answers")
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.submissions.GetByUserAndQuiz(ctx, userID, quiz.ID); err == nil {
		observability.QuizSubmissions().WithLabelValues(quiz.Slug, "duplicate").Inc()
		span.SetStatus(codes.Error, "duplicate")
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	encoded, err := json.Marshal(parsed)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.QuizSubmission{
		UserID:      userID,
		QuizID:      quiz.ID,
		Answers:     datatypes.JSON(encoded),
		SubmittedAt: s.now().UTC(),
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.QuizSubmissions().WithLabelValues(quiz.Slug, "duplicate").Inc()
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.SubmissionResponse{}, err
	}

	observability.QuizSubmissions().WithLabelValues(quiz.Slug, "accepted").Inc()
	span.SetStatus(codes.Ok, "submitted")
	s.logger.Info().Uint("user_id", userID).Str("quiz", quiz.Slug).Msg("quiz submitted")

	submission.Quiz = quiz
	return dto.NewSubmissionResponse(submission), nil
}

func (s *quizSubmissionService) Status(ctx context.Context, userID uint, slug string) (dto.QuizStatusResponse, error) {
	quiz, err := s.quizBySlug(ctx, slug)
	if err != nil {
		return dto.QuizStatusResponse{}, err
	}

	submission, err := s.submissions.GetByUserAndQuiz(ctx, userID, quiz.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizStatusResponse{}, nil
		}
		return dto.QuizStatusResponse{}, err
	}

	return dto.QuizStatusResponse{Submitted: true, Approved: submission.Approved}, nil
}

func (s *quizSubmissionService) StatusAll(ctx context.Context, userID uint) (map[string]dto.QuizStatusResponse, error) {
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.QuizSubmissionFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}

	byQuiz := make(map[uint]models.QuizSubmission, len(submissions))
	for _, submission := range submissions {
		byQuiz[submission.QuizID] = submission
	}

	statuses := make(map[string]dto.QuizStatusResponse, len(quizzes))
	for _, quiz := range quizzes {
		submission, ok := byQuiz[quiz.ID]
		statuses[quiz.Slug] = dto.QuizStatusResponse{Submitted: ok, Approved: ok && submission.Approved}
	}
	return statuses, nil
}

func (s *quizSubmissionService) List(ctx context.Context, slug string) ([]dto.SubmissionResponse, error) {
	filter := repository.QuizSubmissionFilter{}
	if slug != "" {
		quiz, err := s.quizBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		filter.QuizID = &quiz.ID
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	questionsByQuiz := make(map[uint][]models.QuizQuestion)
	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		questions, ok := questionsByQuiz[submission.QuizID]
		if !ok {
			questions, err = s.quizzes.ListQuestions(ctx, submission.QuizID)
			if err != nil {
				return nil, err
			}
			questionsByQuiz[submission.QuizID] = questions
		}

		response := dto.NewSubmissionResponse(submission)
		var answers map[string]interface{}
		if err := json.Unmarshal(submission.Answers, &answers); err == nil {
			if correct, gradable := scoreAnswers(questions, answers); gradable > 0 {
				response.Score = &dto.SubmissionScore{Correct: correct, Gradable: gradable}
			}
		}
		responses = append(responses, response)
	}
	return responses, nil
}

// SetApproval approves or unapproves a submission. Answers are never modified.
func (s *quizSubmissionService) SetApproval(ctx context.Context, actor ActivityActor, id uint, approved bool) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz_submission.set_approval", trace.WithAttributes(
		attribute.Int("submission.id", int(id)),
		attribute.Bool("submission.approved", approved),
	))
	defer span.End()

	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if submission.Approved == approved {
		return dto.NewSubmissionResponse(submission), nil
	}

	var approvedBy *uint
	var approvedAt *time.Time
	if approved {
		by := actor.ID
		at := s.now().UTC()
		approvedBy, approvedAt = &by, &at
	}

	if err := s.submissions.SetApproval(ctx, id, approved, approvedBy, approvedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	action := models.ActionSubmissionUnapproved
	if approved {
		action = models.ActionSubmissionApproved
	}
	recordActivity(ctx, s.activity, s.logger, actor, action, models.EntityQuizSubmission, &id, map[string]interface{}{
		"user_id": submission.UserID,
		"quiz":    submission.Quiz.Slug,
	})

	updated, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(updated), nil
}

// Delete removes a submission so the user may submit again. The deleted
// submission is returned so callers can refresh the owner's progress.
func (s *quizSubmissionService) Delete(ctx context.Context, actor ActivityActor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionSubmissionDeleted, models.EntityQuizSubmission, &id, map[string]interface{}{
		"user_id": submission.UserID,
		"quiz":    submission.Quiz.Slug,
	})
	return dto.NewSubmissionResponse(submission), nil
}

func (s *quizSubmissionService) getSubmission(ctx context.Context, id uint) (models.QuizSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuizSubmission{}, ErrSubmissionNotFound
		}
		return models.QuizSubmission{}, err
	}
	return submission, nil
}

func (s *quizSubmissionService) quizBySlug(ctx context.Context, slug string) (models.Quiz, error) {
	quiz, err := s.quizzes.GetBySlug(ctx, normalizeSlug(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}
	return quiz, nil
}
