package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/repository"
)

const maxQuestionOptions = 5

var quizSlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// QuizService manages quiz kinds and their questions.
type QuizService interface {
	ListQuizzes(ctx context.Context) ([]dto.QuizResponse, error)
	CreateQuiz(ctx context.Context, actor ActivityActor, req dto.CreateQuizRequest) (dto.QuizResponse, error)
	DeleteQuiz(ctx context.Context, actor ActivityActor, slug string) error
	ListQuestions(ctx context.Context, slug string, includeAnswers bool) ([]dto.QuestionResponse, error)
	CreateQuestion(ctx context.Context, actor ActivityActor, slug string, req dto.QuestionRequest) (dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, actor ActivityActor, id uint, req dto.QuestionRequest) (dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, actor ActivityActor, id uint) error
}

type quizService struct {
	repo      repository.QuizRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuizService constructs the quiz registry service.
func NewQuizService(repo repository.QuizRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) QuizService {
	return &quizService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "quiz_service").Logger(),
	}
}

func (s *quizService) ListQuizzes(ctx context.Context) ([]dto.QuizResponse, error) {
	quizzes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		questions, err := s.repo.ListQuestions(ctx, quiz.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewQuizResponse(quiz, len(questions)))
	}
	return responses, nil
}

func (s *quizService) CreateQuiz(ctx context.Context, actor ActivityActor, req dto.CreateQuizRequest) (dto.QuizResponse, error) {
	req.Slug = normalizeSlug(req.Slug)
	req.Title = cleanText(s.sanitizer, req.Title)
	req.Description = cleanText(s.sanitizer, req.Description)
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	if !quizSlugPattern.MatchString(req.Slug) {
		return dto.QuizResponse{}, ErrInvalidSlug
	}

	quiz := models.Quiz{Slug: req.Slug, Title: req.Title, Description: req.Description}
	if err := s.repo.Create(ctx, &quiz); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.QuizResponse{}, ErrQuizExists
		}
		return dto.QuizResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionQuizCreated, models.EntityQuiz, &quiz.ID, map[string]interface{}{"slug": quiz.Slug})
	return dto.NewQuizResponse(quiz, 0), nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, actor ActivityActor, slug string) error {
	quiz, err := s.quizBySlug(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, quiz.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionQuizDeleted, models.EntityQuiz, &quiz.ID, map[string]interface{}{"slug": quiz.Slug})
	return nil
}

func (s *quizService) ListQuestions(ctx context.Context, slug string, includeAnswers bool) ([]dto.QuestionResponse, error) {
	quiz, err := s.quizBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, dto.NewQuestionResponse(quiz.Slug, question, includeAnswers))
	}
	return responses, nil
}

func (s *quizService) CreateQuestion(ctx context.Context, actor ActivityActor, slug string, req dto.QuestionRequest) (dto.QuestionResponse, error) {
	quiz, err := s.quizBySlug(ctx, slug)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.QuizQuestion{QuizID: quiz.ID}
	if err := s.applyQuestion(&question, req); err != nil {
		return dto.QuestionResponse{}, err
	}
	if question.Position == 0 {
		existing, err := s.repo.ListQuestions(ctx, quiz.ID)
		if err != nil {
			return dto.QuestionResponse{}, err
		}
		question.Position = len(existing) + 1
	}

	if err := s.repo.CreateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionQuestionCreated, models.EntityQuizQuestion, &question.ID, map[string]interface{}{"quiz": quiz.Slug})
	return dto.NewQuestionResponse(quiz.Slug, question, true), nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, actor ActivityActor, id uint, req dto.QuestionRequest) (dto.QuestionResponse, error) {
	question, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	position := question.Position
	if err := s.applyQuestion(&question, req); err != nil {
		return dto.QuestionResponse{}, err
	}
	if question.Position == 0 {
		question.Position = position
	}

	if err := s.repo.UpdateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	quiz, err := s.repo.GetByID(ctx, question.QuizID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionQuestionUpdated, models.EntityQuizQuestion, &question.ID, map[string]interface{}{"quiz": quiz.Slug})
	return dto.NewQuestionResponse(quiz.Slug, question, true), nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, actor ActivityActor, id uint) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionQuestionDeleted, models.EntityQuizQuestion, &id, nil)
	return nil
}

func (s *quizService) quizBySlug(ctx context.Context, slug string) (models.Quiz, error) {
	quiz, err := s.repo.GetBySlug(ctx, normalizeSlug(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}
	return quiz, nil
}

// applyQuestion validates req and copies it onto question.
func (s *quizService) applyQuestion(question *models.QuizQuestion, req dto.QuestionRequest) error {
	req.Question = cleanText(s.sanitizer, req.Question)
	options := make([]string, 0, len(req.Options))
	for _, option := range req.Options {
		if cleaned := cleanText(s.sanitizer, option); cleaned != "" {
			options = append(options, cleaned)
		}
	}
	req.Options = options

	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if len(options) > maxQuestionOptions {
		return fmt.Errorf("at most %d options are allowed: %w", maxQuestionOptions, ErrInvalidAnswerKey)
	}

	letters := answerLetters(req.CorrectAnswer)
	for _, letter := range letters {
		if len(letter) != 1 || letter[0] < 'A' || int(letter[0]-'A') >= len(options) {
			return ErrInvalidAnswerKey
		}
	}

	encoded, err := json.Marshal(options)
	if err != nil {
		return err
	}

	question.Question = req.Question
	question.Options = datatypes.JSON(encoded)
	question.CorrectAnswer = strings.Join(letters, ",")
	question.MultiSelect = req.MultiSelect || len(letters) > 1
	question.Position = req.Position
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
