package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/models"
)

// QuizSubmissionFilter allows narrowing submission queries.
type QuizSubmissionFilter struct {
	QuizID   *uint
	UserID   *uint
	Approved *bool
}

// QuizSubmissionRepository defines data operations for quiz submissions.
type QuizSubmissionRepository interface {
	List(ctx context.Context, filter QuizSubmissionFilter) ([]models.QuizSubmission, error)
	GetByID(ctx context.Context, id uint) (models.QuizSubmission, error)
	GetByUserAndQuiz(ctx context.Context, userID, quizID uint) (models.QuizSubmission, error)
	Create(ctx context.Context, submission *models.QuizSubmission) error
	SetApproval(ctx context.Context, id uint, approved bool, approvedBy *uint, approvedAt *time.Time) error
	Delete(ctx context.Context, id uint) error
}

type quizSubmissionRepository struct {
	db *gorm.DB
}

// NewQuizSubmissionRepository instantiates the repository.
func NewQuizSubmissionRepository(db *gorm.DB) QuizSubmissionRepository {
	return &quizSubmissionRepository{db: db}
}

func (r *quizSubmissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.QuizSubmission{}).
		Preload("User").
		Preload("Quiz")
}

func (r *quizSubmissionRepository) List(ctx context.Context, filter QuizSubmissionFilter) ([]models.QuizSubmission, error) {
	query := r.baseQuery(ctx)

	if filter.QuizID != nil {
		query = query.Where("quiz_id = ?", *filter.QuizID)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Approved != nil {
		query = query.Where("approved = ?", *filter.Approved)
	}

	var submissions []models.QuizSubmission
	if err := query.Order("submitted_at DESC, id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *quizSubmissionRepository) GetByID(ctx context.Context, id uint) (models.QuizSubmission, error) {
	var submission models.QuizSubmission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.QuizSubmission{}, err
	}

	return submission, nil
}

func (r *quizSubmissionRepository) GetByUserAndQuiz(ctx context.Context, userID, quizID uint) (models.QuizSubmission, error) {
	var submission models.QuizSubmission
	if err := r.baseQuery(ctx).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		First(&submission).Error; err != nil {
		return models.QuizSubmission{}, err
	}

	return submission, nil
}

func (r *quizSubmissionRepository) Create(ctx context.Context, submission *models.QuizSubmission) error {
	return r.db.WithContext(ctx).Omit("User", "Quiz").Create(submission).Error
}

func (r *quizSubmissionRepository) SetApproval(ctx context.Context, id uint, approved bool, approvedBy *uint, approvedAt *time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.QuizSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"approved":    approved,
			"approved_by": approvedBy,
			"approved_at": approvedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *quizSubmissionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.QuizSubmission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
