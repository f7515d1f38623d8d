package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizSubmission is a user's single answer set for a quiz.
type QuizSubmission struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_quiz_submissions_user_quiz" json:"user_id"`
	QuizID      uint           `gorm:"not null;uniqueIndex:idx_quiz_submissions_user_quiz" json:"quiz_id"`
	Answers     datatypes.JSON `gorm:"not null" json:"answers"`
	SubmittedAt time.Time      `gorm:"not null" json:"submitted_at"`
	Approved    bool           `gorm:"not null" json:"approved"`
	ApprovedBy  *uint          `json:"approved_by"`
	ApprovedAt  *time.Time     `json:"approved_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	User        User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Quiz        Quiz           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// SubmissionStatePending means the submission awaits approval.
	SubmissionStatePending = "pending"
	// SubmissionStateApproved means an admin accepted the submission.
	SubmissionStateApproved = "approved"
)

// State returns the approval state of the submission.
func (s QuizSubmission) State() string {
	if s.Approved {
		return SubmissionStateApproved
	}
	return SubmissionStatePending
}
