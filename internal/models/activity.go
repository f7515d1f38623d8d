package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions written by admin mutations.
const (
	ActionUserRegistered       = "user.registered"
	ActionUserRoleUpdated      = "user.role_updated"
	ActionUserDeleted          = "user.deleted"
	ActionDocumentUploaded     = "document.uploaded"
	ActionDocumentDeleted      = "document.deleted"
	ActionQuizCreated          = "quiz.created"
	ActionQuizDeleted          = "quiz.deleted"
	ActionQuestionCreated      = "quiz.question_created"
	ActionQuestionUpdated      = "quiz.question_updated"
	ActionQuestionDeleted      = "quiz.question_deleted"
	ActionSubmissionApproved   = "submission.approved"
	ActionSubmissionUnapproved = "submission.unapproved"
	ActionSubmissionDeleted    = "submission.deleted"
)

// Entity types referenced by audit entries.
const (
	EntityUser           = "user"
	EntityDocument       = "document"
	EntityQuiz           = "quiz"
	EntityQuizQuestion   = "quiz_question"
	EntityQuizSubmission = "quiz_submission"
)

// ActivityLog is one audit trail entry. EntityID is nil when the change has no single target row.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index:idx_activity_actor_created,priority:1" json:"actor_id"`
	ActorRole  string            `gorm:"size:16;not null" json:"actor_role"`
	Action     string            `gorm:"size:48;not null;index" json:"action"`
	EntityType string            `gorm:"size:32;not null;index" json:"entity_type"`
	EntityID   *uint             `json:"entity_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"index:idx_activity_actor_created,priority:2" json:"created_at"`
}
