package dto

import "time"

// SaveProgressRequest replaces a user's read-status set.
type SaveProgressRequest struct {
	UserID        uint            `json:"userId" validate:"required"`
	ReadDocuments map[string]bool `json:"readDocuments" validate:"required"`
}

// ProgressResponse exposes a user's completion percentage and the counts behind it.
type ProgressResponse struct {
	UserID          uint            `json:"userId"`
	Progress        int             `json:"progress"`
	CompletedItems  int             `json:"completedItems"`
	TotalItems      int             `json:"totalItems"`
	ReadCount       int             `json:"readCount"`
	TotalDocuments  int             `json:"totalDocuments"`
	ApprovedQuizzes int             `json:"approvedQuizzes"`
	TotalQuizzes    int             `json:"totalQuizzes"`
	Quizzes         map[string]bool `json:"quizzes"`
	Documents       map[string]bool `json:"documents"`
}

// Progress feed event types.
const (
	// ProgressEventUser carries one user's fresh progress.
	ProgressEventUser = "progress"
	// ProgressEventRecompute tells dashboards that every user's denominator changed.
	ProgressEventRecompute = "recompute"
)

// ProgressEvent is broadcast on the live progress feed. Recompute events carry
// only Reason and At; clients reload the users-progress list.
type ProgressEvent struct {
	Type           string    `json:"type"`
	Reason         string    `json:"reason,omitempty"`
	UserID         uint      `json:"user_id"`
	Progress       int       `json:"progress"`
	CompletedItems int       `json:"completed_items"`
	TotalItems     int       `json:"total_items"`
	At             time.Time `json:"at"`
}
