package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz is one quiz kind an employee must pass, e.g. "manual-handling".
type Quiz struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Questions   []QuizQuestion `json:"-"`
}

// QuizQuestion is a single question of a quiz. Questions without a
// CorrectAnswer are free-text and reviewed manually.
type QuizQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuizID        uint           `gorm:"not null;index" json:"quiz_id"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSON `json:"options"`
	CorrectAnswer string         `gorm:"size:32" json:"correct_answer"`
	MultiSelect   bool           `gorm:"not null" json:"multi_select"`
	Position      int            `gorm:"not null" json:"position"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsGradable reports whether the question carries an answer key.
func (q QuizQuestion) IsGradable() bool {
	return q.CorrectAnswer != ""
}
