package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/induction-api/internal/models"
)

// CreateQuizRequest registers a new quiz kind.
type CreateQuizRequest struct {
	Slug        string `json:"slug" validate:"required,min=2,max=64"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// QuizResponse describes a quiz kind.
type QuizResponse struct {
	ID            uint      `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewQuizResponse converts a quiz model into a DTO.
func NewQuizResponse(quiz models.Quiz, questionCount int) QuizResponse {
	return QuizResponse{
		ID:            quiz.ID,
		Slug:          quiz.Slug,
		Title:         quiz.Title,
		Description:   quiz.Description,
		QuestionCount: questionCount,
		CreatedAt:     quiz.CreatedAt,
	}
}

// QuestionRequest creates or replaces a quiz question.
type QuestionRequest struct {
	Question      string   `json:"question" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"omitempty,max=5,dive,required,max=500"`
	CorrectAnswer string   `json:"correct_answer" validate:"omitempty,max=32"`
	MultiSelect   bool     `json:"multi_select"`
	Position      int      `json:"position" validate:"gte=0"`
}

// QuestionResponse describes a quiz question. CorrectAnswer is only
// populated for administrators.
type QuestionResponse struct {
	ID            uint     `json:"id"`
	QuizSlug      string   `json:"quiz"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	MultiSelect   bool     `json:"multi_select"`
	Position      int      `json:"position"`
}

// NewQuestionResponse converts a question model into a DTO.
func NewQuestionResponse(slug string, question models.QuizQuestion, includeAnswer bool) QuestionResponse {
	options := []string{}
	if len(question.Options) > 0 {
		_ = json.Unmarshal(question.Options, &options)
	}

	resp := QuestionResponse{
		ID:          question.ID,
		QuizSlug:    slug,
		Question:    question.Question,
		Options:     options,
		MultiSelect: question.MultiSelect,
		Position:    question.Position,
	}
	if includeAnswer {
		resp.CorrectAnswer = question.CorrectAnswer
	}
	return resp
}

// SubmitQuizRequest carries a user's answers for one quiz kind.
type SubmitQuizRequest struct {
	Quiz    string          `json:"quiz" validate:"required"`
	Answers json.RawMessage `json:"answers" validate:"required"`
}

// QuizStatusResponse reports whether a quiz was submitted and approved.
type QuizStatusResponse struct {
	Submitted bool `json:"submitted"`
	Approved  bool `json:"approved"`
}

// SubmissionResponse is the admin view of a quiz submission.
type SubmissionResponse struct {
	ID          uint             `json:"id"`
	UserID      uint             `json:"user_id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	Quiz        string           `json:"quiz"`
	Answers     json.RawMessage  `json:"answers"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Approved    bool             `json:"approved"`
	State       string           `json:"state"`
	ApprovedBy  *uint            `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time       `json:"approved_at,omitempty"`
	Score       *SubmissionScore `json:"score,omitempty"`
}

// SubmissionScore is the automatic score over questions with an answer key.
type SubmissionScore struct {
	Correct  int `json:"correct"`
	Gradable int `json:"gradable"`
}

// NewSubmissionResponse converts a submission model into a DTO.
func NewSubmissionResponse(submission models.QuizSubmission) SubmissionResponse {
	answers := json.RawMessage(submission.Answers)
	if len(answers) == 0 {
		answers = json.RawMessage("{}")
	}
	return SubmissionResponse{
		ID:          submission.ID,
		UserID:      submission.UserID,
		Username:    submission.User.Name,
		Email:       submission.User.Email,
		Quiz:        submission.Quiz.Slug,
		Answers:     answers,
		SubmittedAt: submission.SubmittedAt,
		Approved:    submission.Approved,
		State:       submission.State(),
		ApprovedBy:  submission.ApprovedBy,
		ApprovedAt:  submission.ApprovedAt,
	}
}
