package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/service"
	"github.com/noah-isme/induction-api/internal/utils"
)

// Quiz kinds served by the legacy question routes.
const (
	typedQuizSlug          = "typed"
	manualHandlingQuizSlug = "manual-handling"
)

// QuizHandler exposes quiz definitions and submissions.
type QuizHandler struct {
	quizzes     service.QuizService
	submissions service.QuizSubmissionService
	feed        service.ProgressFeed
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewQuizHandler constructs the handler. feed may be nil.
func NewQuizHandler(quizzes service.QuizService, submissions service.QuizSubmissionService, feed service.ProgressFeed, validate *validator.Validate, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizzes:     quizzes,
		submissions: submissions,
		feed:        feed,
		validator:   validate,
		logger:      logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register binds the /quiz routes. optional attaches a session when a valid
// token is sent; protected requires one.
func (h *QuizHandler) Register(router fiber.Router, optional, protected fiber.Handler) {
	adminOnly := middleware.AuthOptions{AdminOnly: true}
	signedIn := middleware.AuthOptions{}

	router.Get("/quizzes", h.listQuizzes)
	router.Post("/quizzes", protected, middleware.WithAuth(h.createQuiz, adminOnly))
	router.Delete("/quizzes/:slug", protected, middleware.WithAuth(h.deleteQuiz, adminOnly))

	router.Get("/typed-questions", optional, h.questionsOf(typedQuizSlug))
	router.Get("/manual-handling", optional, h.questionsOf(manualHandlingQuizSlug))

	router.Put("/questions/:id", protected, middleware.WithAuth(h.updateQuestion, adminOnly))
	router.Delete("/questions/:id", protected, middleware.WithAuth(h.deleteQuestion, adminOnly))
	router.Get("/:slug/questions", optional, h.listQuestions)
	router.Post("/:slug/questions", protected, middleware.WithAuth(h.createQuestion, adminOnly))

	router.Post("/submit", protected, middleware.WithAuth(h.submit, signedIn))
	router.Get("/status/:userId", protected, middleware.WithAuth(h.status, middleware.AuthOptions{OwnerParam: "userId"}))

	router.Get("/submissions", protected, middleware.WithAuth(h.listSubmissions, adminOnly))
	router.Post("/approve/:id", protected, middleware.WithAuth(h.setApproval(true), adminOnly))
	router.Post("/unapprove/:id", protected, middleware.WithAuth(h.setApproval(false), adminOnly))
	router.Delete("/delete/:id", protected, middleware.WithAuth(h.deleteSubmission, adminOnly))
}

func (h *QuizHandler) listQuizzes(c *fiber.Ctx) error {
	quizzes, err := h.quizzes.ListQuizzes(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list quizzes")
	}
	return utils.SendSuccess(c, "quizzes", quizzes)
}

func (h *QuizHandler) createQuiz(c *fiber.Ctx) error {
	var payload dto.CreateQuizRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	quiz, err := h.quizzes.CreateQuiz(requestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create quiz")
	}
	publishRecompute(c, h.feed, models.ActionQuizCreated)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", quiz)
}

func (h *QuizHandler) deleteQuiz(c *fiber.Ctx) error {
	if err := h.quizzes.DeleteQuiz(requestContext(c), activityActorFromContext(c), c.Params("slug")); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete quiz")
	}
	publishRecompute(c, h.feed, models.ActionQuizDeleted)
	return utils.SendSuccess(c, "quiz deleted", nil)
}

func (h *QuizHandler) questionsOf(slug string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.sendQuestions(c, slug)
	}
}

func (h *QuizHandler) listQuestions(c *fiber.Ctx) error {
	return h.sendQuestions(c, c.Params("slug"))
}

func (h *QuizHandler) sendQuestions(c *fiber.Ctx, slug string) error {
	session, _ := middleware.GetSession(c)
	questions, err := h.quizzes.ListQuestions(requestContext(c), slug, session.IsAdmin())
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list questions")
	}
	return utils.SendSuccess(c, "questions", questions)
}

func (h *QuizHandler) createQuestion(c *fiber.Ctx) error {
	var payload dto.QuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.quizzes.CreateQuestion(requestContext(c), activityActorFromContext(c), c.Params("slug"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create question")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *QuizHandler) updateQuestion(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.quizzes.UpdateQuestion(requestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update question")
	}
	return utils.SendSuccess(c, "question updated", question)
}

func (h *QuizHandler) deleteQuestion(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.quizzes.DeleteQuestion(requestContext(c), activityActorFromContext(c), id); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete question")
	}
	return utils.SendSuccess(c, "question deleted", nil)
}

func (h *QuizHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitQuizRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := sessionFromContext(c).UserID
	submission, err := h.submissions.Submit(requestContext(c), userID, strings.TrimSpace(payload.Quiz), payload.Answers)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to submit quiz")
	}

	publishProgress(c, h.feed, h.logger, userID)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz submitted", submission)
}

func (h *QuizHandler) status(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if slug := strings.TrimSpace(c.Query("quiz")); slug != "" {
		status, err := h.submissions.Status(requestContext(c), userID, slug)
		if err != nil {
			return sendServiceError(c, h.logger, err, "failed to load quiz status")
		}
		return utils.SendSuccess(c, "quiz status", status)
	}

	statuses, err := h.submissions.StatusAll(requestContext(c), userID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load quiz status")
	}
	return utils.SendSuccess(c, "quiz status", statuses)
}

func (h *QuizHandler) listSubmissions(c *fiber.Ctx) error {
	submissions, err := h.submissions.List(requestContext(c), strings.TrimSpace(c.Query("quiz")))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list submissions")
	}
	return utils.SendSuccess(c, "submissions", submissions)
}

func (h *QuizHandler) setApproval(approved bool) fiber.Handler {
	message := "submission unapproved"
	if approved {
		message = "submission approved"
	}

	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		submission, err := h.submissions.SetApproval(requestContext(c), activityActorFromContext(c), id, approved)
		if err != nil {
			return sendServiceError(c, h.logger, err, "failed to update submission")
		}

		publishProgress(c, h.feed, h.logger, submission.UserID)
		return utils.SendSuccess(c, message, submission)
	}
}

func (h *QuizHandler) deleteSubmission(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.Delete(requestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete submission")
	}

	publishProgress(c, h.feed, h.logger, submission.UserID)
	return utils.SendSuccess(c, "submission deleted", nil)
}
