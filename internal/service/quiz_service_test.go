package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/dto"
)

func TestQuizServiceCreateQuizValidatesSlug(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "Bad Slug!", Title: "Bad"})
	require.ErrorIs(t, err, ErrInvalidSlug)

	created, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: " Fire-Safety ", Title: "Fire <i>Safety</i> & Exits"})
	require.NoError(t, err)
	require.Equal(t, "fire-safety", created.Slug)
	require.Equal(t, "Fire Safety & Exits", created.Title)

	_, err = f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "fire-safety", Title: "Again"})
	require.ErrorIs(t, err, ErrQuizExists)
}

func TestQuizServiceQuestionLifecycle(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "typed", Title: "Typed"})
	require.NoError(t, err)

	free, err := f.quizzes.CreateQuestion(ctx, f.admin, "typed", dto.QuestionRequest{Question: "Where is the assembly point?"})
	require.NoError(t, err)
	require.Equal(t, 1, free.Position)
	require.Empty(t, free.Options)

	choice, err := f.quizzes.CreateQuestion(ctx, f.admin, "typed", dto.QuestionRequest{
		Question: "Pick one", Options: []string{"Yes", "No"}, CorrectAnswer: "b",
	})
	require.NoError(t, err)
	require.Equal(t, 2, choice.Position)
	require.Equal(t, "B", choice.CorrectAnswer)
	require.False(t, choice.MultiSelect)

	public, err := f.quizzes.ListQuestions(ctx, "typed", false)
	require.NoError(t, err)
	require.Len(t, public, 2)
	require.Empty(t, public[1].CorrectAnswer)

	admin, err := f.quizzes.ListQuestions(ctx, "typed", true)
	require.NoError(t, err)
	require.Equal(t, "B", admin[1].CorrectAnswer)

	updated, err := f.quizzes.UpdateQuestion(ctx, f.admin, free.ID, dto.QuestionRequest{Question: "Where is the car park?"})
	require.NoError(t, err)
	require.Equal(t, "Where is the car park?", updated.Question)
	require.Equal(t, 1, updated.Position)
	require.Equal(t, "typed", updated.QuizSlug)

	require.NoError(t, f.quizzes.DeleteQuestion(ctx, f.admin, free.ID))
	require.ErrorIs(t, f.quizzes.DeleteQuestion(ctx, f.admin, free.ID), ErrQuestionNotFound)

	quizzes, err := f.quizzes.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	require.Equal(t, 1, quizzes[0].QuestionCount)

	require.NoError(t, f.quizzes.DeleteQuiz(ctx, f.admin, "typed"))
	_, err = f.quizzes.ListQuestions(ctx, "typed", false)
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizServiceRejectsBadAnswerKeys(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "typed", Title: "Typed"})
	require.NoError(t, err)

	_, err = f.quizzes.CreateQuestion(ctx, f.admin, "typed", dto.QuestionRequest{
		Question: "Out of range", Options: []string{"One", "Two"}, CorrectAnswer: "C",
	})
	require.ErrorIs(t, err, ErrInvalidAnswerKey)

	_, err = f.quizzes.CreateQuestion(ctx, f.admin, "typed", dto.QuestionRequest{
		Question: "Too many", Options: []string{"1", "2", "3", "4", "5", "6"},
	})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	_, err = f.quizzes.CreateQuestion(ctx, f.admin, "typed", dto.QuestionRequest{Question: "   "})
	require.ErrorAs(t, err, &validationErrs)
}
