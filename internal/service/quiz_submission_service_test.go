package service

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
)

func TestSubmitRejectsDuplicateAndKeepsOriginal(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)
	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "typed", Title: "Typed"})
	require.NoError(t, err)

	first, err := f.submissions.Submit(ctx, user.ID, "typed", json.RawMessage(`{"1":"first answer"}`))
	require.NoError(t, err)
	require.False(t, first.Approved)
	require.Equal(t, models.SubmissionStatePending, first.State)

	_, err = f.submissions.Submit(ctx, user.ID, "typed", json.RawMessage(`{"1":"second answer"}`))
	require.ErrorIs(t, err, ErrDuplicateSubmission)

	list, err := f.submissions.List(ctx, "typed")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.JSONEq(t, `{"1":"first answer"}`, string(list[0].Answers))
	require.Equal(t, "Employee", list[0].Username)
}

func TestApproveThenUnapproveKeepsAnswers(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)
	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "typed", Title: "Typed"})
	require.NoError(t, err)

	submission, err := f.submissions.Submit(ctx, user.ID, "typed", json.RawMessage(`{"1":"keep me"}`))
	require.NoError(t, err)

	approved, err := f.submissions.SetApproval(ctx, f.admin, submission.ID, true)
	require.NoError(t, err)
	require.True(t, approved.Approved)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, f.admin.ID, *approved.ApprovedBy)

	again, err := f.submissions.SetApproval(ctx, f.admin, submission.ID, true)
	require.NoError(t, err)
	require.True(t, again.Approved)

	status, err := f.submissions.Status(ctx, user.ID, "typed")
	require.NoError(t, err)
	require.Equal(t, dto.QuizStatusResponse{Submitted: true, Approved: true}, status)

	unapproved, err := f.submissions.SetApproval(ctx, f.admin, submission.ID, false)
	require.NoError(t, err)
	require.False(t, unapproved.Approved)
	require.Nil(t, unapproved.ApprovedBy)
	require.JSONEq(t, `{"1":"keep me"}`, string(unapproved.Answers))

	status, err = f.submissions.Status(ctx, user.ID, "typed")
	require.NoError(t, err)
	require.Equal(t, dto.QuizStatusResponse{Submitted: true, Approved: false}, status)
}

func TestDeleteSubmissionAllowsResubmit(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)
	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "typed", Title: "Typed"})
	require.NoError(t, err)

	submission, err := f.submissions.Submit(ctx, user.ID, "typed", json.RawMessage(`{"1":"x"}`))
	require.NoError(t, err)

	deleted, err := f.submissions.Delete(ctx, f.admin, submission.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, deleted.UserID)

	status, err := f.submissions.Status(ctx, user.ID, "typed")
	require.NoError(t, err)
	require.Equal(t, dto.QuizStatusResponse{}, status)

	_, err = f.submissions.Delete(ctx, f.admin, submission.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = f.submissions.Submit(ctx, user.ID, "typed", json.RawMessage(`{"1":"y"}`))
	require.NoError(t, err)
}

func TestSubmitValidatesQuizAndAnswers(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)

	_, err := f.submissions.Submit(ctx, user.ID, "missing", json.RawMessage(`{"1":"A"}`))
	require.ErrorIs(t, err, ErrQuizNotFound)

	_, err = f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "typed", Title: "Typed"})
	require.NoError(t, err)

	_, err = f.submissions.Submit(ctx, user.ID, "typed", json.RawMessage(`"not an object"`))
	require.ErrorIs(t, err, ErrInvalidAnswers)

	_, err = f.submissions.SetApproval(ctx, f.admin, 4242, true)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestListScoresGradableQuestions(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)
	_, err := f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "manual-handling", Title: "Manual Handling"})
	require.NoError(t, err)

	q1, err := f.quizzes.CreateQuestion(ctx, f.admin, "manual-handling", dto.QuestionRequest{
		Question: "Safe lift?", Options: []string{"Bend knees", "Bend back"}, CorrectAnswer: "A",
	})
	require.NoError(t, err)
	q2, err := f.quizzes.CreateQuestion(ctx, f.admin, "manual-handling", dto.QuestionRequest{
		Question: "Which apply?", Options: []string{"One", "Two", "Three"}, CorrectAnswer: "a,c",
	})
	require.NoError(t, err)
	require.True(t, q2.MultiSelect)

	answers := map[string]interface{}{
		strconv.FormatUint(uint64(q1.ID), 10): "A",
		strconv.FormatUint(uint64(q2.ID), 10): []string{"C"},
	}
	raw, err := json.Marshal(answers)
	require.NoError(t, err)

	_, err = f.submissions.Submit(ctx, user.ID, "manual-handling", raw)
	require.NoError(t, err)

	list, err := f.submissions.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Score)
	require.Equal(t, 1, list[0].Score.Correct)
	require.Equal(t, 2, list[0].Score.Gradable)

	statuses, err := f.submissions.StatusAll(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, dto.QuizStatusResponse{Submitted: true}, statuses["manual-handling"])
}
