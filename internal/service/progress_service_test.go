package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/repository"
)

type progressFixture struct {
	db          *gorm.DB
	progress    ProgressService
	readStatus  ReadStatusService
	quizzes     QuizService
	submissions QuizSubmissionService
	documents   repository.DocumentRepository
	admin       ActivityActor
}

func newProgressFixture(t *testing.T) progressFixture {
	t.Helper()
	db := setupServiceDB(t)

	users := repository.NewUserRepository(db)
	documents := repository.NewDocumentRepository(db)
	reads := repository.NewReadStatusRepository(db)
	quizzes := repository.NewQuizRepository(db)
	submissions := repository.NewQuizSubmissionRepository(db)

	return progressFixture{
		db:          db,
		progress:    NewProgressService(users, documents, reads, quizzes, submissions, testLogger()),
		readStatus:  NewReadStatusService(reads, users, testLogger()),
		quizzes:     NewQuizService(quizzes, testValidator(), nil, testLogger()),
		submissions: NewQuizSubmissionService(submissions, quizzes, nil, testLogger()),
		documents:   documents,
		admin:       ActivityActor{ID: 999, Role: models.RoleAdmin},
	}
}

func (f progressFixture) addDocuments(t *testing.T, n int) []string {
	t.Helper()
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		doc := models.Document{Title: fmt.Sprintf("Doc %d", i), Filename: fmt.Sprintf("doc-%d.pdf", i)}
		require.NoError(t, f.documents.Create(context.Background(), &doc))
		names = append(names, doc.Filename)
	}
	return names
}

func TestProgressScenarioDocumentsThenQuiz(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)
	docs := f.addDocuments(t, 5)

	require.NoError(t, f.readStatus.SetReadStatus(ctx, user.ID, map[string]bool{
		docs[0]: true, docs[1]: true, docs[2]: true, docs[3]: false,
	}))

	report, err := f.progress.Calculate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 60, report.Progress)
	require.Equal(t, 3, report.CompletedItems)
	require.Equal(t, 5, report.TotalItems)
	require.Equal(t, 0, report.TotalQuizzes)

	_, err = f.quizzes.CreateQuiz(ctx, f.admin, dto.CreateQuizRequest{Slug: "manual-handling", Title: "Manual Handling"})
	require.NoError(t, err)

	report, err = f.progress.Calculate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 50, report.Progress)
	require.False(t, report.Quizzes["manual-handling"])

	submission, err := f.submissions.Submit(ctx, user.ID, "manual-handling", json.RawMessage(`{"1":"A"}`))
	require.NoError(t, err)
	_, err = f.submissions.SetApproval(ctx, f.admin, submission.ID, true)
	require.NoError(t, err)

	report, err = f.progress.Calculate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 4, report.CompletedItems)
	require.Equal(t, 6, report.TotalItems)
	require.Equal(t, 67, report.Progress)
	require.True(t, report.Quizzes["manual-handling"])
}

func TestProgressIgnoresStaleReadRecords(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)
	f.addDocuments(t, 2)

	require.NoError(t, f.readStatus.SetReadStatus(ctx, user.ID, map[string]bool{
		"doc-1.pdf":     true,
		"deleted.pdf":   true,
		"unknown-x.pdf": true,
	}))

	report, err := f.progress.Calculate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, report.ReadCount)
	require.Equal(t, 50, report.Progress)

	doc, err := f.documents.GetByFilename(ctx, "doc-1.pdf")
	require.NoError(t, err)
	require.NoError(t, f.documents.Delete(ctx, doc.ID))

	report, err = f.progress.Calculate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, report.ReadCount)
	require.Equal(t, 1, report.TotalItems)
	require.Equal(t, 0, report.Progress)
}

func TestProgressWithNothingRequiredIsZero(t *testing.T) {
	f := newProgressFixture(t)
	user := seedUser(t, f.db, "Employee", "employee@example.com", models.RoleEmployee)

	report, err := f.progress.Calculate(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, report.Progress)
	require.Equal(t, 0, report.TotalItems)
	require.NotNil(t, report.Documents)
}

func TestProgressUnknownUser(t *testing.T) {
	f := newProgressFixture(t)
	_, err := f.progress.Calculate(context.Background(), 12345)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestProgressCalculateAll(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	first := seedUser(t, f.db, "First", "first@example.com", models.RoleEmployee)
	second := seedUser(t, f.db, "Second", "second@example.com", models.RoleEmployee)
	f.addDocuments(t, 4)

	require.NoError(t, f.readStatus.SetReadStatus(ctx, first.ID, map[string]bool{"doc-1.pdf": true, "doc-2.pdf": true}))
	require.NoError(t, f.readStatus.SetReadStatus(ctx, second.ID, map[string]bool{"doc-1.pdf": true, "doc-2.pdf": true, "doc-3.pdf": true, "doc-4.pdf": true}))

	results, err := f.progress.CalculateAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, first.ID, results[0].ID)
	require.Equal(t, 50, results[0].Progress)
	require.Equal(t, 100, results[1].Progress)
}

func TestPercentRoundsHalfUpAndClamps(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{-1, 4, 0},
		{1, 8, 13},
		{3, 5, 60},
		{4, 6, 67},
		{2, 3, 67},
		{1, 3, 33},
		{5, 5, 100},
		{9, 5, 100},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, percent(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}
}

func TestComputeProgressStaysInRange(t *testing.T) {
	documents := []models.Document{{Filename: "a.pdf"}, {Filename: "b.pdf"}}
	quizzes := []models.Quiz{{ID: 1, Slug: "typed"}}

	read := map[string]bool{"a.pdf": true, "b.pdf": true, "a.pdf ": true, "zzz.pdf": true}
	report := computeProgress(documents, read, quizzes, map[uint]bool{1: true, 2: true})
	require.Equal(t, 100, report.Progress)
	require.Equal(t, 3, report.CompletedItems)
	require.Equal(t, 3, report.TotalItems)
}
