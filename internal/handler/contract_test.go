package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/handler"
	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/service"
)

type stubAuthService struct {
	response dto.LoginResponse
	err      error
}

func (s stubAuthService) Login(context.Context, dto.LoginRequest) (dto.LoginResponse, error) {
	return s.response, s.err
}

func (s stubAuthService) Me(context.Context, uint) (dto.UserResponse, error) {
	return s.response.User, s.err
}

func (s stubAuthService) Logout(context.Context, string, time.Time) error {
	return s.err
}

type stubProgressService struct {
	report dto.ProgressResponse
}

func (s stubProgressService) Calculate(_ context.Context, userID uint) (dto.ProgressResponse, error) {
	report := s.report
	report.UserID = userID
	return report, nil
}

func (s stubProgressService) CalculateAll(context.Context) ([]dto.UserProgressResponse, error) {
	return nil, nil
}

type stubSubmissionService struct {
	service.QuizSubmissionService
	submissions []dto.SubmissionResponse
}

func (s stubSubmissionService) List(context.Context, string) ([]dto.SubmissionResponse, error) {
	return s.submissions, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func asSession(session middleware.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		middleware.SetSession(c, session)
		return c.Next()
	}
}

func validateResponse(t *testing.T, app *fiber.App, req *http.Request, status int, schema *jsonschema.Schema) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, status, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestLoginContract(t *testing.T) {
	auth := stubAuthService{response: dto.LoginResponse{
		Token:     "signed.jwt.token",
		ExpiresAt: time.Now().Add(2 * time.Hour).UTC(),
		User:      dto.UserResponse{ID: 3, Name: "Jane", Email: "jane@example.com", Role: "employee", CreatedAt: time.Now().UTC()},
	}}

	app := fiber.New()
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	handler.NewAuthHandler(auth, nil, nil, nil, nil, nil, zerolog.Nop()).Register(app.Group("/auth"), passThrough, passThrough)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"jane@example.com","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	validateResponse(t, app, req, http.StatusOK, compileSchema(t, "login_response.schema.json"))
}

func TestInvalidLoginContract(t *testing.T) {
	app := fiber.New()
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	handler.NewAuthHandler(stubAuthService{err: service.ErrInvalidCredentials}, nil, nil, nil, nil, nil, zerolog.Nop()).
		Register(app.Group("/auth"), passThrough, passThrough)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"jane@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	validateResponse(t, app, req, http.StatusUnauthorized, compileSchema(t, "error_response.schema.json"))
}

func TestProgressContract(t *testing.T) {
	progress := stubProgressService{report: dto.ProgressResponse{
		Progress:        67,
		CompletedItems:  4,
		TotalItems:      6,
		ReadCount:       3,
		TotalDocuments:  4,
		ApprovedQuizzes: 1,
		TotalQuizzes:    2,
		Quizzes:         map[string]bool{"typed": true, "manual-handling": false},
		Documents:       map[string]bool{"a.pdf": true, "b.pdf": true, "c.pdf": true, "d.pdf": false},
	}}

	app := fiber.New()
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	protected := asSession(middleware.Session{UserID: 5, Role: "employee"})
	handler.NewAuthHandler(nil, nil, nil, progress, nil, nil, zerolog.Nop()).Register(app.Group("/auth"), protected, passThrough)

	req := httptest.NewRequest(http.MethodGet, "/auth/progress-percent/5", nil)
	validateResponse(t, app, req, http.StatusOK, compileSchema(t, "progress_response.schema.json"))

	req = httptest.NewRequest(http.MethodGet, "/auth/progress-percent/6", nil)
	validateResponse(t, app, req, http.StatusForbidden, compileSchema(t, "error_response.schema.json"))
}

func TestSubmissionListContract(t *testing.T) {
	submissions := stubSubmissionService{submissions: []dto.SubmissionResponse{
		{
			ID:          1,
			UserID:      5,
			Username:    "Jane",
			Email:       "jane@example.com",
			Quiz:        "typed",
			Answers:     json.RawMessage(`{"1":"A","2":["B","C"]}`),
			SubmittedAt: time.Now().UTC(),
			State:       "pending",
			Score:       &dto.SubmissionScore{Correct: 1, Gradable: 2},
		},
	}}

	app := fiber.New()
	admin := asSession(middleware.Session{UserID: 1, Role: "admin"})
	handler.NewQuizHandler(nil, submissions, nil, nil, zerolog.Nop()).Register(app.Group("/quiz"), admin, admin)

	req := httptest.NewRequest(http.MethodGet, "/quiz/submissions?quiz=typed", nil)
	validateResponse(t, app, req, http.StatusOK, compileSchema(t, "submission_list.schema.json"))
}
