package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/service"
)

func TestSendServiceErrorStatuses(t *testing.T) {
	validationErr := validator.New().Var("", "required")

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{validationErr, http.StatusBadRequest, ""},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, invalidCredentialsMessage},
		{fmt.Errorf("cannot delete yourself: %w", service.ErrForbidden), http.StatusForbidden, "insufficient permissions"},
		{service.ErrQuizNotFound, http.StatusNotFound, "quiz not found"},
		{service.ErrDuplicateSubmission, http.StatusConflict, "submission already exists"},
		{service.ErrEmailTaken, http.StatusConflict, "email already registered"},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, ""},
		{service.ErrDocumentExists, http.StatusConflict, "document file name already in use"},
		{fmt.Errorf("%w: bad", service.ErrInvalidAnswers), http.StatusBadRequest, "invalid answers: bad"},
		{fmt.Errorf("%w: name must not be blank", service.ErrInvalidDocumentName), http.StatusBadRequest, "invalid document name: name must not be blank"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "something failed"},
	}

	for _, tc := range cases {
		app := fiber.New()
		err := tc.err
		app.Get("/", func(c *fiber.Ctx) error {
			return sendServiceError(c, zerolog.Nop(), err, "something failed")
		})

		resp, testErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, testErr)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())

		body, readErr := io.ReadAll(resp.Body)
		require.NoError(t, readErr)
		require.NotContains(t, string(body), "disk on fire")
		if tc.body != "" {
			require.Contains(t, string(body), `"error":"`+tc.body+`"`)
		}
	}
}
