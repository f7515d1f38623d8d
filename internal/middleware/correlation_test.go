package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagation(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, GetCorrelationID(c), CorrelationIDFromContext(c.UserContext()))
		return c.SendString(GetCorrelationID(c))
	})

	cases := []struct {
		name    string
		headers map[string]string
		keep    string
	}{
		{name: "correlation header", headers: map[string]string{"X-Correlation-ID": "abc-123"}, keep: "abc-123"},
		{name: "request id fallback", headers: map[string]string{"X-Request-ID": "req-9"}, keep: "req-9"},
		{name: "oversized replaced", headers: map[string]string{"X-Correlation-ID": strings.Repeat("a", 200)}},
		{name: "generated", headers: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			got := resp.Header.Get("X-Correlation-ID")
			require.NotEmpty(t, got)
			if tc.keep != "" {
				require.Equal(t, tc.keep, got)
			} else {
				require.LessOrEqual(t, len(got), 36)
			}
		})
	}
}

func TestContextWithCorrelationIgnoresBlank(t *testing.T) {
	ctx := ContextWithCorrelation(nil, "  ")
	require.Empty(t, CorrelationIDFromContext(ctx))
	require.Equal(t, "id-1", CorrelationIDFromContext(ContextWithCorrelation(ctx, " id-1 ")))
}
