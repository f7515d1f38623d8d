package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesInductionCollectors(t *testing.T) {
	ProgressComputations().Inc()
	DocumentUploads().WithLabelValues("stored").Inc()
	QuizSubmissions().WithLabelValues("typed", "accepted").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "progress_computations_total")
	require.Contains(t, string(body), `document_uploads_total{result="stored"}`)
	require.Contains(t, string(body), `quiz_submissions_total{quiz="typed",result="accepted"}`)
	require.Contains(t, string(body), "progress_feed_clients")
}
