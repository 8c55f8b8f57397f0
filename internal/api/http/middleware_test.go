package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	httpapi "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
)

func TestErrorHandlerMapsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	app := httpapi.NewApp("test", logger, observability.NewMetrics())
	httpapi.RegisterMiddlewares(app, logger, nil, 0)

	validation := domain.ValidationErrors{}
	validation.Add("title", "Title is required.")

	app.Get("/missing", func(*fiber.Ctx) error { return fmt.Errorf("load: %w", repository.ErrNotFound) })
	app.Get("/invalid", func(*fiber.Ctx) error { return validation })
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("connection reset") })
	app.Get("/panic", func(*fiber.Ctx) error { panic("unexpected") })
	app.Get("/teapot", func(*fiber.Ctx) error { return fiber.NewError(http.StatusTeapot, "short and stout") })

	tests := []struct {
		path   string
		status int
		body   map[string]any
	}{
		{path: "/missing", status: http.StatusNotFound, body: map[string]any{"error": "Not found."}},
		{path: "/invalid", status: http.StatusBadRequest, body: map[string]any{"title": []any{"Title is required."}}},
		{path: "/boom", status: http.StatusInternalServerError, body: map[string]any{"error": "internal server error"}},
		{path: "/panic", status: http.StatusInternalServerError, body: map[string]any{"error": "internal server error"}},
		{path: "/teapot", status: http.StatusTeapot, body: map[string]any{"error": "short and stout"}},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body map[string]any
			require.NoError(t, json.Unmarshal(raw, &body))

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.body, body)
			assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
		})
	}

	assert.NotZero(t, logs.FilterMessage("request failed").Len())
}
