package handlers_fiber

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"member-dedup/internal/entities"
	api "member-dedup/internal/oapi"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   api.ErrorResponseErrorCode
	}{
		{"invalid", fmt.Errorf("%w: threshold", entities.ErrInvalidArgument), http.StatusBadRequest, api.INVALIDARGUMENT},
		{"not_found", fmt.Errorf("%w: pair p1", entities.ErrNotFound), http.StatusNotFound, api.NOTFOUND},
		{"conflict", fmt.Errorf("%w: pair p1 is merged", entities.ErrConflict), http.StatusConflict, api.CONFLICT},
		{"expired", entities.ErrExpired, http.StatusGone, api.EXPIRED},
		{"internal", fmt.Errorf("dial tcp: refused"), http.StatusInternalServerError, api.INTERNAL},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return writeError(c, tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.status, resp.StatusCode)

			var body api.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return writeError(c, fmt.Errorf("password authentication failed"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "internal error", body.Error.Message)
}

func TestErrorHandlerWrapsFiberErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    api.ErrorResponseErrorCode
		message string
	}{
		{"bad_query", fiber.NewError(http.StatusBadRequest, "Invalid format for parameter limit"), http.StatusBadRequest, api.INVALIDARGUMENT, "Invalid format for parameter limit"},
		{"conflict", fiber.NewError(http.StatusConflict, "busy"), http.StatusConflict, api.CONFLICT, "busy"},
		{"server", fiber.NewError(http.StatusServiceUnavailable, "pool exhausted"), http.StatusServiceUnavailable, api.INTERNAL, "internal error"},
		{"domain", fmt.Errorf("%w: merge m1", entities.ErrExpired), http.StatusGone, api.EXPIRED, "undo window expired: merge m1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.status, resp.StatusCode)
			var body api.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.code, body.Error.Code)
			require.Equal(t, tt.message, body.Error.Message)
		})
	}
}
