package handlers_fiber

import (
	"errors"
	"net/http"

	"member-dedup/internal/entities"
	api "member-dedup/internal/oapi"

	"github.com/gofiber/fiber/v2"
)

func writeError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	code := api.INTERNAL
	msg := "internal error"

	switch {
	case errors.Is(err, entities.ErrInvalidArgument):
		status = http.StatusBadRequest
		code = api.INVALIDARGUMENT
		msg = err.Error()
	case errors.Is(err, entities.ErrNotFound):
		status = http.StatusNotFound
		code = api.NOTFOUND
		msg = err.Error()
	case errors.Is(err, entities.ErrConflict):
		status = http.StatusConflict
		code = api.CONFLICT
		msg = err.Error()
	case errors.Is(err, entities.ErrExpired):
		status = http.StatusGone
		code = api.EXPIRED
		msg = err.Error()
	}

	return c.Status(status).JSON(errorResponse(code, msg))
}

func errorResponse(code api.ErrorResponseErrorCode, msg string) api.ErrorResponse {
	return api.ErrorResponse{Error: struct {
		Code    api.ErrorResponseErrorCode `json:"code"`
		Message string                     `json:"message"`
	}{Code: code, Message: msg}}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(errorResponse(api.INVALIDARGUMENT, "invalid body"))
}

// ErrorHandler renders errors returned to the fiber app, including routing and
// parameter errors, in the API error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return writeError(c, err)
	}

	code := api.INVALIDARGUMENT
	msg := fe.Message
	switch {
	case fe.Code == http.StatusNotFound:
		code = api.NOTFOUND
	case fe.Code == http.StatusConflict:
		code = api.CONFLICT
	case fe.Code == http.StatusGone:
		code = api.EXPIRED
	case fe.Code >= http.StatusInternalServerError:
		code = api.INTERNAL
		msg = "internal error"
	}
	return c.Status(fe.Code).JSON(errorResponse(code, msg))
}
