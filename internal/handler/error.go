// Package handler maps domain errors onto HTTP responses. Every JSON error
// body has the shape {"error": {"code", "message", "fields"?}}.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/telemetry"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ESTOCK, domain.ESTATE, domain.ECONFLICT, domain.EABORTED:
		return http.StatusConflict // 409
	case domain.EEMPTYCART:
		return http.StatusUnprocessableEntity // 422
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorResponse logs err and writes its JSON representation. Internal errors
// are reported to Sentry and their details never reach the caller.
func ErrorResponse(c echo.Context, err error) error {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	body := ErrorBody{
		Code:    code,
		Message: domain.ErrorMessage(err),
		Fields:  domain.GetValidationFields(err),
	}

	ctx := c.Request().Context()
	logger := zerolog.Ctx(ctx)

	if status >= 500 {
		logger.Error().
			Err(err).
			Str("code", code).
			Str("op", domain.ErrorOp(err)).
			Int("status", status).
			Msg("request failed")
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{
			"path":   c.Path(),
			"method": c.Request().Method,
		})
	} else {
		logger.Debug().
			Str("error", err.Error()).
			Str("code", code).
			Int("status", status).
			Msg("request rejected")
	}

	return c.JSON(status, errorEnvelope{Error: body})
}

// HTTPErrorHandler is installed as echo's error handler so router and
// middleware failures use the same body as handler errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		err = fromHTTPError(he)
	}
	_ = ErrorResponse(c, err)
}

func fromHTTPError(he *echo.HTTPError) error {
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	}

	var code string
	switch he.Code {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		code = domain.EINVALID
	case http.StatusUnauthorized:
		code = domain.EUNAUTHORIZED
	case http.StatusForbidden:
		code = domain.EFORBIDDEN
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = domain.ENOTFOUND
	case http.StatusTooManyRequests:
		code = domain.ERATELIMIT
	default:
		return domain.Internal(he, "http", message)
	}
	return domain.Errorf(code, "http", "%s", message)
}
