package middleware

import (
	"errors"
	"net/http"
	"strings"

	"insuranceInsights/domain"
	"insuranceInsights/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

// StatusFor maps service errors to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDataLoad):
		return http.StatusServiceUnavailable, "DATA_LOAD_ERROR"
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest, "INVALID_FILTER"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound, "NO_DATA"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnsupportedChart):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// ErrorHandler is the echo HTTPErrorHandler. Every error leaves as the JSON envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		code    string
		message = err.Error()
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		code = strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		if m, ok := he.Message.(string); ok {
			message = m
		}
	} else {
		status, code = StatusFor(err)
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "status", status, "error", err)
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse(code, message))
	}
	if err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}

// ErrorDetail is the error member of every failure envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ErrorResponse(code, message string) fres.DefaultErrorResponse {
	return fres.DefaultErrorResponse{
		Success: false,
		Message: message,
		Error:   ErrorDetail{Code: code, Message: message},
	}
}
