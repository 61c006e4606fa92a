// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint: the error
// envelope, the translation of service errors into statuses and codes, and
// small success writers.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "message": "validation failed: tags: empty",
//	  "fields": {"tags": "empty"}
//	}
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gojson "github.com/goccy/go-json"

	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"recipe not found"`
	// Field-level faults for validation errors: field -> reason
	Fields map[string]string `json:"fields,omitempty"`
}

// fail aborts the request with an error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failFields(c, status, code, msg, nil)
}

func failFields(c *gin.Context, status int, code, msg string, fields map[string]string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.GetRequestID(c),
		Code:      code,
		Message:   msg,
		Fields:    fields,
	})
}

// Fail is the exported variant of fail, used by the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates a service error into the envelope. Unknown errors become
// a generic 500; their text is logged, never sent.
func failErr(c *gin.Context, err error) {
	var many services.ValidationErrors
	var one services.ValidationError
	switch {
	case errors.As(err, &many):
		failFields(c, http.StatusBadRequest, ErrCodeValidation, many.Error(), many.Fields())
	case errors.As(err, &one):
		failFields(c, http.StatusBadRequest, ErrCodeValidation, one.Error(), map[string]string{one.Field: one.Reason})
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusBadRequest, ErrCodeInvalidCredentials, "unable to log in with provided credentials")
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusBadRequest, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "you do not have permission to perform this action")
	default:
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// failBind reports a request body that could not be bound. A value of the
// wrong JSON type for a known field is a validation fault on that field;
// anything else is a malformed body.
func failBind(c *gin.Context, err error) {
	field := ""
	var std *json.UnmarshalTypeError
	var goccy *gojson.UnmarshalTypeError
	switch {
	case errors.As(err, &std):
		field = std.Field
	case errors.As(err, &goccy):
		field = goccy.Field
	}
	if field == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Nested paths such as "ingredients.amount" report on the top-level
	// field with the inner name as the reason.
	reason := "invalid_type"
	if top, inner, nested := strings.Cut(field, "."); nested {
		field = top
		reason = inner[strings.LastIndex(inner, ".")+1:]
	}
	failErr(c, services.ValidationErrors{{Field: field, Reason: reason}})
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
