// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by all endpoints: the error
// envelope, the mapping from domain errors to status codes, and small helpers
// for success responses.
//
// Conventions:
//   - Every error response is an ErrorResponse with a human-readable `error`
//     and a stable `code`.
//   - `fail()` centralizes error logging and formatting, so 5xx responses are
//     logged with request context.
//   - `failErr()` classifies an error returned by a service and calls fail.
//
// Example error response:
//
//	HTTP/1.1 502 Bad Gateway
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "provider_failed",
//	  "error": "openai complete: 401 Unauthorized"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/http/middleware"
	"github.com/tbourn/go-voice-chat/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"provider_failed"`
	// Human-readable message
	Error string `json:"error" example:"openai complete: 401 Unauthorized"`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Error:     msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), used by the router for 404/405.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps err to its status and code and writes the envelope.
func failErr(c *gin.Context, err error) {
	status, code := classify(err)
	fail(c, status, code, err.Error())
}

// classify maps service and domain errors onto HTTP status codes. The device
// check comes first: ErrDeviceBusy travels inside a RecognitionError.
func classify(err error) (int, string) {
	var (
		re *domain.RecognitionError
		pe *domain.ProviderError
		se *domain.StorageError
	)
	switch {
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrInvalidLanguage):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrDeviceBusy):
		return http.StatusConflict, ErrCodeDeviceBusy
	case errors.As(err, &re):
		if errors.Is(err, domain.ErrNoSpeech) {
			return http.StatusUnprocessableEntity, ErrCodeRecognitionFailed
		}
		return http.StatusServiceUnavailable, ErrCodeRecognitionFailed
	case errors.As(err, &pe):
		if pe.Timeout() {
			return http.StatusGatewayTimeout, ErrCodeProviderTimeout
		}
		return http.StatusBadGateway, ErrCodeProviderFailed
	case errors.As(err, &se):
		return http.StatusInternalServerError, ErrCodeStorageFailed
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// notModified answers a conditional GET whose validator still matches.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
