// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Clients branch on the code; the `error`
// field is for people.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "device_busy",
//	  "error": "speech recognition failed: audio device is busy"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeDeviceBusy        = "device_busy"
	ErrCodeRecognitionFailed = "recognition_failed"
	ErrCodeProviderTimeout   = "provider_timeout"
	ErrCodeProviderFailed    = "provider_failed"
	ErrCodeStorageFailed     = "storage_failed"
	ErrCodeRenderFailed      = "render_failed"
)
