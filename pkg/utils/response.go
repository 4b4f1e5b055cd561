package utils

import (
	"encoding/json"
	"net/http"

	"villamedia/pkg/logger"
)

const (
	// Request Error Codes
	ErrRequestInvalid           = "request/invalid_parameters"
	ErrRequestRateLimitExceeded = "request/rate_limit_exceeded"

	ErrRequestBodyTooLarge     = "request/body_too_large"
	ErrRequestUnSupportedMedia = "request/invalid_media"

	// Auth Error Codes
	ErrAuthRequired = "auth/authentication_required"
	ErrAuthInvalid  = "auth/invalid_credentials"

	// Server Error Codes
	ErrServerInternal    = "server/internal_error"
	ErrServerUnavailable = "server/unavailable"

	// Resource Error Codes
	ErrResourceNotFound = "resource/not_found"

	// Media
	ErrImageProcessingFailed = "image/processing_failed"
	ErrMediaIncomplete       = "media/incomplete"

	ErrBackupConcurrencyLimit = "backup/concurrency_limit"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// WriteError sends a JSON formatted error response.
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	if status >= http.StatusInternalServerError {
		logger.LogError("%s: %s", code, message)
	} else {
		logger.LogDebug("%s: %s", code, message)
	}
	WriteJSON(w, status, APIError{
		Code:    code,
		Message: message,
		Status:  status,
	})
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
