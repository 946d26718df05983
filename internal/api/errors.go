package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ApiError is a non-2xx response from the chat service.
type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

// NewApiError builds an ApiError from a response status and body. An empty
// body falls back to the standard status text.
func NewApiError(statusCode int, message string) *ApiError {
	if message == "" {
		message = lower(http.StatusText(statusCode))
	}

	return &ApiError{
		StatusCode: statusCode,
		Message:    message,
	}
}
