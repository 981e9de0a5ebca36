package ccd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx response from the data store.
type APIError struct {
	StatusCode int
	Exception  string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ccd API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ccd API returned status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether the error is a 404 from the data store.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var payload struct {
		Exception string `json:"exception"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Exception = payload.Exception
		apiErr.Message = payload.Message
	}
	return apiErr
}
