// ABOUTME: Typed failure for non-2xx responses from the Store APIs
// ABOUTME: Lets callers branch on status codes such as 403 without string matching
package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when the remote API answers with a non-success status
type APIError struct {
	StatusCode int
	Body       string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsForbidden reports whether err is a 403 from the remote API
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 from the remote API
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsServerError reports whether err is a 5xx from the remote API
func IsServerError(err error) bool {
	code := StatusCode(err)
	return code >= 500 && code <= 599
}
