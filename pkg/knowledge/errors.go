package knowledge

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/logging"
)

// maxErrorBody caps how much of a response body is kept on HTTPError.
const maxErrorBody = 512

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is matches apperrors.ErrHTTPRequest, and apperrors.ErrNotFound for 404.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case apperrors.ErrHTTPRequest:
		return true
	case apperrors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func newHTTPError(method, url string, status int, body []byte) *HTTPError {
	return &HTTPError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Body:       logging.TruncateString(string(body), maxErrorBody),
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
