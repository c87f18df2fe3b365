package dropbox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/imroc/req/v3"
)

var (
	ErrUnauthorized = errors.New("dropbox: unauthorized")
	ErrNotFound     = errors.New("dropbox: path not found")
	ErrRateLimited  = errors.New("dropbox: rate limited")
	ErrCursorReset  = errors.New("dropbox: cursor reset")
)

// APIError is the error body returned by the Dropbox API.
type APIError struct {
	StatusCode int    `json:"-"`
	Summary    string `json:"error_summary"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropbox api error: %d %s", e.StatusCode, e.Summary)
}

// Unwrap maps well known summaries onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case strings.Contains(e.Summary, "not_found"):
		return ErrNotFound
	case strings.Contains(e.Summary, "reset"):
		return ErrCursorReset
	}
	return nil
}

// handleAPIError turns a failed request or an error response into an error.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("dropbox %s: %w", operation, requestErr)
	}

	if !resp.IsErrorState() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if res, ok := resp.ErrorResult().(*APIError); ok && res.Summary != "" {
		apiErr.Summary = res.Summary
	} else {
		apiErr.Summary = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("dropbox %s: %w", operation, apiErr)
}
