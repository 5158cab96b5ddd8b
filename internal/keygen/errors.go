// internal/keygen/errors.go
package keygen

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// CodeSeatsExhausted is the machine-readable code carried by SeatsExhaustedError.
const CodeSeatsExhausted = "SEATS_EXHAUSTED"

const maxErrorBody = 512

var ErrMalformedResponse = errors.New("[keygen] malformed response")

// Seats is a snapshot of a license's seat pool. Max 0 means unlimited.
type Seats struct {
	Max  int `json:"max"`
	Used int `json:"used"`
}

// HTTPError is a non-2xx answer from the licensing service. Body is for logs
// only and must not be shown to end users.
type HTTPError struct {
	Op         string
	Status     int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("[keygen] %s failed: %d %s", e.Op, e.Status, e.StatusText)
	if e.Body != "" {
		msg += " " + e.Body
	}
	return msg
}

// AuthError is returned for 401/403 so callers can stop instead of retrying.
type AuthError struct {
	Op     string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("[keygen] %s unauthorized: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// SeatsExhaustedError means the license has no free machine slot.
type SeatsExhaustedError struct {
	Seats Seats
}

func (e *SeatsExhaustedError) Error() string {
	return fmt.Sprintf("[keygen] seats exhausted: %d of %d in use", e.Seats.Used, e.Seats.Max)
}

func (e *SeatsExhaustedError) Code() string {
	return CodeSeatsExhausted
}

func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func AsSeatsExhausted(err error) (*SeatsExhaustedError, bool) {
	var seatsErr *SeatsExhaustedError
	if errors.As(err, &seatsErr) {
		return seatsErr, true
	}
	return nil, false
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	return 0
}

// classify turns a completed response into nil, *AuthError or *HTTPError.
func classify(op string, resp *Response) error {
	if resp.OK() {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{Op: op, Status: resp.StatusCode}
	}
	return &HTTPError{
		Op:         op,
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Body:       truncate(strings.TrimSpace(string(resp.Body)), maxErrorBody),
	}
}

func statusText(resp *Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
