package dokume

import (
	"fmt"
	"strings"
)

// FetchError is returned when the API answered but reported a failure.
type FetchError struct {
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("api error: %s", e.Message)
}

// StatusError carries status and body for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
