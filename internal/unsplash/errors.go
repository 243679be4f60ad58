package unsplash

import (
	"fmt"
	"strings"
)

// APIError is returned for non-2xx responses of the photo API.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("photo api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("photo api returned status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

type errorBody struct {
	Errors []string `json:"errors"`
}
