package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GenericFailureMessage is shown whenever the server gives us nothing
// better to say.
const GenericFailureMessage = "Request failed. Please try again later."

const maxErrorBody = 4096

// Error represents a non-success response from a collaborator endpoint.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("httpx: status %d: %s", e.Status, e.Message)
}

// NewError builds an Error from a response status and body. The body is
// probed for the canonical {"message": ...} envelope; anything else falls
// back to the generic failure message.
func NewError(status int, body io.Reader) *Error {
	return &Error{
		Status:  status,
		Message: MessageFrom(body),
	}
}

// MessageFrom extracts a human-readable message from an error response
// body. Absent or malformed bodies yield the generic failure message.
func MessageFrom(body io.Reader) string {
	if body == nil {
		return GenericFailureMessage
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return GenericFailureMessage
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if msg := strings.TrimSpace(envelope.Message); msg != "" {
			return msg
		}
	}
	return GenericFailureMessage
}

// IsSuccess reports whether the HTTP status code indicates success.
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
