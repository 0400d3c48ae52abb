package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/forrev/forrev-cli/internal/event"
)

const genericFailure = "Something went wrong. Please try again."

// AuthError means the service refused the request because the user is not
// logged in or not allowed (401/403, or isAuthenticated: false).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("not authorized (status %d): %s", e.Status, e.Message)
}

// NetworkError means the request never produced a response
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is any other non-2xx response
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// IsAuth reports whether err is an AuthError
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetwork reports whether err is a NetworkError
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Message returns the text to show a user for err
func Message(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *event.ValidationError
	var authErr *AuthError
	var netErr *NetworkError
	var serverErr *ServerError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &authErr):
		if authErr.Message != "" {
			return authErr.Message
		}
		return "You need to log in to do that."
	case errors.As(err, &netErr):
		return "Could not reach the forrev service. Check your connection and retry."
	case errors.As(err, &serverErr):
		return serverErr.Message
	}
	return err.Error()
}

func newStatusError(status int, contentType string, body []byte) error {
	msg := extractMessage(contentType, body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = genericFailure
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{Status: status, Message: msg}
	}
	return &ServerError{Status: status, Message: msg}
}

// extractMessage pulls a human-readable message out of an error body. JSON
// bodies use the error/detail/message keys or the first field error; HTML
// pages use their heading or title.
func extractMessage(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if body[0] == '{' || body[0] == '[' || strings.Contains(contentType, "json") {
		if msg := jsonMessage(body); msg != "" {
			return msg
		}
	}

	if body[0] == '<' || strings.Contains(contentType, "html") {
		return htmlMessage(body)
	}

	text := string(body)
	if len(text) > 200 {
		return ""
	}
	return text
}

func jsonMessage(body []byte) string {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch v := payload.(type) {
	case []interface{}:
		return firstString(v)
	case map[string]interface{}:
		for _, key := range []string{"error", "detail", "message", "non_field_errors"} {
			if msg := stringValue(v[key]); msg != "" {
				return msg
			}
		}

		fields := make([]string, 0, len(v))
		for field := range v {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if msg := stringValue(v[field]); msg != "" {
				return fmt.Sprintf("%s: %s", field, msg)
			}
		}
	}
	return ""
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []interface{}:
		return firstString(val)
	}
	return ""
}

func firstString(values []interface{}) string {
	for _, item := range values {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func htmlMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	for _, selector := range []string{"#summary h1", "h1", "title"} {
		text := strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
		if text != "" {
			if detail := strings.Join(strings.Fields(doc.Find("#summary p, body > p").First().Text()), " "); detail != "" && selector != "title" {
				return text + ": " + detail
			}
			return text
		}
	}
	return ""
}
