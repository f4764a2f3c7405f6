package errs

import (
	"errors"
	"net/http"
	"strings"
)

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType tells the client what to do next.
type ActionType string

const (
	ActionTypeRedirect ActionType = "redirect"
	ActionTypeRelogin  ActionType = "relogin"
)

// Action is an optional client instruction attached to an error.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the error type every handler returns to the client.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors"`
	Action *Action      `json:"action"`

	DebugDetail string `json:"debug_detail,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	c := *e
	c.Message = message
	return &c
}

// WithDebug returns a copy of e carrying detail for debug responses.
func (e *HTTPError) WithDebug(detail string) *HTTPError {
	c := *e
	c.DebugDetail = detail
	return &c
}

// As extracts an *HTTPError from err's chain.
func As(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}
