package errs

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

func NewUnauthorizedError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusUnauthorized),
		Message:  message,
		Status:   http.StatusUnauthorized,
		Override: override,
	}
}

func NewForbiddenError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusForbidden),
		Message:  message,
		Status:   http.StatusForbidden,
		Override: override,
	}
}

// NewBadRequestError builds a 400. A nil code defaults to BAD_REQUEST.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := statusCode(http.StatusBadRequest)
	if code != nil {
		formattedCode = *code
	}
	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := statusCode(http.StatusNotFound)
	if code != nil {
		formattedCode = *code
	}
	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

func NewConflictError(message string, override bool, code *string) *HTTPError {
	formattedCode := statusCode(http.StatusConflict)
	if code != nil {
		formattedCode = *code
	}
	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusConflict,
		Override: override,
	}
}

func NewPayloadTooLargeError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusRequestEntityTooLarge),
		Message: message,
		Status:  http.StatusRequestEntityTooLarge,
	}
}

func NewTooManyRequestsError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusTooManyRequests),
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func NewServiceUnavailableError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusServiceUnavailable),
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}

// NewInternalServerError never exposes the underlying cause.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusInternalServerError),
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	}
}

// ValidationError converts a validator error into a 400 with per-field errors.
func ValidationError(err error) *HTTPError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.Field(),
			Error: describeTag(fe),
		})
	}
	return NewBadRequestError("Validation failed", true, nil, fields, nil)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "e164":
		return "must be an E.164 phone number"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	case "url":
		return "must be a URL"
	case "required_unless":
		return "is required"
	default:
		return "is invalid"
	}
}
